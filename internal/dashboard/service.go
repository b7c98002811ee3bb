// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/wifi-portal/internal/access"
	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/receipt"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

const (
	historySize = 20
	recentSize  = 50
)

type Subscriptions interface {
	Get(ctx context.Context, actor authz.Actor, id string) (*subscription.Subscription, error)
	Current(ctx context.Context, ownerID string) (*subscription.Subscription, error)
	ListMine(ctx context.Context, actor authz.Actor, params subscription.ListParams) ([]subscription.Subscription, int, error)
	ListAll(ctx context.Context, actor authz.Actor, params subscription.ListParams) ([]subscription.Subscription, int, error)
	ListPending(ctx context.Context, actor authz.Actor, params subscription.ListParams) ([]subscription.Subscription, int, error)
	Stats(ctx context.Context, actor authz.Actor) (subscription.Stats, error)
}

type Prices interface {
	Current() pricing.Pricing
}

type UserDashboard struct {
	Current *subscription.SubscriptionResponse  `json:"current"`
	Window  *access.Window                      `json:"window"`
	Reveal  *access.Reveal                      `json:"reveal,omitempty"`
	History []subscription.SubscriptionResponse `json:"history"`
	Pricing pricing.PublicView                  `json:"pricing"`
}

type AdminDashboard struct {
	Pending []subscription.SubscriptionResponse `json:"pending"`
	Recent  []subscription.SubscriptionResponse `json:"recent"`
	Stats   subscription.Stats                  `json:"stats"`
	Pricing *pricing.AdminView                  `json:"pricing,omitempty"`
}

func emptyAdminDashboard() AdminDashboard {
	return AdminDashboard{
		Pending: []subscription.SubscriptionResponse{},
		Recent:  []subscription.SubscriptionResponse{},
	}
}

type Service struct {
	subs       Subscriptions
	presenter  *access.Presenter
	prices     Prices
	clock      core.Clock
	logger     *slog.Logger
	portalName string
}

func NewService(
	subs Subscriptions,
	presenter *access.Presenter,
	prices Prices,
	clock core.Clock,
	logger *slog.Logger,
	portalName string,
) *Service {
	return &Service{
		subs:       subs,
		presenter:  presenter,
		prices:     prices,
		clock:      clock,
		logger:     logger,
		portalName: portalName,
	}
}

// UserView composes the caller's dashboard. Observing the current grant may
// fire its one-time automatic reveal.
func (s *Service) UserView(ctx context.Context, actor authz.Actor) (UserDashboard, error) {
	now := s.clock.Now()
	snapshot := s.prices.Current()

	view := UserDashboard{
		History: []subscription.SubscriptionResponse{},
		Pricing: pricing.PublicViewOf(&snapshot),
	}

	current, err := s.subs.Current(ctx, actor.ID)
	if err != nil {
		return view, fmt.Errorf("user dashboard: %w", err)
	}

	if current != nil {
		obs, err := s.presenter.Observe(ctx, current, now)
		if err != nil {
			// the countdown is still valid without the reveal
			s.logger.Warn("reveal observation failed",
				"subscription_id", current.ID,
				"error", err,
			)
		}
		resp := subscription.ToResponse(current)
		view.Current = &resp
		view.Window = &obs.Window
		view.Reveal = obs.Reveal
	}

	history, _, err := s.subs.ListMine(ctx, actor, subscription.ListParams{
		Page:     1,
		PageSize: historySize,
	})
	if err != nil {
		return view, fmt.Errorf("user dashboard: %w", err)
	}
	view.History = subscription.ToResponseList(history)

	return view, nil
}

// AdminView is empty for callers without the admin capability.
func (s *Service) AdminView(ctx context.Context, actor authz.Actor) (AdminDashboard, error) {
	view := emptyAdminDashboard()
	if !actor.IsAdmin() {
		return view, nil
	}

	pending, _, err := s.subs.ListPending(ctx, actor, subscription.ListParams{
		Page:     1,
		PageSize: recentSize,
	})
	if err != nil {
		return denyAsEmpty(view, err)
	}

	recent, _, err := s.subs.ListAll(ctx, actor, subscription.ListParams{
		Page:     1,
		PageSize: recentSize,
	})
	if err != nil {
		return denyAsEmpty(view, err)
	}

	stats, err := s.subs.Stats(ctx, actor)
	if err != nil {
		return denyAsEmpty(view, err)
	}

	snapshot := s.prices.Current()
	adminPricing := pricing.AdminViewOf(&snapshot)

	view.Pending = subscription.ToResponseList(pending)
	view.Recent = subscription.ToResponseList(recent)
	view.Stats = stats
	view.Pricing = &adminPricing

	return view, nil
}

// Window recomputes the countdown of the caller's current grant.
func (s *Service) Window(ctx context.Context, actor authz.Actor) (*access.Window, error) {
	current, err := s.subs.Current(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("access window: %w", err)
	}
	if current == nil {
		return nil, nil
	}

	w := access.WindowOf(current, s.clock.Now())
	return &w, nil
}

// Reveal shows the credential of one of the caller's own grants.
func (s *Service) Reveal(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (*access.Reveal, error) {
	sub, err := s.subs.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if sub.OwnerID != actor.ID {
		return nil, fmt.Errorf("reveal: %w", core.ErrForbidden)
	}

	return s.presenter.RevealManually(ctx, sub, s.clock.Now())
}

type Receipt struct {
	Filename string
	Document []byte
}

func (s *Service) Receipt(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (*Receipt, error) {
	sub, err := s.subs.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	doc, err := receipt.Render(sub, s.prices.Current(), s.portalName)
	if err != nil {
		return nil, err
	}

	return &Receipt{Filename: receipt.Filename(sub), Document: doc}, nil
}

func denyAsEmpty(view AdminDashboard, err error) (AdminDashboard, error) {
	if errors.Is(err, core.ErrForbidden) {
		return view, nil
	}
	return view, fmt.Errorf("admin dashboard: %w", err)
}
