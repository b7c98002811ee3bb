// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/wifi-portal/internal/account"
	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/events"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
)

type Profiles interface {
	GetAccount(ctx context.Context, id string) (*account.Account, error)
}

type Prices interface {
	Current() pricing.Pricing
}

type Service struct {
	repo           Repository
	profiles       Profiles
	prices         Prices
	live           notify.Publisher
	downstream     events.Publisher
	metrics        *Metrics
	clock          core.Clock
	logger         *slog.Logger
	accessDuration time.Duration
}

type ServiceConfig struct {
	Repo           Repository
	Profiles       Profiles
	Prices         Prices
	Live           notify.Publisher
	Downstream     events.Publisher
	Metrics        *Metrics
	Clock          core.Clock
	Logger         *slog.Logger
	AccessDuration time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = core.SystemClock
	}
	return &Service{
		repo:           cfg.Repo,
		profiles:       cfg.Profiles,
		prices:         cfg.Prices,
		live:           cfg.Live,
		downstream:     cfg.Downstream,
		metrics:        cfg.Metrics,
		clock:          clock,
		logger:         cfg.Logger,
		accessDuration: cfg.AccessDuration,
	}
}

// Submit creates a pending request priced from the current pricing snapshot.
func (s *Service) Submit(
	ctx context.Context,
	actor authz.Actor,
	req SubmitRequest,
) (sub *Subscription, err error) {
	defer func() { s.metrics.observe(events.ActionSubmit, err) }()

	ctx, span := core.StartSpan(ctx, "subscription.submit",
		core.AttrBand.String(req.Band),
		core.AttrActorID.String(actor.ID))
	defer span.End()

	if !pricing.ValidBand(req.Band) {
		return nil, fmt.Errorf("submit: %w", core.NewInputError("band", "unknown band"))
	}
	if !ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("submit: %w",
			core.NewInputError("payment_method", "unknown payment method"))
	}

	ref := strings.TrimSpace(req.TransactionRef)
	if ref == "" {
		return nil, fmt.Errorf("submit: %w",
			core.NewInputError("transaction_ref", "transaction reference is required"))
	}

	var mac *string
	if raw := strings.TrimSpace(req.MACAddress); raw != "" {
		hw, parseErr := net.ParseMAC(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("submit: %w",
				core.NewInputError("mac_address", "mac address is malformed"))
		}
		normalized := hw.String()
		mac = &normalized
	}

	owner, err := s.profiles.GetAccount(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	current := s.prices.Current()
	price, err := current.PriceFor(req.Band)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	sub = &Subscription{
		ID:             uuid.New().String(),
		OwnerID:        owner.ID,
		FullName:       owner.FullName,
		Phone:          owner.Phone,
		Band:           req.Band,
		PaymentMethod:  req.PaymentMethod,
		TransactionRef: ref,
		MACAddress:     mac,
		Price:          price,
		Status:         StatusPending,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("submit: %w", err)
	}

	s.logger.Info("subscription submitted",
		"subscription_id", sub.ID,
		"owner_id", sub.OwnerID,
		"band", sub.Band,
		"price", sub.Price,
	)

	s.announce(ctx, notify.TypeSubscriptionCreated, events.ActionSubmit, actor, sub)
	return sub, nil
}

// Approve stamps the access window on a pending request. The window is
// computed here from the server clock, never from the caller.
func (s *Service) Approve(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (sub *Subscription, err error) {
	defer func() { s.metrics.observe(events.ActionApprove, err) }()

	if !authz.CanDecide(actor.Role) {
		return nil, fmt.Errorf("approve: %w", core.ErrForbidden)
	}
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "subscription.approve",
		core.AttrSubscriptionID.String(id),
		core.AttrActorID.String(actor.ID))
	defer span.End()

	now := s.clock.Now().UTC()
	end := now.Add(s.accessDuration)

	sub, err = s.repo.Decide(ctx, id, Decision{
		Status:    StatusActive,
		StartAt:   &now,
		EndAt:     &end,
		DecidedBy: actor.ID,
		DecidedAt: now,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("approve: %w", err)
	}

	s.logger.Info("subscription approved",
		"subscription_id", sub.ID,
		"actor_id", actor.ID,
		"end_at", end,
	)

	s.announce(ctx, notify.TypeSubscriptionApproved, events.ActionApprove, actor, sub)
	return sub, nil
}

func (s *Service) Reject(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (sub *Subscription, err error) {
	defer func() { s.metrics.observe(events.ActionReject, err) }()

	if !authz.CanDecide(actor.Role) {
		return nil, fmt.Errorf("reject: %w", core.ErrForbidden)
	}
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("reject: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "subscription.reject",
		core.AttrSubscriptionID.String(id),
		core.AttrActorID.String(actor.ID))
	defer span.End()

	sub, err = s.repo.Decide(ctx, id, Decision{
		Status:    StatusRejected,
		DecidedBy: actor.ID,
		DecidedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("reject: %w", err)
	}

	s.logger.Info("subscription rejected",
		"subscription_id", sub.ID,
		"actor_id", actor.ID,
	)

	s.announce(ctx, notify.TypeSubscriptionRejected, events.ActionReject, actor, sub)
	return sub, nil
}

// Delete permanently removes a record.
func (s *Service) Delete(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (err error) {
	defer func() { s.metrics.observe(events.ActionDelete, err) }()

	if !authz.CanHardDelete(actor.Role) {
		return fmt.Errorf("delete subscription: %w", core.ErrForbidden)
	}
	if err := checkID(id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	s.logger.Warn("subscription deleted",
		"subscription_id", id,
		"owner_id", sub.OwnerID,
		"actor_id", actor.ID,
	)

	s.announce(ctx, notify.TypeSubscriptionDeleted, events.ActionDelete, actor, sub)
	return nil
}

func (s *Service) Get(
	ctx context.Context,
	actor authz.Actor,
	id string,
) (*Subscription, error) {
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanViewSubscription(actor.Role, actor.ID, sub.OwnerID) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrForbidden)
	}

	return sub, nil
}

func (s *Service) ListMine(
	ctx context.Context,
	actor authz.Actor,
	params ListParams,
) ([]Subscription, int, error) {
	params.OwnerID = actor.ID
	params.Status = ""
	return s.repo.List(ctx, params)
}

func (s *Service) ListAll(
	ctx context.Context,
	actor authz.Actor,
	params ListParams,
) ([]Subscription, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("list subscriptions: %w", core.ErrForbidden)
	}
	if params.Status != "" && !ValidStatus(params.Status) {
		return nil, 0, fmt.Errorf("list subscriptions: %w",
			core.NewInputError("status", "unknown status"))
	}
	return s.repo.List(ctx, params)
}

func (s *Service) ListPending(
	ctx context.Context,
	actor authz.Actor,
	params ListParams,
) ([]Subscription, int, error) {
	params.Status = StatusPending
	return s.ListAll(ctx, actor, params)
}

// Current is the owner's live access grant, or nil when there is none.
func (s *Service) Current(ctx context.Context, ownerID string) (*Subscription, error) {
	sub, err := s.repo.CurrentForOwner(ctx, ownerID, s.clock.Now())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *Service) Stats(ctx context.Context, actor authz.Actor) (Stats, error) {
	if !actor.IsAdmin() {
		return Stats{}, fmt.Errorf("subscription stats: %w", core.ErrForbidden)
	}
	return s.repo.Stats(ctx)
}

// checkID rejects ids that could never have been issued. Postgres would
// otherwise fail the uuid cast and the caller would see a validation error.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.ErrNotFound
	}
	return nil
}

func (s *Service) announce(
	ctx context.Context,
	eventType, action string,
	actor authz.Actor,
	sub *Subscription,
) {
	now := s.clock.Now()

	ev, err := notify.NewEvent(eventType, sub.ID, now, ToResponse(sub))
	if err != nil {
		s.logger.Warn("encode subscription event", "error", err)
	} else {
		notify.Fanout(ctx, s.live, s.logger, ev,
			notify.OwnerTopic(sub.OwnerID), notify.AdminTopic())
	}

	events.Emit(ctx, s.downstream, s.logger, events.Transition{
		Action:         action,
		SubscriptionID: sub.ID,
		OwnerID:        sub.OwnerID,
		ActorID:        actor.ID,
		Band:           sub.Band,
		Price:          sub.Price,
		Status:         sub.Status,
		At:             now,
	})
}
