// AngelaMos | 2026
// service.go

package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

type Service struct {
	repo     Repository
	snapshot *Snapshot
	events   notify.Publisher
	clock    core.Clock
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	snapshot *Snapshot,
	events notify.Publisher,
	clock core.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		snapshot: snapshot,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

func (s *Service) Current() Pricing {
	return s.snapshot.Current()
}

// SetPricing overwrites only the fields present in u.
func (s *Service) SetPricing(
	ctx context.Context,
	actor authz.Actor,
	u Update,
) (*Pricing, error) {
	if !authz.CanManagePricing(actor.Role) {
		return nil, fmt.Errorf("set pricing: %w", core.ErrForbidden)
	}

	if u.IsEmpty() {
		return nil, fmt.Errorf("set pricing: %w", core.NewInputError("pricing", "no fields to update"))
	}

	if (u.Price24 != nil && *u.Price24 < 0) || (u.Price5 != nil && *u.Price5 < 0) {
		return nil, fmt.Errorf("set pricing: %w", core.NewInputError("price", "price must not be negative"))
	}

	ctx, span := core.StartSpan(ctx, "pricing.set", core.AttrActorID.String(actor.ID))
	defer span.End()

	p, err := s.repo.Update(ctx, u, actor.ID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.snapshot.Store(p)

	ev, err := notify.NewEvent(notify.TypePricingUpdated, "pricing", s.clock.Now(), PublicViewOf(p))
	if err == nil {
		notify.Fanout(ctx, s.events, s.logger, ev, notify.PricingTopic())
	}

	s.logger.Info("pricing updated",
		"actor_id", actor.ID,
		"price_24", p.Price24,
		"price_5", p.Price5,
	)

	return p, nil
}
