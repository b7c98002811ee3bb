// AngelaMos | 2026
// snapshot.go

package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

// Snapshot is the process-wide view of the pricing row. Readers never block;
// a pricing.updated event from any process triggers a reload.
type Snapshot struct {
	current  atomic.Pointer[Pricing]
	repo     Repository
	defaults Pricing
	logger   *slog.Logger
}

func NewSnapshot(repo Repository, defaults Pricing, logger *slog.Logger) *Snapshot {
	s := &Snapshot{repo: repo, defaults: defaults, logger: logger}
	d := defaults
	s.current.Store(&d)
	return s
}

// Load reads the row, keeping the configured defaults when it is missing.
func (s *Snapshot) Load(ctx context.Context) error {
	p, err := s.repo.Get(ctx)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("pricing row missing, using configured defaults",
			"price_24", s.defaults.Price24,
			"price_5", s.defaults.Price5,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load pricing: %w", err)
	}

	s.current.Store(p)
	return nil
}

func (s *Snapshot) Current() Pricing {
	return *s.current.Load()
}

func (s *Snapshot) Store(p *Pricing) {
	cp := *p
	s.current.Store(&cp)
}

// Watch reloads the snapshot on every pricing event until ctx ends.
func (s *Snapshot) Watch(ctx context.Context, sub notify.Subscriber) error {
	stream, err := sub.Subscribe(ctx, notify.PricingTopic())
	if err != nil {
		return fmt.Errorf("watch pricing: %w", err)
	}
	defer stream.Close() //nolint:errcheck // watcher teardown

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-stream.Events():
			if !ok {
				return nil
			}
			if ev.Type != notify.TypePricingUpdated {
				continue
			}
			if err := s.Load(ctx); err != nil {
				s.logger.Warn("pricing reload failed", "error", err)
			}
		}
	}
}
