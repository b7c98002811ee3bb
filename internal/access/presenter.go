// AngelaMos | 2026
// presenter.go

package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

type RevealMarker interface {
	MarkRevealed(ctx context.Context, id string) (bool, error)
}

type Prices interface {
	Current() pricing.Pricing
}

// Reveal is a timed display of the network credential.
type Reveal struct {
	SubscriptionID string             `json:"subscription_id"`
	Credential     pricing.Credential `json:"credential"`
	Automatic      bool               `json:"automatic"`
	HideAt         time.Time          `json:"hide_at"`
}

type Observation struct {
	Window Window  `json:"window"`
	Reveal *Reveal `json:"reveal,omitempty"`
}

type Presenter struct {
	marker         RevealMarker
	prices         Prices
	revealDuration time.Duration
	logger         *slog.Logger
}

func NewPresenter(
	marker RevealMarker,
	prices Prices,
	revealDuration time.Duration,
	logger *slog.Logger,
) *Presenter {
	return &Presenter{
		marker:         marker,
		prices:         prices,
		revealDuration: revealDuration,
		logger:         logger,
	}
}

// Observe derives the window and, the first time any observer sees the
// record active, fires the automatic reveal. The flag is claimed with a
// compare-and-set so concurrent observers cannot both win.
func (p *Presenter) Observe(
	ctx context.Context,
	sub *subscription.Subscription,
	now time.Time,
) (Observation, error) {
	obs := Observation{Window: WindowOf(sub, now)}

	if !obs.Window.Active || sub.RevealTriggered {
		return obs, nil
	}

	won, err := p.marker.MarkRevealed(ctx, sub.ID)
	if err != nil {
		return obs, fmt.Errorf("observe %s: %w", sub.ID, err)
	}
	sub.RevealTriggered = true

	if !won {
		return obs, nil
	}

	reveal, err := p.reveal(sub, now, true)
	if err != nil {
		return obs, err
	}

	core.AddSpanEvent(ctx, "access.reveal_automatic",
		core.AttrSubscriptionID.String(sub.ID),
		core.AttrBand.String(sub.Band))
	p.logger.Info("automatic reveal fired",
		"subscription_id", sub.ID,
		"owner_id", sub.OwnerID,
	)

	obs.Reveal = reveal
	return obs, nil
}

// RevealManually shows the credential again on request. It never touches
// the one-time flag.
func (p *Presenter) RevealManually(
	ctx context.Context,
	sub *subscription.Subscription,
	now time.Time,
) (*Reveal, error) {
	_, span := core.StartSpan(ctx, "access.reveal_manual",
		core.AttrSubscriptionID.String(sub.ID))
	defer span.End()

	if !IsCurrentlyActive(sub.Status, sub.EndAt, now) {
		return nil, fmt.Errorf("reveal %s: %w", sub.ID, core.ErrForbidden)
	}
	return p.reveal(sub, now, false)
}

func (p *Presenter) reveal(
	sub *subscription.Subscription,
	now time.Time,
	automatic bool,
) (*Reveal, error) {
	current := p.prices.Current()
	cred, err := current.CredentialFor(sub.Band)
	if err != nil {
		return nil, fmt.Errorf("reveal %s: %w", sub.ID, err)
	}

	return &Reveal{
		SubscriptionID: sub.ID,
		Credential:     cred,
		Automatic:      automatic,
		HideAt:         now.Add(p.revealDuration),
	}, nil
}
