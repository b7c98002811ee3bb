// AngelaMos | 2026
// access_test.go

package access

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type flagStore struct {
	mu    sync.Mutex
	flags map[string]bool
	calls int
}

func (f *flagStore) MarkRevealed(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.flags[id] {
		return false, nil
	}
	f.flags[id] = true
	return true, nil
}

type fixedPrices struct{}

func (fixedPrices) Current() pricing.Pricing {
	return pricing.Pricing{
		SSID24: "Portal-24", Password24: "pw24",
		SSID5: "Portal-5", Password5: "pw5",
	}
}

func newPresenter(store *flagStore) *Presenter {
	return NewPresenter(store, fixedPrices{}, 30*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func activeSub(end time.Time) *subscription.Subscription {
	start := end.Add(-144 * time.Hour)
	return &subscription.Subscription{
		ID:      "sub-1",
		OwnerID: "owner-1",
		Band:    pricing.Band24,
		Status:  subscription.StatusActive,
		StartAt: &start,
		EndAt:   &end,
	}
}

func TestCountdown(t *testing.T) {
	end := now.Add(2*24*time.Hour + 3*time.Hour + 10*time.Minute)
	assert.Equal(t, Countdown{Days: 2, Hours: 3, Minutes: 10}, CountdownUntil(end, now))

	// sub-minute remainders truncate
	assert.Equal(t, Countdown{Minutes: 0}, CountdownUntil(now.Add(59*time.Second), now))
	assert.Equal(t, Countdown{}, CountdownUntil(now.Add(-time.Hour), now))
}

func TestExpiredStillTaggedActive(t *testing.T) {
	end := now.Add(-time.Minute)
	sub := activeSub(end)

	assert.False(t, IsCurrentlyActive(sub.Status, sub.EndAt, now))

	w := WindowOf(sub, now)
	assert.False(t, w.Active)
	assert.Equal(t, Countdown{}, w.Countdown)
}

func TestIsCurrentlyActive(t *testing.T) {
	end := now.Add(time.Hour)

	assert.True(t, IsCurrentlyActive(subscription.StatusActive, &end, now))
	assert.False(t, IsCurrentlyActive(subscription.StatusPending, &end, now))
	assert.False(t, IsCurrentlyActive(subscription.StatusActive, nil, now))
	assert.False(t, IsCurrentlyActive(subscription.StatusActive, &now, now))
}

func TestExpiringSoon(t *testing.T) {
	soon := now.Add(47 * time.Hour)
	later := now.Add(49 * time.Hour)

	assert.True(t, ExpiringSoon(subscription.StatusActive, &soon, now))
	assert.False(t, ExpiringSoon(subscription.StatusActive, &later, now))
	assert.False(t, ExpiringSoon(subscription.StatusRejected, &soon, now))
}

func TestAutomaticRevealFiresOnce(t *testing.T) {
	store := &flagStore{flags: map[string]bool{}}
	p := newPresenter(store)

	first, err := p.Observe(context.Background(), activeSub(now.Add(time.Hour)), now)
	require.NoError(t, err)
	require.NotNil(t, first.Reveal)
	assert.True(t, first.Reveal.Automatic)
	assert.Equal(t, "pw24", first.Reveal.Credential.Password)
	assert.Equal(t, now.Add(30*time.Second), first.Reveal.HideAt)

	// a reload fetches the record again with the flag still unset locally
	reload, err := p.Observe(context.Background(), activeSub(now.Add(time.Hour)), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, reload.Reveal)
	assert.True(t, reload.Window.Active)
}

func TestAutomaticRevealSingleWinnerUnderConcurrency(t *testing.T) {
	store := &flagStore{flags: map[string]bool{}}
	p := newPresenter(store)

	const observers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	reveals := 0

	for range observers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := p.Observe(context.Background(), activeSub(now.Add(time.Hour)), now)
			if err == nil && obs.Reveal != nil {
				mu.Lock()
				reveals++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reveals)
}

func TestObserveSkipsInactiveAndFlagged(t *testing.T) {
	store := &flagStore{flags: map[string]bool{}}
	p := newPresenter(store)

	expired, err := p.Observe(context.Background(), activeSub(now.Add(-time.Hour)), now)
	require.NoError(t, err)
	assert.Nil(t, expired.Reveal)

	flagged := activeSub(now.Add(time.Hour))
	flagged.RevealTriggered = true
	obs, err := p.Observe(context.Background(), flagged, now)
	require.NoError(t, err)
	assert.Nil(t, obs.Reveal)

	assert.Zero(t, store.calls)
}

func TestRevealManually(t *testing.T) {
	store := &flagStore{flags: map[string]bool{}}
	p := newPresenter(store)

	sub := activeSub(now.Add(time.Hour))
	sub.Band = pricing.Band5
	sub.RevealTriggered = true

	for range 3 {
		r, err := p.RevealManually(context.Background(), sub, now)
		require.NoError(t, err)
		assert.False(t, r.Automatic)
		assert.Equal(t, "Portal-5", r.Credential.SSID)
	}
	assert.Zero(t, store.calls)

	_, err := p.RevealManually(context.Background(), activeSub(now.Add(-time.Second)), now)
	require.ErrorIs(t, err, core.ErrForbidden)
}
