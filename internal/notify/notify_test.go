// AngelaMos | 2026
// notify_test.go

package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewHub(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubDeliversInOrder(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := hub.Subscribe(ctx, OwnerTopic("u1"))
	require.NoError(t, err)
	defer sub.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := NewEvent(TypeSubscriptionCreated, "s1", now, map[string]string{"status": "PENDING"})
	require.NoError(t, err)
	approved, err := NewEvent(TypeSubscriptionApproved, "s1", now.Add(time.Minute), nil)
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, OwnerTopic("u1"), created))
	require.NoError(t, hub.Publish(ctx, OwnerTopic("u1"), approved))

	first := receive(t, sub)
	second := receive(t, sub)

	assert.Equal(t, TypeSubscriptionCreated, first.Type)
	assert.JSONEq(t, `{"status":"PENDING"}`, string(first.Data))
	assert.Equal(t, TypeSubscriptionApproved, second.Type)
	assert.Equal(t, "s1", second.Key)
}

func TestHubIsolatesTopics(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := hub.Subscribe(ctx, OwnerTopic("u1"), AdminTopic())
	require.NoError(t, err)
	defer sub.Close()

	ev := Event{Type: TypeSubscriptionCreated, Key: "other"}
	require.NoError(t, hub.Publish(ctx, OwnerTopic("u2"), ev))

	ev.Key = "admin"
	require.NoError(t, hub.Publish(ctx, AdminTopic(), ev))

	got := receive(t, sub)
	assert.Equal(t, "admin", got.Key)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := hub.Subscribe(ctx, PricingTopic())
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}
