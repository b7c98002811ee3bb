// AngelaMos | 2026
// notify.go

// Package notify delivers live change events between processes over Redis
// pub/sub. Each topic is a single Redis channel, so events published for one
// key arrive at a subscriber in publish order.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "portal:events:"

const (
	TypeSubscriptionCreated  = "subscription.created"
	TypeSubscriptionApproved = "subscription.approved"
	TypeSubscriptionRejected = "subscription.rejected"
	TypeSubscriptionDeleted  = "subscription.deleted"
	TypeSubscriptionRevealed = "subscription.revealed"
	TypePricingUpdated       = "pricing.updated"
	TypeSessionStarted       = "session.started"
	TypeSessionEnded         = "session.ended"
	TypeSessionTerminated    = "session.terminated"
)

type Event struct {
	Type string          `json:"type"`
	Key  string          `json:"key"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEvent(eventType, key string, at time.Time, data any) (Event, error) {
	ev := Event{Type: eventType, Key: key, At: at}
	if data == nil {
		return ev, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode event data: %w", err)
	}
	ev.Data = raw

	return ev, nil
}

func OwnerTopic(ownerID string) string {
	return "subscriptions:owner:" + ownerID
}

func AdminTopic() string {
	return "subscriptions:admin"
}

func PricingTopic() string {
	return "pricing"
}

func SessionTopic(accountID string) string {
	return "session:" + accountID
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (*Subscription, error)
}

type Hub struct {
	client *redis.Client
	logger *slog.Logger
}

func NewHub(client *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

func (h *Hub) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := h.client.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Subscribe confirms the subscription with Redis before returning, so events
// published after Subscribe returns are never missed.
func (h *Hub) Subscribe(ctx context.Context, topics ...string) (*Subscription, error) {
	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, channelPrefix+t)
	}

	ps := h.client.Subscribe(ctx, channels...)
	for range channels {
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close() //nolint:errcheck // cleanup on subscribe failure
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	sub := &Subscription{
		events: make(chan Event, 16),
		ps:     ps,
	}
	go sub.pump(ctx, h.logger)

	return sub, nil
}

type Subscription struct {
	events chan Event
	ps     *redis.PubSub
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	return s.ps.Close()
}

func (s *Subscription) pump(ctx context.Context, logger *slog.Logger) {
	defer close(s.events)

	msgs := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.ps.Close() //nolint:errcheck // context ended
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("dropping malformed event",
					"channel", msg.Channel,
					"error", err,
				)
				continue
			}

			select {
			case s.events <- ev:
			case <-ctx.Done():
				_ = s.ps.Close() //nolint:errcheck // context ended
				return
			}
		}
	}
}

// Fanout publishes ev to every topic, logging failures instead of returning
// them: a missed live update is recovered on the observer's next read.
func Fanout(ctx context.Context, pub Publisher, logger *slog.Logger, ev Event, topics ...string) {
	if pub == nil {
		return
	}
	for _, topic := range topics {
		if err := pub.Publish(ctx, topic, ev); err != nil {
			logger.Warn("live update not delivered",
				"topic", topic,
				"type", ev.Type,
				"key", ev.Key,
				"error", err,
			)
		}
	}
}
