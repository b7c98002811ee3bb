// AngelaMos | 2026
// events.go

// Package events publishes subscription lifecycle transitions to downstream
// notifiers over AMQP. The live dashboards do not depend on it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const (
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
)

type Transition struct {
	Action         string    `json:"action"`
	SubscriptionID string    `json:"subscription_id"`
	OwnerID        string    `json:"owner_id"`
	ActorID        string    `json:"actor_id"`
	Band           string    `json:"band"`
	Price          int64     `json:"price"`
	Status         string    `json:"status"`
	At             time.Time `json:"at"`
}

func (t Transition) RoutingKey() string {
	return "subscription." + t.Action
}

type Publisher interface {
	Publish(ctx context.Context, t Transition) error
}

// Noop drops every transition.
type Noop struct{}

func (Noop) Publish(context.Context, Transition) error { return nil }

type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// Dial connects with retries and declares a durable topic exchange.
func Dial(
	url, exchange string,
	retries int,
	backoff time.Duration,
	logger *slog.Logger,
) (*AMQPPublisher, error) {
	if retries < 1 {
		retries = 1
	}

	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("amqp dial failed",
			"attempt", attempt,
			"error", err,
		)
		if attempt < retries {
			time.Sleep(backoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, t Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}

	// amqp.Channel is not safe for concurrent publishers
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(
		p.exchange,
		t.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    t.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", t.RoutingKey(), err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.logger.Warn("close amqp channel", "error", err)
	}
	return p.conn.Close()
}

// Emit publishes t and logs instead of failing the caller.
func Emit(ctx context.Context, pub Publisher, logger *slog.Logger, t Transition) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, t); err != nil {
		logger.Warn("transition publish failed",
			"action", t.Action,
			"subscription_id", t.SubscriptionID,
			"error", err,
		)
	}
}
