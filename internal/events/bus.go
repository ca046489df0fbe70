package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shopauth/internal/logger"
)

// Routing keys for auth domain events.
const (
	UserRegistered    = "user.registered"
	UserLoggedIn      = "user.logged_in"
	TokenRefreshed    = "token.refreshed"
	UserPasswordReset = "user.password_reset"
	UserEmailVerified = "user.email_verified"
)

// Event is the envelope published to the bus.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits auth domain events. Publishing is strictly best-effort:
// callers never fail a request because the bus is down.
type Publisher interface {
	Publish(ctx context.Context, eventType, userID string) error
	Close() error
}

// AMQPPublisher publishes events to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType, userID string) error {
	body, err := json.Marshal(Event{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher is used when no broker is configured. Publish succeeds
// without doing anything, matching the bus's best-effort contract.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType, userID string) error {
	logger.CtxInfo(ctx, "event bus not configured, dropping event", "type", eventType)
	return nil
}

func (NoopPublisher) Close() error { return nil }
