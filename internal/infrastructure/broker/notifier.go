package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

const (
	exchangeName   = "user_events"
	publishTimeout = 5 * time.Second
)

// RabbitMQNotifier publishes domain events to a durable topic exchange. The
// connection and channel are lazily initialised, shared across requests, and
// re-established on demand. Publishing is fire-and-forget: each mutation
// dispatches exactly one bounded background publish, a failed publish is
// retried once after a reconnect, and whatever still fails is logged and
// dropped without affecting the triggering mutation.
type RabbitMQNotifier struct {
	url string
	log zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitMQNotifier(url string, log zerolog.Logger) *RabbitMQNotifier {
	return &RabbitMQNotifier{url: url, log: log}
}

// Publish emits the event envelope on a background goroutine with its own
// timeout, so the caller's response path never blocks on the broker.
func (n *RabbitMQNotifier) Publish(eventType domain.EventType, payload any) {
	event := domain.Event{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		RoutingKey: eventType.RoutingKey(),
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
	go n.publish(event)
}

func (n *RabbitMQNotifier) publish(event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Str("event_type", string(event.EventType)).Msg("event marshal failed")
		return
	}

	if err := n.tryPublish(ctx, event, body); err != nil {
		// Stale channel after a broker restart is the common case: drop the
		// cached handles and retry once on a fresh connection.
		n.reset()
		if err := n.tryPublish(ctx, event, body); err != nil {
			n.log.Error().Err(err).
				Str("event_id", event.EventID).
				Str("event_type", string(event.EventType)).
				Msg("event publish failed, dropping")
			return
		}
	}

	n.log.Debug().
		Str("event_id", event.EventID).
		Str("routing_key", event.RoutingKey).
		Msg("event published")
}

func (n *RabbitMQNotifier) tryPublish(ctx context.Context, event domain.Event, body []byte) error {
	ch, err := n.channel()
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		exchangeName,
		event.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
}

// channel returns the shared channel, dialling the broker and declaring the
// exchange on first use or after a reset.
func (n *RabbitMQNotifier) channel() (*amqp.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil && !n.ch.IsClosed() {
		return n.ch, nil
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	n.conn = conn
	n.ch = ch
	return ch, nil
}

func (n *RabbitMQNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

// Close releases the broker connection. Safe to call when never connected.
func (n *RabbitMQNotifier) Close() {
	n.reset()
}
