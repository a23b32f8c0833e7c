package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits domain events.  Callers treat failures as best effort:
// a failed publish is logged and never fails the request that caused it.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, ev UserRegisteredEvent) error
	PublishVideoPublished(ctx context.Context, ev VideoPublishedEvent) error
}

// NopPublisher drops every event.  Used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, UserRegisteredEvent) error { return nil }
func (NopPublisher) PublishVideoPublished(context.Context, VideoPublishedEvent) error { return nil }

// AMQPPublisher publishes persistent JSON messages to RabbitMQ.  It dials a
// fresh connection per message, so a broker outage never leaves it holding
// a dead connection.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger
	dial   func(url string) (*amqp.Connection, error)
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, logger: logger, dial: amqp.Dial}
}

func (p *AMQPPublisher) PublishUserRegistered(ctx context.Context, ev UserRegisteredEvent) error {
	return p.publish(ctx, UserRegisteredQueue, ev)
}

func (p *AMQPPublisher) PublishVideoPublished(ctx context.Context, ev VideoPublishedEvent) error {
	return p.publish(ctx, VideoPublishedQueue, ev)
}

// newPublishing wraps a JSON payload in a persistent message.
func newPublishing(payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, payload any) error {
	pub, err := newPublishing(payload, time.Now())
	if err != nil {
		return err
	}
	conn, err := p.dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq channel open failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.logger.Warn("rabbitmq queue declare failed", "queue", queue, "err", err)
		return err
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq publish failed", "queue", queue, "err", err)
		return err
	}
	return nil
}
