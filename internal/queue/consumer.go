package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// ActivityConsumer reads user.registered and video.published and appends one
// line per event to an activity log file.
type ActivityConsumer struct {
	url     string
	logPath string
	logger  *slog.Logger
	mu      sync.Mutex // serialises appends to logPath
}

func NewActivityConsumer(url, logPath string, logger *slog.Logger) *ActivityConsumer {
	return &ActivityConsumer{url: url, logPath: logPath, logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are re-dialled with capped exponential backoff.  Run returns
// ctx.Err() once ctx is done.
func (c *ActivityConsumer) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("activity consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff // reset after successful connect

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("activity consumer: consume loop ended, reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *ActivityConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("activity consumer: set QoS failed", "err", err)
	}

	var users, videos <-chan amqp.Delivery
	for _, q := range []struct {
		name string
		out  *<-chan amqp.Delivery
	}{{UserRegisteredQueue, &users}, {VideoPublishedQueue, &videos}} {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q.name, err)
		}
		d, err := ch.Consume(q.name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q.name, err)
		}
		*q.out = d
	}

	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-users:
		case d, ok = <-videos:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.Handle(d.RoutingKey, d.Body); err != nil {
			c.logger.Error("activity consumer: handle message failed", "queue", d.RoutingKey, "err", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

// Handle decodes one message from queue and appends its activity line.
func (c *ActivityConsumer) Handle(queue string, body []byte) error {
	line, err := formatActivity(queue, body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatActivity(queue string, body []byte) (string, error) {
	switch queue {
	case UserRegisteredQueue:
		var ev UserRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] User registered | user_id=%d | username=%q | email=%q\n",
			ev.RegisteredAt, ev.UserID, ev.Username, ev.Email), nil
	case VideoPublishedQueue:
		var ev VideoPublishedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Video published | video_id=%d | owner_id=%d | title=%q | duration=%.1fs | published=%t\n",
			ev.PublishedAt, ev.VideoID, ev.OwnerID, ev.Title, ev.Duration, ev.IsPublished), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}
