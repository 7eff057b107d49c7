package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartActivityConsumer connects to RabbitMQ, declares both event queues
// (durable) and appends one line per event to logPath.  It runs a
// reconnect loop with exponential backoff and only returns once ctx is
// cancelled.  A message that cannot be decoded or written is rejected
// without requeue so a poison message cannot spin the loop.
func StartActivityConsumer(ctx context.Context, url, logPath string, log *logrus.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("activity-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logPath, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("activity-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("activity-consumer: set QoS failed")
	}

	ratings, err := declareAndConsume(ch, RatingSubmittedQueue)
	if err != nil {
		return err
	}
	users, err := declareAndConsume(ch, UserRegisteredQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-ratings:
			queue = RatingSubmittedQueue
		case d, ok = <-users:
			queue = UserRegisteredQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := handleMessage(logPath, queue, d.Body); err != nil {
			log.WithError(err).WithField("queue", queue).Error("activity-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func declareAndConsume(ch *amqp.Channel, name string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", name, err)
	}
	msgs, err := ch.Consume(name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", name, err)
	}
	return msgs, nil
}

func handleMessage(logPath, queue string, body []byte) error {
	line, err := formatActivity(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatActivity renders one event as a single newline-terminated line.
func formatActivity(queue string, body []byte) (string, error) {
	switch queue {
	case RatingSubmittedQueue:
		var ev RatingSubmittedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		avg := "-"
		if ev.Average != nil {
			avg = strconv.FormatFloat(*ev.Average, 'f', 2, 64)
		}
		return fmt.Sprintf("[%s] Rating submitted | user_id=%d | movie_id=%d | rating=%d | average=%s\n",
			ev.SubmittedAt, ev.UserID, ev.MovieID, ev.Rating, avg), nil
	case UserRegisteredQueue:
		var ev UserRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] User registered | user_id=%d | username=%q\n",
			ev.RegisteredAt, ev.UserID, ev.Username), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}
