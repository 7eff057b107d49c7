// Package service provides the RabbitMQ publisher for domain events.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/movie-watchlist/internal/queue"
)

// Publisher sends events to durable queues on the default exchange.  It
// dials per publish: events are rare (sign-ups and ratings) and a broker
// restart then needs no reconnect logic on this side.
type Publisher struct {
	url         string
	log         *logrus.Logger
	dialTimeout time.Duration
}

func NewPublisher(url string, log *logrus.Logger) *Publisher {
	return &Publisher{url: url, log: log, dialTimeout: 2 * time.Second}
}

// PublishRatingSubmitted publishes to the "rating.submitted" queue.
func (p *Publisher) PublishRatingSubmitted(ctx context.Context, ev q.RatingSubmittedEvent) error {
	return p.publish(ctx, q.RatingSubmittedQueue, ev)
}

// PublishUserRegistered publishes to the "user.registered" queue.
func (p *Publisher) PublishUserRegistered(ctx context.Context, ev q.UserRegisteredEvent) error {
	return p.publish(ctx, q.UserRegisteredQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	pub, err := newPublishing(event)
	if err != nil {
		p.log.WithError(err).WithField("queue", queue).Error("rabbitmq: marshal event failed")
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.log.WithError(err).WithField("queue", queue).Warn("rabbitmq: queue declare failed")
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		p.log.WithError(err).WithField("queue", queue).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

func newPublishing(event any) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
