package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/queue"
)

// EventPublisher is the outbound side of the domain events.  A nil
// publisher disables events.
type EventPublisher interface {
	PublishRatingSubmitted(ctx context.Context, ev queue.RatingSubmittedEvent) error
	PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error
}

const publishTimeout = 5 * time.Second

// publishAsync runs fn off the request path.  Failures are logged only;
// the user's action has already been committed.
func publishAsync(log *logrus.Logger, name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.WithError(err).WithField("event", name).Warn("event publish failed")
		}
	}()
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
