// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Queue names.  Each event type has its own durable queue on the default
// exchange; the routing key is the queue name.
const (
	RatingSubmittedQueue = "rating.submitted"
	UserRegisteredQueue  = "user.registered"
)

// RatingSubmittedEvent is published after a rating has been stored and
// the movie's average recomputed.  Average is nil only if the movie does
// not exist.
type RatingSubmittedEvent struct {
	UserID      uint64   `json:"user_id"`
	MovieID     uint64   `json:"movie_id"`
	Rating      int      `json:"rating"`
	Average     *float64 `json:"average"`
	SubmittedAt string   `json:"submitted_at"`
}

// UserRegisteredEvent is published after a successful sign-up.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	RegisteredAt string `json:"registered_at"`
}
