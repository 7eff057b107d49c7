package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-watchlist/internal/database"
)

// TxRunner runs a function inside a store transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q database.Querier) error) error
}

// Ratings submits a user's rating of a movie and refreshes the movie's
// aggregate. Both writes happen in one transaction: the review is upserted
// and the average is recomputed from every review in a single statement,
// so concurrent submissions for the same movie cannot leave a stale
// average behind.
type Ratings struct {
	tx      TxRunner
	reviews *ReviewRepo
	movies  *MovieRepo
}

func NewRatings(tx TxRunner, reviews *ReviewRepo, movies *MovieRepo) *Ratings {
	return &Ratings{tx: tx, reviews: reviews, movies: movies}
}

// Submit records rating for (userID, movieID) and returns the movie's new
// average. The average is nil when the movie row does not exist; the
// review is still kept, matching the no-check semantics of other writes.
func (s *Ratings) Submit(ctx context.Context, userID, movieID uint64, rating int) (*float64, error) {
	var avg *float64
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		if err := s.reviews.WithQuerier(q).Upsert(ctx, userID, movieID, rating); err != nil {
			return err
		}
		movies := s.movies.WithQuerier(q)
		if err := movies.RecomputeRating(ctx, movieID); err != nil {
			return err
		}
		m, err := movies.FindByID(ctx, movieID)
		if err != nil {
			if errors.Is(err, ErrMovieNotFound) {
				return nil
			}
			return err
		}
		avg = m.UserRating
		return nil
	})
	if err != nil {
		return nil, err
	}
	return avg, nil
}
