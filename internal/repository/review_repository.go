package repository

import (
	"context"

	"github.com/iliyamo/movie-watchlist/internal/database"
	"github.com/iliyamo/movie-watchlist/internal/model"
)

// ReviewRepo manages per-user ratings in the reviews table.
type ReviewRepo struct{ q database.Querier }

func NewReviewRepo(q database.Querier) *ReviewRepo { return &ReviewRepo{q: q} }

// WithQuerier returns a copy bound to q, typically a transaction.
func (r *ReviewRepo) WithQuerier(q database.Querier) *ReviewRepo { return &ReviewRepo{q: q} }

// ListByMovie returns every review of a movie.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	rows, err := r.q.Execute(ctx,
		"SELECT user_id, movie_id, rating FROM reviews WHERE movie_id = ? ORDER BY user_id", movieID)
	if err != nil {
		return nil, err
	}
	return mapReviews(rows), nil
}

// Find returns the review of (userID, movieID) as a slice of zero or one.
func (r *ReviewRepo) Find(ctx context.Context, userID, movieID uint64) ([]model.Review, error) {
	rows, err := r.q.Execute(ctx,
		"SELECT user_id, movie_id, rating FROM reviews WHERE user_id = ? AND movie_id = ?", userID, movieID)
	if err != nil {
		return nil, err
	}
	return mapReviews(rows), nil
}

// Add inserts a new review. A second Add for the same pair fails on the
// primary key; use Upsert when the caller does not know which applies.
func (r *ReviewRepo) Add(ctx context.Context, userID, movieID uint64, rating int) error {
	_, err := r.q.Exec(ctx,
		"INSERT INTO reviews (user_id, movie_id, rating) VALUES (?, ?, ?)", userID, movieID, rating)
	return err
}

// Update changes the rating of an existing review.
func (r *ReviewRepo) Update(ctx context.Context, userID, movieID uint64, rating int) error {
	_, err := r.q.Exec(ctx,
		"UPDATE reviews SET rating = ? WHERE user_id = ? AND movie_id = ?", rating, userID, movieID)
	return err
}

// Upsert inserts the review or replaces the rating of the existing one in
// a single statement.
func (r *ReviewRepo) Upsert(ctx context.Context, userID, movieID uint64, rating int) error {
	q := `INSERT INTO reviews (user_id, movie_id, rating) VALUES (?, ?, ?)
	      ON CONFLICT (user_id, movie_id) DO UPDATE SET rating = excluded.rating`
	if r.q.Dialect() == database.DriverMySQL {
		q = `INSERT INTO reviews (user_id, movie_id, rating) VALUES (?, ?, ?)
		     ON DUPLICATE KEY UPDATE rating = VALUES(rating)`
	}
	_, err := r.q.Exec(ctx, q, userID, movieID, rating)
	return err
}

func mapReviews(rows []database.Row) []model.Review {
	out := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Review{
			UserID:  row.Uint64("user_id"),
			MovieID: row.Uint64("movie_id"),
			Rating:  int(row.Int64("rating")),
		})
	}
	return out
}
