package repository

import (
	"context"

	"github.com/iliyamo/movie-watchlist/internal/database"
	"github.com/iliyamo/movie-watchlist/internal/model"
)

// SavedMovieRepo manages watch-list rows in saved_movies.
type SavedMovieRepo struct{ q database.Querier }

func NewSavedMovieRepo(q database.Querier) *SavedMovieRepo { return &SavedMovieRepo{q: q} }

// ListByUser returns the watch-list of a user.
func (r *SavedMovieRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SavedMovie, error) {
	rows, err := r.q.Execute(ctx,
		"SELECT user_id, movie_id FROM saved_movies WHERE user_id = ? ORDER BY movie_id", userID)
	if err != nil {
		return nil, err
	}
	return mapSavedMovies(rows), nil
}

// Find returns the entry for (userID, movieID) as a slice of zero or one.
func (r *SavedMovieRepo) Find(ctx context.Context, userID, movieID uint64) ([]model.SavedMovie, error) {
	rows, err := r.q.Execute(ctx,
		"SELECT user_id, movie_id FROM saved_movies WHERE user_id = ? AND movie_id = ?", userID, movieID)
	if err != nil {
		return nil, err
	}
	return mapSavedMovies(rows), nil
}

// Add saves a movie for a user. Saving twice keeps a single row.
func (r *SavedMovieRepo) Add(ctx context.Context, userID, movieID uint64) error {
	q := "INSERT OR IGNORE INTO saved_movies (user_id, movie_id) VALUES (?, ?)"
	if r.q.Dialect() == database.DriverMySQL {
		q = "INSERT IGNORE INTO saved_movies (user_id, movie_id) VALUES (?, ?)"
	}
	_, err := r.q.Exec(ctx, q, userID, movieID)
	return err
}

// Remove deletes the entry; removing an absent entry is a no-op.
func (r *SavedMovieRepo) Remove(ctx context.Context, userID, movieID uint64) error {
	_, err := r.q.Exec(ctx,
		"DELETE FROM saved_movies WHERE user_id = ? AND movie_id = ?", userID, movieID)
	return err
}

func mapSavedMovies(rows []database.Row) []model.SavedMovie {
	out := make([]model.SavedMovie, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.SavedMovie{UserID: row.Uint64("user_id"), MovieID: row.Uint64("movie_id")})
	}
	return out
}
