package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-watchlist/internal/database"
	"github.com/iliyamo/movie-watchlist/internal/model"
)

const movieColumns = "id, title, year, description, image, user_rating"

// MovieRepo encapsulates the queries on movies. Movies are read only
// apart from the aggregated user_rating column.
type MovieRepo struct {
	q database.Querier
}

func NewMovieRepo(q database.Querier) *MovieRepo { return &MovieRepo{q: q} }

// WithQuerier returns a copy bound to q, typically a transaction.
func (r *MovieRepo) WithQuerier(q database.Querier) *MovieRepo { return &MovieRepo{q: q} }

// List returns all movies ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]*model.Movie, error) {
	rows, err := r.q.Execute(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, err
	}
	out := make([]*model.Movie, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMovie(row))
	}
	return out, nil
}

// FindByID fetches a movie or returns ErrMovieNotFound.
func (r *MovieRepo) FindByID(ctx context.Context, id uint64) (*model.Movie, error) {
	row, err := r.q.FindOne(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ? LIMIT 1", id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return mapMovie(row), nil
}

// UpdateRating stores avg as the movie's user rating.
func (r *MovieRepo) UpdateRating(ctx context.Context, movieID uint64, avg float64) error {
	_, err := r.q.Exec(ctx, "UPDATE movies SET user_rating = ? WHERE id = ?", avg, movieID)
	return err
}

// RecomputeRating sets user_rating to the average of all reviews of the
// movie in a single statement, so the value always matches the reviews
// visible to the statement. With no reviews the rating becomes NULL.
// rating is widened to a double first: MySQL averages an INT column as
// DECIMAL with four places.
func (r *MovieRepo) RecomputeRating(ctx context.Context, movieID uint64) error {
	_, err := r.q.Exec(ctx,
		"UPDATE movies SET user_rating = (SELECT AVG(rating * 1.0e0) FROM reviews WHERE movie_id = ?) WHERE id = ?",
		movieID, movieID)
	return err
}

func mapMovie(row database.Row) *model.Movie {
	return &model.Movie{
		ID:          row.Uint64("id"),
		Title:       row.String("title"),
		Year:        int(row.Int64("year")),
		Description: row.String("description"),
		Image:       row.String("image"),
		UserRating:  row.NullFloat64("user_rating"),
	}
}
