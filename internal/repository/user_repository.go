package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-watchlist/internal/database"
	"github.com/iliyamo/movie-watchlist/internal/model"
)

const userColumns = "id, username, password_digest"

// UserRepo runs queries against the users table.
type UserRepo struct{ q database.Querier }

func NewUserRepo(q database.Querier) *UserRepo { return &UserRepo{q: q} }

// WithQuerier returns a copy bound to q, typically a transaction.
func (r *UserRepo) WithQuerier(q database.Querier) *UserRepo { return &UserRepo{q: q} }

// Add inserts a user and returns its ID.
func (r *UserRepo) Add(ctx context.Context, username, passwordDigest string) (uint64, error) {
	res, err := r.q.Exec(ctx,
		"INSERT INTO users (username, password_digest) VALUES (?, ?)",
		username, passwordDigest)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByName fetches a user by exact, case sensitive username.
func (r *UserRepo) FindByName(ctx context.Context, username string) (*model.User, error) {
	row, err := r.q.FindOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username)
	return userFromRow(row, err)
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	row, err := r.q.FindOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return userFromRow(row, err)
}

// Remove deletes the user row. Removing an unknown id is a no-op.
func (r *UserRepo) Remove(ctx context.Context, id uint64) error {
	_, err := r.q.Exec(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.q.Execute(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUser(row))
	}
	return out, nil
}

func userFromRow(row database.Row, err error) (*model.User, error) {
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return mapUser(row), nil
}

func mapUser(row database.Row) *model.User {
	return &model.User{
		ID:             row.Uint64("id"),
		Username:       row.String("username"),
		PasswordDigest: row.String("password_digest"),
	}
}
