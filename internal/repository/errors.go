// Package repository defines the domain operations of the application:
// small named wrappers around persistence gateway queries, one repository
// per table. Repositories do not validate input; that is the job of the
// HTTP handlers. The sentinel errors below let handlers tell a missing
// record apart from a store failure.
package repository

import (
	"errors"
	"strings"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrMovieNotFound is returned when no movie matches the lookup.
var ErrMovieNotFound = errors.New("movie not found")

// ErrUsernameTaken is returned when an insert collides with the unique
// username key. Handlers check for an existing user first; this covers
// the window between that check and the insert.
var ErrUsernameTaken = errors.New("username already taken")

// isUniqueViolation recognises duplicate key errors of both drivers
// without importing them: mysql reports error 1062, sqlite reports a
// UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
