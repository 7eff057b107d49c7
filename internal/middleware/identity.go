package middleware

// identity.go holds userID, which pulls the authenticated user out of the
// request session for the request logger.  When no session is attached
// or nobody is logged in, "guest" is returned.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/session"
)

// userID returns the logged-in user's id as a string or "guest".
func userID(c echo.Context) string {
	s := session.From(c)
	if !s.Authenticated() {
		return "guest"
	}
	return strconv.FormatUint(s.UserID, 10)
}
