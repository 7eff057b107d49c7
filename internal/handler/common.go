package handler // handler defines http handlers

import (
	"context"  // context bounds store calls made on behalf of a request
	"net/http" // net/http provides status codes
	"strconv"  // strconv parses path ids
	"time"     // time defines the store call timeout

	"github.com/labstack/echo/v4" // echo defines request context types
	"github.com/sirupsen/logrus"  // logrus records store failures

	"github.com/iliyamo/movie-watchlist/internal/session" // session exposes the caller's identity
)

// dbTimeout bounds every store call made while serving one request.
const dbTimeout = 5 * time.Second

// dbContext derives a store context from the request context.
func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a numeric path parameter.  Zero and non-numeric values
// are reported as invalid.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64) // ids are unsigned
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// currentUserID returns the logged in user or 0.  Routes using it sit
// behind RequireLogin, so 0 only shows up when a handler is misrouted.
func currentUserID(c echo.Context) uint64 {
	if s := session.From(c); s != nil {
		return s.UserID
	}
	return 0
}

// seeOther redirects after a form post so a reload does not resubmit it.
func seeOther(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, path)
}

// notFound renders the not_found page with a 404.
func notFound(c echo.Context, what string) error {
	return c.Render(http.StatusNotFound, "not_found", NotFoundView{What: what})
}

// internalError logs a store failure and hands echo a bare 500 so no
// driver detail reaches the browser.
func internalError(c echo.Context, log *logrus.Logger, err error, msg string) error {
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error(msg)
	return echo.NewHTTPError(http.StatusInternalServerError)
}
