package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the store ping
	"net/http" // net/http provides status codes and response helpers
	"time"     // time defines the ping timeout

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a health-check endpoint used by load balancers and
// monitoring systems.  It answers "ok" with 200 when the store responds
// and "unavailable" with 503 otherwise.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "unavailable")
		}
		return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status
	}
}
