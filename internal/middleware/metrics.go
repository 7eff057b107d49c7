package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/metrics"
)

// Metrics records request count, latency and in-flight requests, labelled
// by route template.  The /metrics scrape itself is not counted.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			done := metrics.RequestStarted()
			defer done()
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error handler has not run yet, so the recorded
				// status would still be 200.
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			metrics.ObserveRequest(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}
