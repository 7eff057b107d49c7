package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/session"
)

// Sessions loads the caller's session before the handler runs and writes
// it back afterwards.  Handlers read it with session.From(c).  A store
// failure while loading aborts the request with 500; a failure while
// saving is only logged because the response has usually been written.
func Sessions(m *session.Manager, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := m.Load(c)
			if err != nil {
				log.WithError(err).Error("session load failed")
				return echo.ErrInternalServerError
			}
			session.Attach(c, sess)

			herr := next(c)

			// The client may hang up right after the redirect; the write
			// must still happen.
			ctx := context.WithoutCancel(c.Request().Context())
			if err := m.Save(ctx, sess); err != nil {
				log.WithError(err).WithField("session", sess.ID).Warn("session save failed")
			}
			return herr
		}
	}
}
