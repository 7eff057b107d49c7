package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/movie-watchlist/internal/session"
)

// RequireLogin guards the /p pages.  Guests are sent back to the landing
// page with a 303 so the browser follows up with a GET.  It assumes the
// Sessions middleware ran earlier in the chain.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !session.From(c).Authenticated() {
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return next(c)
		}
	}
}

// RequireAdmin guards the /a pages.  Anyone without the admin flag in
// their session, logged in or not, is redirected to the landing page.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Admin() is false for a nil or anonymous session.
			if !session.From(c).Admin() {
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return next(c)
		}
	}
}
