package router // router defines how HTTP routes are registered for the site

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/handler"    // admin handlers
	"github.com/iliyamo/movie-watchlist/internal/middleware" // admin guard
)

// RegisterAdmin registers admin-only endpoints under /a.
// All routes require a session carrying the admin flag.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	g := e.Group("/a", middleware.RequireAdmin())

	g.GET("/admin_page", a.AdminPage)
	g.POST("/remove_user/:id", a.RemoveUser)
}
