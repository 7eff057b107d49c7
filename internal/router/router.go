package router // package router defines how HTTP routes are registered for the site

import (
	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // recover middleware
	"github.com/sirupsen/logrus"                    // request logging

	"github.com/iliyamo/movie-watchlist/internal/handler"    // import the handlers that implement the pages
	"github.com/iliyamo/movie-watchlist/internal/metrics"    // prometheus exposition
	"github.com/iliyamo/movie-watchlist/internal/middleware" // sessions, guards, rate limiting
	"github.com/iliyamo/movie-watchlist/internal/session"    // session manager
)

// Deps collects everything Setup wires into the Echo instance.
type Deps struct {
	Log      *logrus.Logger
	Sessions *session.Manager
	DB       handler.Pinger
	Limiter  *middleware.CredentialLimiter // guards the credential forms; nil disables
	Auth     *handler.AuthHandler
	Movies   *handler.MovieHandler
	Users    *handler.UserHandler
	Admin    *handler.AdminHandler
}

// Setup installs the global middleware chain and every route.  The chain
// runs recover, request logging and metrics first so they also see
// requests the session layer rejects.
func Setup(e *echo.Echo, d Deps) {
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())
	e.Use(middleware.Sessions(d.Sessions, d.Log))

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.Limiter)
	RegisterProtected(e, d.Movies, d.Users)
	RegisterAdmin(e, d.Admin)
}

// RegisterRoutes registers the operational endpoints: a health check for
// load balancers and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the landing page and the credential forms.  These
// routes are open to everyone; the limiter, when present, throttles
// repeated sign-up and log-in posts.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter *middleware.CredentialLimiter) {
	e.GET("/", a.Landing)
	e.POST("/try_sign_up", a.SignUp, limiter.SignUp())
	e.POST("/try_log_in", a.LogIn, limiter.LogIn())
	e.POST("/log_out", a.LogOut)
}
