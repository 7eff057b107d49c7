package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
)

// RegisterProtected registers the member pages under /p.  Every route
// requires a logged in session; guests are redirected to the landing
// page before the handler runs.
func RegisterProtected(e *echo.Echo, m *handler.MovieHandler, u *handler.UserHandler) {
	g := e.Group("/p", middleware.RequireLogin())

	g.GET("/user/:user_id", u.UserProfile)

	g.GET("/movies", m.ListMovies)
	g.GET("/movies/movie/:movie_id", m.MovieDetail)
	g.POST("/movies/movie/save/:id", m.SaveMovie)
	g.POST("/movies/movie/remove/:id", m.RemoveMovie)
	g.POST("/movies/movie/add_rating/:id", m.AddRating)

	g.GET("/watch_list", m.WatchList)
}
