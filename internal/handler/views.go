package handler

import "github.com/iliyamo/movie-watchlist/internal/model"

// Page data handed to the renderer.  Templates only see these structs.

// LandingView backs "start".  MessagePosition tells the page where to put
// the flash message: "top", "sign up" or "log in".
type LandingView struct {
	Message         string
	MessagePosition string
	LoggedIn        bool
}

// UserView backs "user_page".
type UserView struct {
	User *model.User
}

// MoviesView backs "movies".
type MoviesView struct {
	Movies []*model.Movie
}

// MovieDetailView backs "movie_info".  UserRating is the caller's own
// rating or "unset".
type MovieDetailView struct {
	Movie      *model.Movie
	IsInList   bool
	UserRating string
}

// WatchListView backs "watch_list".
type WatchListView struct {
	Movies []*model.Movie
}

// AdminView backs "admin_page".
type AdminView struct {
	Users []*model.User
}

// NotFoundView backs "not_found".
type NotFoundView struct {
	What string
}
