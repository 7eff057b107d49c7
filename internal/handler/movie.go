package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/metrics"
	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
)

// MovieHandler serves the movie pages, the watch list and ratings.  All
// routes sit under /p and act on behalf of the logged in user.
type MovieHandler struct {
	Movies  *repository.MovieRepo
	Saved   *repository.SavedMovieRepo
	Reviews *repository.ReviewRepo
	Ratings *repository.Ratings
	Events  EventPublisher
	Log     *logrus.Logger
}

func NewMovieHandler(m *repository.MovieRepo, s *repository.SavedMovieRepo, r *repository.ReviewRepo, rt *repository.Ratings, ev EventPublisher, log *logrus.Logger) *MovieHandler {
	return &MovieHandler{Movies: m, Saved: s, Reviews: r, Ratings: rt, Events: ev, Log: log}
}

func moviePath(id uint64) string { return fmt.Sprintf("/p/movies/movie/%d", id) }

// ListMovies renders every movie.
func (h *MovieHandler) ListMovies(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx)
	if err != nil {
		return internalError(c, h.Log, err, "list movies failed")
	}
	return c.Render(http.StatusOK, "movies", MoviesView{Movies: movies})
}

// MovieDetail renders one movie together with the caller's watch-list
// state and own rating.
func (h *MovieHandler) MovieDetail(c echo.Context) error {
	movieID, ok := parseID(c, "movie_id")
	if !ok {
		return notFound(c, "Movie")
	}
	userID := currentUserID(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	movie, err := h.Movies.FindByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "Movie")
		}
		return internalError(c, h.Log, err, "find movie failed")
	}
	saved, err := h.Saved.Find(ctx, userID, movieID)
	if err != nil {
		return internalError(c, h.Log, err, "find saved movie failed")
	}
	reviews, err := h.Reviews.Find(ctx, userID, movieID)
	if err != nil {
		return internalError(c, h.Log, err, "find review failed")
	}

	rating := "unset"
	if len(reviews) > 0 {
		rating = strconv.Itoa(reviews[0].Rating)
	}
	return c.Render(http.StatusOK, "movie_info", MovieDetailView{
		Movie:      movie,
		IsInList:   len(saved) > 0,
		UserRating: rating,
	})
}

// SaveMovie adds the movie to the caller's watch list.  Saving twice is
// harmless.
func (h *MovieHandler) SaveMovie(c echo.Context) error {
	movieID, ok := parseID(c, "id")
	if !ok {
		return notFound(c, "Movie")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Saved.Add(ctx, currentUserID(c), movieID); err != nil {
		return internalError(c, h.Log, err, "save movie failed")
	}
	return seeOther(c, moviePath(movieID))
}

// RemoveMovie takes the movie off the caller's watch list.
func (h *MovieHandler) RemoveMovie(c echo.Context) error {
	movieID, ok := parseID(c, "id")
	if !ok {
		return notFound(c, "Movie")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Saved.Remove(ctx, currentUserID(c), movieID); err != nil {
		return internalError(c, h.Log, err, "remove saved movie failed")
	}
	return seeOther(c, moviePath(movieID))
}

// AddRating stores or replaces the caller's rating and refreshes the
// movie's average.  A rating that is not an integer is ignored.
func (h *MovieHandler) AddRating(c echo.Context) error {
	movieID, ok := parseID(c, "id")
	if !ok {
		return notFound(c, "Movie")
	}
	rating, err := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	if err != nil {
		return seeOther(c, moviePath(movieID))
	}
	userID := currentUserID(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	avg, err := h.Ratings.Submit(ctx, userID, movieID, rating)
	if err != nil {
		return internalError(c, h.Log, err, "submit rating failed")
	}

	metrics.RatingSubmitted()
	if h.Events != nil {
		ev := queue.RatingSubmittedEvent{UserID: userID, MovieID: movieID, Rating: rating, Average: avg, SubmittedAt: nowRFC3339()}
		publishAsync(h.Log, queue.RatingSubmittedQueue, func(ctx context.Context) error {
			return h.Events.PublishRatingSubmitted(ctx, ev)
		})
	}
	return seeOther(c, moviePath(movieID))
}

// WatchList renders the caller's saved movies in the order they were
// listed by the store.  Entries whose movie has gone are skipped.
func (h *MovieHandler) WatchList(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	saved, err := h.Saved.ListByUser(ctx, currentUserID(c))
	if err != nil {
		return internalError(c, h.Log, err, "list saved movies failed")
	}
	movies := make([]*model.Movie, 0, len(saved))
	for _, s := range saved {
		m, err := h.Movies.FindByID(ctx, s.MovieID)
		if err != nil {
			if errors.Is(err, repository.ErrMovieNotFound) {
				continue
			}
			return internalError(c, h.Log, err, "find movie failed")
		}
		movies = append(movies, m)
	}
	return c.Render(http.StatusOK, "watch_list", WatchListView{Movies: movies})
}
