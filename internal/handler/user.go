package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/repository"
)

// UserHandler serves profile pages.  Any logged in user may view any
// profile.
type UserHandler struct {
	Users *repository.UserRepo
	Log   *logrus.Logger
}

func NewUserHandler(u *repository.UserRepo, log *logrus.Logger) *UserHandler {
	return &UserHandler{Users: u, Log: log}
}

func (h *UserHandler) UserProfile(c echo.Context) error {
	id, ok := parseID(c, "user_id")
	if !ok {
		return notFound(c, "User")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound(c, "User")
		}
		return internalError(c, h.Log, err, "find user failed")
	}
	return c.Render(http.StatusOK, "user_page", UserView{User: u})
}
