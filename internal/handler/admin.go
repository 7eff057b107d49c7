package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/repository"
)

// AdminHandler serves the /a pages.
type AdminHandler struct {
	Users *repository.UserRepo
	Log   *logrus.Logger
}

func NewAdminHandler(u *repository.UserRepo, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{Users: u, Log: log}
}

// AdminPage lists every user.
func (h *AdminHandler) AdminPage(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return internalError(c, h.Log, err, "list users failed")
	}
	return c.Render(http.StatusOK, "admin_page", AdminView{Users: users})
}

// RemoveUser deletes a user row.  Their saved movies and reviews stay;
// reviews keep counting towards movie averages.
func (h *AdminHandler) RemoveUser(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c, "User")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Users.Remove(ctx, id); err != nil {
		return internalError(c, h.Log, err, "remove user failed")
	}
	h.Log.WithField("user_id", id).Info("user removed")
	return seeOther(c, "/a/admin_page")
}
