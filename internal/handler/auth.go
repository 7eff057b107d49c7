package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/metrics"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/session"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

const (
	msgNoName           = "You need to have a name"
	msgPasswordMismatch = "The passwords do not match"
	msgPasswordTooLong  = "The password is too long"
	msgUsernameTaken    = "That username is already taken"
	msgUserCreated      = "User %s was successfully created!"
	msgNoSuchUser       = "User does not exist"
	msgWrongPassword    = "The password is incorrect"
)

// AuthHandler bundles dependencies for the landing page and the
// sign-up/log-in/log-out forms.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *session.Manager
	Events   EventPublisher
	Log      *logrus.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, m *session.Manager, ev EventPublisher, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: m, Events: ev, Log: log}
}

// Landing shows the start page with any pending flash message, which is
// consumed by this render.
func (h *AuthHandler) Landing(c echo.Context) error {
	sess := session.From(c)
	f := sess.TakeFlash()
	return c.Render(http.StatusOK, "start", LandingView{
		Message:         f.Message,
		MessagePosition: f.Position,
		LoggedIn:        sess.Authenticated(),
	})
}

// SignUp: validate, create the user and report back on the landing page.
// Every outcome is a flash message plus a redirect to "/".
func (h *AuthHandler) SignUp(c echo.Context) error {
	sess := session.From(c)
	username := c.FormValue("username")
	password := c.FormValue("password")
	confirmation := c.FormValue("password_confirmation")

	if username == "" {
		sess.SetFlash(msgNoName, session.PosSignUp)
		return seeOther(c, "/")
	}
	if password != confirmation {
		sess.SetFlash(msgPasswordMismatch, session.PosSignUp)
		return seeOther(c, "/")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Users.FindByName(ctx, username); err == nil {
		sess.SetFlash(msgUsernameTaken, session.PosSignUp)
		return seeOther(c, "/")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return internalError(c, h.Log, err, "lookup user failed")
	}

	digest, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			sess.SetFlash(msgPasswordTooLong, session.PosSignUp)
			return seeOther(c, "/")
		}
		return internalError(c, h.Log, err, "hash password failed")
	}

	uid, err := h.Users.Add(ctx, username, digest)
	if err != nil {
		// Lost a race against a concurrent sign-up for the same name.
		if errors.Is(err, repository.ErrUsernameTaken) {
			sess.SetFlash(msgUsernameTaken, session.PosSignUp)
			return seeOther(c, "/")
		}
		return internalError(c, h.Log, err, "create user failed")
	}

	metrics.UserRegistered()
	h.Log.WithFields(logrus.Fields{"user_id": uid, "username": username}).Info("user registered")
	if h.Events != nil {
		ev := queue.UserRegisteredEvent{UserID: uid, Username: username, RegisteredAt: nowRFC3339()}
		publishAsync(h.Log, queue.UserRegisteredQueue, func(ctx context.Context) error {
			return h.Events.PublishUserRegistered(ctx, ev)
		})
	}

	sess.SetFlash(fmt.Sprintf(msgUserCreated, username), session.PosTop)
	return seeOther(c, "/")
}

// LogIn: verify the credentials, then move the session to a fresh id and
// bind it to the user.  Admin rights go to the configured admin name.
func (h *AuthHandler) LogIn(c echo.Context) error {
	sess := session.From(c)
	username := c.FormValue("username")
	password := c.FormValue("password")

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			sess.SetFlash(msgNoSuchUser, session.PosLogIn)
			return seeOther(c, "/")
		}
		return internalError(c, h.Log, err, "lookup user failed")
	}
	if !utils.VerifyPassword(u.PasswordDigest, password) {
		sess.SetFlash(msgWrongPassword, session.PosLogIn)
		return seeOther(c, "/")
	}

	if err := h.Sessions.Renew(c, sess); err != nil {
		return internalError(c, h.Log, err, "renew session failed")
	}
	sess.LogIn(u.ID, u.Username == h.Cfg.AdminUsername)
	sess.ClearFlash()
	return seeOther(c, "/p/movies")
}

// LogOut drops the identity from the session.
func (h *AuthHandler) LogOut(c echo.Context) error {
	session.From(c).LogOut()
	return seeOther(c, "/")
}
