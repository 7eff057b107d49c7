package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/utils"
)

const contextKey = "session"

// Options configures the session cookie.
type Options struct {
	Secret     string        // HMAC secret for the cookie token
	CookieName string        // defaults to "session"
	TTL        time.Duration // cookie and store lifetime, defaults to 24h
	Secure     bool          // set the Secure cookie attribute
}

// Manager ties the store to the browser cookie.
type Manager struct {
	store Store
	opt   Options
}

func NewManager(store Store, opt Options) *Manager {
	if opt.CookieName == "" {
		opt.CookieName = "session"
	}
	if opt.TTL <= 0 {
		opt.TTL = 24 * time.Hour
	}
	return &Manager{store: store, opt: opt}
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// Load resolves the session of the request. A valid cookie naming an id
// the store no longer knows yields an empty session under the same id. A
// missing or forged cookie yields a new session and a new cookie.
//
// Expiry slides: once less than half the TTL is left on the cookie of a
// stored session, the cookie is reissued and the session is marked dirty
// so the store TTL restarts too.
func (m *Manager) Load(c echo.Context) (*Session, error) {
	ctx := c.Request().Context()
	if ck, err := c.Cookie(m.opt.CookieName); err == nil && ck.Value != "" {
		if id, exp, err := utils.ParseSessionToken(m.opt.Secret, ck.Value); err == nil {
			sess, err := m.store.Get(ctx, id)
			switch {
			case err == nil:
				if time.Until(exp) < m.opt.TTL/2 {
					if err := m.setCookie(c, id); err != nil {
						return nil, err
					}
					sess.dirty = true
				}
				return sess, nil
			case errors.Is(err, ErrSessionNotFound):
				return &Session{ID: id}, nil
			default:
				return nil, err
			}
		}
	}
	sess := New()
	if err := m.setCookie(c, sess.ID); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes the session back when it changed.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s == nil || !s.Dirty() {
		return nil
	}
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	s.markClean()
	return nil
}

// Renew moves the session to a fresh id and cookie, keeping its content.
// Called on login so an id handed out before authentication is useless
// afterwards.
func (m *Manager) Renew(c echo.Context, s *Session) error {
	if err := m.store.Delete(c.Request().Context(), s.ID); err != nil {
		return err
	}
	s.ID = NewID()
	s.dirty = true
	return m.setCookie(c, s.ID)
}

func (m *Manager) setCookie(c echo.Context, id string) error {
	token, exp, err := utils.NewSessionToken(m.opt.Secret, id, m.opt.TTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     m.opt.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.opt.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Attach stores s on the echo context for handlers and guards.
func Attach(c echo.Context, s *Session) { c.Set(contextKey, s) }

// From returns the session attached to c, or nil.
func From(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}
