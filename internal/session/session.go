// Package session holds the server-side state of a browser session: who is
// logged in, whether they are an administrator and a one-shot flash
// message. Sessions live in a Store keyed by an id; the browser only holds
// a signed token naming that id.
package session

import (
	"errors"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by stores for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-request view of a browser session. Mutators mark it
// dirty so the middleware only writes back sessions that changed.
type Session struct {
	ID              string `json:"-"`
	UserID          uint64 `json:"user_id,omitempty"`
	IsAdmin         bool   `json:"is_admin,omitempty"`
	Message         string `json:"message,omitempty"`
	MessagePosition string `json:"message_position,omitempty"`

	dirty bool
}

// Flash positions on the landing page.
const (
	PosTop    = "top"
	PosSignUp = "sign up"
	PosLogIn  = "log in"
)

// Flash is a one-shot message and the place on the page it belongs to.
type Flash struct {
	Message  string
	Position string
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// New returns an empty anonymous session with a fresh id.
func New() *Session { return &Session{ID: NewID()} }

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool { return s != nil && s.UserID != 0 }

// Admin reports whether the logged in user is the administrator.
func (s *Session) Admin() bool { return s.Authenticated() && s.IsAdmin }

// LogIn binds the session to a user.
func (s *Session) LogIn(userID uint64, isAdmin bool) {
	s.UserID = userID
	s.IsAdmin = isAdmin
	s.dirty = true
}

// LogOut clears the identity; a pending flash message survives.
func (s *Session) LogOut() {
	if s.UserID == 0 && !s.IsAdmin {
		return
	}
	s.UserID = 0
	s.IsAdmin = false
	s.dirty = true
}

// SetFlash stores a message to show on the next render.
func (s *Session) SetFlash(message, position string) {
	s.Message = message
	s.MessagePosition = position
	s.dirty = true
}

// ClearFlash drops any pending message.
func (s *Session) ClearFlash() {
	if s.Message == "" && s.MessagePosition == "" {
		return
	}
	s.SetFlash("", "")
}

// TakeFlash returns the pending message and clears it, so it is shown
// exactly once.
func (s *Session) TakeFlash() Flash {
	f := Flash{Message: s.Message, Position: s.MessagePosition}
	s.ClearFlash()
	return f
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// Empty reports whether the session carries no state worth storing.
func (s *Session) Empty() bool {
	return s.UserID == 0 && !s.IsAdmin && s.Message == "" && s.MessagePosition == ""
}

func (s *Session) markClean() { s.dirty = false }
