package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel error for rejected tokens
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidSessionToken is returned when a session cookie value is not a
// token we signed, has expired, or carries no session id.
var ErrInvalidSessionToken = errors.New("invalid session token")

// NewSessionToken builds and signs an HS256 JWT that carries a session id.
// The token is the value of the session cookie: the id is opaque to the
// browser, and the signature stops clients from guessing other session ids.
// The JWT includes the subject (sub = session id), expiration (exp) and
// issued at (iat) claims.
func NewSessionToken(secret, sessionID string, ttl time.Duration) (string, time.Time, error) {
	// Calculate the expiration time by adding the TTL to the current UTC time.
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": sessionID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	// Create the token with HS256 and sign it with the shared secret.
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken validates raw and returns the session id it carries
// along with the token expiry.
func ParseSessionToken(secret, raw string) (string, time.Time, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSessionToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", time.Time{}, ErrInvalidSessionToken
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", time.Time{}, ErrInvalidSessionToken
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", time.Time{}, ErrInvalidSessionToken
	}
	return sub, exp.Time, nil
}
