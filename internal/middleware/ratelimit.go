package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/session"
)

const msgThrottled = "Too many attempts, try again in %ds"

// takeToken refills the bucket in KEYS[1] for the whole intervals elapsed
// since its stamp and takes one token. It returns 0 when a token was
// taken, otherwise the milliseconds until the next one. Running it as one
// script keeps two concurrent posts from both taking the last token.
//
// ARGV: now (ms), burst, refill (ms), idle expiry (ms).
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'stamp')
local tokens = tonumber(bucket[1]) or burst
local stamp = tonumber(bucket[2]) or now

local earned = math.floor((now - stamp) / refill)
if earned > 0 then
	tokens = math.min(burst, tokens + earned)
	stamp = stamp + earned * refill
end

local wait = 0
if tokens > 0 then
	tokens = tokens - 1
else
	wait = refill - (now - stamp)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return wait
`)

// CredentialLimiter throttles the sign-up and log-in forms with a token
// bucket per client kept in Redis. A throttled post is answered the way
// the forms answer any rejected input: a flash next to the form and a
// redirect to the landing page. A nil limiter throttles nothing.
type CredentialLimiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log *logrus.Logger
}

// NewCredentialLimiter returns nil when limiting is disabled or Redis is
// not available.
func NewCredentialLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) *CredentialLimiter {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &CredentialLimiter{cfg: cfg, rdb: rdb, log: log}
}

// SignUp guards the sign-up form. Attempts are counted per client address.
func (l *CredentialLimiter) SignUp() echo.MiddlewareFunc {
	return l.guard(session.PosSignUp, false)
}

// LogIn guards the log-in form. Attempts are counted per client address
// and submitted username, so guessing at one account does not lock out
// other people behind the same address.
func (l *CredentialLimiter) LogIn() echo.MiddlewareFunc {
	return l.guard(session.PosLogIn, true)
}

func (l *CredentialLimiter) guard(position string, byUsername bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil {
			return next
		}
		return func(c echo.Context) error {
			key := l.key(c, byUsername)
			wait, err := takeToken.Run(c.Request().Context(), l.rdb, []string{key},
				time.Now().UnixMilli(),
				l.cfg.Burst,
				l.cfg.Refill.Milliseconds(),
				l.cfg.Idle().Milliseconds(),
			).Int64()
			if err != nil {
				// Redis trouble must not lock everybody out.
				l.log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
				return next(c)
			}
			if wait <= 0 {
				return next(c)
			}

			secs := (wait + 999) / 1000
			l.log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Warn("credential posts throttled")
			if sess := session.From(c); sess != nil {
				sess.SetFlash(fmt.Sprintf(msgThrottled, secs), position)
			}
			c.Response().Header().Set("Retry-After", strconv.FormatInt(secs, 10))
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
}

// key is prefix:route:address, plus the username for log-in attempts.
func (l *CredentialLimiter) key(c echo.Context, byUsername bool) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	key := l.cfg.Prefix + ":" + c.Path() + ":" + ip
	if byUsername {
		key += ":" + c.FormValue("username")
	}
	return key
}
