package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig tunes the throttle on the sign-up and log-in forms. A
// client may post Burst times in a row and earns one attempt back every
// Refill.
type RateLimitConfig struct {
	Enabled bool
	Burst   int
	Refill  time.Duration
	Prefix  string // redis key prefix
}

// LoadRateLimitConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_BURST,
// RATE_LIMIT_REFILL and RATE_LIMIT_PREFIX. Out of range values are raised
// to the smallest usable setting.
func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Burst:   envInt("RATE_LIMIT_BURST", 10),
		Refill:  envDur("RATE_LIMIT_REFILL", 6*time.Second),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if rl.Burst < 1 {
		rl.Burst = 1
	}
	if rl.Refill < time.Second {
		rl.Refill = time.Second
	}
	return rl
}

// Idle is how long an untouched bucket is kept: by then it has refilled
// completely and forgetting it changes nothing.
func (rl RateLimitConfig) Idle() time.Duration {
	return time.Duration(rl.Burst+1) * rl.Refill
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
