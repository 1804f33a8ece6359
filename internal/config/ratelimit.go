package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the Redis token buckets placed in front of the
// API. Two buckets exist: a general one for every /api route and a tighter
// one for credential endpoints (login, register) to slow password guessing.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	AuthCapacity   int
	AuthRefill     time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 2),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		AuthCapacity:   envInt("RATE_LIMIT_AUTH_CAPACITY", 10),
		AuthRefill:     envDur("RATE_LIMIT_AUTH_REFILL_EVERY", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	return def.normalized()
}

// normalized clamps values so the limiter script never divides by zero and
// bucket keys outlive at least a few refill intervals.
func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if c.AuthCapacity < 1 {
		c.AuthCapacity = 1
	}
	if c.AuthRefill <= 0 {
		c.AuthRefill = time.Second
	}
	minTTL := 5 * c.RefillInterval
	if auth := 5 * c.AuthRefill; auth > minTTL {
		minTTL = auth
	}
	if c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

// ForAuth derives the credential-endpoint bucket: smaller capacity, one
// token per AuthRefill, and its own key prefix.
func (c RateLimitConfig) ForAuth() RateLimitConfig {
	out := c
	out.Capacity = c.AuthCapacity
	out.RefillTokens = 1
	out.RefillInterval = c.AuthRefill
	out.KeyStrategy = "ip_route"
	out.Prefix = c.Prefix + ":auth"
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
