package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/online-movie-api/internal/config"
    "github.com/iliyamo/online-movie-api/internal/logging"
    "github.com/iliyamo/online-movie-api/internal/metrics"
)

// takeToken refills and takes one token from the bucket at KEYS[1] in a
// single round trip. The API bucket and the credential bucket (login,
// register, run_query) run the same script under different key prefixes.
//
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_seconds.
// Returns {allowed (0|1), tokens_left, retry_after_ms}.
var takeToken = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
    tokens = capacity
    last = now_ms
end

if interval_ms > 0 and refill > 0 then
    local ticks = math.floor(math.max(0, now_ms - last) / interval_ms)
    if ticks > 0 then
        tokens = math.min(capacity, tokens + ticks * refill)
        last = last + ticks * interval_ms
    end
end

local allowed, wait_ms = 0, 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    wait_ms = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, wait_ms }
`)

// bucketResult is the decoded reply of takeToken.
type bucketResult struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

func parseBucketResult(v any) (bucketResult, bool) {
    arr, ok := v.([]any)
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    return bucketResult{
        allowed:   asInt64(arr[0]) == 1,
        remaining: asInt64(arr[1]),
        retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, true
}

// NewTokenBucket limits requests with a token bucket kept in Redis. bucket
// labels the limiter in metrics ("api" or "auth"). Without Redis, or when
// Redis errors, requests pass through.
func NewTokenBucket(bucket string, cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            log := logging.FromContext(ctx)
            key := buildRateKey(cfg, c)

            reply, err := takeToken.Run(ctx, rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                if cfg.Debug {
                    log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis error")
                }
                return next(c)
            }
            res, ok := parseBucketResult(reply)
            if !ok {
                log.Warn().Str("key", key).Interface("reply", reply).Msg("ratelimit: unexpected script reply")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if res.allowed {
                return next(c)
            }

            secs := int(math.Ceil(res.retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            metrics.RateLimited.WithLabelValues(bucket).Inc()
            log.Info().Str("bucket", bucket).Str("key", key).Dur("retry", res.retry).Msg("ratelimit: blocked")
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "Too many requests, please retry later",
                "retry_after": secs,
            })
        }
    }
}

func asInt64(v any) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

// buildRateKey names the bucket a request draws from. The user part is the
// session user id, or "anon" before login, so the credential bucket is
// effectively per address and route. Route uses the registered path
// (/api/movie/:id), not the concrete URL, so ids do not split buckets.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := map[string]string{
        "ip":    ip,
        "user":  userID(c),
        "route": c.Request().Method + " " + c.Path(),
    }

    var dims []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip", "user", "route":
        dims = []string{strings.ToLower(cfg.KeyStrategy)}
    case "ip_user":
        dims = []string{"ip", "user"}
    case "ip_route":
        dims = []string{"ip", "route"}
    case "user_route":
        dims = []string{"user", "route"}
    default:
        dims = []string{"ip", "user", "route"}
    }

    key := []string{cfg.Prefix}
    for _, d := range dims {
        key = append(key, d, parts[d])
    }
    return strings.Join(key, ":")
}

// UnderPrefix applies mw only to requests whose path starts with prefix.
// Health and metrics endpoints stay outside the API bucket this way.
func UnderPrefix(prefix string, mw echo.MiddlewareFunc) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        wrapped := mw(next)
        return func(c echo.Context) error {
            if strings.HasPrefix(c.Request().URL.Path, prefix) {
                return wrapped(c)
            }
            return next(c)
        }
    }
}
