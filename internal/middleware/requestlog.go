package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/online-movie-api/internal/metrics"
)

// RequestLogger attaches a request scoped zerolog logger to the request
// context and logs one line per request. It also feeds the HTTP metrics.
// It must run after echo's RequestID middleware.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            rid := c.Response().Header().Get(echo.HeaderXRequestID)

            log := base.With().Str("request_id", rid).Logger()
            c.SetRequest(req.WithContext(log.WithContext(req.Context())))

            err := next(c)
            if err != nil {
                // let echo write the error response so the status is final
                c.Error(err)
            }

            status := c.Response().Status
            latency := time.Since(start)
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            metrics.RecordHTTPRequest(req.Method, route, strconv.Itoa(status), latency)

            ev := log.Info()
            if status >= 500 {
                ev = log.Error()
            }
            ev.Str("method", req.Method).
                Str("path", req.URL.Path).
                Int("status", status).
                Dur("latency", latency).
                Str("user", userID(c)).
                Msg("request")
            return nil
        }
    }
}
