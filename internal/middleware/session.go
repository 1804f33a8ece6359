package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "errors"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/logging"
    "github.com/iliyamo/online-movie-api/internal/model"
    "github.com/iliyamo/online-movie-api/internal/utils"
)

// SessionCookie is the name of the signed session cookie.
const SessionCookie = "mrsid"

// SessionLookup resolves a live session id to its user.
type SessionLookup interface {
    UserFor(ctx context.Context, sid string) (model.User, error)
}

// SessionAuth attaches the session user to the context when the request
// carries a valid cookie. It never rejects a request; the guards decide
// what anonymous callers may do.
func SessionAuth(secret string, sessions SessionLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ck, err := c.Cookie(SessionCookie)
            if err != nil || ck.Value == "" {
                return next(c)
            }
            sid, err := utils.ParseSession(secret, ck.Value)
            if err != nil {
                return next(c)
            }

            ctx := c.Request().Context()
            u, err := sessions.UserFor(ctx, sid)
            if err != nil {
                // unknown or expired sessions are simply anonymous
                if !errors.Is(err, apperror.ErrUnauthorized) {
                    logging.FromContext(ctx).Warn().Err(err).Msg("session lookup failed")
                }
                return next(c)
            }
            SetUser(c, u, sid)
            return next(c)
        }
    }
}
