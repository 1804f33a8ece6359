package middleware

// identity.go holds the context accessors for the session user. Handlers
// read the user through CurrentUser rather than c.Get so the key and the
// type live in one place.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/model"
)

const (
    userKey      = "session_user"
    sessionIDKey = "session_id"
)

// SetUser attaches u (and the session it came from) to the request.
func SetUser(c echo.Context, u model.User, sid string) {
    c.Set(userKey, u)
    c.Set(sessionIDKey, sid)
}

// CurrentUser returns the attached user, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}

// SessionID returns the id of the session that authenticated the request.
func SessionID(c echo.Context) string {
    s, _ := c.Get(sessionIDKey).(string)
    return s
}

// userID identifies the caller for rate limiting and logs; "anon" when no
// user is attached.
func userID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok {
        return strconv.FormatInt(u.UserID, 10)
    }
    return "anon"
}
