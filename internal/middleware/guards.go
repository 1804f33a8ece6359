package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireAuth rejects requests without a session user with 401.
func RequireAuth() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := CurrentUser(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
            }
            return next(c)
        }
    }
}

// RequireAdmin admits authenticated users whose email is on the allow-list.
// An empty allow-list admits every authenticated user.
func RequireAdmin(adminEmails []string) echo.MiddlewareFunc {
    // Build a set for constant-time lookups.
    allowed := make(map[string]bool, len(adminEmails))
    for _, e := range adminEmails {
        allowed[e] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
            }
            if len(allowed) > 0 && !allowed[u.EmailID] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin access required"})
            }
            return next(c)
        }
    }
}
