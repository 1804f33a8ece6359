package handler // declare the package name; contains HTTP handlers

import (
    "bytes"
    "errors"
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/logging"
    "github.com/iliyamo/online-movie-api/internal/middleware"
    "github.com/iliyamo/online-movie-api/internal/model"
)

// respondError maps err onto the error taxonomy. Errors outside it are
// logged and answered with a 500 carrying fallback, so store details do
// not leak to clients.
func respondError(c echo.Context, err error, fallback string) error {
    if status, ok := apperror.HTTPStatus(err); ok {
        return c.JSON(status, echo.Map{"error": apperror.Message(err)})
    }
    logging.FromContext(c.Request().Context()).Error().Err(err).
        Str("route", c.Path()).Msg(fallback)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// bindBody decodes only the request body. Path and query values are not
// merged in, which matters for the map bodies of the admin console.
func bindBody(c echo.Context, dst any) error {
    if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
        return apperror.ValidationFailed("", "invalid body")
    }
    return nil
}

// bindAndValidate decodes the JSON body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
    if err := bindBody(c, req); err != nil {
        return err
    }
    return c.Validate(req)
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
    id, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || id <= 0 {
        return 0, apperror.ValidationFailed(name, "invalid "+name)
    }
    return id, nil
}

// ownUserID parses the :userId parameter and checks that it names the
// session user. Other users' data is forbidden.
func ownUserID(c echo.Context) (int64, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return 0, apperror.Unauthorized("Not authenticated")
    }
    if strconv.FormatInt(u.UserID, 10) != c.Param("userId") {
        return 0, apperror.Forbidden("Forbidden")
    }
    return u.UserID, nil
}

// sessionUser returns the user attached by the session middleware.
func sessionUser(c echo.Context) (model.User, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return model.User{}, apperror.Unauthorized("Not authenticated")
    }
    return u, nil
}

// flexInt accepts a JSON number or a numeric string. null and "" decode
// as zero. Browser forms post numbers as strings. Fractions are rejected.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
    n, err := parseFlexNumber(b)
    if err != nil {
        return err
    }
    if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64 {
        return errNotInteger
    }
    *f = flexInt(n)
    return nil
}

// flexFloat is flexInt for decimals.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
    n, err := parseFlexNumber(b)
    if err != nil {
        return err
    }
    *f = flexFloat(n)
    return nil
}

var (
    errNotFinite  = errors.New("number must be finite")
    errNotInteger = errors.New("number must be an integer")
)

// parseFlexNumber reads a finite number from a JSON number or string.
// strconv.ParseFloat alone would let "NaN" and "Inf" through.
func parseFlexNumber(b []byte) (float64, error) {
    s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
    if s == "" || s == "null" {
        return 0, nil
    }
    n, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return 0, err
    }
    if math.IsNaN(n) || math.IsInf(n, 0) {
        return 0, errNotFinite
    }
    return n, nil
}
