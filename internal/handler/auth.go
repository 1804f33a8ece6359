package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/xid"

    "github.com/iliyamo/online-movie-api/internal/apperror"
    "github.com/iliyamo/online-movie-api/internal/auth"
    "github.com/iliyamo/online-movie-api/internal/logging"
    "github.com/iliyamo/online-movie-api/internal/metrics"
    "github.com/iliyamo/online-movie-api/internal/middleware"
    "github.com/iliyamo/online-movie-api/internal/model"
    "github.com/iliyamo/online-movie-api/internal/repository"
    "github.com/iliyamo/online-movie-api/internal/utils"
)

// UserStore is the user persistence used by authentication.
type UserStore interface {
    Create(ctx context.Context, name, email, password string) (model.User, error)
    GetCredentials(ctx context.Context, email string) (model.User, string, error)
    FindOrCreateByEmail(ctx context.Context, email, name string) (model.User, error)
}

// SessionStore persists server-side sessions.
type SessionStore interface {
    Create(ctx context.Context, s model.Session) error
    Delete(ctx context.Context, sid string) error
}

// SessionOptions shapes the session cookie.
type SessionOptions struct {
    Secret string
    TTL    time.Duration
    Secure bool
}

// AuthHandler bundles dependencies for local auth and session endpoints.
type AuthHandler struct {
    Users     UserStore
    Sessions  SessionStore
    Passwords utils.Passwords
    Cookie    SessionOptions
}

func NewAuthHandler(users UserStore, sessions SessionStore, pw utils.Passwords, opts SessionOptions) *AuthHandler {
    return &AuthHandler{Users: users, Sessions: sessions, Passwords: pw, Cookie: opts}
}

// ----- DTOs -----

type registerReq struct {
    UserName string `json:"userName" validate:"required"`
    EmailID  string `json:"emailId" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type loginReq struct {
    EmailID  string `json:"emailId" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type registerResp struct {
    UserID   int64  `json:"userId"`
    UserName string `json:"userName"`
}

// Register creates a local account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondError(c, apperror.ValidationFailed("", "All fields are required."), "Failed to register user")
    }
    req.UserName = strings.TrimSpace(req.UserName)
    req.EmailID = strings.TrimSpace(req.EmailID)

    ctx := c.Request().Context()
    stored, err := h.Passwords.Encode(req.Password)
    if err != nil {
        return respondError(c, err, "Failed to register user")
    }
    u, err := h.Users.Create(ctx, req.UserName, req.EmailID, stored)
    if err != nil {
        metrics.RecordAuth("register", false)
        return respondError(c, err, "Failed to register user")
    }
    metrics.RecordAuth("register", true)

    // The account exists either way; a failed session only means the
    // client has to log in.
    if err := h.startSession(c, u); err != nil {
        logging.FromContext(ctx).Error().Err(err).Int64("user_id", u.UserID).Msg("register: session not created")
    }
    return c.JSON(http.StatusCreated, registerResp{UserID: u.UserID, UserName: u.UserName})
}

var errBadCredentials = apperror.Unauthorized("Invalid email or password.")

// Login checks the email and password pair and starts a session.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondError(c, apperror.ValidationFailed("", "Email and password are required."), "Failed to log in")
    }

    u, stored, err := h.Users.GetCredentials(c.Request().Context(), req.EmailID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            err = errBadCredentials
        }
        metrics.RecordAuth("local", false)
        return respondError(c, err, "Failed to log in")
    }
    // OAuth accounts have no local password.
    if stored == model.PasswordOAuth || !h.Passwords.Matches(stored, req.Password) {
        metrics.RecordAuth("local", false)
        return respondError(c, errBadCredentials, "Failed to log in")
    }

    if err := h.startSession(c, u); err != nil {
        return respondError(c, err, "Failed to log in")
    }
    metrics.RecordAuth("local", true)
    return c.JSON(http.StatusOK, u)
}

// Logout destroys the server-side session and clears the cookie. It
// succeeds whether or not a session existed.
func (h *AuthHandler) Logout(c echo.Context) error {
    if sid := middleware.SessionID(c); sid != "" {
        if err := h.Sessions.Delete(c.Request().Context(), sid); err != nil {
            logging.FromContext(c.Request().Context()).Warn().Err(err).Msg("logout: session row not deleted")
        }
    }
    h.clearCookie(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// Me returns the session user, or null for anonymous callers.
func (h *AuthHandler) Me(c echo.Context) error {
    if u, ok := middleware.CurrentUser(c); ok {
        return c.JSON(http.StatusOK, u)
    }
    return c.JSON(http.StatusOK, nil)
}

// startSession persists a session for u and sets the signed cookie.
func (h *AuthHandler) startSession(c echo.Context, u model.User) error {
    tok, err := utils.SignSession(h.Cookie.Secret, utils.NewSessionID(), h.Cookie.TTL)
    if err != nil {
        return err
    }
    if err := h.Sessions.Create(c.Request().Context(), model.Session{
        SessionID: tok.SID, UserID: u.UserID, ExpiresAt: tok.Exp,
    }); err != nil {
        return err
    }
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    tok.Value,
        Path:     "/",
        MaxAge:   int(h.Cookie.TTL / time.Second),
        Expires:  tok.Exp,
        HttpOnly: true,
        Secure:   h.Cookie.Secure,
        SameSite: http.SameSiteLaxMode,
    })
    return nil
}

func (h *AuthHandler) clearCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   h.Cookie.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}

// ----- OAuth -----

const oauthStateCookie = "oauth_state"

// OAuthLogin redirects the browser to the provider's consent page. The
// state value is kept in a short-lived cookie and checked on callback.
func (h *AuthHandler) OAuthLogin(p auth.Provider) echo.HandlerFunc {
    return func(c echo.Context) error {
        state := xid.New().String()
        c.SetCookie(&http.Cookie{
            Name:     oauthStateCookie,
            Value:    state,
            Path:     "/api/auth",
            MaxAge:   600, // 10 minutes
            HttpOnly: true,
            Secure:   h.Cookie.Secure,
            SameSite: http.SameSiteLaxMode,
        })
        return c.Redirect(http.StatusFound, p.AuthURL(state))
    }
}

// OAuthCallback completes the flow and always redirects back to the
// frontend with ?oauth=success or ?oauth=failure.
func (h *AuthHandler) OAuthCallback(p auth.Provider, frontendOrigin string) echo.HandlerFunc {
    success := frontendOrigin + "/?oauth=success"
    failure := frontendOrigin + "/?oauth=failure"

    return func(c echo.Context) error {
        log := logging.FromContext(c.Request().Context()).With().Str("provider", p.Name()).Logger()

        ck, err := c.Cookie(oauthStateCookie)
        c.SetCookie(&http.Cookie{Name: oauthStateCookie, Value: "", Path: "/api/auth", MaxAge: -1})
        if err != nil || ck.Value == "" || c.QueryParam("state") != ck.Value {
            log.Warn().Msg("oauth callback: state mismatch")
            metrics.RecordAuth(p.Name(), false)
            return c.Redirect(http.StatusFound, failure)
        }
        if e := c.QueryParam("error"); e != "" || c.QueryParam("code") == "" {
            log.Info().Str("error", e).Msg("oauth callback: authorization denied")
            metrics.RecordAuth(p.Name(), false)
            return c.Redirect(http.StatusFound, failure)
        }

        ctx := c.Request().Context()
        id, err := p.Exchange(ctx, c.QueryParam("code"))
        if err != nil {
            log.Error().Err(err).Msg("oauth callback: exchange failed")
            metrics.RecordAuth(p.Name(), false)
            return c.Redirect(http.StatusFound, failure)
        }
        u, err := h.Users.FindOrCreateByEmail(ctx, id.Email, auth.DisplayNameFor(id))
        if err == nil {
            err = h.startSession(c, u)
        }
        if err != nil {
            log.Error().Err(err).Msg("oauth callback: sign in failed")
            metrics.RecordAuth(p.Name(), false)
            return c.Redirect(http.StatusFound, failure)
        }

        log.Info().Int64("user_id", u.UserID).Msg("oauth sign in")
        metrics.RecordAuth(p.Name(), true)
        return c.Redirect(http.StatusFound, success)
    }
}
