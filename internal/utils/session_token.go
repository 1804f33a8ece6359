package utils // package utils provides helpers for session cookies and passwords

import (
    "errors" // errors builds the sentinel returned for rejected tokens
    "time"   // time utilities for expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for signing the cookie value
    "github.com/google/uuid"       // random session identifiers
)

// ErrInvalidSessionToken is returned when a cookie value fails signature,
// expiry or shape checks. Callers treat the request as anonymous.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionToken is the signed value stored in the session cookie. SID is
// the server-side session id; Exp mirrors the cookie and row expiry.
type SessionToken struct {
    Value string    // the serialized JWT placed in the cookie
    SID   string    // session id (sessions.session_id)
    Exp   time.Time // UTC expiration time
}

// NewSessionID returns a random session identifier.
func NewSessionID() string {
    return uuid.NewString()
}

// SignSession builds an HS256 JWT wrapping the session id. The user is not
// part of the token; it is resolved from the sessions table on each
// request so a logout takes effect immediately.
func SignSession(secret, sid string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        ID:        sid,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Value: signed, SID: sid, Exp: exp}, nil
}

// ParseSession verifies a cookie value and returns the session id it wraps.
func ParseSession(secret, value string) (string, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return "", ErrInvalidSessionToken
    }
    // Reject anything that is not a session id we could have minted.
    if _, err := uuid.Parse(claims.ID); err != nil {
        return "", ErrInvalidSessionToken
    }
    return claims.ID, nil
}
