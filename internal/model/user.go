package model

import "time"

// PasswordOAuth is stored in user.password for accounts created through an
// OAuth provider. Local login refuses accounts holding it.
const PasswordOAuth = "OAUTH"

// User represents a row in the `user` table as exposed to clients. The
// password column is never part of this struct; repositories that need it
// read it separately.
//
// Fields:
//  UserID   – primary key identifier.
//  UserName – display name.
//  EmailID  – unique email address (login identity and admin allow-list key).
type User struct {
    UserID   int64  `json:"userId"`   // user.userId
    UserName string `json:"userName"` // user.userName
    EmailID  string `json:"emailId"`  // user.emailId
}

// Session models a row in the `sessions` table. The cookie carries a signed
// token wrapping SessionID; the row links it to a user until ExpiresAt.
//
// Fields:
//  SessionID – random UUID, primary key.
//  UserID    – owner of the session.
//  ExpiresAt – absolute expiry; rows past it are ignored and swept.
//  CreatedAt – timestamp of creation.
type Session struct {
    SessionID string    // sessions.session_id
    UserID    int64     // sessions.user_id
    ExpiresAt time.Time // sessions.expires_at
    CreatedAt time.Time // sessions.created_at
}
