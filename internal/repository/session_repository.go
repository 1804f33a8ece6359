package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/online-movie-api/internal/model"
)

// SessionRepo persists server-side sessions in the 'sessions' table.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create stores a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, expires_at) VALUES (?,?,?)",
		s.SessionID, s.UserID, s.ExpiresAt.UTC())
	return err
}

// UserFor returns the user owning a live session. Expired rows are treated
// as missing even before the sweeper removes them.
func (r *SessionRepo) UserFor(ctx context.Context, sid string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.userId, u.userName, u.emailId
		   FROM sessions s
		   JOIN user u ON u.userId = s.user_id
		  WHERE s.session_id=? AND s.expires_at > ?
		  LIMIT 1`,
		sid, time.Now().UTC()).Scan(&u.UserID, &u.UserName, &u.EmailID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrSessionNotFound
	}
	return u, err
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE session_id=?", sid)
	return err
}

// DeleteExpired purges sessions past their expiry and returns how many
// rows went away.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
