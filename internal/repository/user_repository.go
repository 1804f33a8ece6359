package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/online-movie-api/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a local account. password is stored as given; encoding it
// is the caller's decision.
func (r *UserRepo) Create(ctx context.Context, name, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user (userName, emailId, password, joinDate) VALUES (?,?,?,NOW())",
		name, email, password)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{UserID: id, UserName: name, EmailID: email}, nil
}

// GetCredentials returns the user and the stored password column for email.
func (r *UserRepo) GetCredentials(ctx context.Context, email string) (model.User, string, error) {
	var (
		u        model.User
		password string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT userId, userName, emailId, password FROM user WHERE emailId=? LIMIT 1",
		strings.TrimSpace(email)).Scan(&u.UserID, &u.UserName, &u.EmailID, &password)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, "", ErrUserNotFound
	}
	return u, password, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT userId, userName, emailId FROM user WHERE userId=? LIMIT 1",
		id).Scan(&u.UserID, &u.UserName, &u.EmailID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// FindOrCreateByEmail resolves an OAuth identity. Existing accounts keep
// their name and password; new ones get the OAUTH password sentinel.
func (r *UserRepo) FindOrCreateByEmail(ctx context.Context, email, name string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT userId, userName, emailId FROM user WHERE emailId=? LIMIT 1",
		email).Scan(&u.UserID, &u.UserName, &u.EmailID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}

	u, err = r.Create(ctx, name, email, model.PasswordOAuth)
	if errors.Is(err, ErrEmailExists) {
		// lost a race with a concurrent first login for the same email
		return r.FindOrCreateByEmail(ctx, email, name)
	}
	return u, err
}

// List returns every user without password data.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT userId, userName, emailId FROM user ORDER BY userId")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.UserName, &u.EmailID); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
