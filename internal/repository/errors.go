// Package repository holds the SQL data access for the movie catalog. Every
// exported error is an *apperror.AppError so handlers can map it onto an
// HTTP status without knowing about the store.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/online-movie-api/internal/apperror"
)

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry = 1062
	mysqlUnknownColumn  = 1054
	mysqlNoReferenced   = 1452 // foreign key parent row missing
)

var (
	// ErrEmailExists is returned when registering an email already in use.
	ErrEmailExists = apperror.Conflict("Email already exists.")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = apperror.NotFound("User not found")

	// ErrMovieNotFound is returned when a movie id does not exist.
	ErrMovieNotFound = apperror.NotFound("Movie not found")

	// ErrNoRatings covers both an absent movie and a movie nobody rated.
	ErrNoRatings = apperror.NotFound("Movie not found or not rated")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = apperror.Unauthorized("session not found")
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool     { return mysqlErrNumber(err) == mysqlDuplicateEntry }
func isUnknownColumn(err error) bool { return mysqlErrNumber(err) == mysqlUnknownColumn }
func isMissingParent(err error) bool { return mysqlErrNumber(err) == mysqlNoReferenced }
