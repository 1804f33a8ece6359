package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

// Schema is the full catalog DDL. Production databases are provisioned
// separately; the file is applied by integration tests and by the
// -bootstrap flag of the server.
//
//go:embed schema.sql
var Schema string

// runtimeTables are created on every start if missing. The rest of the
// catalog is owned by whoever provisions the database.
var runtimeTables = []string{
	`CREATE TABLE IF NOT EXISTS watchlist (
		userId INT NOT NULL,
		movieId INT NOT NULL,
		createdAt DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (userId, movieId),
		FOREIGN KEY (userId) REFERENCES user(userId),
		FOREIGN KEY (movieId) REFERENCES movie(movieId)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id CHAR(36) NOT NULL PRIMARY KEY,
		user_id INT NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_sessions_expires (expires_at)
	)`,
}

// EnsureSchema creates the watchlist and session tables when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range runtimeTables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Bootstrap applies Schema statement by statement. Every statement is
// idempotent so it is safe against an already provisioned database.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range SplitStatements(Schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return EnsureSchema(ctx, db)
}

// SplitStatements breaks a DDL script on semicolons, skipping blank
// statements and full-line "--" comments. The schema contains no string
// literals with semicolons, which keeps this split safe.
func SplitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, s := range strings.Split(b.String(), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
