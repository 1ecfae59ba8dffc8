package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/godilite/krishi-gateway/internal/apierror"
)

// timeLayout is fixed-width so that lexical order of stored timestamps
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS farmers (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		location      TEXT NOT NULL,
		joined_date   TEXT NOT NULL,
		phone_number  TEXT NOT NULL,
		farm_size     TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		category   TEXT NOT NULL,
		message    TEXT NOT NULL CHECK (length(message) <= 1000),
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback (created_at)`,
}

// Migrate creates the tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by other tools
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}

// wrapWriteError tags constraint violations from either SQLite driver as
// persistence failures and wraps everything else unchanged.
func wrapWriteError(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if isConstraintViolation(err) {
		return apierror.Persistence(wrapped)
	}
	return wrapped
}

func isConstraintViolation(err error) bool {
	var cgoErr sqlite3.Error
	if errors.As(err, &cgoErr) {
		return cgoErr.Code == sqlite3.ErrConstraint
	}
	var pureErr *sqlite.Error
	if errors.As(err, &pureErr) {
		return pureErr.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT
	}
	return false
}
