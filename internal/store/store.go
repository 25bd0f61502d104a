package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound reports a lookup that matched no row. Expected outcome;
	// callers branch on it.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports a uniqueness violation. Propagated to the caller
	// since it indicates a caller logic error, not an environmental fault.
	ErrDuplicate = errors.New("duplicate")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email    TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	frequency  TEXT NOT NULL,
	city       TEXT NOT NULL,
	country    TEXT NOT NULL,
	user_id    INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	UNIQUE (user_id, frequency, city, country)
);
`

// DB wraps the sqlite connection shared by the user and event stores.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path and ensures the
// schema exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db}, nil
}

// mapConstraint converts sqlite uniqueness violations to ErrDuplicate and
// leaves every other error untouched.
func mapConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
