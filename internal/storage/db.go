package storage

import (
	"context"
	"database/sql"
	_ "embed"

	"gitlab.com/tozd/go/errors"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite index connection
type DB struct {
	conn *sql.DB
}

// Open opens or creates a SQLite index at the given path
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Errorf("open index %s: %w", path, err)
	}
	// Pragmas are per connection and SQLite serializes writers anyway
	conn.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, errors.Errorf("enable foreign keys: %w", err)
	}

	// Initialize schema
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, errors.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Clear removes all data from the index
func (db *DB) Clear(ctx context.Context) error {
	return clearAll(ctx, db.conn)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func clearAll(ctx context.Context, e execer) error {
	for _, stmt := range []string{"DELETE FROM calls", "DELETE FROM functions", "DELETE FROM files", "DELETE FROM meta"} {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return errors.Errorf("clear index: %w", err)
		}
	}
	return nil
}

// Conn returns the underlying database connection for advanced queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}
