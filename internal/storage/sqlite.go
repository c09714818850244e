package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrInvalidInput indicates a caller passed an empty or malformed argument.
var ErrInvalidInput = errors.New("invalid input")

// SQLiteStore persists named credential entries (the access token and the
// pending code verifier) so a session survives a process restart.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", ErrInvalidInput)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Migrate creates the credentials table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS credentials (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}
	return nil
}

// Get returns the value of a named entry. An absent entry yields the empty
// string with a nil error.
func (s *SQLiteStore) Get(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: entry name cannot be empty", ErrInvalidInput)
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM credentials WHERE name = ?", name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get entry %q: %w", name, err)
	}
	return value, nil
}

// Set stores or replaces a named entry.
func (s *SQLiteStore) Set(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: entry name cannot be empty", ErrInvalidInput)
	}
	if value == "" {
		return fmt.Errorf("%w: entry value cannot be empty", ErrInvalidInput)
	}

	query := `INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to set entry %q: %w", name, err)
	}
	return nil
}

// Delete removes a named entry. Deleting an absent entry is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: entry name cannot be empty", ErrInvalidInput)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete entry %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
