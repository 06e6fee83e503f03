// Package identity persists the logged-in username across process
// restarts. It is the sole source of session continuity: a stored
// username implies a past successful login or registration, not that the
// profile still exists server-side.
package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store reads and writes the single persisted identity row.
type Store struct {
	db *sql.DB
}

// NewStore creates the identity table if needed and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS identity (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		username   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create identity table: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the stored username. The second result is false when no
// identity is stored, which means "not logged in".
func (s *Store) Get(ctx context.Context) (string, bool, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT username FROM identity WHERE id = 1`).Scan(&username)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read identity: %w", err)
	}
	return username, true, nil
}

// Set records the username, replacing any previous identity. The write is
// visible to any reader immediately after it returns.
func (s *Store) Set(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity (id, username, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, updated_at = excluded.updated_at`,
		username, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}
	return nil
}

// Clear removes the stored identity. Clearing an absent identity is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM identity WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}
