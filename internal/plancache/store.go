// Package plancache persists the most recently generated weekly plan so
// short-lived processes can inspect it without calling the backend again.
package plancache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nutriplan/internal/nutriplan"
)

// Store holds at most one cached plan, keyed to the profile it was
// generated for.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS plan_cache (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		user_id    INTEGER NOT NULL,
		plan_json  TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create plan_cache table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save replaces the cached plan.
func (s *Store) Save(ctx context.Context, userID int, plan nutriplan.WeeklyPlan) error {
	jsonData, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plan_cache (id, user_id, plan_json, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			plan_json = excluded.plan_json,
			updated_at = excluded.updated_at`,
		userID, string(jsonData), time.Now().UTC().Format(time.RFC3339))
	return err
}

// Get returns the cached plan for the given profile, or false when there
// is none. A plan cached for a different profile does not count.
func (s *Store) Get(ctx context.Context, userID int) (nutriplan.WeeklyPlan, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, plan_json FROM plan_cache WHERE id = 1`)

	var cachedUserID int
	var jsonData string
	err := row.Scan(&cachedUserID, &jsonData)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cachedUserID != userID {
		return nil, false, nil
	}

	var plan nutriplan.WeeklyPlan
	if err := json.Unmarshal([]byte(jsonData), &plan); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached plan: %w", err)
	}
	return plan, true, nil
}

// Clear removes the cached plan.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM plan_cache WHERE id = 1`)
	return err
}
