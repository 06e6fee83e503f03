package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nutriplan/internal/nutriplan"
)

// Onboarding step states, in order.
const (
	StateName     = "name"
	StateMetrics  = "metrics"
	StateSex      = "sex"
	StateActivity = "activity"
	StatePrefs    = "prefs"
	StateGoal     = "goal"
)

// Session represents an in-progress onboarding conversation for one
// Telegram user.
type Session struct {
	ID          int64
	UserID      string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Draft holds the registration data collected so far, stored as JSON in
// the session's context_data column.
type Draft struct {
	Payload nutriplan.UserPayload `json:"payload"`
}

// GetDraft unmarshals the context_data JSON field.
func (s *Session) GetDraft() (Draft, error) {
	var draft Draft
	err := json.Unmarshal([]byte(s.ContextData), &draft)
	return draft, err
}

// SessionRepository provides access to onboarding session persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates the sessions table if needed.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS onboarding_sessions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      TEXT NOT NULL,
		state        TEXT NOT NULL,
		context_data TEXT NOT NULL,
		expires_at   TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_onboarding_sessions_user ON onboarding_sessions(user_id, expires_at);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	return &SessionRepository{db: db}, nil
}

// Create starts a new session and returns its ID.
func (sr *SessionRepository) Create(ctx context.Context, userID, state string, draft Draft, ttl time.Duration) (int64, error) {
	jsonData, err := json.Marshal(draft)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	result, err := sr.db.ExecContext(ctx, `
		INSERT INTO onboarding_sessions (user_id, state, context_data, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, state, string(jsonData),
		now.Add(ttl).Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetActive retrieves the most recent non-expired session for a user, or
// nil when there is none.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	row := sr.db.QueryRowContext(ctx, `
		SELECT id, user_id, state, context_data, expires_at, created_at
		FROM onboarding_sessions
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, now.UTC().Format(time.RFC3339))

	var s Session
	var expiresAt, createdAt string
	err := row.Scan(&s.ID, &s.UserID, &s.State, &s.ContextData, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

// Update replaces the state and draft of a session.
func (sr *SessionRepository) Update(ctx context.Context, sessionID int64, state string, draft Draft) error {
	jsonData, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	_, err = sr.db.ExecContext(ctx, `
		UPDATE onboarding_sessions SET state = ?, context_data = ? WHERE id = ?`,
		state, string(jsonData), sessionID)
	return err
}

// Delete removes a session.
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM onboarding_sessions WHERE id = ?`, sessionID)
	return err
}

// CleanupExpired removes all expired sessions.
func (sr *SessionRepository) CleanupExpired(ctx context.Context) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM onboarding_sessions WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339))
	return err
}
