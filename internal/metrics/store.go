package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RequestMetric records metadata for a single backend request.
type RequestMetric struct {
	Operation string
	Status    int
	LatencyMS int64
	Timestamp time.Time
}

// Store handles persistence of request metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates the metrics table if needed and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS request_metrics (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		operation  TEXT NOT NULL,
		status     INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		timestamp  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_request_metrics_timestamp ON request_metrics(timestamp);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create metrics table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record saves a metric to the database.
func (s *Store) Record(m RequestMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO request_metrics (operation, status, latency_ms, timestamp)
		VALUES (?, ?, ?, ?)`,
		m.Operation, m.Status, m.LatencyMS, ts.Format("2006-01-02 15:04:05"))
	return err
}

// RecordRequest implements the gateway's RequestRecorder. Recording is
// best-effort; a failed insert never disturbs the request that produced it.
func (s *Store) RecordRequest(operation string, status int, latency time.Duration) {
	_ = s.Record(RequestMetric{
		Operation: operation,
		Status:    status,
		LatencyMS: latency.Milliseconds(),
	})
}

// DailyUsage represents request totals for a single day.
type DailyUsage struct {
	Date          string
	TotalRequests int
	TotalFailures int
	AvgLatencyMS  int
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")
	rows, err := s.db.Query(`
		SELECT date(timestamp) AS day,
		       COUNT(*),
		       SUM(CASE WHEN status < 200 OR status > 299 THEN 1 ELSE 0 END),
		       CAST(AVG(latency_ms) AS INTEGER)
		FROM request_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var avg sql.NullInt64
		if err := rows.Scan(&u.Date, &u.TotalRequests, &u.TotalFailures, &avg); err != nil {
			return nil, err
		}
		if avg.Valid {
			u.AvgLatencyMS = int(avg.Int64)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns the number of rows removed.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).Format("2006-01-02 15:04:05")
	res, err := s.db.Exec(`DELETE FROM request_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
