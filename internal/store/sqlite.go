package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pointblank/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ ProfileStore = (*SQLiteStore)(nil)
var _ ReportStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL,
	subscribed     INTEGER NOT NULL DEFAULT 0,
	analysis_count INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_user_ticker
	ON reports (user_id, ticker, created_at DESC);
`

// SQLiteStore implements ProfileStore and ReportStore backed by a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// ProfileStore implementation
// ---------------------------------------------------------------------------

// EnsureProfile creates a profile for the user if none exists and returns the
// current record. An existing profile keeps its counters; only the email is
// refreshed.
func (s *SQLiteStore) EnsureProfile(ctx context.Context, id, email string) (*domain.Profile, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, subscribed, analysis_count, created_at, updated_at)
		VALUES (?, ?, 0, 0, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, updated_at = excluded.updated_at`,
		id, email, now, now)
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// GetProfile retrieves a profile by user ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var subscribed int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, subscribed, analysis_count FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Email, &subscribed, &p.AnalysisCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Subscribed = subscribed != 0
	return &p, nil
}

// IncrementAnalysisCount adds one consumed analysis to the profile.
func (s *SQLiteStore) IncrementAnalysisCount(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET analysis_count = analysis_count + 1, updated_at = ? WHERE id = ?`,
		now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetSubscribed marks the profile as subscribed and resets the counter.
func (s *SQLiteStore) SetSubscribed(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET subscribed = 1, analysis_count = 0, updated_at = ? WHERE id = ?`,
		now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// ReportStore implementation
// ---------------------------------------------------------------------------

// SaveReport stores a completed report as a JSON payload.
func (s *SQLiteStore) SaveReport(ctx context.Context, userID string, report *domain.StockReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (user_id, ticker, payload, created_at) VALUES (?, ?, ?, ?)`,
		userID, strings.ToUpper(report.Ticker), string(payload), now)
	return err
}

// LatestReport returns the most recent report a user generated for a ticker.
func (s *SQLiteStore) LatestReport(ctx context.Context, userID, ticker string) (*domain.StockReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM reports
		WHERE user_id = ? AND ticker = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, strings.ToUpper(ticker)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var report domain.StockReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decoding report payload: %w", err)
	}
	return &report, nil
}
