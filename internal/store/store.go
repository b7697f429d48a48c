// Package store defines storage interfaces for persisting and retrieving
// domain objects such as user profiles, analysis reports, and price history.
package store

import (
	"context"
	"errors"

	"pointblank/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ProfileStore persists and retrieves user profiles.
type ProfileStore interface {
	// EnsureProfile creates a profile for the user if none exists and
	// returns the current record either way.
	EnsureProfile(ctx context.Context, id, email string) (*domain.Profile, error)

	// GetProfile retrieves a profile by user ID.
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)

	// IncrementAnalysisCount adds one consumed analysis to the profile.
	IncrementAnalysisCount(ctx context.Context, id string) error

	// SetSubscribed marks the profile as subscribed and resets the
	// consumed-analysis counter.
	SetSubscribed(ctx context.Context, id string) error
}

// ReportStore persists and retrieves completed analysis reports.
type ReportStore interface {
	// SaveReport stores a completed report for a user.
	SaveReport(ctx context.Context, userID string, report *domain.StockReport) error

	// LatestReport returns the most recent report a user generated for a
	// ticker, or ErrNotFound.
	LatestReport(ctx context.Context, userID, ticker string) (*domain.StockReport, error)
}

// HistoryArchive persists indicator-augmented price history for later reuse.
type HistoryArchive interface {
	// WriteHistory archives the history series generated for a ticker on
	// a given day. Repeated writes for the same day merge by date.
	WriteHistory(ctx context.Context, ticker string, points []domain.HistoryPoint) error

	// ReadHistory returns the archived series for a ticker and archive
	// date, or nil when none exists.
	ReadHistory(ctx context.Context, ticker, date string) ([]domain.HistoryPoint, error)
}
