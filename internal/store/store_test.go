package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pointblank/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestEnsureProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.EnsureProfile(ctx, "user-1", "a@b.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.ID != "user-1" || p.Email != "a@b.com" || p.Subscribed || p.AnalysisCount != 0 {
		t.Errorf("new profile = %+v", p)
	}

	// A second call must not reset counters.
	if err := s.IncrementAnalysisCount(ctx, "user-1"); err != nil {
		t.Fatalf("IncrementAnalysisCount: %v", err)
	}
	p, err = s.EnsureProfile(ctx, "user-1", "new@b.com")
	if err != nil {
		t.Fatalf("EnsureProfile (existing): %v", err)
	}
	if p.AnalysisCount != 1 {
		t.Errorf("count after re-ensure = %d, want 1", p.AnalysisCount)
	}
	if p.Email != "new@b.com" {
		t.Errorf("email not refreshed: %q", p.Email)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProfile(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSetSubscribedResetsCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureProfile(ctx, "user-1", "a@b.com"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.IncrementAnalysisCount(ctx, "user-1"); err != nil {
			t.Fatalf("IncrementAnalysisCount: %v", err)
		}
	}
	if err := s.SetSubscribed(ctx, "user-1"); err != nil {
		t.Fatalf("SetSubscribed: %v", err)
	}

	p, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !p.Subscribed || p.AnalysisCount != 0 {
		t.Errorf("profile after subscribe = %+v, want subscribed with count 0", p)
	}
}

func TestIncrementMissingProfile(t *testing.T) {
	s := newTestStore(t)

	if err := s.IncrementAnalysisCount(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndLatestReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.StockReport{Ticker: "AAPL", CompanyName: "Apple Inc.", Narrative: "<p>old</p>"}
	second := &domain.StockReport{Ticker: "aapl", CompanyName: "Apple Inc.", Narrative: "<p>new</p>"}
	if err := s.SaveReport(ctx, "user-1", first); err != nil {
		t.Fatalf("SaveReport (first): %v", err)
	}
	if err := s.SaveReport(ctx, "user-1", second); err != nil {
		t.Fatalf("SaveReport (second): %v", err)
	}

	got, err := s.LatestReport(ctx, "user-1", "AAPL")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if got.Narrative != "<p>new</p>" {
		t.Errorf("latest narrative = %q, want the newer report", got.Narrative)
	}

	if _, err := s.LatestReport(ctx, "user-2", "AAPL"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's lookup error = %v, want ErrNotFound", err)
	}
	if _, err := s.LatestReport(ctx, "user-1", "MSFT"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other ticker lookup error = %v, want ErrNotFound", err)
	}
}

func TestHistoryArchivePath(t *testing.T) {
	a := NewParquetArchive("/data")

	p := a.historyPath("aapl", "2026-08-31")
	want := filepath.Join("/data", "history", "AAPL", "2026-08-31.parquet")
	if p != want {
		t.Errorf("historyPath mismatch:\n  got  %s\n  want %s", p, want)
	}
	if !strings.Contains(p, "AAPL") {
		t.Errorf("historyPath should upcase the ticker: %s", p)
	}
}

func TestHistoryArchiveWriteRead(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	rsi := 55.2
	points := []domain.HistoryPoint{
		{Date: "2026-08-28", Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: "2026-08-29", Open: 101, High: 103, Low: 100, Close: 102, Volume: 1200, RSI: &rsi},
	}
	if err := a.WriteHistory(ctx, "AAPL", points); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	got, err := a.ReadHistory(ctx, "AAPL", date)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadHistory returned %d points, want 2", len(got))
	}
	if got[0].Date != "2026-08-28" || got[1].Close != 102 {
		t.Errorf("points = %+v", got)
	}
	if got[0].RSI != nil {
		t.Error("warm-up point should keep a nil RSI")
	}
	if got[1].RSI == nil || *got[1].RSI != 55.2 {
		t.Errorf("RSI = %v, want 55.2", got[1].RSI)
	}
}

func TestHistoryArchiveMerge(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	if err := a.WriteHistory(ctx, "MSFT", []domain.HistoryPoint{
		{Date: "2026-08-28", Close: 400},
	}); err != nil {
		t.Fatalf("WriteHistory (first): %v", err)
	}
	if err := a.WriteHistory(ctx, "MSFT", []domain.HistoryPoint{
		{Date: "2026-08-28", Close: 401}, // supersedes the earlier point
		{Date: "2026-08-29", Close: 405},
	}); err != nil {
		t.Fatalf("WriteHistory (second): %v", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	got, err := a.ReadHistory(ctx, "MSFT", date)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points after merge, want 2", len(got))
	}
	if got[0].Close != 401 {
		t.Errorf("merged point Close = %v, want the newer 401", got[0].Close)
	}
}

func TestHistoryArchiveReadMissing(t *testing.T) {
	a := NewParquetArchive(t.TempDir())

	got, err := a.ReadHistory(context.Background(), "NONE", "2026-01-01")
	if err != nil {
		t.Fatalf("ReadHistory on missing file: %v", err)
	}
	if got != nil {
		t.Errorf("missing archive should return nil, got %v", got)
	}
}
