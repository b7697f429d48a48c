package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"pointblank/internal/domain"
)

// Compile-time interface check.
var _ HistoryArchive = (*ParquetArchive)(nil)

// ParquetArchive implements HistoryArchive using Parquet files on disk.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates an archive rooted at the given data directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// historyRecord is the Parquet schema for an archived history point. Indicator
// columns are optional to match the warm-up gap at the start of a series.
type historyRecord struct {
	Date   string  `parquet:"date"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`

	BBUpper    *float64 `parquet:"bb_upper,optional"`
	BBMiddle   *float64 `parquet:"bb_middle,optional"`
	BBLower    *float64 `parquet:"bb_lower,optional"`
	RSI        *float64 `parquet:"rsi,optional"`
	MACD       *float64 `parquet:"macd,optional"`
	MACDSignal *float64 `parquet:"macd_signal,optional"`
	MACDHist   *float64 `parquet:"macd_hist,optional"`
}

// WriteHistory archives the series generated for a ticker today. Each
// ticker+day combination produces a separate file at:
//
//	<DataDir>/history/<TICKER>/<YYYY-MM-DD>.parquet
//
// Repeated writes for the same day merge by date, preferring new points.
func (a *ParquetArchive) WriteHistory(_ context.Context, ticker string, points []domain.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	date := time.Now().UTC().Format("2006-01-02")
	path := a.historyPath(ticker, date)

	records := make([]historyRecord, 0, len(points))
	for _, p := range points {
		records = append(records, historyRecord{
			Date:       p.Date,
			Open:       p.Open,
			High:       p.High,
			Low:        p.Low,
			Close:      p.Close,
			Volume:     p.Volume,
			BBUpper:    p.BBUpper,
			BBMiddle:   p.BBMiddle,
			BBLower:    p.BBLower,
			RSI:        p.RSI,
			MACD:       p.MACD,
			MACDSignal: p.MACDSignal,
			MACDHist:   p.MACDHist,
		})
	}

	existing, _ := readParquetFile[historyRecord](path)
	merged := mergeHistoryRecords(existing, records)

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("archiving history for %s/%s: %w", ticker, date, err)
	}
	return nil
}

// ReadHistory returns the archived series for a ticker and archive date, or
// nil when no file exists.
func (a *ParquetArchive) ReadHistory(_ context.Context, ticker, date string) ([]domain.HistoryPoint, error) {
	records, err := readParquetFile[historyRecord](a.historyPath(ticker, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	points := make([]domain.HistoryPoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.HistoryPoint{
			Date:       r.Date,
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			BBUpper:    r.BBUpper,
			BBMiddle:   r.BBMiddle,
			BBLower:    r.BBLower,
			RSI:        r.RSI,
			MACD:       r.MACD,
			MACDSignal: r.MACDSignal,
			MACDHist:   r.MACDHist,
		})
	}
	domain.SortHistory(points)
	return points, nil
}

// historyPath returns the filesystem path for an archived history file.
// Layout: <dataDir>/history/<TICKER>/<YYYY-MM-DD>.parquet
func (a *ParquetArchive) historyPath(ticker, date string) string {
	return filepath.Join(a.DataDir, "history", strings.ToUpper(ticker), date+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeHistoryRecords deduplicates records by date, preferring new records
// over existing ones. Results are sorted by date.
func mergeHistoryRecords(existing, incoming []historyRecord) []historyRecord {
	seen := make(map[string]historyRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]historyRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
