// Package domain defines the core data types shared across the pointblank
// platform: price history, technical analysis, forecasts, news, reports,
// chat transcripts, and user profiles.
package domain

import (
	"sort"
	"time"
)

// HistoryPoint is a single daily OHLCV observation. The indicator fields
// are optional because the model may omit them for the warm-up window at
// the start of a series.
type HistoryPoint struct {
	Date   string  `json:"Date"` // YYYY-MM-DD
	Open   float64 `json:"Open"`
	High   float64 `json:"High"`
	Low    float64 `json:"Low"`
	Close  float64 `json:"Close"`
	Volume int64   `json:"Volume"`

	BBUpper    *float64 `json:"bb_upper,omitempty"`
	BBMiddle   *float64 `json:"bb_middle,omitempty"`
	BBLower    *float64 `json:"bb_lower,omitempty"`
	RSI        *float64 `json:"rsi,omitempty"`
	MACD       *float64 `json:"macd,omitempty"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
	MACDHist   *float64 `json:"macd_hist,omitempty"`
}

// SortHistory orders points ascending by date in place. Dates are ISO
// YYYY-MM-DD strings, so lexicographic order is chronological order.
func SortHistory(points []HistoryPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
}

// LastPoint returns the chronologically last point, or nil for an empty series.
func LastPoint(points []HistoryPoint) *HistoryPoint {
	if len(points) == 0 {
		return nil
	}
	return &points[len(points)-1]
}

// ---------------------------------------------------------------------------
// Technical analysis summary
// ---------------------------------------------------------------------------

// OverallSummary is the model's aggregate verdict on a ticker.
type OverallSummary struct {
	Score  float64 `json:"score"`
	Signal string  `json:"signal"`
}

// PriceSummary describes the latest price and its recent movement.
type PriceSummary struct {
	Current   float64 `json:"current"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Trend     string  `json:"trend"`
}

// MovingAverageSummary holds short and medium simple moving averages.
type MovingAverageSummary struct {
	SMA20  float64 `json:"sma_20"`
	SMA50  float64 `json:"sma_50"`
	Signal string  `json:"signal"`
}

// RSISummary holds the latest relative-strength reading.
type RSISummary struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// MACDSummary holds the latest MACD and signal-line values.
type MACDSummary struct {
	MACD   float64 `json:"macd"`
	Signal float64 `json:"signal"`
	Trend  string  `json:"trend"`
}

// TechnicalAnalysis is the structured indicator summary attached to a report.
type TechnicalAnalysis struct {
	Overall        OverallSummary       `json:"overall"`
	Price          PriceSummary         `json:"price"`
	MovingAverages MovingAverageSummary `json:"moving_averages"`
	RSI            RSISummary           `json:"rsi"`
	MACD           MACDSummary          `json:"macd"`
}

// ---------------------------------------------------------------------------
// Forecasts and news
// ---------------------------------------------------------------------------

// ForecastPoint is one predicted (date, value) pair.
type ForecastPoint struct {
	Date  string  `json:"Date"`
	Value float64 `json:"yhat"`
}

// ForecastSeries is a named model's ordered forecast. Points cover dates
// strictly after the last historical date.
type ForecastSeries struct {
	Model  string          `json:"model"`
	Points []ForecastPoint `json:"data"`
}

// NewsArticle is a single headline attributed to an external source.
type NewsArticle struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published"` // RFC 3339
	Image     string `json:"image,omitempty"`
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// PrimaryAnalysis is the result of the primary fetch: company identity plus
// indicator-augmented history and its technical summary. Secondary results
// (forecasts, news, narrative) are merged in later to form a StockReport.
type PrimaryAnalysis struct {
	Ticker      string            `json:"ticker"`
	CompanyName string            `json:"companyName"`
	Currency    string            `json:"currency"`
	History     []HistoryPoint    `json:"history"`
	Analysis    TechnicalAnalysis `json:"analysis"`
}

// StockReport is one complete, immutable analysis result. A report is only
// ever committed whole: either every section is populated from a finished
// cycle, or the report does not exist.
type StockReport struct {
	Ticker      string            `json:"ticker"`
	CompanyName string            `json:"companyName"`
	Currency    string            `json:"currency"`
	History     []HistoryPoint    `json:"history"`
	Analysis    TechnicalAnalysis `json:"analysis"`
	Forecasts   []ForecastSeries  `json:"forecasts"`
	News        []NewsArticle     `json:"news"`
	Narrative   string            `json:"deepAnalysis"` // rendered HTML
	GeneratedAt time.Time         `json:"generatedAt,omitempty"`
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

// Chat roles. The model role matches the Gemini API's naming.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is one turn of an assistant conversation. The caller supplies
// the full prior transcript on every request; the service holds no state.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// Profile is the server-side record for an authenticated user. AnalysisCount
// tracks consumed free analyses and only moves forward; subscribing resets it.
type Profile struct {
	ID            string `json:"-"`
	Email         string `json:"email"`
	Subscribed    bool   `json:"isSubscribed"`
	AnalysisCount int    `json:"analysisCount"`
}
