package pointblank

import "time"

// The types below mirror the server's wire format so SDK consumers can name
// them without reaching into the server's internal packages.

// HistoryPoint is a single daily OHLCV observation. Indicator fields are
// optional; the model may omit them for the warm-up window at the start of
// a series.
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

// ForecastPoint is one predicted (date, value) pair.
type ForecastPoint struct {
	Date  string  `json:"Date"`
	Value float64 `json:"yhat"`
}

// ForecastSeries is a named model's ordered forecast.
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

// StockReport is one complete analysis result.
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

// Chat roles accepted by the assistant endpoint.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is one turn of an assistant conversation. The caller supplies
// the full prior transcript on every request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Profile is the authenticated user's account state.
type Profile struct {
	Email         string `json:"email"`
	Subscribed    bool   `json:"isSubscribed"`
	AnalysisCount int    `json:"analysisCount"`
}
