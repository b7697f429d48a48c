package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"pointblank/internal/domain"
)

// ErrNoHistory marks a primary response whose history was missing or empty.
// Callers treat this as data-unavailable, recoverable by an explicit retry.
var ErrNoHistory = errors.New("model returned no usable price history")

// numField is shorthand for a NUMBER schema entry.
func numField() *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber}
}

// strField is shorthand for a STRING schema entry.
func strField() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

// primarySchema constrains the primary fetch to the exact report shape the
// dashboard consumes.
func primarySchema() *genai.Schema {
	historyItem := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"Date":        {Type: genai.TypeString, Description: "Date in YYYY-MM-DD format"},
			"Open":        numField(),
			"High":        numField(),
			"Low":         numField(),
			"Close":       numField(),
			"Volume":      {Type: genai.TypeInteger},
			"bb_upper":    numField(),
			"bb_middle":   numField(),
			"bb_lower":    numField(),
			"rsi":         numField(),
			"macd":        numField(),
			"macd_signal": numField(),
			"macd_hist":   numField(),
		},
	}

	analysis := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overall": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"score":  numField(),
					"signal": strField(),
				},
			},
			"price": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"current":    numField(),
					"change":     numField(),
					"change_pct": numField(),
					"trend":      strField(),
				},
			},
			"moving_averages": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"sma_20": numField(),
					"sma_50": numField(),
					"signal": strField(),
				},
			},
			"rsi": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"value":  numField(),
					"signal": strField(),
				},
			},
			"macd": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"macd":   numField(),
					"signal": numField(),
					"trend":  strField(),
				},
			},
		},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ticker":      strField(),
			"companyName": strField(),
			"currency":    strField(),
			"history":     {Type: genai.TypeArray, Items: historyItem},
			"analysis":    analysis,
		},
	}
}

// FetchPrimary asks the model for a complete analysis of the ticker:
// company identity, currency, indicator-augmented daily history, and a
// technical summary derived from that history. The returned history is
// validated non-empty and sorted ascending by date.
func (c *Client) FetchPrimary(ctx context.Context, ticker string) (*domain.PrimaryAnalysis, error) {
	prompt := fmt.Sprintf(`Generate a comprehensive stock analysis for the ticker %q.
Provide the output in a single JSON object.
- The history should contain plausible daily OHLCV data for the past %d days.
- For each historical data point, also calculate the following technical indicators:
  - Bollinger Bands (20-period SMA, 2 standard deviations). Name the fields: bb_upper, bb_middle, bb_lower.
  - RSI (14-period). Name the field: rsi.
  - MACD (12-period EMA, 26-period EMA, 9-period signal EMA). Name the fields: macd, macd_signal, macd_hist.
- The technical analysis summary should be based on this generated historical data.
- Determine a likely currency for the ticker (e.g. AAPL is USD, RELIANCE.NS is INR).`,
		ticker, c.historyDays)

	resp, err := c.generate(ctx, c.flashModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   primarySchema(),
	})
	if err != nil {
		return nil, err
	}

	primary, err := decodeJSON[domain.PrimaryAnalysis](resp.Text())
	if err != nil {
		return nil, err
	}
	if len(primary.History) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoHistory, ticker)
	}

	domain.SortHistory(primary.History)
	if primary.Ticker == "" {
		primary.Ticker = strings.ToUpper(ticker)
	}

	c.log.Debug("primary analysis fetched",
		"ticker", primary.Ticker, "points", len(primary.History), "currency", primary.Currency)
	return &primary, nil
}
