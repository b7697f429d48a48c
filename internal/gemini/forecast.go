package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"pointblank/internal/domain"
)

// Forecast model names. These are labels the AI narrates under, not
// algorithms run here.
const (
	ModelProphet = "Prophet"
	ModelARIMA   = "ARIMA"
)

// EmptyForecasts returns the two named series with no points. It is what
// both this client and the orchestrator produce when there is no history
// to forecast from.
func EmptyForecasts() []domain.ForecastSeries {
	return []domain.ForecastSeries{
		{Model: ModelProphet, Points: []domain.ForecastPoint{}},
		{Model: ModelARIMA, Points: []domain.ForecastPoint{}},
	}
}

// Forecasts asks the model for Prophet- and ARIMA-style forecasts anchored
// to the last close in history. With an empty history no model call is
// made and both series come back empty: there is nothing to anchor a
// forecast to, and that is not an error.
func (c *Client) Forecasts(ctx context.Context, ticker string, history []domain.HistoryPoint) ([]domain.ForecastSeries, error) {
	last := domain.LastPoint(history)
	if last == nil {
		return EmptyForecasts(), nil
	}

	pointSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"Date": {Type: genai.TypeString},
			"yhat": {Type: genai.TypeNumber},
		},
	}
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			ModelProphet: {Type: genai.TypeArray, Items: pointSchema},
			ModelARIMA:   {Type: genai.TypeArray, Items: pointSchema},
		},
	}

	prompt := fmt.Sprintf(`Based on the ticker %q with its last closing price at %v on %s, generate plausible 'Prophet' and 'ARIMA' model forecasts for the next %d days.
The forecast should start from the day after %s.
The values for 'yhat' should show some realistic daily volatility and trend.
Return the response as a single JSON object with keys "Prophet" and "ARIMA". Each key should have an array of %d forecast objects.`,
		ticker, last.Close, last.Date, c.forecastDays, last.Date, c.forecastDays)

	resp, err := c.generate(ctx, c.flashModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, err
	}

	decoded, err := decodeJSON[struct {
		Prophet []domain.ForecastPoint `json:"Prophet"`
		ARIMA   []domain.ForecastPoint `json:"ARIMA"`
	}](resp.Text())
	if err != nil {
		return nil, err
	}

	return []domain.ForecastSeries{
		{Model: ModelProphet, Points: decoded.Prophet},
		{Model: ModelARIMA, Points: decoded.ARIMA},
	}, nil
}
