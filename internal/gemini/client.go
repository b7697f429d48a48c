// Package gemini is the AI gateway client. Every market datum in the
// platform — price history, indicator values, forecasts, news, narrative —
// is produced by prompting the Gemini API, not computed locally. The
// collaborator is opaque and non-deterministic; this package only enforces
// its declared contract (structured output or error).
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"pointblank/internal/config"
	"pointblank/internal/util"
)

// Client wraps the Gemini API for the analysis operations the dashboard
// needs. All calls are rate limited through a shared token bucket.
type Client struct {
	ai *genai.Client

	flashModel   string
	proModel     string
	historyDays  int
	forecastDays int

	limiter *util.RateLimiter
	log     *slog.Logger
}

// New creates a Client from configuration. The lifecycle parameters control
// how much history and forecast the model is asked to fabricate.
func New(ctx context.Context, cfg config.Gemini, lifecycle config.AnalysisConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	ai, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Client{
		ai:           ai,
		flashModel:   cfg.FlashModel,
		proModel:     cfg.ProModel,
		historyDays:  lifecycle.HistoryDays,
		forecastDays: lifecycle.ForecastDays,
		limiter:      util.NewRateLimiter(cfg.RateLimitPerMin),
		log:          slog.Default().With("component", "gemini"),
	}, nil
}

// generate issues a single rate-limited model call and returns the
// response text.
func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.ai.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %s call: %w", model, err)
	}
	return resp, nil
}
