// Package analyst coordinates the analysis request lifecycle: admission
// against the usage gate, the primary AI fetch, the concurrent secondary
// fan-out, and the commit of one immutable report per successful cycle.
package analyst

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pointblank/internal/domain"
	"pointblank/internal/gemini"
	"pointblank/internal/quota"
	"pointblank/internal/util"
)

// Gateway is the AI collaborator the orchestrator drives. Implementations
// are opaque and non-deterministic; only this contract is relied on.
type Gateway interface {
	FetchPrimary(ctx context.Context, ticker string) (*domain.PrimaryAnalysis, error)
	Forecasts(ctx context.Context, ticker string, history []domain.HistoryPoint) ([]domain.ForecastSeries, error)
	News(ctx context.Context, ticker string) ([]domain.NewsArticle, error)
	Narrative(ctx context.Context, ticker string) (string, error)
}

// Orchestrator owns one account's analysis lifecycle. It is the only
// writer of its cycle status and retained report, and the only caller of
// the gate's success path.
//
// Secondary-failure policy: per-field degradation. A failed forecast, news,
// or narrative call leaves that section empty and the cycle still
// completes; the failure is logged per field. A completed cycle is billable
// even when degraded.
type Orchestrator struct {
	gateway     Gateway
	gate        *quota.Gate
	callTimeout time.Duration
	maxAttempts int
	log         *slog.Logger

	mu     sync.Mutex
	seq    uint64
	status Status
	report *domain.StockReport
}

// NewOrchestrator creates an Orchestrator for one account. callTimeout
// bounds each external AI call; maxAttempts controls primary-fetch retries.
func NewOrchestrator(gateway Gateway, gate *quota.Gate, callTimeout time.Duration, maxAttempts int) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Orchestrator{
		gateway:     gateway,
		gate:        gate,
		callTimeout: callTimeout,
		maxAttempts: maxAttempts,
		log:         slog.Default().With("component", "analyst"),
	}
}

// Status returns the current cycle phase.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Report returns the latest committed report, or nil. The report is
// immutable; callers must not modify it.
func (o *Orchestrator) Report() *domain.StockReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}

// Analyze runs one full analysis cycle for the ticker and returns the
// committed report. The cycle is: admission, primary fetch, concurrent
// secondary fan-out, merge, commit. Quota is consumed exactly once per
// successful cycle, never per attempt, and never for subscribers.
func (o *Orchestrator) Analyze(ctx context.Context, ticker string) (*domain.StockReport, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrEmptyTicker
	}

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.status = StatusAdmitting

	if !o.gate.Admit() {
		o.status = StatusFailed
		o.mu.Unlock()
		o.log.Info("analysis denied by usage gate", "ticker", ticker)
		return nil, ErrQuotaExceeded
	}

	// A submission for a different ticker drops the retained report; a
	// same-ticker retry keeps it so the chart still has data to redraw
	// behind its retry affordance.
	if o.report != nil && o.report.Ticker != ticker {
		o.report = nil
	}
	o.status = StatusFetchingPrimary
	o.mu.Unlock()

	primary, err := o.fetchPrimary(ctx, ticker)
	if err != nil {
		o.fail(seq)
		return nil, &DataUnavailableError{Ticker: ticker, Err: err}
	}

	o.setStatus(seq, StatusFetchingSecondary)
	forecasts, news, narrative := o.fetchSecondary(ctx, ticker, primary.History)

	report := &domain.StockReport{
		Ticker:      primary.Ticker,
		CompanyName: primary.CompanyName,
		Currency:    primary.Currency,
		History:     primary.History,
		Analysis:    primary.Analysis,
		Forecasts:   forecasts,
		News:        news,
		Narrative:   narrative,
		GeneratedAt: time.Now().UTC(),
	}

	o.mu.Lock()
	if o.seq != seq {
		// A newer submission superseded this cycle while it was in
		// flight; its result must not overwrite newer state or bill the
		// account.
		o.mu.Unlock()
		o.log.Debug("discarding superseded cycle", "ticker", ticker, "seq", seq)
		return nil, ErrSuperseded
	}
	o.report = report
	o.status = StatusComplete
	o.mu.Unlock()

	o.gate.RecordSuccess()
	o.log.Info("analysis cycle complete",
		"ticker", report.Ticker,
		"points", len(report.History),
		"news", len(report.News))
	return report, nil
}

// fetchPrimary runs the primary fetch with retry and validates the
// returned history.
func (o *Orchestrator) fetchPrimary(ctx context.Context, ticker string) (*domain.PrimaryAnalysis, error) {
	cctx, cancel := o.callContext(ctx)
	defer cancel()

	var primary *domain.PrimaryAnalysis
	err := util.Retry(cctx, o.maxAttempts, time.Second, func() error {
		p, err := o.gateway.FetchPrimary(cctx, ticker)
		if err != nil {
			return err
		}
		primary = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(primary.History) == 0 {
		return nil, gemini.ErrNoHistory
	}
	return primary, nil
}

// fetchSecondary issues the three independent post-primary requests
// concurrently and joins on all of them. Siblings are never cancelled on
// another sibling's failure: forecasts, news, and narrative are each
// useful on their own. Failed fields degrade to their empty value.
func (o *Orchestrator) fetchSecondary(ctx context.Context, ticker string, history []domain.HistoryPoint) ([]domain.ForecastSeries, []domain.NewsArticle, string) {
	var (
		wg        sync.WaitGroup
		forecasts []domain.ForecastSeries
		news      []domain.NewsArticle
		narrative string

		forecastErr, newsErr, narrativeErr error
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		if len(history) == 0 {
			// Nothing to anchor a forecast to; skip the call entirely.
			forecasts = gemini.EmptyForecasts()
			return
		}
		cctx, cancel := o.callContext(ctx)
		defer cancel()
		forecasts, forecastErr = o.gateway.Forecasts(cctx, ticker, history)
	}()

	go func() {
		defer wg.Done()
		cctx, cancel := o.callContext(ctx)
		defer cancel()
		news, newsErr = o.gateway.News(cctx, ticker)
	}()

	go func() {
		defer wg.Done()
		cctx, cancel := o.callContext(ctx)
		defer cancel()
		narrative, narrativeErr = o.gateway.Narrative(cctx, ticker)
	}()

	wg.Wait()

	if forecastErr != nil {
		o.log.Warn("forecast fetch degraded", "ticker", ticker, "error", forecastErr)
		forecasts = gemini.EmptyForecasts()
	}
	if newsErr != nil {
		o.log.Warn("news fetch degraded", "ticker", ticker, "error", newsErr)
	}
	if narrativeErr != nil {
		o.log.Warn("narrative fetch degraded", "ticker", ticker, "error", narrativeErr)
		narrative = ""
	}
	if forecasts == nil {
		forecasts = gemini.EmptyForecasts()
	}
	if news == nil {
		news = []domain.NewsArticle{}
	}

	return forecasts, news, narrative
}

// callContext derives the per-call timeout context.
func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.callTimeout)
}

// fail marks the cycle failed unless a newer cycle already took over.
func (o *Orchestrator) fail(seq uint64) {
	o.mu.Lock()
	if o.seq == seq {
		o.status = StatusFailed
	}
	o.mu.Unlock()
}

// setStatus advances the cycle phase unless superseded.
func (o *Orchestrator) setStatus(seq uint64, s Status) {
	o.mu.Lock()
	if o.seq == seq {
		o.status = s
	}
	o.mu.Unlock()
}
