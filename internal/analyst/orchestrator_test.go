package analyst

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pointblank/internal/domain"
	"pointblank/internal/quota"
)

// fakeGateway is a controllable AI collaborator for lifecycle tests.
type fakeGateway struct {
	mu             sync.Mutex
	primaryCalls   int
	forecastCalls  int
	newsCalls      int
	narrativeCalls int

	primaryErr    error
	blockFirst    chan struct{} // first primary call waits here if set
	forecastErr   error
	newsErr       error
	narrativeErr  error
	forecastDelay time.Duration
}

func (f *fakeGateway) FetchPrimary(_ context.Context, ticker string) (*domain.PrimaryAnalysis, error) {
	f.mu.Lock()
	f.primaryCalls++
	first := f.primaryCalls == 1
	f.mu.Unlock()

	if first && f.blockFirst != nil {
		<-f.blockFirst
	}
	if f.primaryErr != nil {
		return nil, f.primaryErr
	}
	return &domain.PrimaryAnalysis{
		Ticker:      strings.ToUpper(ticker),
		CompanyName: ticker + " Inc.",
		Currency:    "USD",
		History: []domain.HistoryPoint{
			{Date: "2026-08-28", Close: 100},
			{Date: "2026-08-29", Close: 101.5},
		},
		Analysis: domain.TechnicalAnalysis{
			Overall: domain.OverallSummary{Score: 7.5, Signal: "Buy"},
		},
	}, nil
}

func (f *fakeGateway) Forecasts(_ context.Context, _ string, history []domain.HistoryPoint) ([]domain.ForecastSeries, error) {
	f.mu.Lock()
	f.forecastCalls++
	f.mu.Unlock()
	if f.forecastDelay > 0 {
		time.Sleep(f.forecastDelay)
	}
	if f.forecastErr != nil {
		return nil, f.forecastErr
	}
	return []domain.ForecastSeries{
		{Model: "Prophet", Points: []domain.ForecastPoint{{Date: "2026-08-30", Value: 102}}},
		{Model: "ARIMA", Points: []domain.ForecastPoint{{Date: "2026-08-30", Value: 101}}},
	}, nil
}

func (f *fakeGateway) News(_ context.Context, ticker string) ([]domain.NewsArticle, error) {
	f.mu.Lock()
	f.newsCalls++
	f.mu.Unlock()
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return []domain.NewsArticle{{Title: ticker + " rallies", Source: "example.com"}}, nil
}

func (f *fakeGateway) Narrative(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.narrativeCalls++
	f.mu.Unlock()
	if f.narrativeErr != nil {
		return "", f.narrativeErr
	}
	return "<p>outlook</p>", nil
}

func newTestOrchestrator(gw Gateway, state quota.State, freeLimit int) (*Orchestrator, *quota.Gate) {
	gate := quota.NewGate(freeLimit, state)
	return NewOrchestrator(gw, gate, 0, 1), gate
}

func TestQuotaDeniedNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}
	o, gate := newTestOrchestrator(gw, quota.State{Count: 3}, 3)

	_, err := o.Analyze(context.Background(), "AAPL")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Analyze error = %v, want ErrQuotaExceeded", err)
	}
	if gw.primaryCalls != 0 {
		t.Errorf("primary fetch was called %d times on a denied admission", gw.primaryCalls)
	}
	if got := gate.State().Count; got != 3 {
		t.Errorf("count after denial = %d, want unchanged 3", got)
	}
	if o.Status() != StatusFailed {
		t.Errorf("status after denial = %v, want failed", o.Status())
	}
}

func TestSuccessfulCycle(t *testing.T) {
	gw := &fakeGateway{}
	o, gate := newTestOrchestrator(gw, quota.State{Count: 2}, 3)

	report, err := o.Analyze(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if report.Ticker != "AAPL" {
		t.Errorf("report ticker = %q, want normalized AAPL", report.Ticker)
	}
	if len(report.History) == 0 || len(report.Forecasts) != 2 || len(report.News) != 1 || report.Narrative == "" {
		t.Errorf("report not fully populated: %+v", report)
	}
	if got := gate.State().Count; got != 3 {
		t.Errorf("count after success = %d, want 3", got)
	}
	if o.Status() != StatusComplete {
		t.Errorf("status = %v, want complete", o.Status())
	}
	if o.Report() != report {
		t.Error("Report() should return the committed report")
	}
}

func TestQuotaIncrementsOnceRegardlessOfSecondaryOrder(t *testing.T) {
	// Vary which secondary resolves last; the count must always move by
	// exactly one per cycle.
	for _, delay := range []time.Duration{0, 5 * time.Millisecond, 20 * time.Millisecond} {
		gw := &fakeGateway{forecastDelay: delay}
		o, gate := newTestOrchestrator(gw, quota.State{}, 10)

		if _, err := o.Analyze(context.Background(), "AAPL"); err != nil {
			t.Fatalf("Analyze returned error: %v", err)
		}
		if got := gate.State().Count; got != 1 {
			t.Errorf("forecastDelay=%v: count = %d, want exactly 1", delay, got)
		}
	}
}

func TestSubscriberNeverCharged(t *testing.T) {
	gw := &fakeGateway{}
	o, gate := newTestOrchestrator(gw, quota.State{Count: 2, Subscribed: true}, 3)

	if _, err := o.Analyze(context.Background(), "TSLA"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if got := gate.State().Count; got != 2 {
		t.Errorf("subscriber count = %d, want unchanged 2", got)
	}
}

func TestPrimaryFailureDifferentTickerClearsReport(t *testing.T) {
	gw := &fakeGateway{}
	o, gate := newTestOrchestrator(gw, quota.State{}, 10)

	if _, err := o.Analyze(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first Analyze returned error: %v", err)
	}
	countAfterSuccess := gate.State().Count

	gw.primaryErr = errors.New("model refused")
	_, err := o.Analyze(context.Background(), "MSFT")

	var dataErr *DataUnavailableError
	if !errors.As(err, &dataErr) {
		t.Fatalf("Analyze error = %v, want DataUnavailableError", err)
	}
	if dataErr.Ticker != "MSFT" {
		t.Errorf("error ticker = %q, want MSFT", dataErr.Ticker)
	}
	if o.Report() != nil {
		t.Error("report for a different ticker should be cleared on failure")
	}
	if got := gate.State().Count; got != countAfterSuccess {
		t.Errorf("count after failed cycle = %d, want unchanged %d", got, countAfterSuccess)
	}
	if o.Status() != StatusFailed {
		t.Errorf("status = %v, want failed", o.Status())
	}
}

func TestPrimaryFailureSameTickerRetainsReport(t *testing.T) {
	gw := &fakeGateway{}
	o, gate := newTestOrchestrator(gw, quota.State{}, 10)

	if _, err := o.Analyze(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first Analyze returned error: %v", err)
	}
	countAfterSuccess := gate.State().Count

	gw.primaryErr = errors.New("model refused")
	if _, err := o.Analyze(context.Background(), "AAPL"); err == nil {
		t.Fatal("retry Analyze should fail")
	}

	if r := o.Report(); r == nil || r.Ticker != "AAPL" {
		t.Errorf("same-ticker retry should retain the previous report, got %+v", r)
	}
	if got := gate.State().Count; got != countAfterSuccess {
		t.Errorf("count after failed retry = %d, want unchanged %d", got, countAfterSuccess)
	}
}

func TestSecondaryFailureDegradesField(t *testing.T) {
	gw := &fakeGateway{newsErr: errors.New("search grounding unavailable")}
	o, gate := newTestOrchestrator(gw, quota.State{}, 10)

	report, err := o.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze should complete despite a secondary failure: %v", err)
	}

	if len(report.News) != 0 {
		t.Errorf("failed news should degrade to empty, got %d articles", len(report.News))
	}
	if report.News == nil {
		t.Error("degraded news should be empty, not nil")
	}
	if len(report.Forecasts) != 2 || report.Narrative == "" {
		t.Error("sibling results must survive another sibling's failure")
	}
	if got := gate.State().Count; got != 1 {
		t.Errorf("degraded cycle is still billable: count = %d, want 1", got)
	}
}

func TestSiblingsJoinedNotCancelled(t *testing.T) {
	// The narrative fails instantly; the slow forecast must still be
	// collected before the cycle completes.
	gw := &fakeGateway{
		narrativeErr:  errors.New("boom"),
		forecastDelay: 30 * time.Millisecond,
	}
	o, _ := newTestOrchestrator(gw, quota.State{}, 10)

	report, err := o.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(report.Forecasts) != 2 || len(report.Forecasts[0].Points) == 0 {
		t.Error("slow forecast result was lost after sibling failure")
	}
	if report.Narrative != "" {
		t.Errorf("failed narrative should degrade to empty, got %q", report.Narrative)
	}
}

func TestSupersededCycleDiscarded(t *testing.T) {
	gw := &fakeGateway{blockFirst: make(chan struct{})}
	o, gate := newTestOrchestrator(gw, quota.State{}, 10)

	type result struct {
		report *domain.StockReport
		err    error
	}
	firstDone := make(chan result, 1)
	go func() {
		r, err := o.Analyze(context.Background(), "AAPL")
		firstDone <- result{r, err}
	}()

	// Second submission wins while the first is stuck in its primary fetch.
	// Poll until the first call is registered so the sequence order is fixed.
	for {
		gw.mu.Lock()
		started := gw.primaryCalls >= 1
		gw.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	second, err := o.Analyze(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("second Analyze returned error: %v", err)
	}

	close(gw.blockFirst)
	first := <-firstDone
	if !errors.Is(first.err, ErrSuperseded) {
		t.Fatalf("first Analyze error = %v, want ErrSuperseded", first.err)
	}

	if r := o.Report(); r == nil || r.Ticker != second.Ticker {
		t.Errorf("retained report = %+v, want the newer %s cycle", r, second.Ticker)
	}
	if got := gate.State().Count; got != 1 {
		t.Errorf("count = %d, want 1 (superseded cycle must not bill)", got)
	}
}

func TestEmptyHistorySkipsForecastCall(t *testing.T) {
	gw := &fakeGateway{}
	o, _ := newTestOrchestrator(gw, quota.State{}, 10)

	forecasts, _, _ := o.fetchSecondary(context.Background(), "AAPL", nil)

	if gw.forecastCalls != 0 {
		t.Errorf("forecast collaborator called %d times with empty history, want 0", gw.forecastCalls)
	}
	if len(forecasts) != 2 || len(forecasts[0].Points) != 0 || len(forecasts[1].Points) != 0 {
		t.Errorf("empty history should yield empty named series, got %+v", forecasts)
	}
}

func TestEmptyTickerRejected(t *testing.T) {
	gw := &fakeGateway{}
	o, _ := newTestOrchestrator(gw, quota.State{}, 10)

	if _, err := o.Analyze(context.Background(), "   "); !errors.Is(err, ErrEmptyTicker) {
		t.Errorf("Analyze(blank) error = %v, want ErrEmptyTicker", err)
	}
	if gw.primaryCalls != 0 {
		t.Error("blank ticker must not reach the gateway")
	}
}
