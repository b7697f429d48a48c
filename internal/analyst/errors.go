package analyst

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by Analyze. Everything an AI call can throw is
// converted into one of these at the orchestrator boundary; no raw
// collaborator error reaches the rendering layer.
var (
	// ErrEmptyTicker rejects blank submissions before admission.
	ErrEmptyTicker = errors.New("ticker must not be empty")

	// ErrQuotaExceeded means admission was denied. Not a network failure:
	// no request was issued, and the UI should offer an upgrade instead of
	// an error banner.
	ErrQuotaExceeded = errors.New("free analysis quota exceeded")

	// ErrSuperseded means a newer submission started while this cycle was
	// in flight; its result was discarded, not committed.
	ErrSuperseded = errors.New("analysis superseded by a newer request")
)

// DataUnavailableError means the primary fetch produced no usable history
// for the ticker. Recoverable by an explicit retry of the same ticker.
type DataUnavailableError struct {
	Ticker string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no analysis data available for %s: %v", e.Ticker, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
