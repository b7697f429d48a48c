// Package quota implements the usage gate that bounds free analyses per
// account. The gate is consulted before any AI request is issued, and it is
// the sole writer of usage state.
package quota

import "sync"

// State is the usage counter for one account: how many free analyses have
// been consumed, and whether the account holds an active subscription.
type State struct {
	Count      int
	Subscribed bool
}

// Allowed reports whether an account in the given state may start another
// analysis under the given quota. Pure decision function: subscribers are
// always admitted, free accounts only while Count < quota.
func Allowed(s State, quota int) bool {
	return s.Subscribed || s.Count < quota
}

// Gate tracks usage state for one account and serializes access across
// request goroutines. Count only moves forward; nothing decrements it
// except Subscribe, which resets it with the new subscription.
type Gate struct {
	quota int

	mu    sync.Mutex
	state State
}

// NewGate creates a Gate with the given free-analysis quota and starting
// state (typically mirrored from the stored profile).
func NewGate(quota int, initial State) *Gate {
	return &Gate{quota: quota, state: initial}
}

// Admit reports whether an analysis cycle may proceed. It never mutates
// state; consumption is recorded only by RecordSuccess after a fully
// successful cycle.
func (g *Gate) Admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Allowed(g.state, g.quota)
}

// RecordSuccess consumes one free analysis. Subscribed accounts are never
// charged. Called exactly once per successful cycle, never per attempt.
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.state.Subscribed {
		g.state.Count++
	}
}

// Subscribe marks the account subscribed and resets the counter.
func (g *Gate) Subscribe() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Subscribed = true
	g.state.Count = 0
}

// Set replaces the state with a server-confirmed snapshot, e.g. after the
// stored profile has been updated.
func (g *Gate) Set(s State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = s
}

// Refresh merges a stored snapshot without ever rolling the counter
// backward. Stored profiles are read before in-flight cycles commit, so a
// snapshot can lag the in-memory count; only Subscribe resets the counter,
// so a lower stored count is always stale, never authoritative.
func (g *Gate) Refresh(s State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.Subscribed {
		g.state = s
		return
	}
	if g.state.Subscribed {
		// The subscription was activated in memory; the snapshot predates it.
		return
	}
	if s.Count > g.state.Count {
		g.state.Count = s.Count
	}
}

// State returns a copy of the current usage state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Quota returns the configured free-analysis limit.
func (g *Gate) Quota() int {
	return g.quota
}
