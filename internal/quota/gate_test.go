package quota

import "testing"

func TestAllowed(t *testing.T) {
	tests := []struct {
		name  string
		state State
		quota int
		want  bool
	}{
		{"fresh account", State{Count: 0}, 3, true},
		{"under quota", State{Count: 2}, 3, true},
		{"at quota", State{Count: 3}, 3, false},
		{"over quota", State{Count: 5}, 3, false},
		{"subscriber at quota", State{Count: 3, Subscribed: true}, 3, true},
		{"subscriber far over quota", State{Count: 100, Subscribed: true}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.state, tt.quota); got != tt.want {
				t.Errorf("Allowed(%+v, %d) = %v, want %v", tt.state, tt.quota, got, tt.want)
			}
		})
	}
}

func TestGateDeniesUntilSubscribe(t *testing.T) {
	g := NewGate(3, State{Count: 3})

	if g.Admit() {
		t.Fatal("Admit should deny a free account at quota")
	}
	// Denied state is stable: repeated admission checks never free it up.
	if g.Admit() {
		t.Fatal("Admit should keep denying at quota")
	}

	g.Subscribe()

	if !g.Admit() {
		t.Fatal("Admit should allow after Subscribe")
	}
	s := g.State()
	if !s.Subscribed || s.Count != 0 {
		t.Errorf("state after Subscribe = %+v, want {Count:0 Subscribed:true}", s)
	}
}

func TestRecordSuccess(t *testing.T) {
	g := NewGate(3, State{Count: 1})
	g.RecordSuccess()
	if got := g.State().Count; got != 2 {
		t.Errorf("Count after RecordSuccess = %d, want 2", got)
	}

	sub := NewGate(3, State{Count: 1, Subscribed: true})
	sub.RecordSuccess()
	if got := sub.State().Count; got != 1 {
		t.Errorf("subscriber Count after RecordSuccess = %d, want unchanged 1", got)
	}
}

func TestSubscribeResetsAnyPriorState(t *testing.T) {
	for _, initial := range []State{{}, {Count: 7}, {Count: 2, Subscribed: true}} {
		g := NewGate(3, initial)
		g.Subscribe()
		s := g.State()
		if !s.Subscribed || s.Count != 0 {
			t.Errorf("Subscribe from %+v yielded %+v, want {Count:0 Subscribed:true}", initial, s)
		}
	}
}

func TestRefreshNeverRollsBack(t *testing.T) {
	g := NewGate(3, State{})
	for i := 0; i < 3; i++ {
		g.RecordSuccess()
	}
	if g.Admit() {
		t.Fatal("Admit should deny at quota")
	}

	// A snapshot read before those successes committed still says 0.
	g.Refresh(State{Count: 0})

	if got := g.State().Count; got != 3 {
		t.Errorf("Count after stale Refresh = %d, want 3", got)
	}
	if g.Admit() {
		t.Error("stale Refresh re-admitted spent quota")
	}
}

func TestRefreshAdoptsHigherCount(t *testing.T) {
	g := NewGate(3, State{Count: 1})
	g.Refresh(State{Count: 2})
	if got := g.State().Count; got != 2 {
		t.Errorf("Count after Refresh = %d, want 2", got)
	}
}

func TestRefreshAppliesSubscription(t *testing.T) {
	g := NewGate(3, State{Count: 3})
	g.Refresh(State{Subscribed: true})
	if !g.Admit() {
		t.Error("Refresh with a subscribed snapshot should admit")
	}

	// The reverse never applies: an in-memory subscription outlives a
	// stale unsubscribed snapshot.
	g2 := NewGate(3, State{Subscribed: true})
	g2.Refresh(State{Count: 5})
	if s := g2.State(); !s.Subscribed {
		t.Errorf("stale unsubscribed snapshot cleared the subscription: %+v", s)
	}
}

func TestSet(t *testing.T) {
	g := NewGate(3, State{})
	g.Set(State{Count: 2, Subscribed: false})
	if s := g.State(); s.Count != 2 || s.Subscribed {
		t.Errorf("State after Set = %+v, want {Count:2 Subscribed:false}", s)
	}
}
