package worker

import "sync"

// gateEntry tracks one account's in-flight pass.
type gateEntry struct {
	pendingRerun bool
	done         chan struct{}
}

// Gate serializes scoring passes per account. An account is either idle,
// computing, or computing with a rerun owed; at most one pass is ever in
// flight for a given account, and any number of triggers arriving during a
// pass collapse into exactly one follow-up.
type Gate struct {
	mu      sync.Mutex
	entries map[string]*gateEntry
}

// NewGate creates an empty gate.
func NewGate() *Gate {
	return &Gate{
		entries: make(map[string]*gateEntry),
	}
}

// Acquire claims the account for a pass. It returns true when the caller now
// owns the pass. When a pass is already in flight it returns false and records
// that the owner owes a rerun once it finishes.
func (g *Gate) Acquire(accountID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, busy := g.entries[accountID]; busy {
		e.pendingRerun = true
		return false
	}
	g.entries[accountID] = &gateEntry{done: make(chan struct{})}
	return true
}

// Release ends the account's pass and reports whether a rerun was requested
// while it ran. Waiters blocked in Wait are unblocked.
func (g *Gate) Release(accountID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[accountID]
	if !ok {
		return false
	}
	delete(g.entries, accountID)
	close(e.done)
	return e.pendingRerun
}

// Wait returns a channel that is closed when the account's current pass
// finishes. For an idle account the channel is already closed.
func (g *Gate) Wait(accountID string) <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, busy := g.entries[accountID]; busy {
		return e.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// InFlight reports the number of accounts with a pass currently running.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
