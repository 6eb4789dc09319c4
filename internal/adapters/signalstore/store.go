// Package signalstore keeps per-account signal history for the scoring window.
//
// The store is the engine-side boundary to the external signal feed: signals
// are immutable once appended and the engine only reads windowed slices and
// lifetime counters from it.
package signalstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Stats carries the lifetime counters the velocity baseline needs.
type Stats struct {
	FirstSignalAt time.Time
	LastSignalAt  time.Time
	LifetimeCount int
}

// Store provides read/write access to signal history.
type Store interface {
	// Append records an immutable signal. Signals may arrive out of order;
	// a signal id that was already stored is silently skipped.
	Append(ctx context.Context, s model.Signal) error

	// Window returns the account's signals within [from, to], ascending by TS.
	// An unknown account yields an empty slice, not an error.
	Window(ctx context.Context, accountID string, from, to time.Time) ([]model.Signal, error)

	// AccountStats returns lifetime counters for the account. An account that
	// has never signaled yields zero-value Stats.
	AccountStats(ctx context.Context, accountID string) (Stats, error)

	// Count returns the number of accounts with at least one signal.
	Count(ctx context.Context) int
}

// accountHistory holds one account's signals in arrival order plus counters.
type accountHistory struct {
	signals []model.Signal
	sorted  bool // true while signals are known to be ascending by TS
	stats   Stats
}

// InMemoryStore implements Store with a per-account signal log.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*accountHistory
	seen     map[string]struct{}
}

// NewInMemoryStore creates an empty in-memory signal store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[string]*accountHistory),
		seen:     make(map[string]struct{}),
	}
}

// Append records an immutable signal.
func (s *InMemoryStore) Append(_ context.Context, sig model.Signal) error {
	if sig.AccountID == "" {
		return fmt.Errorf("%w: empty account id", ErrInvalidSignal)
	}
	if sig.TS.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidSignal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replays of an already stored signal are no-ops, so an ingest retry
	// after a rolled-back enqueue cannot double-count the signal.
	if sig.SignalID != "" {
		if _, dup := s.seen[sig.SignalID]; dup {
			return nil
		}
		s.seen[sig.SignalID] = struct{}{}
	}

	h, ok := s.accounts[sig.AccountID]
	if !ok {
		h = &accountHistory{sorted: true}
		s.accounts[sig.AccountID] = h
	}

	if n := len(h.signals); n > 0 && sig.TS.Before(h.signals[n-1].TS) {
		h.sorted = false
	}
	h.signals = append(h.signals, sig)

	h.stats.LifetimeCount++
	if h.stats.FirstSignalAt.IsZero() || sig.TS.Before(h.stats.FirstSignalAt) {
		h.stats.FirstSignalAt = sig.TS
	}
	if sig.TS.After(h.stats.LastSignalAt) {
		h.stats.LastSignalAt = sig.TS
	}
	return nil
}

// Window returns the account's signals within [from, to], ascending by TS.
func (s *InMemoryStore) Window(_ context.Context, accountID string, from, to time.Time) ([]model.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.accounts[accountID]
	if !ok {
		return nil, nil
	}

	if !h.sorted {
		sort.SliceStable(h.signals, func(i, j int) bool {
			return h.signals[i].TS.Before(h.signals[j].TS)
		})
		h.sorted = true
	}

	// Ascending order lets both bounds resolve via binary search.
	lo := sort.Search(len(h.signals), func(i int) bool {
		return !h.signals[i].TS.Before(from)
	})
	hi := sort.Search(len(h.signals), func(i int) bool {
		return h.signals[i].TS.After(to)
	})
	if lo >= hi {
		return nil, nil
	}

	out := make([]model.Signal, hi-lo)
	copy(out, h.signals[lo:hi])
	return out, nil
}

// AccountStats returns lifetime counters for the account.
func (s *InMemoryStore) AccountStats(_ context.Context, accountID string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.accounts[accountID]
	if !ok {
		return Stats{}, nil
	}
	return h.stats, nil
}

// Count returns the number of accounts with at least one signal.
func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
