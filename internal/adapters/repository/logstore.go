// Package repository defines the snapshot store interface and errors.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Default log store configuration constants.
const (
	defaultTreapSeed = 1
)

// LogStore implements Store as an in-memory append-only snapshot log per
// account, with a treap over each account's latest score for ranked reads.
//
// The per-account slice is strictly ascending by CapturedAt; Append enforces
// this, which is what makes the history auditable and the "latest" read a
// single slice lookup.
type LogStore struct {
	mu     sync.RWMutex
	logs   map[string][]model.ScoreSnapshot
	latest map[string]rankKey // latest treap key per account, for re-ranking
	rank   *rankTree

	treapSeed int64
}

// NewLogStore constructs a log store with configuration options.
func NewLogStore(opts ...Option) *LogStore {
	s := &LogStore{
		logs:      make(map[string][]model.ScoreSnapshot),
		latest:    make(map[string]rankKey),
		treapSeed: defaultTreapSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rank = newRankTree(s.treapSeed)
	return s
}

// Append records a completed scoring pass.
func (s *LogStore) Append(_ context.Context, snap model.ScoreSnapshot) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	if snap.AccountID == "" {
		return fmt.Errorf("%w: empty account id", ErrInvalidSnapshot)
	}
	if snap.CapturedAt.IsZero() {
		return fmt.Errorf("%w: zero capture time", ErrInvalidSnapshot)
	}

	// Copy the factor slice so later caller mutation cannot reach the log.
	stored := snap
	stored.Factors = append([]model.Factor(nil), snap.Factors...)

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[snap.AccountID]
	if n := len(log); n > 0 && !snap.CapturedAt.After(log[n-1].CapturedAt) {
		metrics.RecordPassSuperseded()
		return fmt.Errorf("%w: account %s already has a snapshot at or after %s",
			ErrStaleSnapshot, snap.AccountID, snap.CapturedAt.Format(time.RFC3339Nano))
	}
	s.logs[snap.AccountID] = append(log, stored)

	key := rankKey{
		score:      stored.Score,
		capturedAt: stored.CapturedAt.UnixNano(),
		accountID:  stored.AccountID,
	}
	if old, ok := s.latest[stored.AccountID]; ok {
		s.rank.remove(old)
	}
	s.rank.insert(key)
	s.latest[stored.AccountID] = key

	metrics.RecordSnapshotAppended()
	metrics.UpdateAccountsTotal(len(s.logs))
	return nil
}

// Latest returns the account's most recent snapshot.
func (s *LogStore) Latest(_ context.Context, accountID string) (model.ScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[accountID]
	if !ok || len(log) == 0 {
		return model.ScoreSnapshot{}, ErrAccountNotFound
	}
	return copySnapshot(log[len(log)-1]), nil
}

// Recent returns up to n of the account's most recent snapshots, ascending.
func (s *LogStore) Recent(_ context.Context, accountID string, n int) ([]model.ScoreSnapshot, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[accountID]
	if len(log) > n {
		log = log[len(log)-n:]
	}
	return copySnapshots(log), nil
}

// Range returns the account's snapshots within [from, to], ascending.
func (s *LogStore) Range(_ context.Context, accountID string, from, to time.Time) ([]model.ScoreSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	// The log is ascending by CapturedAt, so both bounds binary-search.
	lo := sort.Search(len(log), func(i int) bool {
		return !log[i].CapturedAt.Before(from)
	})
	hi := sort.Search(len(log), func(i int) bool {
		return log[i].CapturedAt.After(to)
	})
	if lo >= hi {
		return nil, nil
	}
	return copySnapshots(log[lo:hi]), nil
}

// TopN returns up to n accounts' latest snapshots in rank order.
func (s *LogStore) TopN(_ context.Context, n int, tierFilter model.Tier) ([]model.ScoreSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoreSnapshot, 0, n)
	s.rank.walk(func(key rankKey) bool {
		log := s.logs[key.accountID]
		snap := log[len(log)-1]
		if tierFilter != "" && snap.Tier != tierFilter {
			return true
		}
		out = append(out, copySnapshot(snap))
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of accounts with at least one snapshot.
func (s *LogStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// StaleAccounts returns accounts whose latest snapshot predates cutoff.
func (s *LogStore) StaleAccounts(_ context.Context, cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for accountID, log := range s.logs {
		if log[len(log)-1].CapturedAt.Before(cutoff) {
			out = append(out, accountID)
		}
	}
	sort.Strings(out)
	return out
}

// Prune drops snapshots captured before horizon, keeping the latest per account.
func (s *LogStore) Prune(_ context.Context, horizon time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for accountID, log := range s.logs {
		keepFrom := 0
		// Never prune the final record; it is the account's current score.
		for keepFrom < len(log)-1 && log[keepFrom].CapturedAt.Before(horizon) {
			keepFrom++
		}
		if keepFrom == 0 {
			continue
		}
		dropped += keepFrom
		s.logs[accountID] = append([]model.ScoreSnapshot(nil), log[keepFrom:]...)
	}

	if dropped > 0 {
		metrics.RecordSnapshotsPruned(dropped)
	}
	return dropped
}

func copySnapshot(snap model.ScoreSnapshot) model.ScoreSnapshot {
	out := snap
	out.Factors = append([]model.Factor(nil), snap.Factors...)
	return out
}

func copySnapshots(log []model.ScoreSnapshot) []model.ScoreSnapshot {
	out := make([]model.ScoreSnapshot, len(log))
	for i, snap := range log {
		out[i] = copySnapshot(snap)
	}
	return out
}
