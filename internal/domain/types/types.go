// Package types contains common read shapes used across the application
package types

import (
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// FactorView is the JSON shape of one scoring factor.
type FactorView struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// AccountScore is the current-state view of an account, derived from its
// latest snapshot.
type AccountScore struct {
	AccountID    string       `json:"account_id"`
	Score        int          `json:"score"`
	Tier         string       `json:"tier"`
	Trend        string       `json:"trend"`
	SignalCount  int          `json:"signal_count"`
	UserCount    int          `json:"user_count"`
	LastSignalAt *time.Time   `json:"last_signal_at,omitempty"`
	Factors      []FactorView `json:"factors"`
	CapturedAt   time.Time    `json:"captured_at"`
}

// SnapshotEntry is one history point returned by the score-history query.
type SnapshotEntry struct {
	Score      int       `json:"score"`
	Tier       string    `json:"tier"`
	Trend      string    `json:"trend"`
	CapturedAt time.Time `json:"captured_at"`
}

// FromSnapshot converts a domain snapshot into the API read shape.
func FromSnapshot(s model.ScoreSnapshot) AccountScore {
	views := make([]FactorView, len(s.Factors))
	for i, f := range s.Factors {
		views[i] = FactorView{Name: string(f.Name), Value: f.Value, Weight: f.Weight}
	}
	out := AccountScore{
		AccountID:   s.AccountID,
		Score:       s.Score,
		Tier:        string(s.Tier),
		Trend:       string(s.Trend),
		SignalCount: s.SignalCount,
		UserCount:   s.UserCount,
		Factors:     views,
		CapturedAt:  s.CapturedAt,
	}
	if !s.LastSignalAt.IsZero() {
		ts := s.LastSignalAt
		out.LastSignalAt = &ts
	}
	return out
}

// HistoryFromSnapshots converts an ordered snapshot sequence into history entries.
func HistoryFromSnapshots(snaps []model.ScoreSnapshot) []SnapshotEntry {
	entries := make([]SnapshotEntry, len(snaps))
	for i, s := range snaps {
		entries[i] = SnapshotEntry{
			Score:      s.Score,
			Tier:       string(s.Tier),
			Trend:      string(s.Trend),
			CapturedAt: s.CapturedAt,
		}
	}
	return entries
}
