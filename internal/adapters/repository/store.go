// Package repository defines the snapshot store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Store provides append-only access to score history plus ranked reads.
//
// Append is the only write in the normal path; Prune is the single sanctioned
// delete, used for retention only. Range results are always ascending by
// CapturedAt and appends are atomic per record, so concurrent readers never
// observe a half-written snapshot.
type Store interface {
	// Append records a completed scoring pass. It fails with ErrStaleSnapshot
	// when the snapshot does not advance the account's history, which is how
	// a superseded pass is detected and discarded.
	Append(ctx context.Context, snap model.ScoreSnapshot) error

	// Latest returns the account's most recent snapshot.
	// Returns ErrAccountNotFound if the account has no snapshots.
	Latest(ctx context.Context, accountID string) (model.ScoreSnapshot, error)

	// Recent returns up to n of the account's most recent snapshots,
	// ascending by CapturedAt. An unknown account yields an empty slice.
	Recent(ctx context.Context, accountID string, n int) ([]model.ScoreSnapshot, error)

	// Range returns the account's snapshots within [from, to], ascending by
	// CapturedAt. Returns ErrAccountNotFound if the account has no snapshots.
	Range(ctx context.Context, accountID string, from, to time.Time) ([]model.ScoreSnapshot, error)

	// TopN returns up to n latest-snapshots ordered by score descending,
	// ties broken by most recent CapturedAt, then account id ascending.
	// An empty tierFilter includes all tiers.
	TopN(ctx context.Context, n int, tierFilter model.Tier) ([]model.ScoreSnapshot, error)

	// Count returns the number of accounts with at least one snapshot.
	Count(ctx context.Context) int

	// StaleAccounts returns ids of accounts whose latest snapshot was
	// captured before cutoff.
	StaleAccounts(ctx context.Context, cutoff time.Time) []string

	// Prune drops snapshots captured before horizon, always keeping at least
	// the latest snapshot per account. Returns the number of records dropped.
	Prune(ctx context.Context, horizon time.Time) int
}
