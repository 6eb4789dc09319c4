package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/mq/queue"
	"github.com/signalhouse/pqascore/pkg/logger"
)

// StaleScanner lists accounts whose latest snapshot predates a cutoff.
type StaleScanner interface {
	StaleAccounts(ctx context.Context, cutoff time.Time) []string
}

// TriggerSink accepts recompute triggers.
type TriggerSink interface {
	Enqueue(ctx context.Context, t queue.Trigger) bool
}

// StaleSweepJob re-enqueues accounts whose score has not been refreshed
// within maxAge, so decay-driven factors keep moving without new signals.
type StaleSweepJob struct {
	snapshots StaleScanner
	triggers  TriggerSink
	maxAge    time.Duration
	spec      string
	logger    logger.Logger
}

// NewStaleSweepJob creates the sweep job with its cron spec.
func NewStaleSweepJob(snapshots StaleScanner, triggers TriggerSink, maxAge time.Duration, spec string) *StaleSweepJob {
	return &StaleSweepJob{
		snapshots: snapshots,
		triggers:  triggers,
		maxAge:    maxAge,
		spec:      spec,
		logger:    logger.Get().Named("stale-sweep"),
	}
}

func (j *StaleSweepJob) Name() string     { return "stale-sweep" }
func (j *StaleSweepJob) Schedule() string { return j.spec }

// Run enqueues one sweep trigger per stale account.
func (j *StaleSweepJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge)
	stale := j.snapshots.StaleAccounts(ctx, cutoff)

	var dropped int
	for _, accountID := range stale {
		if !j.triggers.Enqueue(ctx, queue.Trigger{AccountID: accountID, Reason: queue.ReasonSweep}) {
			dropped++
		}
	}

	j.logger.Info(ctx, "stale sweep finished",
		logger.Int("staleAccounts", len(stale)),
		logger.Int("dropped", dropped),
	)
	if dropped > 0 {
		return fmt.Errorf("sweep could not enqueue %d of %d stale accounts", dropped, len(stale))
	}
	return nil
}

// Pruner drops snapshots older than a horizon.
type Pruner interface {
	Prune(ctx context.Context, horizon time.Time) int
}

// RetentionJob enforces the snapshot retention horizon. The store always
// keeps each account's latest snapshot, so pruning never erases an account.
type RetentionJob struct {
	snapshots Pruner
	retention time.Duration
	spec      string
	logger    logger.Logger
}

// NewRetentionJob creates the retention job with its cron spec.
func NewRetentionJob(snapshots Pruner, retention time.Duration, spec string) *RetentionJob {
	return &RetentionJob{
		snapshots: snapshots,
		retention: retention,
		spec:      spec,
		logger:    logger.Get().Named("retention"),
	}
}

func (j *RetentionJob) Name() string     { return "retention" }
func (j *RetentionJob) Schedule() string { return j.spec }

// Run prunes snapshots past the retention horizon.
func (j *RetentionJob) Run(ctx context.Context) error {
	horizon := time.Now().Add(-j.retention)
	pruned := j.snapshots.Prune(ctx, horizon)
	j.logger.Info(ctx, "retention pruning finished", logger.Int("pruned", pruned))
	return nil
}
