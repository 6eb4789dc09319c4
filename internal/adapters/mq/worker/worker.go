// Package worker runs the recomputation coordinator: a pool of workers that
// drain the trigger queue and drive scoring passes, with per-account
// serialization and coalescing handled by a shared Gate.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/mq/queue"
	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/engine"
	"github.com/signalhouse/pqascore/pkg/logger"
	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultPassTimeout      = 30 * time.Second
	defaultRetryLimit       = 3
	defaultRetryBaseDelay   = 200 * time.Millisecond
	workerShutdownTimeout   = 5 * time.Second
)

// Recomputer runs one scoring pass for an account.
type Recomputer interface {
	Recompute(ctx context.Context, accountID string) (model.ScoreSnapshot, error)
}

// SnapshotReader reads an account's current snapshot; used by the synchronous
// compute path when it piggybacks on an in-flight pass.
type SnapshotReader interface {
	Latest(ctx context.Context, accountID string) (model.ScoreSnapshot, error)
}

// Queue defines how workers receive triggers and requeue coalesced reruns.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Trigger
	Enqueue(ctx context.Context, t queue.Trigger) bool
}

// Worker drains triggers off the queue and runs passes through the shared
// gate.
type Worker struct {
	name   string
	queue  Queue
	engine Recomputer
	gate   *Gate

	passTimeout    time.Duration
	retryLimit     int
	retryBaseDelay time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight trigger to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles a single trigger. If another worker already has a pass in
// flight for the account, the trigger collapses into that pass's rerun.
func (w *Worker) process(ctx context.Context, t queue.Trigger) {
	if !w.gate.Acquire(t.AccountID) {
		metrics.RecordTriggerCoalesced()
		return
	}
	defer func() {
		if rerun := w.gate.Release(t.AccountID); rerun {
			if !w.queue.Enqueue(ctx, queue.Trigger{AccountID: t.AccountID, Reason: queue.ReasonRerun}) {
				w.logger.Warn(ctx, "failed to requeue rerun trigger",
					logger.String("accountID", t.AccountID),
				)
			}
		}
	}()

	w.runPass(ctx, t)
}

// runPass executes the scoring pass for a trigger, retrying transient
// failures with exponential backoff. A failed pass leaves the account's prior
// snapshot current.
func (w *Worker) runPass(ctx context.Context, t queue.Trigger) {
	for attempt := 0; ; attempt++ {
		passCtx, cancel := context.WithTimeout(ctx, w.passTimeout)
		_, err := w.engine.Recompute(passCtx, t.AccountID)
		timedOut := errors.Is(passCtx.Err(), context.DeadlineExceeded)
		cancel()

		switch {
		case err == nil:
			return

		case errors.Is(err, engine.ErrSuperseded):
			// A fresher pass already committed; this result is moot.
			w.logger.Debug(ctx, "pass superseded",
				logger.String("accountID", t.AccountID),
				logger.String("reason", string(t.Reason)),
			)
			return

		case timedOut || errors.Is(err, context.DeadlineExceeded):
			metrics.RecordPassTimedOut()
			metrics.RecordErrorByComponent("worker", "pass_timeout")
			w.logger.Warn(ctx, "pass timed out",
				logger.String("accountID", t.AccountID),
				logger.Duration("timeout", w.passTimeout),
			)
			return

		case engine.IsRetryable(err) && attempt < w.retryLimit:
			metrics.RecordPassRetried()
			delay := w.retryBaseDelay << attempt
			w.logger.Warn(ctx, "pass failed, retrying",
				logger.String("accountID", t.AccountID),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff", delay),
				logger.Error(err),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}

		default:
			metrics.RecordPassFailed()
			metrics.RecordErrorByComponent("worker", "pass_failed")
			if engine.IsRetryable(err) {
				// Retries exhausted. The account keeps its prior snapshot
				// until the next trigger or the stale sweep picks it up.
				metrics.RecordAccountMarkedStale()
				w.logger.Error(ctx, "retries exhausted, account left stale",
					logger.String("accountID", t.AccountID),
					logger.Int("attempts", attempt+1),
					logger.Error(err),
				)
			} else {
				w.logger.Error(ctx, "pass failed",
					logger.String("accountID", t.AccountID),
					logger.Error(err),
				)
			}
			return
		}
	}
}

// Pool manages the workers and the shared per-account gate.
type Pool struct {
	workers   []*Worker
	queue     Queue
	engine    Recomputer
	snapshots SnapshotReader
	gate      *Gate

	passTimeout    time.Duration
	retryLimit     int
	retryBaseDelay time.Duration

	logger logger.Logger
}

// NewPool creates a worker pool. A workerCount below one defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, q Queue, r Recomputer, snapshots SnapshotReader, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:        make([]*Worker, workerCount),
		queue:          q,
		engine:         r,
		snapshots:      snapshots,
		gate:           NewGate(),
		passTimeout:    defaultPassTimeout,
		retryLimit:     defaultRetryLimit,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = &Worker{
			name:           "worker-" + strconv.Itoa(i),
			queue:          q,
			engine:         r,
			gate:           p.gate,
			passTimeout:    p.passTimeout,
			retryLimit:     p.retryLimit,
			retryBaseDelay: p.retryBaseDelay,
			shutdown:       make(chan struct{}),
			done:           make(chan struct{}),
			logger:         p.logger.Named("worker-" + strconv.Itoa(i)),
		}
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// ComputeNow runs a synchronous pass for the account, sharing the per-account
// gate with the queue workers. If a pass is already in flight it waits for
// that pass (which now owes a rerun) and returns the snapshot it produced.
func (p *Pool) ComputeNow(ctx context.Context, accountID string) (model.ScoreSnapshot, error) {
	if !p.gate.Acquire(accountID) {
		metrics.RecordTriggerCoalesced()
		select {
		case <-p.gate.Wait(accountID):
		case <-ctx.Done():
			return model.ScoreSnapshot{}, ctx.Err()
		}
		return p.snapshots.Latest(ctx, accountID)
	}
	defer func() {
		if rerun := p.gate.Release(accountID); rerun {
			p.queue.Enqueue(ctx, queue.Trigger{AccountID: accountID, Reason: queue.ReasonRerun})
		}
	}()

	passCtx, cancel := context.WithTimeout(ctx, p.passTimeout)
	defer cancel()

	snap, err := p.engine.Recompute(passCtx, accountID)
	if err != nil {
		if errors.Is(err, engine.ErrSuperseded) {
			return p.snapshots.Latest(ctx, accountID)
		}
		metrics.RecordPassFailed()
		return model.ScoreSnapshot{}, err
	}
	return snap, nil
}

// Stop gracefully stops all workers, letting in-flight passes finish.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker stop timed out",
				logger.String("worker", w.name),
			)
		}
	}
}

// Shutdown closes the queue and stops all workers, honoring ctx's deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, w := range p.workers {
		close(w.shutdown)
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("pool shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
