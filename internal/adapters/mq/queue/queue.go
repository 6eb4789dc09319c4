// Package queue defines the contract for enqueuing and consuming recompute
// triggers.
//
// Triggers are coalesced per account while queued: a second trigger for an
// account that already has one waiting adds no work, because the eventual
// pass reads the newest data anyway.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 50_000
)

// Reason records what prompted a recompute trigger.
type Reason string

// Trigger reasons.
const (
	ReasonSignal Reason = "signal" // new signal arrived
	ReasonManual Reason = "manual" // explicit compute request
	ReasonSweep  Reason = "sweep"  // scheduled stale-score sweep
	ReasonRerun  Reason = "rerun"  // follow-up after a coalesced in-flight pass
)

// Trigger asks for one recomputation of an account's score.
type Trigger struct {
	AccountID  string
	Reason     Reason
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger, coalescing with any queued trigger for the same
	// account. Returns false if the queue is full and the trigger was dropped.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns a channel that receives triggers as they become
	// available. The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the current number of queued triggers.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new triggers
	// can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel plus a pending-set
// for per-account coalescing.
type InMemoryQueue struct {
	triggers chan Trigger
	capacity int

	mu      sync.Mutex
	pending map[string]struct{} // accounts with a trigger currently queued
	closed  bool
}

// NewInMemoryQueue creates a new in-memory trigger queue with options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.triggers = make(chan Trigger, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a trigger, coalescing per account.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if _, waiting := q.pending[t.AccountID]; waiting {
		// An equivalent pass is already queued; this trigger adds nothing.
		metrics.RecordTriggerCoalesced()
		return true
	}

	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}

	select {
	case q.triggers <- t:
		q.pending[t.AccountID] = struct{}{}
		metrics.RecordTriggerEnqueued(string(t.Reason))
		q.updateSizeMetricsLocked()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives triggers as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Trigger {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for t := range q.triggers {
			// The account is no longer "queued" once a worker takes the
			// trigger; a signal arriving mid-pass must be able to queue a
			// fresh trigger (the worker gate coalesces in-flight reruns).
			q.mu.Lock()
			delete(q.pending, t.AccountID)
			q.updateSizeMetricsLocked()
			q.mu.Unlock()

			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.triggers)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.triggers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// updateSizeMetricsLocked refreshes gauge metrics; callers hold q.mu.
func (q *InMemoryQueue) updateSizeMetricsLocked() {
	size := len(q.triggers)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
