package worker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/mq/queue"
	"github.com/signalhouse/pqascore/internal/adapters/mq/worker"
	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/engine"
	"github.com/signalhouse/pqascore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// passRecorder is a Recomputer that tracks call and concurrency counts and
// lets tests script per-call outcomes.
type passRecorder struct {
	mu            sync.Mutex
	inFlight      int
	maxConcurrent int
	calls         int

	delay   time.Duration
	block   chan struct{} // when set, the first call parks here
	perCall func(call int) error
}

func (r *passRecorder) Recompute(ctx context.Context, accountID string) (model.ScoreSnapshot, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.inFlight++
	if r.inFlight > r.maxConcurrent {
		r.maxConcurrent = r.inFlight
	}
	block := r.block
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if call == 1 && block != nil {
		<-block
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return model.ScoreSnapshot{}, ctx.Err()
		}
	}
	if r.perCall != nil {
		if err := r.perCall(call); err != nil {
			return model.ScoreSnapshot{}, err
		}
	}
	return model.ScoreSnapshot{AccountID: accountID, Score: call}, nil
}

func (r *passRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *passRecorder) peakConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxConcurrent
}

type latestStub struct {
	snap model.ScoreSnapshot
}

func (s *latestStub) Latest(_ context.Context, _ string) (model.ScoreSnapshot, error) {
	return s.snap, nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestGate(t *testing.T) {
	Convey("Given a fresh gate", t, func() {
		g := worker.NewGate()

		Convey("When an idle account is acquired", func() {
			So(g.Acquire("acct-1"), ShouldBeTrue)

			Convey("Then further acquires coalesce into a rerun", func() {
				So(g.Acquire("acct-1"), ShouldBeFalse)
				So(g.Acquire("acct-1"), ShouldBeFalse)
				So(g.Release("acct-1"), ShouldBeTrue)
			})

			Convey("And other accounts are unaffected", func() {
				So(g.Acquire("acct-2"), ShouldBeTrue)
				So(g.InFlight(), ShouldEqual, 2)
				So(g.Release("acct-2"), ShouldBeFalse)
				So(g.Release("acct-1"), ShouldBeFalse)
			})
		})

		Convey("When waiting on an idle account", func() {
			Convey("Then the wait channel is already closed", func() {
				select {
				case <-g.Wait("acct-1"):
				default:
					So("wait channel should be closed", ShouldBeEmpty)
				}
			})
		})

		Convey("When waiting on a busy account", func() {
			So(g.Acquire("acct-1"), ShouldBeTrue)
			done := g.Wait("acct-1")

			Convey("Then the channel closes on release", func() {
				select {
				case <-done:
					So("wait returned before release", ShouldBeEmpty)
				default:
				}
				g.Release("acct-1")
				select {
				case <-done:
				case <-time.After(time.Second):
					So("wait channel never closed", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestPoolSerializesPerAccount(t *testing.T) {
	Convey("Given a pool of several workers and a burst of triggers for one account", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		rec := &passRecorder{delay: 20 * time.Millisecond}
		pool := worker.NewPool(4, q, rec, &latestStub{})
		pool.Start(ctx)

		Convey("When triggers arrive faster than passes complete", func() {
			for i := 0; i < 5; i++ {
				q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})
				time.Sleep(8 * time.Millisecond)
			}

			Convey("Then passes run but never concurrently", func() {
				So(waitFor(func() bool { return rec.callCount() >= 2 }), ShouldBeTrue)
				So(waitFor(func() bool { return q.Len(ctx) == 0 }), ShouldBeTrue)
				time.Sleep(100 * time.Millisecond)
				So(rec.peakConcurrency(), ShouldEqual, 1)
			})
		})
	})
}

func TestPoolCoalescesInFlightTriggers(t *testing.T) {
	Convey("Given a pass in flight for an account", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		block := make(chan struct{})
		q := queue.NewInMemoryQueue()
		rec := &passRecorder{block: block}
		pool := worker.NewPool(2, q, rec, &latestStub{})
		pool.Start(ctx)

		q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})
		So(waitFor(func() bool { return rec.callCount() == 1 }), ShouldBeTrue)

		Convey("When more triggers land during the pass", func() {
			q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})
			time.Sleep(30 * time.Millisecond)
			q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonManual})
			time.Sleep(30 * time.Millisecond)
			close(block)

			Convey("Then they collapse into exactly one follow-up pass", func() {
				So(waitFor(func() bool { return rec.callCount() == 2 }), ShouldBeTrue)
				time.Sleep(100 * time.Millisecond)
				So(rec.callCount(), ShouldEqual, 2)
				So(rec.peakConcurrency(), ShouldEqual, 1)
			})
		})
	})
}

func TestPoolRetriesTransientFailures(t *testing.T) {
	Convey("Given an engine that fails transiently twice before succeeding", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		rec := &passRecorder{perCall: func(call int) error {
			if call <= 2 {
				return fmt.Errorf("signal backend flake: %w", engine.ErrAggregation)
			}
			return nil
		}}
		pool := worker.NewPool(1, q, rec, &latestStub{},
			worker.WithRetryLimit(3),
			worker.WithRetryBaseDelay(time.Millisecond),
		)
		pool.Start(ctx)

		Convey("When a trigger is processed", func() {
			q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})

			Convey("Then the pass is retried until it succeeds", func() {
				So(waitFor(func() bool { return rec.callCount() == 3 }), ShouldBeTrue)
				time.Sleep(50 * time.Millisecond)
				So(rec.callCount(), ShouldEqual, 3)
			})
		})
	})
}

func TestPoolGivesUpAfterRetryCeiling(t *testing.T) {
	Convey("Given an engine that keeps failing transiently", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		rec := &passRecorder{perCall: func(int) error {
			return fmt.Errorf("still down: %w", engine.ErrStoreWrite)
		}}
		pool := worker.NewPool(1, q, rec, &latestStub{},
			worker.WithRetryLimit(1),
			worker.WithRetryBaseDelay(time.Millisecond),
		)
		pool.Start(ctx)

		Convey("When a trigger is processed", func() {
			q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})

			Convey("Then exactly one retry runs before the account is left stale", func() {
				So(waitFor(func() bool { return rec.callCount() == 2 }), ShouldBeTrue)
				time.Sleep(50 * time.Millisecond)
				So(rec.callCount(), ShouldEqual, 2)
			})
		})
	})
}

func TestPoolPassTimeout(t *testing.T) {
	Convey("Given an engine slower than the pass timeout", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		rec := &passRecorder{delay: 200 * time.Millisecond}
		pool := worker.NewPool(1, q, rec, &latestStub{},
			worker.WithPassTimeout(10*time.Millisecond),
			worker.WithRetryLimit(3),
			worker.WithRetryBaseDelay(time.Millisecond),
		)
		pool.Start(ctx)

		Convey("When a trigger is processed", func() {
			q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})

			Convey("Then the pass is abandoned without inline retries", func() {
				So(waitFor(func() bool { return rec.callCount() == 1 }), ShouldBeTrue)
				time.Sleep(100 * time.Millisecond)
				So(rec.callCount(), ShouldEqual, 1)
			})
		})
	})
}

func TestComputeNow(t *testing.T) {
	Convey("Given a pool with no pass in flight", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		rec := &passRecorder{}
		pool := worker.NewPool(1, q, rec, &latestStub{})

		Convey("When a synchronous compute is requested", func() {
			snap, err := pool.ComputeNow(ctx, "acct-1")

			Convey("Then it runs a pass and returns the fresh snapshot", func() {
				So(err, ShouldBeNil)
				So(snap.AccountID, ShouldEqual, "acct-1")
				So(rec.callCount(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a pass already in flight for the account", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		block := make(chan struct{})
		current := model.ScoreSnapshot{AccountID: "acct-1", Score: 42}
		q := queue.NewInMemoryQueue()
		rec := &passRecorder{block: block}
		pool := worker.NewPool(1, q, rec, &latestStub{snap: current})
		pool.Start(ctx)

		q.Enqueue(ctx, queue.Trigger{AccountID: "acct-1", Reason: queue.ReasonSignal})
		So(waitFor(func() bool { return rec.callCount() == 1 }), ShouldBeTrue)

		Convey("When a synchronous compute is requested mid-pass", func() {
			type result struct {
				snap model.ScoreSnapshot
				err  error
			}
			results := make(chan result, 1)
			go func() {
				snap, err := pool.ComputeNow(ctx, "acct-1")
				results <- result{snap, err}
			}()

			time.Sleep(20 * time.Millisecond)
			close(block)

			Convey("Then it waits for the in-flight pass and returns the stored snapshot", func() {
				select {
				case r := <-results:
					So(r.err, ShouldBeNil)
					So(r.snap.Score, ShouldEqual, current.Score)
				case <-time.After(2 * time.Second):
					So("ComputeNow never returned", ShouldBeEmpty)
				}
			})
		})
	})
}
