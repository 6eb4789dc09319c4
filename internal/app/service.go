// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/identity"
	triggerqueue "github.com/signalhouse/pqascore/internal/adapters/mq/queue"
	workerpool "github.com/signalhouse/pqascore/internal/adapters/mq/worker"
	"github.com/signalhouse/pqascore/internal/adapters/repository"
	"github.com/signalhouse/pqascore/internal/adapters/signalstore"
	"github.com/signalhouse/pqascore/internal/domain/dedupe"
	"github.com/signalhouse/pqascore/internal/domain/factors"
	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/scoring"
	"github.com/signalhouse/pqascore/internal/domain/tier"
	"github.com/signalhouse/pqascore/internal/domain/trend"
	"github.com/signalhouse/pqascore/internal/domain/types"
	"github.com/signalhouse/pqascore/internal/engine"
	"github.com/signalhouse/pqascore/internal/scheduler"
	"github.com/signalhouse/pqascore/pkg/logger"
	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	signals   *signalstore.InMemoryStore
	resolver  *identity.StaticResolver
	snapshots repository.Store
	deduper   dedupe.Deduper
	triggers  triggerqueue.Queue
	engine    *engine.Engine
	pool      *workerpool.Pool
	sched     *scheduler.Scheduler

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	window            time.Duration
	weights           map[string]float64
	userCeiling       int
	breadthCeiling    int
	engagementCeiling float64
	decayHalfLife     time.Duration
	trendWindow       int
	trendDeadBand     float64
	passTimeout       time.Duration
	retryLimit        int
	retryBaseDelay    time.Duration
	staleMaxAge       time.Duration
	sweepSpec         string
	retention         time.Duration
	retentionSpec     string
	maxTopLimit       int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 4,
		queueSize:   50_000,
		dedupeSize:  100_000,
		window:      90 * 24 * time.Hour,
		weights: map[string]float64{
			string(model.FactorUserCount):      0.25,
			string(model.FactorVelocity):       0.20,
			string(model.FactorFeatureBreadth): 0.15,
			string(model.FactorEngagement):     0.20,
			string(model.FactorSeniority):      0.10,
			string(model.FactorFirmographic):   0.10,
		},
		userCeiling:       25,
		breadthCeiling:    10,
		engagementCeiling: 50.0,
		decayHalfLife:     7 * 24 * time.Hour,
		trendWindow:       4,
		trendDeadBand:     3.0,
		passTimeout:       30 * time.Second,
		retryLimit:        3,
		retryBaseDelay:    200 * time.Millisecond,
		staleMaxAge:       24 * time.Hour,
		sweepSpec:         "@every 1h",
		retention:         365 * 24 * time.Hour,
		retentionSpec:     "@every 24h",
		maxTopLimit:       100,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	weights := scoring.FromConfig(s.weights)
	if err := weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, err)
	}

	// Initialize components
	s.signals = signalstore.NewInMemoryStore()
	s.resolver = identity.NewStaticResolver()
	s.snapshots = repository.NewLogStore()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.triggers = triggerqueue.NewInMemoryQueue(
		triggerqueue.WithCapacity(s.queueSize),
	)

	aggregator := factors.New(
		factors.WithUserCeiling(s.userCeiling),
		factors.WithBreadthCeiling(s.breadthCeiling),
		factors.WithEngagementCeiling(s.engagementCeiling),
		factors.WithDecayHalfLife(s.decayHalfLife),
		factors.WithWeights(weights),
	)
	s.engine = engine.New(
		s.signals,
		s.resolver,
		s.snapshots,
		aggregator,
		scoring.NewCalculator(weights),
		trend.New(
			trend.WithWindow(s.trendWindow),
			trend.WithDeadBand(s.trendDeadBand),
		),
		engine.WithWindow(s.window),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.triggers, s.engine, s.snapshots,
		workerpool.WithPassTimeout(s.passTimeout),
		workerpool.WithRetryLimit(s.retryLimit),
		workerpool.WithRetryBaseDelay(s.retryBaseDelay),
	)
	s.pool.Start(ctx)

	s.sched = scheduler.New()
	if err := s.sched.Register(scheduler.NewStaleSweepJob(s.snapshots, s.triggers, s.staleMaxAge, s.sweepSpec)); err != nil {
		return fmt.Errorf("register stale sweep: %w", err)
	}
	if err := s.sched.Register(scheduler.NewRetentionJob(s.snapshots, s.retention, s.retentionSpec)); err != nil {
		return fmt.Errorf("register retention: %w", err)
	}
	s.sched.Start()

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("windowDays", int(s.window/(24*time.Hour))),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoring service...")

	if s.sched != nil {
		s.sched.Stop()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.triggers != nil && !s.triggers.IsClosed() {
		_ = s.triggers.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// IngestSignal validates and records a behavioral signal and queues a
// recompute trigger for its account. It returns true when the signal id was
// already seen; replays are acknowledged without re-processing.
func (s *Service) IngestSignal(ctx context.Context, sig model.Signal) (bool, error) {
	if !s.isStarted() {
		return false, ErrNotStarted
	}
	if sig.SignalID == "" || sig.AccountID == "" || sig.TS.IsZero() {
		return false, fmt.Errorf("%w: signal_id, account_id and ts are required", signalstore.ErrInvalidSignal)
	}

	if s.deduper.SeenAndRecord(ctx, sig.SignalID) {
		metrics.RecordSignalDuplicate()
		return true, nil
	}

	if err := s.signals.Append(ctx, sig); err != nil {
		s.deduper.Unrecord(ctx, sig.SignalID)
		return false, fmt.Errorf("append signal: %w", err)
	}

	if !s.triggers.Enqueue(ctx, triggerqueue.Trigger{AccountID: sig.AccountID, Reason: triggerqueue.ReasonSignal}) {
		// Roll back the seen-state so the producer can retry; the stored
		// signal itself is replay-safe.
		s.deduper.Unrecord(ctx, sig.SignalID)
		if s.triggers.IsClosed() {
			return false, triggerqueue.ErrQueueClosed
		}
		return false, triggerqueue.ErrQueueFull
	}

	metrics.RecordSignalIngested()
	metrics.UpdateQueueSize(s.triggers.Len(ctx))
	return false, nil
}

// ComputeNow runs a synchronous scoring pass for the account and returns the
// resulting score view.
func (s *Service) ComputeNow(ctx context.Context, accountID string) (types.AccountScore, error) {
	if !s.isStarted() {
		return types.AccountScore{}, ErrNotStarted
	}

	snap, err := s.pool.ComputeNow(ctx, accountID)
	if err != nil {
		return types.AccountScore{}, err
	}
	return types.FromSnapshot(snap), nil
}

// CurrentScore returns the account's current score view from its latest
// snapshot.
func (s *Service) CurrentScore(ctx context.Context, accountID string) (types.AccountScore, error) {
	if !s.isStarted() {
		return types.AccountScore{}, ErrNotStarted
	}

	snap, err := s.snapshots.Latest(ctx, accountID)
	if err != nil {
		return types.AccountScore{}, err
	}
	return types.FromSnapshot(snap), nil
}

// History returns the account's snapshots from the last N days, oldest first.
func (s *Service) History(ctx context.Context, accountID string, days int) ([]types.SnapshotEntry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be positive", repository.ErrInvalidLimit)
	}

	now := time.Now()
	snaps, err := s.snapshots.Range(ctx, accountID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}
	return types.HistoryFromSnapshots(snaps), nil
}

// TopAccounts returns up to limit accounts ranked by current score, optionally
// restricted to one tier (case-insensitive).
func (s *Service) TopAccounts(ctx context.Context, limit int, tierFilter string) ([]types.AccountScore, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if limit < 1 || limit > s.maxTopLimit {
		return nil, fmt.Errorf("%w: limit must be in [1, %d]", repository.ErrInvalidLimit, s.maxTopLimit)
	}

	var filter model.Tier
	if tierFilter != "" {
		parsed, err := tier.Parse(tierFilter)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}

	snaps, err := s.snapshots.TopN(ctx, limit, filter)
	if err != nil {
		return nil, err
	}

	out := make([]types.AccountScore, len(snaps))
	for i, snap := range snaps {
		out[i] = types.FromSnapshot(snap)
	}
	return out, nil
}

// Resolver exposes the identity resolver so attribute data can be seeded.
func (s *Service) Resolver() *identity.StaticResolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// MaxTopLimit returns the configured cap for top-account queries.
func (s *Service) MaxTopLimit() int {
	return s.maxTopLimit
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if !s.started {
		return stats
	}

	queueLen := s.triggers.Len(ctx)
	totalAccounts := s.snapshots.Count(ctx)
	signalAccounts := s.signals.Count(ctx)

	stats["queueLength"] = queueLen
	stats["scoredAccounts"] = totalAccounts
	stats["signalAccounts"] = signalAccounts
	stats["dedupeEntries"] = s.deduper.Size()

	// Tier distribution over every account's latest snapshot.
	tiers := map[string]int{}
	if totalAccounts > 0 {
		if latest, err := s.snapshots.TopN(ctx, totalAccounts, ""); err == nil {
			for _, snap := range latest {
				tiers[string(snap.Tier)]++
			}
		}
	}
	stats["tiers"] = tiers

	// Update metrics
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateAccountsTotal(totalAccounts)
	metrics.UpdateWorkerCount(s.workerCount)
	for tierName, n := range tiers {
		metrics.UpdateAccountsByTier(tierName, n)
	}

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
