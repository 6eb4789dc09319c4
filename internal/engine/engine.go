// Package engine runs one full scoring pass for an account: fetch the signal
// window, aggregate factors, compute score, classify tier and trend, and
// append the resulting snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalhouse/pqascore/internal/adapters/repository"
	"github.com/signalhouse/pqascore/internal/adapters/signalstore"
	"github.com/signalhouse/pqascore/internal/domain/factors"
	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/scoring"
	"github.com/signalhouse/pqascore/internal/domain/tier"
	"github.com/signalhouse/pqascore/internal/domain/trend"
	"github.com/signalhouse/pqascore/pkg/logger"
	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultWindow = 90 * 24 * time.Hour
)

// SignalSource is the slice of the signal store the engine reads.
type SignalSource interface {
	Window(ctx context.Context, accountID string, from, to time.Time) ([]model.Signal, error)
	AccountStats(ctx context.Context, accountID string) (signalstore.Stats, error)
}

// AttributeSource supplies resolved identity attributes.
type AttributeSource interface {
	ActorSeniority(ctx context.Context, actorIDs []string) (map[string]float64, error)
	AccountFirmographic(ctx context.Context, accountID string) (float64, bool, error)
}

// SnapshotStore is the slice of the repository the engine touches.
type SnapshotStore interface {
	Append(ctx context.Context, snap model.ScoreSnapshot) error
	Recent(ctx context.Context, accountID string, n int) ([]model.ScoreSnapshot, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWindow sets the signal lookback window.
func WithWindow(window time.Duration) Option {
	return func(e *Engine) {
		if window > 0 {
			e.window = window
		}
	}
}

// WithClock overrides the time source; used by tests for determinism.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// Engine wires the pure pipeline stages around the two I/O boundaries
// (signal fetch and snapshot append). It holds no per-account state; all
// serialization lives in the coordinator.
type Engine struct {
	signals   SignalSource
	identity  AttributeSource
	snapshots SnapshotStore

	aggregator *factors.Aggregator
	calculator *scoring.Calculator
	trends     *trend.Analyzer

	window time.Duration
	clock  func() time.Time
	logger logger.Logger
}

// New constructs an Engine around its collaborators.
func New(
	signals SignalSource,
	identitySource AttributeSource,
	snapshots SnapshotStore,
	aggregator *factors.Aggregator,
	calculator *scoring.Calculator,
	trends *trend.Analyzer,
	opts ...Option,
) *Engine {
	e := &Engine{
		signals:    signals,
		identity:   identitySource,
		snapshots:  snapshots,
		aggregator: aggregator,
		calculator: calculator,
		trends:     trends,
		window:     defaultWindow,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}

// Recompute runs one scoring pass and appends the resulting snapshot.
// On any failure the previous snapshot remains current; a new snapshot is
// never partially applied.
func (e *Engine) Recompute(ctx context.Context, accountID string) (model.ScoreSnapshot, error) {
	passStart := time.Now()
	defer func() {
		metrics.RecordPassLatency(float64(time.Since(passStart).Milliseconds()))
	}()

	now := e.clock()
	from := now.Add(-e.window)

	aggStart := time.Now()
	signals, err := e.signals.Window(ctx, accountID, from, now)
	if err != nil {
		return model.ScoreSnapshot{}, fmt.Errorf("%w: signal window for %s: %v", ErrAggregation, accountID, err)
	}
	stats, err := e.signals.AccountStats(ctx, accountID)
	if err != nil {
		return model.ScoreSnapshot{}, fmt.Errorf("%w: account stats for %s: %v", ErrAggregation, accountID, err)
	}

	attrs, err := e.resolveAttributes(ctx, accountID, signals)
	if err != nil {
		return model.ScoreSnapshot{}, err
	}
	metrics.RecordAggregationLatency(float64(time.Since(aggStart).Milliseconds()))

	if err := ctx.Err(); err != nil {
		return model.ScoreSnapshot{}, fmt.Errorf("pass aborted: %w", err)
	}

	// Pure stages: no I/O, no suspension from here to the append.
	window := factors.Window{
		AccountID:     accountID,
		From:          from,
		To:            now,
		Signals:       signals,
		FirstSignalAt: stats.FirstSignalAt,
		LifetimeCount: stats.LifetimeCount,
	}
	factorSet := e.aggregator.Aggregate(window, attrs)
	score := e.calculator.Compute(factorSet)
	accountTier := tier.Classify(score)

	recent, err := e.snapshots.Recent(ctx, accountID, e.trends.Window())
	if err != nil {
		return model.ScoreSnapshot{}, fmt.Errorf("%w: recent snapshots for %s: %v", ErrAggregation, accountID, err)
	}
	prior := make([]int, len(recent))
	for i, s := range recent {
		prior[i] = s.Score
	}
	accountTrend := e.trends.Classify(score, prior)

	snap := model.ScoreSnapshot{
		PassID:       uuid.NewString(),
		AccountID:    accountID,
		Score:        score,
		Tier:         accountTier,
		Trend:        accountTrend,
		Factors:      factorSet,
		SignalCount:  len(signals),
		UserCount:    factors.DistinctActors(signals),
		LastSignalAt: stats.LastSignalAt,
		CapturedAt:   now,
	}

	if err := e.snapshots.Append(ctx, snap); err != nil {
		if errors.Is(err, repository.ErrStaleSnapshot) {
			// A pass with fresher data already committed; discard this one.
			return model.ScoreSnapshot{}, fmt.Errorf("%w: %v", ErrSuperseded, err)
		}
		return model.ScoreSnapshot{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	metrics.RecordPassCompleted()
	metrics.RecordTrendTransition(string(accountTrend))
	e.logger.Debug(ctx, "scoring pass completed",
		logger.String("accountID", accountID),
		logger.Int("score", score),
		logger.String("tier", string(accountTier)),
		logger.String("trend", string(accountTrend)),
		logger.Int("signals", len(signals)),
	)
	return snap, nil
}

// resolveAttributes gathers identity inputs; absence is valid, errors are not.
func (e *Engine) resolveAttributes(ctx context.Context, accountID string, signals []model.Signal) (factors.Attributes, error) {
	seen := make(map[string]struct{})
	var actorIDs []string
	for _, s := range signals {
		if s.ActorID == "" {
			continue
		}
		if _, ok := seen[s.ActorID]; ok {
			continue
		}
		seen[s.ActorID] = struct{}{}
		actorIDs = append(actorIDs, s.ActorID)
	}

	seniority, err := e.identity.ActorSeniority(ctx, actorIDs)
	if err != nil {
		return factors.Attributes{}, fmt.Errorf("%w: actor seniority for %s: %v", ErrAggregation, accountID, err)
	}
	firmographic, hasFirmographic, err := e.identity.AccountFirmographic(ctx, accountID)
	if err != nil {
		return factors.Attributes{}, fmt.Errorf("%w: firmographics for %s: %v", ErrAggregation, accountID, err)
	}

	return factors.Attributes{
		ActorSeniority:  seniority,
		Firmographic:    firmographic,
		HasFirmographic: hasFirmographic,
	}, nil
}
