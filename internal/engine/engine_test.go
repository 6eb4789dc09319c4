package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/identity"
	"github.com/signalhouse/pqascore/internal/adapters/repository"
	"github.com/signalhouse/pqascore/internal/adapters/signalstore"
	"github.com/signalhouse/pqascore/internal/domain/factors"
	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/scoring"
	"github.com/signalhouse/pqascore/internal/domain/trend"
	"github.com/signalhouse/pqascore/internal/engine"
	"github.com/signalhouse/pqascore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var start = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	signals   *signalstore.InMemoryStore
	resolver  *identity.StaticResolver
	snapshots *repository.LogStore
	engine    *engine.Engine
	now       time.Time
}

func newFixture() *fixture {
	f := &fixture{
		signals:   signalstore.NewInMemoryStore(),
		resolver:  identity.NewStaticResolver(),
		snapshots: repository.NewLogStore(),
		now:       start,
	}

	weights := scoring.WeightSet{
		model.FactorUserCount:      0.25,
		model.FactorVelocity:       0.20,
		model.FactorFeatureBreadth: 0.15,
		model.FactorEngagement:     0.20,
		model.FactorSeniority:      0.10,
		model.FactorFirmographic:   0.10,
	}
	agg := factors.New(
		factors.WithUserCeiling(10),
		factors.WithBreadthCeiling(4),
		factors.WithEngagementCeiling(40),
		factors.WithWeights(weights),
	)
	f.engine = engine.New(
		f.signals,
		f.resolver,
		f.snapshots,
		agg,
		scoring.NewCalculator(weights),
		trend.New(trend.WithWindow(3), trend.WithDeadBand(3)),
		engine.WithWindow(90*24*time.Hour),
		engine.WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) ingest(n int, types, actors int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_ = f.signals.Append(ctx, model.Signal{
			SignalID:  fmt.Sprintf("sig-%d-%d", f.now.UnixNano(), i),
			AccountID: "acct-1",
			Type:      fmt.Sprintf("type-%d", i%types),
			ActorID:   fmt.Sprintf("actor-%d", i%actors),
			TS:        f.now.Add(-time.Duration(i) * time.Hour),
		})
	}
}

func TestRecomputeEmptyAccount(t *testing.T) {
	Convey("Given an account that has never signaled", t, func() {
		ctx := context.Background()
		f := newFixture()

		Convey("When recomputing its score", func() {
			snap, err := f.engine.Recompute(ctx, "acct-1")

			Convey("Then the pass succeeds with an all-zero snapshot", func() {
				So(err, ShouldBeNil)
				So(snap.Score, ShouldEqual, 0)
				So(snap.Tier, ShouldEqual, model.TierInactive)
				So(snap.Trend, ShouldEqual, model.TrendStable)
				So(snap.SignalCount, ShouldEqual, 0)
				So(snap.UserCount, ShouldEqual, 0)
				So(snap.LastSignalAt.IsZero(), ShouldBeTrue)
				So(snap.Factors, ShouldHaveLength, 6)
				for _, fac := range snap.Factors {
					So(fac.Value, ShouldEqual, 0)
				}
			})

			Convey("And the snapshot is persisted as current", func() {
				latest, err := f.snapshots.Latest(ctx, "acct-1")
				So(err, ShouldBeNil)
				So(latest.PassID, ShouldEqual, snap.PassID)
			})
		})
	})
}

func TestRecomputeActiveAccount(t *testing.T) {
	Convey("Given an account with 50 signals of 4 types from 10 actors", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.ingest(50, 4, 10)

		Convey("When recomputing its score", func() {
			snap, err := f.engine.Recompute(ctx, "acct-1")

			Convey("Then factors rise and the snapshot reflects the window", func() {
				So(err, ShouldBeNil)
				So(snap.Score, ShouldBeGreaterThan, 0)
				So(snap.Score, ShouldBeLessThanOrEqualTo, 100)
				So(snap.SignalCount, ShouldEqual, 50)
				So(snap.UserCount, ShouldEqual, 10)
				So(snap.Trend, ShouldEqual, model.TrendStable) // no history yet
			})

			Convey("And recomputing with unchanged signals reproduces the score", func() {
				f.now = f.now.Add(time.Millisecond)
				again, err := f.engine.Recompute(ctx, "acct-1")
				So(err, ShouldBeNil)
				So(again.Score, ShouldEqual, snap.Score)
			})
		})
	})
}

func TestRecomputeTrendProgression(t *testing.T) {
	Convey("Given an account scored repeatedly as activity grows", t, func() {
		ctx := context.Background()
		f := newFixture()

		// Two quiet passes establish a baseline.
		for i := 0; i < 2; i++ {
			f.ingest(2, 1, 1)
			_, err := f.engine.Recompute(ctx, "acct-1")
			So(err, ShouldBeNil)
			f.now = f.now.Add(time.Hour)
		}

		Convey("When a burst of activity lands", func() {
			f.ingest(60, 4, 10)
			snap, err := f.engine.Recompute(ctx, "acct-1")

			Convey("Then the trend flips to RISING", func() {
				So(err, ShouldBeNil)
				So(snap.Trend, ShouldEqual, model.TrendRising)
			})
		})
	})
}

func TestRecomputeIdentityContribution(t *testing.T) {
	Convey("Given identity attributes for the signaling actors", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.ingest(20, 2, 4)

		base, err := f.engine.Recompute(ctx, "acct-1")
		So(err, ShouldBeNil)

		f.resolver.SetActorTitle("actor-0", "VP of Engineering")
		f.resolver.SetActorTitle("actor-1", "CTO")
		f.resolver.SetAccountProfile("acct-1", identity.Profile{Employees: 2000, Industry: "devtools"})

		Convey("When recomputing with attributes resolved", func() {
			f.now = f.now.Add(time.Minute)
			enriched, err := f.engine.Recompute(ctx, "acct-1")

			Convey("Then seniority and firmographics lift the score", func() {
				So(err, ShouldBeNil)
				So(enriched.Score, ShouldBeGreaterThan, base.Score)
			})
		})
	})
}

func TestRecomputeSupersededPass(t *testing.T) {
	Convey("Given a pass that finishes after a fresher pass committed", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.ingest(5, 2, 2)

		// A later-started pass commits first.
		f.now = start.Add(time.Hour)
		_, err := f.engine.Recompute(ctx, "acct-1")
		So(err, ShouldBeNil)

		Convey("When the slower, staler pass tries to commit", func() {
			f.now = start
			_, err := f.engine.Recompute(ctx, "acct-1")

			Convey("Then it is discarded as superseded", func() {
				So(err, ShouldWrap, engine.ErrSuperseded)
				So(engine.IsRetryable(err), ShouldBeFalse)
			})

			Convey("And the fresher snapshot remains current", func() {
				latest, lerr := f.snapshots.Latest(ctx, "acct-1")
				So(lerr, ShouldBeNil)
				So(latest.CapturedAt.Equal(start.Add(time.Hour)), ShouldBeTrue)
			})
		})
	})
}

type failingSignals struct {
	*signalstore.InMemoryStore
}

func (f *failingSignals) Window(context.Context, string, time.Time, time.Time) ([]model.Signal, error) {
	return nil, errors.New("signal backend down")
}

func TestRecomputeAggregationFailure(t *testing.T) {
	Convey("Given an unavailable signal backend", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.ingest(5, 2, 2)
		_, err := f.engine.Recompute(ctx, "acct-1")
		So(err, ShouldBeNil)

		broken := engine.New(
			&failingSignals{f.signals},
			f.resolver,
			f.snapshots,
			factors.New(),
			scoring.NewCalculator(scoring.WeightSet{
				model.FactorUserCount:      0.25,
				model.FactorVelocity:       0.20,
				model.FactorFeatureBreadth: 0.15,
				model.FactorEngagement:     0.20,
				model.FactorSeniority:      0.10,
				model.FactorFirmographic:   0.10,
			}),
			trend.New(),
			engine.WithClock(func() time.Time { return f.now.Add(time.Hour) }),
		)

		Convey("When a pass runs against it", func() {
			_, err := broken.Recompute(ctx, "acct-1")

			Convey("Then the failure is a retryable aggregation error", func() {
				So(err, ShouldWrap, engine.ErrAggregation)
				So(engine.IsRetryable(err), ShouldBeTrue)
			})

			Convey("And the prior snapshot is untouched", func() {
				latest, lerr := f.snapshots.Latest(ctx, "acct-1")
				So(lerr, ShouldBeNil)
				So(latest.CapturedAt.Equal(start), ShouldBeTrue)
			})
		})
	})
}
