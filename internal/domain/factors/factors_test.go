package factors_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/factors"
	"github.com/signalhouse/pqascore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var windowEnd = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func window(signals []model.Signal) factors.Window {
	w := factors.Window{
		AccountID: "acct-1",
		From:      windowEnd.Add(-90 * 24 * time.Hour),
		To:        windowEnd,
		Signals:   signals,
	}
	if len(signals) > 0 {
		earliest := signals[0].TS
		for _, s := range signals[1:] {
			if s.TS.Before(earliest) {
				earliest = s.TS
			}
		}
		w.FirstSignalAt = earliest
		w.LifetimeCount = len(signals)
	}
	return w
}

func signalAt(id, actor, typ string, age time.Duration) model.Signal {
	return model.Signal{
		SignalID:  id,
		AccountID: "acct-1",
		Type:      typ,
		ActorID:   actor,
		TS:        windowEnd.Add(-age),
	}
}

func byName(fs []model.Factor) map[model.FactorName]float64 {
	out := make(map[model.FactorName]float64, len(fs))
	for _, f := range fs {
		out[f.Name] = f.Value
	}
	return out
}

func TestAggregate(t *testing.T) {
	Convey("Given an aggregator with small ceilings", t, func() {
		agg := factors.New(
			factors.WithUserCeiling(10),
			factors.WithBreadthCeiling(4),
			factors.WithEngagementCeiling(20),
			factors.WithDecayHalfLife(7*24*time.Hour),
		)

		Convey("When the account has no signals", func() {
			fs := agg.Aggregate(window(nil), factors.Attributes{})

			Convey("Then every canonical factor is present and zero", func() {
				So(fs, ShouldHaveLength, len(model.CanonicalFactors()))
				for _, f := range fs {
					So(f.Value, ShouldEqual, 0)
				}
			})
		})

		Convey("When ten distinct actors produce signals of four types", func() {
			var signals []model.Signal
			for i := 0; i < 50; i++ {
				signals = append(signals, signalAt(
					fmt.Sprintf("sig-%d", i),
					fmt.Sprintf("actor-%d", i%10),
					fmt.Sprintf("type-%d", i%4),
					time.Duration(i)*time.Hour,
				))
			}
			fs := byName(agg.Aggregate(window(signals), factors.Attributes{}))

			Convey("Then userCount saturates at the ceiling", func() {
				So(fs[model.FactorUserCount], ShouldEqual, 100)
			})

			Convey("And featureBreadth saturates at the ceiling", func() {
				So(fs[model.FactorFeatureBreadth], ShouldEqual, 100)
			})

			Convey("And every factor stays in bounds", func() {
				for name, v := range fs {
					So(v, ShouldBeGreaterThanOrEqualTo, 0)
					So(v, ShouldBeLessThanOrEqualTo, 100)
					_ = name
				}
			})
		})

		Convey("When aggregating the same window twice", func() {
			signals := []model.Signal{
				signalAt("s1", "a1", "repo.clone", time.Hour),
				signalAt("s2", "a2", "pkg.install", 48*time.Hour),
				signalAt("s3", "a1", "page.view", 200*time.Hour),
			}
			first := agg.Aggregate(window(signals), factors.Attributes{})
			second := agg.Aggregate(window(signals), factors.Attributes{})

			Convey("Then the results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestVelocity(t *testing.T) {
	Convey("Given the velocity factor", t, func() {
		agg := factors.New()

		Convey("When a new account has activity but no baseline", func() {
			w := window([]model.Signal{signalAt("s1", "a1", "repo.clone", time.Hour)})
			// Lifetime history starts inside the window, so the window rate
			// cannot be below the lifetime rate; a genuinely fresh account
			// with no prior history at all pins to 100.
			w.FirstSignalAt = time.Time{}
			w.LifetimeCount = 0
			fs := byName(agg.Aggregate(w, factors.Attributes{}))

			Convey("Then velocity pins to 100", func() {
				So(fs[model.FactorVelocity], ShouldEqual, 100)
			})
		})

		Convey("When both window and baseline are silent", func() {
			fs := byName(agg.Aggregate(window(nil), factors.Attributes{}))

			Convey("Then velocity is 0", func() {
				So(fs[model.FactorVelocity], ShouldEqual, 0)
			})
		})

		Convey("When the window rate matches the lifetime rate", func() {
			var signals []model.Signal
			for i := 0; i < 30; i++ {
				signals = append(signals, signalAt(fmt.Sprintf("s%d", i), "a1", "repo.clone", time.Duration(i*72)*time.Hour))
			}
			w := window(signals)
			// Whole history inside the window: current == baseline apart from
			// window-length rounding.
			fs := byName(agg.Aggregate(w, factors.Attributes{}))

			Convey("Then velocity sits near the midpoint", func() {
				So(fs[model.FactorVelocity], ShouldBeBetween, 40, 60)
			})
		})
	})
}

func TestEngagementDecay(t *testing.T) {
	Convey("Given two accounts with equal signal counts", t, func() {
		agg := factors.New(
			factors.WithEngagementCeiling(10),
			factors.WithDecayHalfLife(7*24*time.Hour),
		)

		recent := make([]model.Signal, 10)
		stale := make([]model.Signal, 10)
		for i := range recent {
			recent[i] = signalAt(fmt.Sprintf("r%d", i), "a1", "page.view", time.Duration(i)*time.Hour)
			stale[i] = signalAt(fmt.Sprintf("o%d", i), "a1", "page.view", 80*24*time.Hour+time.Duration(i)*time.Hour)
		}

		Convey("When one account's signals are recent and the other's are old", func() {
			recentScore := byName(agg.Aggregate(window(recent), factors.Attributes{}))[model.FactorEngagement]
			staleScore := byName(agg.Aggregate(window(stale), factors.Attributes{}))[model.FactorEngagement]

			Convey("Then recency wins", func() {
				So(recentScore, ShouldBeGreaterThan, staleScore)
				So(staleScore, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestIdentityFactors(t *testing.T) {
	Convey("Given identity attributes", t, func() {
		agg := factors.New()
		signals := []model.Signal{
			signalAt("s1", "a1", "repo.clone", time.Hour),
			signalAt("s2", "a2", "repo.clone", time.Hour),
			signalAt("s3", "", "page.view", time.Hour), // anonymous
		}

		Convey("When seniority is resolved for the attributed actors", func() {
			attrs := factors.Attributes{
				ActorSeniority: map[string]float64{"a1": 90, "a2": 50},
			}
			fs := byName(agg.Aggregate(window(signals), attrs))

			Convey("Then seniority is the mean over matched actors", func() {
				So(fs[model.FactorSeniority], ShouldEqual, 70)
			})
		})

		Convey("When no actor attribution exists", func() {
			fs := byName(agg.Aggregate(window(signals), factors.Attributes{}))

			Convey("Then seniority is 0, not an error", func() {
				So(fs[model.FactorSeniority], ShouldEqual, 0)
			})
		})

		Convey("When firmographic data is present", func() {
			attrs := factors.Attributes{Firmographic: 75, HasFirmographic: true}
			fs := byName(agg.Aggregate(window(signals), attrs))

			Convey("Then the factor carries the resolved value", func() {
				So(fs[model.FactorFirmographic], ShouldEqual, 75)
			})
		})

		Convey("When firmographic data is absent", func() {
			fs := byName(agg.Aggregate(window(signals), factors.Attributes{}))

			Convey("Then the factor defaults to 0", func() {
				So(fs[model.FactorFirmographic], ShouldEqual, 0)
			})
		})
	})
}
