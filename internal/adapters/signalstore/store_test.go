package signalstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/signalhouse/pqascore/internal/adapters/signalstore"
	"github.com/signalhouse/pqascore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryStore(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given an in-memory signal store", t, func() {
		ctx := context.Background()
		store := signalstore.NewInMemoryStore()

		Convey("When appending signals out of timestamp order", func() {
			for _, offset := range []int{5, 1, 3, 2, 4} {
				err := store.Append(ctx, model.Signal{
					SignalID:  fmt.Sprintf("sig-%d", offset),
					AccountID: "acct-1",
					Type:      "repo.clone",
					TS:        base.Add(time.Duration(offset) * time.Hour),
				})
				So(err, ShouldBeNil)
			}

			Convey("Then window queries return ascending timestamps", func() {
				got, err := store.Window(ctx, "acct-1", base, base.Add(10*time.Hour))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 5)
				for i := 1; i < len(got); i++ {
					So(got[i].TS.After(got[i-1].TS), ShouldBeTrue)
				}
			})

			Convey("And window bounds are inclusive", func() {
				got, err := store.Window(ctx, "acct-1", base.Add(2*time.Hour), base.Add(4*time.Hour))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
			})

			Convey("And lifetime stats track the extremes", func() {
				stats, err := store.AccountStats(ctx, "acct-1")
				So(err, ShouldBeNil)
				So(stats.LifetimeCount, ShouldEqual, 5)
				So(stats.FirstSignalAt.Equal(base.Add(1*time.Hour)), ShouldBeTrue)
				So(stats.LastSignalAt.Equal(base.Add(5*time.Hour)), ShouldBeTrue)
			})
		})

		Convey("When querying an unknown account", func() {
			got, err := store.Window(ctx, "ghost", base, base.Add(time.Hour))
			stats, statsErr := store.AccountStats(ctx, "ghost")

			Convey("Then absence is valid, not an error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
				So(statsErr, ShouldBeNil)
				So(stats.LifetimeCount, ShouldEqual, 0)
				So(stats.FirstSignalAt.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When appending a malformed signal", func() {
			err := store.Append(ctx, model.Signal{SignalID: "s", TS: base})

			Convey("Then it is rejected with ErrInvalidSignal", func() {
				So(err, ShouldWrap, signalstore.ErrInvalidSignal)
			})
		})

		Convey("When replaying a signal id that was already stored", func() {
			sig := model.Signal{SignalID: "dup-1", AccountID: "acct-1", Type: "login", TS: base}
			So(store.Append(ctx, sig), ShouldBeNil)
			So(store.Append(ctx, sig), ShouldBeNil)

			Convey("Then the replay is a no-op", func() {
				stats, err := store.AccountStats(ctx, "acct-1")
				So(err, ShouldBeNil)
				So(stats.LifetimeCount, ShouldEqual, 1)
			})
		})

		Convey("When counting accounts", func() {
			_ = store.Append(ctx, model.Signal{SignalID: "a", AccountID: "acct-1", TS: base})
			_ = store.Append(ctx, model.Signal{SignalID: "b", AccountID: "acct-2", TS: base})
			_ = store.Append(ctx, model.Signal{SignalID: "c", AccountID: "acct-2", TS: base})

			Convey("Then each account counts once", func() {
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})
	})
}
