package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/signalhouse/pqascore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When recording a fresh signal id", func() {
			seen := d.SeenAndRecord(ctx, "sig-1")

			Convey("Then it is newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again reports a duplicate", func() {
				So(d.SeenAndRecord(ctx, "sig-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the window overflows", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sig-%d", i))
			}

			Convey("Then the oldest id is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sig-0"), ShouldBeFalse) // evicted, so fresh again
			})

			Convey("And recent ids are still remembered", func() {
				So(d.SeenAndRecord(ctx, "sig-3"), ShouldBeTrue)
			})
		})

		Convey("When unrecording a seen id", func() {
			d.SeenAndRecord(ctx, "sig-rollback")
			d.Unrecord(ctx, "sig-rollback")

			Convey("Then the id can be retried", func() {
				So(d.SeenAndRecord(ctx, "sig-rollback"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then size is unaffected", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When recording many ids", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("sig-%d", i)), ShouldBeFalse)
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "sig-0"), ShouldBeTrue)
			})
		})
	})
}

func TestSeenAndRecordConcurrent(t *testing.T) {
	Convey("Given concurrent ingestion of the same id", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))

		const goroutines = 50
		fresh := make(chan bool, goroutines)
		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fresh <- !d.SeenAndRecord(ctx, "contended-id")
			}()
		}
		wg.Wait()
		close(fresh)

		Convey("Then exactly one caller wins", func() {
			wins := 0
			for f := range fresh {
				if f {
					wins++
				}
			}
			So(wins, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
