package trend_test

import (
	"testing"

	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAnalyzerClassify(t *testing.T) {
	Convey("Given an analyzer with a window of 3 and dead-band of 3", t, func() {
		analyzer := trend.New(
			trend.WithWindow(3),
			trend.WithDeadBand(3),
		)

		Convey("When there is insufficient history", func() {
			Convey("Then no prior snapshots defaults to STABLE", func() {
				So(analyzer.Classify(50, nil), ShouldEqual, model.TrendStable)
			})

			Convey("And a single prior snapshot defaults to STABLE", func() {
				So(analyzer.Classify(90, []int{10}), ShouldEqual, model.TrendStable)
			})
		})

		Convey("When the score holds constant across snapshots", func() {
			got := analyzer.Classify(45, []int{45, 45, 45})

			Convey("Then the trend is STABLE", func() {
				So(got, ShouldEqual, model.TrendStable)
			})
		})

		Convey("When the new score exceeds the baseline beyond the dead-band", func() {
			// baseline = (40+42+44)/3 = 42
			got := analyzer.Classify(60, []int{40, 42, 44})

			Convey("Then the trend is RISING", func() {
				So(got, ShouldEqual, model.TrendRising)
			})
		})

		Convey("When the new score falls below the baseline beyond the dead-band", func() {
			got := analyzer.Classify(20, []int{40, 42, 44})

			Convey("Then the trend is FALLING", func() {
				So(got, ShouldEqual, model.TrendFalling)
			})
		})

		Convey("When movement stays inside the dead-band", func() {
			// baseline = 42, delta = +3 which is not strictly greater than the band
			got := analyzer.Classify(45, []int{40, 42, 44})

			Convey("Then the trend stays STABLE", func() {
				So(got, ShouldEqual, model.TrendStable)
			})
		})

		Convey("When history is longer than the window", func() {
			// Only the last 3 entries form the baseline: (10+10+10)/3 = 10
			got := analyzer.Classify(50, []int{90, 90, 10, 10, 10})

			Convey("Then older entries do not dilute the baseline", func() {
				So(got, ShouldEqual, model.TrendRising)
			})
		})
	})

	Convey("Given an analyzer with a zero dead-band", t, func() {
		analyzer := trend.New(trend.WithWindow(3), trend.WithDeadBand(0))

		Convey("When the score moves by a single point", func() {
			Convey("Then any movement leaves STABLE", func() {
				So(analyzer.Classify(43, []int{42, 42}), ShouldEqual, model.TrendRising)
				So(analyzer.Classify(41, []int{42, 42}), ShouldEqual, model.TrendFalling)
				So(analyzer.Classify(42, []int{42, 42}), ShouldEqual, model.TrendStable)
			})
		})
	})
}
