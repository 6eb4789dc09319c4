package tier_test

import (
	"testing"

	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given the fixed tier table", t, func() {
		Convey("When classifying scores at the boundaries", func() {
			Convey("Then lower bounds are inclusive", func() {
				So(tier.Classify(100), ShouldEqual, model.TierHot)
				So(tier.Classify(70), ShouldEqual, model.TierHot)
				So(tier.Classify(69), ShouldEqual, model.TierWarm)
				So(tier.Classify(40), ShouldEqual, model.TierWarm)
				So(tier.Classify(39), ShouldEqual, model.TierCold)
				So(tier.Classify(20), ShouldEqual, model.TierCold)
				So(tier.Classify(19), ShouldEqual, model.TierInactive)
				So(tier.Classify(0), ShouldEqual, model.TierInactive)
			})
		})

		Convey("When classifying every score in range", func() {
			Convey("Then each score maps to exactly one tier", func() {
				for score := 0; score <= 100; score++ {
					got := tier.Classify(score)
					So(got, ShouldBeIn, []model.Tier{
						model.TierHot, model.TierWarm, model.TierCold, model.TierInactive,
					})
				}
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given tier names from query parameters", t, func() {
		Convey("When parsing valid names", func() {
			Convey("Then parsing is case-insensitive", func() {
				got, err := tier.Parse("hot")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, model.TierHot)

				got, err = tier.Parse(" Warm ")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, model.TierWarm)

				got, err = tier.Parse("COLD")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, model.TierCold)

				got, err = tier.Parse("inactive")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, model.TierInactive)
			})
		})

		Convey("When parsing an unknown name", func() {
			_, err := tier.Parse("lukewarm")

			Convey("Then it should fail with ErrUnknownTier", func() {
				So(err, ShouldEqual, tier.ErrUnknownTier)
			})
		})
	})
}
