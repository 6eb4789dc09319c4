package identity_test

import (
	"context"
	"testing"

	"github.com/signalhouse/pqascore/internal/adapters/identity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStaticResolver(t *testing.T) {
	Convey("Given a resolver with known contacts and accounts", t, func() {
		ctx := context.Background()
		r := identity.NewStaticResolver(
			identity.WithIndustryBoosts(map[string]float64{"fintech": 10}),
		)
		r.SetActorTitle("actor-cto", "CTO & Co-Founder")
		r.SetActorTitle("actor-dir", "Director of Engineering")
		r.SetActorTitle("actor-eng", "Software Engineer")
		r.SetAccountProfile("acct-big", identity.Profile{Employees: 5000, Industry: "fintech"})
		r.SetAccountProfile("acct-tiny", identity.Profile{Employees: 3})

		Convey("When resolving actor seniority", func() {
			got, err := r.ActorSeniority(ctx, []string{"actor-cto", "actor-dir", "actor-eng", "actor-ghost"})

			Convey("Then known actors get banded scores and unknowns are absent", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got["actor-cto"], ShouldEqual, 90)
				So(got["actor-dir"], ShouldEqual, 75)
				So(got["actor-eng"], ShouldEqual, 30)
				So(got, ShouldNotContainKey, "actor-ghost")
			})
		})

		Convey("When resolving firmographics for a large fintech account", func() {
			score, ok, err := r.AccountFirmographic(ctx, "acct-big")

			Convey("Then size and industry both contribute", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 100) // 90 size + 10 boost, clamped
			})
		})

		Convey("When resolving firmographics for a tiny account", func() {
			score, ok, err := r.AccountFirmographic(ctx, "acct-tiny")

			Convey("Then the micro band applies", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 25)
			})
		})

		Convey("When no profile exists", func() {
			_, ok, err := r.AccountFirmographic(ctx, "acct-ghost")

			Convey("Then absence is reported, not an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestTitleSeniority(t *testing.T) {
	Convey("Given free-form job titles", t, func() {
		Convey("When mapping them to seniority bands", func() {
			cases := map[string]float64{
				"VP of Sales":              90,
				"Head of Platform":         75,
				"Staff Engineer":           60,
				"Senior Data Analyst":      50,
				"Developer":                30,
				"chief information officer": 90,
			}

			Convey("Then each title lands in its band", func() {
				for title, want := range cases {
					So(identity.TitleSeniority(title), ShouldEqual, want)
				}
			})
		})
	})
}
