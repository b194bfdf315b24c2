package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var required = []string{"lifecycle_stage", "cs_client_stage", "onb grade"}

// record builds a single resolved record from column -> cell pairs.
func record(cells map[string]dataset.Value) columns.Record {
	names := append([]string(nil), required...)
	row := []dataset.Value{dataset.Empty(), dataset.Empty(), dataset.Empty()}
	for name, v := range cells {
		names = append(names, name)
		row = append(row, v)
	}
	ds, err := dataset.New(names, [][]dataset.Value{row})
	So(err, ShouldBeNil)
	m, err := columns.Resolve(names)
	So(err, ShouldBeNil)
	return m.Record(ds.Rows()[0])
}

func criterionIDs(actions []scoring.Action) []string {
	out := []string{}
	for _, a := range actions {
		out = append(out, a.Criterion)
	}
	return out
}

func TestEngine_Technical(t *testing.T) {
	e := scoring.New()

	Convey("Given secretary seats and mobile login on a full plan", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"secretary_seats":  dataset.Number(2),
			"mobile_app_login": dataset.Number(1),
			"plan":             dataset.Text("PLUS"),
		}))

		Convey("Then technical setup is 30 of 80", func() {
			tech, ok := rep.Category(scoring.Technical)
			So(ok, ShouldBeTrue)
			So(tech.Current, ShouldEqual, 30)
			So(tech.Max, ShouldEqual, 80)
		})

		Convey("Then the four remaining technical items are listed in table order", func() {
			var tech []scoring.Action
			for _, a := range rep.Missing {
				if a.Category == scoring.Technical {
					tech = append(tech, a)
				}
			}
			So(criterionIDs(tech), ShouldResemble, []string{"imported_patients", "online_consultation", "online_payments", "review_requests"})
			points := []int{}
			for _, a := range tech {
				points = append(points, a.Points)
			}
			So(points, ShouldResemble, []int{15, 15, 5, 15})
		})

		Convey("Then nothing is gated and the maximum is full", func() {
			So(rep.Gated, ShouldBeFalse)
			So(rep.NotApplicable, ShouldBeEmpty)
			So(rep.Max, ShouldEqual, scoring.MaxTotal)
			So(rep.FixedMax, ShouldEqual, 325)
		})
	})
}

func TestEngine_Gating(t *testing.T) {
	e := scoring.New()

	Convey("Given a starter plan", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"plan":                dataset.Text(" Starter "),
			"mobile_app_login":    dataset.Text("1"),
			"online_consultation": dataset.Text("sim"),
		}))

		Convey("Then the gated points leave the maximum", func() {
			So(rep.Max, ShouldEqual, 305)
			tech, _ := rep.Category(scoring.Technical)
			So(tech.Max, ShouldEqual, 60)
			So(tech.Current, ShouldEqual, 0)
		})

		Convey("Then gated criteria are reported as not applicable, not missing", func() {
			So(criterionIDs(rep.NotApplicable), ShouldResemble, []string{"mobile_app", "online_consultation"})
			for _, a := range rep.Missing {
				So(a.Criterion, ShouldNotEqual, "mobile_app")
				So(a.Criterion, ShouldNotEqual, "online_consultation")
			}
		})
	})

	Convey("Given custom starter plan names", t, func() {
		e := scoring.New(scoring.WithStarterPlans("basic"))
		So(e.Gated("BASIC"), ShouldBeTrue)
		So(e.Gated("starter"), ShouldBeFalse)
	})
}

func TestEngine_Monotonicity(t *testing.T) {
	e := scoring.New()

	Convey("Given bookable hours moving from 59 to 60", t, func() {
		before := e.Score(record(map[string]dataset.Value{"bookable_hours": dataset.Number(59)}))
		after := e.Score(record(map[string]dataset.Value{"bookable_hours": dataset.Number(60)}))

		Convey("Then visibility gains 15 and exactly one missing entry goes away", func() {
			vb, _ := before.Category(scoring.Visibility)
			va, _ := after.Category(scoring.Visibility)
			So(va.Current-vb.Current, ShouldEqual, 15)
			So(len(before.Missing)-len(after.Missing), ShouldEqual, 1)
			So(criterionIDs(before.Missing), ShouldContain, "bookable_hours")
			So(criterionIDs(after.Missing), ShouldNotContain, "bookable_hours")
		})
	})
}

func TestEngine_Capped(t *testing.T) {
	e := scoring.New()

	Convey("Given partial booking activity", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"admin_bookings":     dataset.Number(10.7),
			"user_bookings":      dataset.Text("2"),
			"opinions":           dataset.Number(-3),
			"answered_questions": dataset.Text("garbage"),
		}))

		Convey("Then counts are floored and clamped before weighting", func() {
			adoption, _ := rep.Category(scoring.Adoption)
			So(adoption.Current, ShouldEqual, 24)
			advanced, _ := rep.Category(scoring.Advanced)
			So(advanced.Current, ShouldEqual, 20)
		})

		Convey("Then capped criteria list their remaining points", func() {
			remaining := map[string]int{}
			for _, a := range rep.Missing {
				remaining[a.Criterion] = a.Points
			}
			So(remaining["bookings"], ShouldEqual, 56)
			So(remaining["opinions"], ShouldEqual, 20)
			So(remaining["questions"], ShouldEqual, 20)
		})
	})

	Convey("Given booking activity over the cap", t, func() {
		rep := e.Score(record(map[string]dataset.Value{"admin_bookings": dataset.Number(500)}))
		adoption, _ := rep.Category(scoring.Adoption)
		So(adoption.Current, ShouldEqual, 80)
		So(criterionIDs(rep.Missing), ShouldNotContain, "bookings")
	})
}

func TestEngine_Visibility(t *testing.T) {
	e := scoring.New()

	Convey("Given every visibility signal", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"bookable_hours":       dataset.Number(80),
			"bookable_days":        dataset.Number(12),
			"insurers_2":           dataset.Text("yes"),
			"profile_completeness": dataset.Number(5),
			"has_pricing":          dataset.Text("true"),
			"whatsapp":             dataset.Text("x"),
			"website_widget":       dataset.Text("https://clinic.example"),
			"instagram_link":       dataset.Text("https://instagram.com/clinic"),
		}))

		Convey("Then the category is capped at its maximum", func() {
			vis, _ := rep.Category(scoring.Visibility)
			So(vis.Current, ShouldEqual, 75)
			So(vis.Max, ShouldEqual, 75)
			So(vis.Capped, ShouldBeTrue)
		})
	})

	Convey("Given every visibility signal except WhatsApp", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"bookable_hours":       dataset.Number(80),
			"bookable_days":        dataset.Number(12),
			"insurers_2":           dataset.Text("yes"),
			"profile_completeness": dataset.Number(5),
			"has_pricing":          dataset.Text("true"),
			"website_widget":       dataset.Text("https://clinic.example"),
			"instagram_link":       dataset.Text("https://instagram.com/clinic"),
		}))

		Convey("Then the full category is flagged as capped while WhatsApp stays missing", func() {
			vis, _ := rep.Category(scoring.Visibility)
			So(vis.Current, ShouldEqual, vis.Max)
			So(vis.Capped, ShouldBeTrue)
			So(criterionIDs(rep.Missing), ShouldContain, "whatsapp")
		})
	})

	Convey("Given a partial visibility score", t, func() {
		rep := e.Score(record(map[string]dataset.Value{"bookable_hours": dataset.Number(80)}))
		vis, _ := rep.Category(scoring.Visibility)
		So(vis.Current, ShouldEqual, 15)
		So(vis.Capped, ShouldBeFalse)
	})

	Convey("Given a profile completeness other than 5", t, func() {
		rep := e.Score(record(map[string]dataset.Value{"profile_completeness": dataset.Text("70%")}))
		So(criterionIDs(rep.Missing), ShouldContain, "profile")
	})

	Convey("Given a social link cell saying no", t, func() {
		rep := e.Score(record(map[string]dataset.Value{"facebook_link": dataset.Text("não")}))
		So(criterionIDs(rep.Missing), ShouldContain, "social")
	})
}

func TestEngine_Tally(t *testing.T) {
	e := scoring.New()

	Convey("Given a record with a source tally", t, func() {
		rep := e.Score(record(map[string]dataset.Value{
			"ONB Score":     dataset.Number(120),
			"campaign_sent": dataset.Number(1),
		}))

		Convey("Then current is the tally and drift is reported", func() {
			So(rep.HasTally, ShouldBeTrue)
			So(rep.Computed, ShouldEqual, 30)
			So(rep.Current, ShouldEqual, 120)
			So(rep.Drift, ShouldEqual, 90)
		})
	})

	Convey("Given a record without a tally", t, func() {
		rep := e.Score(record(map[string]dataset.Value{"campaign_sent": dataset.Number(1)}))

		Convey("Then current is the computed total", func() {
			So(rep.HasTally, ShouldBeFalse)
			So(rep.Current, ShouldEqual, 30)
			So(rep.Drift, ShouldEqual, 0)
		})
	})

	Convey("Given a tally cell that is not a finite number", t, func() {
		for _, v := range []dataset.Value{dataset.Text("NaN"), dataset.Text("Infinity"), dataset.Number(math.Inf(1))} {
			rep := e.Score(record(map[string]dataset.Value{"ONB Score": v, "campaign_sent": dataset.Number(1)}))
			So(rep.HasTally, ShouldBeFalse)
			So(rep.Current, ShouldEqual, 30)
			So(rep.Drift, ShouldEqual, 0)
		}
	})

	Convey("Given repeated scoring of the same record", t, func() {
		rec := record(map[string]dataset.Value{"secretary_seats": dataset.Number(1)})
		So(e.Score(rec), ShouldResemble, e.Score(rec))
	})
}
