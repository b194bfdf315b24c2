package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.scoringReports.Inc()

			Convey("Then collectors are registered under the configured names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_scoring_reports_total"], ShouldBeTrue)
			})

			Convey("Then the counter is readable", func() {
				So(testutil.CollectAndCount(manager.scoringReports), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.scoringReports), ShouldEqual, 1)
			})
		})

		Convey("When creating two managers on separate registries", func() {
			So(func() {
				NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
				NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording scoring reports", func() {
			before := testutil.ToFloat64(globalManager.scoringReports)
			tallies := testutil.ToFloat64(globalManager.tallyReports)
			RecordScoringReport(false, 0)
			RecordScoringReport(true, -12)

			Convey("Then both are counted and only the tally one feeds drift", func() {
				So(testutil.ToFloat64(globalManager.scoringReports)-before, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.tallyReports)-tallies, ShouldEqual, 1)
			})
		})

		Convey("When recording rows per bucket", func() {
			c := globalManager.rowsCategorized.WithLabelValues("farming")
			before := testutil.ToFloat64(c)
			RecordRowsCategorized("farming", 3)
			RecordRowsCategorized("farming", 0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(c)-before, ShouldEqual, 3)
			})
		})

		Convey("When updating sessions", func() {
			UpdateActiveSessions(4)
			So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 4)
			UpdateActiveSessions(0)
			So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 0)
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordDatasetLoaded("xlsx", 120)
				RecordLoadFailure("missing_columns")
				RecordPipelineLatency("categorize", 1.5)
				RecordSessionExpired(2)
				RecordStoreLatency("memory", "get", 0.01)
				RecordHTTPRequest("/api/sessions", "POST", "201")
				RecordHTTPRequestDuration("/api/sessions", "POST", "201", 12)
				RecordErrorByComponent("api", "not_found")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is shared", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
