package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created with the sect namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "sect")
				So(manager.subsystem, ShouldEqual, "roster")
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("custom"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithWaitBuckets([]float64{1, 2}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "custom")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.waitBuckets, ShouldResemble, []float64{1, 2})
				So(manager.customLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "sect")
				So(manager.subsystem, ShouldEqual, "roster")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When ingestion outcomes are recorded", func() {
			before := testutil.ToFloat64(globalManager.ingestOutcomes.WithLabelValues(OutcomeDuplicate))
			RecordIngestOutcome(OutcomeDuplicate)
			RecordIngestOutcome(OutcomeDuplicate)

			Convey("Then the outcome counter increases", func() {
				after := testutil.ToFloat64(globalManager.ingestOutcomes.WithLabelValues(OutcomeDuplicate))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When the roster size is updated", func() {
			UpdateRosterSize(42)

			Convey("Then the gauge holds the value", func() {
				So(testutil.ToFloat64(globalManager.rosterSize), ShouldEqual, 42)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordBatchCompleted("completed", 12.5)
				RecordAnalysisAttempt("ok", 0.8)
				RecordRateLimited()
				RecordWait(10)
				RecordProfileSave("ok")
				RecordBackup("ok")
				UpdateQueueSize(1)
				UpdateQueueCapacity(8)
				RecordQueueEnqueue()
				RecordQueueRejected()
				RecordHTTPRequest("/team", "GET", "200")
				RecordHTTPRequestDuration("/team", "GET", "200", 0.01)
				RecordErrorByComponent("ingest", "remote")
			}, ShouldNotPanic)
		})

		Convey("When the registry is gathered", func() {
			families, err := GetRegistry().Gather()

			Convey("Then sect metrics are exposed", func() {
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "sect_roster_") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}
