package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(registry *prometheus.Registry) map[string]bool {
	families, err := registry.Gather()
	So(err, ShouldBeNil)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it uses the takedown namespace and millisecond buckets", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "takedown")
				So(manager.histogramBuckets, ShouldResemble, defaultBuckets)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.runsTotal.WithLabelValues("ok").Inc()

			Convey("Then metric names carry the namespace and subsystem", func() {
				So(gatheredNames(registry)["test_pipeline_runs_total"], ShouldBeTrue)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))
			manager.runsTotal.WithLabelValues("ok").Inc()

			Convey("Then nothing lands on the given registry", func() {
				So(gatheredNames(registry), ShouldBeEmpty)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		Reset(func() { globalManager, customRegistry = prevManager, prevRegistry })

		registry := Configure(WithNamespace("wrestling"), WithConstLabels(map[string]string{"event": "ncaa"}))
		RecordRun("ok", 5*time.Millisecond)

		Convey("Then recordings are exposed under the configured namespace", func() {
			So(GetRegistry(), ShouldEqual, registry)
			So(gatheredNames(registry)["wrestling_pipeline_runs_total"], ShouldBeTrue)
			So(testutil.ToFloat64(globalManager.runsTotal.WithLabelValues("ok")), ShouldEqual, 1)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording diagnostics", func() {
			before := testutil.ToFloat64(globalManager.diagnostics.WithLabelValues("unparsed_line"))
			RecordDiagnostic("unparsed_line")
			RecordDiagnostic("unparsed_line")

			Convey("Then the counter grows by the number of calls", func() {
				after := testutil.ToFloat64(globalManager.diagnostics.WithLabelValues("unparsed_line"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording lines", func() {
			before := testutil.ToFloat64(globalManager.linesByKind.WithLabelValues("match"))
			RecordLines("match", 12)
			RecordLines("match", 0)

			Convey("Then zero counts are ignored", func() {
				after := testutil.ToFloat64(globalManager.linesByKind.WithLabelValues("match"))
				So(after-before, ShouldEqual, 12)
			})
		})

		Convey("When updating the run shape", func() {
			UpdateRunShape(4, 40, 123.5)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.teams), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.draftedWrestlers), ShouldEqual, 40)
				So(testutil.ToFloat64(globalManager.pointsAwarded), ShouldEqual, 123.5)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordRun("ok", 15*time.Millisecond)
					RecordRun("structural_error", time.Millisecond)
					RecordResolution("exact")
					RecordMatch("scored")
					UpdateWorkerActiveCount(4)
					RecordWorkerProcessingLatency(1.5)
					RecordSnapshotWrite("ok", 3)
					RecordHTTPRequest("/api/teams", "GET", "200")
					RecordHTTPRequestDuration("/api/teams", "GET", "200", 2.0)
					RecordErrorByComponent("parser", "empty_input")
				}, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			Convey("Then it is the custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
