// Package metrics provides Prometheus metrics for the takedown scoring pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "pipeline"

// defaultBuckets are in milliseconds, matching every latency observation.
var defaultBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // bucket table

// Manager owns every pipeline metric.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline runs
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	lastRunUnix  prometheus.Gauge
	linesByKind  *prometheus.CounterVec
	diagnostics  *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	matchesTotal *prometheus.CounterVec

	// Latest run shape
	teams            prometheus.Gauge
	draftedWrestlers prometheus.Gauge
	pointsAwarded    prometheus.Gauge

	// Job queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter

	// Worker pool
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Snapshot store
	snapshotWrites  *prometheus.CounterVec
	snapshotLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "takedown",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// Configure replaces the global manager and the exposed registry. It must run
// before anything records, typically once at process start.
func Configure(opts ...Option) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
	return registry
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "runs_total",
		Help: "Pipeline runs by outcome (ok, structural_error)",
	}, []string{"outcome"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name:    "run_duration_milliseconds",
		Help:    "End-to-end pipeline run duration in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	})

	m.linesByKind = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "lines_total",
		Help: "Source lines classified by the structural scan",
	}, []string{"kind"})

	m.diagnostics = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "diagnostics_total",
		Help: "Diagnostics emitted by kind",
	}, []string{"kind"})

	m.resolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "resolutions_total",
		Help: "Mention resolutions by matcher strategy",
	}, []string{"strategy"})

	m.matchesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "matches_total",
		Help: "Matches by scoring outcome (scored, excluded)",
	}, []string{"outcome"})

	m.teams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "teams",
		Help: "Teams in the latest team summary",
	})

	m.draftedWrestlers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "drafted_wrestlers",
		Help: "Drafted wrestlers in the latest results table",
	})

	m.pointsAwarded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "points_awarded",
		Help: "Total points across all teams in the latest run",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "queue_size",
		Help: "Section jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "queue_capacity",
		Help: "Capacity of the current job queue",
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "queue_rejected_total",
		Help: "Jobs refused because the queue was closed or full",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "worker_active_count",
		Help: "Workers in the extraction pool",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "Time a worker spends on one job",
		Buckets: m.histogramBuckets,
	})

	m.snapshotWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "snapshot_writes_total",
		Help: "Snapshot store writes by outcome",
	}, []string{"outcome"})

	m.snapshotLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name:    "snapshot_write_latency_milliseconds",
		Help:    "Snapshot store write latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, ConstLabels: constLabels,
		Name: "errors_by_component_total",
		Help: "Errors by component and error type",
	}, []string{"component", "error_type"})
}

// Pipeline run metrics.

// RecordRun records a finished run and its duration.
func RecordRun(outcome string, d time.Duration) {
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(float64(d.Microseconds()) / 1000)
	if outcome == "ok" {
		globalManager.lastRunUnix.Set(float64(time.Now().Unix()))
	}
}

// RecordLines adds n classified lines of the given kind.
func RecordLines(kind string, n int) {
	if n > 0 {
		globalManager.linesByKind.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordDiagnostic counts one diagnostic.
func RecordDiagnostic(kind string) {
	globalManager.diagnostics.WithLabelValues(kind).Inc()
}

// RecordResolution counts one mention resolved by strategy.
func RecordResolution(strategy string) {
	globalManager.resolutions.WithLabelValues(strategy).Inc()
}

// RecordMatch counts one match by scoring outcome.
func RecordMatch(outcome string) {
	globalManager.matchesTotal.WithLabelValues(outcome).Inc()
}

// UpdateRunShape publishes the size of the latest tables.
func UpdateRunShape(teams, drafted int, points float64) {
	globalManager.teams.Set(float64(teams))
	globalManager.draftedWrestlers.Set(float64(drafted))
	globalManager.pointsAwarded.Set(points)
}

// Queue metrics.

// UpdateQueueSize sets the number of queued jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// Worker metrics.

// UpdateWorkerActiveCount sets the number of workers in the pool.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records how long one job took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// Snapshot metrics.

// RecordSnapshotWrite records a snapshot write and its latency.
func RecordSnapshotWrite(outcome string, latencyMs float64) {
	globalManager.snapshotWrites.WithLabelValues(outcome).Inc()
	globalManager.snapshotLatency.Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest increments the request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
