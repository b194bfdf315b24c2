// Package metrics provides Prometheus metrics for the onboarding scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metric naming.
const (
	defaultNamespace = "onb"
	defaultSubsystem = "engine"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline
	datasetsLoaded  *prometheus.CounterVec
	loadFailures    *prometheus.CounterVec
	datasetRows     prometheus.Histogram
	rowsCategorized *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec

	// Scoring
	scoringReports prometheus.Counter
	tallyReports   prometheus.Counter
	tallyDrift     prometheus.Histogram

	// Sessions
	activeSessions  prometheus.Gauge
	sessionsExpired prometheus.Counter
	storeLatency    *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.datasetsLoaded = auto.NewCounterVec(
		m.counterOpts("datasets_loaded_total", "Spreadsheets successfully loaded, by format"),
		[]string{"format"},
	)
	m.loadFailures = auto.NewCounterVec(
		m.counterOpts("load_failures_total", "Spreadsheet loads rejected, by reason"),
		[]string{"reason"},
	)
	m.datasetRows = auto.NewHistogram(m.histogramOpts(
		"dataset_rows", "Data rows per loaded spreadsheet",
		prometheus.ExponentialBuckets(10, 4, 8),
	))
	m.rowsCategorized = auto.NewCounterVec(
		m.counterOpts("rows_categorized_total", "Rows assigned to each lifecycle bucket"),
		[]string{"bucket"},
	)
	m.pipelineLatency = auto.NewHistogramVec(
		m.histogramOpts("pipeline_latency_milliseconds", "Pipeline stage latency in milliseconds", m.histogramBuckets),
		[]string{"stage"},
	)

	m.scoringReports = auto.NewCounter(m.counterOpts("scoring_reports_total", "Scoring reports computed"))
	m.tallyReports = auto.NewCounter(m.counterOpts("tally_reports_total", "Scoring reports whose record carried a source tally"))
	m.tallyDrift = auto.NewHistogram(m.histogramOpts(
		"tally_drift_points", "Absolute difference between source tally and computed score",
		[]float64{0, 5, 10, 25, 50, 100, 200, 325},
	))

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Sessions currently held"))
	m.sessionsExpired = auto.NewCounter(m.counterOpts("sessions_expired_total", "Sessions dropped after their TTL"))
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Session store operation latency in milliseconds", m.histogramBuckets),
		[]string{"backend", "op"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordDatasetLoaded counts a loaded spreadsheet and observes its size.
func RecordDatasetLoaded(format string, rows int) {
	globalManager.datasetsLoaded.WithLabelValues(format).Inc()
	globalManager.datasetRows.Observe(float64(rows))
}

// RecordLoadFailure counts a rejected spreadsheet.
func RecordLoadFailure(reason string) {
	globalManager.loadFailures.WithLabelValues(reason).Inc()
}

// RecordRowsCategorized adds n rows to a bucket's counter.
func RecordRowsCategorized(bucket string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsCategorized.WithLabelValues(bucket).Add(float64(n))
}

// RecordPipelineLatency records one stage's latency in milliseconds.
func RecordPipelineLatency(stage string, latencyMs float64) {
	globalManager.pipelineLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordScoringReport counts a report; drift is observed only with a tally.
func RecordScoringReport(hasTally bool, drift int) {
	globalManager.scoringReports.Inc()
	if !hasTally {
		return
	}
	globalManager.tallyReports.Inc()
	if drift < 0 {
		drift = -drift
	}
	globalManager.tallyDrift.Observe(float64(drift))
}

// UpdateActiveSessions sets the number of held sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionExpired counts sessions dropped after their TTL.
func RecordSessionExpired(n int) {
	if n <= 0 {
		return
	}
	globalManager.sessionsExpired.Add(float64(n))
}

// RecordStoreLatency records a session store operation latency.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
