// Package metrics provides Prometheus metrics for the sect roster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Manager manages all Prometheus metrics for the sect service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	waitBuckets      []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion
	ingestOutcomes   *prometheus.CounterVec
	batchesCompleted *prometheus.CounterVec
	batchDuration    prometheus.Histogram

	// Analysis calls against the model provider
	analysisAttempts *prometheus.CounterVec
	analysisLatency  prometheus.Histogram
	rateLimitHits    prometheus.Counter
	retryWaitSeconds prometheus.Histogram

	// Roster
	rosterSize   prometheus.Gauge
	profileSaves *prometheus.CounterVec
	backups      *prometheus.CounterVec

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sect",
		subsystem:        "roster",
		histogramBuckets: prometheus.DefBuckets,
		// Backoff waits are 10s, 20s, 40s by default; pacing is 2s.
		waitBuckets:  []float64{1, 2, 5, 10, 20, 40, 80},
		customLabels: make(map[string]string),
		registry:     prometheus.DefaultRegisterer,
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

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.ingestOutcomes = auto.NewCounterVec(
		m.counterOpts("ingest_items_total", "Uploaded images by ingestion outcome"),
		[]string{"outcome"},
	)
	m.batchesCompleted = auto.NewCounterVec(
		m.counterOpts("ingest_batches_total", "Completed ingestion batches by terminal state"),
		[]string{"state"},
	)
	m.batchDuration = auto.NewHistogram(m.histogramOpts(
		"ingest_batch_duration_seconds", "Wall time of an ingestion batch",
		[]float64{1, 5, 15, 30, 60, 120, 300, 600},
	))

	m.analysisAttempts = auto.NewCounterVec(
		m.counterOpts("analysis_attempts_total", "Analysis calls by result"),
		[]string{"result"},
	)
	m.analysisLatency = auto.NewHistogram(m.histogramOpts(
		"analysis_latency_seconds", "Latency of a single analysis call", m.histogramBuckets,
	))
	m.rateLimitHits = auto.NewCounter(
		m.counterOpts("analysis_rate_limited_total", "Analysis calls rejected by provider rate limiting"),
	)
	m.retryWaitSeconds = auto.NewHistogram(m.histogramOpts(
		"ingest_wait_seconds", "Backoff and pacing waits in the ingestion pipeline", m.waitBuckets,
	))

	m.rosterSize = auto.NewGauge(m.gaugeOpts("size", "Records in the active roster"))
	m.profileSaves = auto.NewCounterVec(
		m.counterOpts("profile_saves_total", "Profile snapshot saves by result"),
		[]string{"result"},
	)
	m.backups = auto.NewCounterVec(
		m.counterOpts("backups_total", "Scheduled profile backups by result"),
		[]string{"result"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Batches waiting in the ingestion queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the ingestion queue"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Batches accepted by the queue"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Batches rejected because the queue was full or closed"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_seconds", "HTTP request duration", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordIngestOutcome counts one resolved upload item.
func RecordIngestOutcome(outcome string) {
	globalManager.ingestOutcomes.WithLabelValues(outcome).Inc()
}

// RecordBatchCompleted counts a finished batch and observes its duration.
func RecordBatchCompleted(state string, seconds float64) {
	globalManager.batchesCompleted.WithLabelValues(state).Inc()
	globalManager.batchDuration.Observe(seconds)
}

// RecordAnalysisAttempt counts one analysis call and observes its latency.
func RecordAnalysisAttempt(result string, seconds float64) {
	globalManager.analysisAttempts.WithLabelValues(result).Inc()
	globalManager.analysisLatency.Observe(seconds)
}

// RecordRateLimited counts a rate-limited analysis call.
func RecordRateLimited() {
	globalManager.rateLimitHits.Inc()
}

// RecordWait observes a pipeline wait.
func RecordWait(seconds float64) {
	globalManager.retryWaitSeconds.Observe(seconds)
}

// UpdateRosterSize sets the active roster size.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// RecordProfileSave counts a profile save.
func RecordProfileSave(result string) {
	globalManager.profileSaves.WithLabelValues(result).Inc()
}

// RecordBackup counts a backup run result.
func RecordBackup(result string) {
	globalManager.backups.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted batch.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected counts a batch the queue refused.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
