// Package metrics provides Prometheus metrics for the dropzone analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the dropzone service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Scheduler Metrics - admission queue health
	schedulerQueueDepth    prometheus.Gauge
	schedulerAdmissions    prometheus.Counter
	schedulerRequeues      prometheus.Counter
	schedulerAdmissionWait prometheus.Histogram
	schedulerMinSpacingMS  prometheus.Gauge
	schedulerWindowUsage   prometheus.Gauge

	// Fetch Metrics - upstream call outcomes
	fetchAttempts prometheus.Counter
	fetchRetries  prometheus.Counter
	fetchOutcomes *prometheus.CounterVec
	fetchLatency  prometheus.Histogram

	// Cache Metrics - per-tier effectiveness
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheWrites      *prometheus.CounterVec
	cacheWriteErrors *prometheus.CounterVec
	cacheEvictions   prometheus.Counter

	// Aggregation Metrics - telemetry folding
	eventsProcessed    prometheus.Counter
	eventsSkipped      prometheus.Counter
	matchesAggregated  prometheus.Counter
	aggregationLatency prometheus.Histogram

	// Classification Metrics
	classificationVerdicts *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dropzone",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Scheduler Metrics - the admission queue is the primary backpressure point
	m.schedulerQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_queue_depth",
		Help:      "Current number of requests waiting for admission",
	})

	m.schedulerAdmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_admissions_total",
		Help:      "Total number of requests admitted to the upstream provider",
	})

	m.schedulerRequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_requeues_total",
		Help:      "Total number of requests pushed back to the queue head on quota or spacing waits",
	})

	m.schedulerAdmissionWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_admission_wait_milliseconds",
		Help:      "Histogram of time requests spend waiting for admission in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.schedulerMinSpacingMS = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_min_spacing_milliseconds",
		Help:      "Current per-endpoint minimum spacing (grows when upstream quota runs low)",
	})

	m.schedulerWindowUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_window_usage_ratio",
		Help:      "Admissions in the trailing window divided by the window quota",
	})

	// Fetch Metrics - upstream reliability indicators
	m.fetchAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_attempts_total",
		Help:      "Total number of upstream request attempts including retries",
	})

	m.fetchRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_retries_total",
		Help:      "Total number of retried upstream attempts",
	})

	m.fetchOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_outcomes_total",
			Help:      "Total fetch outcomes by classification (success, not_found, throttled, transient, terminal)",
		},
		[]string{"outcome"},
	)

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_latency_milliseconds",
		Help:      "Histogram of single upstream attempt latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Cache Metrics - hit rates per tier drive upstream call volume
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_hits_total",
			Help:      "Total cache hits by tier (local, remote)",
		},
		[]string{"tier"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_misses_total",
			Help:      "Total cache misses by tier (local, remote)",
		},
		[]string{"tier"},
	)

	m.cacheWrites = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_writes_total",
			Help:      "Total cache writes by tier (local, remote)",
		},
		[]string{"tier"},
	)

	m.cacheWriteErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_write_errors_total",
			Help:      "Total cache write errors by tier (remote failures are tolerated)",
		},
		[]string{"tier"},
	)

	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_evictions_total",
		Help:      "Total entries evicted after an expiry was detected on read",
	})

	// Aggregation Metrics - telemetry folding throughput
	m.eventsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_events_processed_total",
		Help:      "Total number of telemetry events folded into aggregates",
	})

	m.eventsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_events_skipped_total",
		Help:      "Total number of telemetry events skipped (unknown kind or unknown account)",
	})

	m.matchesAggregated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_aggregated_total",
		Help:      "Total number of matches fully aggregated",
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Histogram of full aggregation latency per match in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Classification Metrics
	m.classificationVerdicts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "classification_verdicts_total",
			Help:      "Total classification verdicts by type (ranked, custom, public)",
		},
		[]string{"verdict"},
	)

	// HTTP Performance Metrics - user experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers on the global manager.

// UpdateSchedulerQueueDepth sets the current admission queue depth.
func UpdateSchedulerQueueDepth(depth int) {
	globalManager.schedulerQueueDepth.Set(float64(depth))
}

// RecordSchedulerAdmission increments the admissions counter.
func RecordSchedulerAdmission() {
	globalManager.schedulerAdmissions.Inc()
}

// RecordSchedulerRequeue increments the requeue counter.
func RecordSchedulerRequeue() {
	globalManager.schedulerRequeues.Inc()
}

// RecordSchedulerAdmissionWait records how long a request waited for admission.
func RecordSchedulerAdmissionWait(waitMs float64) {
	globalManager.schedulerAdmissionWait.Observe(waitMs)
}

// UpdateSchedulerMinSpacing sets the current per-endpoint minimum spacing.
func UpdateSchedulerMinSpacing(spacing time.Duration) {
	globalManager.schedulerMinSpacingMS.Set(float64(spacing.Milliseconds()))
}

// UpdateSchedulerWindowUsage sets the trailing-window quota usage ratio.
func UpdateSchedulerWindowUsage(ratio float64) {
	globalManager.schedulerWindowUsage.Set(ratio)
}

// RecordFetchAttempt increments the attempt counter.
func RecordFetchAttempt() {
	globalManager.fetchAttempts.Inc()
}

// RecordFetchRetry increments the retry counter.
func RecordFetchRetry() {
	globalManager.fetchRetries.Inc()
}

// RecordFetchOutcome increments the outcome counter for a classification.
func RecordFetchOutcome(outcome string) {
	globalManager.fetchOutcomes.WithLabelValues(outcome).Inc()
}

// RecordFetchLatency records the latency of a single upstream attempt.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordCacheHit increments the hit counter for a tier.
func RecordCacheHit(tier string) {
	globalManager.cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss increments the miss counter for a tier.
func RecordCacheMiss(tier string) {
	globalManager.cacheMisses.WithLabelValues(tier).Inc()
}

// RecordCacheWrite increments the write counter for a tier.
func RecordCacheWrite(tier string) {
	globalManager.cacheWrites.WithLabelValues(tier).Inc()
}

// RecordCacheWriteError increments the write error counter for a tier.
func RecordCacheWriteError(tier string) {
	globalManager.cacheWriteErrors.WithLabelValues(tier).Inc()
}

// RecordCacheEviction increments the eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// RecordEventProcessed increments the processed event counter.
func RecordEventProcessed() {
	globalManager.eventsProcessed.Inc()
}

// RecordEventSkipped increments the skipped event counter.
func RecordEventSkipped() {
	globalManager.eventsSkipped.Inc()
}

// RecordMatchAggregated increments the aggregated match counter.
func RecordMatchAggregated() {
	globalManager.matchesAggregated.Inc()
}

// RecordAggregationLatency records the latency of a full aggregation pass.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordClassificationVerdict increments the verdict counter.
func RecordClassificationVerdict(verdict string) {
	globalManager.classificationVerdicts.WithLabelValues(verdict).Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
