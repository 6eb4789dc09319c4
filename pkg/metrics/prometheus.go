// Package metrics provides Prometheus metrics for the PQA scoring service.
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

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Ingestion Metrics - Signal intake quality
	signalsIngested  prometheus.Counter
	signalsDuplicate prometheus.Counter

	// Trigger Metrics - Recompute demand and coalescing
	triggersEnqueued  *prometheus.CounterVec
	triggersCoalesced prometheus.Counter

	// Pass Metrics - Scoring pass outcomes
	passesCompleted     prometheus.Counter
	passesSuperseded    prometheus.Counter
	passesFailed        prometheus.Counter
	passesTimedOut      prometheus.Counter
	passesRetried       prometheus.Counter
	accountsMarkedStale prometheus.Counter
	passLatency         prometheus.Histogram
	aggregationLatency  prometheus.Histogram
	trendTransitions    *prometheus.CounterVec

	// Snapshot Store Metrics - History growth and retention
	snapshotsAppended       prometheus.Counter
	snapshotsPruned         prometheus.Counter
	accountsTotal           prometheus.Gauge
	accountsByTier          *prometheus.GaugeVec
	repositoryAppendLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue Metrics - Trigger queue performance
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueueError prometheus.Counter

	// Worker Metrics - Processing capacity
	workerCount prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "pqa",
		subsystem:        "scoring",
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

	// Ingestion Metrics
	m.signalsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_ingested_total",
		Help:      "Total number of signals accepted for processing",
	})

	m.signalsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_duplicate_total",
		Help:      "Total number of duplicate signals detected (indicates data quality)",
	})

	// Trigger Metrics
	m.triggersEnqueued = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "triggers_enqueued_total",
			Help:      "Total number of recompute triggers enqueued by reason",
		},
		[]string{"reason"},
	)

	m.triggersCoalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_coalesced_total",
		Help:      "Total number of triggers folded into a queued or in-flight pass",
	})

	// Pass Metrics
	m.passesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_completed_total",
		Help:      "Total number of scoring passes that committed a snapshot",
	})

	m.passesSuperseded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_superseded_total",
		Help:      "Total number of passes discarded because a fresher pass committed first",
	})

	m.passesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_failed_total",
		Help:      "Total number of scoring passes that failed",
	})

	m.passesTimedOut = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_timed_out_total",
		Help:      "Total number of scoring passes abandoned at the pass timeout",
	})

	m.passesRetried = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_retried_total",
		Help:      "Total number of inline pass retries after transient failures",
	})

	m.accountsMarkedStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "accounts_marked_stale_total",
		Help:      "Total number of accounts left stale after exhausting pass retries",
	})

	m.passLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pass_latency_milliseconds",
		Help:      "Histogram of full scoring pass latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Histogram of factor aggregation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trendTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "trend_transitions_total",
			Help:      "Total number of snapshots committed per trend classification",
		},
		[]string{"trend"},
	)

	// Snapshot Store Metrics
	m.snapshotsAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_appended_total",
		Help:      "Total number of snapshots appended to score history",
	})

	m.snapshotsPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_pruned_total",
		Help:      "Total number of snapshots dropped by retention pruning",
	})

	m.accountsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "accounts_total",
		Help:      "Total number of accounts with at least one snapshot (business scale)",
	})

	m.accountsByTier = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "accounts_by_tier",
			Help:      "Number of accounts currently in each tier",
		},
		[]string{"tier"},
	)

	m.repositoryAppendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_append_latency_milliseconds",
		Help:      "Snapshot append latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Snapshot query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Queue Metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the trigger queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum trigger queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Trigger queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of enqueue errors",
	})

	// Worker Metrics
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of recompute workers (processing capacity)",
	})

	// HTTP Performance Metrics
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
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Ingestion Metrics Functions.

// RecordSignalIngested increments the ingested signals counter.
func RecordSignalIngested() {
	globalManager.signalsIngested.Inc()
}

// RecordSignalDuplicate increments the duplicate signals counter.
func RecordSignalDuplicate() {
	globalManager.signalsDuplicate.Inc()
}

// Trigger Metrics Functions.

// RecordTriggerEnqueued increments the enqueued triggers counter for a reason.
func RecordTriggerEnqueued(reason string) {
	globalManager.triggersEnqueued.WithLabelValues(reason).Inc()
}

// RecordTriggerCoalesced increments the coalesced triggers counter.
func RecordTriggerCoalesced() {
	globalManager.triggersCoalesced.Inc()
}

// Pass Metrics Functions.

// RecordPassCompleted increments the completed passes counter.
func RecordPassCompleted() {
	globalManager.passesCompleted.Inc()
}

// RecordPassSuperseded increments the superseded passes counter.
func RecordPassSuperseded() {
	globalManager.passesSuperseded.Inc()
}

// RecordPassFailed increments the failed passes counter.
func RecordPassFailed() {
	globalManager.passesFailed.Inc()
}

// RecordPassTimedOut increments the timed-out passes counter.
func RecordPassTimedOut() {
	globalManager.passesTimedOut.Inc()
}

// RecordPassRetried increments the pass retry counter.
func RecordPassRetried() {
	globalManager.passesRetried.Inc()
}

// RecordAccountMarkedStale increments the stale accounts counter.
func RecordAccountMarkedStale() {
	globalManager.accountsMarkedStale.Inc()
}

// RecordPassLatency records full pass latency in milliseconds.
func RecordPassLatency(latencyMs float64) {
	globalManager.passLatency.Observe(latencyMs)
}

// RecordAggregationLatency records factor aggregation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordTrendTransition increments the committed-snapshot counter for a trend.
func RecordTrendTransition(trend string) {
	globalManager.trendTransitions.WithLabelValues(trend).Inc()
}

// Snapshot Store Metrics Functions.

// RecordSnapshotAppended increments the appended snapshots counter.
func RecordSnapshotAppended() {
	globalManager.snapshotsAppended.Inc()
}

// RecordSnapshotsPruned adds to the pruned snapshots counter.
func RecordSnapshotsPruned(count int) {
	globalManager.snapshotsPruned.Add(float64(count))
}

// UpdateAccountsTotal sets the total scored accounts gauge.
func UpdateAccountsTotal(count int) {
	globalManager.accountsTotal.Set(float64(count))
}

// UpdateAccountsByTier sets the account count gauge for a tier.
func UpdateAccountsByTier(tier string, count int) {
	globalManager.accountsByTier.WithLabelValues(tier).Set(float64(count))
}

// RecordRepositoryAppendLatency records snapshot append latency.
func RecordRepositoryAppendLatency(latencyMs float64) {
	globalManager.repositoryAppendLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records snapshot query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
