// Package metrics exposes Prometheus metrics for the Kudosly service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service records into.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	webhooksReceived   *prometheus.CounterVec
	webhooksDuplicate  *prometheus.CounterVec
	effortsIngested    *prometheus.CounterVec
	effortsProcessed   prometheus.Counter
	classifications    *prometheus.CounterVec
	impactScores       prometheus.Histogram
	recognitions       *prometheus.CounterVec
	badgeAwards        *prometheus.CounterVec
	digestsGenerated   *prometheus.CounterVec
	stageFailures      *prometheus.CounterVec
	pipelineLatency    prometheus.Histogram
	directoryCacheHits *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// Repository
	repositoryLatency *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton recorder behind the package functions

// Custom registry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kudosly",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.webhooksReceived = auto.NewCounterVec(m.counterOpts("webhooks_received_total", "Webhook deliveries by source and outcome"), []string{"source", "outcome"})
	m.webhooksDuplicate = auto.NewCounterVec(m.counterOpts("webhooks_duplicate_total", "Redelivered webhooks dropped by delivery id"), []string{"source"})
	m.effortsIngested = auto.NewCounterVec(m.counterOpts("efforts_ingested_total", "Efforts persisted after normalization"), []string{"source"})
	m.effortsProcessed = auto.NewCounter(m.counterOpts("efforts_processed_total", "Efforts that completed the pipeline"))
	m.classifications = auto.NewCounterVec(m.counterOpts("classifications_total", "Efforts classified by category and method"), []string{"category", "method"})
	m.impactScores = auto.NewHistogram(m.histogramOpts("impact_score", "Distribution of effort impact scores", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	m.recognitions = auto.NewCounterVec(m.counterOpts("recognitions_total", "Recognitions generated by category"), []string{"category"})
	m.badgeAwards = auto.NewCounterVec(m.counterOpts("badge_awards_total", "Badge awards by badge and whether the award was new"), []string{"badge", "created"})
	m.digestsGenerated = auto.NewCounterVec(m.counterOpts("digests_generated_total", "Weekly digests by outcome"), []string{"outcome"})
	m.stageFailures = auto.NewCounterVec(m.counterOpts("stage_failures_total", "Pipeline stage failures"), []string{"stage"})
	m.pipelineLatency = auto.NewHistogram(m.histogramOpts("pipeline_latency_milliseconds", "End to end pipeline latency per effort", m.histogramBuckets))
	m.directoryCacheHits = auto.NewCounterVec(m.counterOpts("directory_lookups_total", "Employee directory lookups by cache result"), []string{"result"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Tasks waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Tasks enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Tasks dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Per-task processing latency", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Tasks that finished with an error"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})

	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds", "Repository operation latency", m.histogramBuckets), []string{"operation"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordWebhook counts a webhook delivery outcome (accepted, rejected, unauthorized, limited).
func RecordWebhook(source, outcome string) {
	globalManager.webhooksReceived.WithLabelValues(source, outcome).Inc()
}

func RecordWebhookDuplicate(source string) {
	globalManager.webhooksDuplicate.WithLabelValues(source).Inc()
}

func RecordEffortIngested(source string) {
	globalManager.effortsIngested.WithLabelValues(source).Inc()
}

func RecordEffortProcessed() {
	globalManager.effortsProcessed.Inc()
}

// RecordClassification counts a classification; method is explicit, assistant or rules.
func RecordClassification(category, method string) {
	globalManager.classifications.WithLabelValues(category, method).Inc()
}

func RecordImpactScore(score int) {
	globalManager.impactScores.Observe(float64(score))
}

func RecordRecognition(category string) {
	globalManager.recognitions.WithLabelValues(category).Inc()
}

func RecordBadgeAward(badge string, created bool) {
	label := "false"
	if created {
		label = "true"
	}
	globalManager.badgeAwards.WithLabelValues(badge, label).Inc()
}

func RecordDigest(outcome string) {
	globalManager.digestsGenerated.WithLabelValues(outcome).Inc()
}

func RecordStageFailure(stage string) {
	globalManager.stageFailures.WithLabelValues(stage).Inc()
}

func RecordPipelineLatency(latencyMs float64) {
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordDirectoryLookup counts a directory lookup; result is hit, miss or error.
func RecordDirectoryLookup(result string) {
	globalManager.directoryCacheHits.WithLabelValues(result).Inc()
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
