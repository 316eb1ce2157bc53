// Package metrics provides Prometheus metrics for the podium aggregation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Upstream analytics API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec

	// Query cache
	cacheLookups  *prometheus.CounterVec
	cacheEntries  *prometheus.GaugeVec
	sharedFetches *prometheus.CounterVec

	// Aggregation facade
	aggregations       *prometheus.CounterVec
	aggregationLatency *prometheus.HistogramVec
	staleDiscards      *prometheus.CounterVec
	seriesDropped      *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "aggregator",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Upstream analytics API requests by endpoint and outcome", "endpoint", "outcome")
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds",
		"Upstream analytics API latency in milliseconds", "endpoint")
	m.upstreamRetries = m.counterVec("upstream_retries_total",
		"Upstream requests retried after a transient failure", "endpoint")

	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Query cache lookups by cache and result (hit/miss)", "cache", "result")
	m.cacheEntries = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_entries",
		Help:        "Number of entries held by each query cache",
		ConstLabels: m.customLabels,
	}, []string{"cache"})
	m.sharedFetches = m.counterVec("shared_fetches_total",
		"Requests that joined an already in-flight upstream fetch", "cache")

	m.aggregations = m.counterVec("aggregations_total",
		"Aggregated requests by kind and final status", "kind", "status")
	m.aggregationLatency = m.histogramVec("aggregation_latency_milliseconds",
		"Aggregated request latency in milliseconds", "kind")
	m.staleDiscards = m.counterVec("stale_discards_total",
		"Responses discarded because the view selection changed", "view")
	m.seriesDropped = m.counterVec("series_categories_dropped_total",
		"Series categories dropped during normalization by reason", "reason")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordUpstreamRequest counts one upstream request with its outcome and latency.
func (m *Manager) RecordUpstreamRequest(endpoint, outcome string, latencyMs float64) {
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordUpstreamRetry counts a retried upstream request.
func (m *Manager) RecordUpstreamRetry(endpoint string) {
	m.upstreamRetries.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Manager) RecordCacheLookup(cache, result string) {
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// UpdateCacheEntries sets the entry count of a cache.
func (m *Manager) UpdateCacheEntries(cache string, n int) {
	m.cacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordSharedFetch counts a caller that joined an in-flight fetch.
func (m *Manager) RecordSharedFetch(cache string) {
	m.sharedFetches.WithLabelValues(cache).Inc()
}

// RecordAggregation counts an aggregated request and observes its latency.
func (m *Manager) RecordAggregation(kind, status string, latencyMs float64) {
	m.aggregations.WithLabelValues(kind, status).Inc()
	m.aggregationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordStaleDiscard counts a response dropped by a view.
func (m *Manager) RecordStaleDiscard(view string) {
	m.staleDiscards.WithLabelValues(view).Inc()
}

// RecordSeriesDropped counts categories dropped by the normalizer.
func (m *Manager) RecordSeriesDropped(reason string, n int) {
	if n > 0 {
		m.seriesDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request with its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers delegate to the global manager.

// RecordUpstreamRequest counts one upstream request on the global manager.
func RecordUpstreamRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.RecordUpstreamRequest(endpoint, outcome, latencyMs)
}

// RecordUpstreamRetry counts a retried upstream request.
func RecordUpstreamRetry(endpoint string) {
	globalManager.RecordUpstreamRetry(endpoint)
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cache, result string) {
	globalManager.RecordCacheLookup(cache, result)
}

// UpdateCacheEntries sets the entry count of a cache.
func UpdateCacheEntries(cache string, n int) {
	globalManager.UpdateCacheEntries(cache, n)
}

// RecordSharedFetch counts a caller that joined an in-flight fetch.
func RecordSharedFetch(cache string) {
	globalManager.RecordSharedFetch(cache)
}

// RecordAggregation counts an aggregated request and observes its latency.
func RecordAggregation(kind, status string, latencyMs float64) {
	globalManager.RecordAggregation(kind, status, latencyMs)
}

// RecordStaleDiscard counts a response dropped by a view.
func RecordStaleDiscard(view string) {
	globalManager.RecordStaleDiscard(view)
}

// RecordSeriesDropped counts categories dropped by the normalizer.
func RecordSeriesDropped(reason string, n int) {
	globalManager.RecordSeriesDropped(reason, n)
}

// RecordHTTPRequest records an HTTP request with its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
