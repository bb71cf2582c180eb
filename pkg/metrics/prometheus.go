// Package metrics provides Prometheus metrics for the stockroom service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Store
	storeOperations     *prometheus.CounterVec
	storeLatency        *prometheus.HistogramVec
	itemsTotal          prometheus.Gauge
	categoriesTotal     prometheus.Gauge
	categoryMismatches  prometheus.Counter
	reconciliationsDone prometheus.Counter

	// Restocking alerts
	alertsEmitted        prometheus.Counter
	alertsDropped        prometheus.Counter
	alertsDelivered      prometheus.Counter
	alertQueueSize       prometheus.Gauge
	alertQueueCapacity   prometheus.Gauge
	alertDispatchLatency prometheus.Histogram
	alertWorkers         prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stockroom",
		subsystem:        "inventory",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.storeOperations = auto.NewCounterVec(
		m.counterOpts("store_operations_total", "Store operations by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_latency_milliseconds", "Store operation latency in milliseconds"),
		[]string{"operation"},
	)
	m.itemsTotal = auto.NewGauge(m.gaugeOpts("items_total", "Number of items held by the store"))
	m.categoriesTotal = auto.NewGauge(m.gaugeOpts("categories_total", "Number of non-empty categories"))
	m.categoryMismatches = auto.NewCounter(m.counterOpts(
		"category_mismatch_total", "Upserts for an existing id that named a different category",
	))
	m.reconciliationsDone = auto.NewCounter(m.counterOpts(
		"index_reconciliations_total", "Remove-and-reinsert passes over the ordered indexes",
	))

	m.alertsEmitted = auto.NewCounter(m.counterOpts("alerts_emitted_total", "Restocking alerts raised by the store"))
	m.alertsDropped = auto.NewCounter(m.counterOpts("alerts_dropped_total", "Restocking alerts dropped on a full queue"))
	m.alertsDelivered = auto.NewCounter(m.counterOpts("alerts_delivered_total", "Restocking alerts handed to sinks"))
	m.alertQueueSize = auto.NewGauge(m.gaugeOpts("alert_queue_size", "Alerts waiting for dispatch"))
	m.alertQueueCapacity = auto.NewGauge(m.gaugeOpts("alert_queue_capacity", "Alert queue capacity"))
	m.alertDispatchLatency = auto.NewHistogram(m.histogramOpts(
		"alert_dispatch_latency_milliseconds", "Time spent delivering one alert to all sinks",
	))
	m.alertWorkers = auto.NewGauge(m.gaugeOpts("alert_workers", "Running alert dispatch workers"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RefreshInterval returns how often gauges should be refreshed by pollers.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RecordStoreOperation counts one store operation with its outcome.
func (m *Manager) RecordStoreOperation(operation, outcome string, latency time.Duration) {
	if !m.enabled {
		return
	}
	m.storeOperations.WithLabelValues(operation, outcome).Inc()
	m.storeLatency.WithLabelValues(operation).Observe(float64(latency.Microseconds()) / 1000)
}

// UpdateStoreSize sets the item and category gauges.
func (m *Manager) UpdateStoreSize(items, categories int) {
	if !m.enabled {
		return
	}
	m.itemsTotal.Set(float64(items))
	m.categoriesTotal.Set(float64(categories))
}

// RecordCategoryMismatch counts an upsert whose category disagreed with the stored one.
func (m *Manager) RecordCategoryMismatch() {
	if m.enabled {
		m.categoryMismatches.Inc()
	}
}

// RecordReconciliation counts one remove-and-reinsert pass.
func (m *Manager) RecordReconciliation() {
	if m.enabled {
		m.reconciliationsDone.Inc()
	}
}

// RecordAlertEmitted counts an alert raised by the store.
func (m *Manager) RecordAlertEmitted() {
	if m.enabled {
		m.alertsEmitted.Inc()
	}
}

// RecordAlertDropped counts an alert that could not be queued.
func (m *Manager) RecordAlertDropped() {
	if m.enabled {
		m.alertsDropped.Inc()
	}
}

// RecordAlertDelivered counts an alert dispatched to sinks.
func (m *Manager) RecordAlertDelivered(latency time.Duration) {
	if !m.enabled {
		return
	}
	m.alertsDelivered.Inc()
	m.alertDispatchLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// UpdateAlertQueue sets the alert queue gauges.
func (m *Manager) UpdateAlertQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.alertQueueSize.Set(float64(size))
	m.alertQueueCapacity.Set(float64(capacity))
}

// UpdateAlertWorkers sets the running dispatcher count.
func (m *Manager) UpdateAlertWorkers(count int) {
	if m.enabled {
		m.alertWorkers.Set(float64(count))
	}
}

// RecordHTTPRequest counts an HTTP request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised inside a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystem sets the process gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// Global returns the process-wide manager backing the package-level helpers.
func Global() *Manager { return globalManager }

// RecordStoreOperation records on the global manager.
func RecordStoreOperation(operation, outcome string, latency time.Duration) {
	globalManager.RecordStoreOperation(operation, outcome, latency)
}

// UpdateStoreSize records on the global manager.
func UpdateStoreSize(items, categories int) { globalManager.UpdateStoreSize(items, categories) }

// RecordCategoryMismatch records on the global manager.
func RecordCategoryMismatch() { globalManager.RecordCategoryMismatch() }

// RecordReconciliation records on the global manager.
func RecordReconciliation() { globalManager.RecordReconciliation() }

// RecordAlertEmitted records on the global manager.
func RecordAlertEmitted() { globalManager.RecordAlertEmitted() }

// RecordAlertDropped records on the global manager.
func RecordAlertDropped() { globalManager.RecordAlertDropped() }

// RecordAlertDelivered records on the global manager.
func RecordAlertDelivered(latency time.Duration) { globalManager.RecordAlertDelivered(latency) }

// UpdateAlertQueue records on the global manager.
func UpdateAlertQueue(size, capacity int) { globalManager.UpdateAlertQueue(size, capacity) }

// UpdateAlertWorkers records on the global manager.
func UpdateAlertWorkers(count int) { globalManager.UpdateAlertWorkers(count) }

// RecordHTTPRequest records on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByComponent records on the global manager.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByEndpoint records on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystem records on the global manager.
func UpdateSystem(memoryBytes uint64, goroutines int) { globalManager.UpdateSystem(memoryBytes, goroutines) }

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
