package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the planner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Editing
	editsApplied *prometheus.CounterVec

	// Save pipeline
	savesAttempted prometheus.Counter
	savesSucceeded prometheus.Counter
	saveConflicts  prometheus.Counter
	savesCoalesced prometheus.Counter
	savesDiscarded prometheus.Counter
	savesPending   prometheus.Gauge
	saveLatency    prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Store
	storePeriodsTotal  prometheus.Gauge
	storeTeamsTotal    prometheus.Gauge
	storeBackupsTotal  prometheus.Counter
	storeQueryLatency  prometheus.Histogram
	storeUpdateLatency prometheus.Histogram

	// Errors
	errorsByComponent *prometheus.CounterVec
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
		namespace:        "resplan",
		subsystem:        "planner",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
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
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.editsApplied = auto.NewCounterVec(
		m.counterOpts("edits_applied_total", "Total number of period edits applied, by operation"),
		[]string{"operation"},
	)

	m.savesAttempted = auto.NewCounter(m.counterOpts("saves_attempted_total", "Total number of period writes attempted"))
	m.savesSucceeded = auto.NewCounter(m.counterOpts("saves_succeeded_total", "Total number of period writes that succeeded"))
	m.saveConflicts = auto.NewCounter(m.counterOpts("save_conflicts_total", "Total number of period writes rejected as concurrent modifications"))
	m.savesCoalesced = auto.NewCounter(m.counterOpts("saves_coalesced_total", "Total number of snapshots superseded before being written"))
	m.savesDiscarded = auto.NewCounter(m.counterOpts("saves_discarded_total", "Total number of snapshots dropped by a reload before being written"))
	m.savesPending = auto.NewGauge(m.gaugeOpts("saves_pending", "Number of periods waiting for their debounce window to close"))
	m.saveLatency = auto.NewHistogram(m.histogramOpts("save_latency_milliseconds", "Period write latency in milliseconds"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of snapshots in the save queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the save queue"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of snapshots enqueued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of snapshots rejected by a full or closed queue"))

	m.storePeriodsTotal = auto.NewGauge(m.gaugeOpts("store_periods_total", "Number of periods held by the store"))
	m.storeTeamsTotal = auto.NewGauge(m.gaugeOpts("store_teams_total", "Number of teams held by the store"))
	m.storeBackupsTotal = auto.NewCounter(m.counterOpts("store_backups_total", "Total number of period backups written"))
	m.storeQueryLatency = auto.NewHistogram(m.histogramOpts("store_query_latency_milliseconds", "Store read latency in milliseconds"))
	m.storeUpdateLatency = auto.NewHistogram(m.histogramOpts("store_update_latency_milliseconds", "Store write latency in milliseconds"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordEditApplied counts one applied edit of the named operation.
func RecordEditApplied(operation string) {
	globalManager.editsApplied.WithLabelValues(operation).Inc()
}

// RecordSaveAttempt counts a period write about to be issued.
func RecordSaveAttempt() {
	globalManager.savesAttempted.Inc()
}

// RecordSaveSuccess counts a successful write and records its latency.
func RecordSaveSuccess(latencyMs float64) {
	globalManager.savesSucceeded.Inc()
	globalManager.saveLatency.Observe(latencyMs)
}

// RecordSaveConflict counts a write rejected by the concurrency token check.
func RecordSaveConflict() {
	globalManager.saveConflicts.Inc()
}

// RecordSaveCoalesced counts a snapshot replaced by a newer one before it was written.
func RecordSaveCoalesced() {
	globalManager.savesCoalesced.Inc()
}

// RecordSaveDiscarded counts a snapshot dropped by a reload before it was written.
func RecordSaveDiscarded() {
	globalManager.savesDiscarded.Inc()
}

// UpdateSavesPending sets the number of periods waiting to be written.
func UpdateSavesPending(count int) {
	globalManager.savesPending.Set(float64(count))
}

// UpdateQueueSize sets the save queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the save queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted snapshot.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueEnqueueError counts a rejected snapshot.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateStorePeriodsTotal sets the number of stored periods.
func UpdateStorePeriodsTotal(count int) {
	globalManager.storePeriodsTotal.Set(float64(count))
}

// UpdateStoreTeamsTotal sets the number of stored teams.
func UpdateStoreTeamsTotal(count int) {
	globalManager.storeTeamsTotal.Set(float64(count))
}

// RecordPeriodBackup counts a backup written on update.
func RecordPeriodBackup() {
	globalManager.storeBackupsTotal.Inc()
}

// RecordStoreQueryLatency records store read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreUpdateLatency records store write latency in milliseconds.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry for metrics exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
