// Package metrics provides Prometheus metrics for the alpha scoring service.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	scoresComputed *prometheus.CounterVec
	scoreCache     *prometheus.CounterVec
	scoringLatency prometheus.Histogram
	scoringErrors  *prometheus.CounterVec

	// Batches
	batches        *prometheus.CounterVec
	batchEntities  *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	batchesRunning prometheus.Gauge

	// Calibration
	calibrationFits *prometheus.CounterVec
	calibrationR2   *prometheus.GaugeVec
	calibrationRMSE *prometheus.GaugeVec

	// Store
	storeReplaceDuration *prometheus.HistogramVec
	storeRows            prometheus.Gauge

	// Queue and workers
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process
	uptimeSeconds  prometheus.Gauge
	goroutineCount prometheus.Gauge
	memoryBytes    prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry without default Go collectors

var startedAt = time.Now() //nolint:gochecknoglobals // process start for uptime

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "alpha",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounterVec(
		m.counterOpts("scores_computed_total", "Score results computed, by position and trigger source"),
		[]string{"position", "source"},
	)
	m.scoreCache = auto.NewCounterVec(
		m.counterOpts("score_cache_total", "Single-entity cache lookups by result (hit, miss, bypass)"),
		[]string{"result"},
	)
	m.scoringLatency = auto.NewHistogram(
		m.histogramOpts("scoring_duration_seconds", "Time to score one entity end to end", m.histogramBuckets),
	)
	m.scoringErrors = auto.NewCounterVec(
		m.counterOpts("scoring_errors_total", "Scoring failures by kind (no_data, computation)"),
		[]string{"kind"},
	)

	m.batches = auto.NewCounterVec(
		m.counterOpts("batches_total", "Batch runs by terminal status"),
		[]string{"status"},
	)
	m.batchEntities = auto.NewCounterVec(
		m.counterOpts("batch_entities_total", "Entities handled by batch runs, by outcome"),
		[]string{"outcome"},
	)
	m.batchDuration = auto.NewHistogram(
		m.histogramOpts("batch_duration_seconds", "Batch run wall time", []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}),
	)
	m.batchesRunning = auto.NewGauge(m.gaugeOpts("batches_running", "Batch runs currently executing"))

	m.calibrationFits = auto.NewCounterVec(
		m.counterOpts("calibration_fits_total", "Calibration fits by position and status"),
		[]string{"position", "status"},
	)
	m.calibrationR2 = auto.NewGaugeVec(
		m.gaugeOpts("calibration_r2", "R squared of the latest calibration fit"),
		[]string{"position"},
	)
	m.calibrationRMSE = auto.NewGaugeVec(
		m.gaugeOpts("calibration_rmse", "Residual RMSE of the latest calibration fit"),
		[]string{"position"},
	)

	m.storeReplaceDuration = auto.NewHistogramVec(
		m.histogramOpts("store_replace_duration_seconds", "Atomic period replace latency", m.histogramBuckets),
		[]string{"driver"},
	)
	m.storeRows = auto.NewGauge(m.gaugeOpts("store_rows", "Score rows held by the store"))

	m.queueDepth = auto.NewGauge(m.gaugeOpts("queue_depth", "Batch jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Batch queue capacity"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Batch jobs rejected because the queue was full"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Batch workers running"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by route, method and status"),
		[]string{"route", "method", "status"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_seconds", "HTTP request latency", m.histogramBuckets),
		[]string{"route", "method"},
	)

	m.uptimeSeconds = auto.NewGauge(m.gaugeOpts("uptime_seconds", "Seconds since process start"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("goroutines", "Current goroutine count"))
	m.memoryBytes = auto.NewGauge(m.gaugeOpts("memory_alloc_bytes", "Heap bytes allocated"))
}

// RecordScoreComputed counts a freshly computed score.
func (m *Manager) RecordScoreComputed(position, source string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.scoresComputed.WithLabelValues(position, source).Inc()
	m.scoringLatency.Observe(d.Seconds())
}

// RecordCache counts a cache lookup outcome.
func (m *Manager) RecordCache(result string) {
	if !m.enabled {
		return
	}
	m.scoreCache.WithLabelValues(result).Inc()
}

// RecordScoringError counts a scoring failure.
func (m *Manager) RecordScoringError(kind string) {
	if !m.enabled {
		return
	}
	m.scoringErrors.WithLabelValues(kind).Inc()
}

// RecordBatch records a finished batch run.
func (m *Manager) RecordBatch(status string, processed, skipped, errs int64, d time.Duration) {
	if !m.enabled {
		return
	}
	m.batches.WithLabelValues(status).Inc()
	m.batchEntities.WithLabelValues("processed").Add(float64(processed))
	m.batchEntities.WithLabelValues("skipped").Add(float64(skipped))
	m.batchEntities.WithLabelValues("error").Add(float64(errs))
	m.batchDuration.Observe(d.Seconds())
}

// AddBatchesRunning adjusts the running batch gauge.
func (m *Manager) AddBatchesRunning(delta float64) {
	if !m.enabled {
		return
	}
	m.batchesRunning.Add(delta)
}

// RecordCalibrationFit records a fit attempt and, on success, its diagnostics.
func (m *Manager) RecordCalibrationFit(position, status string, r2, rmse float64) {
	if !m.enabled {
		return
	}
	m.calibrationFits.WithLabelValues(position, status).Inc()
	if status == "ok" {
		m.calibrationR2.WithLabelValues(position).Set(r2)
		m.calibrationRMSE.WithLabelValues(position).Set(rmse)
	}
}

// RecordStoreReplace observes an atomic period replace.
func (m *Manager) RecordStoreReplace(driver string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.storeReplaceDuration.WithLabelValues(driver).Observe(d.Seconds())
}

// UpdateStoreRows sets the stored row gauge.
func (m *Manager) UpdateStoreRows(n int) {
	if !m.enabled {
		return
	}
	m.storeRows.Set(float64(n))
}

// UpdateQueue sets queue depth and capacity.
func (m *Manager) UpdateQueue(depth, capacity int) {
	if !m.enabled {
		return
	}
	m.queueDepth.Set(float64(depth))
	m.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a rejected enqueue.
func (m *Manager) RecordQueueRejected() {
	if !m.enabled {
		return
	}
	m.queueRejected.Inc()
}

// UpdateWorkerCount sets the worker gauge.
func (m *Manager) UpdateWorkerCount(n int) {
	if !m.enabled {
		return
	}
	m.workerCount.Set(float64(n))
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(route, method, status string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// UpdateSystem refreshes process gauges.
func (m *Manager) UpdateSystem() {
	if !m.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.uptimeSeconds.Set(time.Since(startedAt).Seconds())
	m.goroutineCount.Set(float64(runtime.NumGoroutine()))
	m.memoryBytes.Set(float64(ms.Alloc))
}

// Global returns the process-wide manager.
func Global() *Manager { return globalManager }

// GetRegistry returns the custom registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level shortcuts on the global manager.

func RecordScoreComputed(position, source string, d time.Duration) {
	globalManager.RecordScoreComputed(position, source, d)
}
func RecordCache(result string)      { globalManager.RecordCache(result) }
func RecordScoringError(kind string) { globalManager.RecordScoringError(kind) }
func RecordBatch(status string, processed, skipped, errs int64, d time.Duration) {
	globalManager.RecordBatch(status, processed, skipped, errs, d)
}
func AddBatchesRunning(delta float64) { globalManager.AddBatchesRunning(delta) }
func RecordCalibrationFit(position, status string, r2, rmse float64) {
	globalManager.RecordCalibrationFit(position, status, r2, rmse)
}
func RecordStoreReplace(driver string, d time.Duration) { globalManager.RecordStoreReplace(driver, d) }
func UpdateStoreRows(n int)                             { globalManager.UpdateStoreRows(n) }
func UpdateQueue(depth, capacity int)                   { globalManager.UpdateQueue(depth, capacity) }
func RecordQueueRejected()                              { globalManager.RecordQueueRejected() }
func UpdateWorkerCount(n int)                           { globalManager.UpdateWorkerCount(n) }
func RecordHTTPRequest(route, method, status string, d time.Duration) {
	globalManager.RecordHTTPRequest(route, method, status, d)
}
func UpdateSystem() { globalManager.UpdateSystem() }
