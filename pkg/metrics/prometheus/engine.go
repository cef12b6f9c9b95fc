// Package prometheus holds the Prometheus implementations of the metric
// sink interfaces defined by the engine packages. It registers its
// constructors with pkg/metrics at package initialization; nothing here
// is used directly.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lattice3d/assetstream/pkg/engine"
	"github.com/lattice3d/assetstream/pkg/metrics"
)

func init() {
	metrics.RegisterEngineMetricsConstructor(NewEngineMetrics)
	metrics.RegisterPoolMetricsConstructor(NewPoolMetrics)
	metrics.RegisterFrameMetricsConstructor(NewFrameMetrics)
}

// engineMetrics is the Prometheus implementation of engine.Metrics.
type engineMetrics struct {
	loadsStarted   *prometheus.CounterVec
	loadsCompleted *prometheus.CounterVec
	loadErrors     *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	loadBytes      *prometheus.HistogramVec
	reactivations  prometheus.Counter
	evictions      *prometheus.CounterVec
	evictedBytes   *prometheus.CounterVec
	memoryUsed     prometheus.Gauge
	memoryBudget   prometheus.Gauge
	queueLength    prometheus.Gauge
	activeLoads    prometheus.Gauge
}

// NewEngineMetrics creates a Prometheus-backed engine.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewEngineMetrics() engine.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &engineMetrics{
		loadsStarted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_loads_started_total",
				Help: "Total number of asset loads started by asset type",
			},
			[]string{"asset_type"},
		),
		loadsCompleted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_loads_completed_total",
				Help: "Total number of asset loads completed by asset type",
			},
			[]string{"asset_type"},
		),
		loadErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_load_errors_total",
				Help: "Total number of failed asset loads by asset type",
			},
			[]string{"asset_type"},
		),
		loadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "assetstream_load_duration_milliseconds",
				Help: "Duration of asset loads in milliseconds",
				Buckets: []float64{
					10,    // 10ms - tiny textures
					50,    // 50ms
					100,   // 100ms
					250,   // 250ms
					500,   // 500ms
					1000,  // 1s - typical model
					2500,  // 2.5s
					5000,  // 5s
					10000, // 10s - HDRI over slow link
				},
			},
			[]string{"asset_type"},
		),
		loadBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "assetstream_load_bytes",
				Help: "Distribution of loaded asset sizes in bytes",
				Buckets: []float64{
					65536,     // 64KB
					262144,    // 256KB
					1048576,   // 1MB
					4194304,   // 4MB
					16777216,  // 16MB
					67108864,  // 64MB
					268435456, // 256MB
				},
			},
			[]string{"asset_type"},
		),
		reactivations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_reactivations_total",
				Help: "Total number of loads satisfied from the pool without a loader invocation",
			},
		),
		evictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_evictions_total",
				Help: "Total number of cache evictions by kind (soft, hard)",
			},
			[]string{"kind"},
		),
		evictedBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_evicted_bytes_total",
				Help: "Total bytes evicted from the active cache by kind",
			},
			[]string{"kind"},
		),
		memoryUsed: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_memory_used_bytes",
				Help: "Current active cache memory usage in bytes",
			},
		),
		memoryBudget: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_memory_budget_bytes",
				Help: "Active memory budget in bytes, selected by the quality tier",
			},
		),
		queueLength: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_preload_queue_length",
				Help: "Current number of queued preload tasks",
			},
		),
		activeLoads: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_active_loads",
				Help: "Current number of in-flight asset loads",
			},
		),
	}
}

func (m *engineMetrics) RecordLoadStart(assetType string) {
	if m == nil {
		return
	}
	m.loadsStarted.WithLabelValues(assetType).Inc()
}

func (m *engineMetrics) RecordLoadComplete(assetType string, bytes uint64, duration time.Duration) {
	if m == nil {
		return
	}
	m.loadsCompleted.WithLabelValues(assetType).Inc()
	m.loadDuration.WithLabelValues(assetType).Observe(float64(duration.Milliseconds()))
	m.loadBytes.WithLabelValues(assetType).Observe(float64(bytes))
}

func (m *engineMetrics) RecordLoadError(assetType string) {
	if m == nil {
		return
	}
	m.loadErrors.WithLabelValues(assetType).Inc()
}

func (m *engineMetrics) RecordPoolReactivation() {
	if m == nil {
		return
	}
	m.reactivations.Inc()
}

func (m *engineMetrics) RecordEviction(kind string, bytes uint64) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(kind).Inc()
	m.evictedBytes.WithLabelValues(kind).Add(float64(bytes))
}

func (m *engineMetrics) RecordMemory(used, budget uint64) {
	if m == nil {
		return
	}
	m.memoryUsed.Set(float64(used))
	m.memoryBudget.Set(float64(budget))
}

func (m *engineMetrics) RecordQueueLength(n int) {
	if m == nil {
		return
	}
	m.queueLength.Set(float64(n))
}

func (m *engineMetrics) RecordActiveLoads(n int) {
	if m == nil {
		return
	}
	m.activeLoads.Set(float64(n))
}
