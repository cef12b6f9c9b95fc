package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lattice3d/assetstream/pkg/assetpool"
	"github.com/lattice3d/assetstream/pkg/metrics"
)

// poolMetrics is the Prometheus implementation of assetpool.Metrics.
type poolMetrics struct {
	adds         prometheus.Counter
	addedBytes   prometheus.Counter
	hits         prometheus.Counter
	evictions    prometheus.Counter
	evictedBytes prometheus.Counter
	size         prometheus.Gauge
	count        prometheus.Gauge
}

// NewPoolMetrics creates a Prometheus-backed assetpool.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewPoolMetrics() assetpool.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &poolMetrics{
		adds: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_adds_total",
				Help: "Total number of entries soft-removed into the pool",
			},
		),
		addedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_added_bytes_total",
				Help: "Total bytes soft-removed into the pool",
			},
		),
		hits: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_hits_total",
				Help: "Total number of pool retrievals",
			},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_evictions_total",
				Help: "Total number of pooled entries hard-disposed to make room",
			},
		),
		evictedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_pool_evicted_bytes_total",
				Help: "Total bytes hard-disposed from the pool",
			},
		),
		size: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_pool_size_bytes",
				Help: "Current total size of pooled entries in bytes",
			},
		),
		count: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstream_pool_entries",
				Help: "Current number of pooled entries",
			},
		),
	}
}

func (m *poolMetrics) RecordAdd(bytes uint64) {
	if m == nil {
		return
	}
	m.adds.Inc()
	m.addedBytes.Add(float64(bytes))
}

func (m *poolMetrics) RecordHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *poolMetrics) RecordEviction(bytes uint64) {
	if m == nil {
		return
	}
	m.evictions.Inc()
	m.evictedBytes.Add(float64(bytes))
}

func (m *poolMetrics) RecordSize(bytes uint64, count int) {
	if m == nil {
		return
	}
	m.size.Set(float64(bytes))
	m.count.Set(float64(count))
}
