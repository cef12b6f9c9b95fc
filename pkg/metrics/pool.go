package metrics

import "github.com/lattice3d/assetstream/pkg/assetpool"

// NewPoolMetrics creates a Prometheus-backed assetpool.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewPoolMetrics() assetpool.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusPoolMetrics()
}

var newPrometheusPoolMetrics func() assetpool.Metrics

// RegisterPoolMetricsConstructor registers the Prometheus pool metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterPoolMetricsConstructor(constructor func() assetpool.Metrics) {
	newPrometheusPoolMetrics = constructor
}
