package metrics

import "github.com/lattice3d/assetstream/pkg/engine"

// NewEngineMetrics creates a Prometheus-backed engine.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called); the
// engine treats a nil sink as disabled with zero overhead.
func NewEngineMetrics() engine.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusEngineMetrics()
}

// newPrometheusEngineMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle while keeping the API clean.
var newPrometheusEngineMetrics func() engine.Metrics

// RegisterEngineMetricsConstructor registers the Prometheus engine
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterEngineMetricsConstructor(constructor func() engine.Metrics) {
	newPrometheusEngineMetrics = constructor
}
