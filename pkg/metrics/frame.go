package metrics

import "github.com/lattice3d/assetstream/pkg/framebudget"

// NewFrameMetrics creates a Prometheus-backed framebudget.Metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFrameMetrics() framebudget.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusFrameMetrics()
}

var newPrometheusFrameMetrics func() framebudget.Metrics

// RegisterFrameMetricsConstructor registers the Prometheus frame metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterFrameMetricsConstructor(constructor func() framebudget.Metrics) {
	newPrometheusFrameMetrics = constructor
}
