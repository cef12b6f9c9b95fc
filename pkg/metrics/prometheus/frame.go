package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lattice3d/assetstream/pkg/framebudget"
	"github.com/lattice3d/assetstream/pkg/metrics"
)

// frameMetrics is the Prometheus implementation of framebudget.Metrics.
type frameMetrics struct {
	overruns        *prometheus.CounterVec
	overrunDuration *prometheus.HistogramVec
	jankFrames      prometheus.Counter
	jankDelta       prometheus.Histogram
}

// NewFrameMetrics creates a Prometheus-backed framebudget.Metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFrameMetrics() framebudget.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &frameMetrics{
		overruns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstream_frame_overruns_total",
				Help: "Total number of work budget overruns by job label",
			},
			[]string{"job"},
		),
		overrunDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "assetstream_frame_overrun_milliseconds",
				Help: "Magnitude of work budget overruns in milliseconds",
				Buckets: []float64{
					0.5, // barely over
					1,
					2,
					5,
					10,
					16.7, // a whole frame lost
					33.3,
				},
			},
			[]string{"job"},
		),
		jankFrames: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "assetstream_jank_frames_total",
				Help: "Total number of frames whose inter-frame delta exceeded the jank threshold",
			},
		),
		jankDelta: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "assetstream_jank_delta_milliseconds",
				Help: "Inter-frame delta of jank frames in milliseconds",
				Buckets: []float64{
					50, 75, 100, 150, 250, 500, 1000,
				},
			},
		),
	}
}

func (m *frameMetrics) RecordOverrun(label string, over time.Duration) {
	if m == nil {
		return
	}
	m.overruns.WithLabelValues(label).Inc()
	m.overrunDuration.WithLabelValues(label).Observe(float64(over.Microseconds()) / 1000)
}

func (m *frameMetrics) RecordJank(delta time.Duration) {
	if m == nil {
		return
	}
	m.jankFrames.Inc()
	m.jankDelta.Observe(float64(delta.Milliseconds()))
}
