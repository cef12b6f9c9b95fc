// Package framebudget measures the time spent on background streaming work
// within a render frame and reports whether more work should run.
//
// The work budget is a small allowance (default 3ms) carved out of the
// full frame period; staying under it is what keeps the render loop free
// of streaming stalls. The budget never blocks and never raises - it only
// reports, so a caller that ignores it still makes progress, just jankily.
package framebudget

import (
	"sync"
	"time"

	"github.com/lattice3d/assetstream/internal/logger"
)

// Defaults
const (
	// DefaultWorkBudget is the per-frame allowance for background work.
	// Distinct from the ~16.67ms frame period.
	DefaultWorkBudget = 3 * time.Millisecond

	// DefaultJankThreshold is the inter-frame delta beyond which a frame
	// counts as jank.
	DefaultJankThreshold = 50 * time.Millisecond

	// DefaultOverrunHistory bounds the ring of recorded overrun magnitudes.
	DefaultOverrunHistory = 120
)

// Soft thresholds for self-limiting. HasTimeLeft passes while elapsed work
// is under 80% of the budget; the strict variant under 60%.
const (
	softThreshold   = 0.8
	strictThreshold = 0.6
)

// Config holds frame budget configuration.
type Config struct {
	// WorkBudget is the per-frame time allowance for streaming work.
	WorkBudget time.Duration

	// JankThreshold is the inter-frame delta that counts as jank.
	JankThreshold time.Duration

	// OverrunHistory is the capacity of the overrun magnitude ring.
	OverrunHistory int
}

// DefaultConfig returns the default frame budget configuration.
func DefaultConfig() Config {
	return Config{
		WorkBudget:     DefaultWorkBudget,
		JankThreshold:  DefaultJankThreshold,
		OverrunHistory: DefaultOverrunHistory,
	}
}

// Metrics receives frame telemetry. A nil Metrics disables recording with
// zero overhead.
type Metrics interface {
	// RecordOverrun is called when a frame's work exceeded the budget.
	RecordOverrun(label string, over time.Duration)

	// RecordJank is called when the inter-frame delta exceeded the jank
	// threshold.
	RecordJank(delta time.Duration)
}

// Budget tracks elapsed work within the current frame.
//
// The tick goroutine owns the frame protocol: StartFrame once per frame
// before any work, HasTimeLeft / CheckBudget around each work slice. All
// methods are mutex-guarded so other goroutines (the debug API) can read
// the telemetry counters concurrently.
type Budget struct {
	cfg     Config
	metrics Metrics

	mu sync.Mutex

	frameStart time.Time
	lastStart  time.Time
	lastDelta  time.Duration
	started    bool

	overruns   uint64
	jankFrames uint64

	ring    []time.Duration
	ringPos int
	ringLen int

	now func() time.Time // test hook
}

// New creates a frame budget tracker. Zero config fields fall back to
// defaults.
func New(cfg Config, metrics Metrics) *Budget {
	if cfg.WorkBudget <= 0 {
		cfg.WorkBudget = DefaultWorkBudget
	}
	if cfg.JankThreshold <= 0 {
		cfg.JankThreshold = DefaultJankThreshold
	}
	if cfg.OverrunHistory <= 0 {
		cfg.OverrunHistory = DefaultOverrunHistory
	}

	return &Budget{
		cfg:     cfg,
		metrics: metrics,
		ring:    make([]time.Duration, cfg.OverrunHistory),
		now:     time.Now,
	}
}

// StartFrame records the start of a new frame and the inter-frame delta.
// A delta above the jank threshold increments the jank counter.
func (b *Budget) StartFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if b.started {
		b.lastDelta = now.Sub(b.lastStart)
		if b.lastDelta > b.cfg.JankThreshold {
			b.jankFrames++
			if b.metrics != nil {
				b.metrics.RecordJank(b.lastDelta)
			}
			logger.Debug("jank frame detected",
				logger.KeyElapsed, b.lastDelta.String(),
			)
		}
	}

	b.lastStart = now
	b.frameStart = now
	b.started = true
}

// Elapsed returns the work time spent in the current frame so far.
func (b *Budget) Elapsed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsedLocked()
}

func (b *Budget) elapsedLocked() time.Duration {
	if !b.started {
		return 0
	}
	return b.now().Sub(b.frameStart)
}

// HasTimeLeft reports whether elapsed work is under 80% of the budget.
func (b *Budget) HasTimeLeft() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsedLocked() < time.Duration(float64(b.cfg.WorkBudget)*softThreshold)
}

// HasTimeLeftStrict reports whether elapsed work is under 60% of the
// budget. Use before starting a slice that may be hard to bound.
func (b *Budget) HasTimeLeftStrict() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsedLocked() < time.Duration(float64(b.cfg.WorkBudget)*strictThreshold)
}

// CheckBudget compares elapsed work against the full budget and records
// an overrun if it was exceeded. The label identifies the work slice for
// telemetry. Returns true if the frame stayed within budget.
func (b *Budget) CheckBudget(label string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := b.elapsedLocked()
	if elapsed <= b.cfg.WorkBudget {
		return true
	}

	over := elapsed - b.cfg.WorkBudget
	b.overruns++
	b.ring[b.ringPos] = over
	b.ringPos = (b.ringPos + 1) % len(b.ring)
	if b.ringLen < len(b.ring) {
		b.ringLen++
	}

	if b.metrics != nil {
		b.metrics.RecordOverrun(label, over)
	}
	logger.Debug("work budget exceeded",
		logger.KeyJob, label,
		logger.KeyElapsed, elapsed.String(),
		logger.KeyOverrun, over.String(),
	)
	return false
}

// LastDelta returns the most recent inter-frame delta.
func (b *Budget) LastDelta() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDelta
}

// OverrunCount returns the number of budget overruns since the last reset.
func (b *Budget) OverrunCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overruns
}

// JankCount returns the number of jank frames since the last reset.
func (b *Budget) JankCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jankFrames
}

// OverrunStats summarizes the recorded overrun magnitudes.
type OverrunStats struct {
	Count uint64
	Mean  time.Duration
	Max   time.Duration
}

// Overruns returns aggregate statistics over the bounded overrun history.
func (b *Budget) Overruns() OverrunStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := OverrunStats{Count: b.overruns}
	if b.ringLen == 0 {
		return stats
	}

	var sum, max time.Duration
	for i := 0; i < b.ringLen; i++ {
		v := b.ring[i]
		sum += v
		if v > max {
			max = v
		}
	}
	stats.Mean = sum / time.Duration(b.ringLen)
	stats.Max = max
	return stats
}

// Reset clears the overrun and jank counters and the overrun history.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.overruns = 0
	b.jankFrames = 0
	b.ringPos = 0
	b.ringLen = 0
}

// WorkBudget returns the configured per-frame work allowance.
func (b *Budget) WorkBudget() time.Duration {
	return b.cfg.WorkBudget
}
