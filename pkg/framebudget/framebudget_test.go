package framebudget

import (
	"testing"
	"time"
)

// fakeClock drives the budget deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBudget(cfg Config) (*Budget, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := New(cfg, nil)
	b.now = clock.now
	return b, clock
}

func TestHasTimeLeft_Thresholds(t *testing.T) {
	b, clock := newTestBudget(Config{WorkBudget: 10 * time.Millisecond})
	b.StartFrame()

	// Fresh frame: both pass.
	if !b.HasTimeLeft() || !b.HasTimeLeftStrict() {
		t.Fatal("expected full budget at frame start")
	}

	// 7ms elapsed: 70% of budget. Soft (80%) passes, strict (60%) fails.
	clock.advance(7 * time.Millisecond)
	if !b.HasTimeLeft() {
		t.Error("expected HasTimeLeft at 70% of budget")
	}
	if b.HasTimeLeftStrict() {
		t.Error("expected strict check to fail at 70% of budget")
	}

	// 9ms elapsed: both fail.
	clock.advance(2 * time.Millisecond)
	if b.HasTimeLeft() {
		t.Error("expected HasTimeLeft to fail at 90% of budget")
	}
}

func TestCheckBudget_RecordsOverruns(t *testing.T) {
	b, clock := newTestBudget(Config{WorkBudget: 3 * time.Millisecond, OverrunHistory: 4})

	b.StartFrame()
	clock.advance(2 * time.Millisecond)
	if !b.CheckBudget("load") {
		t.Fatal("expected pass under budget")
	}
	if b.OverrunCount() != 0 {
		t.Fatalf("expected no overruns, got %d", b.OverrunCount())
	}

	b.StartFrame()
	clock.advance(5 * time.Millisecond)
	if b.CheckBudget("evict") {
		t.Fatal("expected failure over budget")
	}
	if b.OverrunCount() != 1 {
		t.Fatalf("expected 1 overrun, got %d", b.OverrunCount())
	}

	stats := b.Overruns()
	if stats.Max != 2*time.Millisecond {
		t.Errorf("expected 2ms max overrun, got %s", stats.Max)
	}
}

func TestOverrunRing_Bounded(t *testing.T) {
	b, clock := newTestBudget(Config{WorkBudget: 1 * time.Millisecond, OverrunHistory: 3})

	for i := 0; i < 10; i++ {
		b.StartFrame()
		clock.advance(2 * time.Millisecond)
		b.CheckBudget("tick")
	}

	if b.OverrunCount() != 10 {
		t.Errorf("expected 10 overruns counted, got %d", b.OverrunCount())
	}
	if b.ringLen != 3 {
		t.Errorf("expected ring bounded at 3, got %d", b.ringLen)
	}
}

func TestJankDetection(t *testing.T) {
	b, clock := newTestBudget(Config{JankThreshold: 50 * time.Millisecond})

	b.StartFrame()
	clock.advance(16 * time.Millisecond)
	b.StartFrame() // 16ms delta: not jank
	if b.JankCount() != 0 {
		t.Fatalf("expected no jank, got %d", b.JankCount())
	}

	clock.advance(80 * time.Millisecond)
	b.StartFrame() // 80ms delta: jank
	if b.JankCount() != 1 {
		t.Fatalf("expected 1 jank frame, got %d", b.JankCount())
	}
	if b.LastDelta() != 80*time.Millisecond {
		t.Errorf("expected 80ms delta, got %s", b.LastDelta())
	}
}

// The tick goroutine drives frames while the debug API reads the
// telemetry counters. Run with -race.
func TestConcurrentTelemetryReads(t *testing.T) {
	b := New(Config{WorkBudget: time.Microsecond, JankThreshold: time.Nanosecond}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			b.StartFrame()
			b.HasTimeLeft()
			b.HasTimeLeftStrict()
			b.CheckBudget("tick")
		}
	}()

	for i := 0; i < 500; i++ {
		b.OverrunCount()
		b.JankCount()
		b.Overruns()
		b.LastDelta()
		b.Elapsed()
	}
	<-done

	if b.OverrunCount() == 0 && b.JankCount() == 0 {
		t.Error("expected some telemetry recorded under a microsecond budget")
	}
}

func TestReset(t *testing.T) {
	b, clock := newTestBudget(Config{WorkBudget: time.Millisecond, JankThreshold: 10 * time.Millisecond})

	b.StartFrame()
	clock.advance(20 * time.Millisecond)
	b.CheckBudget("tick")
	b.StartFrame() // jank delta

	b.Reset()
	if b.OverrunCount() != 0 || b.JankCount() != 0 {
		t.Error("expected counters cleared after reset")
	}
	if got := b.Overruns(); got.Mean != 0 || got.Max != 0 {
		t.Errorf("expected empty overrun stats after reset, got %+v", got)
	}
}
