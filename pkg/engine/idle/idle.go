// Package idle implements a deferred work queue for opportunistic
// background warm-up.
//
// Callbacks are scheduled with a delay and drained during host idle time,
// independent of the render tick. The embedding application supplies a
// Source that grants idle slices (a render loop's spare time, an OS hint);
// without one a fixed-interval timer stands in. A callback that does not
// fit the current slice stays at the front of the queue for the next one.
package idle

import (
	"container/list"
	"sync"
	"time"

	"github.com/lattice3d/assetstream/internal/logger"
)

// Defaults for the timer fallback source.
const (
	// DefaultInterval is how often the fallback source grants a slice.
	DefaultInterval = 100 * time.Millisecond

	// DefaultSlice is the length of each fallback idle slice.
	DefaultSlice = 5 * time.Millisecond
)

// Source grants slices of idle time. RequestIdle arranges for run to be
// called when the host is next idle; run receives a remaining function
// reporting how much of the slice is left. Each grant is one-shot: the
// preloader re-requests while work remains.
type Source interface {
	RequestIdle(run func(remaining func() time.Duration))
}

// TimerSource is the fallback Source: a fixed-delay timer that grants a
// fixed-length slice. Zero fields fall back to defaults.
type TimerSource struct {
	Interval time.Duration
	Slice    time.Duration
}

func (s TimerSource) RequestIdle(run func(remaining func() time.Duration)) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	slice := s.Slice
	if slice <= 0 {
		slice = DefaultSlice
	}

	time.AfterFunc(interval, func() {
		deadline := time.Now().Add(slice)
		run(func() time.Duration { return time.Until(deadline) })
	})
}

// Handle cancels one scheduled callback. Cancellation after the callback
// ran is a no-op.
type Handle struct {
	mu        sync.Mutex
	cancelled bool
	timer     *time.Timer
}

// Cancel prevents the callback from running if it has not run yet.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

func (h *Handle) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Preloader drains deferred callbacks during idle time. Safe for
// concurrent use; at most one drain loop runs at a time regardless of how
// many Schedule calls occur concurrently.
type Preloader struct {
	mu       sync.Mutex
	ready    *list.List // of func()
	source   Source
	draining bool
}

// New creates a preloader. A nil source falls back to the timer source.
func New(source Source) *Preloader {
	if source == nil {
		source = TimerSource{}
	}
	return &Preloader{
		ready:  list.New(),
		source: source,
	}
}

// Schedule enqueues fn to run during idle time once delay has passed.
// The returned handle cancels it. fn runs at most once; a panic inside it
// is caught and logged, never propagated.
func (p *Preloader) Schedule(fn func(), delay time.Duration) *Handle {
	h := &Handle{}

	enqueue := func() {
		if h.isCancelled() {
			return
		}
		p.mu.Lock()
		p.ready.PushBack(func() {
			if h.isCancelled() {
				return
			}
			runContained(fn)
		})
		p.requestDrainLocked()
		p.mu.Unlock()
	}

	if delay <= 0 {
		enqueue()
		return h
	}

	h.mu.Lock()
	h.timer = time.AfterFunc(delay, enqueue)
	h.mu.Unlock()
	return h
}

// Pending returns the number of callbacks whose delay has elapsed and
// that are waiting for an idle slice.
func (p *Preloader) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready.Len()
}

// requestDrainLocked asks the source for an idle slice unless a drain is
// already in flight. Caller must hold p.mu.
func (p *Preloader) requestDrainLocked() {
	if p.draining || p.ready.Len() == 0 {
		return
	}
	p.draining = true
	p.source.RequestIdle(p.drain)
}

// drain runs queued callbacks while slice time remains, then either
// declares the drain finished or re-requests a slice for the leftovers.
// A callback that finds no time left stays at the front for the next
// slice.
func (p *Preloader) drain(remaining func() time.Duration) {
	for {
		if remaining() <= 0 {
			break
		}

		p.mu.Lock()
		front := p.ready.Front()
		if front == nil {
			p.mu.Unlock()
			break
		}
		p.ready.Remove(front)
		p.mu.Unlock()

		front.Value.(func())()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.draining = false
	p.requestDrainLocked()
}

// runContained executes fn, containing panics. A failing preload must not
// halt the queue.
func runContained(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("idle preload callback panicked",
				logger.KeyError, r,
			)
		}
	}()
	fn()
}
