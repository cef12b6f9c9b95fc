// Package scheduler decides which category of background work runs on each
// render tick.
//
// The rotation is a fixed four-slot ring: load, reprioritize, evict,
// adjust-detail. Exactly one slot is proposed per tick, so no job type can
// monopolize a frame and worst-case per-tick cost stays bounded
// independent of queue or cache size.
//
// Re-sorting the preload queue is the only job whose cost scales with
// queue size and whose benefit is tied to viewpoint change, so it is the
// one job gated behind a "viewer moved enough" heuristic instead of
// always running.
package scheduler

import "math"

// JobType identifies one category of background work.
type JobType int

const (
	JobLoad JobType = iota
	JobReprioritize
	JobEvict
	JobAdjustDetail

	jobTypeCount // sentinel, keep last
)

func (j JobType) String() string {
	switch j {
	case JobLoad:
		return "load"
	case JobReprioritize:
		return "reprioritize"
	case JobEvict:
		return "evict"
	case JobAdjustDetail:
		return "adjust-detail"
	default:
		return "unknown"
	}
}

// DefaultMovementThreshold is the camera displacement (in world units)
// that marks the viewer as having moved enough to justify re-sorting.
const DefaultMovementThreshold = 1.0

// Config holds scheduler configuration.
type Config struct {
	// MovementThreshold is the minimum camera displacement that flags
	// the viewer as moved for this tick.
	MovementThreshold float64
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{MovementThreshold: DefaultMovementThreshold}
}

// Scheduler round-robins among job types, one per tick.
//
// Scheduler is not safe for concurrent use; it belongs to the tick
// goroutine.
type Scheduler struct {
	rotation  [jobTypeCount]JobType
	cursor    int
	frames    uint64
	threshold float64

	lastX, lastY, lastZ float64
	hasPosition         bool
	moved               bool
}

// New creates a scheduler. A non-positive movement threshold falls back
// to the default.
func New(cfg Config) *Scheduler {
	if cfg.MovementThreshold <= 0 {
		cfg.MovementThreshold = DefaultMovementThreshold
	}

	return &Scheduler{
		rotation:  [jobTypeCount]JobType{JobLoad, JobReprioritize, JobEvict, JobAdjustDetail},
		threshold: cfg.MovementThreshold,
	}
}

// NextJob returns the next job type in the rotation, advancing the cursor
// and the frame counter. Called once per tick.
func (s *Scheduler) NextJob() JobType {
	job := s.rotation[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.rotation)
	s.frames++
	return job
}

// UpdateCameraPosition records the viewer position for this tick. If the
// displacement from the last recorded position exceeds the threshold, the
// moved flag is set and the stored position updated; otherwise the flag is
// cleared. The first update establishes a baseline and reports moved so
// the initial sort happens.
func (s *Scheduler) UpdateCameraPosition(x, y, z float64) {
	if !s.hasPosition {
		s.lastX, s.lastY, s.lastZ = x, y, z
		s.hasPosition = true
		s.moved = true
		return
	}

	dx := x - s.lastX
	dy := y - s.lastY
	dz := z - s.lastZ
	displacement := math.Sqrt(dx*dx + dy*dy + dz*dz)

	if displacement > s.threshold {
		s.lastX, s.lastY, s.lastZ = x, y, z
		s.moved = true
	} else {
		s.moved = false
	}
}

// ClearMoved resets the movement flag. Ticks that carry no viewer
// position call this so a stale verdict from an earlier tick cannot
// trigger a re-sort.
func (s *Scheduler) ClearMoved() {
	s.moved = false
}

// ShouldCheckPriorities reports whether the viewer moved enough this tick
// to justify re-sorting the preload queue.
func (s *Scheduler) ShouldCheckPriorities() bool {
	return s.moved
}

// Frames returns the number of NextJob calls made so far.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}
