package engine

import (
	"context"
	"time"

	"github.com/lattice3d/assetstream/internal/bytesize"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// Tier is a coarse quality/performance level. It selects the active
// memory budget from a small fixed table.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Default engine tuning.
const (
	// DefaultMaxConcurrentLoads bounds in-flight loader invocations.
	DefaultMaxConcurrentLoads = 2

	// DefaultEvictionSweepLimit bounds how many entries a single
	// admission may evict to make room.
	DefaultEvictionSweepLimit = 10

	// DefaultCompletionBuffer sizes the load-completion inbox. It only
	// needs to cover the in-flight ceiling; the slack absorbs completions
	// arriving across several ticks without drains.
	DefaultCompletionBuffer = 64

	// DefaultLookAhead is the scroll-prediction horizon.
	DefaultLookAhead = 500 * time.Millisecond
)

// Default per-tier memory budgets.
const (
	DefaultBudgetLow    = uint64(128 * bytesize.MiB)
	DefaultBudgetMedium = uint64(256 * bytesize.MiB)
	DefaultBudgetHigh   = uint64(512 * bytesize.MiB)
)

// Config holds engine configuration.
type Config struct {
	// MaxConcurrentLoads is the ceiling on in-flight loads. Default: 2.
	MaxConcurrentLoads int

	// EvictionSweepLimit bounds the admission-time eviction loop.
	// Default: 10.
	EvictionSweepLimit int

	// CompletionBuffer is the capacity of the load-completion inbox.
	// Default: 64.
	CompletionBuffer int

	// LookAhead is the horizon for scroll prediction. Default: 500ms.
	LookAhead time.Duration

	// TierBudgets maps tiers to active-cache memory budgets in bytes.
	// Missing tiers fall back to the built-in table.
	TierBudgets map[Tier]uint64

	// InitialTier selects the budget at construction. Default: medium.
	InitialTier Tier
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentLoads: DefaultMaxConcurrentLoads,
		EvictionSweepLimit: DefaultEvictionSweepLimit,
		CompletionBuffer:   DefaultCompletionBuffer,
		LookAhead:          DefaultLookAhead,
		TierBudgets: map[Tier]uint64{
			TierLow:    DefaultBudgetLow,
			TierMedium: DefaultBudgetMedium,
			TierHigh:   DefaultBudgetHigh,
		},
		InitialTier: TierMedium,
	}
}

// Metrics receives engine telemetry. A nil Metrics disables recording
// with zero overhead.
type Metrics interface {
	RecordLoadStart(assetType string)
	RecordLoadComplete(assetType string, bytes uint64, duration time.Duration)
	RecordLoadError(assetType string)
	RecordPoolReactivation()
	RecordEviction(kind string, bytes uint64) // kind: "soft" or "hard"
	RecordMemory(used, budget uint64)
	RecordQueueLength(n int)
	RecordActiveLoads(n int)
}

// Position is a viewer position in world units.
type Position struct {
	X, Y, Z float64
}

// PreloadRequest asks the engine to materialize an asset.
type PreloadRequest struct {
	Key           string
	Type          asset.Type
	Priority      asset.Priority
	EstimatedSize uint64
	Chapter       string
	Loader        asset.Loader
	Disposer      asset.Disposer
}

// preloadTask is a queued PreloadRequest. The priority lives on the task
// (not the request) because a duplicate request or UpdatePriority mutates
// it in place; seq preserves enqueue order for the stable sort.
type preloadTask struct {
	req        PreloadRequest
	priority   asset.Priority
	enqueuedAt time.Time
	seq        uint64
}

// inflight tracks one running load. The cancel handle closes the known
// "stuck load" gap: Close cancels every in-flight load's context.
type inflight struct {
	task    *preloadTask
	cancel  context.CancelFunc
	started time.Time
}

// loadResult is the completion message a load goroutine sends back to the
// tick goroutine's inbox. All cache mutation happens when the inbox is
// drained at the start of the next Tick, never from the load goroutine.
type loadResult struct {
	key     string
	task    *preloadTask
	res     asset.Result
	err     error
	started time.Time
}

// ChapterStatus is the aggregate residency state of an asset group.
type ChapterStatus string

const (
	ChapterPending   ChapterStatus = "pending"
	ChapterStreaming ChapterStatus = "streaming"
	ChapterBuffered  ChapterStatus = "buffered"
	ChapterEvicted   ChapterStatus = "evicted"
)

// ChapterAsset describes one member of a chapter registration.
type ChapterAsset struct {
	Key      string
	Type     asset.Type
	Size     uint64
	Loader   asset.Loader
	Disposer asset.Disposer
}

// chapterState tracks a registered chapter's members and aggregate status.
type chapterState struct {
	assets map[string]ChapterAsset
	status ChapterStatus
}

// MemoryUsage is a snapshot of the memory ledger.
type MemoryUsage struct {
	Used      uint64  `json:"used"`
	Budget    uint64  `json:"budget"`
	Percent   float64 `json:"percent"`
	Pooled    uint64  `json:"pooled"`
	PoolCount int     `json:"pool_count"`
}

// Stats is a snapshot of engine counters.
type Stats struct {
	LoadsStarted   uint64 `json:"loads_started"`
	LoadsCompleted uint64 `json:"loads_completed"`
	LoadsFailed    uint64 `json:"loads_failed"`
	PoolHits       uint64 `json:"pool_hits"`
	SoftEvictions  uint64 `json:"soft_evictions"`
	HardEvictions  uint64 `json:"hard_evictions"`
}

// StreamState is the immediate answer to a Stream call: the best-known
// state of a key right now.
type StreamState struct {
	Data     any
	Status   asset.Status
	Progress int
}

// StreamUpdate is pushed to subscribers on every status transition of a
// key: loading start, ready, error.
type StreamUpdate struct {
	Key      string
	Status   asset.Status
	Progress int
	Data     any
	Err      error
}

// StreamCallback observes status transitions for one key. Callbacks are
// invoked on the tick goroutine and must not call back into the engine.
type StreamCallback func(StreamUpdate)
