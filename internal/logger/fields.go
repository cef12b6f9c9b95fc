package logger

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so streaming
// telemetry can be aggregated and queried by key.
const (
	// Asset identity
	KeyAsset    = "asset"    // Stable asset key
	KeyType     = "type"     // Coarse asset type: model, texture, etc.
	KeyChapter  = "chapter"  // Chapter (asset group) id
	KeyStatus   = "status"   // Asset status: pending, loading, ready, error, pooled
	KeyPriority = "priority" // Preload priority: critical, high, normal, idle

	// Memory ledger
	KeySize     = "size"      // Asset size in bytes
	KeyUsed     = "used"      // Current ledger usage in bytes
	KeyBudget   = "budget"    // Active memory budget in bytes
	KeyTier     = "tier"      // Quality tier selecting the budget
	KeyEvicted  = "evicted"   // Number of entries evicted
	KeyPoolSize = "pool_size" // Current pool size in bytes

	// Scheduling
	KeyJob      = "job"       // Tick job type: load, reprioritize, evict, adjust-detail
	KeyFrame    = "frame"     // Frame counter
	KeyQueueLen = "queue_len" // Preload queue length
	KeyInFlight = "in_flight" // Active load count
	KeyElapsed  = "elapsed"   // Work elapsed within the frame
	KeyOverrun  = "overrun"   // Work budget overrun magnitude

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)
