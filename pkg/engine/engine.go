// Package engine implements the frame-budgeted asset streaming orchestrator.
//
// The engine owns the active asset cache, a priority preload queue,
// per-chapter asset registries, and a memory budget. Once per rendered
// frame the render clock calls Tick, which asks the scheduler for one job
// type and executes at most one bounded unit of that job, consulting the
// frame budget before and after. Loads run asynchronously; their
// completions are delivered through an inbox drained at the start of the
// next Tick, so all cache mutation happens on the tick goroutine.
//
// Key Design Principles:
//   - One job category per tick, one unit of work per job - worst-case
//     per-tick cost is bounded independent of queue or cache size
//   - The memory budget is soft: eviction is the response to pressure,
//     admission never fails the caller
//   - Soft removal first: evicted entries go to the pool intact and come
//     back without a loader invocation
//   - Loader and disposal failures stay local to their key; nothing
//     escapes into the render loop
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
	"github.com/lattice3d/assetstream/pkg/assetpool"
	"github.com/lattice3d/assetstream/pkg/framebudget"
	"github.com/lattice3d/assetstream/pkg/scheduler"
)

// Engine is the streaming orchestrator. Construct it once at application
// start with New and pass the handle to the render loop and registration
// call sites; multiple engines can coexist in one process.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	budget  *framebudget.Budget
	sched   *scheduler.Scheduler
	pool    *assetpool.Pool
	metrics Metrics

	// Active cache and memory ledger. usage is always the sum of the
	// sizes of cache entries.
	cache    map[string]*asset.Entry
	cacheSeq map[string]uint64
	usage    uint64

	tier      Tier
	memBudget uint64

	// Preload queue. Physical order is enqueue order; the reprioritize
	// job sorts it, and head selection scans for the best task so a
	// critical request wins even before a sort.
	queue   []*preloadTask
	queued  map[string]*preloadTask
	nextSeq uint64

	loading     map[string]*inflight
	completions chan loadResult

	lastErr  map[string]error
	progress map[string]int

	chapters       map[string]*chapterState
	currentChapter string

	subs map[string]map[string]StreamCallback

	scrollPos float64
	scrollVel float64

	stats Stats

	baseCtx context.Context
	cancel  context.CancelFunc
	closed  bool

	now func() time.Time // test hook
}

// New creates an engine. Nil collaborators are replaced with defaults, so
// tests can pass nil for everything but the config.
func New(cfg Config, budget *framebudget.Budget, sched *scheduler.Scheduler, pool *assetpool.Pool, metrics Metrics) *Engine {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = DefaultMaxConcurrentLoads
	}
	if cfg.EvictionSweepLimit <= 0 {
		cfg.EvictionSweepLimit = DefaultEvictionSweepLimit
	}
	if cfg.CompletionBuffer <= 0 {
		cfg.CompletionBuffer = DefaultCompletionBuffer
	}
	if cfg.LookAhead <= 0 {
		cfg.LookAhead = DefaultLookAhead
	}
	if cfg.InitialTier == "" {
		cfg.InitialTier = TierMedium
	}
	if budget == nil {
		budget = framebudget.New(framebudget.DefaultConfig(), nil)
	}
	if sched == nil {
		sched = scheduler.New(scheduler.DefaultConfig())
	}
	if pool == nil {
		pool = assetpool.New(assetpool.DefaultConfig(), nil)
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:         cfg,
		budget:      budget,
		sched:       sched,
		pool:        pool,
		metrics:     metrics,
		cache:       make(map[string]*asset.Entry),
		cacheSeq:    make(map[string]uint64),
		queued:      make(map[string]*preloadTask),
		loading:     make(map[string]*inflight),
		completions: make(chan loadResult, cfg.CompletionBuffer),
		lastErr:     make(map[string]error),
		progress:    make(map[string]int),
		chapters:    make(map[string]*chapterState),
		subs:        make(map[string]map[string]StreamCallback),
		baseCtx:     ctx,
		cancel:      cancel,
		now:         time.Now,
	}

	e.tier = cfg.InitialTier
	e.memBudget = e.budgetForTier(cfg.InitialTier)

	logger.Info("streaming engine created",
		logger.KeyTier, string(e.tier),
		logger.KeyBudget, e.memBudget,
	)
	return e
}

// Budget returns the frame budget tracker. The render clock must call
// StartFrame on it once per frame, before Tick.
func (e *Engine) Budget() *framebudget.Budget {
	return e.budget
}

// budgetForTier resolves a tier against the configured table, falling
// back to the built-in defaults.
func (e *Engine) budgetForTier(t Tier) uint64 {
	if b, ok := e.cfg.TierBudgets[t]; ok {
		return b
	}
	switch t {
	case TierLow:
		return DefaultBudgetLow
	case TierHigh:
		return DefaultBudgetHigh
	default:
		return DefaultBudgetMedium
	}
}

// SetTier selects the active memory budget from the tier table. Shrinking
// the budget runs a bounded eviction sweep toward the new limit.
func (e *Engine) SetTier(t Tier) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	if _, ok := e.cfg.TierBudgets[t]; !ok {
		switch t {
		case TierLow, TierMedium, TierHigh:
			// built-in tier, table just doesn't override it
		default:
			return ErrUnknownTier
		}
	}

	e.tier = t
	e.memBudget = e.budgetForTier(t)
	e.sweepToBudgetLocked("")

	logger.Info("quality tier changed",
		logger.KeyTier, string(t),
		logger.KeyBudget, e.memBudget,
		logger.KeyUsed, e.usage,
	)
	e.recordMemoryLocked()
	return nil
}

// Tier returns the active quality tier.
func (e *Engine) Tier() Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tier
}

// UpdateScrollState records the scroll/progress signal used for
// predictive prioritization. Pure bookkeeping.
func (e *Engine) UpdateScrollState(position, velocity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrollPos = position
	e.scrollVel = velocity
}

// PredictedScrollPosition linearly extrapolates the scroll position over
// the given look-ahead. The value is advisory: nothing in the engine
// consumes it, it feeds the embedding application's threshold logic.
func (e *Engine) PredictedScrollPosition(lookAhead time.Duration) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lookAhead <= 0 {
		lookAhead = e.cfg.LookAhead
	}
	return e.scrollPos + e.scrollVel*lookAhead.Seconds()
}

// GetMemoryUsage returns a snapshot of the memory ledger and pool.
func (e *Engine) GetMemoryUsage() MemoryUsage {
	e.mu.Lock()
	defer e.mu.Unlock()

	poolStats := e.pool.GetStats()
	u := MemoryUsage{
		Used:      e.usage,
		Budget:    e.memBudget,
		Pooled:    poolStats.Size,
		PoolCount: poolStats.Count,
	}
	if e.memBudget > 0 {
		u.Percent = float64(e.usage) / float64(e.memBudget) * 100
	}
	return u
}

// GetStats returns a snapshot of the engine counters.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Close shuts the engine down: cancels in-flight loads, disposes every
// cached and pooled entry, and rejects further operations. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.cancel()

	for key, entry := range e.cache {
		delete(e.cache, key)
		delete(e.cacheSeq, key)
		e.disposeSafely(entry)
	}
	e.usage = 0
	e.pool.Clear()
	e.queue = nil
	e.queued = make(map[string]*preloadTask)

	logger.Info("streaming engine closed",
		logger.KeyInFlight, len(e.loading),
	)
	return nil
}

// recordMemoryLocked pushes ledger gauges to metrics.
// Caller must hold e.mu.
func (e *Engine) recordMemoryLocked() {
	if e.metrics != nil {
		e.metrics.RecordMemory(e.usage, e.memBudget)
	}
}

// disposeSafely invokes an entry's disposer, containing panics. Disposal
// callbacks come from the embedding application and must not take the
// engine down.
func (e *Engine) disposeSafely(entry *asset.Entry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("disposer panicked",
				logger.KeyAsset, entry.Key,
				logger.KeyError, r,
			)
		}
	}()
	entry.Dispose()
}
