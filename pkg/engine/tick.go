package engine

import (
	"context"
	"fmt"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
	"github.com/lattice3d/assetstream/pkg/scheduler"
)

// ============================================================================
// Per-Frame Tick
// ============================================================================

// Tick runs one frame's worth of streaming work. Call it from the render
// loop exactly once per frame, after StartFrame on the budget tracker.
// viewerPos feeds the scheduler's movement heuristic; nil means the
// viewpoint is unknown this frame.
//
// Order inside a tick: drain the load-completion inbox first (completions
// are cheap ledger updates and must not wait another frame behind the
// rotation), then ask the scheduler which job category this frame owns
// and run at most one unit of it. Each job re-checks the strict budget
// guard before its work slice, and the tick settles with CheckBudget so
// an overrun caused by the slice itself lands in the telemetry ring.
func (e *Engine) Tick(viewerPos *Position) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.drainCompletionsLocked()

	if viewerPos != nil {
		e.sched.UpdateCameraPosition(viewerPos.X, viewerPos.Y, viewerPos.Z)
	} else {
		e.sched.ClearMoved()
	}

	if !e.budget.HasTimeLeft() {
		return
	}

	job := e.sched.NextJob()
	switch job {
	case scheduler.JobLoad:
		e.runLoadJobLocked()
	case scheduler.JobReprioritize:
		e.runReprioritizeJobLocked()
	case scheduler.JobEvict:
		e.runEvictJobLocked()
	case scheduler.JobAdjustDetail:
		e.runAdjustDetailJobLocked()
	}
	e.budget.CheckBudget(job.String())
}

// drainCompletionsLocked applies every completion sitting in the inbox.
// Caller must hold e.mu.
func (e *Engine) drainCompletionsLocked() {
	for {
		select {
		case res := <-e.completions:
			e.applyCompletionLocked(res)
		default:
			return
		}
	}
}

// applyCompletionLocked settles one finished load: success admits the
// payload into the cache, failure records the error against the key.
// Either way the in-flight slot frees up. Caller must hold e.mu.
func (e *Engine) applyCompletionLocked(res loadResult) {
	delete(e.loading, res.key)
	delete(e.progress, res.key)
	if e.metrics != nil {
		e.metrics.RecordActiveLoads(len(e.loading))
	}

	if res.err != nil {
		e.stats.LoadsFailed++
		e.lastErr[res.key] = res.err
		if e.metrics != nil {
			e.metrics.RecordLoadError(string(res.task.req.Type))
		}
		logger.Warn("asset load failed",
			logger.KeyAsset, res.key,
			logger.KeyType, string(res.task.req.Type),
			logger.KeyError, res.err,
		)
		e.notifyLocked(res.key)
		return
	}

	elapsed := e.now().Sub(res.started)
	e.stats.LoadsCompleted++
	if e.metrics != nil {
		e.metrics.RecordLoadComplete(string(res.task.req.Type), res.res.Size, elapsed)
	}
	logger.Debug("asset loaded",
		logger.KeyAsset, res.key,
		logger.KeyType, string(res.task.req.Type),
		logger.KeySize, res.res.Size,
		logger.KeyDurationMs, elapsed.Milliseconds(),
	)

	e.setLocked(res.task.req.toEntry(res.res))
}

// runLoadJobLocked starts at most one load from the queue. Tasks whose
// key became resident since enqueue are skipped (dequeued for free, they
// cost no work); a pool hit counts as the frame's one unit because
// reactivation re-runs admission. Caller must hold e.mu.
func (e *Engine) runLoadJobLocked() {
	if len(e.loading) >= e.cfg.MaxConcurrentLoads {
		return
	}
	// A load slice includes admission and possible eviction, so the
	// strict guard applies.
	if !e.budget.HasTimeLeftStrict() {
		return
	}

	for {
		i := e.bestTaskIndexLocked()
		if i < 0 {
			return
		}
		task := e.dequeueLocked(i)

		// Residency may have changed since enqueue.
		if _, ok := e.cache[task.req.Key]; ok {
			continue
		}
		if entry := e.pool.Retrieve(task.req.Key); entry != nil {
			e.stats.PoolHits++
			if e.metrics != nil {
				e.metrics.RecordPoolReactivation()
			}
			e.setLocked(entry)
			return
		}

		e.startLoadLocked(task)
		return
	}
}

// startLoadLocked launches the loader goroutine for a task. The goroutine
// never touches engine state; it sends one loadResult to the inbox and
// exits. Loader panics become load errors. Caller must hold e.mu.
func (e *Engine) startLoadLocked(task *preloadTask) {
	ctx, cancel := context.WithCancel(e.baseCtx)
	started := e.now()
	e.loading[task.req.Key] = &inflight{task: task, cancel: cancel, started: started}
	e.stats.LoadsStarted++
	delete(e.lastErr, task.req.Key)
	e.progress[task.req.Key] = 10

	if e.metrics != nil {
		e.metrics.RecordLoadStart(string(task.req.Type))
		e.metrics.RecordActiveLoads(len(e.loading))
	}
	logger.Debug("asset load started",
		logger.KeyAsset, task.req.Key,
		logger.KeyType, string(task.req.Type),
		logger.KeyPriority, task.priority.String(),
	)
	e.notifyLocked(task.req.Key)

	go func() {
		defer cancel()
		res := loadResult{key: task.req.Key, task: task, started: started}
		func() {
			defer func() {
				if r := recover(); r != nil {
					res.err = fmt.Errorf("loader panic: %v", r)
				}
			}()
			res.res, res.err = task.req.Loader.Load(ctx)
		}()
		select {
		case e.completions <- res:
		case <-e.baseCtx.Done():
		}
	}()
}

// runReprioritizeJobLocked sorts the physical queue by priority. It runs
// only when the camera moved since the last check; a static viewpoint
// means current priorities are still right. Caller must hold e.mu.
func (e *Engine) runReprioritizeJobLocked() {
	if !e.sched.ShouldCheckPriorities() {
		return
	}
	if !e.budget.HasTimeLeftStrict() {
		return
	}
	e.sortQueueLocked()
}

// runEvictJobLocked evicts exactly one LRU victim, and only under memory
// pressure. Caller must hold e.mu.
func (e *Engine) runEvictJobLocked() {
	if e.usage <= e.memBudget {
		return
	}
	if !e.budget.HasTimeLeftStrict() {
		return
	}
	if victim := e.selectVictimLocked(""); victim != nil {
		e.softRemoveLocked(victim)
		e.recordMemoryLocked()
	}
}

// runAdjustDetailJobLocked reconciles the memory budget after a tier
// change: while usage exceeds the budget it evicts one victim per tick,
// converging without a frame spike. Caller must hold e.mu.
func (e *Engine) runAdjustDetailJobLocked() {
	if e.usage <= e.memBudget {
		return
	}
	if !e.budget.HasTimeLeftStrict() {
		return
	}
	if victim := e.selectVictimLocked(""); victim != nil {
		e.softRemoveLocked(victim)
		e.recordMemoryLocked()
	}
}

// toEntry builds the cache entry for a completed load. The loader-reported
// size wins over the request estimate; a zero report falls back to the
// estimate so the ledger never records a free asset.
func (r PreloadRequest) toEntry(res asset.Result) *asset.Entry {
	size := res.Size
	if size == 0 {
		size = r.EstimatedSize
	}
	return &asset.Entry{
		Key:      r.Key,
		Type:     r.Type,
		Size:     size,
		Payload:  res.Payload,
		Disposer: r.Disposer,
		Chapter:  r.Chapter,
	}
}
