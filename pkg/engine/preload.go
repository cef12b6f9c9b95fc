package engine

import (
	"sort"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// ============================================================================
// Preload Queue
// ============================================================================

// QueuePreload enqueues a load request. Duplicate keys are collapsed: a
// second request for a queued key upgrades the existing task's priority in
// place (never downgrades) instead of adding a new task. Requests for
// already-resident or in-flight keys are dropped.
func (e *Engine) QueuePreload(req PreloadRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if req.Key == "" {
		return ErrMissingKey
	}
	if req.Loader == nil {
		return ErrMissingLoader
	}

	if task, ok := e.queued[req.Key]; ok {
		if req.Priority < task.priority {
			task.priority = req.Priority
		}
		return nil
	}
	if _, ok := e.cache[req.Key]; ok {
		return nil
	}
	if e.pool.Has(req.Key) {
		return nil
	}
	if _, ok := e.loading[req.Key]; ok {
		return nil
	}

	e.nextSeq++
	task := &preloadTask{
		req:        req,
		priority:   req.Priority,
		enqueuedAt: e.now(),
		seq:        e.nextSeq,
	}
	e.queue = append(e.queue, task)
	e.queued[req.Key] = task

	// A fresh request restarts a failed key at pending.
	delete(e.lastErr, req.Key)

	logger.Debug("preload queued",
		logger.KeyAsset, req.Key,
		logger.KeyType, string(req.Type),
		logger.KeyPriority, req.Priority.String(),
		logger.KeyQueueLen, len(e.queue),
	)
	if e.metrics != nil {
		e.metrics.RecordQueueLength(len(e.queue))
	}
	return nil
}

// UpdatePriority changes a queued task's priority in place, up or down.
// The physical queue order is untouched until the next reprioritize job.
// Returns false if the key is not queued.
func (e *Engine) UpdatePriority(key string, p asset.Priority) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.queued[key]
	if !ok {
		return false
	}
	task.priority = p
	return true
}

// QueueLength returns the number of queued (not in-flight) tasks.
func (e *Engine) QueueLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// ActivePreloads returns the number of in-flight loads.
func (e *Engine) ActivePreloads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.loading)
}

// QueuedTask is the debug view of one queued preload.
type QueuedTask struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Chapter  string `json:"chapter,omitempty"`
	Size     uint64 `json:"size"`
}

// QueueSnapshot returns the queue contents in physical order, for the
// debug API. The copy detaches callers from engine internals.
func (e *Engine) QueueSnapshot() []QueuedTask {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]QueuedTask, 0, len(e.queue))
	for _, task := range e.queue {
		out = append(out, QueuedTask{
			Key:      task.req.Key,
			Type:     string(task.req.Type),
			Priority: task.priority.String(),
			Chapter:  task.req.Chapter,
			Size:     task.req.EstimatedSize,
		})
	}
	return out
}

// bestTaskIndexLocked finds the queue index of the highest-priority task,
// enqueue order breaking ties. The load job uses this so a critical task
// wins immediately, even while the physical queue is unsorted. Caller
// must hold e.mu.
func (e *Engine) bestTaskIndexLocked() int {
	best := -1
	for i, task := range e.queue {
		if best == -1 ||
			task.priority < e.queue[best].priority ||
			(task.priority == e.queue[best].priority && task.seq < e.queue[best].seq) {
			best = i
		}
	}
	return best
}

// dequeueLocked removes the task at index i, preserving the order of the
// rest. Caller must hold e.mu.
func (e *Engine) dequeueLocked(i int) *preloadTask {
	task := e.queue[i]
	e.queue = append(e.queue[:i], e.queue[i+1:]...)
	delete(e.queued, task.req.Key)
	if e.metrics != nil {
		e.metrics.RecordQueueLength(len(e.queue))
	}
	return task
}

// sortQueueLocked stable-sorts the physical queue by priority, enqueue
// order within a priority class. Run only by the reprioritize job.
// Caller must hold e.mu.
func (e *Engine) sortQueueLocked() {
	sort.SliceStable(e.queue, func(i, j int) bool {
		if e.queue[i].priority != e.queue[j].priority {
			return e.queue[i].priority < e.queue[j].priority
		}
		return e.queue[i].seq < e.queue[j].seq
	})
}

// dropChapterTasksLocked removes every queued task belonging to a chapter.
// Used by DisposeChapter so a disposed chapter cannot resurrect itself
// from its own queue backlog. Caller must hold e.mu.
func (e *Engine) dropChapterTasksLocked(chapter string) int {
	kept := e.queue[:0]
	dropped := 0
	for _, task := range e.queue {
		if task.req.Chapter == chapter {
			delete(e.queued, task.req.Key)
			dropped++
			continue
		}
		kept = append(kept, task)
	}
	e.queue = kept
	if dropped > 0 && e.metrics != nil {
		e.metrics.RecordQueueLength(len(e.queue))
	}
	return dropped
}
