package engine

import (
	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// ============================================================================
// Active Cache
// ============================================================================

// Set admits a loaded asset into the active cache. Admission never fails:
// if the budget is exceeded afterwards, a bounded eviction sweep runs, but
// the new entry itself is never the sweep's victim. A same-key entry is
// soft-removed first so the ledger never double-counts.
func (e *Engine) Set(key string, payload any, typ asset.Type, size uint64, chapter string, disposer asset.Disposer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.setLocked(&asset.Entry{
		Key:      key,
		Type:     typ,
		Size:     size,
		Payload:  payload,
		Disposer: disposer,
		Chapter:  chapter,
	})
}

// setLocked inserts an entry, replacing any same-key resident, and runs
// the post-admission eviction sweep. Caller must hold e.mu.
func (e *Engine) setLocked(entry *asset.Entry) {
	if old, ok := e.cache[entry.Key]; ok {
		e.softRemoveLocked(old)
	}
	delete(e.lastErr, entry.Key)

	entry.Touch(e.now())
	e.cache[entry.Key] = entry
	e.nextSeq++
	e.cacheSeq[entry.Key] = e.nextSeq
	e.usage += entry.Size
	e.notifyLocked(entry.Key)

	if e.usage > e.memBudget {
		e.sweepToBudgetLocked(entry.Key)
	}
	e.recomputeChapterLocked(entry.Chapter)
	e.recordMemoryLocked()
}

// Get returns the payload for a resident key and refreshes its recency.
// A pool hit reactivates the entry into the cache (and re-runs the
// admission sweep) before returning it.
func (e *Engine) Get(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, false
	}
	if entry, ok := e.cache[key]; ok {
		entry.Touch(e.now())
		return entry.Payload, true
	}
	if entry := e.pool.Retrieve(key); entry != nil {
		e.stats.PoolHits++
		if e.metrics != nil {
			e.metrics.RecordPoolReactivation()
		}
		logger.Debug("pool reactivation",
			logger.KeyAsset, key,
			logger.KeySize, entry.Size,
		)
		e.setLocked(entry)
		return entry.Payload, true
	}
	return nil, false
}

// Has reports residency in the active cache or the pool without touching
// recency and without reactivating.
func (e *Engine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	if _, ok := e.cache[key]; ok {
		return true
	}
	return e.pool.Has(key)
}

// Touch refreshes a cached key's recency without returning the payload.
// Render passes that use an already-held payload handle call this so the
// entry does not look idle to the eviction selector.
func (e *Engine) Touch(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.cache[key]; ok {
		entry.Touch(e.now())
	}
}

// GetStatus derives a key's lifecycle status from engine state. Status is
// never stored; it cannot go stale.
func (e *Engine) GetStatus(key string) asset.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked(key)
}

// statusLocked derives status in precedence order: loading beats resident
// beats pooled beats errored beats pending. Caller must hold e.mu.
func (e *Engine) statusLocked(key string) asset.Status {
	if _, ok := e.loading[key]; ok {
		return asset.StatusLoading
	}
	if _, ok := e.cache[key]; ok {
		return asset.StatusReady
	}
	if e.pool.Has(key) {
		return asset.StatusPooled
	}
	if _, ok := e.lastErr[key]; ok {
		return asset.StatusError
	}
	return asset.StatusPending
}

// Evict soft-removes a key from the active cache on demand. Returns false
// if the key is not resident or a load for it is in flight.
func (e *Engine) Evict(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.cache[key]
	if !ok {
		return false
	}
	if _, busy := e.loading[key]; busy {
		return false
	}
	e.softRemoveLocked(entry)
	e.recordMemoryLocked()
	return true
}

// softRemoveLocked takes an entry out of the cache and offers it to the
// pool. If the pool rejects it (oversized) the payload is disposed for
// real - the hard path. Caller must hold e.mu.
func (e *Engine) softRemoveLocked(entry *asset.Entry) {
	delete(e.cache, entry.Key)
	delete(e.cacheSeq, entry.Key)
	e.usage -= entry.Size

	if e.pool.Add(entry) {
		e.stats.SoftEvictions++
		if e.metrics != nil {
			e.metrics.RecordEviction("soft", entry.Size)
		}
		return
	}

	e.stats.HardEvictions++
	if e.metrics != nil {
		e.metrics.RecordEviction("hard", entry.Size)
	}
	logger.Debug("hard eviction",
		logger.KeyAsset, entry.Key,
		logger.KeySize, entry.Size,
	)
	e.disposeSafely(entry)
}

// sweepToBudgetLocked evicts least-recently-used entries until usage fits
// the budget or the per-call sweep limit is hit. The protected key (the
// entry just admitted, if any) and keys with in-flight loads are never
// victims. Caller must hold e.mu.
func (e *Engine) sweepToBudgetLocked(protect string) {
	for i := 0; i < e.cfg.EvictionSweepLimit && e.usage > e.memBudget; i++ {
		victim := e.selectVictimLocked(protect)
		if victim == nil {
			break
		}
		logger.Debug("budget eviction",
			logger.KeyAsset, victim.Key,
			logger.KeySize, victim.Size,
			logger.KeyUsed, e.usage,
			logger.KeyBudget, e.memBudget,
		)
		e.softRemoveLocked(victim)
	}
}

// selectVictimLocked picks the eviction victim: the least recently used
// entry outside the current chapter, falling back to the global LRU when
// every resident belongs to it. Insertion order breaks LastUsed ties so
// the choice is deterministic. Caller must hold e.mu.
func (e *Engine) selectVictimLocked(protect string) *asset.Entry {
	var best *asset.Entry
	bestForeign := false

	better := func(entry *asset.Entry) bool {
		if best == nil {
			return true
		}
		foreign := entry.Chapter != e.currentChapter || e.currentChapter == ""
		if foreign != bestForeign {
			return foreign
		}
		if !entry.LastUsed.Equal(best.LastUsed) {
			return entry.LastUsed.Before(best.LastUsed)
		}
		return e.cacheSeq[entry.Key] < e.cacheSeq[best.Key]
	}

	for key, entry := range e.cache {
		if key == protect {
			continue
		}
		if _, busy := e.loading[key]; busy {
			continue
		}
		if better(entry) {
			best = entry
			bestForeign = entry.Chapter != e.currentChapter || e.currentChapter == ""
		}
	}
	return best
}
