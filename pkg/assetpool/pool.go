// Package assetpool implements the soft-disposal holding area for evicted
// assets.
//
// Entries removed from the active cache are kept here fully intact so a
// later request is an instant reactivation instead of a reload. The pool
// is bounded: when an Add would exceed capacity, least-recently-used
// pooled entries are hard-disposed to make room, and if the entry still
// cannot fit the Add fails explicitly. Pooling is never implicitly lossy -
// a rejected entry is the caller's to dispose.
package assetpool

import (
	"sync"
	"time"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// DefaultCapacity is the default pool capacity in bytes (50 MiB).
const DefaultCapacity = 50 * 1024 * 1024

// Config holds pool configuration.
type Config struct {
	// Capacity is the maximum total size of pooled entries in bytes.
	Capacity uint64
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity}
}

// Metrics receives pool telemetry. A nil Metrics disables recording with
// zero overhead.
type Metrics interface {
	// RecordAdd is called when an entry is pooled.
	RecordAdd(bytes uint64)

	// RecordHit is called when a pooled entry is retrieved.
	RecordHit()

	// RecordEviction is called when a pooled entry is hard-disposed to
	// make room.
	RecordEviction(bytes uint64)

	// RecordSize is called after any mutation with the current totals.
	RecordSize(bytes uint64, count int)
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Size     uint64 `json:"size"`
	Capacity uint64 `json:"capacity"`
	Count    int    `json:"count"`
}

// Pool is the bounded soft-disposal holding area.
//
// Thread safety: safe for concurrent use, though in the engine all
// mutation arrives from the tick goroutine.
type Pool struct {
	mu       sync.Mutex
	entries  map[string]*asset.Entry
	seq      map[string]uint64 // insertion order, breaks LRU ties
	nextSeq  uint64
	size     uint64
	capacity uint64
	metrics  Metrics

	now func() time.Time // test hook
}

// New creates a pool. A zero capacity falls back to the default.
func New(cfg Config, metrics Metrics) *Pool {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}

	return &Pool{
		entries:  make(map[string]*asset.Entry),
		seq:      make(map[string]uint64),
		capacity: cfg.Capacity,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Add attempts to pool an entry. LRU pooled entries are hard-disposed
// until the entry fits; if it still cannot fit (larger than the whole
// pool) Add returns false and the caller must dispose the entry itself.
//
// On success the entry's pooled flag is set and ownership of the payload
// transfers to the pool.
func (p *Pool) Add(entry *asset.Entry) bool {
	if entry == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if entry.Size > p.capacity {
		return false
	}

	// Replace any stale entry under the same key first.
	if old, exists := p.entries[entry.Key]; exists {
		p.removeLocked(old.Key)
		p.disposeEntry(old)
	}

	for p.size+entry.Size > p.capacity {
		victim := p.oldestLocked()
		if victim == nil {
			return false
		}
		p.removeLocked(victim.Key)
		p.disposeEntry(victim)
		if p.metrics != nil {
			p.metrics.RecordEviction(victim.Size)
		}
		logger.Debug("pool overflow eviction",
			logger.KeyAsset, victim.Key,
			logger.KeySize, victim.Size,
		)
	}

	entry.Pooled = true
	p.entries[entry.Key] = entry
	p.seq[entry.Key] = p.nextSeq
	p.nextSeq++
	p.size += entry.Size

	if p.metrics != nil {
		p.metrics.RecordAdd(entry.Size)
		p.metrics.RecordSize(p.size, len(p.entries))
	}
	return true
}

// Retrieve removes and returns the entry for key, clearing its pooled
// flag and refreshing its last-used time. Returns nil if not pooled.
// This is the instant "reload" path - no loader involved.
func (p *Pool) Retrieve(key string) *asset.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, exists := p.entries[key]
	if !exists {
		return nil
	}

	p.removeLocked(key)
	entry.Pooled = false
	entry.Touch(p.now())

	if p.metrics != nil {
		p.metrics.RecordHit()
		p.metrics.RecordSize(p.size, len(p.entries))
	}
	return entry
}

// Has reports whether key is pooled. Pure membership check; does not
// refresh last-used.
func (p *Pool) Has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.entries[key]
	return exists
}

// Remove drops the entry for key without disposing it and returns it, or
// nil if not pooled. Used when the owner wants the payload back without
// the retrieval bookkeeping.
func (p *Pool) Remove(key string) *asset.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, exists := p.entries[key]
	if !exists {
		return nil
	}
	p.removeLocked(key)
	entry.Pooled = false
	return entry
}

// Clear disposes every pooled entry unconditionally. Used for hard
// memory-pressure resets and shutdown.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, entry := range p.entries {
		delete(p.entries, key)
		delete(p.seq, key)
		p.disposeEntry(entry)
	}
	p.size = 0

	if p.metrics != nil {
		p.metrics.RecordSize(0, 0)
	}
}

// Size returns the total size of pooled entries in bytes.
func (p *Pool) Size() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Len returns the number of pooled entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Capacity returns the configured pool capacity in bytes.
func (p *Pool) Capacity() uint64 {
	return p.capacity
}

// GetStats returns a snapshot of pool occupancy.
func (p *Pool) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Size: p.size, Capacity: p.capacity, Count: len(p.entries)}
}

// removeLocked unlinks key from the pool maps and ledger.
// Caller must hold p.mu.
func (p *Pool) removeLocked(key string) {
	entry, exists := p.entries[key]
	if !exists {
		return
	}
	delete(p.entries, key)
	delete(p.seq, key)
	p.size -= entry.Size
}

// oldestLocked returns the least-recently-used entry, breaking timestamp
// ties by insertion order. Caller must hold p.mu.
func (p *Pool) oldestLocked() *asset.Entry {
	var victim *asset.Entry
	var victimSeq uint64

	for key, entry := range p.entries {
		seq := p.seq[key]
		if victim == nil ||
			entry.LastUsed.Before(victim.LastUsed) ||
			(entry.LastUsed.Equal(victim.LastUsed) && seq < victimSeq) {
			victim = entry
			victimSeq = seq
		}
	}
	return victim
}

// disposeEntry invokes the entry's disposer, recovering panics so a
// misbehaving disposal callback cannot take down the pool.
func (p *Pool) disposeEntry(entry *asset.Entry) {
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
