package engine

// ============================================================================
// Load Progress
// ============================================================================

// GetProgressForKey returns a 0-100 completion estimate for a key:
// resident or pooled is 100, a failed load is 0, an in-flight load is the
// last reported figure (at least 10, so a just-started load is visibly
// in motion), everything else is 0.
func (e *Engine) GetProgressForKey(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked(key)
}

// progressLocked derives progress from engine state. Caller must hold e.mu.
func (e *Engine) progressLocked(key string) int {
	if _, ok := e.cache[key]; ok {
		return 100
	}
	if e.pool.Has(key) {
		return 100
	}
	if _, busy := e.loading[key]; busy {
		if p, ok := e.progress[key]; ok && p > 10 {
			if p > 99 {
				return 99
			}
			return p
		}
		return 10
	}
	return 0
}

// ReportProgress records a loader's mid-flight progress figure for a key.
// Loaders that can observe their own transfer call this from the load
// goroutine; values are clamped to the in-flight range 10-99 so derived
// terminal states stay authoritative. No-op for keys not loading.
func (e *Engine) ReportProgress(key string, percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.loading[key]; !busy {
		return
	}
	if percent < 10 {
		percent = 10
	}
	if percent > 99 {
		percent = 99
	}
	e.progress[key] = percent
}

// GetTotalProgress averages progress across a set of keys, the figure a
// chapter loading bar wants. An empty set reports 100.
func (e *Engine) GetTotalProgress(keys []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(keys) == 0 {
		return 100
	}
	total := 0
	for _, key := range keys {
		total += e.progressLocked(key)
	}
	return total / len(keys)
}
