package engine

import (
	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// ============================================================================
// Chapter Lifecycle
// ============================================================================

// RegisterChapterAssets declares a chapter's asset group. Registration is
// a manifest, not a load trigger: nothing is fetched until the chapter
// becomes current or its members are preloaded explicitly. Re-registering
// a chapter merges new members idempotently; members whose assets are
// already resident are simply counted.
func (e *Engine) RegisterChapterAssets(chapter string, assets []ChapterAsset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	st, ok := e.chapters[chapter]
	if !ok {
		st = &chapterState{
			assets: make(map[string]ChapterAsset),
			status: ChapterPending,
		}
		e.chapters[chapter] = st
	}
	for _, a := range assets {
		if a.Key == "" {
			return ErrMissingKey
		}
		st.assets[a.Key] = a
	}

	// A disposed chapter stays disposed; registration alone does not
	// revive it.
	if st.status != ChapterEvicted {
		e.recomputeChapterLocked(chapter)
	}

	logger.Debug("chapter registered",
		logger.KeyChapter, chapter,
		"assets", len(st.assets),
		logger.KeyStatus, string(st.status),
	)
	return nil
}

// SetCurrentChapter marks a chapter as the active one. Its non-resident
// members are queued at high priority; the eviction selector starts
// protecting its residents. Unknown chapters still update the marker so a
// later registration slots in.
func (e *Engine) SetCurrentChapter(chapter string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.currentChapter = chapter

	st, ok := e.chapters[chapter]
	if !ok {
		return
	}
	if st.status == ChapterEvicted {
		st.status = ChapterPending
	}

	queued := 0
	for key, a := range st.assets {
		if _, resident := e.cache[key]; resident {
			continue
		}
		if e.pool.Has(key) || e.queued[key] != nil {
			continue
		}
		if _, busy := e.loading[key]; busy {
			continue
		}
		if a.Loader == nil {
			continue
		}
		e.nextSeq++
		task := &preloadTask{
			req: PreloadRequest{
				Key:           a.Key,
				Type:          a.Type,
				Priority:      asset.PriorityHigh,
				EstimatedSize: a.Size,
				Chapter:       chapter,
				Loader:        a.Loader,
				Disposer:      a.Disposer,
			},
			priority:   asset.PriorityHigh,
			enqueuedAt: e.now(),
			seq:        e.nextSeq,
		}
		e.queue = append(e.queue, task)
		e.queued[key] = task
		queued++
	}

	e.recomputeChapterLocked(chapter)

	logger.Info("current chapter set",
		logger.KeyChapter, chapter,
		"queued", queued,
		logger.KeyStatus, string(st.status),
	)
	if queued > 0 && e.metrics != nil {
		e.metrics.RecordQueueLength(len(e.queue))
	}
}

// CurrentChapter returns the active chapter marker.
func (e *Engine) CurrentChapter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentChapter
}

// DisposeChapter releases a chapter wholesale: resident members are
// soft-removed, queued members are dropped, and the chapter is marked
// evicted. In-flight loads for its members finish normally; their
// completions land in the cache and fall to the eviction selector like
// any other entry. The registration itself is kept so the chapter can be
// made current again later.
func (e *Engine) DisposeChapter(chapter string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	st, ok := e.chapters[chapter]
	if !ok {
		return
	}

	released := 0
	for key := range st.assets {
		entry, resident := e.cache[key]
		if !resident {
			continue
		}
		if _, busy := e.loading[key]; busy {
			continue
		}
		e.softRemoveLocked(entry)
		released++
	}
	dropped := e.dropChapterTasksLocked(chapter)
	st.status = ChapterEvicted

	if e.currentChapter == chapter {
		e.currentChapter = ""
	}

	logger.Info("chapter disposed",
		logger.KeyChapter, chapter,
		logger.KeyEvicted, released,
		"dropped", dropped,
	)
	e.recordMemoryLocked()
}

// GetChapterStatus returns a chapter's aggregate status, ChapterPending
// for unknown chapters.
func (e *Engine) GetChapterStatus(chapter string) ChapterStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.chapters[chapter]; ok {
		return st.status
	}
	return ChapterPending
}

// ChapterInfo is the debug view of one registered chapter.
type ChapterInfo struct {
	Name     string        `json:"name"`
	Status   ChapterStatus `json:"status"`
	Assets   int           `json:"assets"`
	Resident int           `json:"resident"`
	Current  bool          `json:"current"`
}

// GetAllChapterStatuses returns a snapshot of every registered chapter.
func (e *Engine) GetAllChapterStatuses() []ChapterInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ChapterInfo, 0, len(e.chapters))
	for name, st := range e.chapters {
		resident := 0
		for key := range st.assets {
			if _, ok := e.cache[key]; ok {
				resident++
			} else if e.pool.Has(key) {
				resident++
			}
		}
		out = append(out, ChapterInfo{
			Name:     name,
			Status:   st.status,
			Assets:   len(st.assets),
			Resident: resident,
			Current:  name == e.currentChapter,
		})
	}
	return out
}

// recomputeChapterLocked rederives a chapter's aggregate status from
// member residency. Evicted is terminal until SetCurrentChapter revives
// the chapter, so disposal is not silently undone by a stray completion.
// Caller must hold e.mu.
func (e *Engine) recomputeChapterLocked(chapter string) {
	if chapter == "" {
		return
	}
	st, ok := e.chapters[chapter]
	if !ok || st.status == ChapterEvicted {
		return
	}
	if len(st.assets) == 0 {
		st.status = ChapterPending
		return
	}

	resident, active := 0, 0
	for key := range st.assets {
		if _, ok := e.cache[key]; ok {
			resident++
			continue
		}
		if e.pool.Has(key) {
			resident++
			continue
		}
		if _, busy := e.loading[key]; busy {
			active++
		} else if e.queued[key] != nil {
			active++
		}
	}

	switch {
	case resident == len(st.assets):
		st.status = ChapterBuffered
	case resident > 0 || active > 0:
		st.status = ChapterStreaming
	default:
		st.status = ChapterPending
	}
}
