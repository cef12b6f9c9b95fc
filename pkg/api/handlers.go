package api

import (
	"net/http"

	"github.com/lattice3d/assetstream/pkg/engine"
)

// Handlers serves the debug/inspection endpoints over a running engine.
type Handlers struct {
	engine *engine.Engine
}

// NewHandlers creates the handler set for an engine.
func NewHandlers(e *engine.Engine) *Handlers {
	return &Handlers{engine: e}
}

// Health answers the liveness probe with the engine's headline counters.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.GetStats()
	JSON(w, http.StatusOK, HealthyResponse(map[string]interface{}{
		"tier":            h.engine.Tier(),
		"current_chapter": h.engine.CurrentChapter(),
		"stats":           stats,
	}))
}

// Memory reports the memory ledger and pool occupancy.
func (h *Handlers) Memory(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(h.engine.GetMemoryUsage()))
}

// Chapters reports every registered chapter and its residency.
func (h *Handlers) Chapters(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(h.engine.GetAllChapterStatuses()))
}

// Queue reports the preload queue in physical order plus in-flight count.
func (h *Handlers) Queue(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(map[string]interface{}{
		"queued":    h.engine.QueueSnapshot(),
		"length":    h.engine.QueueLength(),
		"in_flight": h.engine.ActivePreloads(),
	}))
}

// Frame reports frame budget telemetry: overruns and jank.
func (h *Handlers) Frame(w http.ResponseWriter, r *http.Request) {
	budget := h.engine.Budget()
	overruns := budget.Overruns()
	JSON(w, http.StatusOK, OKResponse(map[string]interface{}{
		"work_budget_ms": budget.WorkBudget().Milliseconds(),
		"overrun_count":  budget.OverrunCount(),
		"overrun_mean":   overruns.Mean.String(),
		"overrun_max":    overruns.Max.String(),
		"jank_count":     budget.JankCount(),
	}))
}
