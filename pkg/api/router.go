package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/engine"
	"github.com/lattice3d/assetstream/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - liveness probe with engine counters
//   - GET /debug/memory - memory ledger and pool occupancy
//   - GET /debug/chapters - registered chapters and residency
//   - GET /debug/queue - preload queue contents
//   - GET /debug/frame - frame budget telemetry
//   - GET /metrics - Prometheus metrics (503 when disabled)
func NewRouter(e *engine.Engine) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := NewHandlers(e)

	r.Get("/health", h.Health)

	r.Route("/debug", func(r chi.Router) {
		r.Get("/memory", h.Memory)
		r.Get("/chapters", h.Chapters)
		r.Get("/queue", h.Queue)
		r.Get("/frame", h.Frame)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs requests using the internal logger: request start at
// DEBUG, completion with status and duration at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("debug API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("debug API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.KeyDurationMs, time.Since(start).Milliseconds(),
		)
	})
}
