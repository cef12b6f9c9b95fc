// Package api exposes the streaming engine's debug and inspection surface
// over HTTP: health, memory ledger, chapter residency, queue contents,
// frame telemetry, and Prometheus metrics.
//
// The server binds to loopback by default. It is an operator tool, not an
// application interface - the engine itself is driven in-process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/config"
	"github.com/lattice3d/assetstream/pkg/engine"
)

// Server provides the debug/inspection HTTP server. It supports graceful
// shutdown with a configurable timeout.
type Server struct {
	server       *http.Server
	config       config.APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new debug API server over an engine.
//
// The server is created in a stopped state; call Start to begin serving.
func NewServer(cfg config.APIConfig, e *engine.Engine) *Server {
	router := NewRouter(e)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		server: server,
		config: cfg,
	}
}

// Start starts the server and blocks until the context is cancelled or an
// error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("debug API server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("debug API server shutdown signal received")
		// Fresh context: the cancelled one would abort the drain.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("debug API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.server.Shutdown(ctx)
		if err != nil {
			logger.Warn("debug API server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("debug API server stopped")
		}
	})
	return err
}
