package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/api"
	"github.com/lattice3d/assetstream/pkg/asset"
	"github.com/lattice3d/assetstream/pkg/assetpool"
	"github.com/lattice3d/assetstream/pkg/config"
	"github.com/lattice3d/assetstream/pkg/engine"
	"github.com/lattice3d/assetstream/pkg/engine/idle"
	"github.com/lattice3d/assetstream/pkg/framebudget"
	"github.com/lattice3d/assetstream/pkg/metrics"
	"github.com/lattice3d/assetstream/pkg/scheduler"

	// Import prometheus metrics to register init() functions
	_ "github.com/lattice3d/assetstream/pkg/metrics/prometheus"
)

var (
	runFPS   int
	runDemo  bool
	runWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the streaming engine",
	Long: `Run the streaming engine with the specified configuration.

The engine ticks at the configured frame rate, performing at most one
unit of streaming work per frame inside the work budget. The debug API
(when enabled) exposes memory, queue, chapter and frame telemetry.

With --demo, a synthetic scene is registered so the engine has work to
do: chapters of fake models, textures and audio with loaders that take
a few milliseconds each, and a camera that drifts between chapters.

Examples:
  # Run with default config location
  assetstream run

  # Run the synthetic demo scene at 30 fps
  assetstream run --demo --fps 30

  # Run and reload config on change
  assetstream run --watch`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runFPS, "fps", 60, "Tick rate of the render loop")
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "Seed a synthetic scene with fake loaders")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Reload configuration on file change")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if runFPS < 1 {
		return fmt.Errorf("invalid fps: %d", runFPS)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("assetstream - Frame-budgeted asset streaming engine")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", configSource())

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	eng := buildEngine(cfg)
	defer eng.Close()

	logger.Info("Engine initialized",
		logger.KeyTier, string(eng.Tier()),
		logger.KeyBudget, eng.GetMemoryUsage().Budget,
		"fps", runFPS)

	// Debug API server (if enabled). A nil apiDone never fires in the
	// select below.
	var apiDone chan error
	if cfg.API.Enabled {
		apiDone = make(chan error, 1)
		srv := api.NewServer(cfg.API, eng)
		go func() {
			apiDone <- srv.Start(ctx)
		}()
		logger.Info("API server enabled", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	// Config hot reload (if requested)
	if runWatch {
		watchPath := GetConfigFile()
		if watchPath == "" {
			watchPath = config.GetDefaultConfigPath()
		}
		watcher, werr := config.NewWatcher(watchPath, func(next *config.Config) {
			applyReload(eng, next)
		})
		if werr != nil {
			logger.Warn("Config watch unavailable", logger.KeyError, werr)
		} else {
			watcher.Start()
			defer watcher.Stop()
			logger.Info("Watching configuration", "path", watchPath)
		}
	}

	var demo *demoScene
	if runDemo {
		demo = newDemoScene(eng)
		demo.register()
		logger.Info("Demo scene registered", "chapters", len(demo.chapters))
	}

	// Render loop. Each iteration is one simulated frame: start the
	// frame clock, then let the engine spend its work budget.
	ticker := time.NewTicker(time.Second / time.Duration(runFPS))
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Engine is running. Press Ctrl+C to stop.")

	statsEvery := time.NewTicker(10 * time.Second)
	defer statsEvery.Stop()

	for {
		select {
		case <-ticker.C:
			eng.Budget().StartFrame()
			var pos *engine.Position
			if demo != nil {
				pos = demo.advance(time.Second / time.Duration(runFPS))
			}
			eng.Tick(pos)

		case <-statsEvery.C:
			stats := eng.GetStats()
			usage := eng.GetMemoryUsage()
			logger.Info("Engine stats",
				"loads_started", stats.LoadsStarted,
				"loads_completed", stats.LoadsCompleted,
				"loads_failed", stats.LoadsFailed,
				"pool_hits", stats.PoolHits,
				logger.KeyUsed, usage.Used,
				logger.KeyBudget, usage.Budget,
				logger.KeyQueueLen, eng.QueueLength(),
				logger.KeyInFlight, eng.ActivePreloads())

		case <-sigChan:
			signal.Stop(sigChan)
			logger.Info("Shutdown signal received, initiating graceful shutdown")
			cancel()

			if apiDone != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer shutdownCancel()

				select {
				case err := <-apiDone:
					if err != nil {
						logger.Error("API server shutdown error", logger.KeyError, err)
					}
				case <-shutdownCtx.Done():
					logger.Warn("Shutdown timeout exceeded")
				}
			}

			if err := eng.Close(); err != nil {
				logger.Error("Engine shutdown error", logger.KeyError, err)
				return err
			}
			logger.Info("Engine stopped gracefully")
			return nil

		case err := <-apiDone:
			if err != nil {
				logger.Error("API server error", logger.KeyError, err)
				return err
			}
		}
	}
}

// buildEngine assembles the engine and its collaborators from config.
func buildEngine(cfg *config.Config) *engine.Engine {
	budget := framebudget.New(framebudget.Config{
		WorkBudget:     cfg.Frame.WorkBudget,
		JankThreshold:  cfg.Frame.JankThreshold,
		OverrunHistory: cfg.Frame.OverrunHistory,
	}, metrics.NewFrameMetrics())

	sched := scheduler.New(scheduler.Config{
		MovementThreshold: cfg.Scheduler.MovementThreshold,
	})

	pool := assetpool.New(assetpool.Config{
		Capacity: uint64(cfg.Pool.Capacity),
	}, metrics.NewPoolMetrics())

	tiers := make(map[engine.Tier]uint64, len(cfg.Engine.TierBudgets))
	for name, size := range cfg.Engine.TierBudgets {
		tiers[engine.Tier(name)] = uint64(size)
	}

	engineCfg := engine.Config{
		MaxConcurrentLoads: cfg.Engine.MaxConcurrentLoads,
		EvictionSweepLimit: cfg.Engine.EvictionSweepLimit,
		CompletionBuffer:   cfg.Engine.CompletionBuffer,
		LookAhead:          cfg.Engine.LookAhead,
		TierBudgets:        tiers,
		InitialTier:        engine.Tier(cfg.Engine.InitialTier),
	}

	return engine.New(engineCfg, budget, sched, pool, metrics.NewEngineMetrics())
}

// applyReload applies the hot-reloadable subset of a changed config:
// log level and memory tier. Structural settings (ports, buffer sizes)
// require a restart.
func applyReload(eng *engine.Engine, next *config.Config) {
	if err := logger.Init(logger.Config{
		Level:  next.Logging.Level,
		Format: next.Logging.Format,
		Output: next.Logging.Output,
	}); err != nil {
		logger.Warn("Reload: logger re-init failed", logger.KeyError, err)
	}

	tier := engine.Tier(next.Engine.InitialTier)
	if tier != eng.Tier() {
		if err := eng.SetTier(tier); err != nil {
			logger.Warn("Reload: tier change rejected", logger.KeyTier, string(tier), logger.KeyError, err)
		} else {
			logger.Info("Reload: memory tier changed", logger.KeyTier, string(tier))
		}
	}
}

func configSource() string {
	if f := GetConfigFile(); f != "" {
		return f
	}
	if _, err := os.Stat(config.GetDefaultConfigPath()); err == nil {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// ============================================================================
// Demo scene
// ============================================================================

// demoScene seeds the engine with synthetic chapters and drifts a
// camera between them so every subsystem has work: loads, priority
// re-sorts, chapter switches and evictions.
type demoScene struct {
	eng      *engine.Engine
	idler    *idle.Preloader
	chapters []string
	assets   map[string][]engine.ChapterAsset
	current  int
	pos      engine.Position
}

const demoChapterSpan = 1000.0 // world units per chapter

func newDemoScene(eng *engine.Engine) *demoScene {
	return &demoScene{
		eng:      eng,
		idler:    idle.New(nil),
		chapters: []string{"intro", "canyon", "finale"},
		assets:   make(map[string][]engine.ChapterAsset),
	}
}

func (d *demoScene) register() {
	for i, name := range d.chapters {
		assets := make([]engine.ChapterAsset, 0, 8)
		for j := 0; j < 4; j++ {
			assets = append(assets, d.fakeAsset(fmt.Sprintf("%s/model-%d", name, j), asset.TypeModel, 8<<20))
		}
		for j := 0; j < 3; j++ {
			assets = append(assets, d.fakeAsset(fmt.Sprintf("%s/texture-%d", name, j), asset.TypeTexture, 4<<20))
		}
		assets = append(assets, d.fakeAsset(name+"/ambience", asset.TypeAudio, 2<<20))
		d.assets[name] = assets

		if err := d.eng.RegisterChapterAssets(name, assets); err != nil {
			logger.Warn("Demo: chapter registration failed", logger.KeyChapter, name, logger.KeyError, err)
		}
		if i == 0 {
			d.eng.SetCurrentChapter(name)
			d.warmNext()
		}
	}
}

// warmNext schedules idle-priority preloads for the chapter after the
// current one, so the next switch finds most of it resident or pooled.
func (d *demoScene) warmNext() {
	next := d.chapters[(d.current+1)%len(d.chapters)]
	d.idler.Schedule(func() {
		for _, a := range d.assets[next] {
			err := d.eng.QueuePreload(engine.PreloadRequest{
				Key:           a.Key,
				Type:          a.Type,
				Priority:      asset.PriorityIdle,
				EstimatedSize: a.Size,
				Chapter:       next,
				Loader:        a.Loader,
			})
			if err != nil {
				logger.Debug("Demo: idle preload skipped", logger.KeyAsset, a.Key, logger.KeyError, err)
			}
		}
	}, 2*time.Second)
}

func (d *demoScene) fakeAsset(key string, typ asset.Type, size uint64) engine.ChapterAsset {
	return engine.ChapterAsset{
		Key:  key,
		Type: typ,
		Size: size,
		Loader: asset.LoaderFunc(func(ctx context.Context) (asset.Result, error) {
			// Simulate decode latency proportional to size, capped.
			delay := time.Duration(5+rand.Intn(20)) * time.Millisecond
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return asset.Result{}, ctx.Err()
			}
			return asset.Result{Payload: make([]byte, int(size)), Size: size}, nil
		}),
	}
}

// advance moves the camera forward one frame and switches the current
// chapter when it crosses a chapter boundary.
func (d *demoScene) advance(dt time.Duration) *engine.Position {
	const velocity = 60.0 // world units per second
	d.pos.X += velocity * dt.Seconds()
	d.eng.UpdateScrollState(d.pos.X, velocity)

	chapter := int(d.pos.X/demoChapterSpan) % len(d.chapters)
	if chapter != d.current {
		prev := d.chapters[d.current]
		d.current = chapter
		d.eng.SetCurrentChapter(d.chapters[chapter])
		d.eng.DisposeChapter(prev)
		d.warmNext()
		logger.Info("Demo: chapter switch",
			logger.KeyChapter, d.chapters[chapter],
			"position", d.pos.X)
	}

	p := d.pos
	return &p
}
