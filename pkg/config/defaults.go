package config

import (
	"strings"
	"time"

	"github.com/lattice3d/assetstream/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyEngineDefaults(&cfg.Engine)
	applyFrameDefaults(&cfg.Frame)
	applyPoolDefaults(&cfg.Pool)
	applySchedulerDefaults(&cfg.Scheduler)
	applyAPIDefaults(&cfg.API)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyEngineDefaults sets streaming engine defaults.
func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.MaxConcurrentLoads == 0 {
		cfg.MaxConcurrentLoads = 2
	}
	if cfg.EvictionSweepLimit == 0 {
		cfg.EvictionSweepLimit = 10
	}
	if cfg.CompletionBuffer == 0 {
		cfg.CompletionBuffer = 64
	}
	if cfg.LookAhead == 0 {
		cfg.LookAhead = 500 * time.Millisecond
	}
	if cfg.InitialTier == "" {
		cfg.InitialTier = "medium"
	}
	if len(cfg.TierBudgets) == 0 {
		cfg.TierBudgets = map[string]bytesize.ByteSize{
			"low":    128 * bytesize.MiB,
			"medium": 256 * bytesize.MiB,
			"high":   512 * bytesize.MiB,
		}
	}
}

// applyFrameDefaults sets frame budget defaults.
func applyFrameDefaults(cfg *FrameConfig) {
	if cfg.WorkBudget == 0 {
		cfg.WorkBudget = 3 * time.Millisecond
	}
	if cfg.JankThreshold == 0 {
		cfg.JankThreshold = 50 * time.Millisecond
	}
	if cfg.OverrunHistory == 0 {
		cfg.OverrunHistory = 120
	}
}

// applyPoolDefaults sets pool defaults.
func applyPoolDefaults(cfg *PoolConfig) {
	if cfg.Capacity == 0 {
		cfg.Capacity = 50 * bytesize.MiB
	}
}

// applySchedulerDefaults sets scheduler defaults.
func applySchedulerDefaults(cfg *SchedulerConfig) {
	if cfg.MovementThreshold == 0 {
		cfg.MovementThreshold = 1.0
	}
}

// applyAPIDefaults sets debug API server defaults. The API binds to
// loopback by default; it is an inspection surface, not a public one.
func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8390
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// GetDefaultConfig returns a Config with all default values applied.
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
