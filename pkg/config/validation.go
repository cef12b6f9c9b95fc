package config

import "fmt"

// Validate checks a configuration for invalid or inconsistent values.
// Call after ApplyDefaults so zero values have been filled in.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid logging level %q (expected DEBUG, INFO, WARN, or ERROR)", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q (expected text or json)", cfg.Logging.Format)
	}

	if cfg.Engine.MaxConcurrentLoads < 1 {
		return fmt.Errorf("engine.max_concurrent_loads must be at least 1, got %d", cfg.Engine.MaxConcurrentLoads)
	}
	if cfg.Engine.EvictionSweepLimit < 1 {
		return fmt.Errorf("engine.eviction_sweep_limit must be at least 1, got %d", cfg.Engine.EvictionSweepLimit)
	}
	if cfg.Engine.LookAhead < 0 {
		return fmt.Errorf("engine.look_ahead must not be negative, got %s", cfg.Engine.LookAhead)
	}

	if _, ok := cfg.Engine.TierBudgets[cfg.Engine.InitialTier]; !ok {
		return fmt.Errorf("engine.initial_tier %q has no entry in engine.tier_budgets", cfg.Engine.InitialTier)
	}
	for tier, budget := range cfg.Engine.TierBudgets {
		if budget == 0 {
			return fmt.Errorf("engine.tier_budgets[%s] must not be zero", tier)
		}
	}

	if cfg.Frame.WorkBudget <= 0 {
		return fmt.Errorf("frame.work_budget must be positive, got %s", cfg.Frame.WorkBudget)
	}
	if cfg.Frame.JankThreshold <= 0 {
		return fmt.Errorf("frame.jank_threshold must be positive, got %s", cfg.Frame.JankThreshold)
	}

	if cfg.Pool.Capacity == 0 {
		return fmt.Errorf("pool.capacity must not be zero")
	}

	if cfg.Scheduler.MovementThreshold <= 0 {
		return fmt.Errorf("scheduler.movement_threshold must be positive, got %v", cfg.Scheduler.MovementThreshold)
	}

	if cfg.API.Enabled {
		if cfg.API.Port < 1 || cfg.API.Port > 65535 {
			return fmt.Errorf("api.port must be between 1 and 65535, got %d", cfg.API.Port)
		}
	}

	return nil
}
