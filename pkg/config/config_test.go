package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice3d/assetstream/internal/bytesize"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	assert.Equal(t, 2, cfg.Engine.MaxConcurrentLoads)
	assert.Equal(t, 10, cfg.Engine.EvictionSweepLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.LookAhead)
	assert.Equal(t, "medium", cfg.Engine.InitialTier)
	assert.Equal(t, 256*bytesize.MiB, cfg.Engine.TierBudgets["medium"])

	assert.Equal(t, 3*time.Millisecond, cfg.Frame.WorkBudget)
	assert.Equal(t, 50*time.Millisecond, cfg.Frame.JankThreshold)
	assert.Equal(t, 50*bytesize.MiB, cfg.Pool.Capacity)
	assert.Equal(t, 1.0, cfg.Scheduler.MovementThreshold)

	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
  format: json
engine:
  max_concurrent_loads: 4
  look_ahead: 250ms
  initial_tier: high
  tier_budgets:
    low: 64Mi
    medium: 256Mi
    high: 1Gi
frame:
  work_budget: 5ms
pool:
  capacity: 100Mi
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level should be normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 4, cfg.Engine.MaxConcurrentLoads)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.LookAhead)
	assert.Equal(t, "high", cfg.Engine.InitialTier)
	assert.Equal(t, 64*bytesize.MiB, cfg.Engine.TierBudgets["low"])
	assert.Equal(t, bytesize.GiB, cfg.Engine.TierBudgets["high"])

	assert.Equal(t, 5*time.Millisecond, cfg.Frame.WorkBudget)
	assert.Equal(t, 100*bytesize.MiB, cfg.Pool.Capacity)

	// Unspecified values still get defaults.
	assert.Equal(t, 10, cfg.Engine.EvictionSweepLimit)
	assert.Equal(t, 50*time.Millisecond, cfg.Frame.JankThreshold)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad log level",
			content: "logging:\n  level: verbose\n",
		},
		{
			name:    "bad log format",
			content: "logging:\n  format: xml\n",
		},
		{
			name:    "initial tier missing from budgets",
			content: "engine:\n  initial_tier: ultra\n",
		},
		{
			name:    "zero tier budget",
			content: "engine:\n  tier_budgets:\n    low: 0\n    medium: 256Mi\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Engine.MaxConcurrentLoads = 3
	cfg.Pool.Capacity = 75 * bytesize.MiB
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Engine.MaxConcurrentLoads)
	assert.Equal(t, 75*bytesize.MiB, loaded.Pool.Capacity)
}

func TestMustLoadMissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}
