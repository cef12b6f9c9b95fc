package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lattice3d/assetstream/internal/bytesize"
)

// Config represents the assetstream daemon configuration.
//
// This structure captures the static aspects of the streaming engine:
//   - Logging configuration
//   - Engine settings (load concurrency, tier budgets, look-ahead)
//   - Frame budget settings (work budget, jank threshold)
//   - Pool capacity
//   - Scheduler movement threshold
//   - Metrics and debug API servers
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ASSETSTREAM_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Engine configures the streaming orchestrator
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`

	// Frame configures the per-frame work budget tracker
	Frame FrameConfig `mapstructure:"frame" yaml:"frame"`

	// Pool configures the soft-disposal holding area
	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`

	// Scheduler configures the per-tick job rotation
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains debug/inspection HTTP server configuration
	API APIConfig `mapstructure:"api" yaml:"api"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output"`
}

// EngineConfig configures the streaming orchestrator.
type EngineConfig struct {
	// MaxConcurrentLoads bounds in-flight loader invocations.
	// Default: 2
	MaxConcurrentLoads int `mapstructure:"max_concurrent_loads" yaml:"max_concurrent_loads"`

	// EvictionSweepLimit bounds how many entries a single admission can
	// evict on its way to the budget.
	// Default: 10
	EvictionSweepLimit int `mapstructure:"eviction_sweep_limit" yaml:"eviction_sweep_limit"`

	// CompletionBuffer sizes the load-completion inbox.
	// Default: 64
	CompletionBuffer int `mapstructure:"completion_buffer" yaml:"completion_buffer"`

	// LookAhead is the scroll-prediction horizon.
	// Default: 500ms
	LookAhead time.Duration `mapstructure:"look_ahead" yaml:"look_ahead"`

	// InitialTier selects the memory budget at startup.
	// Valid values: low, medium, high (or any key of TierBudgets)
	// Default: medium
	InitialTier string `mapstructure:"initial_tier" yaml:"initial_tier"`

	// TierBudgets maps quality tiers to active-cache memory budgets.
	// Supports human-readable sizes: "128Mi", "512Mi", "1Gi"
	// Default: low=128Mi, medium=256Mi, high=512Mi
	TierBudgets map[string]bytesize.ByteSize `mapstructure:"tier_budgets" yaml:"tier_budgets"`
}

// FrameConfig configures the per-frame work budget tracker.
type FrameConfig struct {
	// WorkBudget is the per-frame time allowance for streaming work.
	// Distinct from the full frame period.
	// Default: 3ms
	WorkBudget time.Duration `mapstructure:"work_budget" yaml:"work_budget"`

	// JankThreshold is the inter-frame delta that counts as jank.
	// Default: 50ms
	JankThreshold time.Duration `mapstructure:"jank_threshold" yaml:"jank_threshold"`

	// OverrunHistory is the capacity of the overrun magnitude ring.
	// Default: 120
	OverrunHistory int `mapstructure:"overrun_history" yaml:"overrun_history"`
}

// PoolConfig configures the soft-disposal holding area.
type PoolConfig struct {
	// Capacity is the maximum total size of pooled entries.
	// Supports human-readable sizes: "50Mi", "100Mi"
	// Default: 50Mi
	Capacity bytesize.ByteSize `mapstructure:"capacity" yaml:"capacity"`
}

// SchedulerConfig configures the per-tick job rotation.
type SchedulerConfig struct {
	// MovementThreshold is the camera displacement (world units) that
	// justifies re-sorting the preload queue.
	// Default: 1.0
	MovementThreshold float64 `mapstructure:"movement_threshold" yaml:"movement_threshold"`
}

// MetricsConfig configures Prometheus metrics.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// APIConfig configures the debug/inspection HTTP server.
type APIConfig struct {
	// Enabled controls whether the debug API server runs
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the listen address
	// Default: 127.0.0.1
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the HTTP port
	// Default: 8390
	Port int `mapstructure:"port" yaml:"port"`

	// ReadTimeout is the maximum duration for reading a request
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ASSETSTREAM_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location; a missing file is not an
// error and yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages. It checks
// that an explicitly requested config file exists and points the user at
// the init command if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  assetstream config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the ASSETSTREAM_ prefix and underscores.
	// Example: ASSETSTREAM_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("ASSETSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is acceptable and reports found=false.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize,
// so config files can use human-readable sizes like "512Mi" or "1Gi".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, so config files
// can use human-readable durations like "3ms" or "50ms".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetstream")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "assetstream")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
