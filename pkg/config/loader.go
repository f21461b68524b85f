package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/usage-ledger/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	// Start with default configuration
	cfg := Default()

	// Find config file path
	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	// Load from file if it exists
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly requested file must load.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	// Apply environment variable overrides
	cfg = l.applyEnvVars(cfg)

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if len(override.LogRoots) > 0 {
		result.LogRoots = override.LogRoots
	}

	if override.Cost.Mode != "" {
		result.Cost.Mode = override.Cost.Mode
	}
	if override.Cost.PricingURL != "" {
		result.Cost.PricingURL = override.Cost.PricingURL
	}
	if override.Cost.PricingTimeout > 0 {
		result.Cost.PricingTimeout = override.Cost.PricingTimeout
	}
	// Offline is a bool, the override value always applies.
	result.Cost.Offline = override.Cost.Offline

	if override.Dedup.WindowHours > 0 {
		result.Dedup.WindowHours = override.Dedup.WindowHours
	}
	if override.Dedup.CleanupThreshold > 0 {
		result.Dedup.CleanupThreshold = override.Dedup.CleanupThreshold
	}

	result.Ingest.Parallel = override.Ingest.Parallel
	if override.Ingest.Workers > 0 {
		result.Ingest.Workers = override.Ingest.Workers
	}

	if override.Live.TickInterval > 0 {
		result.Live.TickInterval = override.Live.TickInterval
	}
	if override.Live.RecentFileWindow > 0 {
		result.Live.RecentFileWindow = override.Live.RecentFileWindow
	}
	if override.Live.RecentEventWindow > 0 {
		result.Live.RecentEventWindow = override.Live.RecentEventWindow
	}
	if override.Live.SnapshotTTL > 0 {
		result.Live.SnapshotTTL = override.Live.SnapshotTTL
	}
	if override.Live.PlanTokenLimit > 0 {
		result.Live.PlanTokenLimit = override.Live.PlanTokenLimit
	}

	if override.Watch.DebounceInterval > 0 {
		result.Watch.DebounceInterval = override.Watch.DebounceInterval
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - USAGE_LEDGER_ROOTS: Comma-separated list of log roots
//   - USAGE_LEDGER_DB: Path to the state database file
//   - USAGE_LEDGER_COST_MODE: Cost mode (auto, calculate, display)
//   - USAGE_LEDGER_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if envRoots := os.Getenv("USAGE_LEDGER_ROOTS"); envRoots != "" {
		roots := strings.Split(envRoots, ",")
		for i := range roots {
			roots[i] = strings.TrimSpace(roots[i])
		}
		result.LogRoots = roots
	}

	if dbPath := os.Getenv("USAGE_LEDGER_DB"); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if mode := os.Getenv("USAGE_LEDGER_COST_MODE"); mode != "" {
		result.Cost.Mode = strings.ToLower(mode)
	}

	if logLevel := os.Getenv("USAGE_LEDGER_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath exposes the standard config file location.
func DefaultConfigPath() string {
	return defaultConfigPath()
}
