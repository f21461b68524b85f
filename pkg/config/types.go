// Package config provides configuration management for usage-ledger.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Log roots: %v\n", cfg.LogRoots)
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - LogRoots must have at least one directory
// - Cost.Mode must be auto, calculate, or display
// - Dedup.WindowHours and Dedup.CleanupThreshold must be > 0
// - Ingest.Workers must be > 0
// - All durations must be > 0.
type Config struct {
	// Log roots to account, each containing a projects/ tree. Replica
	// roots under <root>/replicas/ are discovered automatically.
	LogRoots []string `yaml:"log_roots"`

	// Cost attribution settings
	Cost CostConfig `yaml:"cost"`

	// Deduplication settings
	Dedup DedupConfig `yaml:"dedup"`

	// Batch ingest settings
	Ingest IngestConfig `yaml:"ingest"`

	// Live monitor settings
	Live LiveConfig `yaml:"live"`

	// Watch mode settings
	Watch WatchConfig `yaml:"watch"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// CostConfig contains cost attribution settings.
type CostConfig struct {
	// Mode selects how declared and computed costs combine
	// (auto, calculate, display)
	Mode string `yaml:"mode"`

	// URL of the model price table
	PricingURL string `yaml:"pricing_url"`

	// Timeout for the price table fetch
	PricingTimeout time.Duration `yaml:"pricing_timeout"`

	// Offline skips the fetch and uses the built-in fallback table
	Offline bool `yaml:"offline"`
}

// DedupConfig contains deduplication settings.
type DedupConfig struct {
	// Span within which a repeated fingerprint is the same event
	WindowHours int `yaml:"window_hours"`

	// Tracked-fingerprint count that triggers eviction
	CleanupThreshold int `yaml:"cleanup_threshold"`
}

// IngestConfig contains batch ingest settings.
type IngestConfig struct {
	// Parallel selects the per-path worker-pool pass
	Parallel bool `yaml:"parallel"`

	// Workers bounds the pool in parallel mode
	Workers int `yaml:"workers"`
}

// LiveConfig contains live monitor settings.
type LiveConfig struct {
	// Poll interval of the live monitor
	TickInterval time.Duration `yaml:"tick_interval"`

	// How recently a file must have changed to be scanned
	RecentFileWindow time.Duration `yaml:"recent_file_window"`

	// How recent an event must be to count as live activity
	RecentEventWindow time.Duration `yaml:"recent_event_window"`

	// How long a synthesized window is served from cache
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`

	// Assumed plan token allowance per window
	PlanTokenLimit int `yaml:"plan_token_limit"`
}

// WatchConfig contains watch mode settings.
type WatchConfig struct {
	// Debounce interval for file change bursts
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	// Path to the BoltDB state database (window snapshots and read
	// positions)
	DBPath string `yaml:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if len(c.LogRoots) == 0 {
		return ErrNoLogRoots
	}

	validModes := map[string]bool{
		"auto":      true,
		"calculate": true,
		"display":   true,
	}
	if !validModes[c.Cost.Mode] {
		return ErrInvalidCostMode
	}
	if c.Cost.PricingTimeout <= 0 {
		return ErrInvalidPricingTimeout
	}

	if c.Dedup.WindowHours <= 0 {
		return ErrInvalidDedupWindow
	}
	if c.Dedup.CleanupThreshold <= 0 {
		return ErrInvalidCleanupThreshold
	}

	if c.Ingest.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Live.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if c.Live.RecentFileWindow <= 0 || c.Live.RecentEventWindow <= 0 {
		return ErrInvalidActivityWindow
	}
	if c.Live.SnapshotTTL <= 0 {
		return ErrInvalidSnapshotTTL
	}
	if c.Live.PlanTokenLimit <= 0 {
		return ErrInvalidPlanLimit
	}

	if c.Watch.DebounceInterval <= 0 {
		return ErrInvalidDebounceInterval
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		LogRoots: defaultLogRoots(),
		Cost: CostConfig{
			Mode:           "auto",
			PricingTimeout: 10 * time.Second,
		},
		Dedup: DedupConfig{
			WindowHours:      24,
			CleanupThreshold: 10000,
		},
		Ingest: IngestConfig{
			Workers: 4,
		},
		Live: LiveConfig{
			TickInterval:      3 * time.Second,
			RecentFileWindow:  10 * time.Minute,
			RecentEventWindow: 2 * time.Minute,
			SnapshotTTL:       30 * time.Second,
			PlanTokenLimit:    880000,
		},
		Watch: WatchConfig{
			DebounceInterval: 100 * time.Millisecond,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
