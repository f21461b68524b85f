package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoLogRoots is returned when no log roots are specified.
	ErrNoLogRoots = errors.New("no log roots specified")

	// ErrInvalidCostMode is returned when the cost mode is not recognized.
	ErrInvalidCostMode = errors.New("invalid cost mode: must be auto, calculate, or display")

	// ErrInvalidPricingTimeout is returned when the pricing timeout is <= 0.
	ErrInvalidPricingTimeout = errors.New("invalid pricing timeout: must be > 0")

	// ErrInvalidDedupWindow is returned when the dedup window is <= 0.
	ErrInvalidDedupWindow = errors.New("invalid dedup window: must be > 0 hours")

	// ErrInvalidCleanupThreshold is returned when the cleanup threshold is <= 0.
	ErrInvalidCleanupThreshold = errors.New("invalid cleanup threshold: must be > 0")

	// ErrInvalidWorkers is returned when the worker count is <= 0.
	ErrInvalidWorkers = errors.New("invalid worker count: must be > 0")

	// ErrInvalidTickInterval is returned when the live tick interval is <= 0.
	ErrInvalidTickInterval = errors.New("invalid tick interval: must be > 0")

	// ErrInvalidActivityWindow is returned when an activity window is <= 0.
	ErrInvalidActivityWindow = errors.New("invalid activity window: must be > 0")

	// ErrInvalidSnapshotTTL is returned when the snapshot TTL is <= 0.
	ErrInvalidSnapshotTTL = errors.New("invalid snapshot ttl: must be > 0")

	// ErrInvalidPlanLimit is returned when the plan token limit is <= 0.
	ErrInvalidPlanLimit = errors.New("invalid plan token limit: must be > 0")

	// ErrInvalidDebounceInterval is returned when the debounce interval is <= 0.
	ErrInvalidDebounceInterval = errors.New("invalid debounce interval: must be > 0")

	// ErrInvalidLogLevel is returned when the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when the log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
