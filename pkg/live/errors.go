package live

import "errors"

var (
	// ErrNilDetector is returned when the monitor is created without a
	// window detector.
	ErrNilDetector = errors.New("detector is required")

	// ErrMonitorRunning is returned when Run is called while a previous
	// Run on the same monitor has not returned.
	ErrMonitorRunning = errors.New("monitor is already running")
)
