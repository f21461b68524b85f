package window

import "errors"

// Common errors returned by the window package.
var (
	// ErrSnapshotCorrupt is returned when a persisted snapshot cannot
	// be decoded. Callers treat it as no snapshot.
	ErrSnapshotCorrupt = errors.New("corrupt window snapshot")
)
