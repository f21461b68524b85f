package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrInvalidDateFilter is returned when a --since/--until bound is
	// not a valid YYYY-MM-DD date or the bounds are reversed.
	ErrInvalidDateFilter = errors.New("invalid date filter")

	// ErrInvalidPath is returned when a root path is invalid or
	// inaccessible.
	ErrInvalidPath = errors.New("invalid or inaccessible path")
)
