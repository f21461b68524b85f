package pricing

import "errors"

// Common errors returned by the pricing package.
var (
	// ErrInvalidMode is returned when a cost mode string is not one of
	// auto, calculate, or display.
	ErrInvalidMode = errors.New("invalid cost mode: must be auto, calculate, or display")

	// ErrFetchFailed is returned when the remote price table cannot be
	// retrieved. Callers fall back to the built-in table.
	ErrFetchFailed = errors.New("price table fetch failed")
)
