package event

import "errors"

// Common errors returned by the event package.
var (
	// ErrMalformedLine is returned when a line is not valid JSON.
	ErrMalformedLine = errors.New("malformed log line")

	// ErrTimestampFormat is returned when a timestamp string matches
	// no supported layout.
	ErrTimestampFormat = errors.New("unsupported timestamp format")
)
