package event

import (
	"fmt"
	"time"
)

// naiveLayouts are timestamp layouts without zone information. Values
// matching one of these are assumed to be UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a log timestamp into UTC.
//
// Accepted forms, tried in order:
//   - RFC 3339 with a trailing "Z" or an explicit offset
//   - a naive "YYYY-MM-DDTHH:MM:SS[.fff]" datetime, assumed UTC
//
// Returns ErrTimestampFormat when no layout matches.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, s)
}
