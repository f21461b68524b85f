// Package event provides decoding of raw usage-log lines into typed
// event records.
//
// Each line of a session log is a JSON object that may or may not carry
// token usage. The decoder classifies every line into exactly one of
// three outcomes: a UsageEvent, a non-usage record, or a parse error.
// Malformed lines never abort a stream; callers count them and move on.
//
// Example usage:
//
//	d := event.NewDecoder()
//	res := d.DecodeLine(line)
//	switch res.Kind {
//	case event.KindUsage:
//	    fmt.Printf("tokens: %d\n", res.Event.Usage.Total())
//	case event.KindMalformed:
//	    malformed++
//	}
package event

import (
	"time"
)

// Usage contains token consumption for a single API call.
//
// Token categories:
// - InputTokens: regular input tokens
// - OutputTokens: generated output tokens
// - CacheCreationTokens: tokens written to the prompt cache
// - CacheReadTokens: tokens served from the prompt cache
//
// Invariant: all counts are >= 0.
type Usage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
}

// Total returns the sum of all token categories.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationTokens + u.CacheReadTokens
}

// IsZero reports whether every token category is zero.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheCreationTokens == 0 && u.CacheReadTokens == 0
}

// UsageEvent is one billable turn decoded from a session log line.
//
// Timestamp is nil when the line carried no timestamp or one that could
// not be parsed; such events are still processed (the dedup window
// treats them conservatively).
//
// SessionKey is not part of the wire format. It is the name of the
// directory containing the log file and is attached by the caller.
type UsageEvent struct {
	Timestamp       *time.Time
	SessionKey      string
	MessageID       string
	RequestID       string
	Model           string
	Usage           Usage
	DeclaredCostUSD *float64
}

// Fingerprint returns the dedup key derived from (MessageID, RequestID),
// or the empty string when either component is missing. Events without a
// fingerprint are never deduplicated.
func (e *UsageEvent) Fingerprint() string {
	if e.MessageID == "" || e.RequestID == "" {
		return ""
	}
	return e.MessageID + ":" + e.RequestID
}

// Empty reports whether the event carries no billable signal: every
// token count is zero and no cost was declared. Empty events are
// excluded from aggregation.
func (e *UsageEvent) Empty() bool {
	return e.Usage.IsZero() && e.DeclaredCostUSD == nil
}

// Date returns the event's UTC calendar date in YYYY-MM-DD form, or
// "unknown" when the timestamp is absent.
func (e *UsageEvent) Date() string {
	if e.Timestamp == nil {
		return "unknown"
	}
	return e.Timestamp.UTC().Format("2006-01-02")
}

// Kind classifies a decoded line.
type Kind int

const (
	// KindUsage means the line decoded to a usage event.
	KindUsage Kind = iota

	// KindNonUsage means the line was valid JSON but carried no
	// message.usage object (tool output, summaries, and so on).
	KindNonUsage

	// KindMalformed means the line was not valid JSON.
	KindMalformed
)

// Result is the tagged outcome of decoding one line.
//
// Event is non-nil only when Kind is KindUsage. Err is non-nil only
// when Kind is KindMalformed.
type Result struct {
	Kind  Kind
	Event *UsageEvent
	Err   error
}
