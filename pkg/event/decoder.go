package event

import (
	"encoding/json"
	"fmt"
)

// Decoder turns raw log lines into classified event records.
type Decoder interface {
	// DecodeLine decodes a single line (without trailing newline).
	//
	// A line classifies as a usage event only when it decodes to a JSON
	// object containing a "message" object with a nested "usage"
	// object. Any other valid JSON is a non-usage record. Invalid JSON
	// is malformed; the stream continues.
	//
	// An unparsable timestamp does not make a line malformed: the event
	// is returned with a nil Timestamp.
	//
	// Thread-safety: safe for concurrent use.
	DecodeLine(line []byte) Result
}

// wireMessage mirrors the nested "message" object on the wire.
type wireMessage struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage *Usage `json:"usage"`
}

// wireRecord mirrors the fields of a log line the decoder cares about.
// Unknown fields are ignored.
type wireRecord struct {
	Timestamp string       `json:"timestamp"`
	RequestID string       `json:"requestId"`
	CostUSD   *float64     `json:"costUSD"`
	Message   *wireMessage `json:"message"`
}

type jsonDecoder struct{}

// NewDecoder creates a Decoder for the JSONL usage-log format.
func NewDecoder() Decoder {
	return &jsonDecoder{}
}

// DecodeLine implements Decoder.DecodeLine.
func (d *jsonDecoder) DecodeLine(line []byte) Result {
	if len(line) == 0 {
		return Result{Kind: KindMalformed, Err: fmt.Errorf("%w: empty line", ErrMalformedLine)}
	}

	var rec wireRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Result{Kind: KindMalformed, Err: fmt.Errorf("%w: %v", ErrMalformedLine, err)}
	}

	if rec.Message == nil || rec.Message.Usage == nil {
		return Result{Kind: KindNonUsage}
	}

	ev := &UsageEvent{
		MessageID:       rec.Message.ID,
		RequestID:       rec.RequestID,
		Model:           rec.Message.Model,
		Usage:           *rec.Message.Usage,
		DeclaredCostUSD: rec.CostUSD,
	}

	// A bad timestamp degrades to nil rather than rejecting the line.
	if rec.Timestamp != "" {
		if ts, err := ParseTimestamp(rec.Timestamp); err == nil {
			ev.Timestamp = &ts
		}
	}

	return Result{Kind: KindUsage, Event: ev}
}
