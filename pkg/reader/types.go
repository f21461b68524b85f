// Package reader provides incremental log reading with persisted
// positions.
//
// The watch mode re-reads session files as they grow; the reader picks
// up from the last persisted byte offset so each line is decoded once
// across ticks and restarts. Truncated files reset to the beginning. A
// trailing line without a newline is left for the next read rather than
// decoded half-written.
//
// Example usage:
//
//	r, err := reader.New(reader.Config{
//	    PositionStore: store,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	results, err := r.Read(ctx, "/path/to/session.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, res := range results {
//	    if res.Kind == event.KindUsage {
//	        fmt.Printf("tokens: %d\n", res.Event.Usage.Total())
//	    }
//	}
package reader

import (
	"context"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

// PositionStore provides persistence for file read positions.
type PositionStore interface {
	// GetPosition retrieves the last read position for a file.
	//
	// Returns 0 if no position is stored (start from beginning).
	GetPosition(path string) (int64, error)

	// SetPosition stores the read position for a file.
	SetPosition(path string, offset int64) error
}

// Reader provides incremental log reading.
type Reader interface {
	// Read decodes new lines appended since the last read position.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Absolute path to JSONL file
	//
	// Returns:
	//   - Decoded results for the new lines, malformed ones included
	//   - Error if reading fails
	//
	// Automatically updates the stored position after a successful
	// read.
	Read(ctx context.Context, path string) ([]event.Result, error)

	// ReadFrom decodes lines starting at a specific offset.
	//
	// Does not update the stored position.
	ReadFrom(ctx context.Context, path string, offset int64) ([]event.Result, int64, error)

	// Reset resets the read position for a file to the beginning.
	Reset(path string) error

	// Close closes the reader and releases resources.
	Close() error
}

// Config contains reader configuration.
type Config struct {
	// PositionStore persists file read positions.
	PositionStore PositionStore

	// MaxRetries is the maximum number of retry attempts for transient
	// errors. Default: 3.
	MaxRetries int

	// RetryDelay is the base delay between retry attempts.
	// Uses exponential backoff: delay * 2^attempt.
	// Default: 100ms.
	RetryDelay time.Duration

	// MaxFileSize is the maximum file size to read (safety limit).
	// Default: 100MB.
	MaxFileSize int64
}
