// Package watcher provides real-time monitoring of session log trees.
//
// It uses fsnotify to watch the projects/ directories under the
// configured roots and surfaces changes to .jsonl files, debounced so
// the rapid append bursts a live session produces coalesce into single
// events. The watch mode pairs it with the incremental reader: each
// surfaced path is re-read from its persisted offset.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 100 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"~/.claude/projects"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("log %s: %s\n", event.Path, event.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to a session log file.
type Event struct {
	// Path is the absolute path to the file that changed.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching the specified paths and their
	// subdirectories.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - paths: Directories to watch
	//
	// Returns error if watching cannot be started. The processing loop
	// runs in the background until the context is cancelled or Stop is
	// called.
	Start(ctx context.Context, paths []string) error

	// Stop gracefully shuts down the watcher.
	Stop() error

	// Events returns the channel for receiving file events.
	//
	// Events are debounced based on the configured interval. The
	// channel is closed when the watcher closes.
	Events() <-chan Event

	// Errors returns the channel for receiving watcher errors.
	//
	// Non-fatal errors are sent to this channel. The channel is closed
	// when the watcher closes.
	Errors() <-chan error

	// Close closes the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the time to wait before emitting an event.
	// Multiple events for the same file within this interval are
	// coalesced. Default: 100ms.
	DebounceInterval time.Duration

	// ErrorThreshold is the number of consecutive fsnotify failures
	// before the watcher reports ErrTooManyFailures and stops
	// forwarding. Default: 5.
	ErrorThreshold int
}
