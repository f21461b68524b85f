// Package live renders the current active usage window as a polling
// terminal monitor. Each tick asks the window detector for the current
// window and redraws progress bars for token, budget, and time-remaining
// consumption, together with burn rates and a projected depletion time.
package live

import (
	"context"
	"io"
	"time"
)

// DefaultTickInterval is the polling interval between redraws.
const DefaultTickInterval = 3 * time.Second

// Config holds the configuration for the live monitor.
type Config struct {
	// TickInterval is the interval between display refreshes.
	// Defaults to DefaultTickInterval if zero.
	TickInterval time.Duration

	// PlanTokenLimit is the token budget of the billing plan, used for
	// the progress bars and the depletion projection.
	PlanTokenLimit int

	// JSON switches output to one machine-readable JSON document per
	// refresh instead of the human display.
	JSON bool

	// Once renders a single frame and returns instead of polling.
	Once bool

	// Out is the destination writer. Defaults to os.Stdout.
	Out io.Writer

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Monitor drives the live display until its context is cancelled.
type Monitor interface {
	// Run blocks rendering frames until ctx is cancelled, or renders a
	// single frame when configured with Once. Cancellation is a normal
	// exit and returns nil.
	Run(ctx context.Context) error
}
