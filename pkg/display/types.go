// Package display provides output formatting for usage reports.
//
// It supports multiple output formats (table, JSON, simple text) for
// the session, daily and monthly views, plus the one-shot active
// window report.
package display

import (
	"io"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays reports in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays reports as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays reports in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats and displays usage reports.
type Formatter interface {
	// FormatSessions formats the per-session report.
	//
	// Parameters:
	//   - w: Output writer
	//   - sessions: Session aggregates, already ordered and limited
	//
	// Returns error if formatting fails.
	FormatSessions(w io.Writer, sessions []aggregate.SessionAggregate) error

	// FormatDaily formats the per-day report with project breakdowns.
	FormatDaily(w io.Writer, days []aggregate.DailyBreakdown) error

	// FormatMonthly formats the per-month report.
	FormatMonthly(w io.Writer, months []aggregate.MonthlyRollup) error

	// FormatWindow formats the active window report. A nil window
	// means no current activity.
	FormatWindow(w io.Writer, win *window.ActiveWindow) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowProjects enables per-project rows in the daily report.
	// Default: true for table output.
	ShowProjects bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
