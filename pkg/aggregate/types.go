// Package aggregate accumulates admitted usage events into per-session
// totals and derives the day and month views from them.
//
// There is no separate daily or monthly state: both views are re-derived
// on demand from the same session aggregates, so the derivation
// consistency property (monthly totals equal the sum of their days)
// holds by construction.
//
// Example usage:
//
//	store := aggregate.NewStore()
//	store.Apply(ev, cost)
//	for _, day := range store.Daily() {
//	    fmt.Printf("%s: $%.2f\n", day.Date, day.TotalCost)
//	}
package aggregate

import (
	"github.com/0xmhha/usage-ledger/pkg/event"
)

// UnknownDate groups sessions whose events never carried a parseable
// timestamp.
const UnknownDate = "unknown"

// SessionAggregate is the accumulated usage of one session.
//
// Created lazily on the first admitted event for its key and mutated
// additively; never deleted mid-run.
type SessionAggregate struct {
	// SessionKey is the name of the directory containing the log file.
	SessionKey string

	// ProjectName is parsed from the session key.
	ProjectName string

	// Usage holds the four token category totals.
	Usage event.Usage

	// TotalCost is the attributed cost in USD.
	TotalCost float64

	// LastActivityDate is the lexically-latest YYYY-MM-DD date seen,
	// or UnknownDate when no event carried a timestamp. String
	// comparison is safe because the format is fixed and zero-padded.
	LastActivityDate string

	// ModelsUsed lists the distinct models seen, sorted.
	ModelsUsed []string
}

// ProjectRollup is one project's share of a day.
type ProjectRollup struct {
	Project     string
	Sessions    int
	TotalCost   float64
	TotalTokens int
}

// DailyBreakdown is one day's usage with per-project rollups.
type DailyBreakdown struct {
	// Date in YYYY-MM-DD form, or UnknownDate.
	Date string

	// Projects sorted by cost descending.
	Projects []ProjectRollup

	TotalCost     float64
	TotalSessions int
	TotalTokens   int
}

// MonthlyRollup sums a month's daily breakdowns.
type MonthlyRollup struct {
	// Month in YYYY-MM form.
	Month string

	TotalCost     float64
	TotalSessions int
	TotalTokens   int
}

// Store accumulates admitted events and serves the three read views.
type Store interface {
	// Apply folds one admitted event into its session aggregate.
	// Must be called exactly once per admitted event.
	Apply(ev *event.UsageEvent, costUSD float64)

	// Sessions returns all session aggregates, most recent activity
	// first.
	Sessions() []SessionAggregate

	// Daily groups sessions by last-activity date with per-project
	// breakdowns, newest date first.
	Daily() []DailyBreakdown

	// Monthly sums daily totals by the date's YYYY-MM prefix,
	// ascending. Sessions without dates are excluded.
	Monthly() []MonthlyRollup

	// Len returns the number of session aggregates.
	Len() int
}
