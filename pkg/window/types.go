// Package window detects the active usage window and estimates its burn
// rate.
//
// An active window is the span of current activity across every session
// that produced events in the last couple of minutes. It is synthesized
// from recently modified log files, not tracked event by event; the
// synthesis is cheap enough to run on every poll tick of the live
// monitor, backed by a short in-memory cache and an optional persisted
// snapshot that survives restarts.
//
// Token attribution inside a window is a deliberate approximation: the
// recent total is split 50/50 between input and output, because the
// live view only needs magnitude, not category accuracy.
package window

import (
	"context"
	"time"
)

const (
	// DefaultRecentFileWindow is how recently a log file must have
	// been modified to be scanned for live activity.
	DefaultRecentFileWindow = 10 * time.Minute

	// DefaultRecentEventWindow is how recent an event must be to count
	// as live activity.
	DefaultRecentEventWindow = 2 * time.Minute

	// DefaultSnapshotTTL bounds how long a synthesized window is
	// served from the in-memory cache.
	DefaultSnapshotTTL = 30 * time.Second

	// DefaultPlanTokenLimit is the assumed per-window plan allowance
	// used for depletion projection when no limit is configured.
	DefaultPlanTokenLimit = 880000

	// budgetPerLimitToken converts a plan token limit into an
	// approximate USD budget for the same window.
	budgetPerLimitToken = 0.0015
)

// Logger defines the logging interface used by the window package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ActiveWindow describes current activity across all live sessions.
type ActiveWindow struct {
	// StartTime is the earliest recent activity contributing to the
	// window.
	StartTime time.Time `json:"start_time"`

	// EndTime is the projected end of the window: latest activity plus
	// the recent-file window. A persisted snapshot is only trusted
	// while its EndTime is still in the future.
	EndTime time.Time `json:"end_time"`

	// InputTokens and OutputTokens are each half of the recent total.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// CostUSD is the attributed cost of the recent events.
	CostUSD float64 `json:"cost_usd"`

	// ActiveSessionCount is the number of sessions contributing.
	ActiveSessionCount int `json:"active_session_count"`

	// BurnRate is the summed per-session consumption rate.
	BurnRate BurnRate `json:"burn_rate"`
}

// TotalTokens returns the window's combined token count.
func (w *ActiveWindow) TotalTokens() int {
	return w.InputTokens + w.OutputTokens
}

// BurnRate is a consumption rate extrapolated from recent activity.
type BurnRate struct {
	// TokensPerMinute is the summed token rate across sessions.
	TokensPerMinute float64 `json:"tokens_per_minute"`

	// CostPerHour is the summed cost rate across sessions.
	CostPerHour float64 `json:"cost_per_hour"`
}

// Detector finds the current active window.
type Detector interface {
	// Find returns the active window, or (nil, nil) when idle.
	//
	// Resolution order: fresh in-memory cache, persisted snapshot with
	// a future EndTime, then synthesis from recently modified files.
	// Synthesis failures on individual files are skipped, not fatal.
	Find(ctx context.Context) (*ActiveWindow, error)
}

// Config controls detection.
type Config struct {
	// RecentFileWindow defaults to DefaultRecentFileWindow.
	RecentFileWindow time.Duration

	// RecentEventWindow defaults to DefaultRecentEventWindow.
	RecentEventWindow time.Duration

	// SnapshotTTL defaults to DefaultSnapshotTTL.
	SnapshotTTL time.Duration

	// Clock supplies the current time. Defaults to time.Now.
	// Injectable for tests.
	Clock func() time.Time
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.RecentFileWindow <= 0 {
		c.RecentFileWindow = DefaultRecentFileWindow
	}
	if c.RecentEventWindow <= 0 {
		c.RecentEventWindow = DefaultRecentEventWindow
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = DefaultSnapshotTTL
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// BudgetUSD converts a plan token limit into the matching approximate
// USD budget.
func BudgetUSD(tokenLimit int) float64 {
	return float64(tokenLimit) * budgetPerLimitToken
}

// ProjectDepletion estimates when the token limit will be reached at
// the given rate. Returns nil when the rate is zero or the limit is
// already spent.
func ProjectDepletion(now time.Time, tokenLimit, currentTokens int, tokensPerMinute float64) *time.Time {
	if tokensPerMinute <= 0 || currentTokens >= tokenLimit {
		return nil
	}
	remaining := float64(tokenLimit - currentTokens)
	at := now.Add(time.Duration(remaining / tokensPerMinute * float64(time.Minute)))
	return &at
}
