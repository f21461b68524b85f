package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatSessions implements Formatter.FormatSessions.
func (f *jsonFormatter) FormatSessions(w io.Writer, sessions []aggregate.SessionAggregate) error {
	return f.encode(w, sessions)
}

// FormatDaily implements Formatter.FormatDaily.
func (f *jsonFormatter) FormatDaily(w io.Writer, days []aggregate.DailyBreakdown) error {
	return f.encode(w, days)
}

// FormatMonthly implements Formatter.FormatMonthly.
func (f *jsonFormatter) FormatMonthly(w io.Writer, months []aggregate.MonthlyRollup) error {
	return f.encode(w, months)
}

// FormatWindow implements Formatter.FormatWindow.
func (f *jsonFormatter) FormatWindow(w io.Writer, win *window.ActiveWindow) error {
	if win == nil {
		return f.encode(w, map[string]bool{"active": false})
	}
	return f.encode(w, win)
}
