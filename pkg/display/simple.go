package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatSessions implements Formatter.FormatSessions.
func (f *simpleFormatter) FormatSessions(w io.Writer, sessions []aggregate.SessionAggregate) error {
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s (%s): %s tokens, %s\n",
			s.ProjectName,
			s.LastActivityDate,
			formatNumber(s.Usage.Total()),
			formatUSD(s.TotalCost)); err != nil {
			return err
		}
	}
	return nil
}

// FormatDaily implements Formatter.FormatDaily.
func (f *simpleFormatter) FormatDaily(w io.Writer, days []aggregate.DailyBreakdown) error {
	for _, day := range days {
		if _, err := fmt.Fprintf(w, "%s: %d sessions, %s tokens, %s\n",
			day.Date,
			day.TotalSessions,
			formatNumber(day.TotalTokens),
			formatUSD(day.TotalCost)); err != nil {
			return err
		}
	}
	return nil
}

// FormatMonthly implements Formatter.FormatMonthly.
func (f *simpleFormatter) FormatMonthly(w io.Writer, months []aggregate.MonthlyRollup) error {
	for _, m := range months {
		if _, err := fmt.Fprintf(w, "%s: %d sessions, %s tokens, %s\n",
			m.Month,
			m.TotalSessions,
			formatNumber(m.TotalTokens),
			formatUSD(m.TotalCost)); err != nil {
			return err
		}
	}
	return nil
}

// FormatWindow implements Formatter.FormatWindow.
func (f *simpleFormatter) FormatWindow(w io.Writer, win *window.ActiveWindow) error {
	if win == nil {
		_, err := fmt.Fprintln(w, "No active session")
		return err
	}

	_, err := fmt.Fprintf(w, "%d sessions | %s tokens | %s | %.0f tok/min | ends %s\n",
		win.ActiveSessionCount,
		formatNumber(win.TotalTokens()),
		formatUSD(win.CostUSD),
		win.BurnRate.TokensPerMinute,
		win.EndTime.Local().Format("15:04:05"))
	return err
}
