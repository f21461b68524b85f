package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatSessions implements Formatter.FormatSessions.
func (f *tableFormatter) FormatSessions(w io.Writer, sessions []aggregate.SessionAggregate) error {
	if err := writeHeader(w, "Usage by Session", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Project", "Last Activity", "Input", "Output", "Cache", "Total Tokens", "Cost", "Models"}

	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		rows[i] = []string{
			s.ProjectName,
			s.LastActivityDate,
			formatNumber(s.Usage.InputTokens),
			formatNumber(s.Usage.OutputTokens),
			formatNumber(s.Usage.CacheCreationTokens + s.Usage.CacheReadTokens),
			formatNumber(s.Usage.Total()),
			formatUSD(s.TotalCost),
			strings.Join(s.ModelsUsed, ", "),
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatDaily implements Formatter.FormatDaily.
func (f *tableFormatter) FormatDaily(w io.Writer, days []aggregate.DailyBreakdown) error {
	if err := writeHeader(w, "Usage by Day", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Date", "Project", "Sessions", "Tokens", "Cost"}

	var rows [][]string
	for _, day := range days {
		rows = append(rows, []string{
			day.Date,
			"(all)",
			formatNumber(day.TotalSessions),
			formatNumber(day.TotalTokens),
			formatUSD(day.TotalCost),
		})

		if !f.config.ShowProjects {
			continue
		}
		for _, pr := range day.Projects {
			rows = append(rows, []string{
				"",
				pr.Project,
				formatNumber(pr.Sessions),
				formatNumber(pr.TotalTokens),
				formatUSD(pr.TotalCost),
			})
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatMonthly implements Formatter.FormatMonthly.
func (f *tableFormatter) FormatMonthly(w io.Writer, months []aggregate.MonthlyRollup) error {
	if err := writeHeader(w, "Usage by Month", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Month", "Sessions", "Tokens", "Cost"}

	rows := make([][]string, len(months))
	for i, m := range months {
		rows[i] = []string{
			m.Month,
			formatNumber(m.TotalSessions),
			formatNumber(m.TotalTokens),
			formatUSD(m.TotalCost),
		}
	}

	return f.writeTable(w, header, rows)
}

// FormatWindow implements Formatter.FormatWindow.
func (f *tableFormatter) FormatWindow(w io.Writer, win *window.ActiveWindow) error {
	if win == nil {
		_, err := fmt.Fprintln(w, "No active session")
		return err
	}

	if err := writeHeader(w, "Active Window", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Started", win.StartTime.Local().Format("2006-01-02 15:04:05")},
		{"Ends", win.EndTime.Local().Format("2006-01-02 15:04:05")},
		{"Active Sessions", formatNumber(win.ActiveSessionCount)},
		{"Tokens", formatNumber(win.TotalTokens())},
		{"Cost", formatUSD(win.CostUSD)},
		{"Burn Rate", fmt.Sprintf("%.0f tok/min", win.BurnRate.TokensPerMinute)},
		{"Cost Rate", fmt.Sprintf("%s/hour", formatUSD(win.BurnRate.CostPerHour))},
		{"Remaining", win.EndTime.Sub(time.Now()).Round(time.Second).String()},
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Write header.
	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	// Write separator.
	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	// Write rows.
	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	// Add spacing.
	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	for i, cell := range cells {
		if i > 0 {
			sep := "  "
			if f.config.Compact {
				sep = " "
			}
			if _, err := fmt.Fprint(w, sep); err != nil {
				return err
			}
		}

		format := fmt.Sprintf("%%-%ds", widths[i])
		if _, err := fmt.Fprintf(w, format, cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
