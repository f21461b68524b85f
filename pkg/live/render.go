package live

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/window"
)

const barWidth = 30

// frame is the JSON document emitted per refresh in JSON mode.
type frame struct {
	Active             bool                 `json:"active"`
	GeneratedAt        time.Time            `json:"generated_at"`
	PlanTokenLimit     int                  `json:"plan_token_limit"`
	BudgetUSD          float64              `json:"budget_usd"`
	Window             *window.ActiveWindow `json:"window,omitempty"`
	ProjectedDepletion *time.Time           `json:"projected_depletion,omitempty"`
}

// renderJSON writes one machine-readable frame.
func renderJSON(w io.Writer, win *window.ActiveWindow, now time.Time, planLimit int) error {
	f := frame{
		Active:         win != nil,
		GeneratedAt:    now,
		PlanTokenLimit: planLimit,
		BudgetUSD:      window.BudgetUSD(planLimit),
		Window:         win,
	}
	if win != nil {
		f.ProjectedDepletion = window.ProjectDepletion(
			now, planLimit, win.TotalTokens(), win.BurnRate.TokensPerMinute)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(f)
}

// renderFrame writes one human-readable frame with progress bars.
func renderFrame(w io.Writer, win *window.ActiveWindow, now time.Time, planLimit int) {
	fmt.Fprintf(w, "Usage monitor  %s\n\n", now.Format("2006-01-02 15:04:05"))

	if win == nil {
		fmt.Fprintln(w, "No active session window.")
		return
	}

	tokens := win.TotalTokens()
	budget := window.BudgetUSD(planLimit)

	fmt.Fprintf(w, "Active window  %s - %s  (%d session%s)\n\n",
		win.StartTime.Format("15:04"),
		win.EndTime.Format("15:04"),
		win.ActiveSessionCount,
		plural(win.ActiveSessionCount))

	writeBar(w, "Tokens", fraction(float64(tokens), float64(planLimit)),
		fmt.Sprintf("%s / %s", formatCount(tokens), formatCount(planLimit)))
	writeBar(w, "Budget", fraction(win.CostUSD, budget),
		fmt.Sprintf("$%.2f / $%.2f", win.CostUSD, budget))
	writeBar(w, "Resets", elapsedFraction(win, now),
		fmt.Sprintf("in %s", formatDuration(win.EndTime.Sub(now))))

	fmt.Fprintf(w, "\nBurn rate      %.1f tok/min  ·  $%.2f/hr\n",
		win.BurnRate.TokensPerMinute, win.BurnRate.CostPerHour)
	fmt.Fprintf(w, "Input/Output   %s / %s\n",
		formatCount(win.InputTokens), formatCount(win.OutputTokens))

	if dep := window.ProjectDepletion(now, planLimit, tokens, win.BurnRate.TokensPerMinute); dep != nil {
		fmt.Fprintf(w, "Depletion      ~%s at current rate\n", dep.Format("15:04"))
	} else {
		fmt.Fprintln(w, "Depletion      not at current rate")
	}
}

// writeBar draws a single labelled progress bar line.
func writeBar(w io.Writer, label string, frac float64, detail string) {
	fmt.Fprintf(w, "%-8s [%s] %5.1f%%  %s\n", label, bar(frac, barWidth), frac*100, detail)
}

// bar renders a fixed-width progress bar for a fraction in [0, 1].
func bar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

// fraction divides with a zero-denominator guard.
func fraction(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// elapsedFraction reports how much of the window has passed.
func elapsedFraction(win *window.ActiveWindow, now time.Time) float64 {
	span := win.EndTime.Sub(win.StartTime)
	if span <= 0 {
		return 1
	}
	return fraction(now.Sub(win.StartTime).Minutes(), span.Minutes())
}

// formatDuration renders a duration as "1h23m" or "12m", floored at zero.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + formatCount(-n)
	}
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
