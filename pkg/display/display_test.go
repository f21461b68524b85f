package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/event"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

func sampleSessions() []aggregate.SessionAggregate {
	return []aggregate.SessionAggregate{
		{
			SessionKey:       "-home-u-projects-app",
			ProjectName:      "app",
			Usage:            event.Usage{InputTokens: 1200, OutputTokens: 345},
			TotalCost:        2.5,
			LastActivityDate: "2024-03-01",
			ModelsUsed:       []string{"claude-sonnet-4-20250514"},
		},
		{
			SessionKey:       "-home-u-projects-web",
			ProjectName:      "web",
			Usage:            event.Usage{InputTokens: 10, OutputTokens: 5},
			TotalCost:        0.01,
			LastActivityDate: aggregate.UnknownDate,
		},
	}
}

func sampleDaily() []aggregate.DailyBreakdown {
	return []aggregate.DailyBreakdown{
		{
			Date:          "2024-03-01",
			TotalSessions: 2,
			TotalTokens:   1560,
			TotalCost:     2.51,
			Projects: []aggregate.ProjectRollup{
				{Project: "app", Sessions: 1, TotalTokens: 1545, TotalCost: 2.5},
				{Project: "web", Sessions: 1, TotalTokens: 15, TotalCost: 0.01},
			},
		},
	}
}

func sampleWindow() *window.ActiveWindow {
	return &window.ActiveWindow{
		StartTime:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EndTime:            time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC),
		InputTokens:        500,
		OutputTokens:       500,
		CostUSD:            1.5,
		ActiveSessionCount: 2,
		BurnRate:           window.BurnRate{TokensPerMinute: 100, CostPerHour: 9},
	}
}

func TestNew_DefaultsToTable(t *testing.T) {
	t.Parallel()

	if _, ok := New(Config{}).(*tableFormatter); !ok {
		t.Error("New() with empty format should return the table formatter")
	}
	if _, ok := New(Config{Format: FormatJSON}).(*jsonFormatter); !ok {
		t.Error("New(json) should return the JSON formatter")
	}
	if _, ok := New(Config{Format: FormatSimple}).(*simpleFormatter); !ok {
		t.Error("New(simple) should return the simple formatter")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, good := range []string{"table", "json", "simple"} {
		if _, err := ParseFormat(good); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", good, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestTable_Sessions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := New(Config{Format: FormatTable})

	if err := f.FormatSessions(&buf, sampleSessions()); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"app", "web", "1,200", "$2.50", "2024-03-01", "unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTable_EmptySessions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{}).FormatSessions(&buf, nil); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No data") {
		t.Errorf("empty output = %q, want a No data marker", buf.String())
	}
}

func TestTable_DailyProjects(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := New(Config{Format: FormatTable, ShowProjects: true})

	if err := f.FormatDaily(&buf, sampleDaily()); err != nil {
		t.Fatalf("FormatDaily() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"2024-03-01", "(all)", "app", "web"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Without project rows only the day summary shows.
	buf.Reset()
	if err := New(Config{Format: FormatTable}).FormatDaily(&buf, sampleDaily()); err != nil {
		t.Fatalf("FormatDaily() error = %v", err)
	}
	if strings.Contains(buf.String(), "app") {
		t.Errorf("project rows shown without ShowProjects:\n%s", buf.String())
	}
}

func TestTable_WindowIdle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{}).FormatWindow(&buf, nil); err != nil {
		t.Fatalf("FormatWindow() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No active session") {
		t.Errorf("idle output = %q", buf.String())
	}
}

func TestJSON_SessionsRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := New(Config{Format: FormatJSON})

	if err := f.FormatSessions(&buf, sampleSessions()); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}

	var decoded []aggregate.SessionAggregate
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ProjectName != "app" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestJSON_WindowIdle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON}).FormatWindow(&buf, nil); err != nil {
		t.Fatalf("FormatWindow() error = %v", err)
	}

	var decoded map[string]bool
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["active"] {
		t.Errorf("idle window decoded as active: %v", decoded)
	}
}

func TestSimple_Monthly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := New(Config{Format: FormatSimple})

	months := []aggregate.MonthlyRollup{
		{Month: "2024-03", TotalSessions: 4, TotalTokens: 123456, TotalCost: 9.99},
	}
	if err := f.FormatMonthly(&buf, months); err != nil {
		t.Fatalf("FormatMonthly() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"2024-03", "123,456", "$9.99"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSimple_Window(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatSimple}).FormatWindow(&buf, sampleWindow()); err != nil {
		t.Fatalf("FormatWindow() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"2 sessions", "1,000 tokens", "$1.50", "100 tok/min"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.in); got != tc.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
