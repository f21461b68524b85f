package pricing

import (
	"testing"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

// testTable prices the four categories so that the sample event
// (1000 input, 400 output) computes to exactly $7.00.
func testTable() Table {
	return Table{
		"claude-sonnet-4-20250514": {
			InputPerToken:         0.003,
			OutputPerToken:        0.01,
			CacheCreationPerToken: 0.001,
			CacheReadPerToken:     0.0001,
		},
	}
}

func testEvent() *event.UsageEvent {
	declared := 5.0
	return &event.UsageEvent{
		Model:           "claude-sonnet-4-20250514",
		DeclaredCostUSD: &declared,
		Usage:           event.Usage{InputTokens: 1000, OutputTokens: 400},
	}
}

func TestCost_Modes(t *testing.T) {
	t.Parallel()

	// Declared 5.0 vs computed 1000*0.003 + 400*0.01 = 7.0.
	ev := testEvent()

	cases := []struct {
		mode Mode
		want float64
	}{
		{ModeDisplay, 5.0},
		{ModeCalculate, 7.0},
		{ModeAuto, 5.0},
	}

	for _, tc := range cases {
		calc := NewCalculator(testTable(), tc.mode)
		if got := calc.Cost(ev); got != tc.want {
			t.Errorf("Cost(%s) = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestCost_AutoFallsBackToTokens(t *testing.T) {
	t.Parallel()

	ev := testEvent()
	ev.DeclaredCostUSD = nil

	calc := NewCalculator(testTable(), ModeAuto)
	if got := calc.Cost(ev); got != 7.0 {
		t.Errorf("Cost(auto, no declared) = %v, want 7.0", got)
	}
}

func TestCost_DisplayNeverComputes(t *testing.T) {
	t.Parallel()

	ev := testEvent()
	ev.DeclaredCostUSD = nil

	calc := NewCalculator(testTable(), ModeDisplay)
	if got := calc.Cost(ev); got != 0 {
		t.Errorf("Cost(display, no declared) = %v, want 0", got)
	}
}

func TestCost_UnknownModelIsFree(t *testing.T) {
	t.Parallel()

	ev := testEvent()
	ev.DeclaredCostUSD = nil
	ev.Model = "some-future-model"

	calc := NewCalculator(testTable(), ModeCalculate)
	if got := calc.Cost(ev); got != 0 {
		t.Errorf("Cost(unknown model) = %v, want 0", got)
	}
}

func TestCost_MissingCategoryRateIsFree(t *testing.T) {
	t.Parallel()

	table := Table{"m": {InputPerToken: 0.001}}
	ev := &event.UsageEvent{
		Model: "m",
		Usage: event.Usage{InputTokens: 1000, CacheReadTokens: 999999},
	}

	calc := NewCalculator(table, ModeCalculate)
	if got := calc.Cost(ev); got != 1.0 {
		t.Errorf("Cost() = %v, want 1.0 (cache reads free)", got)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"auto", "calculate", "display", ""} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error = %v", s, err)
		}
	}

	if _, err := ParseMode("guess"); err == nil {
		t.Error("ParseMode(guess) expected error")
	}
}

func TestFallbackTable(t *testing.T) {
	t.Parallel()

	table := FallbackTable()

	price, ok := table.Lookup("claude-sonnet-4-20250514")
	if !ok {
		t.Fatal("fallback table missing claude-sonnet-4-20250514")
	}
	if price.InputPerToken != 3e-06 {
		t.Errorf("InputPerToken = %v, want 3e-06", price.InputPerToken)
	}
	if price.OutputPerToken != 1.5e-05 {
		t.Errorf("OutputPerToken = %v, want 1.5e-05", price.OutputPerToken)
	}
}
