package window

import (
	"testing"
	"time"
)

func TestEstimateBurnRate_SpansWallClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	rate := EstimateBurnRate(500, 2.5, start, end)
	if rate.TokensPerMinute != 100 {
		t.Errorf("TokensPerMinute = %v, want 100", rate.TokensPerMinute)
	}
	if rate.CostPerHour != 30 {
		t.Errorf("CostPerHour = %v, want 30 (2.5/5min * 60)", rate.CostPerHour)
	}
}

func TestEstimateBurnRate_FloorsAtOneMinute(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Single event: zero span, read as one minute.
	rate := EstimateBurnRate(120, 1.2, at, at)
	if rate.TokensPerMinute != 120 {
		t.Errorf("TokensPerMinute = %v, want 120", rate.TokensPerMinute)
	}

	// Sub-minute burst floors the same way.
	rate = EstimateBurnRate(120, 1.2, at, at.Add(10*time.Second))
	if rate.TokensPerMinute != 120 {
		t.Errorf("TokensPerMinute (burst) = %v, want 120", rate.TokensPerMinute)
	}
}

func TestProjectDepletion(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	at := ProjectDepletion(now, 1000, 400, 100)
	if at == nil {
		t.Fatal("ProjectDepletion returned nil for a positive rate")
	}
	if want := now.Add(6 * time.Minute); !at.Equal(want) {
		t.Errorf("depletion = %v, want %v", at, want)
	}

	if ProjectDepletion(now, 1000, 400, 0) != nil {
		t.Error("zero rate should project no depletion")
	}
	if ProjectDepletion(now, 1000, 1000, 100) != nil {
		t.Error("spent limit should project no depletion")
	}
}

func TestBudgetUSD(t *testing.T) {
	t.Parallel()

	if got := BudgetUSD(DefaultPlanTokenLimit); got != 1320 {
		t.Errorf("BudgetUSD(%d) = %v, want 1320", DefaultPlanTokenLimit, got)
	}
}
