package pricing

import (
	"github.com/0xmhha/usage-ledger/pkg/event"
)

// Calculator attributes a USD cost to usage events under a fixed mode.
type Calculator struct {
	table Table
	mode  Mode
}

// NewCalculator creates a calculator over the given table and mode.
func NewCalculator(table Table, mode Mode) *Calculator {
	if mode == "" {
		mode = ModeAuto
	}
	return &Calculator{table: table, mode: mode}
}

// Mode returns the calculator's cost mode.
func (c *Calculator) Mode() Mode {
	return c.mode
}

// Cost returns the attributable cost in USD for one event.
//
// display: the declared cost verbatim, zero when absent.
// calculate: token counts times per-token rates, unknown model is zero.
// auto: declared cost when present, otherwise calculated.
func (c *Calculator) Cost(ev *event.UsageEvent) float64 {
	switch c.mode {
	case ModeDisplay:
		if ev.DeclaredCostUSD == nil {
			return 0
		}
		return *ev.DeclaredCostUSD
	case ModeCalculate:
		return c.fromTokens(ev)
	default: // ModeAuto
		if ev.DeclaredCostUSD != nil {
			return *ev.DeclaredCostUSD
		}
		return c.fromTokens(ev)
	}
}

func (c *Calculator) fromTokens(ev *event.UsageEvent) float64 {
	price, ok := c.table.Lookup(ev.Model)
	if !ok {
		return 0
	}

	cost := float64(ev.Usage.InputTokens) * price.InputPerToken
	cost += float64(ev.Usage.OutputTokens) * price.OutputPerToken
	cost += float64(ev.Usage.CacheCreationTokens) * price.CacheCreationPerToken
	cost += float64(ev.Usage.CacheReadTokens) * price.CacheReadPerToken
	return cost
}
