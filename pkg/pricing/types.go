// Package pricing provides the model price table and cost attribution
// for usage events.
//
// The price table maps model identifiers to per-token rates across the
// four token categories. It is fetched once at startup from the LiteLLM
// price database with a short timeout; on any failure a built-in
// fallback table is used instead. Missing entries and missing category
// rates are treated as free, never as errors.
//
// Example usage:
//
//	table := pricing.Fetch(ctx, pricing.FetchConfig{}, log)
//	calc := pricing.NewCalculator(table, pricing.ModeAuto)
//	cost := calc.Cost(ev)
package pricing

// ModelPrice holds per-token USD rates for one model.
//
// A zero rate means the category is free for this model.
type ModelPrice struct {
	InputPerToken         float64
	OutputPerToken        float64
	CacheCreationPerToken float64
	CacheReadPerToken     float64
}

// Table maps a model identifier to its per-token rates.
//
// The table is read-only after construction.
type Table map[string]ModelPrice

// Lookup returns the price entry for a model. Unknown models report
// ok=false; callers attribute zero cost in that case.
func (t Table) Lookup(model string) (ModelPrice, bool) {
	p, ok := t[model]
	return p, ok
}

// Mode selects how declared and computed costs combine.
//
// The three modes are independently selectable and are never collapsed
// into a single heuristic.
type Mode string

const (
	// ModeAuto uses the declared cost when present, otherwise computes
	// from tokens. This is the default.
	ModeAuto Mode = "auto"

	// ModeCalculate always computes from tokens and ignores any
	// declared cost.
	ModeCalculate Mode = "calculate"

	// ModeDisplay returns the declared cost verbatim (zero when
	// absent) and never computes from tokens.
	ModeDisplay Mode = "display"
)

// ParseMode validates a cost mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeCalculate, ModeDisplay:
		return Mode(s), nil
	case "":
		return ModeAuto, nil
	default:
		return "", ErrInvalidMode
	}
}
