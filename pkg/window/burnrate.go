package window

import "time"

// EstimateBurnRate extrapolates one session's consumption rate from the
// wall-clock span of its recent events.
//
// The span is the distance from earliest to latest event, floored at
// one minute so a burst (or a single event) reads as "within the last
// minute" instead of an infinite rate. Cost is scaled to per hour.
func EstimateBurnRate(tokens int, costUSD float64, earliest, latest time.Time) BurnRate {
	minutes := latest.Sub(earliest).Minutes()
	if minutes < 1 {
		minutes = 1
	}

	return BurnRate{
		TokensPerMinute: float64(tokens) / minutes,
		CostPerHour:     costUSD / minutes * 60,
	}
}

// add sums two rates. Window rates are per-session rates summed.
func (r BurnRate) add(o BurnRate) BurnRate {
	return BurnRate{
		TokensPerMinute: r.TokensPerMinute + o.TokensPerMinute,
		CostPerHour:     r.CostPerHour + o.CostPerHour,
	}
}
