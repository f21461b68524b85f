package pricing

// FallbackTable returns the built-in price constants used when the
// remote table is unreachable. Rates are USD per token.
func FallbackTable() Table {
	return Table{
		"claude-sonnet-4-20250514": {
			InputPerToken:         3e-06,  // $3 / 1M
			OutputPerToken:        1.5e-05, // $15 / 1M
			CacheCreationPerToken: 3.75e-06,
			CacheReadPerToken:     3e-07,
		},
		"claude-opus-4-20250514": {
			InputPerToken:         1.5e-05, // $15 / 1M
			OutputPerToken:        7.5e-05, // $75 / 1M
			CacheCreationPerToken: 1.875e-05,
			CacheReadPerToken:     1.5e-06,
		},
		"claude-3-5-sonnet-20241022": {
			InputPerToken:  3e-06,
			OutputPerToken: 1.5e-05,
		},
		"claude-3-5-haiku-20241022": {
			InputPerToken:  8e-07,
			OutputPerToken: 4e-06,
		},
	}
}
