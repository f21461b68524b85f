package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/logger"
)

// DefaultTableURL is the LiteLLM price database. Exported so tests can
// point it at an httptest server.
var DefaultTableURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// maxResponseBytes caps the price table download (5MB).
const maxResponseBytes = 5 * 1024 * 1024

// FetchConfig controls the one-time price table fetch.
type FetchConfig struct {
	// URL of the price table. Defaults to DefaultTableURL.
	URL string

	// Timeout for the whole request. Defaults to 10s.
	Timeout time.Duration

	// Offline skips the fetch entirely and uses the fallback table.
	Offline bool
}

// remoteEntry is one model entry in the LiteLLM price JSON. Rates are
// per token; absent fields mean the category is free.
type remoteEntry struct {
	InputCostPerToken         *float64 `json:"input_cost_per_token"`
	OutputCostPerToken        *float64 `json:"output_cost_per_token"`
	CacheCreationPerToken     *float64 `json:"cache_creation_input_token_cost"`
	CacheReadPerToken         *float64 `json:"cache_read_input_token_cost"`
}

// Fetch retrieves the price table once, falling back to the built-in
// table on any failure. It never returns an error: a price fetch
// failure degrades accounting, it does not abort it. The fetch is a
// single blocking call at startup and is never retried mid-run.
func Fetch(ctx context.Context, cfg FetchConfig, log logger.Logger) Table {
	if cfg.Offline {
		log.Debug("price fetch skipped, using built-in table")
		return FallbackTable()
	}

	table, err := fetchRemote(ctx, cfg)
	if err != nil {
		log.Warn("price table fetch failed, using built-in fallback", "error", err)
		return FallbackTable()
	}

	log.Info("price table fetched", "models", len(table))
	return table
}

// fetchRemote downloads and filters the remote price table.
func fetchRemote(ctx context.Context, cfg FetchConfig) (Table, error) {
	url := cfg.URL
	if url == "" {
		url = DefaultTableURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "usage-ledger/1.0")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}
	if resp.ContentLength > maxResponseBytes {
		return nil, fmt.Errorf("%w: response too large (%d bytes)", ErrFetchFailed, resp.ContentLength)
	}

	var raw map[string]remoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetchFailed, err)
	}

	table := make(Table)
	for model, entry := range raw {
		// Only bare claude- models; provider-prefixed duplicates are skipped.
		if !strings.HasPrefix(model, "claude-") {
			continue
		}

		var price ModelPrice
		if entry.InputCostPerToken != nil {
			price.InputPerToken = *entry.InputCostPerToken
		}
		if entry.OutputCostPerToken != nil {
			price.OutputPerToken = *entry.OutputCostPerToken
		}
		if entry.CacheCreationPerToken != nil {
			price.CacheCreationPerToken = *entry.CacheCreationPerToken
		}
		if entry.CacheReadPerToken != nil {
			price.CacheReadPerToken = *entry.CacheReadPerToken
		}
		table[model] = price
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no claude models in response", ErrFetchFailed)
	}

	return table, nil
}
