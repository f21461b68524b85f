// Package dedup provides the time-windowed deduplication that keeps
// replicated and retried log lines from being counted twice.
//
// A window tracks event fingerprints with the timestamp at which each
// was first admitted. Repeats inside the window are rejected; repeats
// far enough apart are treated as coincidental ID reuse and admitted
// again. The tracked set is bounded: once it grows past a cleanup
// threshold, entries older than twice the window (relative to the most
// recently processed timestamp) are evicted.
//
// A window is explicit state constructed per run and passed through the
// aggregation pass; there is no package-level singleton. The sequential
// ingest pass shares one global window across all files. The parallel
// variant gives each path its own local window, a documented accuracy
// trade-off chosen by configuration.
//
// Example usage:
//
//	w := dedup.NewWindow(dedup.Config{})
//	if w.Admit(ev) {
//	    store.Apply(ev, cost)
//	}
package dedup

import (
	"time"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

const (
	// DefaultWindowHours is the span within which a repeated
	// fingerprint counts as the same billable event.
	DefaultWindowHours = 24

	// DefaultCleanupThreshold is the tracked-fingerprint count that
	// triggers eviction of aged entries.
	DefaultCleanupThreshold = 10000
)

// Window admits or rejects usage events by fingerprint.
//
// Admit must be invoked once per usage event in global near-chronological
// order; ordering is what lets eviction stay memory-bounded without
// losing near-duplicates.
type Window interface {
	// Admit reports whether the event should be counted.
	//
	// Rules:
	//   - no fingerprint: always admit
	//   - fingerprint unseen: admit, record first-seen time
	//   - fingerprint seen but either timestamp missing: reject
	//   - fingerprint seen, both present: admit only when the gap
	//     exceeds the window; the first-seen time then resets
	Admit(ev *event.UsageEvent) bool

	// Stats returns counters accumulated since construction.
	Stats() Stats
}

// Stats reports what a window has done so far.
type Stats struct {
	// Processed is the number of Admit calls.
	Processed int

	// Admitted is the number of events allowed through.
	Admitted int

	// Rejected is the number of events suppressed as duplicates.
	Rejected int

	// Evicted is the number of tracked fingerprints dropped by cleanup.
	Evicted int

	// Tracked is the current tracked-fingerprint count.
	Tracked int
}

// Config controls a window's behavior.
type Config struct {
	// WindowHours is the dedup window. Defaults to DefaultWindowHours.
	WindowHours int

	// CleanupThreshold triggers eviction once exceeded. Defaults to
	// DefaultCleanupThreshold.
	CleanupThreshold int

	// Clock supplies the current time when an eviction is triggered by
	// an event that carries no timestamp. Defaults to time.Now.
	// Injectable for tests.
	Clock func() time.Time
}
