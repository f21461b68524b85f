package dedup

import (
	"time"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

// window implements the Window interface.
//
// Not safe for concurrent use: the sequential ingest pass needs no
// locks, and the parallel variant constructs one window per worker
// rather than sharing.
type window struct {
	windowSpan       time.Duration
	cleanupThreshold int
	clock            func() time.Time

	// seen holds every tracked fingerprint; firstSeen holds the subset
	// that was admitted with a timestamp. A fingerprint in seen but not
	// in firstSeen rejects all repeats (conservative default).
	seen      map[string]struct{}
	firstSeen map[string]time.Time

	stats Stats
}

// NewWindow creates a deduplication window.
func NewWindow(cfg Config) Window {
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = DefaultWindowHours
	}
	if cfg.CleanupThreshold <= 0 {
		cfg.CleanupThreshold = DefaultCleanupThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &window{
		windowSpan:       time.Duration(cfg.WindowHours) * time.Hour,
		cleanupThreshold: cfg.CleanupThreshold,
		clock:            cfg.Clock,
		seen:             make(map[string]struct{}),
		firstSeen:        make(map[string]time.Time),
	}
}

// Admit implements Window.Admit.
func (w *window) Admit(ev *event.UsageEvent) bool {
	w.stats.Processed++

	fp := ev.Fingerprint()
	if fp == "" {
		w.stats.Admitted++
		return true
	}

	if _, dup := w.seen[fp]; dup {
		first, hasFirst := w.firstSeen[fp]
		if !hasFirst || ev.Timestamp == nil {
			// Missing timestamp on either side: reject unconditionally.
			w.stats.Rejected++
			return false
		}

		gap := ev.Timestamp.Sub(first)
		if gap < 0 {
			gap = -gap
		}
		if gap <= w.windowSpan {
			w.stats.Rejected++
			return false
		}

		// Aged out: coincidental reuse in a different billing period.
		// Count it again and restart the window from here.
		w.firstSeen[fp] = *ev.Timestamp
		w.stats.Admitted++
		return true
	}

	w.seen[fp] = struct{}{}
	if ev.Timestamp != nil {
		w.firstSeen[fp] = *ev.Timestamp
	}
	w.stats.Admitted++

	if len(w.firstSeen) > w.cleanupThreshold {
		w.evict(ev.Timestamp)
	}

	return true
}

// evict drops entries older than twice the window relative to the most
// recently processed timestamp.
func (w *window) evict(current *time.Time) {
	now := w.clock()
	if current != nil {
		now = *current
	}
	cutoff := now.Add(-2 * w.windowSpan)

	for fp, first := range w.firstSeen {
		if first.Before(cutoff) {
			delete(w.firstSeen, fp)
			delete(w.seen, fp)
			w.stats.Evicted++
		}
	}
}

// Stats implements Window.Stats.
func (w *window) Stats() Stats {
	s := w.stats
	s.Tracked = len(w.seen)
	return s
}
