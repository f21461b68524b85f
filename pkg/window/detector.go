package window

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/discovery"
	"github.com/0xmhha/usage-ledger/pkg/event"
	"github.com/0xmhha/usage-ledger/pkg/pricing"
)

// maxLineBytes caps a single log line during synthesis.
const maxLineBytes = 4 * 1024 * 1024

// sessionActivity accumulates one session's recent events.
type sessionActivity struct {
	earliest time.Time
	latest   time.Time
	tokens   int
	costUSD  float64
}

// detector implements the Detector interface.
type detector struct {
	planner   discovery.Planner
	decoder   event.Decoder
	calc      *pricing.Calculator
	snapshots SnapshotStore // optional, may be nil
	cfg       Config
	logger    Logger

	mu        sync.Mutex
	cached    *ActiveWindow
	cachedAt  time.Time
	cacheSet  bool
}

// NewDetector creates a Detector.
//
// Parameters:
//   - planner: supplies candidate log files
//   - calc: attributes cost to recent events
//   - snapshots: persisted window store, nil to disable persistence
//   - cfg: detection configuration
//   - logger: logger for diagnostic messages
func NewDetector(planner discovery.Planner, calc *pricing.Calculator, snapshots SnapshotStore, cfg Config, logger Logger) Detector {
	return &detector{
		planner:   planner,
		decoder:   event.NewDecoder(),
		calc:      calc,
		snapshots: snapshots,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Find implements Detector.Find.
func (d *detector) Find(ctx context.Context) (*ActiveWindow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.cfg.Clock()

	// Idle results are cached too; the point of the TTL is bounding
	// filesystem scans per poll tick, not just serving hits.
	if d.cacheSet && now.Sub(d.cachedAt) < d.cfg.SnapshotTTL {
		return d.cached, nil
	}

	if w := d.loadSnapshot(now); w != nil {
		d.remember(w, now)
		return w, nil
	}

	w, err := d.synthesize(ctx, now)
	if err != nil {
		return nil, err
	}

	if w != nil && d.snapshots != nil {
		if err := d.snapshots.Save(w); err != nil {
			d.logger.Warn("failed to persist window snapshot", "error", err)
		}
	}

	d.remember(w, now)
	return w, nil
}

// loadSnapshot returns the persisted window if it is still open.
func (d *detector) loadSnapshot(now time.Time) *ActiveWindow {
	if d.snapshots == nil {
		return nil
	}

	w, err := d.snapshots.Load()
	if err != nil {
		d.logger.Warn("failed to load window snapshot", "error", err)
		return nil
	}
	if w == nil || !w.EndTime.After(now) {
		return nil
	}
	return w
}

// remember caches a result, nil included.
func (d *detector) remember(w *ActiveWindow, now time.Time) {
	d.cached = w
	d.cachedAt = now
	d.cacheSet = true
}

// synthesize builds a window from recently modified files. Returns
// (nil, nil) when nothing is active.
func (d *detector) synthesize(ctx context.Context, now time.Time) (*ActiveWindow, error) {
	files, err := d.planner.Plan(discovery.DateFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to plan window scan: %w", err)
	}

	fileCutoff := now.Add(-d.cfg.RecentFileWindow)
	eventCutoff := now.Add(-d.cfg.RecentEventWindow)

	sessions := make(map[string]*sessionActivity)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.ModTime.Before(fileCutoff) {
			continue
		}
		d.scanFile(f, eventCutoff, sessions)
	}

	if len(sessions) == 0 {
		return nil, nil
	}

	w := &ActiveWindow{ActiveSessionCount: len(sessions)}

	var totalTokens int
	var earliest, latest time.Time
	for _, sa := range sessions {
		totalTokens += sa.tokens
		w.CostUSD += sa.costUSD
		w.BurnRate = w.BurnRate.add(EstimateBurnRate(sa.tokens, sa.costUSD, sa.earliest, sa.latest))

		if earliest.IsZero() || sa.earliest.Before(earliest) {
			earliest = sa.earliest
		}
		if sa.latest.After(latest) {
			latest = sa.latest
		}
	}

	// The live view wants magnitude, not category accuracy: split the
	// recent total evenly between input and output.
	w.InputTokens = totalTokens / 2
	w.OutputTokens = totalTokens - w.InputTokens
	w.StartTime = earliest
	w.EndTime = latest.Add(d.cfg.RecentFileWindow)

	d.logger.Debug("window synthesized",
		"sessions", w.ActiveSessionCount,
		"tokens", totalTokens,
		"end_time", w.EndTime)
	return w, nil
}

// scanFile folds one file's recent events into the per-session map.
// Unreadable files are skipped.
func (d *detector) scanFile(f discovery.LogFile, eventCutoff time.Time, sessions map[string]*sessionActivity) {
	file, err := os.Open(f.Path)
	if err != nil {
		d.logger.Warn("failed to open log file during window scan, skipping",
			"path", f.Path,
			"error", err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		res := d.decoder.DecodeLine(line)
		if res.Kind != event.KindUsage {
			continue
		}

		ev := res.Event
		if ev.Timestamp == nil || ev.Timestamp.Before(eventCutoff) {
			continue
		}
		ev.SessionKey = f.SessionKey

		sa, ok := sessions[f.SessionKey]
		if !ok {
			sa = &sessionActivity{earliest: *ev.Timestamp, latest: *ev.Timestamp}
			sessions[f.SessionKey] = sa
		}
		if ev.Timestamp.Before(sa.earliest) {
			sa.earliest = *ev.Timestamp
		}
		if ev.Timestamp.After(sa.latest) {
			sa.latest = *ev.Timestamp
		}
		sa.tokens += ev.Usage.Total()
		sa.costUSD += d.calc.Cost(ev)
	}

	if err := scanner.Err(); err != nil {
		d.logger.Warn("failed reading log file during window scan",
			"path", f.Path,
			"error", err)
	}
}
