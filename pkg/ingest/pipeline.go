package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/dedup"
	"github.com/0xmhha/usage-ledger/pkg/discovery"
	"github.com/0xmhha/usage-ledger/pkg/event"
	"github.com/0xmhha/usage-ledger/pkg/pricing"
)

// maxLineBytes caps a single log line. Lines carrying full tool output
// can get large; anything past this is malformed by definition.
const maxLineBytes = 4 * 1024 * 1024

// pipeline implements the Pipeline interface.
type pipeline struct {
	planner discovery.Planner
	decoder event.Decoder
	calc    *pricing.Calculator
	store   aggregate.Store
	cfg     Config
	logger  Logger
}

// New creates a Pipeline.
//
// Parameters:
//   - planner: supplies the ordered file list per filter
//   - calc: attributes cost to each admitted event
//   - store: receives exactly one Apply per admitted event
//   - cfg: pass configuration
//   - logger: logger for diagnostic messages
func New(planner discovery.Planner, calc *pricing.Calculator, store aggregate.Store, cfg Config, logger Logger) Pipeline {
	return &pipeline{
		planner: planner,
		decoder: event.NewDecoder(),
		calc:    calc,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run implements Pipeline.Run.
func (p *pipeline) Run(ctx context.Context, filter discovery.DateFilter) (Stats, error) {
	files, err := p.planner.Plan(filter)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to plan ingest: %w", err)
	}

	stats := Stats{FilesPlanned: len(files)}

	if p.cfg.Parallel {
		err = p.runParallel(ctx, files, &stats)
	} else {
		err = p.runSequential(ctx, files, &stats)
	}
	if err != nil {
		return stats, err
	}

	p.logger.Info("ingest complete",
		"files", stats.FilesPlanned,
		"admitted", stats.Admitted,
		"duplicates", stats.Duplicates,
		"malformed", stats.Malformed)
	return stats, nil
}

// runSequential reads every file in planner order through one shared
// dedup window.
func (p *pipeline) runSequential(ctx context.Context, files []discovery.LogFile, stats *Stats) error {
	window := dedup.NewWindow(p.cfg.Dedup)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		fs := p.processFile(f, window)
		stats.merge(fs)
	}

	stats.Evicted += window.Stats().Evicted
	return nil
}

// runParallel fans files across a bounded pool. Each file gets its own
// local dedup window, so the pass cannot suppress duplicates that span
// files.
func (p *pipeline) runParallel(ctx context.Context, files []discovery.LogFile, stats *Stats) error {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			window := dedup.NewWindow(p.cfg.Dedup)
			fs := p.processFile(f, window)
			fs.Evicted += window.Stats().Evicted

			mu.Lock()
			stats.merge(fs)
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// processFile streams one log file through decode, dedup, cost and
// aggregation. Unreadable files and bad lines are counted, not fatal.
func (p *pipeline) processFile(f discovery.LogFile, window dedup.Window) Stats {
	var stats Stats

	file, err := os.Open(f.Path)
	if err != nil {
		p.logger.Warn("failed to open log file, skipping",
			"path", f.Path,
			"error", err)
		stats.FilesSkipped++
		return stats
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		res := p.decoder.DecodeLine(line)
		switch res.Kind {
		case event.KindMalformed:
			stats.Malformed++
			continue
		case event.KindNonUsage:
			stats.NonUsage++
			continue
		}

		ev := res.Event
		ev.SessionKey = f.SessionKey

		if ev.Empty() {
			stats.EmptySkipped++
			continue
		}

		if !window.Admit(ev) {
			stats.Duplicates++
			continue
		}

		p.store.Apply(ev, p.calc.Cost(ev))
		stats.Admitted++
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("failed reading log file, keeping partial results",
			"path", f.Path,
			"error", err)
		stats.FilesSkipped++
	}

	return stats
}
