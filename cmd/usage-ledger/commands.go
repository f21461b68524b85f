package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/usage-ledger/pkg/aggregate"
	"github.com/0xmhha/usage-ledger/pkg/config"
	"github.com/0xmhha/usage-ledger/pkg/dedup"
	"github.com/0xmhha/usage-ledger/pkg/discovery"
	"github.com/0xmhha/usage-ledger/pkg/display"
	"github.com/0xmhha/usage-ledger/pkg/event"
	"github.com/0xmhha/usage-ledger/pkg/ingest"
	"github.com/0xmhha/usage-ledger/pkg/live"
	"github.com/0xmhha/usage-ledger/pkg/logger"
	"github.com/0xmhha/usage-ledger/pkg/pricing"
	"github.com/0xmhha/usage-ledger/pkg/reader"
	"github.com/0xmhha/usage-ledger/pkg/watcher"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// reportKind selects which batch report a reportCommand produces.
type reportKind string

const (
	reportSessions reportKind = "sessions"
	reportDaily    reportKind = "daily"
	reportMonthly  reportKind = "monthly"
)

// loadConfig loads configuration from an explicit path or the standard
// locations.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the application logger from configuration.
func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// expandRoots resolves the configured log roots plus their replica
// directories.
func expandRoots(cfg *config.Config) []string {
	var roots []string
	for _, r := range cfg.LogRoots {
		roots = append(roots, discovery.Roots(r)...)
	}
	return roots
}

// newCalculator fetches the price table once and builds the cost
// calculator. Fetch failures fall back to the built-in table and are
// never fatal.
func newCalculator(ctx context.Context, cfg *config.Config, log logger.Logger) (*pricing.Calculator, error) {
	mode, err := pricing.ParseMode(cfg.Cost.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid cost mode: %w", err)
	}

	table := pricing.Fetch(ctx, pricing.FetchConfig{
		URL:     cfg.Cost.PricingURL,
		Timeout: cfg.Cost.PricingTimeout,
		Offline: cfg.Cost.Offline,
	}, log)

	return pricing.NewCalculator(table, mode), nil
}

// openStateDB opens the local bolt database, creating its directory if
// needed.
func openStateDB(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return db, nil
}

// reportCommand runs a batch ingest pass and prints one of the reports.
type reportCommand struct {
	kind         reportKind
	since        string
	until        string
	limit        int
	format       string
	compact      bool
	showProjects bool
	showStats    bool
	configPath   string
}

// Execute runs the report command.
func (c *reportCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// An invalid date filter is the one fatal input error.
	filter, err := discovery.ParseDateFilter(c.since, c.until)
	if err != nil {
		return fmt.Errorf("invalid date filter: %w", err)
	}

	outputFormat, err := display.ParseFormat(c.format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	calc, err := newCalculator(ctx, cfg, log)
	if err != nil {
		return err
	}

	planner := discovery.NewPlanner(expandRoots(cfg), log)
	store := aggregate.NewStore()
	pipe := ingest.New(planner, calc, store, ingest.Config{
		Parallel: cfg.Ingest.Parallel,
		Workers:  cfg.Ingest.Workers,
		Dedup: dedup.Config{
			WindowHours:      cfg.Dedup.WindowHours,
			CleanupThreshold: cfg.Dedup.CleanupThreshold,
		},
	}, log)

	stats, err := pipe.Run(ctx, filter)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	formatter := display.New(display.Config{
		Format:       outputFormat,
		ShowProjects: c.showProjects,
		Compact:      c.compact,
	})

	if err := c.render(formatter, store); err != nil {
		return err
	}

	if c.showStats {
		fmt.Fprintf(os.Stderr,
			"files: %d planned, %d skipped | lines: %d (%d malformed, %d non-usage, %d empty) | events: %d admitted, %d duplicates\n",
			stats.FilesPlanned, stats.FilesSkipped,
			stats.Lines, stats.Malformed, stats.NonUsage, stats.EmptySkipped,
			stats.Admitted, stats.Duplicates)
	}

	return nil
}

// render prints the selected report from the aggregate store.
func (c *reportCommand) render(formatter display.Formatter, store aggregate.Store) error {
	switch c.kind {
	case reportSessions:
		sessions := store.Sessions()
		if c.limit > 0 && len(sessions) > c.limit {
			sessions = sessions[:c.limit]
		}
		return formatter.FormatSessions(os.Stdout, sessions)

	case reportDaily:
		days := store.Daily()
		if c.limit > 0 && len(days) > c.limit {
			days = days[:c.limit]
		}
		return formatter.FormatDaily(os.Stdout, days)

	case reportMonthly:
		months := store.Monthly()
		if c.limit > 0 && len(months) > c.limit {
			months = months[:c.limit]
		}
		return formatter.FormatMonthly(os.Stdout, months)

	default:
		return fmt.Errorf("unknown report: %s", c.kind)
	}
}

// liveCommand runs the active-window monitor.
type liveCommand struct {
	snapshot   bool
	jsonOut    bool
	configPath string
}

// Execute runs the live command.
func (c *liveCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	// Quiet logging, the terminal belongs to the display.
	log := logger.New(logger.Config{
		Level:  "error",
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calc, err := newCalculator(ctx, cfg, log)
	if err != nil {
		return err
	}

	snapshots, err := window.NewSnapshotStore(cfg.Storage.DBPath, log)
	if err != nil {
		// The snapshot cache is an optimization, not a requirement.
		log.Warn("snapshot store unavailable, continuing without it", "error", err)
		snapshots = nil
	}
	if snapshots != nil {
		defer func() {
			if err := snapshots.Close(); err != nil {
				log.Error("failed to close snapshot store", "error", err)
			}
		}()
	}

	planner := discovery.NewPlanner(expandRoots(cfg), log)
	det := window.NewDetector(planner, calc, snapshots, window.Config{
		RecentFileWindow:  cfg.Live.RecentFileWindow,
		RecentEventWindow: cfg.Live.RecentEventWindow,
		SnapshotTTL:       cfg.Live.SnapshotTTL,
	}, log)

	mon, err := live.New(det, live.Config{
		TickInterval:   cfg.Live.TickInterval,
		PlanTokenLimit: cfg.Live.PlanTokenLimit,
		JSON:           c.jsonOut,
		Once:           c.snapshot,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	return mon.Run(ctx)
}

// watchCommand follows session logs and prints updates as they land.
type watchCommand struct {
	configPath string
}

// Execute runs the watch command.
func (c *watchCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openStateDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close state database", "error", err)
		}
	}()

	positions, err := reader.NewBoltPositionStore(db)
	if err != nil {
		return fmt.Errorf("failed to initialize position store: %w", err)
	}

	r, err := reader.New(reader.Config{
		PositionStore: positions,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize reader: %w", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("failed to close reader", "error", err)
		}
	}()

	w, err := watcher.New(watcher.Config{
		DebounceInterval: cfg.Watch.DebounceInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Error("failed to close watcher", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calc, err := newCalculator(ctx, cfg, log)
	if err != nil {
		return err
	}

	follower := &logFollower{
		reader: r,
		calc:   calc,
		store:  aggregate.NewStore(),
		window: dedup.NewWindow(dedup.Config{
			WindowHours:      cfg.Dedup.WindowHours,
			CleanupThreshold: cfg.Dedup.CleanupThreshold,
		}),
		logger: log,
	}

	// Catch up on existing files before watching for changes.
	planner := discovery.NewPlanner(expandRoots(cfg), log)
	files, err := planner.Plan(discovery.DateFilter{})
	if err != nil {
		return fmt.Errorf("failed to discover session logs: %w", err)
	}
	for _, f := range files {
		follower.ingest(ctx, f.Path)
	}

	var watchPaths []string
	for _, root := range expandRoots(cfg) {
		watchPaths = append(watchPaths, filepath.Join(root, "projects"))
	}
	if err := w.Start(ctx, watchPaths); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Printf("Watching %d session log(s). Press Ctrl+C to stop.\n", len(files))

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping.")
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			follower.ingest(ctx, ev.Path)

		case werr, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", werr)
		}
	}
}

// logFollower applies incremental reads to the running aggregates.
type logFollower struct {
	reader reader.Reader
	calc   *pricing.Calculator
	store  aggregate.Store
	window dedup.Window
	logger logger.Logger
}

// ingest reads new lines from one file and prints a one-line update
// when they added usage.
func (f *logFollower) ingest(ctx context.Context, path string) {
	results, err := f.reader.Read(ctx, path)
	if err != nil {
		f.logger.Warn("failed to read session log", "path", path, "error", err)
		return
	}

	sessionKey := filepath.Base(filepath.Dir(path))

	var admitted, tokens int
	var cost float64

	for i := range results {
		res := &results[i]
		switch res.Kind {
		case event.KindUsage:
			ev := res.Event
			ev.SessionKey = sessionKey
			if ev.Empty() {
				continue
			}
			if !f.window.Admit(ev) {
				continue
			}
			c := f.calc.Cost(ev)
			f.store.Apply(ev, c)
			admitted++
			tokens += ev.Usage.Total()
			cost += c

		case event.KindMalformed:
			f.logger.Debug("malformed line", "path", path, "error", res.Err)
		}
	}

	if admitted > 0 {
		fmt.Printf("[%s] %s  +%d event(s)  +%d tokens  +$%.4f\n",
			time.Now().Format("15:04:05"), sessionKey, admitted, tokens, cost)
	}
}
