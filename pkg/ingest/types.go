// Package ingest runs the batch accounting pass: it walks the planned
// log files line by line, decodes usage events, suppresses duplicates,
// attributes cost, and folds the survivors into the aggregation store.
//
// The default pass is sequential with one global dedup window shared by
// every file, which is what makes cross-file duplicate suppression
// exact. The parallel variant fans files across a bounded worker pool
// with a local dedup window per file; duplicates that span files can
// slip through, an explicit trade-off selected by configuration and
// never mixed with the sequential mode.
//
// Example usage:
//
//	p := ingest.New(planner, calc, store, ingest.Config{}, logger.Default())
//	stats, err := p.Run(ctx, discovery.DateFilter{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("admitted %d events, %d duplicates\n", stats.Admitted, stats.Duplicates)
package ingest

import (
	"context"

	"github.com/0xmhha/usage-ledger/pkg/dedup"
	"github.com/0xmhha/usage-ledger/pkg/discovery"
)

// DefaultWorkers bounds the parallel pass when Config.Workers is unset.
const DefaultWorkers = 4

// Logger defines the logging interface used by the ingest package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Stats summarizes one ingest pass.
type Stats struct {
	// FilesPlanned is the number of files the planner selected.
	FilesPlanned int

	// FilesSkipped counts files that could not be opened or read.
	// Unreadable files are logged and skipped, never fatal.
	FilesSkipped int

	// Lines is the total number of non-blank lines seen.
	Lines int

	// Malformed counts lines that were not valid JSON records.
	Malformed int

	// NonUsage counts well-formed records without usage data.
	NonUsage int

	// EmptySkipped counts usage events with zero tokens and no
	// declared cost, dropped before deduplication.
	EmptySkipped int

	// Duplicates counts events rejected by the dedup window.
	Duplicates int

	// Admitted counts events folded into the store.
	Admitted int

	// Evicted counts fingerprints dropped by dedup cleanup.
	Evicted int
}

// merge folds per-file counters into the pass total.
func (s *Stats) merge(o Stats) {
	s.FilesSkipped += o.FilesSkipped
	s.Lines += o.Lines
	s.Malformed += o.Malformed
	s.NonUsage += o.NonUsage
	s.EmptySkipped += o.EmptySkipped
	s.Duplicates += o.Duplicates
	s.Admitted += o.Admitted
	s.Evicted += o.Evicted
}

// Config controls an ingest pass.
type Config struct {
	// Parallel selects the per-path worker-pool variant. Leave false
	// for exact cross-file deduplication.
	Parallel bool

	// Workers bounds the pool in parallel mode. Defaults to
	// DefaultWorkers.
	Workers int

	// Dedup configures the deduplication window(s).
	Dedup dedup.Config
}

// Pipeline executes ingest passes against a fixed planner, calculator
// and store.
type Pipeline interface {
	// Run performs one full pass over the files the planner selects
	// for the given filter.
	//
	// Returns pass statistics. The only errors are planner failures
	// and context cancellation; data noise is counted, logged and
	// skipped.
	Run(ctx context.Context, filter discovery.DateFilter) (Stats, error)
}
