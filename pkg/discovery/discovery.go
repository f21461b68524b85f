// Package discovery locates session JSONL log files under the configured
// roots and plans the order in which the ingest pipeline reads them.
//
// Logs live under <root>/projects/<session-dir>/*.jsonl, and the same
// session may be mirrored under replica roots. Files are ordered globally
// by modification time so that, combined with the time-windowed dedup
// pass, replicas of the same event resolve deterministically.
//
// Example usage:
//
//	p := discovery.NewPlanner(discovery.Roots("~/.claude"), logger.Default())
//	files, err := p.Plan(discovery.DateFilter{Since: "2024-01-01"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range files {
//	    fmt.Printf("%s (%s)\n", f.Path, f.SessionKey)
//	}
package discovery

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/0xmhha/usage-ledger/pkg/event"
)

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TiebreakThreshold is the corpus size below which mtime ties are broken
// by reading each file's first event timestamp. Above it the extra reads
// are not worth the I/O and mtime order alone decides.
const TiebreakThreshold = 100

// LogFile is one discovered session log file.
type LogFile struct {
	// Path is the absolute path to the JSONL file.
	Path string

	// SessionKey is the name of the directory containing the file.
	// All aggregation is keyed by it.
	SessionKey string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time
}

// DateFilter bounds ingestion to an inclusive date range. Empty fields
// leave that side unbounded. Dates are YYYY-MM-DD.
type DateFilter struct {
	Since string
	Until string
}

// IsZero reports whether the filter excludes nothing.
func (f DateFilter) IsZero() bool {
	return f.Since == "" && f.Until == ""
}

// ParseDateFilter validates user-supplied date bounds.
//
// Returns ErrInvalidDateFilter if either bound is present but not a
// valid YYYY-MM-DD date, or if since is after until. This is the one
// input error the CLI treats as fatal.
func ParseDateFilter(since, until string) (DateFilter, error) {
	for _, d := range []string{since, until} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return DateFilter{}, fmt.Errorf("%w: %q", ErrInvalidDateFilter, d)
		}
	}
	if since != "" && until != "" && since > until {
		return DateFilter{}, fmt.Errorf("%w: since %q after until %q", ErrInvalidDateFilter, since, until)
	}
	return DateFilter{Since: since, Until: until}, nil
}

// Planner discovers log files and decides their read order.
type Planner interface {
	// Plan returns the log files under the configured roots that may
	// contain events within the filter, in global read order.
	//
	// Missing roots are skipped with a warning; an unreadable project
	// directory is skipped the same way. The returned order is mtime
	// ascending, with first-event-timestamp tiebreaks when the corpus
	// is smaller than TiebreakThreshold.
	Plan(filter DateFilter) ([]LogFile, error)
}

// planner implements the Planner interface.
type planner struct {
	roots  []string
	logger Logger
}

// NewPlanner creates a Planner over the given roots.
//
// Parameters:
//   - roots: base directories, each containing a projects/ tree
//   - logger: logger for diagnostic messages
func NewPlanner(roots []string, logger Logger) Planner {
	return &planner{
		roots:  roots,
		logger: logger,
	}
}

// Roots expands a primary root into the full root list: the primary
// plus any replica roots found under <primary>/replicas/.
func Roots(primary string) []string {
	primary = expandHome(primary)
	roots := []string{primary}

	entries, err := os.ReadDir(filepath.Join(primary, "replicas"))
	if err != nil {
		return roots
	}
	for _, entry := range entries {
		if entry.IsDir() {
			roots = append(roots, filepath.Join(primary, "replicas", entry.Name()))
		}
	}
	return roots
}

// Plan implements Planner.Plan.
func (p *planner) Plan(filter DateFilter) ([]LogFile, error) {
	var files []LogFile

	for _, root := range p.roots {
		root = expandHome(root)
		projectsDir := filepath.Join(root, "projects")

		if _, err := os.Stat(projectsDir); err != nil {
			if os.IsNotExist(err) {
				p.logger.Warn("root has no projects directory, skipping", "path", projectsDir)
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", projectsDir, err)
		}

		found, err := p.scanProjects(projectsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", projectsDir, err)
		}
		files = append(files, found...)
	}

	files = p.applyFilter(files, filter)
	p.order(files)

	p.logger.Info("discovery complete", "files", len(files), "roots", len(p.roots))
	return files, nil
}

// scanProjects walks one projects/ directory: each subdirectory is a
// session directory holding zero or more JSONL logs.
func (p *planner) scanProjects(projectsDir string) ([]LogFile, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []LogFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sessionDir := filepath.Join(projectsDir, entry.Name())
		logs, err := os.ReadDir(sessionDir)
		if err != nil {
			p.logger.Warn("failed to read session directory",
				"path", sessionDir,
				"error", err)
			continue
		}

		for _, log := range logs {
			if log.IsDir() || !strings.HasSuffix(log.Name(), ".jsonl") {
				continue
			}
			info, err := log.Info()
			if err != nil {
				p.logger.Warn("failed to stat log file",
					"path", filepath.Join(sessionDir, log.Name()),
					"error", err)
				continue
			}
			files = append(files, LogFile{
				Path:       filepath.Join(sessionDir, log.Name()),
				SessionKey: entry.Name(),
				Size:       info.Size(),
				ModTime:    info.ModTime(),
			})
		}
	}

	return files, nil
}

// applyFilter drops files whose lifespan cannot overlap the date range.
//
// A file's lifespan ends at its mtime. The start is only needed for the
// until bound; it comes from the first parseable event timestamp, and a
// file whose start cannot be determined is kept rather than risk losing
// events.
func (p *planner) applyFilter(files []LogFile, filter DateFilter) []LogFile {
	if filter.IsZero() {
		return files
	}

	kept := files[:0]
	for _, f := range files {
		endDate := f.ModTime.UTC().Format("2006-01-02")

		if filter.Since != "" && endDate < filter.Since {
			p.logger.Debug("file predates filter, skipping",
				"path", f.Path, "last_modified", endDate)
			continue
		}

		if filter.Until != "" && endDate > filter.Until {
			ts := firstEventTimestamp(f.Path)
			if ts != nil && ts.UTC().Format("2006-01-02") > filter.Until {
				p.logger.Debug("file postdates filter, skipping",
					"path", f.Path, "first_event", ts.Format("2006-01-02"))
				continue
			}
		}

		kept = append(kept, f)
	}
	return kept
}

// order sorts files by mtime ascending. When the corpus is small enough,
// mtime ties are broken by each file's first event timestamp so that
// replicas copied in the same instant still read oldest-content-first;
// path is the final, always-deterministic tiebreak.
func (p *planner) order(files []LogFile) {
	var firstTS map[string]*time.Time
	if len(files) < TiebreakThreshold {
		firstTS = make(map[string]*time.Time, len(files))
		for _, f := range files {
			firstTS[f.Path] = firstEventTimestamp(f.Path)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		if firstTS != nil {
			ti, tj := firstTS[files[i].Path], firstTS[files[j].Path]
			switch {
			case ti != nil && tj != nil && !ti.Equal(*tj):
				return ti.Before(*tj)
			case ti != nil && tj == nil:
				return true
			case ti == nil && tj != nil:
				return false
			}
		}
		return files[i].Path < files[j].Path
	})
}

// firstEventTimestamp returns the timestamp of the first line carrying a
// parseable one, or nil. Only the timestamp field is decoded.
func firstEventTimestamp(path string) *time.Time {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var line struct {
			Timestamp string `json:"timestamp"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if ts, err := event.ParseTimestamp(line.Timestamp); err == nil {
			return &ts
		}
	}
	return nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
