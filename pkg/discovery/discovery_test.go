package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	debugCalls []string
	infoCalls  []string
	warnCalls  []string
	errorCalls []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	m.debugCalls = append(m.debugCalls, msg)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.infoCalls = append(m.infoCalls, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.warnCalls = append(m.warnCalls, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errorCalls = append(m.errorCalls, msg)
}

// writeLog creates projects/<session>/<name> under root with the given
// content and mtime.
func writeLog(t *testing.T, root, session, name, content string, mtime time.Time) string {
	t.Helper()

	dir := filepath.Join(root, "projects", session)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlan_DiscoversSessionFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	now := time.Now()

	writeLog(t, root, "-home-u-projects-app", "a.jsonl", "", now)
	writeLog(t, root, "-home-u-projects-app", "b.jsonl", "", now)
	writeLog(t, root, "-home-u-projects-web", "c.jsonl", "", now)

	// Files outside the pattern are ignored.
	writeLog(t, root, "-home-u-projects-web", "notes.txt", "", now)
	if err := os.WriteFile(filepath.Join(root, "projects", "loose.jsonl"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewPlanner([]string{root}, &mockLogger{})
	files, err := p.Plan(DateFilter{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3", len(files))
	}
	for _, f := range files {
		if f.SessionKey != "-home-u-projects-app" && f.SessionKey != "-home-u-projects-web" {
			t.Errorf("unexpected session key %q", f.SessionKey)
		}
	}
}

func TestPlan_MissingRootSkipped(t *testing.T) {
	t.Parallel()

	log := &mockLogger{}
	p := NewPlanner([]string{filepath.Join(t.TempDir(), "nope")}, log)

	files, err := p.Plan(DateFilter{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("len(files) = %d, want 0", len(files))
	}
	if len(log.warnCalls) == 0 {
		t.Error("expected a warning for the missing root")
	}
}

func TestPlan_OrdersByModTime(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	writeLog(t, root, "s1", "new.jsonl", "", base.Add(2*time.Hour))
	writeLog(t, root, "s2", "old.jsonl", "", base)
	writeLog(t, root, "s3", "mid.jsonl", "", base.Add(time.Hour))

	p := NewPlanner([]string{root}, &mockLogger{})
	files, err := p.Plan(DateFilter{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []string{"old.jsonl", "mid.jsonl", "new.jsonl"}
	for i, f := range files {
		if filepath.Base(f.Path) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(f.Path), want[i])
		}
	}
}

func TestPlan_ModTimeTieBrokenByFirstTimestamp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	early := `{"timestamp":"2024-03-01T08:00:00Z"}` + "\n"
	late := `{"timestamp":"2024-03-01T11:00:00Z"}` + "\n"

	// Path order alone would put a-late first.
	writeLog(t, root, "s1", "a-late.jsonl", late, mtime)
	writeLog(t, root, "s1", "b-early.jsonl", early, mtime)

	p := NewPlanner([]string{root}, &mockLogger{})
	files, err := p.Plan(DateFilter{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if got := filepath.Base(files[0].Path); got != "b-early.jsonl" {
		t.Errorf("files[0] = %s, want b-early.jsonl (earlier first event)", got)
	}
}

func TestPlan_DateFilter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeLog(t, root, "s1", "jan.jsonl",
		`{"timestamp":"2024-01-10T08:00:00Z"}`+"\n",
		time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	writeLog(t, root, "s2", "mar.jsonl",
		`{"timestamp":"2024-03-05T08:00:00Z"}`+"\n",
		time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	// Touched in May but its events start in February: the until bound
	// must not drop it.
	writeLog(t, root, "s3", "feb-onwards.jsonl",
		`{"timestamp":"2024-02-20T08:00:00Z"}`+"\n",
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	p := NewPlanner([]string{root}, &mockLogger{})
	files, err := p.Plan(DateFilter{Since: "2024-02-01", Until: "2024-03-31"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	got := make(map[string]bool)
	for _, f := range files {
		got[filepath.Base(f.Path)] = true
	}
	if got["jan.jsonl"] {
		t.Error("jan.jsonl should be dropped by the since bound")
	}
	if !got["mar.jsonl"] {
		t.Error("mar.jsonl should survive the filter")
	}
	if !got["feb-onwards.jsonl"] {
		t.Error("feb-onwards.jsonl overlaps the range and should survive")
	}
}

func TestParseDateFilter(t *testing.T) {
	t.Parallel()

	if _, err := ParseDateFilter("2024-01-01", "2024-02-01"); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if _, err := ParseDateFilter("", ""); err != nil {
		t.Errorf("empty filter rejected: %v", err)
	}

	for _, tc := range []struct{ since, until string }{
		{"01/02/2024", ""},
		{"", "2024-13-01"},
		{"2024-02-01", "2024-01-01"},
	} {
		if _, err := ParseDateFilter(tc.since, tc.until); !errors.Is(err, ErrInvalidDateFilter) {
			t.Errorf("ParseDateFilter(%q, %q) error = %v, want ErrInvalidDateFilter",
				tc.since, tc.until, err)
		}
	}
}

func TestRoots_IncludesReplicas(t *testing.T) {
	t.Parallel()

	primary := t.TempDir()
	for _, name := range []string{"mirror-a", "mirror-b"} {
		if err := os.MkdirAll(filepath.Join(primary, "replicas", name), 0o700); err != nil {
			t.Fatal(err)
		}
	}

	roots := Roots(primary)
	if len(roots) != 3 {
		t.Fatalf("len(Roots()) = %d, want 3", len(roots))
	}
	if roots[0] != primary {
		t.Errorf("roots[0] = %s, want primary %s", roots[0], primary)
	}
}
