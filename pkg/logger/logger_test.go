package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFor(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"ERROR":    slog.LevelError,
		"":         slog.LevelInfo,
		"verbose":  slog.LevelInfo,
		"critical": slog.LevelInfo,
	}

	for in, want := range cases {
		if got := levelFor(in); got != want {
			t.Errorf("levelFor(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.log")
	log := New(Config{Level: "debug", Output: path, Format: "text"})

	log.Debug("scanning root", "root", "/data/claude")
	log.Info("ingest complete", "files", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "scanning root") {
		t.Errorf("log file missing debug record: %q", out)
	}
	if !strings.Contains(out, "ingest complete") || !strings.Contains(out, "files=3") {
		t.Errorf("log file missing info record: %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.log")
	log := New(Config{Level: "warn", Output: path})

	log.Info("should be filtered")
	log.Warn("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "should be filtered") {
		t.Errorf("info record leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.log")
	log := New(Config{Output: path, Format: "json"})

	log.Info("priced event", "model", "claude-sonnet-4-20250514")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `"msg":"priced event"`) {
		t.Errorf("output is not JSON formatted: %q", out)
	}
	if !strings.Contains(out, `"model":"claude-sonnet-4-20250514"`) {
		t.Errorf("field missing from JSON record: %q", out)
	}
}

func TestWith_AttachesFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.log")
	log := New(Config{Output: path}).With("session", "abc123")

	log.Info("admitted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "session=abc123") {
		t.Errorf("With field missing: %q", string(data))
	}
}

func TestNew_BadOutputFallsBack(t *testing.T) {
	t.Parallel()

	// A directory path cannot be opened for appending; New must still
	// return a working logger.
	log := New(Config{Output: t.TempDir()})
	log.Info("still alive")
}

func TestNoop_DiscardsEverything(t *testing.T) {
	t.Parallel()

	log := Noop()
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	log.With("k", "v").Info("e")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
}
