package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xmhha/usage-ledger/pkg/event"
	"github.com/0xmhha/usage-ledger/pkg/logger"
)

func newTestReader(t *testing.T, cfg Config) Reader {
	t.Helper()

	if cfg.PositionStore == nil {
		cfg.PositionStore = NewMemoryPositionStore()
	}

	r, err := New(cfg, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
}

const (
	lineA = `{"timestamp":"2024-03-01T10:00:00Z","requestId":"r1","message":{"id":"m1","usage":{"input_tokens":10,"output_tokens":5}}}` + "\n"
	lineB = `{"timestamp":"2024-03-01T10:01:00Z","requestId":"r2","message":{"id":"m2","usage":{"input_tokens":20,"output_tokens":5}}}` + "\n"
)

func TestNew_RequiresPositionStore(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, logger.Noop()); err == nil {
		t.Error("New() without position store should fail")
	}
}

func TestRead_Incremental(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, lineA)

	r := newTestReader(t, Config{})
	ctx := context.Background()

	first, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("len(first) = %d, want 1", len(first))
	}
	if first[0].Kind != event.KindUsage || first[0].Event.MessageID != "m1" {
		t.Errorf("first[0] = %+v, want usage event m1", first[0])
	}

	// Nothing new: empty read.
	second, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("len(second) = %d, want 0", len(second))
	}

	// Appended line picked up without re-reading the first.
	appendFile(t, path, lineB)
	third, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(third) != 1 || third[0].Event.MessageID != "m2" {
		t.Errorf("third = %+v, want only event m2", third)
	}
}

func TestRead_LeavesPartialLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	partial := `{"timestamp":"2024-03-01T10:02:00Z","requestId":"r3"`
	writeFile(t, path, lineA+partial)

	r := newTestReader(t, Config{})
	ctx := context.Background()

	results, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (partial line deferred)", len(results))
	}

	// Completing the line yields it on the next read, intact.
	appendFile(t, path, `,"message":{"id":"m3","usage":{"input_tokens":1,"output_tokens":0}}}`+"\n")
	results, err = r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 1 || results[0].Kind != event.KindUsage || results[0].Event.MessageID != "m3" {
		t.Errorf("results = %+v, want completed event m3", results)
	}
}

func TestRead_TruncationResetsOffset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, lineA+lineB)

	r := newTestReader(t, Config{})
	ctx := context.Background()

	if _, err := r.Read(ctx, path); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	// File replaced with shorter content: reader starts over.
	writeFile(t, path, lineA)
	results, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 1 || results[0].Event.MessageID != "m1" {
		t.Errorf("results = %+v, want re-read of m1", results)
	}
}

func TestRead_MalformedLinesReported(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, "garbage\n"+lineA)

	r := newTestReader(t, Config{})
	results, err := r.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Kind != event.KindMalformed {
		t.Errorf("results[0].Kind = %v, want KindMalformed", results[0].Kind)
	}
	if results[1].Kind != event.KindUsage {
		t.Errorf("results[1].Kind = %v, want KindUsage", results[1].Kind)
	}
}

func TestReadFrom_DoesNotUpdatePosition(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, lineA)

	store := NewMemoryPositionStore()
	r := newTestReader(t, Config{PositionStore: store})

	results, newOffset, err := r.ReadFrom(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
	if newOffset != int64(len(lineA)) {
		t.Errorf("newOffset = %d, want %d", newOffset, len(lineA))
	}

	offset, _ := store.GetPosition(path)
	if offset != 0 {
		t.Errorf("stored position = %d, want 0 (unchanged)", offset)
	}
}

func TestReadFrom_NegativeOffset(t *testing.T) {
	t.Parallel()

	r := newTestReader(t, Config{})
	if _, _, err := r.ReadFrom(context.Background(), "whatever", -1); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("ReadFrom(-1) error = %v, want ErrInvalidOffset", err)
	}
}

func TestRead_FileTooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, lineA+lineB)

	r := newTestReader(t, Config{MaxFileSize: 8})
	if _, err := r.Read(context.Background(), path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Read() error = %v, want ErrFileTooLarge", err)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, lineA)

	store := NewMemoryPositionStore()
	r := newTestReader(t, Config{PositionStore: store})
	ctx := context.Background()

	if _, err := r.Read(ctx, path); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := r.Reset(path); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	results, err := r.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) after reset = %d, want 1", len(results))
	}
}

func TestClosedReader(t *testing.T) {
	t.Parallel()

	r := newTestReader(t, Config{})
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := r.Read(context.Background(), "x"); !errors.Is(err, ErrReaderClosed) {
		t.Errorf("Read() after close error = %v, want ErrReaderClosed", err)
	}
	if err := r.Reset("x"); !errors.Is(err, ErrReaderClosed) {
		t.Errorf("Reset() after close error = %v, want ErrReaderClosed", err)
	}
	// Double close is a no-op.
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
