package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/usage-ledger/pkg/logger"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

// stubDetector implements window.Detector for testing.
type stubDetector struct {
	mu    sync.Mutex
	win   *window.ActiveWindow
	err   error
	calls int
}

func (s *stubDetector) Find(ctx context.Context) (*window.ActiveWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.win, s.err
}

func (s *stubDetector) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sampleWindow(now time.Time) *window.ActiveWindow {
	return &window.ActiveWindow{
		StartTime:          now.Add(-30 * time.Minute),
		EndTime:            now.Add(90 * time.Minute),
		InputTokens:        6000,
		OutputTokens:       6000,
		CostUSD:            1.50,
		ActiveSessionCount: 2,
		BurnRate: window.BurnRate{
			TokensPerMinute: 400,
			CostPerHour:     3.00,
		},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNew_RequiresDetector(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{}, logger.Noop())
	assert.ErrorIs(t, err, ErrNilDetector)
}

func TestRun_Once(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	det := &stubDetector{win: sampleWindow(now)}
	var buf bytes.Buffer

	m, err := New(det, Config{
		Once:           true,
		Out:            &buf,
		Clock:          fixedClock(now),
		PlanTokenLimit: 880000,
	}, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, 1, det.Calls())
	out := buf.String()
	assert.Contains(t, out, "Active window")
	assert.Contains(t, out, "12,000 / 880,000")
	assert.Contains(t, out, "400.0 tok/min")
	assert.Contains(t, out, "$3.00/hr")
	assert.Contains(t, out, "2 sessions")
	assert.NotContains(t, out, ansiHideCursor)
}

func TestRun_OnceDetectorError(t *testing.T) {
	t.Parallel()

	det := &stubDetector{err: errors.New("scan failed")}
	m, err := New(det, Config{Once: true, Out: &bytes.Buffer{}}, logger.Noop())
	require.NoError(t, err)

	err = m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan failed")
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	t.Parallel()

	now := time.Now()
	det := &stubDetector{win: sampleWindow(now)}
	var buf bytes.Buffer

	m, err := New(det, Config{
		TickInterval: 10 * time.Millisecond,
		Out:          &buf,
	}, logger.Noop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, m.Run(ctx))
	assert.GreaterOrEqual(t, det.Calls(), 2)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	det := &stubDetector{}
	m, err := New(det, Config{
		TickInterval: 10 * time.Millisecond,
		Out:          &bytes.Buffer{},
	}, logger.Noop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// The first frame renders immediately, so a detector call means the
	// first Run holds the slot.
	require.Eventually(t, func() bool {
		return det.Calls() >= 1
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, m.Run(context.Background()), ErrMonitorRunning)

	cancel()
	require.NoError(t, <-done)
}

func TestRenderFrame_Idle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderFrame(&buf, nil, time.Now(), 880000)

	assert.Contains(t, buf.String(), "No active session window")
}

func TestRenderFrame_Depletion(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	win := sampleWindow(now)
	var buf bytes.Buffer
	renderFrame(&buf, win, now, 880000)

	// (880000-12000)/400 = 2170 minutes after 14:00.
	assert.Contains(t, buf.String(), "Depletion")
	assert.NotContains(t, buf.String(), "not at current rate")

	// Zero burn rate means no projection.
	win.BurnRate.TokensPerMinute = 0
	buf.Reset()
	renderFrame(&buf, win, now, 880000)
	assert.Contains(t, buf.String(), "not at current rate")
}

func TestRenderJSON_Active(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleWindow(now), now, 880000))

	var got frame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.True(t, got.Active)
	require.NotNil(t, got.Window)
	assert.Equal(t, 6000, got.Window.InputTokens)
	assert.Equal(t, 880000, got.PlanTokenLimit)
	assert.InDelta(t, 1320.0, got.BudgetUSD, 0.001)
	require.NotNil(t, got.ProjectedDepletion)
}

func TestRenderJSON_Idle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, nil, time.Now(), 880000))

	var got frame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Active)
	assert.Nil(t, got.Window)
	assert.Nil(t, got.ProjectedDepletion)
}

func TestBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, strings.Repeat("░", 10), bar(0, 10))
	assert.Equal(t, strings.Repeat("█", 10), bar(1, 10))
	assert.Equal(t, strings.Repeat("█", 10), bar(2.5, 10))
	assert.Equal(t, strings.Repeat("░", 10), bar(-1, 10))
	assert.Equal(t, "█████░░░░░", bar(0.5, 10))
}

func TestFormatCount(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		880000:   "880,000",
		12345678: "12,345,678",
	}
	for n, want := range cases {
		assert.Equal(t, want, formatCount(n), "n=%d", n)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
	assert.Equal(t, "12m", formatDuration(12*time.Minute))
	assert.Equal(t, "0m", formatDuration(-5*time.Minute))
	assert.Equal(t, "2h05m", formatDuration(125*time.Minute))
}
