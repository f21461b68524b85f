package live

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/0xmhha/usage-ledger/pkg/logger"
	"github.com/0xmhha/usage-ledger/pkg/window"
)

const (
	ansiHideCursor  = "\x1b[?25l"
	ansiShowCursor  = "\x1b[?25h"
	ansiClearScreen = "\x1b[H\x1b[2J"
)

// monitor implements the Monitor interface.
type monitor struct {
	detector window.Detector
	config   Config
	logger   logger.Logger

	mu      sync.Mutex
	running bool
}

// New creates a live monitor on top of a window detector.
//
// Parameters:
//   - det: Active-window detector
//   - cfg: Monitor configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Monitor
//   - Error if required dependencies are missing
func New(det window.Detector, cfg Config, log logger.Logger) (Monitor, error) {
	if det == nil {
		return nil, ErrNilDetector
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &monitor{
		detector: det,
		config:   cfg,
		logger:   log,
	}, nil
}

// Run implements Monitor.Run.
func (m *monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrMonitorRunning
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if m.config.Once {
		return m.renderTick(ctx, false)
	}

	tty := m.isTerminal()
	if tty && !m.config.JSON {
		fmt.Fprint(m.config.Out, ansiHideCursor)
		// The cursor must come back on every exit path, including
		// cancellation by an interrupt.
		defer fmt.Fprint(m.config.Out, ansiShowCursor)
	}

	m.logger.Info("live monitor started",
		"tick_interval", m.config.TickInterval,
		"plan_token_limit", m.config.PlanTokenLimit)

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	if err := m.renderTick(ctx, tty); err != nil {
		m.logger.Warn("refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("live monitor stopped")
			return nil

		case <-ticker.C:
			if err := m.renderTick(ctx, tty); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				m.logger.Warn("refresh failed", "error", err)
			}
		}
	}
}

// renderTick fetches the current window and draws one frame.
func (m *monitor) renderTick(ctx context.Context, clear bool) error {
	win, err := m.detector.Find(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect active window: %w", err)
	}

	now := m.config.Clock()

	if clear && !m.config.JSON {
		fmt.Fprint(m.config.Out, ansiClearScreen)
	}

	if m.config.JSON {
		return renderJSON(m.config.Out, win, now, m.config.PlanTokenLimit)
	}

	renderFrame(m.config.Out, win, now, m.config.PlanTokenLimit)
	return nil
}

// isTerminal reports whether the output writer is an interactive
// terminal, so ANSI control sequences never reach pipes or files.
func (m *monitor) isTerminal() bool {
	f, ok := m.config.Out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
