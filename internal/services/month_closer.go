package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budget/internal/core"
)

type MonthCloserConfig struct {
	// Interval between runs (default: 1h).
	Interval time.Duration

	// LockElapsed locks every month that ended before the current one
	// (default: true).
	LockElapsed bool
}

func DefaultMonthCloserConfig() MonthCloserConfig {
	return MonthCloserConfig{
		Interval:    time.Hour,
		LockElapsed: true,
	}
}

// MonthCloser keeps the current month open and closes elapsed ones on a
// fixed interval.
type MonthCloser struct {
	months *MonthService
	config MonthCloserConfig
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMonthCloser(months *MonthService, config MonthCloserConfig) *MonthCloser {
	return &MonthCloser{
		months: months,
		config: config,
		now:    time.Now,
	}
}

// RunOnce ensures the current month exists and, if configured, locks the
// elapsed ones. It returns the current month and the months it locked.
func (c *MonthCloser) RunOnce(ctx context.Context) (core.MonthBudget, []core.MonthBudget, error) {
	now := c.now().UTC()
	current, err := c.months.EnsureMonth(ctx, core.PeriodOf(now))
	if err != nil {
		return core.MonthBudget{}, nil, fmt.Errorf("ensure current month: %w", err)
	}
	if !c.config.LockElapsed {
		return current, nil, nil
	}
	locked, err := c.months.LockElapsed(ctx, now)
	if err != nil {
		return current, locked, fmt.Errorf("lock elapsed months: %w", err)
	}
	return current, locked, nil
}

// Start begins the loop. Returns an error if already running.
func (c *MonthCloser) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("month closer is already running")
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	go c.runLoop(ctx)

	slog.InfoContext(ctx, "Month closer started",
		"interval", c.config.Interval,
		"lock_elapsed", c.config.LockElapsed)
	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to expire.
func (c *MonthCloser) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Month closer stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Month closer stop timed out")
		return ctx.Err()
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return nil
}

func (c *MonthCloser) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *MonthCloser) runLoop(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup
	c.run(ctx)

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

func (c *MonthCloser) run(ctx context.Context) {
	current, locked, err := c.RunOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Month closer run failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "Month closer run completed",
		"current", current.Period.String(),
		"locked", len(locked))
}
