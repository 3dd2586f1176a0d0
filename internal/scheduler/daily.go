// Package scheduler fires the aggregation trigger once a day at a configured
// wall-clock time, and lets manual requests drive the very same trigger so
// the scheduled and on-demand paths cannot race into two concurrent cycles.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"WorkflowRadar/internal/aggregate"
	"WorkflowRadar/internal/ports"
)

// Daily runs the trigger at hour:minute in the configured location. Missed
// ticks (process down) are not backfilled.
type Daily struct {
	trigger  ports.Trigger
	hour     int
	minute   int
	location *time.Location
	logger   *slog.Logger

	resetHook func() // optional midnight hook (API key quota renewal)
	stop      chan struct{}
}

var _ ports.Scheduler = (*Daily)(nil)

// NewDaily builds the scheduler; resetHook may be nil.
func NewDaily(trigger ports.Trigger, hour, minute int, loc *time.Location, logger *slog.Logger, resetHook func()) *Daily {
	if loc == nil {
		loc = time.UTC
	}
	return &Daily{
		trigger:   trigger,
		hour:      hour,
		minute:    minute,
		location:  loc,
		logger:    logger,
		resetHook: resetHook,
	}
}

// Start launches the timer loop. Calling Start twice is a no-op.
func (d *Daily) Start(ctx context.Context) error {
	if d.trigger == nil {
		return errors.New("scheduler: no trigger configured")
	}
	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go d.loop(ctx, d.stop)
	return nil
}

// Stop halts the timer loop.
func (d *Daily) Stop() {
	if d.stop == nil {
		return
	}
	close(d.stop)
	d.stop = nil
}

// RunNow fires the trigger immediately on the caller's goroutine. A cycle
// already in flight is reported, not queued.
func (d *Daily) RunNow(ctx context.Context) error {
	return d.trigger.TryRun(ctx)
}

func (d *Daily) loop(ctx context.Context, stop <-chan struct{}) {
	for {
		now := time.Now().In(d.location)
		next := nextRun(now, d.hour, d.minute)
		reset := nextRun(now, 0, 0)

		timer := time.NewTimer(next.Sub(now))
		resetTimer := time.NewTimer(reset.Sub(now))

		select {
		case <-timer.C:
			resetTimer.Stop()
			d.fire(ctx)
		case <-resetTimer.C:
			timer.Stop()
			if d.resetHook != nil {
				d.logger.Info("running midnight reset hook")
				d.resetHook()
			}
		case <-ctx.Done():
			timer.Stop()
			resetTimer.Stop()
			return
		case <-stop:
			timer.Stop()
			resetTimer.Stop()
			return
		}
	}
}

func (d *Daily) fire(ctx context.Context) {
	d.logger.Info("scheduled cycle trigger")
	if err := d.trigger.TryRun(ctx); err != nil {
		if errors.Is(err, aggregate.ErrCycleInProgress) {
			d.logger.Warn("scheduled trigger skipped, cycle already running")
			return
		}
		d.logger.Error("scheduled trigger failed", "error", err)
	}
}

// nextRun returns the next occurrence of hour:minute strictly after now.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
