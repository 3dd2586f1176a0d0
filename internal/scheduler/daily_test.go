package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"WorkflowRadar/internal/aggregate"
	"WorkflowRadar/internal/logging"
)

type countingTrigger struct {
	runs atomic.Int64
	busy atomic.Bool
}

func (c *countingTrigger) TryRun(ctx context.Context) error {
	if c.busy.Load() {
		return aggregate.ErrCycleInProgress
	}
	c.runs.Add(1)
	return nil
}

func (c *countingTrigger) Kick(ctx context.Context) error { return c.TryRun(ctx) }

func TestNextRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 1, 30, 0, 0, time.UTC)

	next := nextRun(now, 2, 0)
	if !next.Equal(time.Date(2026, time.March, 1, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected same-day 02:00, got %v", next)
	}

	next = nextRun(now, 1, 0)
	if !next.Equal(time.Date(2026, time.March, 2, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next-day 01:00, got %v", next)
	}

	// Exactly at the boundary rolls over to tomorrow.
	at := time.Date(2026, time.March, 1, 2, 0, 0, 0, time.UTC)
	next = nextRun(at, 2, 0)
	if !next.Equal(time.Date(2026, time.March, 2, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next-day 02:00, got %v", next)
	}
}

func TestRunNowFiresTrigger(t *testing.T) {
	t.Parallel()

	trigger := &countingTrigger{}
	d := NewDaily(trigger, 2, 0, time.UTC, logging.Discard(), nil)

	if err := d.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow returned error: %v", err)
	}
	if trigger.runs.Load() != 1 {
		t.Fatalf("expected 1 run, got %d", trigger.runs.Load())
	}
}

func TestRunNowWhileBusy(t *testing.T) {
	t.Parallel()

	trigger := &countingTrigger{}
	trigger.busy.Store(true)
	d := NewDaily(trigger, 2, 0, time.UTC, logging.Discard(), nil)

	if err := d.RunNow(context.Background()); err != aggregate.ErrCycleInProgress {
		t.Fatalf("expected ErrCycleInProgress, got %v", err)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()

	trigger := &countingTrigger{}
	d := NewDaily(trigger, 2, 0, time.UTC, logging.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("second start must be a no-op: %v", err)
	}

	d.Stop()
	d.Stop()
}

func TestStartWithoutTrigger(t *testing.T) {
	t.Parallel()

	d := NewDaily(nil, 2, 0, time.UTC, logging.Discard(), nil)
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected error when no trigger configured")
	}
}
