// Package aggregate runs one collection cycle: fan out to every configured
// (adapter, scope) unit, normalize whatever came back, rank it, and publish
// the result as a new snapshot. Partial success always publishes; only a
// cycle in which every unit failed leaves the previous snapshot in place.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"WorkflowRadar/internal/domain"
	"WorkflowRadar/internal/ports"
	"WorkflowRadar/internal/scoring"
	"WorkflowRadar/internal/store"
)

// ErrCycleInProgress is returned to a trigger that arrives while a cycle is
// already running. The policy is reject, not queue: the caller retries later
// or waits for the schedule.
var ErrCycleInProgress = errors.New("aggregation cycle already in progress")

// State names the coordinator's position in the cycle state machine.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateMerging    State = "merging"
)

// Unit is one independent piece of collection work: one adapter asked for
// one scope. The app layer composes the unit list (e.g. the forum gets a
// single scope while the video platform gets one per country).
type Unit struct {
	Adapter ports.SourceAdapter
	Scope   domain.Scope
}

// Outcome summarizes one finished cycle for logs and the health endpoint.
type Outcome struct {
	CycleID   string
	Published bool
	Records   int
	Dropped   int
	Failures  []string
}

// Coordinator serializes collection cycles over a fixed unit list.
type Coordinator struct {
	units        []Unit
	store        *store.SnapshotStore
	cycleTimeout time.Duration
	logger       *slog.Logger
	onPublish    func(*domain.Snapshot)

	mu    sync.Mutex
	busy  bool
	state State

	now func() time.Time
}

var _ ports.Trigger = (*Coordinator)(nil)

// New builds a coordinator. onPublish may be nil; when set it runs after a
// successful swap (the export auto-save hook) and its failures are its own.
func New(units []Unit, snapshots *store.SnapshotStore, cycleTimeout time.Duration, logger *slog.Logger, onPublish func(*domain.Snapshot)) *Coordinator {
	return &Coordinator{
		units:        units,
		store:        snapshots,
		cycleTimeout: cycleTimeout,
		logger:       logger,
		onPublish:    onPublish,
		state:        StateIdle,
		now:          time.Now,
	}
}

// State reports the current cycle phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TryRun executes one cycle, or returns ErrCycleInProgress when one is
// already running. At most one cycle runs at a time, globally.
func (c *Coordinator) TryRun(ctx context.Context) error {
	if !c.acquire() {
		return ErrCycleInProgress
	}
	defer c.release()

	c.execute(ctx)
	return nil
}

// Kick starts a cycle on its own goroutine and returns immediately; used by
// the on-demand endpoint. The busy check happens before the goroutine
// launches so a rejected trigger is reported synchronously.
func (c *Coordinator) Kick(ctx context.Context) error {
	if !c.acquire() {
		return ErrCycleInProgress
	}
	go func() {
		defer c.release()
		c.execute(ctx)
	}()
	return nil
}

func (c *Coordinator) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	c.state = StateCollecting
	return true
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.busy = false
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Coordinator) execute(ctx context.Context) {
	outcome := c.runCycle(ctx)
	if outcome.Published {
		c.logger.Info("cycle published",
			"cycle_id", outcome.CycleID,
			"records", outcome.Records,
			"dropped", outcome.Dropped,
			"unit_failures", len(outcome.Failures))
	} else {
		c.logger.Error("cycle failed, keeping previous snapshot",
			"cycle_id", outcome.CycleID,
			"causes", outcome.Failures)
	}
}

type unitResult struct {
	records []domain.RawRecord
	err     error
}

// runCycle is the Collecting→Merging→Published path. Unit failures are
// absorbed here; the cycle itself never errors to its caller.
func (c *Coordinator) runCycle(ctx context.Context) Outcome {
	cycleID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.cycleTimeout)
	defer cancel()

	results := make([]unitResult, len(c.units))

	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range c.units {
		g.Go(func() error {
			records, err := unit.Adapter.Fetch(gctx, unit.Scope)
			if err != nil {
				c.logger.Warn("unit fetch failed",
					"cycle_id", cycleID,
					"platform", unit.Adapter.Name(),
					"country", unit.Scope.Country,
					"error", err)
			}
			results[i] = unitResult{records: records, err: err}
			// Failures stay local to the unit; returning nil keeps the
			// remaining units running.
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.state = StateMerging
	c.mu.Unlock()

	var (
		raw       []domain.RawRecord
		succeeded int
		failures  []string
	)
	for _, res := range results {
		if res.err != nil {
			failures = append(failures, res.err.Error())
			continue
		}
		succeeded++
		raw = append(raw, res.records...)
	}

	if succeeded == 0 {
		return Outcome{CycleID: cycleID, Published: false, Failures: failures}
	}

	snapshot, dropped := c.assemble(cycleID, raw)
	c.store.Swap(snapshot)

	if c.onPublish != nil {
		c.onPublish(snapshot)
	}

	return Outcome{
		CycleID:   cycleID,
		Published: true,
		Records:   len(snapshot.Records),
		Dropped:   dropped,
		Failures:  failures,
	}
}

// assemble normalizes, ranks, and counts one generation of records.
func (c *Coordinator) assemble(cycleID string, raw []domain.RawRecord) (*domain.Snapshot, int) {
	now := c.now().UTC()

	records := make([]domain.PopularityRecord, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		record, err := scoring.Normalize(r, now)
		if err != nil {
			dropped++
			c.logger.Warn("record dropped", "cycle_id", cycleID, "title", r.Title, "error", err)
			continue
		}
		records = append(records, record)
	}

	// Stable keeps collection order for equal scores.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EngagementScore > records[j].EngagementScore
	})

	byPlatform := make(map[domain.Platform]int)
	byCountry := make(map[domain.Country]int)
	for _, r := range records {
		byPlatform[r.Platform]++
		byCountry[r.Country]++
	}

	return &domain.Snapshot{
		CycleID:          cycleID,
		Records:          records,
		LastSync:         now,
		CountsByPlatform: byPlatform,
		CountsByCountry:  byCountry,
	}, dropped
}
