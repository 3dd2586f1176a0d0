package ports

import (
	"context"

	"WorkflowRadar/internal/domain"
)

// SourceAdapter wraps one external data source behind a uniform fetch
// contract. Implementations own their pagination quirks, pacing, and
// quality floors; a returned error means the whole source was unusable
// for this scope, not that a single keyword misfired.
type SourceAdapter interface {
	Name() domain.Platform
	Fetch(ctx context.Context, scope domain.Scope) ([]domain.RawRecord, error)
}

// SnapshotReader is the read-only view the query layer gets of the
// current published snapshot.
type SnapshotReader interface {
	Load() *domain.Snapshot
}

// Trigger requests one aggregation cycle. Both entry points reject (never
// queue) when a cycle is already running.
type Trigger interface {
	// TryRun executes the cycle on the caller's goroutine.
	TryRun(ctx context.Context) error
	// Kick starts the cycle in the background and returns immediately.
	Kick(ctx context.Context) error
}

// Scheduler drives the trigger on a fixed cadence.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
}
