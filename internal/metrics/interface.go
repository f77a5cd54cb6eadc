package metrics

import (
	"context"
	"time"
)

// Collector records one snapshot per daemon tick.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for snapshot storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Snapshot is what a single tick observed and decided.
type Snapshot struct {
	Timestamp time.Time
	Workspace WorkspaceMetrics
	Idle      IdleMetrics
	// QueryFailures counts queries that failed this tick and were substituted.
	QueryFailures int
}

type WorkspaceMetrics struct {
	ID     string
	Preset string
	// Windows is -1 when the window count was not queried.
	Windows int
}

type IdleMetrics struct {
	Seconds uint32
	Moved   bool
	Outcome string
}
