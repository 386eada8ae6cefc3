package domain

import "time"

// SnapshotStatus tracks a scrape job through its lifecycle. Status only
// moves forward through queued/running into ready or failed.
type SnapshotStatus string

const (
	SnapshotQueued  SnapshotStatus = "queued"
	SnapshotRunning SnapshotStatus = "running"
	SnapshotReady   SnapshotStatus = "ready"
	SnapshotFailed  SnapshotStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s SnapshotStatus) Terminal() bool {
	return s == SnapshotReady || s == SnapshotFailed
}

func (s SnapshotStatus) rank() int {
	switch s {
	case SnapshotQueued:
		return 0
	case SnapshotRunning:
		return 1
	case SnapshotReady, SnapshotFailed:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether moving to next respects monotonicity.
// A terminal snapshot never regresses; queued may not be re-entered.
func (s SnapshotStatus) CanTransition(next SnapshotStatus) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() >= s.rank()
}

// Snapshot is a handle to one external asynchronous scrape job. Snapshots
// are never deleted; terminal ones are simply excluded from polling.
type Snapshot struct {
	ID           string
	Source       Source
	Status       SnapshotStatus
	RestaurantID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
