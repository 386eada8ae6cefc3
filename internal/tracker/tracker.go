// Package tracker advances outstanding scrape jobs through their
// lifecycle. The tracker never sleeps: the caller owns the poll cadence
// and drives progress with discrete AdvanceAll calls.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/mapper"
	"reviewpulse/internal/ports"
)

// Summary reports one AdvanceAll pass.
type Summary struct {
	Polled          int
	Completed       int
	Failed          int
	PollErrors      int
	ReviewsIngested int
}

// Tracker is the snapshot-lifecycle state machine.
type Tracker struct {
	snapshots ports.SnapshotStore
	reviews   ports.ReviewStore
	scraper   ports.ScraperService
	registry  *mapper.Registry
	logger    *slog.Logger
}

// Deps wires the tracker's collaborators.
type Deps struct {
	Snapshots ports.SnapshotStore
	Reviews   ports.ReviewStore
	Scraper   ports.ScraperService
	Registry  *mapper.Registry
	Logger    *slog.Logger
}

// New constructs a tracker.
func New(deps Deps) *Tracker {
	return &Tracker{
		snapshots: deps.Snapshots,
		reviews:   deps.Reviews,
		scraper:   deps.Scraper,
		registry:  deps.Registry,
		logger:    deps.Logger,
	}
}

// Register stores a freshly submitted scrape job. Terminal states are not
// registerable: a job starts queued or running.
func (t *Tracker) Register(ctx context.Context, snapshot domain.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot id is empty")
	}
	if snapshot.Status == "" {
		snapshot.Status = domain.SnapshotQueued
	}
	if snapshot.Status.Terminal() {
		return fmt.Errorf("snapshot %s registered in terminal state %s", snapshot.ID, snapshot.Status)
	}
	return t.snapshots.SaveSnapshot(ctx, snapshot)
}

// AdvanceAll polls every non-terminal snapshot once. Snapshots that reach
// ready have their dataset pulled and inserted into the review store;
// failed ones are excluded from future polling. A snapshot that reports
// ready with an empty or unavailable dataset is a provider contract
// violation: that error propagates, but other snapshots still advance.
func (t *Tracker) AdvanceAll(ctx context.Context) (Summary, error) {
	snapshots, err := t.snapshots.AllSnapshots(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load snapshots: %w", err)
	}

	var summary Summary
	var fatal []error
	for _, snapshot := range snapshots {
		if snapshot.Status.Terminal() {
			continue
		}
		summary.Polled++

		status, err := t.scraper.CheckStatus(ctx, snapshot.ID)
		if err != nil {
			// Transient: the snapshot stays non-terminal and is polled
			// again on the next pass.
			summary.PollErrors++
			t.debug("status check failed", "snapshot", snapshot.ID, "error", err)
			continue
		}

		if !snapshot.Status.CanTransition(status) {
			t.debug("ignoring regressive status", "snapshot", snapshot.ID,
				"stored", snapshot.Status, "reported", status)
			continue
		}

		switch status {
		case domain.SnapshotReady:
			ingested, err := t.complete(ctx, snapshot)
			if err != nil {
				fatal = append(fatal, err)
				continue
			}
			summary.Completed++
			summary.ReviewsIngested += ingested
		case domain.SnapshotFailed:
			snapshot.Status = domain.SnapshotFailed
			if err := t.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
				return summary, fmt.Errorf("persist failed snapshot %s: %w", snapshot.ID, err)
			}
			summary.Failed++
		default:
			if status != snapshot.Status {
				snapshot.Status = status
				if err := t.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
					return summary, fmt.Errorf("persist snapshot %s: %w", snapshot.ID, err)
				}
			}
		}
	}

	return summary, errors.Join(fatal...)
}

// complete pulls the ready dataset, converts and stores its records, and
// only then persists the terminal state, so a failed ingest is retried.
func (t *Tracker) complete(ctx context.Context, snapshot domain.Snapshot) (int, error) {
	dataset, err := t.scraper.FetchDataset(ctx, snapshot.ID)
	if err != nil {
		return 0, fmt.Errorf("snapshot %s ready but dataset fetch failed: %v: %w",
			snapshot.ID, err, domain.ErrSnapshotInconsistent)
	}
	if len(dataset) == 0 {
		return 0, fmt.Errorf("snapshot %s ready with empty dataset: %w",
			snapshot.ID, domain.ErrSnapshotInconsistent)
	}

	recordMapper, err := t.registry.Resolve(snapshot.Source)
	if err != nil {
		return 0, fmt.Errorf("snapshot %s: %w", snapshot.ID, err)
	}

	reviews := make([]domain.Review, 0, len(dataset))
	for i, record := range dataset {
		review, err := recordMapper.Map(record, snapshot)
		if err != nil {
			t.debug("skipping malformed record", "snapshot", snapshot.ID, "index", i, "error", err)
			continue
		}
		reviews = append(reviews, review)
	}
	if len(reviews) == 0 {
		return 0, fmt.Errorf("snapshot %s dataset yielded no usable records: %w",
			snapshot.ID, domain.ErrSnapshotInconsistent)
	}

	if err := t.reviews.SaveReviews(ctx, reviews, ports.SaveAppend); err != nil {
		return 0, fmt.Errorf("store snapshot %s reviews: %w", snapshot.ID, err)
	}

	snapshot.Status = domain.SnapshotReady
	if err := t.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("persist ready snapshot %s: %w", snapshot.ID, err)
	}

	t.debug("snapshot completed", "snapshot", snapshot.ID, "reviews", len(reviews))
	return len(reviews), nil
}

func (t *Tracker) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
