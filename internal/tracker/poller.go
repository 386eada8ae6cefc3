package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Poller owns the wait-and-repoll loop the state machine itself never
// runs. It drives discrete AdvanceAll passes until every snapshot is
// terminal, the poll cap is reached, or the context ends.
type Poller struct {
	tracker  *Tracker
	interval time.Duration
	maxPolls int
	logger   *slog.Logger
}

// NewPoller builds a poller. A non-positive interval defaults to 30s; a
// non-positive maxPolls means unbounded.
func NewPoller(t *Tracker, interval time.Duration, maxPolls int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{tracker: t, interval: interval, maxPolls: maxPolls, logger: logger}
}

// Run polls until no non-terminal snapshots remain. Fatal per-snapshot
// errors are collected and returned together after the loop ends; they
// do not stop other snapshots from advancing.
func (p *Poller) Run(ctx context.Context) (Summary, error) {
	var total Summary
	var failures []error

	for pass := 1; p.maxPolls <= 0 || pass <= p.maxPolls; pass++ {
		summary, err := p.tracker.AdvanceAll(ctx)
		total.Polled += summary.Polled
		total.Completed += summary.Completed
		total.Failed += summary.Failed
		total.PollErrors += summary.PollErrors
		total.ReviewsIngested += summary.ReviewsIngested
		if err != nil {
			failures = append(failures, err)
		}

		remaining := summary.Polled - summary.Completed - summary.Failed
		if summary.Polled == 0 || remaining == 0 {
			break
		}
		if p.logger != nil {
			p.logger.Debug("snapshots pending", "pass", pass, "remaining", remaining)
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			failures = append(failures, ctx.Err())
			return total, errors.Join(failures...)
		case <-timer.C:
		}
	}

	return total, errors.Join(failures...)
}
