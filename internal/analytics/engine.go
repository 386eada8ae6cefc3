package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reviewpulse/internal/ports"
)

// Engine generates reports from the review store. Apart from the report
// id and timestamp, output is a pure function of store contents.
type Engine struct {
	store  ports.ReviewStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine constructs an engine. Logger is optional.
func NewEngine(store ports.ReviewStore, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// GenerateReport aggregates the current store contents. An empty store
// is not an error: the report comes back with every section present and
// zeroed.
func (e *Engine) GenerateReport(ctx context.Context) (*Report, error) {
	reviews, err := e.store.AllReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	processed := 0
	for i := range reviews {
		if reviews[i].Processed() {
			processed++
		}
	}

	report := &Report{
		Metadata: Metadata{
			ReportID:         e.newID(),
			GeneratedAt:      e.now().UTC(),
			TotalReviews:     len(reviews),
			ProcessedReviews: processed,
		},
		Overall:     computeOverall(reviews),
		Temporal:    computeTemporal(reviews),
		Menu:        computeMenu(reviews),
		Staff:       computeStaff(reviews),
		Operational: computeOperational(reviews),
		Customers:   computeCustomers(reviews),
		Reputation:  computeReputation(reviews),
	}
	if len(reviews) > 0 {
		report.Metadata.ProcessingCoverage = float64(processed) / float64(len(reviews))
	}

	if e.logger != nil {
		e.logger.Info("report generated",
			"report_id", report.Metadata.ReportID,
			"total_reviews", report.Metadata.TotalReviews,
			"processed_reviews", report.Metadata.ProcessedReviews)
	}
	return report, nil
}
