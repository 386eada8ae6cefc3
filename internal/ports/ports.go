package ports

import (
	"context"

	"reviewpulse/internal/domain"
)

// SaveMode selects how SaveReviews treats the existing collection.
type SaveMode int

const (
	// SaveAppend inserts new records, merging on composite-key collisions:
	// raw fields come from the incoming record, stored enrichment survives
	// unless the incoming record carries its own.
	SaveAppend SaveMode = iota
	// SaveOverwrite replaces the whole collection.
	SaveOverwrite
)

// ScrapeJob carries the parameters for one provider scrape request.
type ScrapeJob struct {
	Source       domain.Source
	TargetURL    string
	DaysLimit    int
	StartDate    string
	EndDate      string
	RestaurantID string
}

// ScraperService is the asynchronous scrape-provider contract. Jobs are
// opaque: submit yields a snapshot id, status is polled, and the dataset
// is fetched once the job reports ready.
type ScraperService interface {
	SubmitJob(ctx context.Context, job ScrapeJob) (string, error)
	CheckStatus(ctx context.Context, snapshotID string) (domain.SnapshotStatus, error)
	FetchDataset(ctx context.Context, snapshotID string) ([]map[string]any, error)
}

// ExtractionRequest bundles review text with the contextual metadata the
// extraction prompt embeds.
type ExtractionRequest struct {
	Text       string
	Rating     *float64
	Source     domain.Source
	ReviewDate string
	Author     string
}

// ExtractionResult is the raw service reply. Payload is the structured
// JSON document to be validated against the enrichment schema. Usage is
// reported even for calls that later fail validation.
type ExtractionResult struct {
	Payload      []byte
	InputTokens  int
	OutputTokens int
}

// ExtractionService turns review text into a structured payload.
type ExtractionService interface {
	Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error)
}

// ReviewStore is the persistent, insertion-ordered review collection.
// Every mutation is atomic from the caller's perspective.
type ReviewStore interface {
	SaveReviews(ctx context.Context, reviews []domain.Review, mode SaveMode) error
	AllReviews(ctx context.Context) ([]domain.Review, error)
	ReviewAt(ctx context.Context, index int) (domain.Review, error)
	DeleteReview(ctx context.Context, source domain.Source, reviewID string) error
	UnprocessedReviews(ctx context.Context) ([]domain.Review, error)
	// UpdateReview rewrites every stored copy sharing the review's composite
	// key in place, preserving insertion order.
	UpdateReview(ctx context.Context, review domain.Review) error
	// RemoveDuplicates drops records sharing a composite key, preferring the
	// enriched copy and otherwise the first seen. Returns the removal count.
	RemoveDuplicates(ctx context.Context) (int, error)
}

// SnapshotStore persists scrape-job handles for the tracker.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error
	Snapshot(ctx context.Context, id string) (domain.Snapshot, error)
	AllSnapshots(ctx context.Context) ([]domain.Snapshot, error)
}

// Notifier publishes batch summaries to an operator channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}
