package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/infrastructure/storage"
	"reviewpulse/internal/ports"
)

type fakeExtractor struct {
	failOn  map[string]bool
	badOn   map[string]bool
	payload string
}

func (f *fakeExtractor) Extract(_ context.Context, req ports.ExtractionRequest) (ports.ExtractionResult, error) {
	result := ports.ExtractionResult{InputTokens: 10, OutputTokens: 5}
	if f.failOn[req.Text] {
		return result, fmt.Errorf("service unavailable")
	}
	if f.badOn[req.Text] {
		result.Payload = []byte("not json at all")
		return result, nil
	}
	payload := f.payload
	if payload == "" {
		payload = `{"overall_sentiment": "positive"}`
	}
	result.Payload = []byte(payload)
	return result, nil
}

func newTestProcessor(t *testing.T, extractor ports.ExtractionService) (*Processor, *storage.SQLiteStore) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := storage.New(db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return New(Deps{Store: store, Extractor: extractor}), store
}

func seedReviews(t *testing.T, store *storage.SQLiteStore, texts ...string) {
	t.Helper()
	reviews := make([]domain.Review, 0, len(texts))
	for i, text := range texts {
		rating := 4.0
		reviews = append(reviews, domain.Review{
			Source:   domain.SourceGoogle,
			ReviewID: fmt.Sprintf("g%d", i+1),
			Rating:   &rating,
			Text:     text,
			Language: "en",
		})
	}
	if err := store.SaveReviews(context.Background(), reviews, ports.SaveOverwrite); err != nil {
		t.Fatalf("seed reviews: %v", err)
	}
}

func TestProcessUnanalyzedPartialFailureIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	extractor := &fakeExtractor{failOn: map[string]bool{"bad call": true}}
	proc, store := newTestProcessor(t, extractor)
	seedReviews(t, store, "fine one", "bad call", "fine two")

	stats, err := proc.ProcessUnanalyzed(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Attempted != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	// Usage accumulates across every call, failed ones included.
	if stats.InputTokens != 30 || stats.OutputTokens != 15 {
		t.Fatalf("unexpected usage: %+v", stats)
	}

	pending, err := store.UnprocessedReviews(ctx)
	if err != nil {
		t.Fatalf("unprocessed: %v", err)
	}
	if len(pending) != 1 || pending[0].Text != "bad call" {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
	if pending[0].FailedAttempts != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", pending[0].FailedAttempts)
	}
}

func TestProcessUnanalyzedSchemaFailureCountsAsFailed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	extractor := &fakeExtractor{badOn: map[string]bool{"garbled": true}}
	proc, store := newTestProcessor(t, extractor)
	seedReviews(t, store, "garbled", "fine")

	stats, err := proc.ProcessUnanalyzed(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Succeeded != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	all, err := store.AllReviews(ctx)
	if err != nil {
		t.Fatalf("all reviews: %v", err)
	}
	if all[0].Processed() {
		t.Fatalf("schema-invalid review was enriched")
	}
	if !all[1].Processed() {
		t.Fatalf("valid review was not enriched")
	}
	if all[1].Enrichment.OverallSentiment != domain.SentimentPositive {
		t.Fatalf("unexpected enrichment: %+v", all[1].Enrichment)
	}
}

func TestProcessUnanalyzedWithoutExtractor(t *testing.T) {
	t.Parallel()

	proc, store := newTestProcessor(t, nil)
	seedReviews(t, store, "waiting review")

	if _, err := proc.ProcessUnanalyzed(context.Background()); err == nil {
		t.Fatalf("expected error when no extraction service is wired")
	}

	// The pending review is untouched: no attempt was recorded.
	pending, err := store.UnprocessedReviews(context.Background())
	if err != nil {
		t.Fatalf("unprocessed: %v", err)
	}
	if len(pending) != 1 || pending[0].FailedAttempts != 0 {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}

func TestProcessUnanalyzedEmptyStore(t *testing.T) {
	t.Parallel()

	proc, _ := newTestProcessor(t, &fakeExtractor{})
	stats, err := proc.ProcessUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Attempted != 0 || stats.Succeeded != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestProcessUnanalyzedIsRerunnable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	extractor := &fakeExtractor{failOn: map[string]bool{"flaky": true}}
	proc, store := newTestProcessor(t, extractor)
	seedReviews(t, store, "flaky", "stable")

	if _, err := proc.ProcessUnanalyzed(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// The service recovers; only the failed review is retried.
	extractor.failOn = nil
	stats, err := proc.ProcessUnanalyzed(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if stats.Attempted != 1 || stats.Succeeded != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	coverage, err := proc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if coverage.Processed != 2 || coverage.Unprocessed != 0 || coverage.Coverage != 1 {
		t.Fatalf("unexpected coverage: %+v", coverage)
	}
}
