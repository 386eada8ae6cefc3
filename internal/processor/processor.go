// Package processor orchestrates LLM extraction over unprocessed
// reviews. The batch survives any single review's failure: each item is
// attempted in isolation and failures only show up in the summary.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/extraction"
	"reviewpulse/internal/ports"
	"reviewpulse/internal/ratelimit"
)

// Stats summarizes one ProcessUnanalyzed batch. Token usage accumulates
// across every service call, including ones that later failed validation.
type Stats struct {
	Attempted    int
	Succeeded    int
	Failed       int
	InputTokens  int
	OutputTokens int
}

// ProcessingStats describes store-wide enrichment coverage.
type ProcessingStats struct {
	Total       int
	Processed   int
	Unprocessed int
	Coverage    float64
}

// Processor drives the extraction pipeline against the review store.
type Processor struct {
	store     ports.ReviewStore
	extractor ports.ExtractionService
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	now       func() time.Time
}

// Deps wires the orchestrator's collaborators. Limiter and Logger are
// optional.
type Deps struct {
	Store     ports.ReviewStore
	Extractor ports.ExtractionService
	Limiter   *ratelimit.Limiter
	Logger    *slog.Logger
}

// New constructs a processor.
func New(deps Deps) *Processor {
	return &Processor{
		store:     deps.Store,
		extractor: deps.Extractor,
		limiter:   deps.Limiter,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// ProcessUnanalyzed enriches every unprocessed review in insertion order.
// A review fails on a service error, a schema-invalid payload, or a
// persistence error; the rest of the batch continues regardless.
func (p *Processor) ProcessUnanalyzed(ctx context.Context) (Stats, error) {
	if p.extractor == nil {
		return Stats{}, fmt.Errorf("no extraction service configured")
	}

	pending, err := p.store.UnprocessedReviews(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load unprocessed: %w", err)
	}

	stats := Stats{Attempted: len(pending)}
	if len(pending) == 0 {
		return stats, nil
	}
	p.info("processing unanalyzed reviews", "count", len(pending))

	for i, review := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return stats, err
			}
		}

		enriched, usage, err := p.processOne(ctx, review)
		stats.InputTokens += usage.InputTokens
		stats.OutputTokens += usage.OutputTokens
		if err != nil {
			stats.Failed++
			p.warn("review failed", "review", review.Key(), "index", i+1, "error", err)
			p.markFailed(ctx, review)
			continue
		}

		if err := p.store.UpdateReview(ctx, enriched); err != nil {
			stats.Failed++
			p.warn("persist enrichment failed", "review", review.Key(), "error", err)
			continue
		}
		stats.Succeeded++
	}

	p.info("processing complete",
		"succeeded", stats.Succeeded, "failed", stats.Failed,
		"input_tokens", stats.InputTokens, "output_tokens", stats.OutputTokens)
	return stats, nil
}

func (p *Processor) processOne(ctx context.Context, review domain.Review) (domain.Review, ports.ExtractionResult, error) {
	result, err := p.extractor.Extract(ctx, ports.ExtractionRequest{
		Text:       review.Text,
		Rating:     review.Rating,
		Source:     review.Source,
		ReviewDate: review.ReviewDate,
		Author:     review.Author,
	})
	if err != nil {
		return domain.Review{}, result, fmt.Errorf("extract: %w", err)
	}

	enrichment, err := extraction.Parse(result.Payload)
	if err != nil {
		return domain.Review{}, result, err
	}

	review.Enrichment = enrichment
	review.ProcessedAt = p.now().UTC()
	return review, result, nil
}

// markFailed records the attempt so the review is visibly retry-eligible.
// A persistence error here is swallowed: the review simply stays at its
// previous attempt count.
func (p *Processor) markFailed(ctx context.Context, review domain.Review) {
	review.FailedAttempts++
	if err := p.store.UpdateReview(ctx, review); err != nil {
		p.warn("record failed attempt", "review", review.Key(), "error", err)
	}
}

// RemoveDuplicates delegates to the store's dedup maintenance operation.
func (p *Processor) RemoveDuplicates(ctx context.Context) (int, error) {
	return p.store.RemoveDuplicates(ctx)
}

// Stats reports enrichment coverage over the current store contents.
func (p *Processor) Stats(ctx context.Context) (ProcessingStats, error) {
	reviews, err := p.store.AllReviews(ctx)
	if err != nil {
		return ProcessingStats{}, fmt.Errorf("load reviews: %w", err)
	}

	stats := ProcessingStats{Total: len(reviews)}
	for i := range reviews {
		if reviews[i].Processed() {
			stats.Processed++
		}
	}
	stats.Unprocessed = stats.Total - stats.Processed
	if stats.Total > 0 {
		stats.Coverage = float64(stats.Processed) / float64(stats.Total)
	}
	return stats, nil
}

func (p *Processor) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Processor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
