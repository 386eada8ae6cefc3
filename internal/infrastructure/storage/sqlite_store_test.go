package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/ports"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := New(db)
	require.NoError(t, err)
	return store
}

func review(source domain.Source, id string, rating float64) domain.Review {
	return domain.Review{
		Source:   source,
		ReviewID: id,
		Author:   "Author " + id,
		Rating:   &rating,
		Text:     "text " + id,
		Language: "en",
	}
}

func TestSaveOverwriteReplacesCollection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	first := []domain.Review{
		review(domain.SourceGoogle, "g1", 4),
		review(domain.SourceYelp, "y1", 3),
	}
	require.NoError(t, store.SaveReviews(ctx, first, ports.SaveOverwrite))

	second := []domain.Review{review(domain.SourceGoogle, "g2", 5)}
	require.NoError(t, store.SaveReviews(ctx, second, ports.SaveOverwrite))

	all, err := store.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "g2", all[0].ReviewID)
}

func TestSaveAppendPreservesOrderAndMerges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveReviews(ctx, []domain.Review{
		review(domain.SourceGoogle, "g1", 4),
		review(domain.SourceGoogle, "g2", 5),
	}, ports.SaveOverwrite))

	// Re-scrape g2 with new raw fields plus a brand-new g3.
	updated := review(domain.SourceGoogle, "g2", 2)
	updated.Text = "updated text"
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{
		updated,
		review(domain.SourceGoogle, "g3", 1),
	}, ports.SaveAppend))

	all, err := store.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"g1", "g2", "g3"}, []string{all[0].ReviewID, all[1].ReviewID, all[2].ReviewID})
	require.Equal(t, "updated text", all[1].Text)
	require.Equal(t, 2.0, *all[1].Rating)
}

func TestSaveAppendKeepsStoredEnrichment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	original := review(domain.SourceYelp, "y1", 4)
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{original}, ports.SaveOverwrite))

	enriched := original
	enriched.Enrichment = &domain.Enrichment{OverallSentiment: domain.SentimentPositive}
	require.NoError(t, store.UpdateReview(ctx, enriched))

	rescraped := review(domain.SourceYelp, "y1", 4)
	rescraped.Text = "fresh scrape"
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{rescraped}, ports.SaveAppend))

	all, err := store.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "fresh scrape", all[0].Text)
	require.NotNil(t, all[0].Enrichment)
	require.Equal(t, domain.SentimentPositive, all[0].Enrichment.OverallSentiment)
}

func TestUnprocessedReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	raw := review(domain.SourceGoogle, "g1", 4)
	enriched := review(domain.SourceGoogle, "g2", 5)
	enriched.Enrichment = &domain.Enrichment{OverallSentiment: domain.SentimentNegative}
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{raw, enriched}, ports.SaveOverwrite))

	pending, err := store.UnprocessedReviews(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "g1", pending[0].ReviewID)
}

func TestReviewAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveReviews(ctx, []domain.Review{
		review(domain.SourceGoogle, "g1", 4),
		review(domain.SourceGoogle, "g2", 5),
	}, ports.SaveOverwrite))

	got, err := store.ReviewAt(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "g2", got.ReviewID)

	_, err = store.ReviewAt(ctx, 5)
	require.True(t, domain.IsNotFound(err))
}

func TestDeleteReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveReviews(ctx, []domain.Review{review(domain.SourceYelp, "y1", 3)}, ports.SaveOverwrite))
	require.NoError(t, store.DeleteReview(ctx, domain.SourceYelp, "y1"))

	err := store.DeleteReview(ctx, domain.SourceYelp, "y1")
	require.True(t, domain.IsNotFound(err))
}

func TestUpdateReviewNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	err := store.UpdateReview(ctx, review(domain.SourceGoogle, "missing", 1))
	require.True(t, domain.IsNotFound(err))
}

func TestRemoveDuplicatesPrefersEnrichedAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	plain := review(domain.SourceGoogle, "g1", 4)
	enrichedCopy := review(domain.SourceGoogle, "g1", 4)
	enrichedCopy.Enrichment = &domain.Enrichment{OverallSentiment: domain.SentimentMixed}
	other := review(domain.SourceYelp, "y1", 5)

	// Overwrite inserts without collision checks, so duplicates land as-is.
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{plain, enrichedCopy, other}, ports.SaveOverwrite))

	removed, err := store.RemoveDuplicates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	all, err := store.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Enrichment)

	removed, err = store.RemoveDuplicates(ctx)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestRemoveDuplicatesKeepsFirstSeenOnTie(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	first := review(domain.SourceGoogle, "g1", 4)
	first.Text = "first copy"
	second := review(domain.SourceGoogle, "g1", 4)
	second.Text = "second copy"
	require.NoError(t, store.SaveReviews(ctx, []domain.Review{first, second}, ports.SaveOverwrite))

	removed, err := store.RemoveDuplicates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	all, err := store.AllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "first copy", all[0].Text)
}

func TestSnapshotUpsertAndLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	snapshot := domain.Snapshot{
		ID:           "snap-1",
		Source:       domain.SourceGoogle,
		Status:       domain.SnapshotQueued,
		RestaurantID: "r-1",
	}
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	snapshot.Status = domain.SnapshotRunning
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	got, err := store.Snapshot(ctx, "snap-1")
	require.NoError(t, err)
	require.Equal(t, domain.SnapshotRunning, got.Status)
	require.Equal(t, "r-1", got.RestaurantID)

	all, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = store.Snapshot(ctx, "missing")
	require.True(t, domain.IsNotFound(err))
}
