package analytics

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/ports"
)

type stubStore struct {
	reviews []domain.Review
}

var _ ports.ReviewStore = (*stubStore)(nil)

func (s *stubStore) SaveReviews(context.Context, []domain.Review, ports.SaveMode) error {
	return nil
}

func (s *stubStore) AllReviews(context.Context) ([]domain.Review, error) {
	return s.reviews, nil
}

func (s *stubStore) ReviewAt(context.Context, int) (domain.Review, error) {
	return domain.Review{}, domain.ErrNotFound
}

func (s *stubStore) DeleteReview(context.Context, domain.Source, string) error {
	return domain.ErrNotFound
}

func (s *stubStore) UnprocessedReviews(context.Context) ([]domain.Review, error) {
	return nil, nil
}

func (s *stubStore) UpdateReview(context.Context, domain.Review) error {
	return nil
}

func (s *stubStore) RemoveDuplicates(context.Context) (int, error) {
	return 0, nil
}

func newTestEngine(reviews ...domain.Review) *Engine {
	engine := NewEngine(&stubStore{reviews: reviews}, nil)
	engine.newID = func() string { return "report-test" }
	return engine
}

func ratedReview(id string, rating float64) domain.Review {
	return domain.Review{
		Source:   domain.SourceGoogle,
		ReviewID: id,
		Rating:   &rating,
		Language: "en",
	}
}

func enriched(review domain.Review, enr *domain.Enrichment) domain.Review {
	review.Enrichment = enr
	return review
}

func TestGenerateReportEmptyStoreKeepsShape(t *testing.T) {
	t.Parallel()

	report, err := newTestEngine().GenerateReport(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Metadata.TotalReviews)
	require.Zero(t, report.Metadata.ProcessingCoverage)

	encoded, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	for _, section := range []string{
		"metadata", "overall_metrics", "temporal_metrics", "menu_analytics",
		"staff_analytics", "operational_metrics", "customer_insights", "reputation_insights",
	} {
		require.Contains(t, decoded, section)
		require.NotEqual(t, "null", string(decoded[section]), "section %s is null", section)
	}

	// Collections inside sections are emitted empty, never null.
	var menu struct {
		Items json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decoded["menu_analytics"], &menu))
	require.Equal(t, "[]", string(menu.Items))
}

func TestOverallMetricsScenario(t *testing.T) {
	t.Parallel()

	report, err := newTestEngine(
		ratedReview("g1", 4.0),
		ratedReview("g2", 5.0),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	overall := report.Overall
	require.Equal(t, 2, overall.TotalReviews)
	require.InDelta(t, 4.5, overall.AverageRating, 1e-9)
	require.Zero(t, overall.ResponseRate)
	require.Equal(t, map[string]int{"4.0": 1, "5.0": 1}, overall.RatingDistribution)
	require.Equal(t, map[string]int{"google": 2}, overall.ReviewsBySource)
}

func TestOverallMetricsResponseRateAndPlatforms(t *testing.T) {
	t.Parallel()

	responded := ratedReview("g1", 4.0)
	responded.OwnerResponse = "thanks for visiting"
	yelp := ratedReview("y1", 2.0)
	yelp.Source = domain.SourceYelp

	report, err := newTestEngine(responded, yelp).GenerateReport(context.Background())
	require.NoError(t, err)

	overall := report.Overall
	require.InDelta(t, 0.5, overall.ResponseRate, 1e-9)
	require.Equal(t, 1, overall.TotalResponses)

	google := overall.Platforms["google"]
	require.Equal(t, 1, google.Count)
	require.Equal(t, 1, google.ResponseCount)
	require.InDelta(t, 4.0, *google.AverageRating, 1e-9)

	require.Equal(t, 1, overall.Platforms["yelp"].Count)
}

func TestMenuSentimentComputation(t *testing.T) {
	t.Parallel()

	mentions := func(sentiment domain.Sentiment) *domain.Enrichment {
		return &domain.Enrichment{
			OverallSentiment: domain.SentimentNeutral,
			MentionedItems: []domain.MentionedItem{
				{Name: " Truffle Pasta ", Sentiment: sentiment, Aspects: []string{"taste"}},
			},
		}
	}

	report, err := newTestEngine(
		enriched(ratedReview("g1", 4), mentions(domain.SentimentPositive)),
		enriched(ratedReview("g2", 5), mentions(domain.SentimentPositive)),
		enriched(ratedReview("g3", 2), mentions(domain.SentimentNegative)),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Menu.Items, 1)
	item := report.Menu.Items[0]
	require.Equal(t, "truffle pasta", item.Name)
	require.Equal(t, 3, item.MentionCount)
	require.Equal(t, 2, item.PositiveCount)
	require.Equal(t, 1, item.NegativeCount)
	require.InDelta(t, 1.0/3.0, item.SentimentScore, 1e-9)
	require.Equal(t, map[string]int{"taste": 3}, item.Aspects)
	require.Equal(t, 3, report.Menu.TotalMentions)
}

func TestMenuSortingByCountThenName(t *testing.T) {
	t.Parallel()

	enr := &domain.Enrichment{
		OverallSentiment: domain.SentimentPositive,
		MentionedItems: []domain.MentionedItem{
			{Name: "zucchini fries", Sentiment: domain.SentimentPositive},
			{Name: "apple pie", Sentiment: domain.SentimentPositive},
			{Name: "burger", Sentiment: domain.SentimentPositive},
			{Name: "burger", Sentiment: domain.SentimentNegative},
		},
	}

	report, err := newTestEngine(enriched(ratedReview("g1", 4), enr)).GenerateReport(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(report.Menu.Items))
	for _, item := range report.Menu.Items {
		names = append(names, item.Name)
	}
	require.Equal(t, []string{"burger", "apple pie", "zucchini fries"}, names)
}

func TestStaffRollup(t *testing.T) {
	t.Parallel()

	mention := func(name, role string, sentiment domain.Sentiment) *domain.Enrichment {
		return &domain.Enrichment{
			OverallSentiment: domain.SentimentNeutral,
			StaffMentions:    []domain.StaffMention{{Name: name, Role: role, Sentiment: sentiment}},
		}
	}

	report, err := newTestEngine(
		enriched(ratedReview("g1", 5), mention("Maria", "server", domain.SentimentPositive)),
		enriched(ratedReview("g2", 4), mention(" MARIA ", "server", domain.SentimentPositive)),
		enriched(ratedReview("g3", 1), mention("maria", "host", domain.SentimentNegative)),
		enriched(ratedReview("g4", 3), mention("", "server", domain.SentimentPositive)),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Staff.ByPerson, 1)
	maria := report.Staff.ByPerson[0]
	require.Equal(t, "maria", maria.Name)
	require.Equal(t, "server", maria.Role)
	require.Equal(t, 3, maria.MentionCount)
	require.InDelta(t, 1.0/3.0, maria.AverageSentiment, 1e-9)

	server := report.Staff.ByRole["server"]
	require.Equal(t, 3, server.MentionCount)
	require.Equal(t, 1, server.StaffCount)
	require.InDelta(t, 1.0, server.AverageSentiment, 1e-9)
}

func TestTemporalMetrics(t *testing.T) {
	t.Parallel()

	dated := func(id, date string, rating float64) domain.Review {
		r := ratedReview(id, rating)
		r.ReviewDate = date
		return r
	}
	undated := ratedReview("u1", 3)
	undated.ReviewDate = "a week ago"

	report, err := newTestEngine(
		dated("g1", "2026-01-01", 2),
		dated("g2", "2026-01-11", 3),
		dated("g3", "2026-01-21", 4),
		dated("g4", "2026-01-31", 5),
		undated,
	).GenerateReport(context.Background())
	require.NoError(t, err)

	temporal := report.Temporal
	require.Equal(t, 4, temporal.DatedReviews)
	require.Equal(t, 30, temporal.SpanDays)
	require.InDelta(t, 4.0/(30.0/7.0), temporal.ReviewsPerWeek, 1e-9)

	january := temporal.ByMonth["2026-01"]
	require.Equal(t, 4, january.ReviewCount)
	require.InDelta(t, 3.5, january.AverageRating, 1e-9)

	require.Equal(t, "improving", temporal.Trend.Direction)
	require.Greater(t, temporal.Trend.Slope, 0.01)
	require.InDelta(t, 2.5, *temporal.Trend.EarlyAverage, 1e-9)
	require.InDelta(t, 4.5, *temporal.Trend.RecentAverage, 1e-9)
}

func TestTemporalMetricsNoDates(t *testing.T) {
	t.Parallel()

	report, err := newTestEngine(ratedReview("g1", 4)).GenerateReport(context.Background())
	require.NoError(t, err)

	require.Zero(t, report.Temporal.ReviewsPerWeek)
	require.Zero(t, report.Temporal.DatedReviews)
	require.Equal(t, "insufficient_data", report.Temporal.Trend.Direction)
}

func TestCustomerSegmentation(t *testing.T) {
	t.Parallel()

	visit := func(party string, wouldReturn *bool) *domain.Enrichment {
		return &domain.Enrichment{
			OverallSentiment: domain.SentimentPositive,
			VisitContext:     &domain.VisitContext{PartyType: party, Occasion: "date", WouldReturn: wouldReturn},
		}
	}
	yes := true
	no := false

	report, err := newTestEngine(
		enriched(ratedReview("g1", 5), visit("couple", &yes)),
		enriched(ratedReview("g2", 4), visit("couple", &no)),
		enriched(ratedReview("g3", 3), visit("alien delegation", nil)),
		enriched(ratedReview("g4", 2), &domain.Enrichment{OverallSentiment: domain.SentimentNegative}),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	customers := report.Customers
	require.Equal(t, 2, customers.SegmentedTotal)
	require.Equal(t, 2, customers.UnclassifiedTotal)

	couple := customers.Segments["couple"]
	require.Equal(t, 2, couple.ReviewCount)
	require.InDelta(t, 4.5, couple.AverageRating, 1e-9)
	require.Equal(t, 2, customers.Segments["unclassified"].ReviewCount)

	require.Equal(t, 3, customers.Occasions["date"].ReviewCount)
	require.Equal(t, 1, customers.Loyalty.WouldReturnYes)
	require.Equal(t, 1, customers.Loyalty.WouldReturnNo)
}

func TestReputationInsights(t *testing.T) {
	t.Parallel()

	flagged := &domain.Enrichment{
		OverallSentiment: domain.SentimentNegative,
		AnomalyFlags:     &domain.AnomalyFlags{PotentialFake: true, HealthSafetyConcern: true},
		KeyPhrases:       &domain.KeyPhrases{NegativeIssues: []string{"cold food", "cold food", "slow service"}},
	}
	praised := &domain.Enrichment{
		OverallSentiment: domain.SentimentPositive,
		KeyPhrases:       &domain.KeyPhrases{PositiveHighlights: []string{"amazing pasta"}},
	}

	report, err := newTestEngine(
		enriched(ratedReview("g1", 1), flagged),
		enriched(ratedReview("g2", 5), praised),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	reputation := report.Reputation
	require.Equal(t, 1, reputation.PotentialFakeCount)
	require.Equal(t, 1, reputation.HealthSafetyConcernCount)
	require.Zero(t, reputation.ExtremeEmotionCount)
	require.Equal(t, map[string]int{"negative": 1, "positive": 1}, reputation.SentimentDistribution)

	require.Equal(t, []PhraseCount{
		{Phrase: "cold food", Count: 2},
		{Phrase: "slow service", Count: 1},
	}, reputation.TopNegativePhrases)
	require.Equal(t, []PhraseCount{{Phrase: "amazing pasta", Count: 1}}, reputation.TopPositivePhrases)
}

func TestProcessingCoverageMetadata(t *testing.T) {
	t.Parallel()

	report, err := newTestEngine(
		enriched(ratedReview("g1", 4), &domain.Enrichment{OverallSentiment: domain.SentimentPositive}),
		ratedReview("g2", 5),
	).GenerateReport(context.Background())
	require.NoError(t, err)

	require.Equal(t, "report-test", report.Metadata.ReportID)
	require.Equal(t, 2, report.Metadata.TotalReviews)
	require.Equal(t, 1, report.Metadata.ProcessedReviews)
	require.InDelta(t, 0.5, report.Metadata.ProcessingCoverage, 1e-9)
}
