// Package analytics aggregates the enriched review corpus into a
// structured report. Generation is a pure function of store contents:
// identical input produces an identical report, and every section is
// present even when its underlying data is empty.
package analytics

import "time"

// Report is the full analytics artifact. It is regenerated from scratch
// on every run and never persisted as authoritative state.
type Report struct {
	Metadata    Metadata           `json:"metadata"`
	Overall     OverallMetrics     `json:"overall_metrics"`
	Temporal    TemporalMetrics    `json:"temporal_metrics"`
	Menu        MenuAnalytics      `json:"menu_analytics"`
	Staff       StaffAnalytics     `json:"staff_analytics"`
	Operational OperationalMetrics `json:"operational_metrics"`
	Customers   CustomerInsights   `json:"customer_insights"`
	Reputation  ReputationInsights `json:"reputation_insights"`
}

// Metadata describes the generation run.
type Metadata struct {
	ReportID           string    `json:"report_id"`
	GeneratedAt        time.Time `json:"generated_at"`
	TotalReviews       int       `json:"total_reviews"`
	ProcessedReviews   int       `json:"processed_reviews"`
	ProcessingCoverage float64   `json:"processing_coverage"`
}

// OverallMetrics covers the whole corpus, raw and enriched alike.
type OverallMetrics struct {
	TotalReviews       int                       `json:"total_reviews"`
	AverageRating      float64                   `json:"average_rating"`
	RatingDistribution map[string]int            `json:"rating_distribution"`
	ResponseRate       float64                   `json:"response_rate"`
	TotalResponses     int                       `json:"total_responses"`
	ReviewsBySource    map[string]int            `json:"reviews_by_source"`
	AspectRatings      map[string]*float64       `json:"aspect_ratings"`
	Platforms          map[string]PlatformStats  `json:"platforms"`
}

// PlatformStats compares one review source against the others.
type PlatformStats struct {
	Count          int      `json:"count"`
	AverageRating  *float64 `json:"average_rating"`
	ResponseCount  int      `json:"response_count"`
	ResponseRate   float64  `json:"response_rate"`
	ProcessedCount int      `json:"processed_count"`
}

// TemporalMetrics covers review flow over time. Reviews with unparseable
// timestamps are excluded here but still counted everywhere else.
type TemporalMetrics struct {
	ReviewsPerWeek float64                  `json:"reviews_per_week"`
	SpanDays       int                      `json:"span_days"`
	DatedReviews   int                      `json:"dated_reviews"`
	ByMonth        map[string]PeriodMetrics `json:"by_month"`
	ByDayOfWeek    map[string]PeriodMetrics `json:"by_day_of_week"`
	Trend          Trend                    `json:"trend"`
}

// PeriodMetrics aggregates one calendar bucket.
type PeriodMetrics struct {
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// Trend is a least-squares fit of rating against time.
type Trend struct {
	Slope         float64  `json:"slope"`
	Direction     string   `json:"direction"`
	EarlyAverage  *float64 `json:"early_period_average"`
	RecentAverage *float64 `json:"recent_period_average"`
}

// MenuAnalytics rolls up mentioned menu items.
type MenuAnalytics struct {
	Items         []MenuItemStats `json:"items"`
	TotalMentions int             `json:"total_mentions"`
}

// MenuItemStats aggregates one normalized item name. Sentiment is
// (positive - negative) / mentions, in [-1,1].
type MenuItemStats struct {
	Name           string         `json:"name"`
	MentionCount   int            `json:"mention_count"`
	PositiveCount  int            `json:"positive_count"`
	NegativeCount  int            `json:"negative_count"`
	SentimentScore float64        `json:"sentiment_score"`
	Aspects        map[string]int `json:"aspects"`
}

// StaffAnalytics rolls up staff mentions.
type StaffAnalytics struct {
	ByPerson []StaffMemberStats       `json:"by_person"`
	ByRole   map[string]RoleStats     `json:"by_role"`
}

// StaffMemberStats aggregates one named staff member. Role is the most
// frequently associated one when reviews disagree.
type StaffMemberStats struct {
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	MentionCount     int     `json:"mention_count"`
	PositiveCount    int     `json:"positive_count"`
	NegativeCount    int     `json:"negative_count"`
	AverageSentiment float64 `json:"average_sentiment"`
}

// RoleStats aggregates mentions per role, named or not.
type RoleStats struct {
	MentionCount     int     `json:"mention_count"`
	PositiveCount    int     `json:"positive_count"`
	NegativeCount    int     `json:"negative_count"`
	AverageSentiment float64 `json:"average_sentiment"`
	StaffCount       int     `json:"staff_count"`
}

// OperationalMetrics distributes operational signals across the corpus.
type OperationalMetrics struct {
	WaitTimes   map[string]int `json:"wait_times"`
	Cleanliness map[string]int `json:"cleanliness"`
	NoiseLevels map[string]int `json:"noise_levels"`
	Crowding    map[string]int `json:"crowding"`
}

// CustomerInsights segments reviewers by visit context.
type CustomerInsights struct {
	Segments        map[string]SegmentStats `json:"segments"`
	Occasions       map[string]SegmentStats `json:"occasions"`
	Loyalty         LoyaltyCounts           `json:"loyalty"`
	SegmentedTotal  int                     `json:"segmented_total"`
	UnclassifiedTotal int                   `json:"unclassified_total"`
}

// SegmentStats aggregates one customer segment.
type SegmentStats struct {
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// LoyaltyCounts tallies stated intent across enriched reviews.
type LoyaltyCounts struct {
	FirstVisitYes     int `json:"first_visit_yes"`
	FirstVisitNo      int `json:"first_visit_no"`
	WouldReturnYes    int `json:"would_return_yes"`
	WouldReturnNo     int `json:"would_return_no"`
	WouldRecommendYes int `json:"would_recommend_yes"`
	WouldRecommendNo  int `json:"would_recommend_no"`
}

// ReputationInsights surfaces anomaly and sentiment signals.
type ReputationInsights struct {
	PotentialFakeCount       int              `json:"potential_fake_count"`
	HealthSafetyConcernCount int              `json:"health_safety_concern_count"`
	ExtremeEmotionCount      int              `json:"extreme_emotion_count"`
	CompetitorMentionCount   int              `json:"competitor_mention_count"`
	SentimentDistribution    map[string]int   `json:"sentiment_distribution"`
	TopPositivePhrases       []PhraseCount    `json:"top_positive_phrases"`
	TopNegativePhrases       []PhraseCount    `json:"top_negative_phrases"`
}

// PhraseCount pairs a key phrase with its occurrence count.
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}
