package domain

import "time"

// Source identifies the review platform a record was scraped from.
type Source string

const (
	SourceGoogle Source = "google"
	SourceYelp   Source = "yelp"
)

// Sentiment is the categorical label emitted by the extraction service.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
	SentimentNeutral  Sentiment = "neutral"
)

// Score maps the label onto a [-1,1] scalar. Mixed and neutral both land
// on zero so menu and staff rollups use the same arithmetic.
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// Review is one customer review, raw or enriched. Identity is the
// (Source, ReviewID) composite key.
type Review struct {
	Source   Source
	ReviewID string
	Author   string
	// Rating is on a 0-5 scale; nil when the provider omitted it.
	Rating            *float64
	Text              string
	ReviewDate        string
	HelpfulVotes      int
	OwnerResponse     string
	OwnerResponseDate string
	Verified          bool
	Language          string
	PhotosAttached    int
	FetchedAt         time.Time
	RestaurantID      string

	// Enrichment is nil until extraction succeeds. FailedAttempts counts
	// extraction passes that gave up on this review; such reviews stay
	// unprocessed and are retried on the next batch run.
	Enrichment     *Enrichment
	ProcessedAt    time.Time
	FailedAttempts int
}

// Processed reports whether extraction has succeeded for this review.
func (r *Review) Processed() bool {
	return r.Enrichment != nil
}

// HasOwnerResponse reports whether the owner left a non-empty reply.
func (r *Review) HasOwnerResponse() bool {
	return len(r.OwnerResponse) > 0
}

// Key returns the composite identity used for dedup and lookups.
func (r *Review) Key() string {
	return string(r.Source) + "/" + r.ReviewID
}

// Enrichment is the structured insight block produced by the extraction
// service for one review. Optional sub-blocks are nil when the review
// never touched on them.
type Enrichment struct {
	OverallSentiment Sentiment            `json:"overall_sentiment"`
	RatingBreakdown  *RatingBreakdown     `json:"rating_breakdown,omitempty"`
	MentionedItems   []MentionedItem      `json:"mentioned_items,omitempty"`
	StaffMentions    []StaffMention       `json:"staff_mentions,omitempty"`
	Operational      *OperationalInsights `json:"operational_insights,omitempty"`
	VisitContext     *VisitContext        `json:"visit_context,omitempty"`
	KeyPhrases       *KeyPhrases          `json:"key_phrases,omitempty"`
	AnomalyFlags     *AnomalyFlags        `json:"anomaly_flags,omitempty"`
}

// RatingBreakdown carries per-aspect sub-scores, each clamped to [0,5].
type RatingBreakdown struct {
	Food     *float64 `json:"food"`
	Service  *float64 `json:"service"`
	Ambiance *float64 `json:"ambiance"`
	Value    *float64 `json:"value"`
}

// MentionedItem is one menu item referenced by the review.
type MentionedItem struct {
	Name      string    `json:"name"`
	Sentiment Sentiment `json:"sentiment"`
	Aspects   []string  `json:"aspects,omitempty"`
}

// StaffMention is one staff member referenced by the review.
type StaffMention struct {
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Sentiment Sentiment `json:"sentiment"`
	Feedback  string    `json:"specific_feedback,omitempty"`
}

// OperationalInsights captures service-operations signals.
type OperationalInsights struct {
	WaitTime    string `json:"wait_time"`
	Reservation string `json:"reservation_experience"`
	Cleanliness string `json:"cleanliness"`
	NoiseLevel  string `json:"noise_level"`
	Crowding    string `json:"crowding"`
}

// VisitContext describes who visited and why.
type VisitContext struct {
	PartyType      string `json:"party_type"`
	Occasion       string `json:"occasion"`
	TimeOfVisit    string `json:"time_of_visit"`
	FirstVisit     *bool  `json:"first_visit,omitempty"`
	WouldReturn    *bool  `json:"would_return,omitempty"`
	WouldRecommend *bool  `json:"would_recommend,omitempty"`
}

// KeyPhrases holds quotable highlights pulled from the text.
type KeyPhrases struct {
	PositiveHighlights []string `json:"positive_highlights,omitempty"`
	NegativeIssues     []string `json:"negative_issues,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// AnomalyFlags are per-review reputation signals. Flags are independent;
// a review may set any combination.
type AnomalyFlags struct {
	PotentialFake       bool `json:"potential_fake"`
	HealthSafetyConcern bool `json:"health_safety_concern"`
	ExtremeEmotion      bool `json:"extreme_emotion"`
	CompetitorMention   bool `json:"competitor_mention"`
}
