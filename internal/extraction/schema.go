// Package extraction validates and parses extraction-service payloads
// into the enrichment schema. Any shape problem is reported as a
// validation error, never a panic: the service output is untrusted.
package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"reviewpulse/internal/domain"
)

var (
	overallSentiments = map[string]domain.Sentiment{
		"positive": domain.SentimentPositive,
		"negative": domain.SentimentNegative,
		"mixed":    domain.SentimentMixed,
		"neutral":  domain.SentimentNeutral,
	}
	itemSentiments = map[string]domain.Sentiment{
		"positive": domain.SentimentPositive,
		"negative": domain.SentimentNegative,
		"mixed":    domain.SentimentMixed,
	}
	staffSentiments = map[string]domain.Sentiment{
		"positive": domain.SentimentPositive,
		"negative": domain.SentimentNegative,
	}
	staffRoles = map[string]bool{
		"server": true, "host": true, "manager": true,
		"bartender": true, "chef": true, "unknown": true,
	}
)

type payloadDoc struct {
	OverallSentiment *string          `json:"overall_sentiment"`
	RatingBreakdown  *ratingBreakdown `json:"rating_breakdown"`
	MentionedItems   []mentionedItem  `json:"mentioned_items"`
	StaffMentions    []staffMention   `json:"staff_mentions"`
	Operational      *operationalDoc  `json:"operational_insights"`
	VisitContext     *visitDoc        `json:"visit_context"`
	KeyPhrases       *phrasesDoc      `json:"key_phrases"`
	AnomalyFlags     *flagsDoc        `json:"anomaly_flags"`
}

type ratingBreakdown struct {
	Food     *float64 `json:"food"`
	Service  *float64 `json:"service"`
	Ambiance *float64 `json:"ambiance"`
	Value    *float64 `json:"value"`
}

type mentionedItem struct {
	Name      string   `json:"name"`
	Sentiment string   `json:"sentiment"`
	Aspects   []string `json:"aspects"`
}

type staffMention struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Sentiment string `json:"sentiment"`
	Feedback  string `json:"specific_feedback"`
}

type operationalDoc struct {
	WaitTime    string `json:"wait_time"`
	Reservation string `json:"reservation_experience"`
	Cleanliness string `json:"cleanliness"`
	NoiseLevel  string `json:"noise_level"`
	Crowding    string `json:"crowding"`
}

type visitDoc struct {
	PartyType      string `json:"party_type"`
	Occasion       string `json:"occasion"`
	TimeOfVisit    string `json:"time_of_visit"`
	FirstVisit     *bool  `json:"first_visit"`
	WouldReturn    *bool  `json:"would_return"`
	WouldRecommend *bool  `json:"would_recommend"`
}

type phrasesDoc struct {
	PositiveHighlights []string `json:"positive_highlights"`
	NegativeIssues     []string `json:"negative_issues"`
	Suggestions        []string `json:"suggestions"`
}

type flagsDoc struct {
	PotentialFake       bool `json:"potential_fake"`
	HealthSafetyConcern bool `json:"health_safety_concern"`
	ExtremeEmotion      bool `json:"extreme_emotion"`
	CompetitorMention   bool `json:"competitor_mention"`
}

// Parse validates payload against the enrichment schema. Missing optional
// sub-blocks mean "not mentioned"; a missing or unknown overall sentiment,
// a nameless menu item, or an off-enum label is a validation failure.
func Parse(payload []byte) (*domain.Enrichment, error) {
	var doc payloadDoc
	if err := json.Unmarshal(stripFences(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %v: %w", err, domain.ErrValidation)
	}

	if doc.OverallSentiment == nil {
		return nil, domain.NewValidationError("overall_sentiment", fmt.Errorf("missing"))
	}
	overall, ok := overallSentiments[strings.ToLower(*doc.OverallSentiment)]
	if !ok {
		return nil, domain.NewValidationError("overall_sentiment", fmt.Errorf("unknown label %q", *doc.OverallSentiment))
	}

	enr := &domain.Enrichment{OverallSentiment: overall}

	if doc.RatingBreakdown != nil {
		enr.RatingBreakdown = &domain.RatingBreakdown{
			Food:     clamp(doc.RatingBreakdown.Food),
			Service:  clamp(doc.RatingBreakdown.Service),
			Ambiance: clamp(doc.RatingBreakdown.Ambiance),
			Value:    clamp(doc.RatingBreakdown.Value),
		}
	}

	for i, item := range doc.MentionedItems {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("mentioned_items[%d].name", i), fmt.Errorf("missing"))
		}
		sentiment, ok := itemSentiments[strings.ToLower(item.Sentiment)]
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("mentioned_items[%d].sentiment", i), fmt.Errorf("unknown label %q", item.Sentiment))
		}
		enr.MentionedItems = append(enr.MentionedItems, domain.MentionedItem{
			Name:      name,
			Sentiment: sentiment,
			Aspects:   item.Aspects,
		})
	}

	for i, staff := range doc.StaffMentions {
		role := strings.ToLower(strings.TrimSpace(staff.Role))
		if role == "" {
			role = "unknown"
		}
		if !staffRoles[role] {
			return nil, domain.NewValidationError(fmt.Sprintf("staff_mentions[%d].role", i), fmt.Errorf("unknown role %q", staff.Role))
		}
		sentiment, ok := staffSentiments[strings.ToLower(staff.Sentiment)]
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("staff_mentions[%d].sentiment", i), fmt.Errorf("unknown label %q", staff.Sentiment))
		}
		enr.StaffMentions = append(enr.StaffMentions, domain.StaffMention{
			Name:      strings.TrimSpace(staff.Name),
			Role:      role,
			Sentiment: sentiment,
			Feedback:  staff.Feedback,
		})
	}

	if doc.Operational != nil {
		enr.Operational = &domain.OperationalInsights{
			WaitTime:    orNotMentioned(doc.Operational.WaitTime),
			Reservation: orNotMentioned(doc.Operational.Reservation),
			Cleanliness: orNotMentioned(doc.Operational.Cleanliness),
			NoiseLevel:  orNotMentioned(doc.Operational.NoiseLevel),
			Crowding:    orNotMentioned(doc.Operational.Crowding),
		}
	}

	if doc.VisitContext != nil {
		enr.VisitContext = &domain.VisitContext{
			PartyType:      orUnknown(doc.VisitContext.PartyType),
			Occasion:       orUnknown(doc.VisitContext.Occasion),
			TimeOfVisit:    orUnknown(doc.VisitContext.TimeOfVisit),
			FirstVisit:     doc.VisitContext.FirstVisit,
			WouldReturn:    doc.VisitContext.WouldReturn,
			WouldRecommend: doc.VisitContext.WouldRecommend,
		}
	}

	if doc.KeyPhrases != nil {
		enr.KeyPhrases = &domain.KeyPhrases{
			PositiveHighlights: doc.KeyPhrases.PositiveHighlights,
			NegativeIssues:     doc.KeyPhrases.NegativeIssues,
			Suggestions:        doc.KeyPhrases.Suggestions,
		}
	}

	if doc.AnomalyFlags != nil {
		enr.AnomalyFlags = &domain.AnomalyFlags{
			PotentialFake:       doc.AnomalyFlags.PotentialFake,
			HealthSafetyConcern: doc.AnomalyFlags.HealthSafetyConcern,
			ExtremeEmotion:      doc.AnomalyFlags.ExtremeEmotion,
			CompetitorMention:   doc.AnomalyFlags.CompetitorMention,
		}
	}

	return enr, nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(payload []byte) []byte {
	s := strings.TrimSpace(string(payload))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

func clamp(v *float64) *float64 {
	if v == nil {
		return nil
	}
	score := *v
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return &score
}

func orNotMentioned(v string) string {
	if v = strings.ToLower(strings.TrimSpace(v)); v == "" {
		return "not_mentioned"
	}
	return v
}

func orUnknown(v string) string {
	if v = strings.ToLower(strings.TrimSpace(v)); v == "" {
		return "unknown"
	}
	return v
}
