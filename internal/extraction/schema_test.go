package extraction

import (
	"errors"
	"testing"

	"reviewpulse/internal/domain"
)

func TestParseFullPayload(t *testing.T) {
	t.Parallel()

	payload := []byte("```json\n" + `{
		"overall_sentiment": "Positive",
		"rating_breakdown": {"food": 4.5, "service": 7, "ambiance": -1, "value": null},
		"mentioned_items": [
			{"name": " Truffle Pasta ", "sentiment": "positive", "aspects": ["taste", "portion"]}
		],
		"staff_mentions": [
			{"name": "Maria", "role": "Server", "sentiment": "positive", "specific_feedback": "attentive"},
			{"role": "", "sentiment": "negative"}
		],
		"operational_insights": {"wait_time": "short", "cleanliness": ""},
		"visit_context": {"party_type": "couple", "occasion": "date", "first_visit": true},
		"key_phrases": {"positive_highlights": ["great pasta"]},
		"anomaly_flags": {"potential_fake": false, "health_safety_concern": true}
	}` + "\n```")

	enr, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if enr.OverallSentiment != domain.SentimentPositive {
		t.Fatalf("unexpected overall sentiment: %s", enr.OverallSentiment)
	}
	if got := *enr.RatingBreakdown.Food; got != 4.5 {
		t.Fatalf("expected food 4.5, got %v", got)
	}
	if got := *enr.RatingBreakdown.Service; got != 5 {
		t.Fatalf("expected service clamped to 5, got %v", got)
	}
	if got := *enr.RatingBreakdown.Ambiance; got != 0 {
		t.Fatalf("expected ambiance clamped to 0, got %v", got)
	}
	if enr.RatingBreakdown.Value != nil {
		t.Fatalf("expected nil value score, got %v", *enr.RatingBreakdown.Value)
	}

	if len(enr.MentionedItems) != 1 || enr.MentionedItems[0].Name != "Truffle Pasta" {
		t.Fatalf("unexpected mentioned items: %+v", enr.MentionedItems)
	}

	if len(enr.StaffMentions) != 2 {
		t.Fatalf("expected 2 staff mentions, got %d", len(enr.StaffMentions))
	}
	if enr.StaffMentions[0].Role != "server" || enr.StaffMentions[0].Name != "Maria" {
		t.Fatalf("unexpected staff mention: %+v", enr.StaffMentions[0])
	}
	if enr.StaffMentions[1].Role != "unknown" {
		t.Fatalf("expected empty role to become unknown, got %q", enr.StaffMentions[1].Role)
	}

	if enr.Operational.WaitTime != "short" || enr.Operational.Cleanliness != "not_mentioned" {
		t.Fatalf("unexpected operational block: %+v", enr.Operational)
	}
	if enr.Operational.NoiseLevel != "not_mentioned" {
		t.Fatalf("expected absent noise level to become not_mentioned, got %q", enr.Operational.NoiseLevel)
	}

	if enr.VisitContext.PartyType != "couple" || enr.VisitContext.TimeOfVisit != "unknown" {
		t.Fatalf("unexpected visit context: %+v", enr.VisitContext)
	}
	if enr.VisitContext.FirstVisit == nil || !*enr.VisitContext.FirstVisit {
		t.Fatalf("expected first_visit true")
	}

	if !enr.AnomalyFlags.HealthSafetyConcern || enr.AnomalyFlags.PotentialFake {
		t.Fatalf("unexpected anomaly flags: %+v", enr.AnomalyFlags)
	}
}

func TestParseMinimalPayload(t *testing.T) {
	t.Parallel()

	enr, err := Parse([]byte(`{"overall_sentiment": "neutral"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if enr.OverallSentiment != domain.SentimentNeutral {
		t.Fatalf("unexpected sentiment: %s", enr.OverallSentiment)
	}
	if enr.RatingBreakdown != nil || enr.Operational != nil || enr.VisitContext != nil {
		t.Fatalf("expected absent sub-blocks to stay nil")
	}
	if len(enr.MentionedItems) != 0 || len(enr.StaffMentions) != 0 {
		t.Fatalf("expected no mentions")
	}
}

func TestParseRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "the food was great"},
		{"missing overall sentiment", `{}`},
		{"unknown overall sentiment", `{"overall_sentiment": "ecstatic"}`},
		{"nameless item", `{"overall_sentiment": "positive", "mentioned_items": [{"name": " ", "sentiment": "positive"}]}`},
		{"bad item sentiment", `{"overall_sentiment": "positive", "mentioned_items": [{"name": "soup", "sentiment": "neutral"}]}`},
		{"off-enum staff role", `{"overall_sentiment": "positive", "staff_mentions": [{"role": "sommelier", "sentiment": "positive"}]}`},
		{"bad staff sentiment", `{"overall_sentiment": "positive", "staff_mentions": [{"role": "server", "sentiment": "mixed"}]}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tc.payload)); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
