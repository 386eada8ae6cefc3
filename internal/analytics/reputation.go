package analytics

import (
	"sort"
	"strings"

	"reviewpulse/internal/domain"
)

const topPhraseLimit = 10

// computeReputation counts anomaly flags and sentiment labels across
// enriched reviews. Flags are independent; one review may raise any
// combination.
func computeReputation(reviews []domain.Review) ReputationInsights {
	out := ReputationInsights{
		SentimentDistribution: map[string]int{},
		TopPositivePhrases:    []PhraseCount{},
		TopNegativePhrases:    []PhraseCount{},
	}

	positive := map[string]int{}
	negative := map[string]int{}
	for i := range reviews {
		if !reviews[i].Processed() {
			continue
		}
		enrichment := reviews[i].Enrichment

		out.SentimentDistribution[string(enrichment.OverallSentiment)]++

		if flags := enrichment.AnomalyFlags; flags != nil {
			if flags.PotentialFake {
				out.PotentialFakeCount++
			}
			if flags.HealthSafetyConcern {
				out.HealthSafetyConcernCount++
			}
			if flags.ExtremeEmotion {
				out.ExtremeEmotionCount++
			}
			if flags.CompetitorMention {
				out.CompetitorMentionCount++
			}
		}

		if phrases := enrichment.KeyPhrases; phrases != nil {
			countPhrases(positive, phrases.PositiveHighlights)
			countPhrases(negative, phrases.NegativeIssues)
		}
	}

	out.TopPositivePhrases = topPhrases(positive, topPhraseLimit)
	out.TopNegativePhrases = topPhrases(negative, topPhraseLimit)
	return out
}

func countPhrases(counts map[string]int, phrases []string) {
	for _, phrase := range phrases {
		if p := strings.TrimSpace(phrase); p != "" {
			counts[p]++
		}
	}
}

// topPhrases returns the most frequent phrases, count descending with
// ties broken alphabetically.
func topPhrases(counts map[string]int, limit int) []PhraseCount {
	out := make([]PhraseCount, 0, len(counts))
	for phrase, count := range counts {
		out = append(out, PhraseCount{Phrase: phrase, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
