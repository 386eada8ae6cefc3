package analytics

import (
	"sort"
	"strings"

	"reviewpulse/internal/domain"
)

// computeMenu rolls up mentioned menu items across enriched reviews.
// Item names are grouped case-insensitively with surrounding whitespace
// trimmed; nameless mentions are dropped.
func computeMenu(reviews []domain.Review) MenuAnalytics {
	out := MenuAnalytics{Items: []MenuItemStats{}}

	items := map[string]*MenuItemStats{}
	for i := range reviews {
		if !reviews[i].Processed() {
			continue
		}
		for _, mention := range reviews[i].Enrichment.MentionedItems {
			name := normalizeName(mention.Name)
			if name == "" {
				continue
			}
			stats := items[name]
			if stats == nil {
				stats = &MenuItemStats{Name: name, Aspects: map[string]int{}}
				items[name] = stats
			}
			stats.MentionCount++
			out.TotalMentions++
			switch mention.Sentiment {
			case domain.SentimentPositive:
				stats.PositiveCount++
			case domain.SentimentNegative:
				stats.NegativeCount++
			}
			for _, aspect := range mention.Aspects {
				if a := normalizeName(aspect); a != "" {
					stats.Aspects[a]++
				}
			}
		}
	}

	for _, stats := range items {
		stats.SentimentScore = float64(stats.PositiveCount-stats.NegativeCount) / float64(stats.MentionCount)
		out.Items = append(out.Items, *stats)
	}
	sort.Slice(out.Items, func(i, j int) bool {
		if out.Items[i].MentionCount != out.Items[j].MentionCount {
			return out.Items[i].MentionCount > out.Items[j].MentionCount
		}
		return out.Items[i].Name < out.Items[j].Name
	})
	return out
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
