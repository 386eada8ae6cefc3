package analytics

import (
	"sort"

	"reviewpulse/internal/domain"
)

// computeStaff rolls up staff mentions. Named mentions group into
// per-person stats; every mention, named or not, also lands in its
// role bucket.
func computeStaff(reviews []domain.Review) StaffAnalytics {
	out := StaffAnalytics{
		ByPerson: []StaffMemberStats{},
		ByRole:   map[string]RoleStats{},
	}

	type personAccum struct {
		stats        StaffMemberStats
		roleCounts   map[string]int
		sentimentSum float64
	}
	type roleAccum struct {
		stats        RoleStats
		sentimentSum float64
		names        map[string]struct{}
	}
	persons := map[string]*personAccum{}
	roles := map[string]*roleAccum{}

	for i := range reviews {
		if !reviews[i].Processed() {
			continue
		}
		for _, mention := range reviews[i].Enrichment.StaffMentions {
			score := mention.Sentiment.Score()
			name := normalizeName(mention.Name)

			role := roles[mention.Role]
			if role == nil {
				role = &roleAccum{names: map[string]struct{}{}}
				roles[mention.Role] = role
			}
			role.stats.MentionCount++
			role.sentimentSum += score
			switch mention.Sentiment {
			case domain.SentimentPositive:
				role.stats.PositiveCount++
			case domain.SentimentNegative:
				role.stats.NegativeCount++
			}
			if name != "" {
				role.names[name] = struct{}{}
			}

			if name == "" {
				continue
			}
			person := persons[name]
			if person == nil {
				person = &personAccum{
					stats:      StaffMemberStats{Name: name},
					roleCounts: map[string]int{},
				}
				persons[name] = person
			}
			person.stats.MentionCount++
			person.roleCounts[mention.Role]++
			person.sentimentSum += score
			switch mention.Sentiment {
			case domain.SentimentPositive:
				person.stats.PositiveCount++
			case domain.SentimentNegative:
				person.stats.NegativeCount++
			}
		}
	}

	for _, person := range persons {
		person.stats.Role = dominantRole(person.roleCounts)
		person.stats.AverageSentiment = person.sentimentSum / float64(person.stats.MentionCount)
		out.ByPerson = append(out.ByPerson, person.stats)
	}
	sort.Slice(out.ByPerson, func(i, j int) bool {
		if out.ByPerson[i].MentionCount != out.ByPerson[j].MentionCount {
			return out.ByPerson[i].MentionCount > out.ByPerson[j].MentionCount
		}
		return out.ByPerson[i].Name < out.ByPerson[j].Name
	})

	for name, role := range roles {
		role.stats.AverageSentiment = role.sentimentSum / float64(role.stats.MentionCount)
		role.stats.StaffCount = len(role.names)
		out.ByRole[name] = role.stats
	}
	return out
}

// dominantRole picks the most frequently seen role; ties go to the
// lexicographically smallest so output stays deterministic.
func dominantRole(counts map[string]int) string {
	var best string
	bestCount := -1
	for role, count := range counts {
		if count > bestCount || (count == bestCount && role < best) {
			best, bestCount = role, count
		}
	}
	return best
}
