package analytics

import (
	"fmt"
	"math"

	"reviewpulse/internal/domain"
)

var aspectNames = []string{"food", "service", "ambiance", "value"}

// computeOverall aggregates corpus-wide metrics. Reviews without a
// rating stay in the counts but are excluded from averages.
func computeOverall(reviews []domain.Review) OverallMetrics {
	out := OverallMetrics{
		TotalReviews:       len(reviews),
		RatingDistribution: map[string]int{},
		ReviewsBySource:    map[string]int{},
		AspectRatings:      map[string]*float64{},
		Platforms:          map[string]PlatformStats{},
	}
	for _, name := range aspectNames {
		out.AspectRatings[name] = nil
	}
	if len(reviews) == 0 {
		return out
	}

	var ratingSum float64
	var ratedCount int
	aspectSums := map[string]float64{}
	aspectCounts := map[string]int{}
	type platformAccum struct {
		count, responses, processed, rated int
		ratingSum                          float64
	}
	platforms := map[string]*platformAccum{}

	for i := range reviews {
		r := &reviews[i]

		source := string(r.Source)
		out.ReviewsBySource[source]++
		acc := platforms[source]
		if acc == nil {
			acc = &platformAccum{}
			platforms[source] = acc
		}
		acc.count++

		if r.Rating != nil {
			ratedCount++
			ratingSum += *r.Rating
			out.RatingDistribution[ratingBucket(*r.Rating)]++
			acc.rated++
			acc.ratingSum += *r.Rating
		}
		if r.HasOwnerResponse() {
			out.TotalResponses++
			acc.responses++
		}
		if r.Processed() {
			acc.processed++
			if b := r.Enrichment.RatingBreakdown; b != nil {
				accumulateAspect(aspectSums, aspectCounts, "food", b.Food)
				accumulateAspect(aspectSums, aspectCounts, "service", b.Service)
				accumulateAspect(aspectSums, aspectCounts, "ambiance", b.Ambiance)
				accumulateAspect(aspectSums, aspectCounts, "value", b.Value)
			}
		}
	}

	if ratedCount > 0 {
		out.AverageRating = ratingSum / float64(ratedCount)
	}
	out.ResponseRate = float64(out.TotalResponses) / float64(len(reviews))

	for _, name := range aspectNames {
		if n := aspectCounts[name]; n > 0 {
			avg := aspectSums[name] / float64(n)
			out.AspectRatings[name] = &avg
		}
	}

	for source, acc := range platforms {
		stats := PlatformStats{
			Count:          acc.count,
			ResponseCount:  acc.responses,
			ProcessedCount: acc.processed,
			ResponseRate:   float64(acc.responses) / float64(acc.count),
		}
		if acc.rated > 0 {
			avg := acc.ratingSum / float64(acc.rated)
			stats.AverageRating = &avg
		}
		out.Platforms[source] = stats
	}

	return out
}

// ratingBucket rounds a rating down to its half-star bucket, rendered
// with one decimal so 4 and 4.0 land in the same key.
func ratingBucket(rating float64) string {
	return fmt.Sprintf("%.1f", math.Floor(rating*2)/2)
}

func accumulateAspect(sums map[string]float64, counts map[string]int, name string, score *float64) {
	if score == nil {
		return
	}
	sums[name] += *score
	counts[name]++
}
