package analytics

import (
	"sort"
	"time"

	"reviewpulse/internal/domain"
)

// Slopes inside this band count as stable rather than a trend.
const trendEpsilon = 0.01

var reviewDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type datedReview struct {
	at     time.Time
	rating *float64
}

// computeTemporal aggregates review flow over time. Reviews whose
// timestamp does not parse are excluded here but still counted in every
// other section.
func computeTemporal(reviews []domain.Review) TemporalMetrics {
	out := TemporalMetrics{
		ByMonth:     map[string]PeriodMetrics{},
		ByDayOfWeek: map[string]PeriodMetrics{},
		Trend:       Trend{Direction: "insufficient_data"},
	}

	var dated []datedReview
	for i := range reviews {
		at, ok := parseReviewDate(reviews[i].ReviewDate)
		if !ok {
			continue
		}
		dated = append(dated, datedReview{at: at, rating: reviews[i].Rating})
	}
	out.DatedReviews = len(dated)
	if len(dated) == 0 {
		return out
	}

	sort.Slice(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })

	out.SpanDays = int(dated[len(dated)-1].at.Sub(dated[0].at).Hours() / 24)
	if out.SpanDays > 0 {
		out.ReviewsPerWeek = float64(len(dated)) / (float64(out.SpanDays) / 7)
	}

	monthSums := map[string]*periodAccum{}
	daySums := map[string]*periodAccum{}
	for _, d := range dated {
		accumulatePeriod(monthSums, d.at.Format("2006-01"), d.rating)
		accumulatePeriod(daySums, d.at.Weekday().String(), d.rating)
	}
	for key, acc := range monthSums {
		out.ByMonth[key] = acc.metrics()
	}
	for key, acc := range daySums {
		out.ByDayOfWeek[key] = acc.metrics()
	}

	out.Trend = computeTrend(dated)
	return out
}

// computeTrend fits rating against days-since-first with least squares.
// The input is already chronologically sorted.
func computeTrend(dated []datedReview) Trend {
	var points []datedReview
	for _, d := range dated {
		if d.rating != nil {
			points = append(points, d)
		}
	}
	if len(points) < 2 {
		return Trend{Direction: "insufficient_data"}
	}

	first := points[0].at
	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		x := p.at.Sub(first).Hours() / 24
		y := *p.rating
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	n := float64(len(points))

	trend := Trend{Direction: "stable"}
	if denom := n*sumX2 - sumX*sumX; denom != 0 {
		trend.Slope = (n*sumXY - sumX*sumY) / denom
	}
	switch {
	case trend.Slope > trendEpsilon:
		trend.Direction = "improving"
	case trend.Slope < -trendEpsilon:
		trend.Direction = "declining"
	}

	if len(points) >= 4 {
		half := len(points) / 2
		early := meanRating(points[:half])
		recent := meanRating(points[half:])
		trend.EarlyAverage = &early
		trend.RecentAverage = &recent
	}
	return trend
}

func meanRating(points []datedReview) float64 {
	var sum float64
	for _, p := range points {
		sum += *p.rating
	}
	return sum / float64(len(points))
}

type periodAccum struct {
	count     int
	rated     int
	ratingSum float64
}

func accumulatePeriod(buckets map[string]*periodAccum, key string, rating *float64) {
	acc := buckets[key]
	if acc == nil {
		acc = &periodAccum{}
		buckets[key] = acc
	}
	acc.count++
	if rating != nil {
		acc.rated++
		acc.ratingSum += *rating
	}
}

func (a *periodAccum) metrics() PeriodMetrics {
	m := PeriodMetrics{ReviewCount: a.count}
	if a.rated > 0 {
		m.AverageRating = a.ratingSum / float64(a.rated)
	}
	return m
}

func parseReviewDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range reviewDateLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}
