package analytics

import "reviewpulse/internal/domain"

// Party-type segmentation is a closed set; anything else, including an
// unknown context, lands in the unclassified bucket.
var knownSegments = map[string]struct{}{
	"solo":        {},
	"couple":      {},
	"family":      {},
	"friends":     {},
	"business":    {},
	"large_group": {},
}

const unclassifiedSegment = "unclassified"

// computeCustomers segments enriched reviewers by visit context.
func computeCustomers(reviews []domain.Review) CustomerInsights {
	out := CustomerInsights{
		Segments:  map[string]SegmentStats{},
		Occasions: map[string]SegmentStats{},
	}

	segments := map[string]*periodAccum{}
	occasions := map[string]*periodAccum{}

	for i := range reviews {
		if !reviews[i].Processed() {
			continue
		}
		visit := reviews[i].Enrichment.VisitContext
		rating := reviews[i].Rating

		segment := unclassifiedSegment
		if visit != nil {
			if _, ok := knownSegments[visit.PartyType]; ok {
				segment = visit.PartyType
			}
		}
		accumulatePeriod(segments, segment, rating)
		if segment == unclassifiedSegment {
			out.UnclassifiedTotal++
		} else {
			out.SegmentedTotal++
		}

		if visit == nil {
			continue
		}
		if visit.Occasion != "" && visit.Occasion != "unknown" {
			accumulatePeriod(occasions, visit.Occasion, rating)
		}
		tallyIntent(visit.FirstVisit, &out.Loyalty.FirstVisitYes, &out.Loyalty.FirstVisitNo)
		tallyIntent(visit.WouldReturn, &out.Loyalty.WouldReturnYes, &out.Loyalty.WouldReturnNo)
		tallyIntent(visit.WouldRecommend, &out.Loyalty.WouldRecommendYes, &out.Loyalty.WouldRecommendNo)
	}

	for key, acc := range segments {
		m := acc.metrics()
		out.Segments[key] = SegmentStats{ReviewCount: m.ReviewCount, AverageRating: m.AverageRating}
	}
	for key, acc := range occasions {
		m := acc.metrics()
		out.Occasions[key] = SegmentStats{ReviewCount: m.ReviewCount, AverageRating: m.AverageRating}
	}
	return out
}

func tallyIntent(value *bool, yes, no *int) {
	if value == nil {
		return
	}
	if *value {
		*yes++
	} else {
		*no++
	}
}
