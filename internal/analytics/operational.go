package analytics

import "reviewpulse/internal/domain"

// computeOperational tallies operational signal distributions across
// enriched reviews. The "not_mentioned" placeholder is not a signal and
// stays out of the buckets.
func computeOperational(reviews []domain.Review) OperationalMetrics {
	out := OperationalMetrics{
		WaitTimes:   map[string]int{},
		Cleanliness: map[string]int{},
		NoiseLevels: map[string]int{},
		Crowding:    map[string]int{},
	}

	for i := range reviews {
		if !reviews[i].Processed() {
			continue
		}
		op := reviews[i].Enrichment.Operational
		if op == nil {
			continue
		}
		tallySignal(out.WaitTimes, op.WaitTime)
		tallySignal(out.Cleanliness, op.Cleanliness)
		tallySignal(out.NoiseLevels, op.NoiseLevel)
		tallySignal(out.Crowding, op.Crowding)
	}
	return out
}

func tallySignal(bucket map[string]int, value string) {
	if value == "" || value == "not_mentioned" {
		return
	}
	bucket[value]++
}
