package records

import (
	"fmt"
	"strings"
	"time"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/mapper"
)

// GoogleMapper converts Google Maps dataset records.
type GoogleMapper struct{}

var _ mapper.RecordMapper = (*GoogleMapper)(nil)

// NewGoogleMapper builds the Google record mapper.
func NewGoogleMapper() *GoogleMapper {
	return &GoogleMapper{}
}

// Source identifies the strategy inside the registry.
func (m *GoogleMapper) Source() domain.Source {
	return domain.SourceGoogle
}

// Map converts one Google record. Relative review dates ("a week ago")
// are replaced by the scrape timestamp, which is absolute.
func (m *GoogleMapper) Map(record map[string]any, snapshot domain.Snapshot) (domain.Review, error) {
	reviewID, err := requireString(record, "review_id")
	if err != nil {
		return domain.Review{}, fmt.Errorf("google record: %w", err)
	}

	review := domain.Review{
		Source:            domain.SourceGoogle,
		ReviewID:          reviewID,
		Author:            stringField(record, "reviewer_name"),
		Text:              plainText(stringField(record, "review")),
		HelpfulVotes:      intField(record, "number_of_likes"),
		OwnerResponse:     plainText(stringField(record, "response_of_owner")),
		OwnerResponseDate: stringField(record, "response_date"),
		Verified:          boolField(record, "local_guide"),
		Language:          "en",
		FetchedAt:         time.Now().UTC(),
		RestaurantID:      snapshot.RestaurantID,
	}

	if rating, ok := floatField(record, "review_rating"); ok {
		review.Rating = &rating
	}

	review.ReviewDate = stringField(record, "review_date")
	if !strings.HasPrefix(review.ReviewDate, "20") {
		if ts := stringField(record, "timestamp"); ts != "" {
			review.ReviewDate = ts
		}
	}

	switch photos := record["photos"].(type) {
	case []any:
		review.PhotosAttached = len(photos)
	case float64:
		review.PhotosAttached = int(photos)
	}

	return review, nil
}
