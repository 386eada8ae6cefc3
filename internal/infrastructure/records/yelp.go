package records

import (
	"fmt"
	"time"

	"reviewpulse/internal/domain"
	"reviewpulse/internal/mapper"
)

// YelpMapper converts Yelp dataset records. The provider layout is
// idiosyncratic: capitalized keys and a misspelled "Review_auther" block.
type YelpMapper struct{}

var _ mapper.RecordMapper = (*YelpMapper)(nil)

// NewYelpMapper builds the Yelp record mapper.
func NewYelpMapper() *YelpMapper {
	return &YelpMapper{}
}

// Source identifies the strategy inside the registry.
func (m *YelpMapper) Source() domain.Source {
	return domain.SourceYelp
}

// Map converts one Yelp record.
func (m *YelpMapper) Map(record map[string]any, snapshot domain.Snapshot) (domain.Review, error) {
	reviewID, err := requireString(record, "review_id")
	if err != nil {
		return domain.Review{}, fmt.Errorf("yelp record: %w", err)
	}

	author := mapField(record, "Review_auther")

	review := domain.Review{
		Source:       domain.SourceYelp,
		ReviewID:     reviewID,
		Author:       "Anonymous",
		Text:         plainText(stringField(record, "Content")),
		Verified:     boolField(record, "recommended_review"),
		Language:     "en",
		FetchedAt:    time.Now().UTC(),
		RestaurantID: snapshot.RestaurantID,
	}

	if rating, ok := floatField(record, "Rating"); ok {
		review.Rating = &rating
	}

	review.ReviewDate = stringField(record, "date_iso_format")
	if review.ReviewDate == "" {
		review.ReviewDate = stringField(record, "Date")
	}

	if author != nil {
		if name := stringField(author, "Username"); name != "" {
			review.Author = name
		}
		review.HelpfulVotes = intField(author, "Reviews_made")
		review.PhotosAttached = intField(author, "Photos")
	}

	return review, nil
}
