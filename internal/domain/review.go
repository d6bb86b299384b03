package domain

import (
	"fmt"
	"strings"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's six-dimension rating of a fountain. Timestamps are
// epoch milliseconds.
type Review struct {
	ID             string  `json:"id"`
	FountainID     string  `json:"fountain_id"`
	UserID         string  `json:"user_id"`
	UserNickname   string  `json:"user_nickname"`
	Taste          int     `json:"taste"`
	Freshness      int     `json:"freshness"`
	LocationRating int     `json:"location_rating"`
	Aesthetics     int     `json:"aesthetics"`
	Splash         int     `json:"splash"`
	Jet            int     `json:"jet"`
	Overall        float64 `json:"overall"`
	Comment        *string `json:"comment,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

// Ratings groups the six scored dimensions.
type Ratings struct {
	Taste          int `json:"taste"`
	Freshness      int `json:"freshness"`
	LocationRating int `json:"location_rating"`
	Aesthetics     int `json:"aesthetics"`
	Splash         int `json:"splash"`
	Jet            int `json:"jet"`
}

// Validate reports the first rating outside [MinRating, MaxRating].
func (r Ratings) Validate() error {
	fields := []struct {
		name  string
		label string
		value int
	}{
		{"taste", "Taste", r.Taste},
		{"freshness", "Freshness", r.Freshness},
		{"location_rating", "Location rating", r.LocationRating},
		{"aesthetics", "Aesthetics", r.Aesthetics},
		{"splash", "Splash", r.Splash},
		{"jet", "Jet", r.Jet},
	}
	for _, f := range fields {
		if f.value < MinRating || f.value > MaxRating {
			return svcerrors.Validation(fmt.Sprintf("%s must be between %d and %d", f.label, MinRating, MaxRating)).
				WithDetails("field", f.name).
				WithDetails("value", f.value)
		}
	}
	return nil
}

// Overall is the arithmetic mean of the six ratings.
func (r Ratings) Overall() float64 {
	sum := r.Taste + r.Freshness + r.LocationRating + r.Aesthetics + r.Splash + r.Jet
	return float64(sum) / 6.0
}

// CreateReviewRequest is a validated review submission. Build it with
// NewCreateReviewRequest.
type CreateReviewRequest struct {
	FountainID string
	Ratings
	Comment *string
}

// NewCreateReviewRequest validates every rating and normalises the comment:
// a blank comment is treated as absent.
func NewCreateReviewRequest(fountainID string, ratings Ratings, comment *string) (CreateReviewRequest, error) {
	fountainID = strings.TrimSpace(fountainID)
	if fountainID == "" {
		return CreateReviewRequest{}, svcerrors.Validation("Fountain is required").WithDetails("field", "fountain_id")
	}
	if err := ratings.Validate(); err != nil {
		return CreateReviewRequest{}, err
	}
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}
	return CreateReviewRequest{
		FountainID: fountainID,
		Ratings:    ratings,
		Comment:    comment,
	}, nil
}
