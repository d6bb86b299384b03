// Package domain holds the fountain, review and user models together with the
// pure rules that apply to them.
package domain

import (
	"strings"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

// Fountain is a drinkable-water point of interest with its aggregate rating.
type Fountain struct {
	Codi          string  `json:"codi"`
	Nom           string  `json:"nom"`
	Carrer        string  `json:"carrer"`
	NumeroCarrer  string  `json:"numero_carrer"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	IsDeleted     bool    `json:"is_deleted"`
}

// CreateFountainRequest carries the fields an admin supplies for a new fountain.
type CreateFountainRequest struct {
	Nom          string  `json:"nom"`
	Carrer       string  `json:"carrer"`
	NumeroCarrer string  `json:"numero_carrer"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Validate checks names and coordinate bounds.
func (r CreateFountainRequest) Validate() error {
	if strings.TrimSpace(r.Nom) == "" {
		return svcerrors.Validation("Name is required").WithDetails("field", "nom")
	}
	if strings.TrimSpace(r.Carrer) == "" {
		return svcerrors.Validation("Street is required").WithDetails("field", "carrer")
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return svcerrors.Validation("Latitude must be between -90 and 90").WithDetails("field", "latitude")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return svcerrors.Validation("Longitude must be between -180 and 180").WithDetails("field", "longitude")
	}
	return nil
}

// BestFountain returns the reviewed fountain with the highest average rating.
// Fountains without reviews are ignored. On equal ratings the first one in
// slice order wins. It returns nil when no fountain has been reviewed.
func BestFountain(fountains []Fountain) *Fountain {
	var best *Fountain
	for i := range fountains {
		f := &fountains[i]
		if f.TotalReviews <= 0 {
			continue
		}
		if best == nil || f.AverageRating > best.AverageRating {
			best = f
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// ActiveFountains drops soft-deleted fountains, keeping order.
func ActiveFountains(fountains []Fountain) []Fountain {
	out := make([]Fountain, 0, len(fountains))
	for _, f := range fountains {
		if !f.IsDeleted {
			out = append(out, f)
		}
	}
	return out
}
