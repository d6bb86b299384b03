// Package geo implements great-circle distance and the review geofence.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by Distance.
	EarthRadiusMeters = 6371000.0

	// ReviewRadiusMeters is how close an operator must be to review a fountain.
	ReviewRadiusMeters = 300.0
)

// Distance returns the haversine distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just past 1 near antipodal points.
	a = math.Max(0, math.Min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// IsWithinRange reports whether the two points are at most maxMeters apart.
// The boundary is inclusive.
func IsWithinRange(userLat, userLon, targetLat, targetLon, maxMeters float64) bool {
	return Distance(userLat, userLon, targetLat, targetLon) <= maxMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Location is an optional user position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ErrInvalidLocation is returned for coordinates outside WGS84 bounds.
var ErrInvalidLocation = errors.New("invalid location")

// Validate checks latitude is in [-90, 90] and longitude in [-180, 180].
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidLocation, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Reason explains an eligibility decision.
type Reason string

const (
	ReasonAdminBypass     Reason = "admin_bypass"
	ReasonWithinRange     Reason = "within_range"
	ReasonOutOfRange      Reason = "out_of_range"
	ReasonMissingLocation Reason = "missing_location"
	ReasonInvalidLocation Reason = "invalid_location"
)

// Eligibility is the outcome of the review gate.
type Eligibility struct {
	Allowed        bool    `json:"allowed"`
	Reason         Reason  `json:"reason"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	MaxMeters      float64 `json:"max_meters"`
}

// Gate decides who may review which fountain.
type Gate struct {
	RadiusMeters float64
}

// NewGate returns a gate with the given radius, defaulting to ReviewRadiusMeters.
func NewGate(radiusMeters float64) Gate {
	if radiusMeters <= 0 {
		radiusMeters = ReviewRadiusMeters
	}
	return Gate{RadiusMeters: radiusMeters}
}

// CanReview applies the geofence. Admins always pass without a location check;
// operators must supply a location within the radius.
func (g Gate) CanReview(role domain.UserRole, loc *Location, fountain domain.Fountain) Eligibility {
	radius := g.RadiusMeters
	if radius <= 0 {
		radius = ReviewRadiusMeters
	}
	if role.IsAdmin() {
		return Eligibility{Allowed: true, Reason: ReasonAdminBypass, MaxMeters: radius}
	}
	if loc == nil {
		return Eligibility{Allowed: false, Reason: ReasonMissingLocation, MaxMeters: radius}
	}
	if loc.Validate() != nil {
		return Eligibility{Allowed: false, Reason: ReasonInvalidLocation, MaxMeters: radius}
	}

	d := Distance(loc.Latitude, loc.Longitude, fountain.Latitude, fountain.Longitude)
	if d <= radius {
		return Eligibility{Allowed: true, Reason: ReasonWithinRange, DistanceMeters: d, MaxMeters: radius}
	}
	return Eligibility{Allowed: false, Reason: ReasonOutOfRange, DistanceMeters: d, MaxMeters: radius}
}
