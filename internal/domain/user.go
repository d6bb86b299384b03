package domain

import "strings"

// UserRole decides whether the review geofence applies.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
)

// ParseUserRole is case-insensitive; unknown or empty values are operators.
func ParseUserRole(s string) UserRole {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleOperator
}

func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

func (r UserRole) String() string {
	return string(r)
}

// User is a profile as seen by the application.
type User struct {
	ID             string   `json:"id"`
	Nickname       string   `json:"nickname"`
	TotalRatings   int      `json:"total_ratings"`
	AverageScore   float64  `json:"average_score"`
	BestFountainID *string  `json:"best_fountain_id,omitempty"`
	Role           UserRole `json:"role"`
}

// UserStats is the per-user summary shown on the profile screen.
type UserStats struct {
	TotalRatings int       `json:"total_ratings"`
	AverageScore float64   `json:"average_score"`
	BestFountain *Fountain `json:"best_fountain,omitempty"`
}

// LeaderboardEntry is one ranked row of the leaderboard view.
type LeaderboardEntry struct {
	Nickname     string  `json:"nickname"`
	TotalRatings int     `json:"total_ratings"`
	AverageScore float64 `json:"average_score"`
	Rank         int     `json:"rank"`
}
