package database

import (
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

const (
	tableProfiles             = "profiles"
	tableReviews              = "reviews"
	tableFountains            = "fountains"
	viewFountainStats         = "fountain_stats"
	viewFountainStatsDetailed = "fountain_stats_detailed"
	viewLeaderboard           = "leaderboard"
)

// ProfileDTO is a row of profiles.
type ProfileDTO struct {
	ID             string  `json:"id"`
	Nickname       string  `json:"nickname"`
	TotalRatings   int     `json:"total_ratings"`
	AverageScore   float64 `json:"average_score"`
	BestFountainID *string `json:"best_fountain_id"`
	Role           string  `json:"role"`
}

// CreateProfileDTO is the insert payload for profiles.
type CreateProfileDTO struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// ReviewDTO is a row of reviews. Timestamps arrive as RFC 3339 strings.
type ReviewDTO struct {
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
	Comment        *string `json:"comment"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// CreateReviewDTO is the insert payload for reviews. overall is generated
// by the database.
type CreateReviewDTO struct {
	FountainID     string  `json:"fountain_id"`
	UserID         string  `json:"user_id"`
	UserNickname   string  `json:"user_nickname"`
	Taste          int     `json:"taste"`
	Freshness      int     `json:"freshness"`
	LocationRating int     `json:"location_rating"`
	Aesthetics     int     `json:"aesthetics"`
	Splash         int     `json:"splash"`
	Jet            int     `json:"jet"`
	Comment        *string `json:"comment,omitempty"`
}

// FountainStatsDTO is a row of the fountain_stats view.
type FountainStatsDTO struct {
	FountainID    string  `json:"fountain_id" db:"fountain_id"`
	TotalReviews  int     `json:"total_reviews" db:"total_reviews"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
}

// FountainWithStatsDTO is a row of the fountain_stats_detailed view.
type FountainWithStatsDTO struct {
	Codi          string  `json:"codi" db:"codi"`
	Nom           string  `json:"nom" db:"nom"`
	Carrer        string  `json:"carrer" db:"carrer"`
	NumeroCarrer  string  `json:"numero_carrer" db:"numero_carrer"`
	Latitude      float64 `json:"latitude" db:"latitude"`
	Longitude     float64 `json:"longitude" db:"longitude"`
	TotalReviews  int     `json:"total_reviews" db:"total_reviews"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	IsDeleted     bool    `json:"is_deleted" db:"is_deleted"`
}

// CreateFountainDTO is the insert payload for fountains.
type CreateFountainDTO struct {
	Codi         string  `json:"codi"`
	Nom          string  `json:"nom"`
	Carrer       string  `json:"carrer"`
	NumeroCarrer string  `json:"numero_carrer"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// LeaderboardDTO is a row of the leaderboard view.
type LeaderboardDTO struct {
	Nickname     string  `json:"nickname" db:"nickname"`
	TotalRatings int     `json:"total_ratings" db:"total_ratings"`
	AverageScore float64 `json:"average_score" db:"average_score"`
	Rank         int     `json:"rank" db:"rank"`
}

func (d ProfileDTO) toDomain() domain.User {
	return domain.User{
		ID:             d.ID,
		Nickname:       d.Nickname,
		TotalRatings:   d.TotalRatings,
		AverageScore:   d.AverageScore,
		BestFountainID: d.BestFountainID,
		Role:           domain.ParseUserRole(d.Role),
	}
}

func (d ReviewDTO) toDomain() domain.Review {
	return domain.Review{
		ID:             d.ID,
		FountainID:     d.FountainID,
		UserID:         d.UserID,
		UserNickname:   d.UserNickname,
		Taste:          d.Taste,
		Freshness:      d.Freshness,
		LocationRating: d.LocationRating,
		Aesthetics:     d.Aesthetics,
		Splash:         d.Splash,
		Jet:            d.Jet,
		Overall:        d.Overall,
		Comment:        d.Comment,
		CreatedAt:      parseTimestamp(d.CreatedAt),
		UpdatedAt:      parseTimestamp(d.UpdatedAt),
	}
}

func newCreateReviewDTO(req domain.CreateReviewRequest, userID, nickname string) CreateReviewDTO {
	return CreateReviewDTO{
		FountainID:     req.FountainID,
		UserID:         userID,
		UserNickname:   nickname,
		Taste:          req.Taste,
		Freshness:      req.Freshness,
		LocationRating: req.LocationRating,
		Aesthetics:     req.Aesthetics,
		Splash:         req.Splash,
		Jet:            req.Jet,
		Comment:        req.Comment,
	}
}

func (d FountainWithStatsDTO) toDomain() domain.Fountain {
	return domain.Fountain{
		Codi:          d.Codi,
		Nom:           d.Nom,
		Carrer:        d.Carrer,
		NumeroCarrer:  d.NumeroCarrer,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		AverageRating: d.AverageRating,
		TotalReviews:  d.TotalReviews,
		IsDeleted:     d.IsDeleted,
	}
}

func (d LeaderboardDTO) toDomain() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Nickname:     d.Nickname,
		TotalRatings: d.TotalRatings,
		AverageScore: d.AverageScore,
		Rank:         d.Rank,
	}
}

func fountainsToDomain(rows []FountainWithStatsDTO) []domain.Fountain {
	out := make([]domain.Fountain, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

func leaderboardToDomain(rows []LeaderboardDTO) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

// parseTimestamp converts an RFC 3339 timestamp, with or without fractional
// seconds, to epoch milliseconds. Unparsable input yields 0 so a bad row
// shows as 1970 rather than as the current time.
func parseTimestamp(ts string) int64 {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
