package database

import (
	"context"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

// DefaultLeaderboardLimit is used when GetLeaderboard is called with a
// non-positive limit.
const DefaultLeaderboardLimit = 100

// ListFountainStats returns the per-fountain aggregates.
func (r *Repository) ListFountainStats(ctx context.Context) ([]FountainStatsDTO, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []FountainStatsDTO
	err := r.from(ctx, viewFountainStats).
		Select("fountain_id,total_reviews,average_rating").
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(viewFountainStats, "list", "", err)
	}
	return rows, nil
}

// GetLeaderboard returns the top users ordered by rank.
func (r *Repository) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	var rows []LeaderboardDTO
	err := r.from(ctx, viewLeaderboard).
		Select("nickname,total_ratings,average_score,rank").
		Order("rank", true).
		Limit(limit).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(viewLeaderboard, "list", "", err)
	}
	return leaderboardToDomain(rows), nil
}
