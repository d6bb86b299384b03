package reviewer

import (
	"context"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

// maxLeaderboardLimit caps caller-supplied limits.
const maxLeaderboardLimit = 500

// UserStats returns the profile aggregates of userID together with its best
// fountain. A best fountain that no longer resolves is omitted.
func (s *Service) UserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.UserStats{
		TotalRatings: user.TotalRatings,
		AverageScore: user.AverageScore,
	}
	if user.BestFountainID == nil || *user.BestFountainID == "" {
		return stats, nil
	}

	f, err := s.store.GetFountainByCodi(ctx, *user.BestFountainID)
	switch {
	case err == nil:
		stats.BestFountain = f
	case database.IsNotFound(err):
	default:
		return nil, err
	}
	return stats, nil
}

// Leaderboard returns the top users. A non-positive limit uses the
// configured default.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.leaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	var (
		entries []domain.LeaderboardEntry
		err     error
	)
	if s.reader != nil {
		entries, err = s.reader.GetLeaderboard(ctx, limit)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("direct read failed, falling back to PostgREST")
		}
	}
	if s.reader == nil || err != nil {
		entries, err = s.store.GetLeaderboard(ctx, limit)
		if err != nil {
			return nil, err
		}
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}
