package database

import (
	"context"
	"fmt"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

const reviewColumns = "id,fountain_id,user_id,user_nickname,taste,freshness,location_rating,aesthetics,splash,jet,overall,comment,created_at,updated_at"

// CreateReview inserts a review and returns the stored row, including the
// database-generated overall score.
func (r *Repository) CreateReview(ctx context.Context, req domain.CreateReviewRequest, userID, nickname string) (*domain.Review, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, invalidInput("user_id", "cannot be empty")
	}

	resp, err := r.from(ctx, tableReviews).
		Select(reviewColumns).
		Single().
		ExecuteInsert(ctx, newCreateReviewDTO(req, userID, nickname))
	if err != nil {
		return nil, classify(tableReviews, "create", req.FountainID, err)
	}

	var row ReviewDTO
	if err := resp.JSON(&row); err != nil {
		return nil, fmt.Errorf("%w: decode review: %v", ErrDatabaseError, err)
	}
	review := row.toDomain()
	return &review, nil
}

// ListReviewsForFountain returns the reviews of a fountain, newest first.
func (r *Repository) ListReviewsForFountain(ctx context.Context, fountainID string) ([]domain.Review, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if fountainID == "" {
		return nil, invalidInput("fountain_id", "cannot be empty")
	}

	var rows []ReviewDTO
	err := r.from(ctx, tableReviews).
		Select(reviewColumns).
		Eq("fountain_id", fountainID).
		Order("created_at", false).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(tableReviews, "list", fountainID, err)
	}

	reviews := make([]domain.Review, len(rows))
	for i, row := range rows {
		reviews[i] = row.toDomain()
	}
	return reviews, nil
}

// GetUserReview returns the review userID left on fountainID, or nil.
func (r *Repository) GetUserReview(ctx context.Context, userID, fountainID string) (*domain.Review, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if userID == "" || fountainID == "" {
		return nil, invalidInput("user_id/fountain_id", "cannot be empty")
	}

	var rows []ReviewDTO
	err := r.from(ctx, tableReviews).
		Select(reviewColumns).
		Eq("user_id", userID).
		Eq("fountain_id", fountainID).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(tableReviews, "get", fountainID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	review := rows[0].toDomain()
	return &review, nil
}

// UpdateReview replaces the six ratings of a review and, when comment is
// non-nil, its comment. Row-level security restricts it to the author.
func (r *Repository) UpdateReview(ctx context.Context, id string, ratings domain.Ratings, comment *string) (*domain.Review, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidInput("id", "cannot be empty")
	}

	patch := map[string]interface{}{
		"taste":           ratings.Taste,
		"freshness":       ratings.Freshness,
		"location_rating": ratings.LocationRating,
		"aesthetics":      ratings.Aesthetics,
		"splash":          ratings.Splash,
		"jet":             ratings.Jet,
	}
	if comment != nil {
		patch["comment"] = *comment
	}

	resp, err := r.from(ctx, tableReviews).
		Select(reviewColumns).
		Eq("id", id).
		ExecuteUpdate(ctx, patch)
	if err != nil {
		return nil, classify(tableReviews, "update", id, err)
	}

	var rows []ReviewDTO
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: decode review: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("review", id)
	}
	review := rows[0].toDomain()
	return &review, nil
}

// DeleteReview removes a review. Rows hidden by RLS count as missing.
func (r *Repository) DeleteReview(ctx context.Context, id string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if id == "" {
		return invalidInput("id", "cannot be empty")
	}

	resp, err := r.from(ctx, tableReviews).
		Select("id").
		Eq("id", id).
		ExecuteDelete(ctx)
	if err != nil {
		return classify(tableReviews, "delete", id, err)
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&rows); err != nil {
		return fmt.Errorf("%w: decode review: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return NewNotFoundError("review", id)
	}
	return nil
}

// ListReviewedFountainIDs returns the codis of every fountain userID has
// reviewed.
func (r *Repository) ListReviewedFountainIDs(ctx context.Context, userID string) ([]string, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, invalidInput("user_id", "cannot be empty")
	}

	var rows []struct {
		FountainID string `json:"fountain_id"`
	}
	err := r.from(ctx, tableReviews).
		Select("fountain_id").
		Eq("user_id", userID).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(tableReviews, "list", userID, err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.FountainID
	}
	return ids, nil
}
