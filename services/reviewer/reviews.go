package reviewer

import (
	"context"
	"strings"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/geo"
)

// SubmitReview validates and stores a review by the caller. Operators must
// be within the review radius of the fountain; admins are not checked.
func (s *Service) SubmitReview(ctx context.Context, fountainID string, in SubmitReviewInput) (review *domain.Review, err error) {
	defer func() {
		if err != nil {
			code := ""
			if se := svcerrors.GetServiceError(err); se != nil {
				code = string(se.Code)
			}
			s.metrics.RecordReviewRejected(code)
			return
		}
		s.metrics.RecordReviewSubmitted()
	}()

	sess, err := s.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	req, err := domain.NewCreateReviewRequest(fountainID, in.Ratings, in.Comment)
	if err != nil {
		return nil, err
	}
	if in.Location != nil {
		if err := in.Location.Validate(); err != nil {
			return nil, svcerrors.Validation("Location must be a valid latitude and longitude").WithDetails("field", "location")
		}
	}

	user, err := s.store.GetProfile(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	fountain, err := s.store.GetFountainByCodi(ctx, req.FountainID)
	if err != nil {
		return nil, err
	}
	if fountain.IsDeleted {
		return nil, database.NewNotFoundError("fountain", req.FountainID)
	}

	elig := s.gate.CanReview(user.Role, in.Location, *fountain)
	if !elig.Allowed {
		if elig.Reason == geo.ReasonMissingLocation {
			return nil, svcerrors.Validation("Location is required to review a fountain").WithDetails("field", "location")
		}
		return nil, svcerrors.OutOfRange(elig.DistanceMeters, elig.MaxMeters)
	}

	review, err = s.store.CreateReview(ctx, req, user.ID, user.Nickname)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"fountain_id": req.FountainID,
		"review_id":   review.ID,
		"reason":      string(elig.Reason),
	}).Info("review submitted")
	return review, nil
}

// ListReviews returns a fountain's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, fountainID string) ([]domain.Review, error) {
	fountainID = strings.TrimSpace(fountainID)
	if fountainID == "" {
		return nil, svcerrors.Validation("Fountain is required").WithDetails("field", "fountain_id")
	}
	reviews, err := s.store.ListReviewsForFountain(ctx, fountainID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// UserReview returns the caller's review of a fountain, or nil.
func (s *Service) UserReview(ctx context.Context, fountainID string) (*domain.Review, error) {
	sess, err := s.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetUserReview(ctx, sess.UserID, strings.TrimSpace(fountainID))
}

// UpdateReview changes the ratings and, when given, the comment of one of
// the caller's reviews. Row-level security rejects other users' reviews.
func (s *Service) UpdateReview(ctx context.Context, reviewID string, in UpdateReviewInput) (*domain.Review, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reviewID) == "" {
		return nil, svcerrors.Validation("Review is required").WithDetails("field", "id")
	}
	if err := in.Ratings.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateReview(ctx, reviewID, in.Ratings, in.Comment)
}

// DeleteReview removes one of the caller's reviews.
func (s *Service) DeleteReview(ctx context.Context, reviewID string) error {
	if _, err := s.requireSession(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(reviewID) == "" {
		return svcerrors.Validation("Review is required").WithDetails("field", "id")
	}
	return s.store.DeleteReview(ctx, reviewID)
}
