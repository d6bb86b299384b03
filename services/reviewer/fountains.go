package reviewer

import (
	"context"
	"strings"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

// requireAdmin returns the caller's profile when it has the admin role.
func (s *Service) requireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() {
		s.logger.LogSecurityEvent(ctx, "admin_required", map[string]interface{}{"user_id": user.ID})
		return nil, svcerrors.Forbidden("Admin access required")
	}
	return user, nil
}

// ListFountains returns every fountain with its aggregates. Only admins may
// include soft-deleted fountains.
func (s *Service) ListFountains(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error) {
	if includeDeleted {
		if _, err := s.requireAdmin(ctx); err != nil {
			return nil, err
		}
	}
	if s.conn != nil {
		if err := s.conn.Check(ctx); err != nil {
			return nil, err
		}
	}

	if s.reader != nil {
		fountains, err := s.reader.ListFountainsWithStats(ctx, includeDeleted)
		if err == nil {
			return fountains, nil
		}
		s.logger.WithContext(ctx).WithError(err).Warn("direct read failed, falling back to PostgREST")
	}
	return s.store.ListFountainsWithStats(ctx, includeDeleted)
}

// GetFountain returns one fountain. Deleted fountains are hidden from
// everyone but admins.
func (s *Service) GetFountain(ctx context.Context, codi string) (*domain.Fountain, error) {
	codi = strings.TrimSpace(codi)
	if codi == "" {
		return nil, svcerrors.Validation("Fountain is required").WithDetails("field", "codi")
	}
	f, err := s.store.GetFountainByCodi(ctx, codi)
	if err != nil {
		return nil, err
	}
	if f.IsDeleted && !s.callerIsAdmin(ctx) {
		return nil, database.NewNotFoundError("fountain", codi)
	}
	return f, nil
}

func (s *Service) callerIsAdmin(ctx context.Context) bool {
	if !s.IsUserLoggedIn(ctx) {
		return false
	}
	user, err := s.CurrentUser(ctx)
	return err == nil && user.Role.IsAdmin()
}

// BestFountain returns the highest-rated reviewed fountain, or nil when
// nothing has been reviewed yet.
func (s *Service) BestFountain(ctx context.Context) (*domain.Fountain, error) {
	fountains, err := s.ListFountains(ctx, false)
	if err != nil {
		return nil, err
	}
	return domain.BestFountain(fountains), nil
}

// CreateFountain adds a fountain. Admin only.
func (s *Service) CreateFountain(ctx context.Context, req domain.CreateFountainRequest) (*domain.Fountain, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f, err := s.store.CreateFountain(ctx, "", req)
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"codi":    f.Codi,
		"user_id": admin.ID,
	}).Info("fountain created")
	return f, nil
}

// SoftDeleteFountain hides a fountain while keeping its reviews. Admin only.
func (s *Service) SoftDeleteFountain(ctx context.Context, codi string) error {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	codi = strings.TrimSpace(codi)
	if codi == "" {
		return svcerrors.Validation("Fountain is required").WithDetails("field", "codi")
	}
	if err := s.store.SoftDeleteFountain(ctx, codi); err != nil {
		return err
	}
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"codi":    codi,
		"user_id": admin.ID,
	}).Info("fountain soft-deleted")
	return nil
}

// ReviewedFountainIDs returns the codis the user has reviewed.
func (s *Service) ReviewedFountainIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, svcerrors.Unauthorized("Authentication required")
	}
	ids, err := s.store.ListReviewedFountainIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// FountainStats returns the raw per-fountain aggregates.
func (s *Service) FountainStats(ctx context.Context) ([]database.FountainStatsDTO, error) {
	stats, err := s.store.ListFountainStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []database.FountainStatsDTO{}
	}
	return stats, nil
}
