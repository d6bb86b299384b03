package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

const (
	fountainPageSize = 1000
	fountainColumns  = "codi,nom,carrer,numero_carrer,latitude,longitude,total_reviews,average_rating,is_deleted"
)

// ListFountainsWithStats fetches every fountain with its aggregates, one
// PostgREST page at a time. Soft-deleted fountains are dropped unless
// includeDeleted is set.
func (r *Repository) ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var all []FountainWithStatsDTO
	for offset := 0; ; offset += fountainPageSize {
		var batch []FountainWithStatsDTO
		err := r.from(ctx, viewFountainStatsDetailed).
			Select(fountainColumns).
			Order("codi", true).
			Range(offset, offset+fountainPageSize-1).
			ExecuteInto(ctx, &batch)
		if err != nil {
			return nil, classify(viewFountainStatsDetailed, "list", "", err)
		}
		all = append(all, batch...)
		if len(batch) < fountainPageSize {
			break
		}
	}

	r.logger.WithContext(ctx).WithField("count", len(all)).Debug("Fetched fountains")

	fountains := fountainsToDomain(all)
	if includeDeleted {
		return fountains, nil
	}
	return domain.ActiveFountains(fountains), nil
}

// GetFountainByCodi returns a single fountain with its aggregates.
func (r *Repository) GetFountainByCodi(ctx context.Context, codi string) (*domain.Fountain, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(codi) == "" {
		return nil, invalidInput("codi", "cannot be empty")
	}

	var row FountainWithStatsDTO
	err := r.from(ctx, viewFountainStatsDetailed).
		Select(fountainColumns).
		Eq("codi", codi).
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return nil, classify(viewFountainStatsDetailed, "get", codi, err)
	}
	f := row.toDomain()
	return &f, nil
}

// CreateFountain inserts a fountain. An empty codi is replaced by a new UUID.
func (r *Repository) CreateFountain(ctx context.Context, codi string, req domain.CreateFountainRequest) (*domain.Fountain, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if codi == "" {
		codi = uuid.NewString()
	}

	dto := CreateFountainDTO{
		Codi:         codi,
		Nom:          strings.TrimSpace(req.Nom),
		Carrer:       strings.TrimSpace(req.Carrer),
		NumeroCarrer: strings.TrimSpace(req.NumeroCarrer),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	resp, err := r.from(ctx, tableFountains).
		Select("codi,nom,carrer,numero_carrer,latitude,longitude,is_deleted").
		Single().
		ExecuteInsert(ctx, dto)
	if err != nil {
		return nil, classify(tableFountains, "create", codi, err)
	}

	var row FountainWithStatsDTO
	if err := resp.JSON(&row); err != nil {
		return nil, fmt.Errorf("%w: decode fountain: %v", ErrDatabaseError, err)
	}
	f := row.toDomain()
	return &f, nil
}

// SoftDeleteFountain flags a fountain as deleted. Rows are never removed so
// that their reviews survive.
func (r *Repository) SoftDeleteFountain(ctx context.Context, codi string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(codi) == "" {
		return invalidInput("codi", "cannot be empty")
	}

	resp, err := r.from(ctx, tableFountains).
		Select("codi").
		Eq("codi", codi).
		ExecuteUpdate(ctx, map[string]bool{"is_deleted": true})
	if err != nil {
		return classify(tableFountains, "delete", codi, err)
	}

	var rows []struct {
		Codi string `json:"codi"`
	}
	if err := resp.JSON(&rows); err != nil {
		return fmt.Errorf("%w: decode fountain: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return NewNotFoundError("fountain", codi)
	}
	return nil
}
