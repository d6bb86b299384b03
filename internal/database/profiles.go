package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
)

const profileColumns = "id,nickname,total_ratings,average_score,best_fountain_id,role"

// GetProfile returns the profile of a user.
func (r *Repository) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, invalidInput("id", "cannot be empty")
	}

	var row ProfileDTO
	err := r.from(ctx, tableProfiles).
		Select(profileColumns).
		Eq("id", id).
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return nil, classify(tableProfiles, "get", id, err)
	}
	user := row.toDomain()
	return &user, nil
}

// FindProfileByNickname returns nil, nil when no profile uses nickname.
func (r *Repository) FindProfileByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(nickname) == "" {
		return nil, invalidInput("nickname", "cannot be empty")
	}

	var rows []ProfileDTO
	err := r.from(ctx, tableProfiles).
		Select(profileColumns).
		Eq("nickname", nickname).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, classify(tableProfiles, "find", nickname, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	user := rows[0].toDomain()
	return &user, nil
}

// CreateProfile inserts a profile row for an auth user.
func (r *Repository) CreateProfile(ctx context.Context, id, nickname string) (*domain.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidInput("id", "cannot be empty")
	}
	if nickname == "" {
		return nil, invalidInput("nickname", "cannot be empty")
	}

	resp, err := r.from(ctx, tableProfiles).
		Select(profileColumns).
		Single().
		ExecuteInsert(ctx, CreateProfileDTO{ID: id, Nickname: nickname})
	if err != nil {
		return nil, classify(tableProfiles, "create", id, err)
	}

	var row ProfileDTO
	if err := resp.JSON(&row); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrDatabaseError, err)
	}
	user := row.toDomain()
	return &user, nil
}

// UpdateNickname changes the nickname of a profile.
func (r *Repository) UpdateNickname(ctx context.Context, id, nickname string) (*domain.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidInput("id", "cannot be empty")
	}

	resp, err := r.from(ctx, tableProfiles).
		Select(profileColumns).
		Eq("id", id).
		ExecuteUpdate(ctx, map[string]string{"nickname": nickname})
	if err != nil {
		return nil, classify(tableProfiles, "update", id, err)
	}

	var rows []ProfileDTO
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("profile", id)
	}
	user := rows[0].toDomain()
	return &user, nil
}
