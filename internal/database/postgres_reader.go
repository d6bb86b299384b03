package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

// PostgresReader serves the public aggregate views straight from Postgres.
// Both views are readable by anon under RLS, so bypassing PostgREST does
// not widen what callers can see.
type PostgresReader struct {
	db *sqlx.DB
}

// NewPostgresReader wraps an open connection.
func NewPostgresReader(db *sqlx.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

// OpenPostgresReader connects with lib/pq and verifies the connection.
func OpenPostgresReader(ctx context.Context, dsn string) (*PostgresReader, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresReader{db: db}, nil
}

const (
	selectFountainsWithStats = `SELECT codi, nom, carrer, numero_carrer, latitude, longitude,
	total_reviews, average_rating, is_deleted
FROM fountain_stats_detailed
ORDER BY codi`

	selectLeaderboard = `SELECT nickname, total_ratings, average_score, rank
FROM leaderboard
ORDER BY rank
LIMIT $1`
)

// ListFountainsWithStats mirrors Repository.ListFountainsWithStats.
func (p *PostgresReader) ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error) {
	var rows []FountainWithStatsDTO
	if err := p.db.SelectContext(ctx, &rows, selectFountainsWithStats); err != nil {
		return nil, svcerrors.Internal("Unexpected database error", fmt.Errorf("%w: list fountains: %v", ErrDatabaseError, err))
	}
	fountains := fountainsToDomain(rows)
	if includeDeleted {
		return fountains, nil
	}
	return domain.ActiveFountains(fountains), nil
}

// GetLeaderboard mirrors Repository.GetLeaderboard.
func (p *PostgresReader) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	var rows []LeaderboardDTO
	if err := p.db.SelectContext(ctx, &rows, selectLeaderboard, limit); err != nil {
		return nil, svcerrors.Internal("Unexpected database error", fmt.Errorf("%w: leaderboard: %v", ErrDatabaseError, err))
	}
	return leaderboardToDomain(rows), nil
}

// Close releases the connection pool.
func (p *PostgresReader) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
