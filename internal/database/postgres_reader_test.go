package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

func newMockReader(t *testing.T) (*PostgresReader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	reader := NewPostgresReader(sqlx.NewDb(db, "postgres"))
	t.Cleanup(func() { _ = reader.Close() })
	return reader, mock
}

func TestPostgresReaderListFountains(t *testing.T) {
	reader, mock := newMockReader(t)

	cols := []string{"codi", "nom", "carrer", "numero_carrer", "latitude", "longitude", "total_reviews", "average_rating", "is_deleted"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM fountain_stats_detailed")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f-1", "Font A", "Carrer A", "1", 41.1, 2.1, 3, 4.5, false).
			AddRow("f-2", "Font B", "Carrer B", "2", 41.2, 2.2, 0, 0.0, true))

	fountains, err := reader.ListFountainsWithStats(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, fountains, 1)
	assert.Equal(t, "f-1", fountains[0].Codi)
	assert.Equal(t, 4.5, fountains[0].AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReaderLeaderboard(t *testing.T) {
	reader, mock := newMockReader(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leaderboard")).
		WithArgs(DefaultLeaderboardLimit).
		WillReturnRows(sqlmock.NewRows([]string{"nickname", "total_ratings", "average_score", "rank"}).
			AddRow("aqua", 12, 4.2, 1).
			AddRow("splash", 8, 3.9, 2))

	entries, err := reader.GetLeaderboard(context.Background(), -5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "splash", entries[1].Nickname)
	assert.Equal(t, 2, entries[1].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReaderQueryError(t *testing.T) {
	reader, mock := newMockReader(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leaderboard")).WillReturnError(errors.New("connection reset"))

	_, err := reader.GetLeaderboard(context.Background(), 10)
	assert.True(t, svcerrors.IsCode(err, svcerrors.ErrCodeInternal))
	assert.ErrorIs(t, err, ErrDatabaseError)
}

func TestPostgresReaderCloseNil(t *testing.T) {
	var r *PostgresReader
	assert.NoError(t, r.Close())
}
