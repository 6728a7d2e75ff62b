package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var connectorCols = []string{
	"id", "brand_id", "platform", "account_name", "access_token", "refresh_token", "token_expires_at",
	"rate_limits", "posts_this_hour", "hour_window_start", "posts_today", "day_window_start",
	"last_posted_at", "platform_settings", "created_at", "updated_at",
}

func newConnectorMock(t *testing.T) (ConnectorRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConnectorRepository(db), mock
}

func TestConnectorGetByIDUnmarshalsJSON(t *testing.T) {
	repo, mock := newConnectorMock(t)

	now := time.Now()
	rows := sqlmock.NewRows(connectorCols).AddRow(
		5, 1, "twitter", "@acme", "enc-access", "enc-refresh", now.Add(time.Hour),
		[]byte(`{"posts_per_hour":5,"posts_per_day":20}`), 2, now, 7, now,
		now, []byte(`{"page_id":"12345"}`), now, now,
	)

	mock.ExpectQuery("SELECT .+ FROM social_connectors WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	sc, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, 5, sc.RateLimits.PostsPerHour)
	assert.Equal(t, 20, sc.RateLimits.PostsPerDay)
	assert.Equal(t, "12345", sc.PlatformSettings.PageID)
	assert.Equal(t, 2, sc.PostsThisHour)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectorGetByIDNotFound(t *testing.T) {
	repo, mock := newConnectorMock(t)

	mock.ExpectQuery("SELECT .+ FROM social_connectors WHERE id = \\$1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(connectorCols))

	sc, err := repo.GetByID(context.Background(), 9)
	assert.NoError(t, err)
	assert.Nil(t, sc)
}

func TestConnectorSetTokenCommits(t *testing.T) {
	repo, mock := newConnectorMock(t)

	expiresAt := time.Now().Add(time.Hour)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE social_connectors")).
		WithArgs(int64(5), "new-access", "new-refresh", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetToken(context.Background(), 5, "new-access", "new-refresh", expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectorSetTokenMissingRowRollsBack(t *testing.T) {
	repo, mock := newConnectorMock(t)

	expiresAt := time.Now().Add(time.Hour)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE social_connectors")).
		WithArgs(int64(99), "a", "r", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetToken(context.Background(), 99, "a", "r", expiresAt)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectorUpdateRateCounters(t *testing.T) {
	repo, mock := newConnectorMock(t)

	hourStart := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE social_connectors")).
		WithArgs(int64(5), 3, hourStart, 8, dayStart).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRateCounters(context.Background(), 5, 3, hourStart, 8, dayStart)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
