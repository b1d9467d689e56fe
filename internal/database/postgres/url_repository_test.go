package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/keiranhall/keiran-live/internal/database"
	"github.com/keiranhall/keiran-live/internal/models"
	"github.com/stretchr/testify/assert"
)

var errUnknown = errors.New("unknown error")

var shortURLColumns = []string{"id", "code", "original_url", "clicks", "created_at", "expires_at", "last_clicked_at"}

func setupURLRepository(t testing.TB) (*URLRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewURLRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestURLRepository_Create(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", nil).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := repo.Create(context.TODO(), "abc123", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrCodeExists)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", nil).
			WillReturnError(errUnknown)

		url, err := repo.Create(context.TODO(), "abc123", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(shortURLColumns).
			AddRow(1, "abc123", "https://example.com", 0, time.Time{}, nil, nil)

		mock.ExpectQuery(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", nil).
			WillReturnRows(rows)

		wantURL := models.ShortURL{
			ID:          1,
			Code:        "abc123",
			OriginalURL: "https://example.com",
		}

		url, err := repo.Create(context.TODO(), "abc123", "https://example.com", nil)

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, wantURL, *url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with expiration", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		expiresAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(shortURLColumns).
			AddRow(1, "abc123", "https://example.com", 0, time.Time{}, expiresAt, nil)

		mock.ExpectQuery(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", &expiresAt).
			WillReturnRows(rows)

		url, err := repo.Create(context.TODO(), "abc123", "https://example.com", &expiresAt)

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.NotNil(t, url.ExpiresAt)
		assert.Equal(t, expiresAt, *url.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_CodeExists(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abc123").
			WillReturnError(errUnknown)

		exists, err := repo.CodeExists(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exists", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abc123").
			WillReturnRows(rows)

		exists, err := repo.CodeExists(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_GetByCode(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM short_urls`).
			WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(shortURLColumns))

		url, err := repo.GetByCode(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(shortURLColumns).
			AddRow(1, "abc123", "https://example.com", 3, time.Time{}, nil, nil)

		mock.ExpectQuery(`SELECT \* FROM short_urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := repo.GetByCode(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(3), url.Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_RegisterClick(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`UPDATE short_urls`).
			WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(shortURLColumns))

		url, err := repo.RegisterClick(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		clickedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(shortURLColumns).
			AddRow(1, "abc123", "https://example.com", 1, time.Time{}, nil, clickedAt)

		mock.ExpectQuery(`UPDATE short_urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := repo.RegisterClick(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(1), url.Clicks)
		assert.NotNil(t, url.LastClickedAt)
		assert.Equal(t, clickedAt, *url.LastClickedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_RecordVisit(t *testing.T) {
	visit := models.Visit{
		Referrer:  "https://news.ycombinator.com",
		UserAgent: "Mozilla/5.0",
		Country:   "GB",
	}

	t.Run("upsert fails", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO click_referrers`).
			WithArgs(int64(1), visit.Referrer).
			WillReturnError(errUnknown)
		mock.ExpectRollback()

		err := repo.RecordVisit(context.TODO(), 1, visit)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO click_referrers`).
			WithArgs(int64(1), visit.Referrer).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO click_user_agents`).
			WithArgs(int64(1), visit.UserAgent).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO click_locations`).
			WithArgs(int64(1), visit.Country).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.RecordVisit(context.TODO(), 1, visit)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_TopReferrers(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT referrer AS value, count FROM click_referrers`).
			WithArgs(int64(1), 10).
			WillReturnError(errUnknown)

		counts, err := repo.TopReferrers(context.TODO(), 1, 10)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT referrer AS value, count FROM click_referrers`).
			WithArgs(int64(1), 10).
			WillReturnRows(sqlmock.NewRows([]string{"value", "count"}))

		counts, err := repo.TopReferrers(context.TODO(), 1, 10)

		assert.NoError(t, err)
		assert.Empty(t, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows([]string{"value", "count"}).
			AddRow("https://news.ycombinator.com", 42).
			AddRow("direct", 7)

		mock.ExpectQuery(`SELECT referrer AS value, count FROM click_referrers`).
			WithArgs(int64(1), 10).
			WillReturnRows(rows)

		counts, err := repo.TopReferrers(context.TODO(), 1, 10)

		assert.NoError(t, err)
		assert.Equal(t, []models.DimensionCount{
			{Value: "https://news.ycombinator.com", Count: 42},
			{Value: "direct", Count: 7},
		}, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_DeleteExpired(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`DELETE FROM short_urls`).
			WillReturnError(errUnknown)

		deleted, err := repo.DeleteExpired(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`DELETE FROM short_urls`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		deleted, err := repo.DeleteExpired(context.TODO())

		assert.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
