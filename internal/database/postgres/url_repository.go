package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keiranhall/keiran-live/internal/database"
	"github.com/keiranhall/keiran-live/internal/models"
)

type shortURLRecord struct {
	ID            int64        `db:"id"`
	Code          string       `db:"code"`
	OriginalURL   string       `db:"original_url"`
	Clicks        int64        `db:"clicks"`
	CreatedAt     time.Time    `db:"created_at"`
	ExpiresAt     sql.NullTime `db:"expires_at"`
	LastClickedAt sql.NullTime `db:"last_clicked_at"`
}

func (r *shortURLRecord) ToShortURL() *models.ShortURL {
	url := &models.ShortURL{
		ID:          r.ID,
		Code:        r.Code,
		OriginalURL: r.OriginalURL,
		Clicks:      r.Clicks,
		CreatedAt:   r.CreatedAt,
	}

	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		url.ExpiresAt = &t
	}
	if r.LastClickedAt.Valid {
		t := r.LastClickedAt.Time
		url.LastClickedAt = &t
	}

	return url
}

type dimensionRecord struct {
	Value string `db:"value"`
	Count int64  `db:"count"`
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

func (r *URLRepository) Create(ctx context.Context, code, originalURL string, expiresAt *time.Time) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(shortURLRecord)
	query := `INSERT INTO short_urls(code, original_url, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code, originalURL, expiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create short url record: %w", op, err)
	}

	return rec.ToShortURL(), nil
}

func (r *URLRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const op = "database.postgres.URLRepository.CodeExists"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM short_urls WHERE code = $1)`

	err := r.db.GetContext(ctx, &exists, query, code)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check short code existence: %w", op, err)
	}

	return exists, nil
}

func (r *URLRepository) GetByCode(ctx context.Context, code string) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.GetByCode"

	rec := new(shortURLRecord)
	query := `SELECT * FROM short_urls WHERE code = $1`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get short url record: %w", op, err)
	}

	return rec.ToShortURL(), nil
}

// RegisterClick atomically increments the click counter and stamps the last
// visit time. Concurrent redirects to the same code each take effect because
// the increment happens inside the UPDATE itself.
func (r *URLRepository) RegisterClick(ctx context.Context, code string) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.RegisterClick"

	rec := new(shortURLRecord)
	query := `UPDATE short_urls
		SET clicks = clicks + 1, last_clicked_at = now()
		WHERE code = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to register click: %w", op, err)
	}

	return rec.ToShortURL(), nil
}

// RecordVisit upserts the three click aggregates for a single visit in one
// transaction. Each dimension keeps at most one row per (short url, value)
// pair; ON CONFLICT increments the counter without lost updates.
func (r *URLRepository) RecordVisit(ctx context.Context, shortURLID int64, visit models.Visit) error {
	const op = "database.postgres.URLRepository.RecordVisit"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queries := []struct {
		query string
		value string
	}{
		{
			query: `INSERT INTO click_referrers(short_url_id, referrer, count)
				VALUES ($1, $2, 1)
				ON CONFLICT (short_url_id, referrer)
				DO UPDATE SET count = click_referrers.count + 1`,
			value: visit.Referrer,
		},
		{
			query: `INSERT INTO click_user_agents(short_url_id, user_agent, count)
				VALUES ($1, $2, 1)
				ON CONFLICT (short_url_id, user_agent)
				DO UPDATE SET count = click_user_agents.count + 1`,
			value: visit.UserAgent,
		},
		{
			query: `INSERT INTO click_locations(short_url_id, country, count)
				VALUES ($1, $2, 1)
				ON CONFLICT (short_url_id, country)
				DO UPDATE SET count = click_locations.count + 1`,
			value: visit.Country,
		},
	}

	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q.query, shortURLID, q.value); err != nil {
			return fmt.Errorf("%s: failed to upsert click aggregate: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func (r *URLRepository) TopReferrers(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	const op = "database.postgres.URLRepository.TopReferrers"

	query := `SELECT referrer AS value, count FROM click_referrers
		WHERE short_url_id = $1
		ORDER BY count DESC
		LIMIT $2`

	counts, err := r.topDimension(ctx, query, shortURLID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top referrers: %w", op, err)
	}

	return counts, nil
}

func (r *URLRepository) TopUserAgents(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	const op = "database.postgres.URLRepository.TopUserAgents"

	query := `SELECT user_agent AS value, count FROM click_user_agents
		WHERE short_url_id = $1
		ORDER BY count DESC
		LIMIT $2`

	counts, err := r.topDimension(ctx, query, shortURLID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top user agents: %w", op, err)
	}

	return counts, nil
}

func (r *URLRepository) TopLocations(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	const op = "database.postgres.URLRepository.TopLocations"

	query := `SELECT country AS value, count FROM click_locations
		WHERE short_url_id = $1
		ORDER BY count DESC
		LIMIT $2`

	counts, err := r.topDimension(ctx, query, shortURLID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top locations: %w", op, err)
	}

	return counts, nil
}

func (r *URLRepository) topDimension(ctx context.Context, query string, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	var recs []dimensionRecord

	if err := r.db.SelectContext(ctx, &recs, query, shortURLID, limit); err != nil {
		return nil, err
	}

	counts := make([]models.DimensionCount, 0, len(recs))
	for _, rec := range recs {
		counts = append(counts, models.DimensionCount{
			Value: rec.Value,
			Count: rec.Count,
		})
	}

	return counts, nil
}

// DeleteExpired removes short urls whose expiration has passed. Aggregate
// rows go with them via ON DELETE CASCADE.
func (r *URLRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const op = "database.postgres.URLRepository.DeleteExpired"

	query := `DELETE FROM short_urls
		WHERE expires_at IS NOT NULL AND expires_at < now()`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete expired urls: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return affected, nil
}
