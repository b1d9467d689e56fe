package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keiranhall/keiran-live/internal/models"
)

type rateLimitRecord struct {
	IP      string    `db:"ip"`
	Count   int64     `db:"count"`
	ResetAt time.Time `db:"reset_at"`
}

func (r *rateLimitRecord) ToRateLimit() *models.RateLimit {
	return &models.RateLimit{
		IP:      r.IP,
		Count:   r.Count,
		ResetAt: r.ResetAt,
	}
}

type RateLimitRepository struct {
	db *sqlx.DB
}

func NewRateLimitRepository(db *sqlx.DB) *RateLimitRepository {
	return &RateLimitRepository{
		db: db,
	}
}

// PurgeExpired removes rate limit rows whose window has already ended.
func (r *RateLimitRepository) PurgeExpired(ctx context.Context) error {
	const op = "database.postgres.RateLimitRepository.PurgeExpired"

	query := `DELETE FROM rate_limits WHERE reset_at < now()`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: failed to purge expired rate limits: %w", op, err)
	}

	return nil
}

// Touch creates the row for a first request in the window or atomically
// increments the existing counter, returning the state after this request.
func (r *RateLimitRepository) Touch(ctx context.Context, ip string, resetAt time.Time) (*models.RateLimit, error) {
	const op = "database.postgres.RateLimitRepository.Touch"

	rec := new(rateLimitRecord)
	query := `INSERT INTO rate_limits(ip, count, reset_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (ip)
		DO UPDATE SET count = rate_limits.count + 1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, ip, resetAt)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to touch rate limit: %w", op, err)
	}

	return rec.ToRateLimit(), nil
}
