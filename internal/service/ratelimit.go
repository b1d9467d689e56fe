package service

import (
	"context"
	"fmt"
	"time"

	"github.com/keiranhall/keiran-live/internal/models"
)

// RateLimitRepository defines the interface for the per-IP request counters.
type RateLimitRepository interface {
	// PurgeExpired removes counters whose window has already ended.
	PurgeExpired(ctx context.Context) error

	// Touch creates or increments the counter for an IP, returning the state
	// after this request.
	Touch(ctx context.Context, ip string, resetAt time.Time) (*models.RateLimit, error)
}

// RateLimiter bounds shorten requests to a fixed number per IP per hourly
// window. The counters live in the database, so the limit holds across
// process restarts and replicas.
type RateLimiter struct {
	repo  RateLimitRepository
	limit int64
}

// NewRateLimiter creates a RateLimiter allowing limit requests per hour per IP.
func NewRateLimiter(repo RateLimitRepository, limit int64) *RateLimiter {
	return &RateLimiter{
		repo:  repo,
		limit: limit,
	}
}

// windowResetAt returns the top of the next hour, when the current window ends.
func windowResetAt(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// Check registers a request from ip and reports whether it is within the
// hourly threshold. Stale windows are purged on every check.
func (l *RateLimiter) Check(ctx context.Context, ip string) (*models.RateLimitDecision, error) {
	const op = "service.RateLimiter.Check"

	if err := l.repo.PurgeExpired(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to purge expired windows: %w", op, err)
	}

	rl, err := l.repo.Touch(ctx, ip, windowResetAt(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count request: %w", op, err)
	}

	remaining := l.limit - rl.Count
	if remaining < 0 {
		remaining = 0
	}

	return &models.RateLimitDecision{
		Allowed:   rl.Count <= l.limit,
		Remaining: remaining,
		ResetAt:   rl.ResetAt,
	}, nil
}
