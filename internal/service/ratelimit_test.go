package service

import (
	"context"
	"testing"
	"time"

	"github.com/keiranhall/keiran-live/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRateLimiter(t testing.TB, limit int64) (*RateLimiter, *MockRateLimitRepository) {
	t.Helper()

	repo := new(MockRateLimitRepository)
	limiter := NewRateLimiter(repo, limit)

	return limiter, repo
}

func TestWindowResetAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 34, 56, 0, time.UTC)

	got := windowResetAt(now)

	assert.Equal(t, time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), got)
}

func TestRateLimiter_Check(t *testing.T) {
	t.Run("purge fails", func(t *testing.T) {
		limiter, repo := setupRateLimiter(t, 50)

		repo.On("PurgeExpired", mock.Anything).
			Return(errUnknown).Once()

		decision, err := limiter.Check(context.TODO(), "203.0.113.7")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, decision)
		repo.AssertNotCalled(t, "Touch")
		repo.AssertExpectations(t)
	})

	t.Run("touch fails", func(t *testing.T) {
		limiter, repo := setupRateLimiter(t, 50)

		repo.On("PurgeExpired", mock.Anything).
			Return(nil).Once()
		repo.On("Touch", mock.Anything, "203.0.113.7", mock.AnythingOfType("time.Time")).
			Return(nil, errUnknown).Once()

		decision, err := limiter.Check(context.TODO(), "203.0.113.7")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, decision)
		repo.AssertExpectations(t)
	})

	t.Run("under threshold", func(t *testing.T) {
		limiter, repo := setupRateLimiter(t, 50)

		resetAt := windowResetAt(time.Now())
		repo.On("PurgeExpired", mock.Anything).
			Return(nil).Once()
		repo.On("Touch", mock.Anything, "203.0.113.7", mock.AnythingOfType("time.Time")).
			Return(&models.RateLimit{IP: "203.0.113.7", Count: 1, ResetAt: resetAt}, nil).Once()

		decision, err := limiter.Check(context.TODO(), "203.0.113.7")

		assert.NoError(t, err)
		assert.NotNil(t, decision)
		assert.True(t, decision.Allowed)
		assert.Equal(t, int64(49), decision.Remaining)
		assert.Equal(t, resetAt, decision.ResetAt)
		repo.AssertExpectations(t)
	})

	t.Run("at threshold still allowed", func(t *testing.T) {
		limiter, repo := setupRateLimiter(t, 50)

		repo.On("PurgeExpired", mock.Anything).
			Return(nil).Once()
		repo.On("Touch", mock.Anything, "203.0.113.7", mock.AnythingOfType("time.Time")).
			Return(&models.RateLimit{IP: "203.0.113.7", Count: 50}, nil).Once()

		decision, err := limiter.Check(context.TODO(), "203.0.113.7")

		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Zero(t, decision.Remaining)
		repo.AssertExpectations(t)
	})

	t.Run("over threshold rejected", func(t *testing.T) {
		limiter, repo := setupRateLimiter(t, 50)

		repo.On("PurgeExpired", mock.Anything).
			Return(nil).Once()
		repo.On("Touch", mock.Anything, "203.0.113.7", mock.AnythingOfType("time.Time")).
			Return(&models.RateLimit{IP: "203.0.113.7", Count: 51}, nil).Once()

		decision, err := limiter.Check(context.TODO(), "203.0.113.7")

		assert.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Zero(t, decision.Remaining)
		repo.AssertExpectations(t)
	})
}
