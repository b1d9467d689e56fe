package service

import (
	"context"
	"time"

	"github.com/keiranhall/keiran-live/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, code, originalURL string, expiresAt *time.Time) (*models.ShortURL, error) {
	args := r.Called(ctx, code, originalURL, expiresAt)
	url, _ := args.Get(0).(*models.ShortURL)
	return url, args.Error(1)
}

func (r *MockURLRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := r.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) GetByCode(ctx context.Context, code string) (*models.ShortURL, error) {
	args := r.Called(ctx, code)
	url, _ := args.Get(0).(*models.ShortURL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RegisterClick(ctx context.Context, code string) (*models.ShortURL, error) {
	args := r.Called(ctx, code)
	url, _ := args.Get(0).(*models.ShortURL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RecordVisit(ctx context.Context, shortURLID int64, visit models.Visit) error {
	args := r.Called(ctx, shortURLID, visit)
	return args.Error(0)
}

func (r *MockURLRepository) TopReferrers(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	args := r.Called(ctx, shortURLID, limit)
	counts, _ := args.Get(0).([]models.DimensionCount)
	return counts, args.Error(1)
}

func (r *MockURLRepository) TopUserAgents(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	args := r.Called(ctx, shortURLID, limit)
	counts, _ := args.Get(0).([]models.DimensionCount)
	return counts, args.Error(1)
}

func (r *MockURLRepository) TopLocations(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error) {
	args := r.Called(ctx, shortURLID, limit)
	counts, _ := args.Get(0).([]models.DimensionCount)
	return counts, args.Error(1)
}

func (r *MockURLRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := r.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockRateLimitRepository struct {
	mock.Mock
}

func (r *MockRateLimitRepository) PurgeExpired(ctx context.Context) error {
	args := r.Called(ctx)
	return args.Error(0)
}

func (r *MockRateLimitRepository) Touch(ctx context.Context, ip string, resetAt time.Time) (*models.RateLimit, error) {
	args := r.Called(ctx, ip, resetAt)
	rl, _ := args.Get(0).(*models.RateLimit)
	return rl, args.Error(1)
}
