package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/keiranhall/keiran-live/internal/database"
	"github.com/keiranhall/keiran-live/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// codeAlphabet is the 62-symbol alphabet short codes are drawn from.
const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// topDimensionLimit caps the aggregate rows returned per analytics dimension.
const topDimensionLimit = 10

var (
	// ErrInvalidURL is returned when the input is not a well-formed absolute http/https URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrGenerationExhausted is returned when no unique short code was found
	// within the attempt budget.
	ErrGenerationExhausted = errors.New("short code generation attempts exhausted")
	// ErrURLExpired is returned when a short code resolves to a URL whose
	// expiration timestamp has passed.
	ErrURLExpired = errors.New("url expired")
)

// URLRepository defines the interface for working with short URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL with an optional expiration.
	Create(ctx context.Context, code, originalURL string, expiresAt *time.Time) (*models.ShortURL, error)

	// CodeExists reports whether a short code is already taken.
	CodeExists(ctx context.Context, code string) (bool, error)

	// GetByCode retrieves a URL by its short code without mutating it.
	GetByCode(ctx context.Context, code string) (*models.ShortURL, error)

	// RegisterClick atomically increments the click counter and last-click
	// timestamp, returning the updated record.
	RegisterClick(ctx context.Context, code string) (*models.ShortURL, error)

	// RecordVisit upserts the referrer/user-agent/country aggregates for one visit.
	RecordVisit(ctx context.Context, shortURLID int64, visit models.Visit) error

	// TopReferrers returns the most frequent referrers for a URL, count descending.
	TopReferrers(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error)

	// TopUserAgents returns the most frequent user agents for a URL, count descending.
	TopUserAgents(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error)

	// TopLocations returns the most frequent visitor countries for a URL, count descending.
	TopLocations(ctx context.Context, shortURLID int64, limit int) ([]models.DimensionCount, error)

	// DeleteExpired removes URLs whose expiration has passed, returning how many.
	DeleteExpired(ctx context.Context) (int64, error)
}

// URLService provides the URL shortening, redirect and analytics operations.
type URLService struct {
	repo         URLRepository
	logger       *slog.Logger
	codeLength   int
	maxAttempts  int
	trackTimeout time.Duration
}

// NewURLService creates a URLService. The logger is used for background
// visit tracking, which runs detached from any request.
func NewURLService(repo URLRepository, logger *slog.Logger, codeLength, maxAttempts int, trackTimeout time.Duration) *URLService {
	return &URLService{
		repo:         repo,
		logger:       logger,
		codeLength:   codeLength,
		maxAttempts:  maxAttempts,
		trackTimeout: trackTimeout,
	}
}

// sanitizeURL validates and canonicalizes raw into an absolute http/https URL.
// Anything else, including scheme-relative, javascript: and file: inputs, is
// rejected with ErrInvalidURL. The result is stable under re-sanitizing.
func sanitizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}

	return u.String(), nil
}

// generateCode samples a random fixed-length code from the alphanumeric alphabet.
func (s *URLService) generateCode() (string, error) {
	return gonanoid.Generate(codeAlphabet, s.codeLength)
}

// Shorten validates the URL, finds a free short code within the attempt
// budget and persists the record. A zero expiresInDays means no expiration.
func (s *URLService) Shorten(ctx context.Context, rawURL string, expiresInDays int) (*models.ShortURL, error) {
	const op = "service.URLService.Shorten"

	sanitized, err := sanitizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var expiresAt *time.Time
	if expiresInDays > 0 {
		t := time.Now().AddDate(0, 0, expiresInDays)
		expiresAt = &t
	}

	for i := 0; i < s.maxAttempts; i++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
		if exists {
			continue
		}

		url, err := s.repo.Create(ctx, code, sanitized, expiresAt)
		if err != nil {
			// Lost the race to another request holding the same candidate.
			if errors.Is(err, database.ErrCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrGenerationExhausted)
}

// Resolve looks up a short code for redirecting. Expired URLs return
// ErrURLExpired without touching the click counter. On success the click
// counter is incremented atomically and the visit aggregates are recorded in
// the background; the caller never waits on them.
func (s *URLService) Resolve(ctx context.Context, code string, visit models.Visit) (*models.ShortURL, error) {
	const op = "service.URLService.Resolve"

	url, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if url.Expired(time.Now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLExpired)
	}

	url, err = s.repo.RegisterClick(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to register click: %w", op, err)
	}

	s.trackVisit(url.ID, visit)

	return url, nil
}

// trackVisit records the click aggregates without blocking the redirect.
// It runs on a detached context so it survives the request ending; failures
// are logged and swallowed.
func (s *URLService) trackVisit(shortURLID int64, visit models.Visit) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.trackTimeout)
		defer cancel()

		if err := s.repo.RecordVisit(ctx, shortURLID, visit); err != nil {
			s.logger.Error(
				"failed to record visit analytics",
				slog.Int64("short_url_id", shortURLID),
				slog.Any("err", err),
			)
		}
	}()
}

// Stats retrieves a URL together with its top aggregate rows per dimension.
// It is read-only and never changes the click counter.
func (s *URLService) Stats(ctx context.Context, code string) (*models.URLStats, error) {
	const op = "service.URLService.Stats"

	url, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	referrers, err := s.repo.TopReferrers(ctx, url.ID, topDimensionLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top referrers: %w", op, err)
	}

	userAgents, err := s.repo.TopUserAgents(ctx, url.ID, topDimensionLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top user agents: %w", op, err)
	}

	locations, err := s.repo.TopLocations(ctx, url.ID, topDimensionLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get top locations: %w", op, err)
	}

	return &models.URLStats{
		URL:           *url,
		TopReferrers:  referrers,
		TopUserAgents: userAgents,
		TopLocations:  locations,
	}, nil
}

// CleanupExpired deletes URLs whose expiration has passed.
func (s *URLService) CleanupExpired(ctx context.Context) (int64, error) {
	const op = "service.URLService.CleanupExpired"

	deleted, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to cleanup expired urls: %w", op, err)
	}

	return deleted, nil
}
