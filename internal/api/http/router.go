package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/keiranhall/keiran-live/internal/models"
	"github.com/keiranhall/keiran-live/internal/profile"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// Shorten creates a short code for the original URL, optionally expiring
	// after the given number of days (zero means never).
	Shorten(ctx context.Context, rawURL string, expiresInDays int) (*models.ShortURL, error)

	// Resolve retrieves the URL for a short code, registers the click and
	// dispatches visit analytics in the background.
	Resolve(ctx context.Context, code string, visit models.Visit) (*models.ShortURL, error)

	// Stats retrieves a URL with its top click aggregates, without mutating it.
	Stats(ctx context.Context, code string) (*models.URLStats, error)
}

// RateLimiter decides whether a client IP may issue another shorten request.
type RateLimiter interface {
	Check(ctx context.Context, ip string) (*models.RateLimitDecision, error)
}

// ProfileClient fetches bio profiles from the upstream host.
type ProfileClient interface {
	Fetch(ctx context.Context, username string) (*profile.Profile, bool, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, limiter RateLimiter, profiles ProfileClient, baseURL, bioHost string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/s/{code}", handleRedirect(urlSvc))

	r.Route("/api", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.With(rateLimit(limiter)).Post("/shorten", handleShortenURL(urlSvc, validate, baseURL))
		r.Get("/analytics/{code}", handleURLAnalytics(urlSvc))

		r.Get("/profile", handleLookupProfile(profiles, bioHost))
		r.Post("/profile", handleResolveProfile(profiles, bioHost))

		r.Get("/content/{page}", handleSiteContent)
	})

	return r
}
