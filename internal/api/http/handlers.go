package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/keiranhall/keiran-live/internal/content"
	"github.com/keiranhall/keiran-live/internal/database"
	"github.com/keiranhall/keiran-live/internal/models"
	"github.com/keiranhall/keiran-live/internal/profile"
	"github.com/keiranhall/keiran-live/internal/service"
	"github.com/keiranhall/keiran-live/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenRequest represents the request payload for creating a shortened URL.
type shortenRequest struct {
	URL           string `json:"url" validate:"required"`
	ExpiresInDays int    `json:"expires_in_days" validate:"omitempty,min=1,max=365"`
}

// shortenResponse represents the response payload for a successful shorten.
type shortenResponse struct {
	ShortURL  string     `json:"short_url"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The URL itself is validated by the service's sanitizer, which is stricter
// than a format check: only absolute http/https URLs pass.
func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.Shorten(r.Context(), req.URL, req.ExpiresInDays)
		if err != nil {
			if errors.Is(err, service.ErrInvalidURL) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := shortenResponse{
			ShortURL:  fmt.Sprintf("%s/s/%s", baseURL, url.Code),
			Code:      url.Code,
			ExpiresAt: url.ExpiresAt,
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleRedirect handles GET requests on short links.
//
// Expired links answer 410 Gone without counting the visit. On success the
// visit is counted and the client is redirected with 307, never waiting on
// the analytics write.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		url, err := svc.Resolve(r.Context(), code, visitFromRequest(r))
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrURLExpired):
				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.URLExpiredResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusTemporaryRedirect)
	}
}

// visitFromRequest derives the analytics dimensions from request headers,
// falling back to "direct"/"unknown" when a header is absent.
func visitFromRequest(r *http.Request) models.Visit {
	visit := models.Visit{
		Referrer:  r.Referer(),
		UserAgent: r.UserAgent(),
		Country:   r.Header.Get("X-Country-Code"),
	}

	if visit.Referrer == "" {
		visit.Referrer = "direct"
	}
	if visit.UserAgent == "" {
		visit.UserAgent = "unknown"
	}
	if visit.Country == "" {
		visit.Country = r.Header.Get("CF-IPCountry")
	}
	if visit.Country == "" {
		visit.Country = "unknown"
	}

	return visit
}

type referrerStat struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

type userAgentStat struct {
	UserAgent string `json:"user_agent"`
	Count     int64  `json:"count"`
}

type locationStat struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// analyticsResponse represents the payload returned for a URL's statistics.
type analyticsResponse struct {
	URL           string          `json:"url"`
	Code          string          `json:"code"`
	TotalClicks   int64           `json:"total_clicks"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	LastClickedAt *time.Time      `json:"last_clicked_at,omitempty"`
	TopReferrers  []referrerStat  `json:"top_referrers"`
	TopUserAgents []userAgentStat `json:"top_user_agents"`
	TopLocations  []locationStat  `json:"top_locations"`
}

func toAnalyticsResponse(stats *models.URLStats) analyticsResponse {
	resp := analyticsResponse{
		URL:           stats.URL.OriginalURL,
		Code:          stats.URL.Code,
		TotalClicks:   stats.URL.Clicks,
		CreatedAt:     stats.URL.CreatedAt,
		ExpiresAt:     stats.URL.ExpiresAt,
		LastClickedAt: stats.URL.LastClickedAt,
		TopReferrers:  make([]referrerStat, 0, len(stats.TopReferrers)),
		TopUserAgents: make([]userAgentStat, 0, len(stats.TopUserAgents)),
		TopLocations:  make([]locationStat, 0, len(stats.TopLocations)),
	}

	for _, dc := range stats.TopReferrers {
		resp.TopReferrers = append(resp.TopReferrers, referrerStat{Referrer: dc.Value, Count: dc.Count})
	}
	for _, dc := range stats.TopUserAgents {
		resp.TopUserAgents = append(resp.TopUserAgents, userAgentStat{UserAgent: dc.Value, Count: dc.Count})
	}
	for _, dc := range stats.TopLocations {
		resp.TopLocations = append(resp.TopLocations, locationStat{Country: dc.Value, Count: dc.Count})
	}

	return resp
}

// handleURLAnalytics handles GET requests for a short link's click statistics.
func handleURLAnalytics(svc URLService) http.HandlerFunc {
	const op = "api.http.handleURLAnalytics"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		stats, err := svc.Stats(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toAnalyticsResponse(stats)))
	}
}

// profileRequest represents the POST payload for a profile lookup. The input
// may be a username, an @-handle or a full bio page URL.
type profileRequest struct {
	Input string `json:"input"`
}

// handleLookupProfile handles GET requests proxying a bio profile by username.
func handleLookupProfile(profiles ProfileClient, bioHost string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		respondProfile(w, r, profiles, bioHost, username)
	}
}

// handleResolveProfile handles POST requests proxying a bio profile from
// free-form input.
func handleResolveProfile(profiles ProfileClient, bioHost string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if req.Input == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		respondProfile(w, r, profiles, bioHost, req.Input)
	}
}

func respondProfile(w http.ResponseWriter, r *http.Request, profiles ProfileClient, bioHost, input string) {
	const op = "api.http.respondProfile"
	const successMsg = "The profile retrieved successfully."

	username, err := profile.ExtractUsername(input, bioHost)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.BadRequestResponse)
		return
	}

	p, cached, err := profiles.Fetch(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrProfileNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
		case errors.Is(err, profile.ErrUpstream):
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.BadGatewayResponse)
		default:
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
		}
		return
	}

	if cached {
		w.Header().Set("X-Cache-Status", "HIT")
	} else {
		w.Header().Set("X-Cache-Status", "MISS")
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(successMsg, p))
}

// handleSiteContent serves the static data behind the site's pages.
func handleSiteContent(w http.ResponseWriter, r *http.Request) {
	const successMsg = "The page content retrieved successfully."

	page, ok := content.Page(chi.URLParam(r, "page"))
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(successMsg, page))
}
