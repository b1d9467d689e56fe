package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

const nextDataMarker = `<script id="__NEXT_DATA__" type="application/json">`

var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ExtractUsername reduces user input to a bare username. It accepts a plain
// username, an @-prefixed one, or a full bio page URL on the given host.
func ExtractUsername(input, host string) (string, error) {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "https://"+host+"/") {
		input = strings.TrimPrefix(input, "https://"+host+"/")
		if i := strings.IndexByte(input, '/'); i >= 0 {
			input = input[:i]
		}
	}
	input = strings.TrimPrefix(input, "@")

	if !usernameRegexp.MatchString(input) {
		return "", ErrInvalidUsername
	}

	return input, nil
}

// nextData is the slice of the embedded page payload the client cares about.
type nextData struct {
	Props struct {
		PageProps struct {
			Bio *bioPayload `json:"bio"`
		} `json:"pageProps"`
	} `json:"props"`
}

type bioPayload struct {
	Name        string   `json:"name"`
	Views       int64    `json:"views"`
	Description string   `json:"description"`
	Title       string   `json:"title"`
	Ranks       []string `json:"ranks"`
	BioPresence struct {
		Status       string `json:"status"`
		CustomStatus string `json:"customStatus"`
		Platform     string `json:"platform"`
		Tag          string `json:"tag"`
	} `json:"bio_presence"`
	Pfp struct {
		URL string `json:"url"`
	} `json:"pfp"`
	Banner struct {
		URL string `json:"url"`
	} `json:"banner"`
	Background struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"background"`
	Socials []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"socials"`
	CustomLinks []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
		Icon string `json:"icon"`
	} `json:"customLinks"`
	Songs []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"songs"`
	PrimaryColor    string `json:"primarycolor"`
	SecondaryColor  string `json:"secondarycolor"`
	AccentColor     string `json:"accentcolor"`
	TextColor       string `json:"textcolor"`
	BackgroundColor string `json:"backgroundcolor"`
	IconColor       string `json:"iconcolor"`
	Font            string `json:"font"`
	AnimatedTitle   bool   `json:"animatedTitle"`
	Presence        bool   `json:"presence"`
	ShowViews       bool   `json:"showViews"`
	ShowBadges      bool   `json:"showBadges"`
	Typewriter      bool   `json:"typewriter"`
	Glow            bool   `json:"glow"`
}

func (b *bioPayload) toProfile(username string) *Profile {
	p := &Profile{
		Username:    username,
		Name:        b.Name,
		Views:       b.Views,
		Description: b.Description,
		Title:       b.Title,
		Ranks:       b.Ranks,
		Presence: Presence{
			Status:       b.BioPresence.Status,
			CustomStatus: b.BioPresence.CustomStatus,
			Platform:     b.BioPresence.Platform,
			Tag:          b.BioPresence.Tag,
		},
		Artwork: Artwork{
			AvatarURL:      b.Pfp.URL,
			BannerURL:      b.Banner.URL,
			BackgroundURL:  b.Background.URL,
			BackgroundType: b.Background.Type,
		},
		Theme: Theme{
			PrimaryColor:    b.PrimaryColor,
			SecondaryColor:  b.SecondaryColor,
			AccentColor:     b.AccentColor,
			TextColor:       b.TextColor,
			BackgroundColor: b.BackgroundColor,
			IconColor:       b.IconColor,
			Font:            b.Font,
		},
		Features: Features{
			AnimatedTitle:   b.AnimatedTitle,
			PresenceEnabled: b.Presence,
			ShowViews:       b.ShowViews,
			ShowBadges:      b.ShowBadges,
			Typewriter:      b.Typewriter,
			Glow:            b.Glow,
		},
	}

	if p.Name == "" {
		p.Name = username
	}
	for _, s := range b.Socials {
		p.Socials = append(p.Socials, Link{Name: s.Name, URL: s.URL})
	}
	for _, l := range b.CustomLinks {
		p.CustomLinks = append(p.CustomLinks, Link{Name: l.Name, URL: l.URL, Icon: l.Icon})
	}
	for _, s := range b.Songs {
		p.Songs = append(p.Songs, Link{Name: s.Name, URL: s.URL})
	}

	return p
}

// Client fetches bio profiles from the upstream host, caching successful
// lookups in-process for the configured TTL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *ristretto.Cache
	ttl        time.Duration
}

// NewClient creates a profile Client. maxEntries bounds the cache; once full,
// further admissions evict existing entries.
func NewClient(baseURL string, timeout, ttl time.Duration, maxEntries int64) (*Client, error) {
	const op = "profile.NewClient"

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to initialize cache: %w", op, err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      cache,
		ttl:        ttl,
	}, nil
}

// Close releases the cache resources.
func (c *Client) Close() {
	c.cache.Close()
}

// Fetch returns the profile for username, reporting whether it was served
// from cache. Only successful lookups are cached.
func (c *Client) Fetch(ctx context.Context, username string) (*Profile, bool, error) {
	const op = "profile.Client.Fetch"

	if v, ok := c.cache.Get(username); ok {
		if p, ok := v.(*Profile); ok {
			return p, true, nil
		}
	}

	p, err := c.fetchUpstream(ctx, username)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.SetWithTTL(username, p, 1, c.ttl)

	return p, false, nil
}

func (c *Client) fetchUpstream(ctx context.Context, username string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+username, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrUpstream, err)
	}

	payload, err := extractNextData(string(body))
	if err != nil {
		return nil, err
	}

	var data nextData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page payload: %w", ErrUpstream, err)
	}

	bio := data.Props.PageProps.Bio
	if bio == nil {
		return nil, ErrProfileNotFound
	}

	return bio.toProfile(username), nil
}

// extractNextData pulls the JSON payload out of the page's __NEXT_DATA__
// script tag. A page without one has no bio behind it.
func extractNextData(page string) (string, error) {
	start := strings.Index(page, nextDataMarker)
	if start < 0 {
		return "", ErrProfileNotFound
	}
	start += len(nextDataMarker)

	end := strings.Index(page[start:], "</script>")
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated page payload", ErrUpstream)
	}

	return page[start : start+end], nil
}
