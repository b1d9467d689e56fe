// Package profile proxies public bio profiles from the upstream bio host.
// Pages embed their data as JSON in a __NEXT_DATA__ script tag; the client
// extracts that payload and maps it to a typed Profile, caching results
// in-process so repeated lookups don't hit the upstream.
package profile

import "errors"

var (
	// ErrInvalidUsername is returned when the input doesn't reduce to a valid username.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrProfileNotFound is returned when the upstream has no bio for the username.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUpstream is returned when the upstream request fails or returns garbage.
	ErrUpstream = errors.New("upstream request failed")
)

// Profile is the typed view of a public bio page.
type Profile struct {
	Username    string   `json:"username"`
	Name        string   `json:"name"`
	Views       int64    `json:"views"`
	Description string   `json:"description"`
	Title       string   `json:"title"`
	Ranks       []string `json:"ranks"`
	Presence    Presence `json:"presence"`
	Artwork     Artwork  `json:"artwork"`
	Socials     []Link   `json:"socials"`
	CustomLinks []Link   `json:"custom_links"`
	Songs       []Link   `json:"songs"`
	Theme       Theme    `json:"theme"`
	Features    Features `json:"features"`
}

// Presence mirrors the live presence block of a bio page.
type Presence struct {
	Status       string `json:"status"`
	CustomStatus string `json:"custom_status,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Tag          string `json:"tag,omitempty"`
}

// Artwork holds the profile imagery URLs.
type Artwork struct {
	AvatarURL      string `json:"avatar_url"`
	BannerURL      string `json:"banner_url"`
	BackgroundURL  string `json:"background_url"`
	BackgroundType string `json:"background_type"`
}

// Link is a named URL, used for socials, custom links and songs.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

// Theme carries the bio page color scheme and font.
type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	AccentColor     string `json:"accent_color"`
	TextColor       string `json:"text_color"`
	BackgroundColor string `json:"background_color"`
	IconColor       string `json:"icon_color"`
	Font            string `json:"font"`
}

// Features holds the page's toggleable display options.
type Features struct {
	AnimatedTitle   bool `json:"animated_title"`
	PresenceEnabled bool `json:"presence_enabled"`
	ShowViews       bool `json:"show_views"`
	ShowBadges      bool `json:"show_badges"`
	Typewriter      bool `json:"typewriter"`
	Glow            bool `json:"glow"`
}
