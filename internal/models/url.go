package models

import "time"

// ShortURL represents a shortened URL and its associated metadata.
type ShortURL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// Code is the short code associated with the original URL.
	Code string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// Clicks tracks the number of times the shortened URL has been visited.
	Clicks int64
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// ExpiresAt, when set, is the timestamp after which the short code stops resolving.
	ExpiresAt *time.Time
	// LastClickedAt, when set, is the timestamp of the most recent visit.
	LastClickedAt *time.Time
}

// Expired reports whether the URL has an expiration timestamp in the past.
func (u *ShortURL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}

// Visit captures the request attributes recorded for a single redirect.
type Visit struct {
	Referrer  string
	UserAgent string
	Country   string
}

// DimensionCount is a single row of a per-URL click aggregate,
// e.g. ("https://news.ycombinator.com", 42) for the referrer dimension.
type DimensionCount struct {
	Value string
	Count int64
}

// URLStats bundles a shortened URL with its top click aggregates.
type URLStats struct {
	URL           ShortURL
	TopReferrers  []DimensionCount
	TopUserAgents []DimensionCount
	TopLocations  []DimensionCount
}
