package models

import "time"

// RateLimit is the per-IP request counter for the current hourly window.
type RateLimit struct {
	IP      string
	Count   int64
	ResetAt time.Time
}

// RateLimitDecision is the outcome of a rate limit check for a single request.
type RateLimitDecision struct {
	// Allowed reports whether the request is within the window threshold.
	Allowed bool
	// Remaining is the number of requests left in the window, never negative.
	Remaining int64
	// ResetAt is when the current window ends and the counter resets.
	ResetAt time.Time
}
