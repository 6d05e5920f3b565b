package strava

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingCredentials = errors.New("missing Strava API credentials: set STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET")
	ErrNoStoredToken      = errors.New("no stored Strava token, run `runlog auth login` first")
	ErrTokenRefresh       = errors.New("refresh Strava access token")
	ErrDailyRateLimit     = errors.New("daily rate limit of 1000 requests exceeded")
)

// RateLimitError is returned when the API answers 429 again after the retry.
type RateLimitError struct {
	Endpoint   string
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	message := fmt.Sprintf("rate limited on %s, retry after %s", e.Endpoint, e.RetryAfter)
	if e.Body != "" {
		message += ": " + e.Body
	}
	return message
}
