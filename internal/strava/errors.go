package strava

import (
	"errors"
	"fmt"
	"net/http"
)

// Fixed user-facing messages for upstream failures. The underlying HTTP
// detail is logged by the client, not surfaced to callers.
var (
	ErrExchangeToken        = errors.New("Failed to exchange token with Strava")
	ErrRefreshToken         = errors.New("Failed to refresh token with Strava")
	ErrFetchActivity        = errors.New("Failed to fetch activity from Strava")
	ErrUpdateActivityTitle  = errors.New("Failed to update activity title on Strava")
	ErrFetchAthleteActivity = errors.New("Failed to fetch athlete activities from Strava")
	ErrFetchAthlete         = errors.New("Failed to fetch athlete data from Strava")
)

// HTTPError carries the status and body of a failed Strava API response
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("strava api error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a Strava 404 response
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a Strava 401 response
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsTooManyRequests reports whether err is a Strava 429 response
func IsTooManyRequests(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}
