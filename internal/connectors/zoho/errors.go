package zoho

import (
	"errors"
	"fmt"
)

// AuthError indicates a token refresh against the Zoho accounts service
// failed. Fatal for the current record; the whole run may be retried.
type AuthError struct {
	// Body is the raw response body from the token endpoint.
	Body string
	// Err is the underlying transport or status error.
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zoho: OAuth token refresh failed, response was %q: %v", e.Body, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates no remote entity cleared the fuzzy-match
// cutoff for a free-text name. Fatal for the specific record only.
type NotFoundError struct {
	// Kind is the entity kind searched, e.g. "vendor" or "item".
	Kind string
	// Query is the free-text name that failed to resolve.
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("zoho: no matches found for %s %q", e.Kind, e.Query)
}

// APIError represents a non-2xx response from a Zoho Inventory data
// call. No retry happens at this layer; the error propagates to the
// dispatching pipeline.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoho: API error %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// IsAuthError checks if the error indicates a failed token refresh.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound checks if the error indicates a failed entity resolution.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsRateLimited checks if the error indicates the remote API rejected a
// data call with 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsUnauthorized checks if the error indicates a data call was rejected
// for authentication reasons.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}
