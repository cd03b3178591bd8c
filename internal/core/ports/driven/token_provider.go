package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle token refresh transparently: callers always
// receive a token with enough remaining lifetime for the request.
type TokenProvider interface {
	// Token returns a valid access token, refreshing first if the
	// current one is missing or inside the expiry margin.
	Token(ctx context.Context) (string, error)
}
