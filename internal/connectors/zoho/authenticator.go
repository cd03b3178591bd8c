package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
	"github.com/custodia-labs/zoho-inventory-sink/internal/core/ports/driven"
	"github.com/custodia-labs/zoho-inventory-sink/internal/logger"
)

// OAuth scopes for the refresh-token exchange.
const (
	// ScopeFullAccess grants full access to the inventory domain.
	ScopeFullAccess = "ZohoInventory.fullaccess.all"

	// ScopeMinimal grants only the permissions the sink actually
	// exercises: purchase-order writes plus contact and item reads.
	ScopeMinimal = "ZohoInventory.purchaseorders.CREATE," +
		"ZohoInventory.purchaseorders.UPDATE," +
		"ZohoInventory.contacts.READ," +
		"ZohoInventory.items.READ"
)

// benignRateLimitMessage is the provider's way of saying the current
// token is still good and a refresh was unnecessary. It is not an
// error: the stored token stays in use and state is left untouched.
const benignRateLimitMessage = "Rate limit exceeded: access_token not expired"

// DefaultAuthTimeout bounds a single token refresh request.
const DefaultAuthTimeout = 30 * time.Second

// Authenticator owns the access-token lifecycle: it validates the
// stored token against the expiry margin and performs the
// refresh-token exchange when needed, persisting the rotated state
// before handing the token out.
type Authenticator struct {
	store      driven.CredentialStore
	state      *domain.RunState
	httpClient *http.Client
	scope      string
	now        func() time.Time
}

// AuthenticatorOption customizes an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithScope overrides the OAuth scope requested on refresh.
func WithScope(scope string) AuthenticatorOption {
	return func(a *Authenticator) { a.scope = scope }
}

// WithAuthHTTPClient overrides the HTTP client used for the token
// endpoint. Useful for testing.
func WithAuthHTTPClient(c *http.Client) AuthenticatorOption {
	return func(a *Authenticator) { a.httpClient = c }
}

// WithClock overrides the time source. Useful for testing expiry math.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator creates an authenticator over the given credential
// store, reporting refresh failures into the run state.
func NewAuthenticator(store driven.CredentialStore, state *domain.RunState, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:      store,
		state:      state,
		httpClient: &http.Client{Timeout: DefaultAuthTimeout},
		scope:      ScopeFullAccess,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ensure Authenticator implements the port.
var _ driven.TokenProvider = (*Authenticator)(nil)

// Token returns a valid access token. If the stored token is missing,
// has no known expiry, or is within the expiry margin, a refresh is
// performed and the rotated credential state is persisted first.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	creds := a.store.Credentials()
	if creds.TokenValidAt(a.now()) {
		return creds.AccessToken, nil
	}
	return a.refresh(ctx, creds)
}

// tokenResponse is the token endpoint's JSON response shape.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	ErrorDescription string `json:"error_description"`
}

// refresh performs the refresh-token exchange and persists the new
// token state. On the provider's benign rate-limit response the current
// token is returned unchanged.
func (a *Authenticator) refresh(ctx context.Context, creds domain.Credentials) (string, error) {
	endpoint := TokenEndpoint(creds)
	logger.Debug("refreshing access token against %s", endpoint)

	form := url.Values{}
	form.Set("resource", endpoint)
	form.Set("scope", a.scope)
	form.Set("redirect_uri", creds.RedirectURI)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("refresh_token", creds.RefreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("prompt", "consent")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("token request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("read token response: %w", err)}
	}

	var token tokenResponse
	decodeErr := json.Unmarshal(body, &token)

	// The provider reports an unnecessary refresh as an error-shaped
	// body; the unexpired token we already hold stays in use.
	if decodeErr == nil && token.ErrorDescription == benignRateLimitMessage {
		logger.Debug("token refresh skipped: provider reports access token not expired")
		return creds.AccessToken, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.state.SetAuthErrorResponse(string(body))
		return "", &AuthError{
			Body: string(body),
			Err:  fmt.Errorf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	if decodeErr != nil {
		return "", &AuthError{Body: string(body), Err: fmt.Errorf("decode token response: %w", decodeErr)}
	}
	if token.AccessToken == "" {
		return "", &AuthError{Body: string(body), Err: fmt.Errorf("token response missing access_token")}
	}

	creds.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		creds.RefreshToken = token.RefreshToken
	}
	creds.ExpiresAt = a.now().Unix() + token.ExpiresIn

	if err := a.store.Save(creds); err != nil {
		return "", fmt.Errorf("persist refreshed credentials: %w", err)
	}

	logger.Info("OAuth authorization attempt was successful")
	return creds.AccessToken, nil
}
