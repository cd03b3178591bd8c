package domain

import "time"

// TokenExpiryMargin is the safety window before expiry within which a
// token is treated as already expired and refreshed.
const TokenExpiryMargin = 120 * time.Second

// Credentials is the connector's credential document. It mirrors the
// on-disk JSON config file one-to-one: the static OAuth application
// fields plus the rotating access token state written back on every
// refresh.
type Credentials struct {
	// ClientID is the OAuth application ID for the Zoho Inventory app.
	ClientID string `json:"client_id"`

	// ClientSecret is the OAuth application secret.
	ClientSecret string `json:"client_secret"`

	// RefreshToken is the long-lived credential exchanged for access
	// tokens. The provider may rotate it on refresh.
	RefreshToken string `json:"refresh_token"`

	// RedirectURI is the redirect URI registered with the OAuth app.
	RedirectURI string `json:"redirect_uri"`

	// AuthURL optionally overrides the token endpoint. Must be an
	// absolute URL to take effect.
	AuthURL string `json:"auth_url,omitempty"`

	// AccountsServer optionally names the regional Zoho accounts host
	// (e.g. https://accounts.zoho.eu); its trailing DNS label selects
	// the regional inventory API host.
	AccountsServer string `json:"accounts-server,omitempty"`

	// OrganizationID scopes API requests to one Zoho organization.
	OrganizationID string `json:"organization_id,omitempty"`

	// AccessToken is the current short-lived access token.
	AccessToken string `json:"access_token,omitempty"`

	// ExpiresAt is the absolute expiry of the access token in epoch
	// seconds. The JSON key is "expires_in" for compatibility with the
	// historical on-disk format, which stores the absolute instant
	// under that name despite it reading like a duration.
	ExpiresAt int64 `json:"expires_in,omitempty"`
}

// TokenValidAt reports whether the stored access token is usable at the
// given instant: token present, expiry known, and at least
// TokenExpiryMargin of lifetime remaining.
func (c Credentials) TokenValidAt(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiresAt == 0 {
		return false
	}
	remaining := time.Duration(c.ExpiresAt-now.Unix()) * time.Second
	return remaining >= TokenExpiryMargin
}
