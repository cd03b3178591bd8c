package zoho

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/ports/driven"
)

// zohoTokenType makes the oauth2 transport emit the provider's
// non-standard Authorization scheme: "Zoho-oauthtoken <token>".
const zohoTokenType = "Zoho-oauthtoken"

// TokenSourceAdapter adapts a TokenProvider to oauth2.TokenSource for
// use with an oauth2.Transport. Every request pulls a token through the
// provider, which refreshes transparently. The returned tokens carry no
// Expiry, so the adapter must not be wrapped in a ReuseTokenSource:
// that cache would treat the first token as valid forever.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{provider: provider, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.Token(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   zohoTokenType,
	}, nil
}
