package driven

import "github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"

// CredentialStore owns the durable credential document: the OAuth
// application config plus the rotating access token state. Save must be
// write-replace, never append, so a partial write cannot corrupt the
// existing document.
type CredentialStore interface {
	// Credentials returns a copy of the current credential document.
	Credentials() domain.Credentials

	// Save persists the full credential document, replacing the prior
	// on-disk state before returning.
	Save(creds domain.Credentials) error
}
