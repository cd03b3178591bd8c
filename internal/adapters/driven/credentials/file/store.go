// Package file provides the JSON-file implementation of the credential
// store. The file is the Singer-style config document: static OAuth
// application fields plus the rotating access token state, rewritten in
// full on every token refresh.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
	"github.com/custodia-labs/zoho-inventory-sink/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CredentialStore = (*Store)(nil)

// Store is a JSON-file credential store. Writes go to a temp file in
// the same directory followed by a rename, so a crash mid-write or a
// concurrent reader never observes a partial document. Top-level keys
// the connector does not model are preserved across rewrites.
type Store struct {
	mu    sync.Mutex
	path  string
	creds domain.Credentials
	extra map[string]json.RawMessage
}

// NewStore loads the credential document at path.
func NewStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credential document: %w", err)
	}

	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credential document: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse credential document: %w", err)
	}
	extra := make(map[string]json.RawMessage)
	for key, value := range raw {
		if !knownKeys[key] {
			extra[key] = value
		}
	}

	return &Store{path: path, creds: creds, extra: extra}, nil
}

// Credentials returns a copy of the current credential document.
func (s *Store) Credentials() domain.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Save persists the full credential document, replacing the prior
// on-disk state before returning.
func (s *Store) Save(creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	document, err := s.merge(creds)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(document, "", "    ")
	if err != nil {
		return fmt.Errorf("encode credential document: %w", err)
	}
	data = append(data, '\n')

	// Write-replace: temp file in the same directory, then rename.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close credential document: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod credential document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace credential document: %w", err)
	}

	s.creds = creds
	return nil
}

// merge overlays the modeled credential fields onto the preserved
// unknown keys (caller must hold lock).
func (s *Store) merge(creds domain.Credentials) (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	var modeled map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &modeled); err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	document := make(map[string]json.RawMessage, len(s.extra)+len(modeled))
	for key, value := range s.extra {
		document[key] = value
	}
	for key, value := range modeled {
		document[key] = value
	}
	return document, nil
}

// knownKeys are the document keys modeled by domain.Credentials;
// everything else is carried through Save untouched.
var knownKeys = map[string]bool{
	"client_id":       true,
	"client_secret":   true,
	"refresh_token":   true,
	"redirect_uri":    true,
	"auth_url":        true,
	"accounts-server": true,
	"organization_id": true,
	"access_token":    true,
	"expires_in":      true,
}
