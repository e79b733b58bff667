package knowledge

import (
	"sync"

	"github.com/codeready-toolchain/flowise-agent/pkg/apperrors"
)

// Credential is a redacted credential record (§4.6 CredentialStore: "never
// exposes encrypted data"; §6 Persistence layout "redacted; no secret
// material").
type Credential struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CredentialStore indexes credentials by id, name and type (§4.6).
type CredentialStore struct {
	mu     sync.RWMutex
	byID   map[string]Credential
	byType map[string][]Credential
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{byID: map[string]Credential{}, byType: map[string][]Credential{}}
}

// Seed installs credentials, replacing any previous contents — used on load
// from `schemas/flowise_credentials.snapshot.json` (§6) and by tests.
func (c *CredentialStore) Seed(creds []Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]Credential, len(creds))
	c.byType = make(map[string][]Credential)
	for _, cr := range creds {
		c.byID[cr.ID] = cr
		c.byType[cr.Type] = append(c.byType[cr.Type], cr)
	}
}

// ByID looks up a credential by id.
func (c *CredentialStore) ByID(id string) (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cr, ok := c.byID[id]
	return cr, ok
}

// ResolveByType implements the BindCredential resolution rule (§4.2 step 4:
// "resolve credential_id via credential store by type if id omitted; error
// if 0 or ≥2 matches").
func (c *CredentialStore) ResolveByType(credType string) (Credential, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	matches := c.byType[credType]
	switch len(matches) {
	case 0:
		return Credential{}, apperrors.Wrap(apperrors.KindCredential, apperrors.ErrNoCredentialMatch, map[string]any{"credential_type": credType})
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
		return Credential{}, apperrors.Wrap(apperrors.KindCredential, apperrors.ErrAmbiguousCredential, map[string]any{"credential_type": credType, "candidates": ids})
	}
}
