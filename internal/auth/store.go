// Package auth implements the OAuth authorization-code and refresh-token
// flow against the Strava token endpoint, including the loopback redirect
// capture and the durable token file.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stravamark/stravamark/internal/models"
)

// TokenStore persists the token triple to a small JSON file. A missing or
// malformed file reads as "no tokens present", never as an error.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the persisted token state. Unreadable or malformed files
// return the zero state.
func (s *TokenStore) Load() models.TokenState {
	var state models.TokenState
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.TokenState{}
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return models.TokenState{}
	}
	return state
}

// Save writes the token state atomically (full overwrite via temp file +
// rename) with owner-only permissions.
func (s *TokenStore) Save(state models.TokenState) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}

	// Not all platforms honor the create mode; ignore chmod failures there.
	_ = os.Chmod(s.path, 0o600)
	return nil
}
