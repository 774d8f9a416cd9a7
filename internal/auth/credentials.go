package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialStore persists tokens between runs so a login survives restarts.
type CredentialStore struct {
	path string
}

// DefaultConfigDir returns ~/.config/techtranslator.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "techtranslator"), nil
}

// NewCredentialStore stores credentials at <dir>/credentials.json.
func NewCredentialStore(dir string) (*CredentialStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return &CredentialStore{path: filepath.Join(dir, "credentials.json")}, nil
}

// Load returns the stored tokens, or nil when none are stored. A corrupt
// file is treated as absent.
func (c *CredentialStore) Load() *Tokens {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil || t.AccessToken == "" {
		return nil
	}
	return &t
}

// Save writes the tokens with owner-only permissions.
func (c *CredentialStore) Save(t *Tokens) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the stored tokens. Missing file is fine.
func (c *CredentialStore) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
