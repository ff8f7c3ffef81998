// Package credstore persists the single API credential slot across
// runs. The credential is an opaque bearer token; nothing here checks
// its shape or freshness.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// Env overrides. When EnvAPIKey is set the file is never consulted,
// written, or cleared.
const (
	EnvAPIKey   = "TODOQ_API_KEY"
	EnvUsername = "TODOQ_USERNAME"
)

// Credentials is the stored slot.
type Credentials struct {
	Username  string    `json:"username"`
	APIKey    string    `json:"api_key"`
	Source    string    `json:"source"` // "env" | "file"
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes the credential file under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns ~/.todoq, or ".todoq" when the home directory
// cannot be determined.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todoq"
	}
	return filepath.Join(home, ".todoq")
}

func (s *Store) path() string {
	return filepath.Join(s.dir, credFileName)
}

// Get returns the stored credentials, or nil when absent. The env
// override wins over the file.
func (s *Store) Get() (*Credentials, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return &Credentials{
			Username: strings.TrimSpace(os.Getenv(EnvUsername)),
			APIKey:   key,
			Source:   "env",
		}, nil
	}

	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	c.Source = "file"
	return &c, nil
}

// Set writes the credential slot, creating the directory with 0700 and
// the file with 0600.
func (s *Store) Set(username, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("empty api key")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	c := Credentials{
		Username:  strings.TrimSpace(username),
		APIKey:    apiKey,
		Source:    "file",
		CreatedAt: time.Now(),
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Clear removes the credential file. Clearing an empty slot is not an
// error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
