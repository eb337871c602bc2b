// Package session persists the bearer token and user profile between
// CLI invocations. The store is passed explicitly to whatever issues
// authenticated calls; nothing reaches for it ambiently.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"munimji/internal/core"
)

var ErrNoSession = errors.New("no active session")

// TokenSource is the read side consumed by the API gateway client.
// Presence of a token is an optimistic signal only: a 401 from the
// backend, not this interface, decides that a session is stale.
type TokenSource interface {
	Token() (string, error)
}

// Store exposes the full session lifecycle.
type Store interface {
	TokenSource
	Establish(token string, user core.Profile) error
	User() (core.Profile, error)
	Clear() error
}

type sessionFile struct {
	Token string       `json:"token"`
	User  core.Profile `json:"user"`
}

// FileStore keeps the session as a JSON file on disk, created with
// owner-only permissions. Reads and writes are serialized; login and
// logout are user-triggered and never expected to race, but the lock
// keeps concurrent worker reads safe.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the session file location under the user config
// directory, e.g. ~/.config/munimji/session.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "munimji", "session.json"), nil
}

// Establish stores the token and user profile, replacing any previous
// session.
func (s *FileStore) Establish(token string, user core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sessionFile{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// Write-then-rename so a crash never leaves a torn session file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Token returns the persisted bearer token, or ErrNoSession.
func (s *FileStore) Token() (string, error) {
	sf, err := s.read()
	if err != nil {
		return "", err
	}
	if sf.Token == "" {
		return "", ErrNoSession
	}
	return sf.Token, nil
}

// User returns the persisted profile, or ErrNoSession.
func (s *FileStore) User() (core.Profile, error) {
	sf, err := s.read()
	if err != nil {
		return core.Profile{}, err
	}
	return sf.User, nil
}

// Clear removes the session file; token and profile go together.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (sessionFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return sessionFile{}, ErrNoSession
	}
	if err != nil {
		return sessionFile{}, fmt.Errorf("read session file: %w", err)
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return sessionFile{}, fmt.Errorf("decode session file: %w", err)
	}
	return sf, nil
}
