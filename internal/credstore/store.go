// Package credstore persists the session credentials in durable client-side storage.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/movie-mate/internal/model"
)

// Storage keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store is plain key-value access with no logic of its own.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key.
	Set(key, value string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(key string) error
}

// DefaultDir returns $XDG_CONFIG_HOME/moviemate or ~/.config/moviemate.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "moviemate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "moviemate")
}

// Save writes all three credential keys.
func Save(s Store, c model.Credentials) error {
	if !c.Complete() {
		return errors.New("credstore: incomplete credentials")
	}
	user, err := json.Marshal(c.User)
	if err != nil {
		return fmt.Errorf("credstore: encode user: %w", err)
	}
	if err := s.Set(KeyAccessToken, c.AccessToken); err != nil {
		return err
	}
	if err := s.Set(KeyRefreshToken, c.RefreshToken); err != nil {
		return err
	}
	return s.Set(KeyUser, string(user))
}

// Load reads the credentials; ok is false unless all three keys are present and valid.
func Load(s Store) (model.Credentials, bool, error) {
	access, okA, err := s.Get(KeyAccessToken)
	if err != nil {
		return model.Credentials{}, false, err
	}
	refresh, okR, err := s.Get(KeyRefreshToken)
	if err != nil {
		return model.Credentials{}, false, err
	}
	rawUser, okU, err := s.Get(KeyUser)
	if err != nil {
		return model.Credentials{}, false, err
	}
	if !okA || !okR || !okU || access == "" || refresh == "" {
		return model.Credentials{}, false, nil
	}
	var u model.UserProfile
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		// corrupt profile counts as no session
		return model.Credentials{}, false, nil
	}
	return model.Credentials{AccessToken: access, RefreshToken: refresh, User: &u}, true, nil
}

// Clear removes all three keys, attempting each even if one fails.
func Clear(s Store) error {
	return errors.Join(
		s.Delete(KeyAccessToken),
		s.Delete(KeyRefreshToken),
		s.Delete(KeyUser),
	)
}

// Memory is an in-process Store.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

func (s *Memory) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// Len reports the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
