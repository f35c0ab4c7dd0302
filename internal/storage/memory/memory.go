// Package memory is a process-local profile store, used for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vaultscore/internal/core"
	"vaultscore/internal/storage"
)

// Store keeps deep copies of saved profiles keyed by profile ID.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]core.VaultProfile
}

func NewStore() *Store {
	return &Store{profiles: make(map[string]core.VaultProfile)}
}

// Load implements storage.ProfileStore
func (s *Store) Load(_ context.Context, profileID string) (core.VaultProfile, error) {
	if strings.TrimSpace(profileID) == "" {
		return core.VaultProfile{}, fmt.Errorf("%w: empty", storage.ErrInvalidProfileID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return core.NewProfile(), nil
	}
	return p.Clone(), nil
}

// Save implements storage.ProfileStore
func (s *Store) Save(_ context.Context, profileID string, profile core.VaultProfile) error {
	if strings.TrimSpace(profileID) == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidProfileID)
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid profile: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profileID] = profile.Clone()
	return nil
}

// Ping implements storage.Pinger
func (s *Store) Ping(context.Context) error {
	return nil
}
