// Package jsonfile stores each profile as a JSON blob in its own file, in the
// same shape the browser tracker keeps in local storage.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"vaultscore/internal/core"
	"vaultscore/internal/storage"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store writes <dir>/<profileID>.json. Writes go through a temp file and a rename
// so a crash never leaves a half-written blob behind.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(profileID string) (string, error) {
	if !validID.MatchString(profileID) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidProfileID, profileID)
	}
	return filepath.Join(s.dir, profileID+".json"), nil
}

// Load implements storage.ProfileStore
func (s *Store) Load(_ context.Context, profileID string) (core.VaultProfile, error) {
	path, err := s.path(profileID)
	if err != nil {
		return core.VaultProfile{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.NewProfile(), nil
	}
	if err != nil {
		return core.VaultProfile{}, fmt.Errorf("read profile %s: %w", profileID, err)
	}

	var p core.VaultProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return core.VaultProfile{}, fmt.Errorf("decode profile %s: %w", profileID, err)
	}
	return p, nil
}

// Save implements storage.ProfileStore
func (s *Store) Save(_ context.Context, profileID string, profile core.VaultProfile) error {
	path, err := s.path(profileID)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid profile: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, profileID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace profile file: %w", err)
	}
	return nil
}

// Ping implements storage.Pinger by checking the directory is still there.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
