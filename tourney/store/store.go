/* store.go
 * Flat-file persistence: three JSON documents under one data directory.
 * Writes go through a temp file and os.Rename so a crash mid-write never
 * leaves a torn document behind.
 */

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tourney-bot/tourney/coordinator"
)

const (
	liveFile     = "tournaments.json"
	archiveFile  = "closed_tournaments.json"
	settingsFile = "guild_settings.json"
)

// Store persists tournament snapshots and guild settings as JSON files.
// Safe for concurrent use; writes to the same document serialize.
type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveLive replaces the live tournaments document.
func (s *Store) SaveLive(snaps []coordinator.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(liveFile, snaps)
}

// LoadLive reads the live tournaments document. A missing file is an empty
// store, not an error.
func (s *Store) LoadLive() ([]coordinator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snaps []coordinator.Snapshot
	if err := s.readJSON(liveFile, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Archive appends a finished tournament to the closed document.
func (s *Store) Archive(snap coordinator.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []coordinator.Snapshot
	if err := s.readJSON(archiveFile, &closed); err != nil {
		return err
	}
	closed = append(closed, snap)
	return s.writeJSON(archiveFile, closed)
}

// LoadArchive reads every archived tournament.
func (s *Store) LoadArchive() ([]coordinator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []coordinator.Snapshot
	if err := s.readJSON(archiveFile, &closed); err != nil {
		return nil, err
	}
	return closed, nil
}

// SaveSettings replaces the guild settings document.
func (s *Store) SaveSettings(settings map[string]coordinator.GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(settingsFile, settings)
}

// LoadSettings reads the guild settings document.
func (s *Store) LoadSettings() (map[string]coordinator.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := make(map[string]coordinator.GuildSettings)
	if err := s.readJSON(settingsFile, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// writeJSON writes to a temp file in the same directory, then renames it
// over the target.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
