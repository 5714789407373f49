package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
)

const (
	// DefaultFileName is the default name for the preferences file.
	DefaultFileName = "receivers.json"
)

// State is what telepath remembers between runs.
type State struct {
	Selected  *core.Endpoint       `json:"selected,omitempty"`
	Receivers []discovery.Receiver `json:"receivers,omitempty"`
}

// Remember adds or replaces a saved receiver keyed by address.
func (s *State) Remember(r discovery.Receiver) {
	for i := range s.Receivers {
		if s.Receivers[i].Endpoint.Equal(r.Endpoint) {
			s.Receivers[i] = r
			return
		}
	}
	s.Receivers = append(s.Receivers, r)
}

// Forget removes a saved receiver by address or name, clearing the
// selection if it pointed there. It reports whether anything was removed.
func (s *State) Forget(identifier string) bool {
	removed := false
	kept := s.Receivers[:0]
	for _, r := range s.Receivers {
		if r.Address == identifier || strings.EqualFold(r.Name, identifier) {
			removed = true
			if s.Selected != nil && s.Selected.Equal(r.Endpoint) {
				s.Selected = nil
			}
			continue
		}
		kept = append(kept, r)
	}
	s.Receivers = kept
	return removed
}

// Storage persists State as JSON.
type Storage struct {
	path string
}

// NewStorage creates storage at path. An empty path uses
// ~/.config/telepath/receivers.json.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = filepath.Join(configDir, "telepath", DefaultFileName)
	}

	return &Storage{path: path}, nil
}

// Save writes state to disk.
func (s *Storage) Save(state *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Load reads state from disk. A missing file yields an empty state.
func (s *Storage) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return &state, nil
}

// Update loads the state, applies fn and saves the result.
func (s *Storage) Update(fn func(*State) error) error {
	state, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.Save(state)
}

// Delete removes the preferences file.
func (s *Storage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

// Exists returns true if a preferences file exists.
func (s *Storage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the path to the preferences file.
func (s *Storage) Path() string {
	return s.path
}
