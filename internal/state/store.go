// Package state persists the relay's dedup high-water mark between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// State is the single persisted entity: the highest message id processed.
type State struct {
	LastID string `json:"last_id"`
}

// Store reads and writes State at a fixed path.
type Store struct {
	path string
}

// NewStore builds a store for the given path, defaulting to state.json in
// the working directory.
func NewStore(path string) *Store {
	if path == "" {
		path = "state.json"
	}
	return &Store{path: path}
}

// Load returns the persisted state. A missing, unreadable, or corrupt file
// is never an error: it yields an empty state, and ok reports whether a
// prior state was actually recovered.
func (s *Store) Load() (st State, ok bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, false
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false
	}
	return st, true
}

// Save overwrites the persisted state. The write goes through a temp file
// and rename so readers never observe a partial file.
func (s *Store) Save(st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
