package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateKeyKubeconfig is the slot the cluster harness uses to hand the
// kubeconfig path from setup to teardown.
const StateKeyKubeconfig = "kubeconfig_path"

// ErrStateKeyNotFound is returned by Get for missing keys.
var ErrStateKeyNotFound = errors.New("state key not found")

// State is a process-wide key/value store shared between environment setup
// and teardown. When a path is set, values are persisted as JSON so that
// an `up` in one process can hand values to a `down` in another.
type State struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewState creates a State persisted at path. An empty path keeps the state
// in memory only.
func NewState(path string) *State {
	return &State{
		path:   path,
		values: make(map[string]string),
	}
}

// Save stores a value under key and persists the store when file-backed.
func (s *State) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.values[key] = value
	return s.persistLocked()
}

// Get returns the value stored under key.
func (s *State) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return "", err
	}
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStateKeyNotFound, key)
	}
	return value, nil
}

// Delete removes a key and persists the store when file-backed.
func (s *State) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	delete(s.values, key)
	return s.persistLocked()
}

// Clear drops all values and removes the backing file if present.
func (s *State) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// loadLocked refreshes values from the backing file so that concurrent
// processes see each other's writes. Caller holds s.mu.
func (s *State) loadLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	loaded := make(map[string]string)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	for key, value := range loaded {
		if _, ok := s.values[key]; !ok {
			s.values[key] = value
		}
	}
	return nil
}

// persistLocked writes values to the backing file. Caller holds s.mu.
func (s *State) persistLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
