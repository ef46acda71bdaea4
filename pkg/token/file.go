package token

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// statePerm is the mode for the state file; the token grants a login, so
// keep it owner-only.
const statePerm = 0o600

// fileState is the on-disk YAML document written by FileStore.
type fileState struct {
	Token string `yaml:"token"`
}

// FileStore implements Store with a small YAML file in a state
// directory. A missing or unreadable file reads as "no token".
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path. The parent
// directory is created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the remembered token, or "" when the file is missing or
// cannot be parsed. A corrupt state file is not an error; the remembered
// session just degrades to none.
func (s *FileStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", nil
	}

	var state fileState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return "", nil
	}
	return state.Token, nil
}

// Set replaces the remembered token.
func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(fileState{Token: token})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.WriteFile(s.path, data, statePerm); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// Clear removes the state file. A missing file is a no-op.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ Store = (*FileStore)(nil)
