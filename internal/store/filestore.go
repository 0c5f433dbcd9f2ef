package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// FileStore keeps the state mapping in memory and mirrors every mutation to
// a flat JSON file. All writes go through one mutex-held read-modify-write
// with an atomic rename, so concurrent item loops cannot lose each other's
// updates the way independent whole-file rewrites would.
type FileStore struct {
	path string

	mu    sync.Mutex
	state map[string]domain.StoredSnapshot
}

// NewFileStore opens (or initializes) the state file at path. A missing
// file is not an error on first run; it is treated as an empty mapping.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		state: make(map[string]domain.StoredSnapshot),
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}

	return s, nil
}

// Load returns a copy of the full mapping.
func (s *FileStore) Load(_ context.Context) (map[string]domain.StoredSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.StoredSnapshot, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out, nil
}

// Get returns the record for one item, or nil when absent.
func (s *FileStore) Get(_ context.Context, id string) (*domain.StoredSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.state[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// Put replaces one item's record and flushes the file.
func (s *FileStore) Put(_ context.Context, id string, snap domain.StoredSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[id] = snap
	return s.flushLocked()
}

// Ping checks that the state file's directory is writable.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("state directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("state directory %s is not a directory", dir)
	}
	return nil
}

// Close flushes the mapping one last time.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked writes the whole mapping to a temp file and renames it over
// the target, so readers never observe a partial file. Callers must hold mu.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}

	return nil
}
