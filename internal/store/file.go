package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

// FileStore persists the AppState as a JSON file on disk. Writes go through
// a temp file and rename, so a crash mid-write never corrupts the document.
// The mutex serializes access within this process only; a second process
// writing the same path still races (last write wins).
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the JSON document at path. Parent
// directories are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Repository.
func (f *FileStore) Load(ctx context.Context) (*domain.AppState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}

	var state domain.AppState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", f.path, err)
	}
	mergeDefaults(&state)
	return &state, nil
}

// Save implements Repository.
func (f *FileStore) Save(ctx context.Context, state *domain.AppState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state.LastUpdated = time.Now()

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".finsight-*.json")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}

// Clear removes the persisted document, resetting the app to defaults.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: remove %s: %w", f.path, err)
	}
	return nil
}

var _ Repository = (*FileStore)(nil)
