package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

// MemStore is an in-memory Repository. State is deep-copied on the way in
// and out so callers cannot mutate the stored document behind its back.
// Used in tests and anywhere durability is not wanted.
type MemStore struct {
	mu    sync.RWMutex
	state *domain.AppState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load implements Repository.
func (m *MemStore) Load(ctx context.Context) (*domain.AppState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return DefaultState(), nil
	}
	copied, err := copyState(m.state)
	if err != nil {
		return nil, err
	}
	mergeDefaults(copied)
	return copied, nil
}

// Save implements Repository.
func (m *MemStore) Save(ctx context.Context, state *domain.AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.LastUpdated = time.Now()
	copied, err := copyState(state)
	if err != nil {
		return err
	}
	m.state = copied
	return nil
}

// Clear drops the stored state.
func (m *MemStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

// copyState deep-copies via JSON, the same codec the persisted form uses.
func copyState(s *domain.AppState) (*domain.AppState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("store: copy state: %w", err)
	}
	var out domain.AppState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("store: copy state: %w", err)
	}
	return &out, nil
}

var _ Repository = (*MemStore)(nil)
