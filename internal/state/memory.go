package state

import (
	"context"
	"sync"

	"github.com/Sternrassler/movie-search/pkg/catalog"
)

// MemoryBackend keeps state in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

// NewMemoryBackend creates a backend seeded with snap.
func NewMemoryBackend(snap Snapshot) *MemoryBackend {
	return &MemoryBackend{snap: snap}
}

// Load returns the stored snapshot.
func (m *MemoryBackend) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snap
	snap.Results = append([]catalog.MovieSummary(nil), m.snap.Results...)
	return snap, nil
}

// Save stores snap.
func (m *MemoryBackend) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}
