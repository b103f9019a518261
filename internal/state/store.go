// Package state holds the view state shared by the search form and the
// pagination coordinator: the current search query and, incidentally, the
// last results shown.
//
// State is loaded once when the Store is opened and saved to the backend on
// every change. Subscribers are told about every Set, which is what resets
// the pagination coordinator when the user submits a new query.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Namespace is the fixed storage namespace for persisted view state.
const Namespace = "searchState"

// Snapshot is the persisted view state.
type Snapshot struct {
	Query     catalog.SearchQuery    `json:"search" toml:"search"`
	Results   []catalog.MovieSummary `json:"results" toml:"results"`
	UpdatedAt time.Time              `json:"updated_at" toml:"updated_at"`
}

// Backend loads and saves a Snapshot durably.
type Backend interface {
	// Load returns the saved snapshot, or an empty one if nothing was saved.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Store is the view state store. It is safe for concurrent use.
type Store struct {
	backend Backend
	logger  zerolog.Logger

	mu   sync.RWMutex
	snap Snapshot

	// setMu orders Set calls so subscribers see queries in write order.
	setMu sync.Mutex

	// saveMu serialises writes so the backend always ends with the latest
	// snapshot.
	saveMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]func(catalog.SearchQuery)
	nextSubID   int
}

// Open loads the saved state from backend.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("state backend is required")
	}

	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	logger := log.With().Str("component", "state").Logger()
	logger.Debug().
		Str("query", snap.Query.String()).
		Int("results", len(snap.Results)).
		Msg("View state loaded")

	return &Store{
		backend:     backend,
		logger:      logger,
		snap:        snap,
		subscribers: make(map[int]func(catalog.SearchQuery)),
	}, nil
}

// Get returns the current search query.
func (s *Store) Get() catalog.SearchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Query
}

// Set replaces the search query, saves it, and notifies subscribers.
// The query is not validated here. Subscribers are notified even when the
// save fails; the save error is returned.
//
// Concurrent Set calls are applied one at a time, so the last subscriber
// notification always carries the query Get returns.
func (s *Store) Set(ctx context.Context, query catalog.SearchQuery) error {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	s.snap.Query = query
	s.snap.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	err := s.persist(ctx)

	s.logger.Info().Str("query", query.String()).Msg("Search query set")
	s.notify(query)

	return err
}

// Results returns a copy of the last saved results.
func (s *Store) Results() []catalog.MovieSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.MovieSummary(nil), s.snap.Results...)
}

// SetResults replaces the saved results.
func (s *Store) SetResults(ctx context.Context, results []catalog.MovieSummary) error {
	s.mu.Lock()
	s.snap.Results = append([]catalog.MovieSummary(nil), results...)
	s.snap.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	return s.persist(ctx)
}

// RemoveResults clears the saved results.
func (s *Store) RemoveResults(ctx context.Context) error {
	s.mu.Lock()
	s.snap.Results = nil
	s.snap.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	return s.persist(ctx)
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Results = append([]catalog.MovieSummary(nil), s.snap.Results...)
	return snap
}

// Subscribe registers fn to be called after every Set with the new query.
// fn runs inside Set and must not call Set itself. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(catalog.SearchQuery)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap := s.Snapshot()
	if err := s.backend.Save(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to save view state")
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *Store) notify(query catalog.SearchQuery) {
	s.subMu.Lock()
	fns := make([]func(catalog.SearchQuery), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(query)
	}
}
