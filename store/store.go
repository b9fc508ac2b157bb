// Package store keeps every open board as an in-memory graph and moves whole
// documents between memory and the persistence driver. The graph operations
// are the source of truth; the driver only sees snapshots.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ramify-app/ramify/internal/profile"
	"github.com/ramify-app/ramify/store/cache"
)

// ErrBoardNotFound is returned when an operation names an unknown board.
var ErrBoardNotFound = errors.New("board not found")

const settingsCacheKey = "settings"

// Store is the front door to all persisted state: boards, their node graphs
// and the global settings document.
type Store struct {
	profile *profile.Profile
	driver  Driver

	mu     sync.RWMutex
	boards map[string]*BoardGraph

	settingsCache *cache.Cache
}

// New creates a store on top of the given driver.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		driver:  driver,
		boards:  make(map[string]*BoardGraph),
		settingsCache: cache.New(cache.Config{
			DefaultTTL:      time.Minute,
			CleanupInterval: 5 * time.Minute,
		}),
	}
}

// Profile returns the runtime profile the store was created with.
func (s *Store) Profile() *profile.Profile {
	return s.profile
}

// Close flushes nothing (mutating calls persist as they go) and releases the
// driver and caches.
func (s *Store) Close() error {
	s.settingsCache.Close()
	return s.driver.Close()
}

// CreateBoard creates a board with its root node and persists it.
func (s *Store) CreateBoard(ctx context.Context, create *CreateBoard) (*BoardGraph, error) {
	if create.Title == "" {
		return nil, errors.Wrap(ErrInvalidOperation, "board title is required")
	}
	graph := newBoardGraphWithRoot(create)
	if err := s.driver.SaveBoard(ctx, graph.Snapshot()); err != nil {
		return nil, errors.Wrap(err, "failed to persist new board")
	}

	s.mu.Lock()
	s.boards[graph.board.ID] = graph
	s.mu.Unlock()
	return graph, nil
}

// GetBoard returns the open graph for a board, loading it from the driver on
// first access.
func (s *Store) GetBoard(ctx context.Context, boardID string) (*BoardGraph, error) {
	s.mu.RLock()
	graph, ok := s.boards[boardID]
	s.mu.RUnlock()
	if ok {
		return graph, nil
	}

	docs, err := s.driver.LoadBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if docs == nil || docs.Board == nil {
		return nil, errors.Wrapf(ErrBoardNotFound, "board %s", boardID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have loaded it while we read the disk.
	if existing, ok := s.boards[boardID]; ok {
		return existing, nil
	}
	graph = NewBoardGraph(docs.Board, docs.Nodes, docs.Summaries)
	s.boards[boardID] = graph
	return graph, nil
}

// ListBoards returns the board descriptors known to the driver. Open boards
// are reported from memory so unsaved metadata edits are visible.
func (s *Store) ListBoards(ctx context.Context) ([]*Board, error) {
	boards, err := s.driver.ListBoards(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list boards")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, b := range boards {
		if graph, ok := s.boards[b.ID]; ok {
			boards[i] = graph.Board()
		}
	}
	return boards, nil
}

// SaveBoard persists the current snapshot of an open board. Failures leave
// the in-memory graph untouched so the caller can retry.
func (s *Store) SaveBoard(ctx context.Context, boardID string) error {
	s.mu.RLock()
	graph, ok := s.boards[boardID]
	s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrBoardNotFound, "board %s is not open", boardID)
	}
	if err := s.driver.SaveBoard(ctx, graph.Snapshot()); err != nil {
		return errors.Wrapf(err, "failed to persist board %s", boardID)
	}
	return nil
}

// DeleteBoard removes the board from disk and from memory.
func (s *Store) DeleteBoard(ctx context.Context, boardID string) error {
	if err := s.driver.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.boards, boardID)
	s.mu.Unlock()
	return nil
}

// GetSettings returns the global settings, normalized against the defaults
// table. Reads go through a short-lived cache; a missing settings document
// yields the defaults.
func (s *Store) GetSettings(ctx context.Context) (*Settings, error) {
	if v, ok := s.settingsCache.Get(settingsCacheKey); ok {
		return v.(*Settings).Clone(), nil
	}
	settings, err := s.driver.LoadSettings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	settings.Normalize()
	s.settingsCache.Set(settingsCacheKey, settings.Clone())
	return settings, nil
}

// UpdateSettings applies a partial update, persists the result and refreshes
// the cache.
func (s *Store) UpdateSettings(ctx context.Context, update *UpdateSettings) (*Settings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings.Apply(update)
	if err := s.driver.SaveSettings(ctx, settings); err != nil {
		return nil, errors.Wrap(err, "failed to persist settings")
	}
	s.settingsCache.Set(settingsCacheKey, settings.Clone())
	return settings, nil
}
