// Package memory provides in-memory store implementations for development
// and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// NavigationStore keeps navigations in a mutex-guarded map.
type NavigationStore struct {
	mu   sync.RWMutex
	navs map[string]catalog.Navigation
}

// NewNavigationStore constructs an empty NavigationStore.
func NewNavigationStore() *NavigationStore {
	return &NavigationStore{navs: make(map[string]catalog.Navigation)}
}

// GetByID fetches a navigation by id.
func (s *NavigationStore) GetByID(_ context.Context, id string) (catalog.Navigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nav, ok := s.navs[id]
	if !ok {
		return catalog.Navigation{}, catalog.ErrNotFound
	}
	return nav, nil
}

// GetBySlug fetches a navigation by its slug natural key.
func (s *NavigationStore) GetBySlug(_ context.Context, slug string) (catalog.Navigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nav := range s.navs {
		if nav.Slug == slug {
			return nav, nil
		}
	}
	return catalog.Navigation{}, catalog.ErrNotFound
}

// List returns all navigations ordered by slug.
func (s *NavigationStore) List(_ context.Context) ([]catalog.Navigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Navigation, 0, len(s.navs))
	for _, nav := range s.navs {
		out = append(out, nav)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Create stores a new navigation.
func (s *NavigationStore) Create(_ context.Context, nav catalog.Navigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navs[nav.ID] = nav
	return nil
}

// Update overwrites an existing navigation.
func (s *NavigationStore) Update(_ context.Context, nav catalog.Navigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.navs[nav.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.navs[nav.ID] = nav
	return nil
}
