package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// CategoryStore keeps categories in a mutex-guarded map. Slug lookups are
// scoped to the owning navigation.
type CategoryStore struct {
	mu   sync.RWMutex
	cats map[string]catalog.Category
}

// NewCategoryStore constructs an empty CategoryStore.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{cats: make(map[string]catalog.Category)}
}

// GetByID fetches a category by id.
func (s *CategoryStore) GetByID(_ context.Context, id string) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.cats[id]
	if !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return cat, nil
}

// GetBySlug fetches a category by slug within one navigation.
func (s *CategoryStore) GetBySlug(_ context.Context, navigationID, slug string) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cat := range s.cats {
		if cat.NavigationID == navigationID && cat.Slug == slug {
			return cat, nil
		}
	}
	return catalog.Category{}, catalog.ErrNotFound
}

// ListByNavigation returns the categories owned by one navigation, ordered
// by slug.
func (s *CategoryStore) ListByNavigation(_ context.Context, navigationID string) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.Category
	for _, cat := range s.cats {
		if cat.NavigationID == navigationID {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Create stores a new category.
func (s *CategoryStore) Create(_ context.Context, cat catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats[cat.ID] = cat
	return nil
}

// Update overwrites an existing category.
func (s *CategoryStore) Update(_ context.Context, cat catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[cat.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.cats[cat.ID] = cat
	return nil
}
