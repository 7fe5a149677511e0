package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// ProductStore keeps products in a mutex-guarded map.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// NewProductStore constructs an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]catalog.Product)}
}

// GetByID fetches a product by id.
func (s *ProductStore) GetByID(_ context.Context, id string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

// GetBySourceID fetches a product by its sourceId natural key.
func (s *ProductStore) GetBySourceID(_ context.Context, sourceID string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.SourceID == sourceID {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

// ListByCategory returns one page of products for a category, ordered by
// sourceId for stable pagination.
func (s *ProductStore) ListByCategory(_ context.Context, categoryID string, limit, offset int) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []catalog.Product
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SourceID < all[j].SourceID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Create stores a new product.
func (s *ProductStore) Create(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

// Update overwrites an existing product.
func (s *ProductStore) Update(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}
