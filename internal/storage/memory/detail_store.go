package memory

import (
	"context"
	"sync"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// DetailStore keeps product detail rows keyed by product id.
type DetailStore struct {
	mu      sync.RWMutex
	details map[string]catalog.ProductDetail
}

// NewDetailStore constructs an empty DetailStore.
func NewDetailStore() *DetailStore {
	return &DetailStore{details: make(map[string]catalog.ProductDetail)}
}

// GetByProduct fetches the detail row for a product.
func (s *DetailStore) GetByProduct(_ context.Context, productID string) (catalog.ProductDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[productID]
	if !ok {
		return catalog.ProductDetail{}, catalog.ErrNotFound
	}
	return d, nil
}

// Create stores a new detail row.
func (s *DetailStore) Create(_ context.Context, d catalog.ProductDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[d.ProductID] = d
	return nil
}

// Update overwrites an existing detail row.
func (s *DetailStore) Update(_ context.Context, d catalog.ProductDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[d.ProductID]; !ok {
		return catalog.ErrNotFound
	}
	s.details[d.ProductID] = d
	return nil
}
