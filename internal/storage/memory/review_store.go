package memory

import (
	"context"
	"sync"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// ReviewStore keeps review sets keyed by product id.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string][]catalog.Review
}

// NewReviewStore constructs an empty ReviewStore.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{reviews: make(map[string][]catalog.Review)}
}

// ListByProduct returns all reviews for a product.
func (s *ReviewStore) ListByProduct(_ context.Context, productID string) ([]catalog.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Review, len(s.reviews[productID]))
	copy(out, s.reviews[productID])
	return out, nil
}

// ReplaceForProduct deletes the existing review set for a product and inserts
// the new one. An empty set erases prior history.
func (s *ReviewStore) ReplaceForProduct(_ context.Context, productID string, reviews []catalog.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(reviews) == 0 {
		delete(s.reviews, productID)
		return nil
	}
	s.reviews[productID] = append([]catalog.Review(nil), reviews...)
	return nil
}
