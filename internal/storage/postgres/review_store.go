package postgres

import (
	"context"
	"fmt"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// ReviewStore persists review sets in the reviews table.
type ReviewStore struct {
	db querier
}

// NewReviewStore constructs a store over an existing pool.
func NewReviewStore(db querier) *ReviewStore {
	return &ReviewStore{db: db}
}

// ListByProduct returns all reviews for a product, oldest first.
func (s *ReviewStore) ListByProduct(ctx context.Context, productID string) ([]catalog.Review, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, product_id, author, rating, review_text, reviewed_at
FROM reviews WHERE product_id = $1 ORDER BY reviewed_at`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []catalog.Review
	for rows.Next() {
		var r catalog.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.Author, &r.Rating, &r.Text, &r.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

// ReplaceForProduct deletes the product's review set and inserts the new one
// inside a single transaction.
func (s *ReviewStore) ReplaceForProduct(ctx context.Context, productID string, reviews []catalog.Review) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace reviews: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM reviews WHERE product_id = $1", productID); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	for _, r := range reviews {
		_, err := tx.Exec(ctx, `
INSERT INTO reviews (id, product_id, author, rating, review_text, reviewed_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.ProductID, r.Author, r.Rating, r.Text, r.ReviewedAt)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace reviews: %w", err)
	}
	return nil
}
