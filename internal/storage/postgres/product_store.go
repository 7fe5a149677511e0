package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// ProductStore persists products in the products table.
type ProductStore struct {
	db querier
}

// NewProductStore constructs a store over an existing pool.
func NewProductStore(db querier) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = "id, category_id, source_id, title, author, price, currency, image_url, source_url, last_scraped_at"

// GetByID fetches a product by id.
func (s *ProductStore) GetByID(ctx context.Context, id string) (catalog.Product, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	return scanProduct(row)
}

// GetBySourceID fetches a product by its sourceId natural key.
func (s *ProductStore) GetBySourceID(ctx context.Context, sourceID string) (catalog.Product, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE source_id = $1", sourceID)
	return scanProduct(row)
}

// ListByCategory returns one page of products for a category, ordered by
// source_id for stable pagination.
func (s *ProductStore) ListByCategory(ctx context.Context, categoryID string, limit, offset int) ([]catalog.Product, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE category_id = $1 ORDER BY source_id LIMIT $2 OFFSET $3",
		categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Create inserts a new product row.
func (s *ProductStore) Create(ctx context.Context, p catalog.Product) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO products (id, category_id, source_id, title, author, price, currency, image_url, source_url, last_scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.CategoryID, p.SourceID, p.Title, p.Author, p.Price, p.Currency,
		p.ImageURL, p.SourceURL, p.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update overwrites an existing product row.
func (s *ProductStore) Update(ctx context.Context, p catalog.Product) error {
	tag, err := s.db.Exec(ctx, `
UPDATE products
SET category_id = $2, source_id = $3, title = $4, author = $5, price = $6,
    currency = $7, image_url = $8, source_url = $9, last_scraped_at = $10
WHERE id = $1`,
		p.ID, p.CategoryID, p.SourceID, p.Title, p.Author, p.Price, p.Currency,
		p.ImageURL, p.SourceURL, p.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.SourceID, &p.Title, &p.Author, &p.Price,
		&p.Currency, &p.ImageURL, &p.SourceURL, &p.LastScrapedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}
