package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// CategoryStore persists categories in the categories table.
type CategoryStore struct {
	db querier
}

// NewCategoryStore constructs a store over an existing pool.
func NewCategoryStore(db querier) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = "id, navigation_id, parent_id, title, slug, url, product_count, last_scraped_at"

// GetByID fetches a category by id.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (catalog.Category, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
	return scanCategory(row)
}

// GetBySlug fetches a category by slug within one navigation.
func (s *CategoryStore) GetBySlug(ctx context.Context, navigationID, slug string) (catalog.Category, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE navigation_id = $1 AND slug = $2",
		navigationID, slug)
	return scanCategory(row)
}

// ListByNavigation returns the categories owned by one navigation, ordered
// by slug.
func (s *CategoryStore) ListByNavigation(ctx context.Context, navigationID string) ([]catalog.Category, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE navigation_id = $1 ORDER BY slug",
		navigationID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Create inserts a new category row.
func (s *CategoryStore) Create(ctx context.Context, cat catalog.Category) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO categories (id, navigation_id, parent_id, title, slug, url, product_count, last_scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cat.ID, cat.NavigationID, cat.ParentID, cat.Title, cat.Slug, cat.URL,
		cat.ProductCount, cat.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update overwrites an existing category row.
func (s *CategoryStore) Update(ctx context.Context, cat catalog.Category) error {
	tag, err := s.db.Exec(ctx, `
UPDATE categories
SET navigation_id = $2, parent_id = $3, title = $4, slug = $5, url = $6,
    product_count = $7, last_scraped_at = $8
WHERE id = $1`,
		cat.ID, cat.NavigationID, cat.ParentID, cat.Title, cat.Slug, cat.URL,
		cat.ProductCount, cat.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (catalog.Category, error) {
	var cat catalog.Category
	err := row.Scan(&cat.ID, &cat.NavigationID, &cat.ParentID, &cat.Title, &cat.Slug,
		&cat.URL, &cat.ProductCount, &cat.LastScrapedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Category{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Category{}, fmt.Errorf("scan category: %w", err)
	}
	return cat, nil
}
