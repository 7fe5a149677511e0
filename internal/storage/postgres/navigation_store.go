package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// NavigationStore persists navigations in the navigations table.
type NavigationStore struct {
	db querier
}

// NewNavigationStore constructs a store over an existing pool.
func NewNavigationStore(db querier) *NavigationStore {
	return &NavigationStore{db: db}
}

const navigationColumns = "id, title, slug, url, last_scraped_at"

// GetByID fetches a navigation by id.
func (s *NavigationStore) GetByID(ctx context.Context, id string) (catalog.Navigation, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+navigationColumns+" FROM navigations WHERE id = $1", id)
	return scanNavigation(row)
}

// GetBySlug fetches a navigation by its slug natural key.
func (s *NavigationStore) GetBySlug(ctx context.Context, slug string) (catalog.Navigation, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+navigationColumns+" FROM navigations WHERE slug = $1", slug)
	return scanNavigation(row)
}

// List returns all navigations ordered by slug.
func (s *NavigationStore) List(ctx context.Context) ([]catalog.Navigation, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+navigationColumns+" FROM navigations ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("list navigations: %w", err)
	}
	defer rows.Close()

	var out []catalog.Navigation
	for rows.Next() {
		nav, err := scanNavigation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, nav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list navigations: %w", err)
	}
	return out, nil
}

// Create inserts a new navigation row.
func (s *NavigationStore) Create(ctx context.Context, nav catalog.Navigation) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO navigations (id, title, slug, url, last_scraped_at)
VALUES ($1, $2, $3, $4, $5)`,
		nav.ID, nav.Title, nav.Slug, nav.URL, nav.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("insert navigation: %w", err)
	}
	return nil
}

// Update overwrites an existing navigation row.
func (s *NavigationStore) Update(ctx context.Context, nav catalog.Navigation) error {
	tag, err := s.db.Exec(ctx, `
UPDATE navigations
SET title = $2, slug = $3, url = $4, last_scraped_at = $5
WHERE id = $1`,
		nav.ID, nav.Title, nav.Slug, nav.URL, nav.LastScrapedAt)
	if err != nil {
		return fmt.Errorf("update navigation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanNavigation(row pgx.Row) (catalog.Navigation, error) {
	var nav catalog.Navigation
	err := row.Scan(&nav.ID, &nav.Title, &nav.Slug, &nav.URL, &nav.LastScrapedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Navigation{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Navigation{}, fmt.Errorf("scan navigation: %w", err)
	}
	return nav, nil
}
