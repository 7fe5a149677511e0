package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// DetailStore persists product detail rows in the product_details table.
// Specs and recommendations are stored as JSONB.
type DetailStore struct {
	db querier
}

// NewDetailStore constructs a store over an existing pool.
func NewDetailStore(db querier) *DetailStore {
	return &DetailStore{db: db}
}

// GetByProduct fetches the detail row for a product.
func (s *DetailStore) GetByProduct(ctx context.Context, productID string) (catalog.ProductDetail, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, product_id, description, specs, ratings_avg, reviews_count,
       publisher, isbn, publication_date, recommendations
FROM product_details WHERE product_id = $1`, productID)

	var (
		d         catalog.ProductDetail
		specsJSON []byte
		recsJSON  []byte
	)
	err := row.Scan(&d.ID, &d.ProductID, &d.Description, &specsJSON, &d.RatingsAvg,
		&d.ReviewsCount, &d.Publisher, &d.ISBN, &d.PublicationDate, &recsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ProductDetail{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.ProductDetail{}, fmt.Errorf("scan product detail: %w", err)
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &d.Specs); err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("unmarshal specs: %w", err)
		}
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &d.Recommendations); err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("unmarshal recommendations: %w", err)
		}
	}
	return d, nil
}

// Create inserts a new detail row.
func (s *DetailStore) Create(ctx context.Context, d catalog.ProductDetail) error {
	specsJSON, recsJSON, err := marshalDetail(d)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO product_details (id, product_id, description, specs, ratings_avg, reviews_count,
                             publisher, isbn, publication_date, recommendations)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.ProductID, d.Description, specsJSON, d.RatingsAvg, d.ReviewsCount,
		d.Publisher, d.ISBN, d.PublicationDate, recsJSON)
	if err != nil {
		return fmt.Errorf("insert product detail: %w", err)
	}
	return nil
}

// Update overwrites an existing detail row in place.
func (s *DetailStore) Update(ctx context.Context, d catalog.ProductDetail) error {
	specsJSON, recsJSON, err := marshalDetail(d)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
UPDATE product_details
SET description = $2, specs = $3, ratings_avg = $4, reviews_count = $5,
    publisher = $6, isbn = $7, publication_date = $8, recommendations = $9
WHERE product_id = $1`,
		d.ProductID, d.Description, specsJSON, d.RatingsAvg, d.ReviewsCount,
		d.Publisher, d.ISBN, d.PublicationDate, recsJSON)
	if err != nil {
		return fmt.Errorf("update product detail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func marshalDetail(d catalog.ProductDetail) (specsJSON, recsJSON []byte, err error) {
	specs := d.Specs
	if specs == nil {
		specs = map[string]string{}
	}
	specsJSON, err = json.Marshal(specs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal specs: %w", err)
	}
	recs := d.Recommendations
	if recs == nil {
		recs = []string{}
	}
	recsJSON, err = json.Marshal(recs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal recommendations: %w", err)
	}
	return specsJSON, recsJSON, nil
}
