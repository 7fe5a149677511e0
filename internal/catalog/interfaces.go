package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// NavigationStore persists top-level taxonomy entries.
type NavigationStore interface {
	GetByID(ctx context.Context, id string) (Navigation, error)
	GetBySlug(ctx context.Context, slug string) (Navigation, error)
	List(ctx context.Context) ([]Navigation, error)
	Create(ctx context.Context, nav Navigation) error
	Update(ctx context.Context, nav Navigation) error
}

// CategoryStore persists taxonomy nodes. Slug lookups are scoped to the
// owning navigation.
type CategoryStore interface {
	GetByID(ctx context.Context, id string) (Category, error)
	GetBySlug(ctx context.Context, navigationID, slug string) (Category, error)
	ListByNavigation(ctx context.Context, navigationID string) ([]Category, error)
	Create(ctx context.Context, cat Category) error
	Update(ctx context.Context, cat Category) error
}

// ProductStore persists catalog items keyed by SourceID.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySourceID(ctx context.Context, sourceID string) (Product, error)
	ListByCategory(ctx context.Context, categoryID string, limit, offset int) ([]Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
}

// ProductDetailStore persists the 1:1 detail extension of a product.
type ProductDetailStore interface {
	GetByProduct(ctx context.Context, productID string) (ProductDetail, error)
	Create(ctx context.Context, d ProductDetail) error
	Update(ctx context.Context, d ProductDetail) error
}

// ReviewStore persists reviews. ReplaceForProduct deletes the existing set
// for the product and inserts the new one in a single logical write group.
type ReviewStore interface {
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	ReplaceForProduct(ctx context.Context, productID string, reviews []Review) error
}

// JobStore persists scrape job audit records.
type JobStore interface {
	Create(ctx context.Context, job ScrapeJob) error
	Get(ctx context.Context, id string) (ScrapeJob, error)
	List(ctx context.Context, limit int) ([]ScrapeJob, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus, errorLog string, startedAt, finishedAt *time.Time) error
	UpdateMetadata(ctx context.Context, id string, meta JobMetadata) error
}

// BlobStore writes raw page snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes scrape-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces entity and job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
