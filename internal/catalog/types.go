// Package catalog defines core types shared across subsystems.
package catalog

import "time"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from the status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TargetType identifies what kind of page a scrape job fetches.
type TargetType string

// Target types persisted on scrape jobs.
const (
	TargetNavigation    TargetType = "navigation"
	TargetCategory      TargetType = "category"
	TargetProductList   TargetType = "product_list"
	TargetProductDetail TargetType = "product_detail"
)

// Navigation is a top-level taxonomy entry, deduplicated by slug.
type Navigation struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	URL           string     `json:"url"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// Category is a taxonomy node under a Navigation. Slug uniqueness is scoped
// to the owning navigation, so different navigations may reuse a slug.
// ParentID forms a tree; root categories have a nil parent.
type Category struct {
	ID            string     `json:"id"`
	NavigationID  string     `json:"navigation_id"`
	ParentID      *string    `json:"parent_id,omitempty"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	URL           string     `json:"url"`
	ProductCount  int        `json:"product_count"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// Product is a catalog item, deduplicated by SourceID (derived from the
// canonical source URL).
type Product struct {
	ID            string     `json:"id"`
	CategoryID    string     `json:"category_id"`
	SourceID      string     `json:"source_id"`
	Title         string     `json:"title"`
	Author        string     `json:"author,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	Currency      string     `json:"currency"`
	ImageURL      string     `json:"image_url,omitempty"`
	SourceURL     string     `json:"source_url"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// ProductDetail is the 1:1 extension of a Product holding heavier fields.
// Re-scrapes overwrite it in place; no history is retained.
type ProductDetail struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"product_id"`
	Description     string            `json:"description,omitempty"`
	Specs           map[string]string `json:"specs,omitempty"`
	RatingsAvg      float64           `json:"ratings_avg"`
	ReviewsCount    int               `json:"reviews_count"`
	Publisher       string            `json:"publisher,omitempty"`
	ISBN            string            `json:"isbn,omitempty"`
	PublicationDate string            `json:"publication_date,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// Review belongs to a Product. The full review set for a product is replaced
// wholesale on every detail scrape.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Author     string    `json:"author"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// ScrapeJob is the audit record of one orchestration run. It references
// catalog entities only through TargetURL and metadata, never by foreign key,
// so job history survives entity deletion.
type ScrapeJob struct {
	ID         string      `json:"id"`
	TargetURL  string      `json:"target_url"`
	TargetType TargetType  `json:"target_type"`
	Status     JobStatus   `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	ErrorLog   string      `json:"error_log,omitempty"`
	Metadata   JobMetadata `json:"metadata"`
}
