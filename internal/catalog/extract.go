package catalog

import (
	"context"
	"time"
)

// The extraction contract: the record shapes the external crawler must return
// for each target type. Fields the page does not provide degrade to zero
// values; a single malformed field never aborts the batch.

// NavigationItem is one extracted navigation menu entry.
type NavigationItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CategoryItem is one extracted category link. Count is the product count
// advertised next to the link, zero when absent.
type CategoryItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// ProductItem is one extracted product card. Price is the raw text as shown
// on the page; parsing happens at upsert time.
type ProductItem struct {
	Title     string `json:"title"`
	Price     string `json:"price"`
	ImageURL  string `json:"image_url"`
	SourceURL string `json:"source_url"`
	Author    string `json:"author"`
}

// ReviewItem is one extracted review.
type ReviewItem struct {
	Author string `json:"author"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// DetailPage is the extracted content of a product detail page.
type DetailPage struct {
	Description     string            `json:"description"`
	RatingsAvg      float64           `json:"ratings_avg"`
	ReviewsCount    int               `json:"reviews_count"`
	Publisher       string            `json:"publisher"`
	ISBN            string            `json:"isbn"`
	PublicationDate string            `json:"publication_date"`
	Specs           map[string]string `json:"specs"`
	Recommendations []string          `json:"recommendations"`
	Reviews         []ReviewItem      `json:"reviews"`
}

// FetchOptions bound a single extraction call. Retries are internal to the
// extractor; callers never re-issue a failed fetch themselves.
type FetchOptions struct {
	Timeout    time.Duration
	MaxRetries int
}

// NavigationResult carries extracted navigation items plus the rendered page
// for optional snapshot archiving. The other result types follow the same
// shape.
type NavigationResult struct {
	Items []NavigationItem
	HTML  []byte
}

// CategoryResult carries extracted category items.
type CategoryResult struct {
	Items []CategoryItem
	HTML  []byte
}

// ProductResult carries extracted product cards.
type ProductResult struct {
	Items []ProductItem
	HTML  []byte
}

// DetailResult carries one extracted detail page.
type DetailResult struct {
	Page DetailPage
	HTML []byte
}

// Extractor is the narrow contract over the page-fetching engine. One method
// per target type; each fetches a single URL and returns field-tagged records.
type Extractor interface {
	Navigation(ctx context.Context, url string, opts FetchOptions) (NavigationResult, error)
	Categories(ctx context.Context, url string, opts FetchOptions) (CategoryResult, error)
	Products(ctx context.Context, url string, opts FetchOptions) (ProductResult, error)
	Detail(ctx context.Context, url string, opts FetchOptions) (DetailResult, error)
}
