package catalog

// JobMetadata is the per-target bookkeeping attached to a scrape job. Exactly
// one of the typed fields is set, matching the job's target type; Extra is a
// passthrough bag for fields that have no typed home yet.
type JobMetadata struct {
	Navigation    *NavigationMeta    `json:"navigation,omitempty"`
	Category      *CategoryMeta      `json:"category,omitempty"`
	ProductList   *ProductListMeta   `json:"product_list,omitempty"`
	ProductDetail *ProductDetailMeta `json:"product_detail,omitempty"`
	Extra         map[string]string  `json:"extra,omitempty"`
}

// NavigationMeta records the outcome of a navigation scrape.
type NavigationMeta struct {
	ItemsScraped int    `json:"items_scraped"`
	SnapshotURI  string `json:"snapshot_uri,omitempty"`
}

// CategoryMeta records the outcome of a category scrape for one navigation.
type CategoryMeta struct {
	NavigationID string `json:"navigation_id"`
	ItemsScraped int    `json:"items_scraped"`
	SnapshotURI  string `json:"snapshot_uri,omitempty"`
}

// ProductListMeta records the outcome of a product-list scrape.
type ProductListMeta struct {
	CategoryID   string `json:"category_id"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
	ItemsScraped int    `json:"items_scraped"`
	SnapshotURI  string `json:"snapshot_uri,omitempty"`
}

// ProductDetailMeta records the outcome of a product-detail scrape.
type ProductDetailMeta struct {
	ProductID            string `json:"product_id"`
	ReviewsScraped       int    `json:"reviews_scraped"`
	RecommendationsFound int    `json:"recommendations_found"`
	SnapshotURI          string `json:"snapshot_uri,omitempty"`
}
