// Package scraper coordinates scrape runs: it resolves targets, consults the
// freshness policy, drives the extractor, routes records into the upsert
// engine and tracks every run as a job.
package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/jobs"
	"github.com/shelfscan/catalog-crawler/internal/metrics"
	"github.com/shelfscan/catalog-crawler/internal/policy/freshness"
	"github.com/shelfscan/catalog-crawler/internal/upsert"
)

// DefaultProductPageSize bounds a product-list scrape when the caller passes
// no limit.
const DefaultProductPageSize = 20

// Config holds the orchestrator's immutable knobs, read once at construction.
type Config struct {
	BaseURL        string
	Delay          time.Duration
	FetchTimeout   time.Duration
	MaxRetries     int
	SnapshotPrefix string
	Topic          string
}

// Deps wires the orchestrator's collaborators. Snapshots and Publisher are
// optional; nil disables snapshot archiving and completion events.
type Deps struct {
	Extractor catalog.Extractor
	Engine    *upsert.Engine
	Tracker   *jobs.Tracker
	Fresh     freshness.Policy
	Clock     catalog.Clock

	Navigations    catalog.NavigationStore
	Categories     catalog.CategoryStore
	Products       catalog.ProductStore
	ProductDetails catalog.ProductDetailStore

	Snapshots catalog.BlobStore
	Publisher catalog.Publisher
	Logger    *zap.Logger
}

// Scraper is the top-level orchestrator. One scrape call runs sequentially:
// no overlapping fetches are issued for a single job.
type Scraper struct {
	cfg  Config
	deps Deps
}

// New constructs a Scraper.
func New(cfg Config, deps Deps) *Scraper {
	return &Scraper{cfg: cfg, deps: deps}
}

// completionEvent is the payload published after a job completes.
type completionEvent struct {
	JobID      string `json:"job_id"`
	TargetType string `json:"target_type"`
	TargetURL  string `json:"target_url"`
	Items      int    `json:"items"`
}

// ScrapeNavigation fetches the site's top navigation and upserts one
// Navigation per menu entry. Navigation scrapes never consult the freshness
// policy; the taxonomy root is always re-fetched.
func (s *Scraper) ScrapeNavigation(ctx context.Context) ([]catalog.Navigation, error) {
	job, err := s.deps.Tracker.Create(ctx, s.cfg.BaseURL, catalog.TargetNavigation)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Tracker.Transition(ctx, job.ID, catalog.JobStatusProcessing, ""); err != nil {
		return nil, err
	}

	res, err := s.fetchNavigation(ctx, s.cfg.BaseURL)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetNavigation, err)
	}

	navs, err := s.deps.Engine.Navigations(ctx, res.Items)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetNavigation, err)
	}

	uri := s.archive(ctx, job.ID, res.HTML)
	s.setMetadata(ctx, job.ID, catalog.JobMetadata{
		Navigation: &catalog.NavigationMeta{ItemsScraped: len(navs), SnapshotURI: uri},
	})

	if err := s.complete(ctx, job, catalog.TargetNavigation, len(navs), true); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("navigation scrape completed", zap.Int("items", len(navs)))
	return navs, nil
}

// ScrapeCategories scrapes category pages for one navigation, or for all
// navigations when navigationID is empty. Each navigation gets its own job;
// a failure on one navigation is recorded on that job and does not abort the
// others, and the call itself returns the categories that did succeed.
func (s *Scraper) ScrapeCategories(ctx context.Context, navigationID string) ([]catalog.Category, error) {
	navs, err := s.resolveNavigations(ctx, navigationID)
	if err != nil {
		return nil, err
	}

	var all []catalog.Category
	for _, nav := range navs {
		cats, err := s.scrapeNavigationCategories(ctx, nav)
		if err != nil {
			s.deps.Logger.Error("category scrape failed",
				zap.String("navigation", nav.Title),
				zap.Error(err),
			)
			continue
		}
		all = append(all, cats...)
	}
	return all, nil
}

func (s *Scraper) resolveNavigations(ctx context.Context, navigationID string) ([]catalog.Navigation, error) {
	if navigationID == "" {
		navs, err := s.deps.Navigations.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list navigations: %w", err)
		}
		return navs, nil
	}
	nav, err := s.deps.Navigations.GetByID(ctx, navigationID)
	if err != nil {
		return nil, fmt.Errorf("navigation %s: %w", navigationID, err)
	}
	return []catalog.Navigation{nav}, nil
}

func (s *Scraper) scrapeNavigationCategories(ctx context.Context, nav catalog.Navigation) ([]catalog.Category, error) {
	job, err := s.deps.Tracker.Create(ctx, nav.URL, catalog.TargetCategory)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Tracker.Transition(ctx, job.ID, catalog.JobStatusProcessing, ""); err != nil {
		return nil, err
	}

	existing, err := s.deps.Categories.ListByNavigation(ctx, nav.ID)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetCategory, err)
	}
	if s.categoriesFresh(existing) {
		metrics.ObserveCacheHit(string(catalog.TargetCategory))
		if err := s.complete(ctx, job, catalog.TargetCategory, 0, false); err != nil {
			return nil, err
		}
		return existing, nil
	}

	res, err := s.fetchCategories(ctx, nav.URL)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetCategory, err)
	}

	cats, err := s.deps.Engine.Categories(ctx, nav.ID, nil, res.Items)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetCategory, err)
	}

	uri := s.archive(ctx, job.ID, res.HTML)
	s.setMetadata(ctx, job.ID, catalog.JobMetadata{
		Category: &catalog.CategoryMeta{NavigationID: nav.ID, ItemsScraped: len(cats), SnapshotURI: uri},
	})

	if err := s.complete(ctx, job, catalog.TargetCategory, len(cats), true); err != nil {
		return nil, err
	}
	return cats, nil
}

// categoriesFresh reports whether a navigation's persisted category set is
// inside the TTL. The newest member speaks for the set, matching how the
// category scrape stamps every member together.
func (s *Scraper) categoriesFresh(cats []catalog.Category) bool {
	if len(cats) == 0 {
		return false
	}
	var newest *time.Time
	for i := range cats {
		t := cats[i].LastScrapedAt
		if t != nil && (newest == nil || t.After(*newest)) {
			newest = t
		}
	}
	return s.deps.Fresh.IsFresh(newest, s.deps.Clock.Now())
}

// ScrapeProducts fetches one page of a category's product list. When the
// category is still fresh the persisted page is returned without a network
// fetch; the job completes either way.
func (s *Scraper) ScrapeProducts(ctx context.Context, categoryID string, page, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = DefaultProductPageSize
	}
	if page <= 0 {
		page = 1
	}

	cat, err := s.deps.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, err)
	}

	job, err := s.deps.Tracker.Create(ctx, cat.URL, catalog.TargetProductList)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Tracker.Transition(ctx, job.ID, catalog.JobStatusProcessing, ""); err != nil {
		return nil, err
	}

	if s.deps.Fresh.IsFresh(cat.LastScrapedAt, s.deps.Clock.Now()) {
		metrics.ObserveCacheHit(string(catalog.TargetProductList))
		cached, err := s.deps.Products.ListByCategory(ctx, categoryID, limit, (page-1)*limit)
		if err != nil {
			return nil, s.fail(ctx, job.ID, catalog.TargetProductList, err)
		}
		if err := s.complete(ctx, job, catalog.TargetProductList, 0, false); err != nil {
			return nil, err
		}
		s.deps.Logger.Info("serving cached products", zap.String("category_id", categoryID))
		return cached, nil
	}

	url := fmt.Sprintf("%s?page=%d", cat.URL, page)
	res, err := s.fetchProducts(ctx, url)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetProductList, err)
	}

	items := res.Items
	if len(items) > limit {
		items = items[:limit]
	}
	products, err := s.deps.Engine.Products(ctx, categoryID, items)
	if err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetProductList, err)
	}

	now := s.deps.Clock.Now()
	cat.LastScrapedAt = &now
	if err := s.deps.Categories.Update(ctx, cat); err != nil {
		return nil, s.fail(ctx, job.ID, catalog.TargetProductList, err)
	}

	uri := s.archive(ctx, job.ID, res.HTML)
	s.setMetadata(ctx, job.ID, catalog.JobMetadata{
		ProductList: &catalog.ProductListMeta{
			CategoryID:   categoryID,
			Page:         page,
			Limit:        limit,
			ItemsScraped: len(products),
			SnapshotURI:  uri,
		},
	})

	if err := s.complete(ctx, job, catalog.TargetProductList, len(products), true); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("product scrape completed",
		zap.String("category_id", categoryID),
		zap.Int("items", len(products)),
	)
	return products, nil
}

// ScrapeProductDetail fetches a product's detail page, overwrites its detail
// row and replaces its review set. A fresh product with an existing detail
// row is served from the store without a fetch.
func (s *Scraper) ScrapeProductDetail(ctx context.Context, productID string) (catalog.ProductDetail, error) {
	product, err := s.deps.Products.GetByID(ctx, productID)
	if err != nil {
		return catalog.ProductDetail{}, fmt.Errorf("product %s: %w", productID, err)
	}

	job, err := s.deps.Tracker.Create(ctx, product.SourceURL, catalog.TargetProductDetail)
	if err != nil {
		return catalog.ProductDetail{}, err
	}
	if err := s.deps.Tracker.Transition(ctx, job.ID, catalog.JobStatusProcessing, ""); err != nil {
		return catalog.ProductDetail{}, err
	}

	if s.deps.Fresh.IsFresh(product.LastScrapedAt, s.deps.Clock.Now()) {
		if detail, err := s.deps.ProductDetails.GetByProduct(ctx, productID); err == nil {
			metrics.ObserveCacheHit(string(catalog.TargetProductDetail))
			if err := s.complete(ctx, job, catalog.TargetProductDetail, 0, false); err != nil {
				return catalog.ProductDetail{}, err
			}
			s.deps.Logger.Info("serving cached product detail", zap.String("product_id", productID))
			return detail, nil
		}
	}

	res, err := s.fetchDetail(ctx, product.SourceURL)
	if err != nil {
		return catalog.ProductDetail{}, s.fail(ctx, job.ID, catalog.TargetProductDetail, err)
	}

	detail, err := s.deps.Engine.Detail(ctx, productID, res.Page)
	if err != nil {
		return catalog.ProductDetail{}, s.fail(ctx, job.ID, catalog.TargetProductDetail, err)
	}
	reviews, err := s.deps.Engine.Reviews(ctx, productID, res.Page.Reviews)
	if err != nil {
		return catalog.ProductDetail{}, s.fail(ctx, job.ID, catalog.TargetProductDetail, err)
	}

	now := s.deps.Clock.Now()
	product.LastScrapedAt = &now
	if err := s.deps.Products.Update(ctx, product); err != nil {
		return catalog.ProductDetail{}, s.fail(ctx, job.ID, catalog.TargetProductDetail, err)
	}

	uri := s.archive(ctx, job.ID, res.HTML)
	s.setMetadata(ctx, job.ID, catalog.JobMetadata{
		ProductDetail: &catalog.ProductDetailMeta{
			ProductID:            productID,
			ReviewsScraped:       len(reviews),
			RecommendationsFound: len(res.Page.Recommendations),
			SnapshotURI:          uri,
		},
	})

	if err := s.complete(ctx, job, catalog.TargetProductDetail, 1, true); err != nil {
		return catalog.ProductDetail{}, err
	}
	s.deps.Logger.Info("product detail scrape completed",
		zap.String("product_id", productID),
		zap.Int("reviews", len(reviews)),
	)
	return detail, nil
}

func (s *Scraper) fetchOpts() catalog.FetchOptions {
	return catalog.FetchOptions{Timeout: s.cfg.FetchTimeout, MaxRetries: s.cfg.MaxRetries}
}

func (s *Scraper) fetchNavigation(ctx context.Context, url string) (catalog.NavigationResult, error) {
	start := time.Now()
	res, err := s.deps.Extractor.Navigation(ctx, url, s.fetchOpts())
	metrics.ObserveFetch(string(catalog.TargetNavigation), time.Since(start))
	if err != nil {
		return catalog.NavigationResult{}, fmt.Errorf("fetch navigation: %w", err)
	}
	return res, nil
}

func (s *Scraper) fetchCategories(ctx context.Context, url string) (catalog.CategoryResult, error) {
	start := time.Now()
	res, err := s.deps.Extractor.Categories(ctx, url, s.fetchOpts())
	metrics.ObserveFetch(string(catalog.TargetCategory), time.Since(start))
	if err != nil {
		return catalog.CategoryResult{}, fmt.Errorf("fetch categories: %w", err)
	}
	return res, nil
}

func (s *Scraper) fetchProducts(ctx context.Context, url string) (catalog.ProductResult, error) {
	start := time.Now()
	res, err := s.deps.Extractor.Products(ctx, url, s.fetchOpts())
	metrics.ObserveFetch(string(catalog.TargetProductList), time.Since(start))
	if err != nil {
		return catalog.ProductResult{}, fmt.Errorf("fetch products: %w", err)
	}
	return res, nil
}

func (s *Scraper) fetchDetail(ctx context.Context, url string) (catalog.DetailResult, error) {
	start := time.Now()
	res, err := s.deps.Extractor.Detail(ctx, url, s.fetchOpts())
	metrics.ObserveFetch(string(catalog.TargetProductDetail), time.Since(start))
	if err != nil {
		return catalog.DetailResult{}, fmt.Errorf("fetch detail: %w", err)
	}
	return res, nil
}

// fail records a terminal failure on the job, keeping the original error
// message verbatim in the job's error log, and hands the error back for the
// caller to propagate.
func (s *Scraper) fail(ctx context.Context, jobID string, target catalog.TargetType, cause error) error {
	if err := s.deps.Tracker.Transition(ctx, jobID, catalog.JobStatusFailed, cause.Error()); err != nil {
		s.deps.Logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	metrics.ObserveJob(string(target), string(catalog.JobStatusFailed))
	return cause
}

// complete applies the inter-request delay when a network fetch happened,
// transitions the job to COMPLETED and publishes the completion event.
func (s *Scraper) complete(ctx context.Context, job catalog.ScrapeJob, target catalog.TargetType, items int, fetched bool) error {
	if fetched {
		s.pause(ctx)
	}
	if err := s.deps.Tracker.Transition(ctx, job.ID, catalog.JobStatusCompleted, ""); err != nil {
		return err
	}
	metrics.ObserveJob(string(target), string(catalog.JobStatusCompleted))
	metrics.ObserveItems(string(target), items)
	s.publish(ctx, completionEvent{
		JobID:      job.ID,
		TargetType: string(target),
		TargetURL:  job.TargetURL,
		Items:      items,
	})
	return nil
}

func (s *Scraper) pause(ctx context.Context) {
	if s.cfg.Delay <= 0 {
		return
	}
	select {
	case <-time.After(s.cfg.Delay):
	case <-ctx.Done():
	}
}

func (s *Scraper) archive(ctx context.Context, jobID string, html []byte) string {
	if s.deps.Snapshots == nil || len(html) == 0 {
		return ""
	}
	path := fmt.Sprintf("%s/%s.html", s.cfg.SnapshotPrefix, jobID)
	uri, err := s.deps.Snapshots.PutObject(ctx, path, "text/html; charset=utf-8", html)
	if err != nil {
		s.deps.Logger.Warn("snapshot archive failed", zap.String("job_id", jobID), zap.Error(err))
		return ""
	}
	return uri
}

func (s *Scraper) setMetadata(ctx context.Context, jobID string, meta catalog.JobMetadata) {
	if err := s.deps.Tracker.SetMetadata(ctx, jobID, meta); err != nil {
		s.deps.Logger.Warn("failed to record job metadata", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *Scraper) publish(ctx context.Context, event completionEvent) {
	if s.deps.Publisher == nil {
		return
	}
	if _, err := s.deps.Publisher.Publish(ctx, s.cfg.Topic, event); err != nil {
		s.deps.Logger.Warn("completion event publish failed", zap.String("job_id", event.JobID), zap.Error(err))
	}
}
