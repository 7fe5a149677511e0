// Package upsert maps extracted records onto persisted catalog entities.
package upsert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/extractor"
	"github.com/shelfscan/catalog-crawler/internal/normalize"
)

// Engine performs find-or-create writes keyed by natural keys: navigation
// slug, (navigation, category slug) and product sourceId. Re-running the same
// input against the same state produces no duplicates.
type Engine struct {
	navs     catalog.NavigationStore
	cats     catalog.CategoryStore
	products catalog.ProductStore
	details  catalog.ProductDetailStore
	reviews  catalog.ReviewStore
	clock    catalog.Clock
	ids      catalog.IDGenerator
	currency string
	logger   *zap.Logger
}

// Config wires the engine's stores and collaborators.
type Config struct {
	Navigations    catalog.NavigationStore
	Categories     catalog.CategoryStore
	Products       catalog.ProductStore
	ProductDetails catalog.ProductDetailStore
	Reviews        catalog.ReviewStore
	Clock          catalog.Clock
	IDs            catalog.IDGenerator
	Currency       string
	Logger         *zap.Logger
}

// New constructs an Engine.
func New(cfg Config) *Engine {
	return &Engine{
		navs:     cfg.Navigations,
		cats:     cfg.Categories,
		products: cfg.Products,
		details:  cfg.ProductDetails,
		reviews:  cfg.Reviews,
		clock:    cfg.Clock,
		ids:      cfg.IDs,
		currency: cfg.Currency,
		logger:   cfg.Logger,
	}
}

// Navigations upserts extracted navigation items keyed by slug. Existing rows
// keep their identity and get a refreshed URL and scrape timestamp. Items
// whose title slugifies to nothing are skipped.
func (e *Engine) Navigations(ctx context.Context, items []catalog.NavigationItem) ([]catalog.Navigation, error) {
	now := e.clock.Now()
	out := make([]catalog.Navigation, 0, len(items))
	for _, item := range items {
		slug := normalize.Slugify(item.Title)
		if slug == "" {
			e.logger.Warn("skipping navigation item with empty slug", zap.String("title", item.Title))
			continue
		}
		nav, err := e.navs.GetBySlug(ctx, slug)
		switch {
		case err == nil:
			nav.URL = item.URL
			nav.LastScrapedAt = &now
			if err := e.navs.Update(ctx, nav); err != nil {
				return nil, fmt.Errorf("update navigation %s: %w", slug, err)
			}
		case errors.Is(err, catalog.ErrNotFound):
			id, err := e.ids.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate navigation id: %w", err)
			}
			nav = catalog.Navigation{
				ID:            id,
				Title:         item.Title,
				Slug:          slug,
				URL:           item.URL,
				LastScrapedAt: &now,
			}
			if err := e.navs.Create(ctx, nav); err != nil {
				return nil, fmt.Errorf("create navigation %s: %w", slug, err)
			}
		default:
			return nil, fmt.Errorf("lookup navigation %s: %w", slug, err)
		}
		out = append(out, nav)
	}
	return out, nil
}

// Categories upserts extracted category items under one navigation. Slugs are
// scoped to the navigation; existing rows get a refreshed product count, URL
// and scrape timestamp.
func (e *Engine) Categories(ctx context.Context, navigationID string, parentID *string, items []catalog.CategoryItem) ([]catalog.Category, error) {
	now := e.clock.Now()
	out := make([]catalog.Category, 0, len(items))
	for _, item := range items {
		slug := normalize.Slugify(item.Title)
		if slug == "" {
			e.logger.Warn("skipping category item with empty slug", zap.String("title", item.Title))
			continue
		}
		cat, err := e.cats.GetBySlug(ctx, navigationID, slug)
		switch {
		case err == nil:
			cat.URL = item.URL
			cat.ProductCount = item.Count
			cat.LastScrapedAt = &now
			if err := e.cats.Update(ctx, cat); err != nil {
				return nil, fmt.Errorf("update category %s: %w", slug, err)
			}
		case errors.Is(err, catalog.ErrNotFound):
			id, err := e.ids.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate category id: %w", err)
			}
			cat = catalog.Category{
				ID:            id,
				NavigationID:  navigationID,
				ParentID:      parentID,
				Title:         item.Title,
				Slug:          slug,
				URL:           item.URL,
				ProductCount:  item.Count,
				LastScrapedAt: &now,
			}
			if err := e.cats.Create(ctx, cat); err != nil {
				return nil, fmt.Errorf("create category %s: %w", slug, err)
			}
		default:
			return nil, fmt.Errorf("lookup category %s: %w", slug, err)
		}
		out = append(out, cat)
	}
	return out, nil
}

// Products upserts extracted product cards under one category, keyed by the
// sourceId derived from each card's URL. Existing rows keep their descriptive
// fields and get only a refreshed price and scrape timestamp. Cards without a
// derivable sourceId are skipped.
func (e *Engine) Products(ctx context.Context, categoryID string, items []catalog.ProductItem) ([]catalog.Product, error) {
	now := e.clock.Now()
	out := make([]catalog.Product, 0, len(items))
	for _, item := range items {
		sourceID := normalize.SourceID(item.SourceURL)
		if sourceID == "" {
			e.logger.Warn("skipping product card without source id", zap.String("url", item.SourceURL))
			continue
		}
		p, err := e.products.GetBySourceID(ctx, sourceID)
		switch {
		case err == nil:
			// An unparsable price on re-scrape keeps the stored value.
			if price := extractor.ParsePrice(item.Price); price != nil {
				p.Price = price
			}
			p.LastScrapedAt = &now
			if err := e.products.Update(ctx, p); err != nil {
				return nil, fmt.Errorf("update product %s: %w", sourceID, err)
			}
		case errors.Is(err, catalog.ErrNotFound):
			id, err := e.ids.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate product id: %w", err)
			}
			p = catalog.Product{
				ID:            id,
				CategoryID:    categoryID,
				SourceID:      sourceID,
				Title:         item.Title,
				Author:        item.Author,
				Price:         extractor.ParsePrice(item.Price),
				Currency:      e.currency,
				ImageURL:      item.ImageURL,
				SourceURL:     item.SourceURL,
				LastScrapedAt: &now,
			}
			if err := e.products.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("create product %s: %w", sourceID, err)
			}
		default:
			return nil, fmt.Errorf("lookup product %s: %w", sourceID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Detail overwrites the product's detail row in place, creating it on first
// scrape. No history is retained.
func (e *Engine) Detail(ctx context.Context, productID string, page catalog.DetailPage) (catalog.ProductDetail, error) {
	detail := catalog.ProductDetail{
		ProductID:       productID,
		Description:     page.Description,
		Specs:           page.Specs,
		RatingsAvg:      page.RatingsAvg,
		ReviewsCount:    page.ReviewsCount,
		Publisher:       page.Publisher,
		ISBN:            page.ISBN,
		PublicationDate: page.PublicationDate,
		Recommendations: page.Recommendations,
	}

	existing, err := e.details.GetByProduct(ctx, productID)
	switch {
	case err == nil:
		detail.ID = existing.ID
		if err := e.details.Update(ctx, detail); err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("update detail for %s: %w", productID, err)
		}
	case errors.Is(err, catalog.ErrNotFound):
		id, err := e.ids.NewID()
		if err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("generate detail id: %w", err)
		}
		detail.ID = id
		if err := e.details.Create(ctx, detail); err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("create detail for %s: %w", productID, err)
		}
	default:
		return catalog.ProductDetail{}, fmt.Errorf("lookup detail for %s: %w", productID, err)
	}
	return detail, nil
}

// Reviews replaces the product's entire review set with the extracted one.
// Each scrape produces fresh review rows; an empty extraction erases prior
// history.
func (e *Engine) Reviews(ctx context.Context, productID string, items []catalog.ReviewItem) ([]catalog.Review, error) {
	now := e.clock.Now()
	reviews := make([]catalog.Review, 0, len(items))
	for _, item := range items {
		id, err := e.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate review id: %w", err)
		}
		reviews = append(reviews, catalog.Review{
			ID:         id,
			ProductID:  productID,
			Author:     item.Author,
			Rating:     item.Rating,
			Text:       item.Text,
			ReviewedAt: now,
		})
	}
	if err := e.reviews.ReplaceForProduct(ctx, productID, reviews); err != nil {
		return nil, fmt.Errorf("replace reviews for %s: %w", productID, err)
	}
	return reviews, nil
}
