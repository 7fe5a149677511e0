package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/jobs"
	"github.com/shelfscan/catalog-crawler/internal/metrics"
	"github.com/shelfscan/catalog-crawler/internal/policy/freshness"
	pubmemory "github.com/shelfscan/catalog-crawler/internal/publisher/memory"
	"github.com/shelfscan/catalog-crawler/internal/storage/memory"
	"github.com/shelfscan/catalog-crawler/internal/upsert"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	n int
}

func (g *seqIDs) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

// fakeExtractor returns canned results and counts fetches per target type.
type fakeExtractor struct {
	navigation func(url string) (catalog.NavigationResult, error)
	categories func(url string) (catalog.CategoryResult, error)
	products   func(url string) (catalog.ProductResult, error)
	detail     func(url string) (catalog.DetailResult, error)

	navigationCalls int
	categoryCalls   int
	productCalls    int
	detailCalls     int
}

func (f *fakeExtractor) Navigation(_ context.Context, url string, _ catalog.FetchOptions) (catalog.NavigationResult, error) {
	f.navigationCalls++
	if f.navigation == nil {
		return catalog.NavigationResult{}, nil
	}
	return f.navigation(url)
}

func (f *fakeExtractor) Categories(_ context.Context, url string, _ catalog.FetchOptions) (catalog.CategoryResult, error) {
	f.categoryCalls++
	if f.categories == nil {
		return catalog.CategoryResult{}, nil
	}
	return f.categories(url)
}

func (f *fakeExtractor) Products(_ context.Context, url string, _ catalog.FetchOptions) (catalog.ProductResult, error) {
	f.productCalls++
	if f.products == nil {
		return catalog.ProductResult{}, nil
	}
	return f.products(url)
}

func (f *fakeExtractor) Detail(_ context.Context, url string, _ catalog.FetchOptions) (catalog.DetailResult, error) {
	f.detailCalls++
	if f.detail == nil {
		return catalog.DetailResult{}, nil
	}
	return f.detail(url)
}

type fixture struct {
	scraper   *Scraper
	extractor *fakeExtractor
	navs      *memory.NavigationStore
	cats      *memory.CategoryStore
	products  *memory.ProductStore
	details   *memory.DetailStore
	reviews   *memory.ReviewStore
	jobStore  *memory.JobStore
	blobs     *memory.BlobStore
	publisher *pubmemory.Publisher
	clock     *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		extractor: &fakeExtractor{},
		navs:      memory.NewNavigationStore(),
		cats:      memory.NewCategoryStore(),
		products:  memory.NewProductStore(),
		details:   memory.NewDetailStore(),
		reviews:   memory.NewReviewStore(),
		jobStore:  memory.NewJobStore(),
		blobs:     memory.NewBlobStore(),
		publisher: pubmemory.New(),
		clock:     &fixedClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	ids := &seqIDs{}
	logger := zap.NewNop()

	engine := upsert.New(upsert.Config{
		Navigations:    f.navs,
		Categories:     f.cats,
		Products:       f.products,
		ProductDetails: f.details,
		Reviews:        f.reviews,
		Clock:          f.clock,
		IDs:            ids,
		Currency:       "GBP",
		Logger:         logger,
	})
	tracker := jobs.NewTracker(f.jobStore, f.clock, ids, logger)

	f.scraper = New(Config{
		BaseURL:        "https://www.worldofbooks.com",
		Delay:          0,
		FetchTimeout:   time.Second,
		MaxRetries:     0,
		SnapshotPrefix: "snapshots",
		Topic:          "scrape-events",
	}, Deps{
		Extractor:      f.extractor,
		Engine:         engine,
		Tracker:        tracker,
		Fresh:          freshness.New(24),
		Clock:          f.clock,
		Navigations:    f.navs,
		Categories:     f.cats,
		Products:       f.products,
		ProductDetails: f.details,
		Snapshots:      f.blobs,
		Publisher:      f.publisher,
		Logger:         logger,
	})
	return f
}

func (f *fixture) jobsByType(t *testing.T, target catalog.TargetType) []catalog.ScrapeJob {
	t.Helper()
	all, err := f.jobStore.List(context.Background(), 0)
	require.NoError(t, err)
	var out []catalog.ScrapeJob
	for _, job := range all {
		if job.TargetType == target {
			out = append(out, job)
		}
	}
	return out
}

func TestScrapeNavigation_UpsertsAndCompletes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.extractor.navigation = func(string) (catalog.NavigationResult, error) {
		return catalog.NavigationResult{
			Items: []catalog.NavigationItem{
				{Title: "Fiction Books", URL: "https://www.worldofbooks.com/en-gb/category/fiction-books"},
			},
			HTML: []byte("<html>nav</html>"),
		}, nil
	}

	navs, err := f.scraper.ScrapeNavigation(context.Background())
	require.NoError(t, err)
	require.Len(t, navs, 1)
	require.Equal(t, "fiction-books", navs[0].Slug)

	scrapeJobs := f.jobsByType(t, catalog.TargetNavigation)
	require.Len(t, scrapeJobs, 1)
	job := scrapeJobs[0]
	require.Equal(t, catalog.JobStatusCompleted, job.Status)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)
	require.NotNil(t, job.Metadata.Navigation)
	require.Equal(t, 1, job.Metadata.Navigation.ItemsScraped)
	require.Contains(t, job.Metadata.Navigation.SnapshotURI, "memory://snapshots/")

	events := f.publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, "scrape-events", events[0].Topic)
}

func TestScrapeNavigation_AlwaysRefetches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := f.clock.now
	require.NoError(t, f.navs.Create(context.Background(), catalog.Navigation{
		ID: "n1", Title: "Books", Slug: "books",
		URL:           "https://www.worldofbooks.com/en-gb/category/books",
		LastScrapedAt: &now,
	}))

	_, err := f.scraper.ScrapeNavigation(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.extractor.navigationCalls)
}

func TestScrapeNavigation_FailureMarksJobAndPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.extractor.navigation = func(string) (catalog.NavigationResult, error) {
		return catalog.NavigationResult{}, errors.New("connection reset by peer")
	}

	_, err := f.scraper.ScrapeNavigation(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset by peer")

	scrapeJobs := f.jobsByType(t, catalog.TargetNavigation)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusFailed, scrapeJobs[0].Status)
	require.Contains(t, scrapeJobs[0].ErrorLog, "connection reset by peer")
	require.NotNil(t, scrapeJobs[0].FinishedAt)
}

func TestScrapeCategories_EndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.navs.Create(ctx, catalog.Navigation{
		ID: "n1", Title: "Fiction", Slug: "fiction",
		URL: "https://www.worldofbooks.com/books/fiction",
	}))
	f.extractor.categories = func(string) (catalog.CategoryResult, error) {
		return catalog.CategoryResult{
			Items: []catalog.CategoryItem{
				{Title: "Romance", URL: "/books/fiction/romance", Count: 850},
			},
			HTML: []byte("<html>cats</html>"),
		}, nil
	}

	cats, err := f.scraper.ScrapeCategories(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, "romance", cats[0].Slug)
	require.Equal(t, 850, cats[0].ProductCount)
	require.NotNil(t, cats[0].LastScrapedAt)
	require.Equal(t, f.clock.now, *cats[0].LastScrapedAt)

	scrapeJobs := f.jobsByType(t, catalog.TargetCategory)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusCompleted, scrapeJobs[0].Status)
	require.NotNil(t, scrapeJobs[0].Metadata.Category)
	require.Equal(t, "n1", scrapeJobs[0].Metadata.Category.NavigationID)
}

func TestScrapeCategories_PartialFailureIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.navs.Create(ctx, catalog.Navigation{
		ID: "n1", Title: "Fiction", Slug: "fiction",
		URL: "https://www.worldofbooks.com/books/fiction",
	}))
	require.NoError(t, f.navs.Create(ctx, catalog.Navigation{
		ID: "n2", Title: "Non-Fiction", Slug: "non-fiction",
		URL: "https://www.worldofbooks.com/books/non-fiction",
	}))

	f.extractor.categories = func(url string) (catalog.CategoryResult, error) {
		if url == "https://www.worldofbooks.com/books/non-fiction" {
			return catalog.CategoryResult{}, errors.New("boom")
		}
		return catalog.CategoryResult{
			Items: []catalog.CategoryItem{{Title: "Romance", URL: "/books/fiction/romance", Count: 850}},
		}, nil
	}

	cats, err := f.scraper.ScrapeCategories(ctx, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)

	scrapeJobs := f.jobsByType(t, catalog.TargetCategory)
	require.Len(t, scrapeJobs, 2)

	byURL := make(map[string]catalog.ScrapeJob)
	for _, job := range scrapeJobs {
		byURL[job.TargetURL] = job
	}
	require.Equal(t, catalog.JobStatusCompleted, byURL["https://www.worldofbooks.com/books/fiction"].Status)
	failed := byURL["https://www.worldofbooks.com/books/non-fiction"]
	require.Equal(t, catalog.JobStatusFailed, failed.Status)
	require.Contains(t, failed.ErrorLog, "boom")
}

func TestScrapeCategories_FreshSetServedFromStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.now
	require.NoError(t, f.navs.Create(ctx, catalog.Navigation{
		ID: "n1", Title: "Fiction", Slug: "fiction",
		URL: "https://www.worldofbooks.com/books/fiction",
	}))
	require.NoError(t, f.cats.Create(ctx, catalog.Category{
		ID: "c1", NavigationID: "n1", Title: "Romance", Slug: "romance",
		URL: "https://www.worldofbooks.com/books/fiction/romance", ProductCount: 850,
		LastScrapedAt: &now,
	}))

	cats, err := f.scraper.ScrapeCategories(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, 0, f.extractor.categoryCalls)

	scrapeJobs := f.jobsByType(t, catalog.TargetCategory)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusCompleted, scrapeJobs[0].Status)
}

func TestScrapeCategories_UnknownNavigation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.scraper.ScrapeCategories(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.Empty(t, f.jobsByType(t, catalog.TargetCategory))
}

func TestScrapeProducts_FetchAndUpsert(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cats.Create(ctx, catalog.Category{
		ID: "c1", NavigationID: "n1", Title: "Romance", Slug: "romance",
		URL: "https://www.worldofbooks.com/books/fiction/romance",
	}))

	var fetchedURL string
	f.extractor.products = func(url string) (catalog.ProductResult, error) {
		fetchedURL = url
		return catalog.ProductResult{
			Items: []catalog.ProductItem{{
				Title:     "The Midnight Library",
				Price:     "£7.99",
				SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
				Author:    "Matt Haig",
			}},
		}, nil
	}

	products, err := f.scraper.ScrapeProducts(ctx, "c1", 2, 20)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "GOR010832127", products[0].SourceID)
	require.Equal(t, "https://www.worldofbooks.com/books/fiction/romance?page=2", fetchedURL)

	// Product scrape refreshes the category's freshness stamp.
	cat, err := f.cats.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, cat.LastScrapedAt)

	scrapeJobs := f.jobsByType(t, catalog.TargetProductList)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusCompleted, scrapeJobs[0].Status)
	require.NotNil(t, scrapeJobs[0].Metadata.ProductList)
	require.Equal(t, 2, scrapeJobs[0].Metadata.ProductList.Page)
}

func TestScrapeProducts_FreshCategoryServedFromStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.now
	require.NoError(t, f.cats.Create(ctx, catalog.Category{
		ID: "c1", NavigationID: "n1", Title: "Romance", Slug: "romance",
		URL:           "https://www.worldofbooks.com/books/fiction/romance",
		LastScrapedAt: &now,
	}))
	require.NoError(t, f.products.Create(ctx, catalog.Product{
		ID: "p1", CategoryID: "c1", SourceID: "GOR001", Title: "Cached Book",
	}))

	products, err := f.scraper.ScrapeProducts(ctx, "c1", 1, 20)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Cached Book", products[0].Title)
	require.Equal(t, 0, f.extractor.productCalls)

	scrapeJobs := f.jobsByType(t, catalog.TargetProductList)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusCompleted, scrapeJobs[0].Status)
}

func TestScrapeProducts_UnknownCategory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.scraper.ScrapeProducts(context.Background(), "missing", 1, 20)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.Empty(t, f.jobsByType(t, catalog.TargetProductList))
}

func TestScrapeProductDetail_FetchReplacesDetailAndReviews(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.products.Create(ctx, catalog.Product{
		ID: "p1", CategoryID: "c1", SourceID: "GOR001",
		Title:     "The Midnight Library",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR001",
	}))
	require.NoError(t, f.reviews.ReplaceForProduct(ctx, "p1", []catalog.Review{
		{ID: "old-1", ProductID: "p1", Author: "old", Rating: 1},
		{ID: "old-2", ProductID: "p1", Author: "older", Rating: 2},
		{ID: "old-3", ProductID: "p1", Author: "oldest", Rating: 3},
	}))

	f.extractor.detail = func(string) (catalog.DetailResult, error) {
		return catalog.DetailResult{
			Page: catalog.DetailPage{
				Description:     "A novel about choices.",
				RatingsAvg:      4.5,
				ReviewsCount:    0,
				Publisher:       "Canongate",
				Recommendations: []string{"https://www.worldofbooks.com/en-gb/books/GOR002"},
			},
		}, nil
	}

	detail, err := f.scraper.ScrapeProductDetail(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "A novel about choices.", detail.Description)

	// A scrape returning zero reviews erases the prior review history.
	reviews, err := f.reviews.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, reviews)

	product, err := f.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, product.LastScrapedAt)

	scrapeJobs := f.jobsByType(t, catalog.TargetProductDetail)
	require.Len(t, scrapeJobs, 1)
	require.Equal(t, catalog.JobStatusCompleted, scrapeJobs[0].Status)
	require.NotNil(t, scrapeJobs[0].Metadata.ProductDetail)
	require.Equal(t, 1, scrapeJobs[0].Metadata.ProductDetail.RecommendationsFound)
}

func TestScrapeProductDetail_FreshProductServedFromStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.now
	require.NoError(t, f.products.Create(ctx, catalog.Product{
		ID: "p1", CategoryID: "c1", SourceID: "GOR001",
		SourceURL:     "https://www.worldofbooks.com/en-gb/books/GOR001",
		LastScrapedAt: &now,
	}))
	require.NoError(t, f.details.Create(ctx, catalog.ProductDetail{
		ID: "d1", ProductID: "p1", Description: "Cached description.",
	}))

	detail, err := f.scraper.ScrapeProductDetail(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Cached description.", detail.Description)
	require.Equal(t, 0, f.extractor.detailCalls)
}

func TestScrapeProductDetail_FreshProductWithoutDetailStillFetches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.now
	require.NoError(t, f.products.Create(ctx, catalog.Product{
		ID: "p1", CategoryID: "c1", SourceID: "GOR001",
		SourceURL:     "https://www.worldofbooks.com/en-gb/books/GOR001",
		LastScrapedAt: &now,
	}))
	f.extractor.detail = func(string) (catalog.DetailResult, error) {
		return catalog.DetailResult{Page: catalog.DetailPage{Description: "Fetched."}}, nil
	}

	detail, err := f.scraper.ScrapeProductDetail(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Fetched.", detail.Description)
	require.Equal(t, 1, f.extractor.detailCalls)
}
