package upsert

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/storage/memory"
)

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

type engineFixture struct {
	engine   *Engine
	navs     *memory.NavigationStore
	cats     *memory.CategoryStore
	products *memory.ProductStore
	details  *memory.DetailStore
	reviews  *memory.ReviewStore
	clock    *fixedClock
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		navs:     memory.NewNavigationStore(),
		cats:     memory.NewCategoryStore(),
		products: memory.NewProductStore(),
		details:  memory.NewDetailStore(),
		reviews:  memory.NewReviewStore(),
		clock:    &fixedClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.engine = New(Config{
		Navigations:    f.navs,
		Categories:     f.cats,
		Products:       f.products,
		ProductDetails: f.details,
		Reviews:        f.reviews,
		Clock:          f.clock,
		IDs:            &seqIDs{},
		Currency:       "GBP",
		Logger:         zap.NewNop(),
	})
	return f
}

func TestNavigations_IdempotentBySlug(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	items := []catalog.NavigationItem{
		{Title: "Fiction Books", URL: "https://www.worldofbooks.com/en-gb/category/fiction-books"},
		{Title: "Children's Books", URL: "https://www.worldofbooks.com/en-gb/category/childrens-books"},
	}

	first, err := f.engine.Navigations(ctx, items)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "fiction-books", first[0].Slug)
	require.Equal(t, "childrens-books", first[1].Slug)

	f.clock.now = f.clock.now.Add(time.Hour)
	second, err := f.engine.Navigations(ctx, items)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, first[1].ID, second[1].ID)

	all, err := f.navs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, f.clock.now, *all[0].LastScrapedAt)
}

func TestNavigations_RescrapeKeepsStoredTitle(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Navigations(ctx, []catalog.NavigationItem{
		{Title: "Children's Books", URL: "https://www.worldofbooks.com/en-gb/category/childrens-books"},
	})
	require.NoError(t, err)

	// A differently cased title lands on the same slug; only the URL and
	// timestamp move.
	second, err := f.engine.Navigations(ctx, []catalog.NavigationItem{
		{Title: "children's books", URL: "https://www.worldofbooks.com/en-gb/childrens-books"},
	})
	require.NoError(t, err)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, "Children's Books", second[0].Title)
	require.Equal(t, "https://www.worldofbooks.com/en-gb/childrens-books", second[0].URL)
}

func TestNavigations_SkipsEmptySlug(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	out, err := f.engine.Navigations(context.Background(), []catalog.NavigationItem{
		{Title: "!!!", URL: "https://www.worldofbooks.com/x"},
		{Title: "Books", URL: "https://www.worldofbooks.com/en-gb/category/books"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "books", out[0].Slug)
}

func TestCategories_SlugScopedToNavigation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	items := []catalog.CategoryItem{{Title: "Romance", URL: "https://www.worldofbooks.com/romance", Count: 850}}

	inNav1, err := f.engine.Categories(ctx, "nav-1", nil, items)
	require.NoError(t, err)
	inNav2, err := f.engine.Categories(ctx, "nav-2", nil, items)
	require.NoError(t, err)

	require.NotEqual(t, inNav1[0].ID, inNav2[0].ID)
	require.Equal(t, "romance", inNav1[0].Slug)
	require.Equal(t, 850, inNav1[0].ProductCount)

	again, err := f.engine.Categories(ctx, "nav-1", nil, []catalog.CategoryItem{
		{Title: "Romance", URL: "https://www.worldofbooks.com/romance", Count: 900},
	})
	require.NoError(t, err)
	require.Equal(t, inNav1[0].ID, again[0].ID)
	require.Equal(t, 900, again[0].ProductCount)
}

func TestProducts_RescrapeRefreshesOnlyPriceAndTimestamp(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Products(ctx, "cat-1", []catalog.ProductItem{{
		Title:     "The Midnight Library",
		Author:    "Matt Haig",
		Price:     "£7.99",
		ImageURL:  "https://img.example/midnight.jpg",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
	}})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "GOR010832127", first[0].SourceID)
	require.NotNil(t, first[0].Price)
	require.InDelta(t, 7.99, *first[0].Price, 0.001)
	require.Equal(t, "GBP", first[0].Currency)

	f.clock.now = f.clock.now.Add(time.Hour)
	second, err := f.engine.Products(ctx, "cat-1", []catalog.ProductItem{{
		Title:     "The Midnight Library (New Edition)",
		Author:    "Someone Else",
		Price:     "£5.49",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
	}})
	require.NoError(t, err)
	require.Equal(t, first[0].ID, second[0].ID)
	require.InDelta(t, 5.49, *second[0].Price, 0.001)
	// Descriptive fields keep their original values on re-scrape.
	require.Equal(t, "The Midnight Library", second[0].Title)
	require.Equal(t, "Matt Haig", second[0].Author)
	require.Equal(t, f.clock.now, *second[0].LastScrapedAt)
}

func TestProducts_RescrapeWithUnparsablePriceKeepsStoredPrice(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Products(ctx, "cat-1", []catalog.ProductItem{{
		Title:     "The Midnight Library",
		Price:     "£7.99",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
	}})
	require.NoError(t, err)
	require.NotNil(t, first[0].Price)

	f.clock.now = f.clock.now.Add(time.Hour)
	second, err := f.engine.Products(ctx, "cat-1", []catalog.ProductItem{{
		Title:     "The Midnight Library",
		Price:     "",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
	}})
	require.NoError(t, err)
	require.NotNil(t, second[0].Price)
	require.InDelta(t, 7.99, *second[0].Price, 0.001)
	require.Equal(t, f.clock.now, *second[0].LastScrapedAt)

	third, err := f.engine.Products(ctx, "cat-1", []catalog.ProductItem{{
		Title:     "The Midnight Library",
		Price:     "Out of stock",
		SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR010832127",
	}})
	require.NoError(t, err)
	require.NotNil(t, third[0].Price)
	require.InDelta(t, 7.99, *third[0].Price, 0.001)
}

func TestProducts_SkipsCardsWithoutSourceID(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)

	out, err := f.engine.Products(context.Background(), "cat-1", []catalog.ProductItem{
		{Title: "No URL", SourceURL: ""},
		{Title: "Good", Price: "£3.00", SourceURL: "https://www.worldofbooks.com/en-gb/books/GOR001"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "GOR001", out[0].SourceID)
}

func TestDetail_OverwritesInPlace(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Detail(ctx, "p1", catalog.DetailPage{
		Description: "A novel about choices.",
		RatingsAvg:  4.5,
		Publisher:   "Canongate",
	})
	require.NoError(t, err)

	second, err := f.engine.Detail(ctx, "p1", catalog.DetailPage{
		Description: "Updated description.",
		RatingsAvg:  4.2,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	stored, err := f.details.GetByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Updated description.", stored.Description)
	require.InDelta(t, 4.2, stored.RatingsAvg, 0.001)
	require.Empty(t, stored.Publisher)
}

func TestReviews_ReplacedWholesale(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Reviews(ctx, "p1", []catalog.ReviewItem{
		{Author: "alice", Rating: 5, Text: "loved it"},
		{Author: "bob", Rating: 2, Text: "not for me"},
	})
	require.NoError(t, err)

	out, err := f.engine.Reviews(ctx, "p1", []catalog.ReviewItem{
		{Author: "carol", Rating: 4, Text: "solid"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	stored, err := f.reviews.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "carol", stored[0].Author)
}
