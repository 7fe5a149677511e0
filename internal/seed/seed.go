// Package seed loads development fixtures into the catalog stores so the
// read API has data before any scrape has run.
package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

// Stores lists the stores the fixtures are written to.
type Stores struct {
	Navigations catalog.NavigationStore
	Categories  catalog.CategoryStore
	Products    catalog.ProductStore
	Details     catalog.ProductDetailStore
	Reviews     catalog.ReviewStore
}

type navFixture struct {
	title string
	slug  string
	url   string
}

type catFixture struct {
	navSlug    string
	parentSlug string
	title      string
	slug       string
	url        string
	count      int
}

type productFixture struct {
	catSlug  string
	sourceID string
	title    string
	author   string
	price    float64
	url      string
}

type detailFixture struct {
	sourceID    string
	description string
	publisher   string
	isbn        string
	published   string
	ratingsAvg  float64
	reviews     int
	specs       map[string]string
}

type reviewFixture struct {
	sourceID string
	author   string
	rating   int
	text     string
}

var navFixtures = []navFixture{
	{"Books", "books", "https://www.worldofbooks.com/en-gb/books"},
	{"Fiction", "fiction", "https://www.worldofbooks.com/en-gb/books/fiction"},
	{"Non-Fiction", "non-fiction", "https://www.worldofbooks.com/en-gb/books/non-fiction"},
	{"Children's Books", "childrens-books", "https://www.worldofbooks.com/en-gb/books/childrens"},
}

var catFixtures = []catFixture{
	{"fiction", "", "All Fiction", "fiction", "https://www.worldofbooks.com/en-gb/books/fiction", 3800},
	{"fiction", "fiction", "Crime & Thriller", "crime-thriller", "https://www.worldofbooks.com/en-gb/books/fiction/crime-thriller", 1250},
	{"fiction", "fiction", "Science Fiction & Fantasy", "science-fiction-fantasy", "https://www.worldofbooks.com/en-gb/books/fiction/sci-fi-fantasy", 980},
	{"fiction", "fiction", "Romance", "romance", "https://www.worldofbooks.com/en-gb/books/fiction/romance", 850},
	{"non-fiction", "", "All Non-Fiction", "non-fiction", "https://www.worldofbooks.com/en-gb/books/non-fiction", 1970},
	{"non-fiction", "non-fiction", "History", "history", "https://www.worldofbooks.com/en-gb/books/non-fiction/history", 780},
	{"childrens-books", "", "All Children's Books", "childrens-books", "https://www.worldofbooks.com/en-gb/books/childrens", 1600},
	{"childrens-books", "childrens-books", "Picture Books", "picture-books", "https://www.worldofbooks.com/en-gb/books/childrens/picture-books", 920},
}

var productFixtures = []productFixture{
	{"crime-thriller", "GOR010832127", "The Thursday Murder Club", "Richard Osman", 8.99,
		"https://www.worldofbooks.com/en-gb/books/richard-osman/thursday-murder-club/GOR010832127"},
	{"crime-thriller", "GOR006932970", "The Girl on the Train", "Paula Hawkins", 7.49,
		"https://www.worldofbooks.com/en-gb/books/paula-hawkins/girl-on-the-train/GOR006932970"},
	{"science-fiction-fantasy", "GOR001176308", "The Lord of the Rings", "J.R.R. Tolkien", 12.99,
		"https://www.worldofbooks.com/en-gb/books/j-r-r-tolkien/lord-of-the-rings/GOR001176308"},
	{"romance", "GOR008854677", "It Ends with Us", "Colleen Hoover", 7.99,
		"https://www.worldofbooks.com/en-gb/books/colleen-hoover/it-ends-with-us/GOR008854677"},
	{"history", "GOR006808323", "Sapiens: A Brief History of Humankind", "Yuval Noah Harari", 9.99,
		"https://www.worldofbooks.com/en-gb/books/yuval-noah-harari/sapiens/GOR006808323"},
	{"picture-books", "GOR001198655", "The Gruffalo", "Julia Donaldson", 5.99,
		"https://www.worldofbooks.com/en-gb/books/julia-donaldson/the-gruffalo/GOR001198655"},
}

var detailFixtures = []detailFixture{
	{
		sourceID:    "GOR010832127",
		description: "Four unlikely friends meet weekly to investigate unsolved murders. But when a brutal killing takes place on their very doorstep, the Thursday Murder Club find themselves in the middle of their first live case.",
		publisher:   "Penguin Books",
		isbn:        "9780241956830",
		published:   "2020-09-03",
		ratingsAvg:  4.5,
		reviews:     1250,
		specs:       map[string]string{"Format": "Paperback", "Pages": "400", "Language": "English"},
	},
	{
		sourceID:    "GOR001176308",
		description: "One Ring to rule them all, One Ring to find them, One Ring to bring them all and in the darkness bind them.",
		publisher:   "HarperCollins",
		isbn:        "9780261102354",
		published:   "1954-07-29",
		ratingsAvg:  4.8,
		reviews:     5800,
		specs:       map[string]string{"Format": "Paperback", "Pages": "1178", "Language": "English"},
	},
	{
		sourceID:    "GOR006808323",
		description: "In this bold and provocative book, Yuval Noah Harari explores who we are, how we got here and where we're going.",
		publisher:   "Vintage",
		isbn:        "9780099599086",
		published:   "2014-09-04",
		ratingsAvg:  4.6,
		reviews:     7500,
		specs:       map[string]string{"Format": "Paperback", "Pages": "512", "Language": "English"},
	},
}

var reviewFixtures = []reviewFixture{
	{"GOR010832127", "BookLover123", 5, "Absolutely brilliant! A perfect blend of mystery, humor, and heart."},
	{"GOR010832127", "MysteryFan", 4, "Really enjoyed this cozy mystery. The elderly sleuths are charming and the writing is witty."},
	{"GOR001176308", "FantasyReader", 5, "The ultimate fantasy epic. Tolkien created a world so rich and detailed, it feels real."},
	{"GOR006808323", "HistoryBuff", 5, "Mind-blowing perspective on human history. Harari makes complex ideas accessible and engaging."},
}

// Load writes the fixture rows. It is not idempotent and is meant for fresh
// in-memory stores at startup.
func Load(ctx context.Context, stores Stores, ids catalog.IDGenerator, logger *zap.Logger) error {
	scrapedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	navsBySlug := make(map[string]string, len(navFixtures))
	for _, f := range navFixtures {
		id, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		nav := catalog.Navigation{
			ID:            id,
			Title:         f.title,
			Slug:          f.slug,
			URL:           f.url,
			LastScrapedAt: &scrapedAt,
		}
		if err := stores.Navigations.Create(ctx, nav); err != nil {
			return fmt.Errorf("seed navigation %s: %w", f.slug, err)
		}
		navsBySlug[f.slug] = id
	}

	catsBySlug := make(map[string]string, len(catFixtures))
	for _, f := range catFixtures {
		id, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		var parentID *string
		if f.parentSlug != "" {
			pid, ok := catsBySlug[f.parentSlug]
			if !ok {
				return fmt.Errorf("seed category %s: parent %s not seeded", f.slug, f.parentSlug)
			}
			parentID = &pid
		}
		cat := catalog.Category{
			ID:            id,
			NavigationID:  navsBySlug[f.navSlug],
			ParentID:      parentID,
			Title:         f.title,
			Slug:          f.slug,
			URL:           f.url,
			ProductCount:  f.count,
			LastScrapedAt: &scrapedAt,
		}
		if err := stores.Categories.Create(ctx, cat); err != nil {
			return fmt.Errorf("seed category %s: %w", f.slug, err)
		}
		catsBySlug[f.slug] = id
	}

	productsBySourceID := make(map[string]string, len(productFixtures))
	for _, f := range productFixtures {
		id, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		price := f.price
		p := catalog.Product{
			ID:            id,
			CategoryID:    catsBySlug[f.catSlug],
			SourceID:      f.sourceID,
			Title:         f.title,
			Author:        f.author,
			Price:         &price,
			Currency:      "GBP",
			SourceURL:     f.url,
			LastScrapedAt: &scrapedAt,
		}
		if err := stores.Products.Create(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", f.sourceID, err)
		}
		productsBySourceID[f.sourceID] = id
	}

	for _, f := range detailFixtures {
		id, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		d := catalog.ProductDetail{
			ID:              id,
			ProductID:       productsBySourceID[f.sourceID],
			Description:     f.description,
			Specs:           f.specs,
			RatingsAvg:      f.ratingsAvg,
			ReviewsCount:    f.reviews,
			Publisher:       f.publisher,
			ISBN:            f.isbn,
			PublicationDate: f.published,
		}
		if err := stores.Details.Create(ctx, d); err != nil {
			return fmt.Errorf("seed detail %s: %w", f.sourceID, err)
		}
	}

	reviewsByProduct := make(map[string][]catalog.Review)
	for _, f := range reviewFixtures {
		id, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		productID := productsBySourceID[f.sourceID]
		reviewsByProduct[productID] = append(reviewsByProduct[productID], catalog.Review{
			ID:         id,
			ProductID:  productID,
			Author:     f.author,
			Rating:     f.rating,
			Text:       f.text,
			ReviewedAt: scrapedAt,
		})
	}
	for productID, reviews := range reviewsByProduct {
		if err := stores.Reviews.ReplaceForProduct(ctx, productID, reviews); err != nil {
			return fmt.Errorf("seed reviews for %s: %w", productID, err)
		}
	}

	logger.Info("fixtures loaded",
		zap.Int("navigations", len(navFixtures)),
		zap.Int("categories", len(catFixtures)),
		zap.Int("products", len(productFixtures)),
		zap.Int("reviews", len(reviewFixtures)),
	)
	return nil
}
