package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/normalize"
)

// Selector sets for the scraped storefront. Each lists the site's primary
// markup first, then the fallbacks seen on older page templates.
const (
	navigationLinkSelector = "nav a, header a, .navigation a, .menu a"
	categoryLinkSelector   = ".category-list a, .categories a, .filter a, aside a"
	productCardSelector    = ".product-card, .product-item, .product, [data-product]"
	reviewSelector         = ".review, .review-item, [data-review]"
	recommendationSelector = ".recommended-products a, .related-products a"
)

var (
	parenCountRe = regexp.MustCompile(`\((\d+)\)`)
	isbnCleanRe  = regexp.MustCompile(`[^0-9X]`)
)

// ParseNavigationPage extracts navigation menu entries from rendered HTML.
// Relative hrefs are resolved against baseURL; entries missing a title or URL
// are dropped.
func ParseNavigationPage(html []byte, baseURL string) ([]catalog.NavigationItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse navigation page: %w", err)
	}

	seen := make(map[string]bool)
	var items []catalog.NavigationItem
	doc.Find(navigationLinkSelector).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		url := normalize.AbsoluteURL(baseURL, href)
		if title == "" || len(title) >= 100 || url == "" || seen[url] {
			return
		}
		// Utility links live in the same menus as the taxonomy.
		if strings.Contains(url, "account") || strings.Contains(url, "login") || strings.Contains(url, "cart") {
			return
		}
		seen[url] = true
		items = append(items, catalog.NavigationItem{Title: title, URL: url})
	})
	return items, nil
}

// ParseCategoryPage extracts category links from rendered HTML. The product
// count is read from a parenthesized number in the link text when present.
func ParseCategoryPage(html []byte, baseURL string) ([]catalog.CategoryItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse category page: %w", err)
	}

	seen := make(map[string]bool)
	var items []catalog.CategoryItem
	doc.Find(categoryLinkSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		url := normalize.AbsoluteURL(baseURL, href)
		if text == "" || url == "" || seen[url] {
			return
		}
		seen[url] = true

		count := 0
		if m := parenCountRe.FindStringSubmatch(text); m != nil {
			count = ParseCount(m[1])
		}
		items = append(items, catalog.CategoryItem{Title: text, URL: url, Count: count})
	})
	return items, nil
}

// ParseProductPage extracts product cards from rendered HTML. Prices stay raw
// text; parsing happens at upsert time.
func ParseProductPage(html []byte, baseURL string) ([]catalog.ProductItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse product page: %w", err)
	}

	var items []catalog.ProductItem
	doc.Find(productCardSelector).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h2, h3, .title, .product-title").First().Text())
		price := strings.TrimSpace(card.Find(".price, .product-price, [data-price]").First().Text())
		author := strings.TrimSpace(card.Find(".author, .product-author").First().Text())

		img := card.Find("img").First()
		imageURL, ok := img.Attr("src")
		if !ok || imageURL == "" {
			imageURL, _ = img.Attr("data-src")
		}

		href, _ := card.Find("a").First().Attr("href")
		sourceURL := normalize.AbsoluteURL(baseURL, href)
		if title == "" || sourceURL == "" {
			return
		}
		items = append(items, catalog.ProductItem{
			Title:     title,
			Price:     price,
			ImageURL:  normalize.AbsoluteURL(baseURL, imageURL),
			SourceURL: sourceURL,
			Author:    author,
		})
	})
	return items, nil
}

// ParseDetailPage extracts a product detail page: the core description
// fields, the full review list, recommended product links and any spec table.
// Missing fields degrade to zero values.
func ParseDetailPage(html []byte, baseURL string) (catalog.DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return catalog.DetailPage{}, fmt.Errorf("parse detail page: %w", err)
	}

	page := catalog.DetailPage{
		Description:     strings.TrimSpace(doc.Find(".description, .product-description, [data-description]").First().Text()),
		RatingsAvg:      ParseRating(doc.Find(".rating, [data-rating]").First().Text()),
		ReviewsCount:    ParseCount(doc.Find(".review-count, [data-review-count]").First().Text()),
		Publisher:       strings.TrimSpace(doc.Find(".publisher, [data-publisher]").First().Text()),
		PublicationDate: strings.TrimSpace(doc.Find(".publication-date, [data-publication-date]").First().Text()),
	}
	if isbn := strings.TrimSpace(doc.Find(".isbn, [data-isbn]").First().Text()); isbn != "" {
		page.ISBN = isbnCleanRe.ReplaceAllString(isbn, "")
	}

	doc.Find(reviewSelector).Each(func(_ int, s *goquery.Selection) {
		author := strings.TrimSpace(s.Find(".author, .review-author").First().Text())
		if author == "" {
			author = "Anonymous"
		}
		page.Reviews = append(page.Reviews, catalog.ReviewItem{
			Author: author,
			Rating: ParseCount(s.Find(".rating, [data-rating]").First().Text()),
			Text:   strings.TrimSpace(s.Find(".text, .review-text, p").First().Text()),
		})
	})

	doc.Find(recommendationSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			page.Recommendations = append(page.Recommendations, normalize.AbsoluteURL(baseURL, href))
		}
	})

	doc.Find(".specs tr, .product-specs tr").Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find("th, td.spec-name, dt").First().Text())
		value := strings.TrimSpace(row.Find("td, dd").Last().Text())
		if key == "" || value == "" || key == value {
			return
		}
		if page.Specs == nil {
			page.Specs = make(map[string]string)
		}
		page.Specs[key] = value
	})

	return page, nil
}
