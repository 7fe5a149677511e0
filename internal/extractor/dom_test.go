package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const base = "https://www.worldofbooks.com"

func TestParseNavigationPage(t *testing.T) {
	t.Parallel()

	html := []byte(`
<html><body>
<nav>
  <a href="/en-gb/category/fiction-books">Fiction Books</a>
  <a href="/en-gb/category/childrens-books">Children's Books</a>
  <a href="/en-gb/category/fiction-books">Fiction Books</a>
  <a href="/empty-title"></a>
</nav>
</body></html>`)

	items, err := ParseNavigationPage(html, base)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Fiction Books", items[0].Title)
	require.Equal(t, "https://www.worldofbooks.com/en-gb/category/fiction-books", items[0].URL)
	require.Equal(t, "Children's Books", items[1].Title)
}

func TestParseCategoryPage(t *testing.T) {
	t.Parallel()

	html := []byte(`
<html><body>
<aside>
  <div class="category-list">
    <a href="/en-gb/category/romance">Romance (850)</a>
    <a href="/en-gb/category/crime">Crime &amp; Thriller (1,200)</a>
    <a href="/en-gb/category/poetry">Poetry</a>
  </div>
</aside>
</body></html>`)

	items, err := ParseCategoryPage(html, base)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, 850, items[0].Count)
	require.Equal(t, "https://www.worldofbooks.com/en-gb/category/romance", items[0].URL)
	require.Equal(t, 0, items[2].Count)
}

func TestParseProductPage(t *testing.T) {
	t.Parallel()

	html := []byte(`
<html><body>
<div class="product-card">
  <a href="/en-gb/books/GOR010832127"><img src="/img/midnight.jpg"></a>
  <h3>The Midnight Library</h3>
  <p class="author">Matt Haig</p>
  <span class="price">£7.99</span>
</div>
<div class="product-card">
  <h3>No Link Card</h3>
</div>
</body></html>`)

	items, err := ParseProductPage(html, base)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "The Midnight Library", items[0].Title)
	require.Equal(t, "£7.99", items[0].Price)
	require.Equal(t, "Matt Haig", items[0].Author)
	require.Equal(t, "https://www.worldofbooks.com/en-gb/books/GOR010832127", items[0].SourceURL)
	require.Equal(t, "https://www.worldofbooks.com/img/midnight.jpg", items[0].ImageURL)
}

func TestParseDetailPage(t *testing.T) {
	t.Parallel()

	html := []byte(`
<html><body>
<div class="product-description">A novel about all the lives you could live.</div>
<span class="rating">4.5 out of 5</span>
<span class="review-count">2 reviews</span>
<span class="publisher">Canongate</span>
<span class="isbn">ISBN: 978-1786892737</span>
<span class="publication-date">2020-08-13</span>
<div class="review">
  <span class="review-author">alice</span>
  <span class="rating">5</span>
  <p class="review-text">Loved it.</p>
</div>
<div class="review">
  <span class="rating">3</span>
  <p class="review-text">It was fine.</p>
</div>
<div class="recommended-products">
  <a href="/en-gb/books/GOR002">Another Book</a>
</div>
<table class="specs">
  <tr><th>Format</th><td>Paperback</td></tr>
  <tr><th>Pages</th><td>304</td></tr>
</table>
</body></html>`)

	page, err := ParseDetailPage(html, base)
	require.NoError(t, err)
	require.Equal(t, "A novel about all the lives you could live.", page.Description)
	require.InDelta(t, 4.5, page.RatingsAvg, 0.001)
	require.Equal(t, 2, page.ReviewsCount)
	require.Equal(t, "Canongate", page.Publisher)
	require.Equal(t, "9781786892737", page.ISBN)
	require.Equal(t, "2020-08-13", page.PublicationDate)

	require.Len(t, page.Reviews, 2)
	require.Equal(t, "alice", page.Reviews[0].Author)
	require.Equal(t, 5, page.Reviews[0].Rating)
	require.Equal(t, "Anonymous", page.Reviews[1].Author)

	require.Len(t, page.Recommendations, 1)
	require.Equal(t, "https://www.worldofbooks.com/en-gb/books/GOR002", page.Recommendations[0])

	require.Equal(t, "Paperback", page.Specs["Format"])
	require.Equal(t, "304", page.Specs["Pages"])
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"£7.99", 7.99, true},
		{"From $12.50", 12.5, true},
		{"1,299.00", 1299, true},
		{"Out of stock", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got := ParsePrice(tc.raw)
		if !tc.ok {
			require.Nil(t, got, tc.raw)
			continue
		}
		require.NotNil(t, got, tc.raw)
		require.InDelta(t, tc.want, *got, 0.001, tc.raw)
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	require.Equal(t, 850, ParseCount("(850)"))
	require.Equal(t, 1200, ParseCount("1,200 items"))
	require.Equal(t, 0, ParseCount("none"))
}
