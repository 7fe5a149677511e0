package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Romance", "romance"},
		{"apostrophe", "Children's Books", "childrens-books"},
		{"case insensitive", "children's books", "childrens-books"},
		{"ampersand", "Crime & Thriller", "crime-thriller"},
		{"whitespace runs", "  Science   Fiction \t Fantasy ", "science-fiction-fantasy"},
		{"hyphen runs", "Non---Fiction", "non-fiction"},
		{"edges trimmed", "-History-", "history"},
		{"unicode stripped", "Café Münchën", "caf-mnchn"},
		{"empty", "", ""},
		{"symbols only", "!!!", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Slugify(tc.title))
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, Slugify("Children's Books"), Slugify("children's books"))
	require.Equal(t, "childrens-books", Slugify("Children's Books"))
}

func TestSourceID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want string
	}{
		{"product url", "https://www.worldofbooks.com/en-gb/books/richard-osman/thursday-murder-club/GOR010832127", "GOR010832127"},
		{"trailing slash falls closed", "https://example.com/books/", "https://example.com/books/"},
		{"no slash falls closed", "GOR010832127", "GOR010832127"},
		{"empty falls closed", "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, SourceID(tc.url))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	base := "https://www.worldofbooks.com"
	require.Equal(t, "https://www.worldofbooks.com/books/fiction", AbsoluteURL(base, "/books/fiction"))
	require.Equal(t, "https://other.example/x", AbsoluteURL(base, "https://other.example/x"))
	require.Equal(t, "", AbsoluteURL(base, ""))
}
