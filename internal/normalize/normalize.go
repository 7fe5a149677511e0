// Package normalize turns human titles and source URLs into canonical keys.
package normalize

import (
	"net/url"
	"strings"
)

// Slugify converts a title into a canonical slug: lowercase, strip everything
// outside [a-z0-9 space -], collapse whitespace and hyphen runs, trim edges.
// Deterministic and pure; distinct titles that normalize identically share
// a slug and therefore an entity.
func Slugify(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteByte(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// SourceID extracts the final path segment of a canonical product URL. It
// fails closed: when no path segment is found the whole URL string is
// returned, so the result is always a usable natural key.
func SourceID(sourceURL string) string {
	idx := strings.LastIndex(sourceURL, "/")
	if idx < 0 || idx == len(sourceURL)-1 {
		return sourceURL
	}
	return sourceURL[idx+1:]
}

// AbsoluteURL resolves href against base when href is relative. Invalid
// inputs fall back to the raw href.
func AbsoluteURL(base, href string) string {
	if href == "" {
		return href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
