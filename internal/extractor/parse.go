// Package extractor holds page-fetching engines and the text parsing helpers
// shared between them.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	countRe = regexp.MustCompile(`\d[\d,]*`)
)

// ParsePrice pulls the first decimal number out of a raw price string such
// as "£7.99" or "From $12.50". It returns nil when no number is present.
func ParsePrice(raw string) *float64 {
	match := priceRe.FindString(strings.ReplaceAll(raw, ",", ""))
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseCount pulls the first integer out of strings like "(1,234 items)".
// It returns zero when no number is present.
func ParseCount(raw string) int {
	match := countRe.FindString(raw)
	if match == "" {
		return 0
	}
	v, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return v
}

// ParseRating reads a rating value out of strings like "4.5 out of 5". It
// returns zero when no number is present.
func ParseRating(raw string) float64 {
	match := priceRe.FindString(raw)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}
