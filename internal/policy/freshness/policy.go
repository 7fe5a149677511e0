// Package freshness decides when persisted records must be re-fetched.
package freshness

import "time"

// Policy holds the configured cache TTL. The zero value treats everything as
// stale.
type Policy struct {
	ttl time.Duration
}

// New builds a Policy from a TTL expressed in hours.
func New(ttlHours int) Policy {
	return Policy{ttl: time.Duration(ttlHours) * time.Hour}
}

// IsFresh reports whether a record scraped at lastScrapedAt is still inside
// the TTL at now. A nil lastScrapedAt is never fresh. Pure, no I/O.
func (p Policy) IsFresh(lastScrapedAt *time.Time, now time.Time) bool {
	if lastScrapedAt == nil {
		return false
	}
	return now.Before(lastScrapedAt.Add(p.ttl))
}
