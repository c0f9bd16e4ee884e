package cache

import (
	"io"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

// Backend is a dns record cache.
// Entries returned by a Backend are copies.
type Backend interface {
	// Upsert inserts e or replaces the entry with the same domain.
	// Returns true if e was inserted.
	Upsert(e dnscache.Entry) (created bool)

	// Lookup returns the entry of domain without touching its hit count.
	Lookup(domain string) (e dnscache.Entry, ok bool)

	// RecordHit increments the hit count of domain and returns the
	// updated entry.
	RecordHit(domain string) (e dnscache.Entry, ok bool)

	Delete(domain string) bool

	// IsExpired evaluates e against the backend's current time.
	IsExpired(e dnscache.Entry) bool

	// SweepExpired removes all expired entries.
	SweepExpired() (removed int)

	Bucket(index int) ([]dnscache.Entry, error)
	All() []dnscache.BucketEntries
	Statistics() dnscache.Stats
	Buckets() int
	Len() int

	io.Closer
}
