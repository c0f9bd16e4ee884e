package dnscache

import (
	"errors"
	"fmt"
	"time"

	"github.com/pmkol/dnscache/pkg/list"
)

// DefaultBuckets is the bucket count used when none is configured.
const DefaultBuckets = 50

var ErrIndexOutOfRange = errors.New("bucket index out of range")

// Table is a fixed size hash table of entries chained by domain.
//
// Domains are compared after ASCII lowercasing. New entries are prepended to
// their chain, updated entries keep their chain position.
//
// Table is not safe for concurrent use. Returned entries are copies, the
// table never hands out references into its storage.
type Table struct {
	buckets []*list.List[Entry]
	now     func() time.Time
}

type Option func(t *Table)

// WithClock sets the clock used to evaluate expiry. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTable returns a table with n buckets. n must be positive.
func NewTable(n int, opts ...Option) *Table {
	if n <= 0 {
		panic(fmt.Sprintf("dnscache: invalid bucket count: %d", n))
	}
	t := &Table{
		buckets: make([]*list.List[Entry], n),
		now:     time.Now,
	}
	for i := range t.buckets {
		t.buckets[i] = list.New[Entry]()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Buckets returns the bucket count.
func (t *Table) Buckets() int {
	return len(t.buckets)
}

// BucketIndex returns the bucket domain maps to.
func (t *Table) BucketIndex(domain string) int {
	return bucketIndex(domain, len(t.buckets))
}

func (t *Table) find(domain string) (*list.List[Entry], *list.Elem[Entry]) {
	domain = CanonicalDomain(domain)
	l := t.buckets[t.BucketIndex(domain)]
	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.Record.Domain == domain {
			return l, e
		}
	}
	return l, nil
}

// Upsert stores e. If an entry with the same domain exists, its content is
// replaced in place. Otherwise e is prepended to its chain. The stored
// domain is canonicalized. Upsert reports whether a new entry was created.
func (t *Table) Upsert(e Entry) (created bool) {
	e.Record.Domain = CanonicalDomain(e.Record.Domain)
	l, elem := t.find(e.Record.Domain)
	if elem != nil {
		elem.Value = e
		return false
	}
	l.PushFront(list.NewElem(e))
	return true
}

// Lookup returns a copy of the entry for domain.
func (t *Table) Lookup(domain string) (Entry, bool) {
	_, elem := t.find(domain)
	if elem == nil {
		return Entry{}, false
	}
	return elem.Value, true
}

// RecordHit increments the hit count of the entry for domain and returns a
// copy of the updated entry.
func (t *Table) RecordHit(domain string) (Entry, bool) {
	_, elem := t.find(domain)
	if elem == nil {
		return Entry{}, false
	}
	elem.Value.Meta.Hits++
	return elem.Value, true
}

// Delete removes the entry for domain and reports whether it existed.
func (t *Table) Delete(domain string) bool {
	l, elem := t.find(domain)
	if elem == nil {
		return false
	}
	l.PopElem(elem)
	return true
}

// IsExpired evaluates e against the current time of the table's clock.
func (t *Table) IsExpired(e Entry) bool {
	return e.ExpiredAt(t.now())
}

// SweepExpired removes every expired entry and returns the number removed.
// The clock is sampled per entry.
func (t *Table) SweepExpired() (removed int) {
	for _, l := range t.buckets {
		removed += l.RemoveFunc(func(e Entry) bool {
			return t.IsExpired(e)
		})
	}
	return
}

// Bucket returns copies of the entries of bucket i in chain order.
func (t *Table) Bucket(i int) ([]Entry, error) {
	if i < 0 || i >= len(t.buckets) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(t.buckets))
	}
	return t.buckets[i].Values(), nil
}

// BucketEntries is the content of one non-empty bucket.
type BucketEntries struct {
	Index   int     `json:"index" yaml:"index"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// All returns the content of every non-empty bucket in index order.
func (t *Table) All() []BucketEntries {
	var s []BucketEntries
	for i, l := range t.buckets {
		if l.Len() == 0 {
			continue
		}
		s = append(s, BucketEntries{Index: i, Entries: l.Values()})
	}
	return s
}

// Len returns the number of stored entries.
func (t *Table) Len() (n int) {
	for _, l := range t.buckets {
		n += l.Len()
	}
	return
}

// Clear removes all entries.
func (t *Table) Clear() {
	for _, l := range t.buckets {
		l.Clear()
	}
}
