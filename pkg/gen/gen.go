// Package gen generates synthetic cache entries.
package gen

import (
	"math/rand/v2"
	"time"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

var (
	domains = []string{
		"google.com", "facebook.com", "youtube.com", "amazon.com", "wikipedia.org",
		"api.servicio.io", "cdn.example.com", "mail.empresa.com", "vpn.empresa.com", "blog.example.com",
	}
	ttls    = []int{300, 600, 1800, 3600, 86400}
	origins = []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"}
)

// Generator is not safe for concurrent use.
type Generator struct {
	r *rand.Rand
}

// New returns a Generator. The same seed yields the same sequence.
func New(seed uint64) *Generator {
	return &Generator{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// between returns a random int in [a, b].
func (g *Generator) between(a, b int) int {
	return a + g.r.IntN(b-a+1)
}

// Entry returns a random A entry cached at most half its ttl before now.
func (g *Generator) Entry(now time.Time) dnscache.Entry {
	ttl := ttls[g.r.IntN(len(ttls))]
	return dnscache.Entry{
		Record: dnscache.Record{
			Domain: domains[g.r.IntN(len(domains))],
			Type:   dnscache.TypeA,
			IPv4: dnscache.IPv4{
				byte(g.between(1, 223)),
				byte(g.between(0, 255)),
				byte(g.between(0, 255)),
				byte(g.between(0, 255)),
			},
		},
		Meta: dnscache.Metadata{
			TTL:      ttl,
			CachedAt: now.Add(-time.Duration(g.between(0, ttl/2)) * time.Second),
			Hits:     g.between(0, 50),
			Origin:   origins[g.r.IntN(len(origins))],
		},
		Stats: dnscache.ResolutionStats{ResolutionTimeMs: g.between(8, 120)},
	}
}

// Entries returns n random entries.
func (g *Generator) Entries(n int, now time.Time) []dnscache.Entry {
	s := make([]dnscache.Entry, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, g.Entry(now))
	}
	return s
}
