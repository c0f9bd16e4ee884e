package mem_cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

// RegisterMetrics registers the counters of c and gauges derived from its
// statistics into reg.
func (c *MemCache) RegisterMetrics(reg prometheus.Registerer) error {
	gauge := func(name, help string, f func(s dnscache.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return f(c.Statistics())
		})
	}

	collectors := []prometheus.Collector{
		c.lookupTotal,
		c.upsertTotal,
		c.deletes,
		c.swept,
		gauge("entries", "The number of cached entries", func(s dnscache.Stats) float64 {
			return float64(s.Total)
		}),
		gauge("load_factor", "Entries divided by bucket count", func(s dnscache.Stats) float64 {
			return s.LoadFactor
		}),
		gauge("max_chain_length", "The length of the longest bucket chain", func(s dnscache.Stats) float64 {
			return float64(s.MaxChainLength)
		}),
		gauge("collision_buckets", "The number of buckets holding two or more entries", func(s dnscache.Stats) float64 {
			return float64(s.CollisionBuckets)
		}),
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
