/*
 * Copyright (C) 2020-2022, IrineSistiana
 *
 * This file is part of mosdns.
 *
 * mosdns is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * mosdns is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package mem_cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pmkol/dnscache/pkg/cache"
	"github.com/pmkol/dnscache/pkg/dnscache"
)

var nopLogger = zap.NewNop()

var _ cache.Backend = (*MemCache)(nil)

type Opts struct {
	// Buckets is the table size. Default is dnscache.DefaultBuckets.
	Buckets int

	// CleanerInterval is the interval of the background sweeper.
	// Zero or negative disables it.
	CleanerInterval time.Duration

	// Clock optionally replaces time.Now.
	Clock func() time.Time

	// Logger is the *zap.Logger for this MemCache.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *Opts) init() {
	if opts.Buckets <= 0 {
		opts.Buckets = dnscache.DefaultBuckets
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
}

// MemCache guards a dnscache.Table with a single mutex. It is safe for
// concurrent use.
type MemCache struct {
	opts             Opts
	closed           uint32
	closeCleanerChan chan struct{}
	cleanerDone      chan struct{}

	m sync.Mutex
	t *dnscache.Table

	lookupTotal *prometheus.CounterVec
	upsertTotal *prometheus.CounterVec
	lookupHit   prometheus.Counter
	lookupMiss  prometheus.Counter
	inserts     prometheus.Counter
	updates     prometheus.Counter
	deletes     prometheus.Counter
	swept       prometheus.Counter
}

func NewMemCache(opts Opts) *MemCache {
	opts.init()
	lookupTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_total",
		Help: "The total number of lookups with hit accounting",
	}, []string{"result"})
	upsertTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upsert_total",
		Help: "The total number of upserts",
	}, []string{"op"})

	c := &MemCache{
		opts:             opts,
		closeCleanerChan: make(chan struct{}),
		cleanerDone:      make(chan struct{}),
		t:                dnscache.NewTable(opts.Buckets, dnscache.WithClock(opts.Clock)),
		lookupTotal:      lookupTotal,
		upsertTotal:      upsertTotal,
		lookupHit:        lookupTotal.WithLabelValues("hit"),
		lookupMiss:       lookupTotal.WithLabelValues("miss"),
		inserts:          upsertTotal.WithLabelValues("insert"),
		updates:          upsertTotal.WithLabelValues("update"),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delete_total",
			Help: "The total number of deleted entries",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swept_total",
			Help: "The total number of entries removed by expiry sweeps",
		}),
	}

	if opts.CleanerInterval > 0 {
		go c.startCleaner(opts.CleanerInterval)
	} else {
		close(c.cleanerDone)
	}
	return c
}

// Close stops the background sweeper and releases all entries. A closed
// MemCache stays usable as a plain table; only the sweeper is gone.
func (c *MemCache) Close() error {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		close(c.closeCleanerChan)
		<-c.cleanerDone
		c.m.Lock()
		c.t.Clear()
		c.m.Unlock()
	}
	return nil
}

func (c *MemCache) Upsert(e dnscache.Entry) bool {
	c.m.Lock()
	created := c.t.Upsert(e)
	c.m.Unlock()
	if created {
		c.inserts.Inc()
	} else {
		c.updates.Inc()
	}
	return created
}

func (c *MemCache) Lookup(domain string) (dnscache.Entry, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t.Lookup(domain)
}

func (c *MemCache) RecordHit(domain string) (dnscache.Entry, bool) {
	c.m.Lock()
	e, ok := c.t.RecordHit(domain)
	c.m.Unlock()
	if ok {
		c.lookupHit.Inc()
	} else {
		c.lookupMiss.Inc()
	}
	return e, ok
}

func (c *MemCache) Delete(domain string) bool {
	c.m.Lock()
	ok := c.t.Delete(domain)
	c.m.Unlock()
	if ok {
		c.deletes.Inc()
	}
	return ok
}

func (c *MemCache) IsExpired(e dnscache.Entry) bool {
	return c.t.IsExpired(e)
}

func (c *MemCache) SweepExpired() int {
	c.m.Lock()
	n := c.t.SweepExpired()
	c.m.Unlock()
	c.swept.Add(float64(n))
	return n
}

func (c *MemCache) Bucket(index int) ([]dnscache.Entry, error) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t.Bucket(index)
}

func (c *MemCache) All() []dnscache.BucketEntries {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t.All()
}

func (c *MemCache) Statistics() dnscache.Stats {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t.Statistics()
}

func (c *MemCache) BucketIndex(domain string) int {
	return c.t.BucketIndex(domain)
}

func (c *MemCache) Buckets() int {
	return c.t.Buckets()
}

func (c *MemCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t.Len()
}

func (c *MemCache) startCleaner(interval time.Duration) {
	defer close(c.cleanerDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCleanerChan:
			return
		case <-ticker.C:
			if n := c.SweepExpired(); n > 0 {
				c.opts.Logger.Debug("expired entries swept", zap.Int("removed", n))
			}
		}
	}
}
