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
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

func newEntry(domain string, ttl int, cachedAt time.Time) dnscache.Entry {
	return dnscache.Entry{
		Record: dnscache.Record{Domain: domain, Type: dnscache.TypeA, IPv4: dnscache.IPv4{10, 0, 0, 1}},
		Meta:   dnscache.Metadata{TTL: ttl, CachedAt: cachedAt},
	}
}

func Test_memCache(t *testing.T) {
	c := NewMemCache(Opts{})
	defer c.Close()
	require.Equal(t, dnscache.DefaultBuckets, c.Buckets())

	now := time.Now()
	for i := 0; i < 128; i++ {
		assert.True(t, c.Upsert(newEntry(fmt.Sprintf("d%d.com", i), 0, now)))
	}
	assert.False(t, c.Upsert(newEntry("D1.com", 0, now)))
	assert.Equal(t, 128, c.Len())

	e, ok := c.RecordHit("d1.com")
	require.True(t, ok)
	assert.Equal(t, 1, e.Meta.Hits)
	_, ok = c.RecordHit("nope.com")
	assert.False(t, ok)

	assert.True(t, c.Delete("d1.com"))
	assert.False(t, c.Delete("d1.com"))
	assert.Equal(t, 127, c.Statistics().Total)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookupHit))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookupMiss))
	assert.Equal(t, 128.0, testutil.ToFloat64(c.inserts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.updates))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deletes))
}

func Test_memCache_sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemCache(Opts{Buckets: 7, Clock: func() time.Time { return now }})
	defer c.Close()

	c.Upsert(newEntry("x.com", 1, now.Add(-2*time.Second)))
	c.Upsert(newEntry("a.com", 0, now.Add(-time.Hour)))
	e, _ := c.Lookup("x.com")
	assert.True(t, c.IsExpired(e))

	assert.Equal(t, 1, c.SweepExpired())
	assert.Equal(t, 0, c.SweepExpired())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.swept))
	_, ok := c.Lookup("x.com")
	assert.False(t, ok)
}

func Test_memCache_cleaner(t *testing.T) {
	c := NewMemCache(Opts{CleanerInterval: time.Millisecond * 10})
	for i := 0; i < 64; i++ {
		c.Upsert(newEntry(fmt.Sprintf("d%d.com", i), 1, time.Now().Add(-time.Minute))) // Expired already
	}

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, time.Millisecond*10)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Close released every entry but the table itself still works.
	assert.True(t, c.Upsert(newEntry("late.com", 0, time.Now())))
	e, ok := c.Lookup("late.com")
	require.True(t, ok)
	assert.Equal(t, "late.com", e.Record.Domain)
	assert.True(t, c.Delete("late.com"))
	assert.Equal(t, 0, c.Len())
}

func Test_memCache_metrics(t *testing.T) {
	c := NewMemCache(Opts{Buckets: 10})
	defer c.Close()
	reg := prometheus.NewRegistry()
	require.NoError(t, c.RegisterMetrics(reg))

	for i := 0; i < 5; i++ {
		c.Upsert(newEntry(fmt.Sprintf("d%d.com", i), 0, time.Now()))
	}
	expected := `
# HELP entries The number of cached entries
# TYPE entries gauge
entries 5
# HELP load_factor Entries divided by bucket count
# TYPE load_factor gauge
load_factor 0.5
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "entries", "load_factor"))
}

func Test_memCache_race(t *testing.T) {
	c := NewMemCache(Opts{CleanerInterval: time.Millisecond})
	defer c.Close()

	wg := sync.WaitGroup{}
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 256; i++ {
				d := fmt.Sprintf("d%d.com", i)
				c.Upsert(newEntry(d, i%3, time.Now()))
				c.RecordHit(d)
				c.Statistics()
				c.All()
				if i%7 == 0 {
					c.Delete(d)
				}
			}
		}()
	}
	wg.Wait()
}
