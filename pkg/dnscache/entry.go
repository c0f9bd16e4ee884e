package dnscache

import (
	"fmt"
	"math"
	"time"
)

// maxTTL is the largest TTL, in seconds, representable as a time.Duration.
const maxTTL = int64(math.MaxInt64 / time.Second)

// RecordType is the upper-case name of a cached record type.
type RecordType string

const (
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
	TypeMX    RecordType = "MX"
)

// Valid reports whether t is one of the supported record types.
func (t RecordType) Valid() bool {
	switch t {
	case TypeA, TypeAAAA, TypeCNAME, TypeMX:
		return true
	}
	return false
}

// IPv4 is a resolved IPv4 address. Meaningful only for TypeA records.
type IPv4 [4]byte

func (ip IPv4) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

func (ip IPv4) MarshalText() ([]byte, error) {
	return []byte(ip.String()), nil
}

// Record is the resolution part of an Entry.
type Record struct {
	Domain string     `json:"domain" yaml:"domain"`
	Type   RecordType `json:"type" yaml:"type"`
	IPv4   IPv4       `json:"ipv4" yaml:"ipv4"`
	IPv6   string     `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
}

// Metadata holds cache bookkeeping of an Entry.
type Metadata struct {
	// TTL in seconds. Zero means the entry never expires.
	TTL      int       `json:"ttl" yaml:"ttl"`
	CachedAt time.Time `json:"cached_at" yaml:"cached_at"`
	Hits     int       `json:"hits" yaml:"hits"`
	Origin   string    `json:"origin" yaml:"origin"`
}

// ResolutionStats holds resolution details used by reports.
type ResolutionStats struct {
	ResolutionTimeMs int `json:"resolution_time_ms" yaml:"resolution_time_ms"`

	// Priority is meaningful only for TypeMX records.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// Alias is meaningful only for TypeCNAME records.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Entry is the unit of storage of a Table.
type Entry struct {
	Record Record          `json:"record" yaml:"record"`
	Meta   Metadata        `json:"meta" yaml:"meta"`
	Stats  ResolutionStats `json:"stats" yaml:"stats"`
}

// ExpiredAt reports whether e is expired at now.
// An entry with a non-positive TTL never expires. Otherwise it expires once
// strictly more than TTL seconds have passed since it was cached.
// A TTL too large for a time.Duration never expires either.
func (e *Entry) ExpiredAt(now time.Time) bool {
	if e.Meta.TTL <= 0 || int64(e.Meta.TTL) > maxTTL {
		return false
	}
	return now.Sub(e.Meta.CachedAt) > time.Duration(e.Meta.TTL)*time.Second
}
