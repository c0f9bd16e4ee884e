// Package record builds dnscache entries from loosely typed input. It owns
// canonicalization and defaulting so that the cache never has to reject an
// entry.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

// MaxDomainLen is the longest accepted domain, in bytes.
const MaxDomainLen = 99

const (
	DefaultDomain         = "example.com"
	DefaultType           = dnscache.TypeA
	DefaultIPv4           = "93.184.216.34"
	DefaultIPv6           = "2001:db8::1"
	DefaultAlias          = "target.example.com"
	DefaultPriority       = 10
	DefaultOrigin         = "8.8.8.8"
	DefaultResolutionTime = 25
)

var (
	ErrDomainTooLong = fmt.Errorf("domain is longer than %d bytes", MaxDomainLen)
	ErrInvalidDomain = errors.New("invalid domain name")
	ErrUnknownType   = errors.New("unknown record type")
)

// Fields is the raw input of an entry.
type Fields struct {
	Domain           string `json:"domain" yaml:"domain"`
	Type             string `json:"type" yaml:"type"`
	IPv4             string `json:"ipv4" yaml:"ipv4"`
	IPv6             string `json:"ipv6" yaml:"ipv6"`
	Alias            string `json:"alias" yaml:"alias"`
	Priority         int    `json:"priority" yaml:"priority"`
	TTL              int    `json:"ttl" yaml:"ttl"`
	Origin           string `json:"origin" yaml:"origin"`
	ResolutionTimeMs int    `json:"resolution_time_ms" yaml:"resolution_time_ms"`
}

// FieldsOf returns the fields e was built from, suitable as defaults for an
// update.
func FieldsOf(e dnscache.Entry) Fields {
	f := Fields{
		Domain:           e.Record.Domain,
		Type:             string(e.Record.Type),
		IPv6:             e.Record.IPv6,
		Alias:            e.Stats.Alias,
		Priority:         e.Stats.Priority,
		TTL:              e.Meta.TTL,
		Origin:           e.Meta.Origin,
		ResolutionTimeMs: e.Stats.ResolutionTimeMs,
	}
	if e.Record.Type == dnscache.TypeA {
		f.IPv4 = e.Record.IPv4.String()
	}
	return f
}

// CanonicalDomain trims spaces and the trailing dot and lowercases d.
// An empty result becomes DefaultDomain.
func CanonicalDomain(d string) (string, error) {
	d = strings.TrimSuffix(strings.TrimSpace(d), ".")
	if len(d) == 0 {
		return DefaultDomain, nil
	}
	if len(d) > MaxDomainLen {
		return "", ErrDomainTooLong
	}
	if _, ok := dns.IsDomainName(d); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, d)
	}
	return dnscache.CanonicalDomain(d), nil
}

// Key returns the cache key of a user supplied domain. Unlike
// CanonicalDomain it applies no default and no validation.
func Key(d string) string {
	return dnscache.CanonicalDomain(strings.TrimSuffix(strings.TrimSpace(d), "."))
}

// ParseType uppercases s. An empty s becomes DefaultType.
func ParseType(s string) (dnscache.RecordType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 0 {
		return DefaultType, nil
	}
	t := dnscache.RecordType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// ParseIPv4 parses a dotted quad. Every octet must be in 0..255.
func ParseIPv4(s string) (ip dnscache.IPv4, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return ip, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return dnscache.IPv4{}, false
		}
		ip[i] = byte(n)
	}
	return ip, true
}

// Build canonicalizes f and applies defaults. The entry is stamped with now
// and has zero hits.
func Build(f Fields, now time.Time) (dnscache.Entry, error) {
	domain, err := CanonicalDomain(f.Domain)
	if err != nil {
		return dnscache.Entry{}, err
	}
	typ, err := ParseType(f.Type)
	if err != nil {
		return dnscache.Entry{}, err
	}

	e := dnscache.Entry{
		Record: dnscache.Record{Domain: domain, Type: typ},
		Meta: dnscache.Metadata{
			TTL:      max(f.TTL, 0),
			CachedAt: now,
			Origin:   strings.TrimSpace(f.Origin),
		},
		Stats: dnscache.ResolutionStats{ResolutionTimeMs: f.ResolutionTimeMs},
	}
	if len(e.Meta.Origin) == 0 {
		e.Meta.Origin = DefaultOrigin
	}
	if e.Stats.ResolutionTimeMs <= 0 {
		e.Stats.ResolutionTimeMs = DefaultResolutionTime
	}

	switch typ {
	case dnscache.TypeA:
		ip, ok := ParseIPv4(f.IPv4)
		if !ok {
			ip, _ = ParseIPv4(DefaultIPv4)
		}
		e.Record.IPv4 = ip
	case dnscache.TypeAAAA:
		e.Record.IPv6 = strings.TrimSpace(f.IPv6)
		if len(e.Record.IPv6) == 0 {
			e.Record.IPv6 = DefaultIPv6
		}
	case dnscache.TypeCNAME:
		e.Stats.Alias = strings.TrimSpace(f.Alias)
		if len(e.Stats.Alias) == 0 {
			e.Stats.Alias = DefaultAlias
		}
	case dnscache.TypeMX:
		e.Stats.Priority = f.Priority
		if e.Stats.Priority <= 0 {
			e.Stats.Priority = DefaultPriority
		}
	}
	return e, nil
}
