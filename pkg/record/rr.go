package record

import (
	"fmt"
	"math"
	"net"

	"github.com/miekg/dns"

	"github.com/pmkol/dnscache/pkg/dnscache"
)

// ToRR converts e to its dns resource record. MX records use the domain
// itself as the exchange. The TTL is clamped to the uint32 range of the
// wire header; an MX priority outside uint16 is an error.
func ToRR(e dnscache.Entry) (dns.RR, error) {
	hdr := dns.RR_Header{
		Name:  dns.Fqdn(e.Record.Domain),
		Class: dns.ClassINET,
		Ttl:   uint32(min(max(int64(e.Meta.TTL), 0), math.MaxUint32)),
	}
	switch e.Record.Type {
	case dnscache.TypeA:
		hdr.Rrtype = dns.TypeA
		ip := e.Record.IPv4
		return &dns.A{Hdr: hdr, A: net.IPv4(ip[0], ip[1], ip[2], ip[3])}, nil
	case dnscache.TypeAAAA:
		ip := net.ParseIP(e.Record.IPv6)
		if ip == nil || ip.To4() != nil {
			return nil, fmt.Errorf("invalid ipv6 address %q", e.Record.IPv6)
		}
		hdr.Rrtype = dns.TypeAAAA
		return &dns.AAAA{Hdr: hdr, AAAA: ip}, nil
	case dnscache.TypeCNAME:
		hdr.Rrtype = dns.TypeCNAME
		return &dns.CNAME{Hdr: hdr, Target: dns.Fqdn(e.Stats.Alias)}, nil
	case dnscache.TypeMX:
		if p := e.Stats.Priority; p < 0 || p > math.MaxUint16 {
			return nil, fmt.Errorf("mx priority %d out of range", p)
		}
		hdr.Rrtype = dns.TypeMX
		return &dns.MX{Hdr: hdr, Preference: uint16(e.Stats.Priority), Mx: dns.Fqdn(e.Record.Domain)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Record.Type)
}
