package coremain

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/pmkol/dnscache/pkg/dnscache"
	"github.com/pmkol/dnscache/pkg/record"
)

const timeLayout = "2006-01-02 15:04:05"

func printEntry(w io.Writer, e dnscache.Entry) {
	fmt.Fprintf(w, "Domain: %s\n", e.Record.Domain)
	fmt.Fprintf(w, "Type: %s\n", e.Record.Type)
	switch e.Record.Type {
	case dnscache.TypeA:
		fmt.Fprintf(w, "IP: %s\n", e.Record.IPv4)
	case dnscache.TypeAAAA:
		fmt.Fprintf(w, "IPv6: %s\n", e.Record.IPv6)
	case dnscache.TypeCNAME:
		if len(e.Stats.Alias) > 0 {
			fmt.Fprintf(w, "Alias (CNAME): %s\n", e.Stats.Alias)
		}
	case dnscache.TypeMX:
		fmt.Fprintf(w, "Priority (MX): %d\n", e.Stats.Priority)
	}
	fmt.Fprintf(w, "TTL: %d s | Cached: %s | Hits: %d | Origin: %s\n",
		e.Meta.TTL, e.Meta.CachedAt.Format(timeLayout), e.Meta.Hits, e.Meta.Origin)
	fmt.Fprintf(w, "Resolution time: %d ms\n", e.Stats.ResolutionTimeMs)
}

func printBucket(w io.Writer, idx int, entries []dnscache.Entry) {
	fmt.Fprintf(w, "=== Bucket %d ===\n", idx)
	for i, e := range entries {
		fmt.Fprintf(w, "- [%d]\n", i)
		printEntry(w, e)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "(empty)")
	}
}

func printAll(w io.Writer, all []dnscache.BucketEntries) {
	for _, b := range all {
		fmt.Fprintf(w, "\n--- Bucket %d (len=%d) ---\n", b.Index, len(b.Entries))
		printBucket(w, b.Index, b.Entries)
	}
}

func printStats(w io.Writer, s dnscache.Stats) {
	fmt.Fprintf(w, "Total entries: %d\n", s.Total)
	fmt.Fprintf(w, "Buckets: %d | Empty: %d | Collision buckets (>=2): %d\n", s.Buckets, s.EmptyBuckets, s.CollisionBuckets)
	fmt.Fprintf(w, "Load factor: %.3f\n", s.LoadFactor)
	fmt.Fprintf(w, "Longest bucket: %d\n", s.MaxChainLength)
}

// writeEntries writes entries in one of the formats text, json, yaml or rr.
func writeEntries(w io.Writer, entries []dnscache.Entry, format string) error {
	switch format {
	case "", "text":
		for i, e := range entries {
			if i > 0 {
				fmt.Fprintln(w)
			}
			printEntry(w, e)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	case "rr":
		for _, e := range entries {
			rr, err := record.ToRR(e)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, rr.String())
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}
