package coremain

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pmkol/dnscache/pkg/cache"
	"github.com/pmkol/dnscache/pkg/dnscache"
	"github.com/pmkol/dnscache/pkg/gen"
	"github.com/pmkol/dnscache/pkg/record"
)

const menu = `
=== DNS Cache ===
1. Cache new entry (insert/update)
2. Look up domain
3. Update entry
4. Delete entry
5. Sweep expired entries
6. Show bucket
7. Show all domains
8. Show statistics
9. Generate random entries
0. Exit
> `

// Shell is the interactive menu of a cache.
type Shell struct {
	c   cache.Backend
	in  *bufio.Scanner
	out io.Writer
	gen *gen.Generator
	now func() time.Time
}

func NewShell(c cache.Backend, in io.Reader, out io.Writer, g *gen.Generator, now func() time.Time) *Shell {
	return &Shell{
		c:   c,
		in:  bufio.NewScanner(in),
		out: out,
		gen: g,
		now: now,
	}
}

// Run serves the menu until the user exits or the input ends.
func (s *Shell) Run() error {
	for {
		fmt.Fprint(s.out, menu)
		op := atoi(s.readLine())
		if op == 0 {
			break
		}
		switch op {
		case 1:
			s.cacheEntry()
		case 2:
			s.lookup()
		case 3:
			s.update()
		case 4:
			s.delete()
		case 5:
			fmt.Fprintf(s.out, "Removed %d expired entries.\n", s.c.SweepExpired())
		case 6:
			s.showBucket()
		case 7:
			printAll(s.out, s.c.All())
		case 8:
			printStats(s.out, s.c.Statistics())
		case 9:
			s.generate()
		default:
			fmt.Fprintln(s.out, "Invalid option.")
		}
	}
	fmt.Fprintln(s.out, "Bye.")
	return s.in.Err()
}

func (s *Shell) readLine() string {
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimRight(s.in.Text(), "\r\n")
}

// ask prompts for a value. An empty answer keeps def.
func (s *Shell) ask(prompt, def string) string {
	if len(def) > 0 {
		fmt.Fprintf(s.out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", prompt)
	}
	if v := strings.TrimSpace(s.readLine()); len(v) > 0 {
		return v
	}
	return def
}

func itoaOrEmpty(i int) string {
	if i == 0 {
		return ""
	}
	return strconv.Itoa(i)
}

// askEntry prompts for every field of an entry, using def as defaults.
func (s *Shell) askEntry(def record.Fields) (dnscache.Entry, error) {
	f := record.Fields{}
	f.Domain = s.ask("Domain", def.Domain)
	f.Type = s.ask("Type (A/AAAA/CNAME/MX)", def.Type)
	typ, err := record.ParseType(f.Type)
	if err != nil {
		return dnscache.Entry{}, err
	}
	switch typ {
	case dnscache.TypeA:
		f.IPv4 = s.ask("IPv4 (a.b.c.d)", def.IPv4)
	case dnscache.TypeAAAA:
		f.IPv6 = s.ask("IPv6", def.IPv6)
	case dnscache.TypeCNAME:
		f.Alias = s.ask("CNAME alias of", def.Alias)
	case dnscache.TypeMX:
		f.Priority = atoi(s.ask("MX priority (integer)", itoaOrEmpty(def.Priority)))
	}
	f.TTL = atoi(s.ask("TTL (seconds, 0 = never expires)", itoaOrEmpty(def.TTL)))
	f.Origin = s.ask("Origin server (e.g. 8.8.8.8)", def.Origin)
	f.ResolutionTimeMs = atoi(s.ask("Resolution time (ms)", itoaOrEmpty(def.ResolutionTimeMs)))
	return record.Build(f, s.now())
}

func (s *Shell) cacheEntry() {
	e, err := s.askEntry(record.Fields{})
	if err != nil {
		fmt.Fprintf(s.out, "Invalid entry: %v\n", err)
		return
	}
	s.c.Upsert(e)
	fmt.Fprintln(s.out, "Entry cached.")
}

func (s *Shell) lookup() {
	domain := record.Key(s.ask("Domain to look up", ""))
	e, ok := s.c.RecordHit(domain)
	if !ok {
		fmt.Fprintln(s.out, "Not found.")
		return
	}
	printEntry(s.out, e)
	if rr, err := record.ToRR(e); err == nil {
		fmt.Fprintf(s.out, "RR: %s\n", rr)
	}
	if s.c.IsExpired(e) {
		fmt.Fprintln(s.out, "WARNING: entry EXPIRED (TTL exceeded)")
	}
}

func (s *Shell) update() {
	domain := record.Key(s.ask("Domain to update", ""))
	cur, ok := s.c.Lookup(domain)
	if !ok {
		fmt.Fprintln(s.out, "Not found. Use option 1 to insert it.")
		return
	}
	e, err := s.askEntry(record.FieldsOf(cur))
	if err != nil {
		fmt.Fprintf(s.out, "Invalid entry: %v\n", err)
		return
	}
	s.c.Upsert(e)
	fmt.Fprintln(s.out, "Updated.")
}

func (s *Shell) delete() {
	if s.c.Delete(record.Key(s.ask("Domain to delete", ""))) {
		fmt.Fprintln(s.out, "Deleted.")
	} else {
		fmt.Fprintln(s.out, "Not found.")
	}
}

func (s *Shell) showBucket() {
	idx := atoi(s.ask(fmt.Sprintf("Bucket index [0..%d]", s.c.Buckets()-1), ""))
	entries, err := s.c.Bucket(idx)
	if err != nil {
		fmt.Fprintln(s.out, "Index out of range.")
		return
	}
	printBucket(s.out, idx, entries)
}

func (s *Shell) generate() {
	n := atoi(s.ask("How many", ""))
	if n <= 0 {
		n = 10
	}
	for _, e := range s.gen.Entries(n, s.now()) {
		s.c.Upsert(e)
	}
	fmt.Fprintf(s.out, "Generated %d test entries.\n", n)
}

// atoi parses the leading integer of s the way a typed menu answer is
// read: leading spaces and an optional sign, then digits up to the first
// non-digit. "3abc" is 3, "abc" is 0. Out of range values saturate.
func atoi(s string) int {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int(s[i] - '0')
		if n > (math.MaxInt-d)/10 {
			if neg {
				return math.MinInt
			}
			return math.MaxInt
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}
