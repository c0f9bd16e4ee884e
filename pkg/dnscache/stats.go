package dnscache

// Stats is a load summary of a Table.
type Stats struct {
	Total            int     `json:"total" yaml:"total"`
	Buckets          int     `json:"buckets" yaml:"buckets"`
	EmptyBuckets     int     `json:"empty_buckets" yaml:"empty_buckets"`
	CollisionBuckets int     `json:"collision_buckets" yaml:"collision_buckets"` // len >= 2
	LoadFactor       float64 `json:"load_factor" yaml:"load_factor"`
	MaxChainLength   int     `json:"max_chain_length" yaml:"max_chain_length"`
}

func (t *Table) Statistics() Stats {
	s := Stats{Buckets: len(t.buckets)}
	for _, l := range t.buckets {
		n := l.Len()
		s.Total += n
		if n == 0 {
			s.EmptyBuckets++
		}
		if n >= 2 {
			s.CollisionBuckets++
		}
		if n > s.MaxChainLength {
			s.MaxChainLength = n
		}
	}
	s.LoadFactor = float64(s.Total) / float64(s.Buckets)
	return s
}
