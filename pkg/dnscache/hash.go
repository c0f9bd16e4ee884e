package dnscache

// hashBufSize is the size of the working buffer the bucket index is computed
// over. Longer domains only hash their first hashBufSize-1 bytes.
const hashBufSize = 128

// djb2 computes h = h*33 + c over b, starting from 5381.
func djb2(b []byte) uint64 {
	h := uint64(5381)
	for _, c := range b {
		h = (h << 5) + h + uint64(c)
	}
	return h
}

// bucketIndex lowercases a bounded copy of domain and maps its djb2 hash
// into [0, n).
func bucketIndex(domain string, n int) int {
	var buf [hashBufSize]byte
	l := copy(buf[:hashBufSize-1], domain)
	b := buf[:l]
	for i, c := range b {
		b[i] = lowerASCII(c)
	}
	return int(djb2(b) % uint64(n))
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// CanonicalDomain returns domain with ASCII letters lowercased.
func CanonicalDomain(domain string) string {
	for i := 0; i < len(domain); i++ {
		if c := domain[i]; 'A' <= c && c <= 'Z' {
			b := []byte(domain)
			for j := i; j < len(b); j++ {
				b[j] = lowerASCII(b[j])
			}
			return string(b)
		}
	}
	return domain
}
