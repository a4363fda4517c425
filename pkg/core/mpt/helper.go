package mpt

// lcp returns the longest common prefix of a and b.
// Note: it does no allocations.
func lcp(a, b []byte) []byte {
	if len(a) < len(b) {
		return lcp(b, a)
	}

	var i int
	for i = 0; i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
	}

	return a[:i]
}

// concatPaths returns a newly allocated path consisting of a followed by b.
func concatPaths(a, b []byte) []byte {
	res := make([]byte, len(a)+len(b))
	copy(res, a)
	copy(res[len(a):], b)
	return res
}

// toNibbles mangles a path by splitting every byte into 2 containing its high and
// low 4-bit halves.
func toNibbles(path []byte) []byte {
	result := make([]byte, len(path)*2)
	for i := range path {
		result[i*2] = path[i] >> 4
		result[i*2+1] = path[i] & 0x0F
	}
	return result
}

// fromNibbles performs an operation opposite to toNibbles and runs no path validity checks.
func fromNibbles(path []byte) []byte {
	result := make([]byte, len(path)/2)
	for i := range result {
		result[i] = path[2*i]<<4 + path[2*i+1]
	}
	return result
}

// packNibbles packs nibbles two per byte, high half first. The low half of
// the last byte is left zero for odd-length paths.
func packNibbles(path []byte) []byte {
	result := make([]byte, (len(path)+1)/2)
	for i := range path {
		if i%2 == 0 {
			result[i/2] = path[i] << 4
		} else {
			result[i/2] |= path[i]
		}
	}
	return result
}

// unpackNibbles performs an operation opposite to packNibbles returning n
// nibbles. It returns false if the padding half of the last byte is not zero.
func unpackNibbles(data []byte, n int) ([]byte, bool) {
	result := make([]byte, n)
	for i := range result {
		if i%2 == 0 {
			result[i] = data[i/2] >> 4
		} else {
			result[i] = data[i/2] & 0x0F
		}
	}
	if n%2 == 1 && data[n/2]&0x0F != 0 {
		return nil, false
	}
	return result, true
}

// isValidPath checks that every path element is a nibble.
func isValidPath(path []byte) bool {
	for _, n := range path {
		if n > 0x0F {
			return false
		}
	}
	return true
}
