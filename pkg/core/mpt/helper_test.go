package mpt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNibbles(t *testing.T) {
	key := []byte{0x12, 0xab, 0x0f}
	n := toNibbles(key)
	require.Equal(t, []byte{1, 2, 0xa, 0xb, 0, 0xf}, n)
	require.Equal(t, key, fromNibbles(n))
	require.True(t, isValidPath(n))
	require.False(t, isValidPath([]byte{1, 0x10}))
}

func TestPackNibbles(t *testing.T) {
	testCases := []struct {
		path   []byte
		packed []byte
	}{
		{[]byte{}, []byte{}},
		{[]byte{1}, []byte{0x10}},
		{[]byte{1, 2}, []byte{0x12}},
		{[]byte{1, 2, 0xf}, []byte{0x12, 0xf0}},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.packed, packNibbles(tc.path))
		path, ok := unpackNibbles(tc.packed, len(tc.path))
		require.True(t, ok)
		require.Equal(t, tc.path, path)
	}

	_, ok := unpackNibbles([]byte{0x12, 0xf1}, 3)
	require.False(t, ok)
}

func TestLCP(t *testing.T) {
	require.Equal(t, []byte{1, 2}, lcp([]byte{1, 2, 3}, []byte{1, 2, 4, 5}))
	require.Equal(t, []byte{1, 2}, lcp([]byte{1, 2}, []byte{1, 2, 4, 5}))
	require.Empty(t, lcp([]byte{1, 2}, []byte{2}))
	require.Empty(t, lcp(nil, []byte{2}))
}

func TestConcatPaths(t *testing.T) {
	a := make([]byte, 2, 10)
	a[0], a[1] = 1, 2
	res := concatPaths(a, []byte{3})
	require.Equal(t, []byte{1, 2, 3}, res)
	res[0] = 7
	require.Equal(t, byte(1), a[0])
}
