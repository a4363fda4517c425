package statestore

import (
	"bytes"
	"errors"
	"runtime"
	"testing"

	"github.com/nspcc-dev/statetrie/internal/random"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, cfg config.Trie) (*Store, *storage.MemoryStore) {
	backend := storage.NewMemoryStore()
	s, err := New(backend, cfg, nil)
	require.NoError(t, err)
	return s, backend
}

var allConfigs = map[string]config.Trie{
	"plain":      {},
	"cached":     {NodeCacheSize: 10, ValueCacheSize: 10},
	"verified":   {VerifyDigests: true},
	"compressed": {CompressValues: true, VerifyDigests: true},
}

func TestNodeStore(t *testing.T) {
	for name, cfg := range allConfigs {
		t.Run(name, func(t *testing.T) {
			s, backend := newTestStore(t, cfg)
			data := random.Bytes(50)
			h := hash.Sha256(data)

			_, err := s.Nodes().GetNode(h)
			require.ErrorIs(t, err, storage.ErrKeyNotFound)

			require.NoError(t, s.Nodes().PutNode(h, data))
			require.NoError(t, s.Nodes().PutNode(h, data))
			actual, err := s.Nodes().GetNode(h)
			require.NoError(t, err)
			require.Equal(t, data, actual)

			_, err = backend.Get(makeKey(storage.DataMPT, h))
			require.ErrorIs(t, err, storage.ErrKeyNotFound)
			keys, err := s.Persist()
			require.NoError(t, err)
			require.Equal(t, 1, keys)
			stored, err := backend.Get(makeKey(storage.DataMPT, h))
			require.NoError(t, err)
			require.Equal(t, data, stored)

			// Reopen to bypass caches.
			s2, err := New(backend, cfg, nil)
			require.NoError(t, err)
			actual, err = s2.Nodes().GetNode(h)
			require.NoError(t, err)
			require.Equal(t, data, actual)
		})
	}
}

func TestNodeStoreDigestMismatch(t *testing.T) {
	s, backend := newTestStore(t, config.Trie{VerifyDigests: true})
	data := random.Bytes(50)
	h := hash.Sha256(data)

	err := s.Nodes().PutNode(random.Uint256(), data)
	require.ErrorIs(t, err, ErrDigestMismatch)

	require.NoError(t, backend.PutChangeSet(map[string][]byte{
		string(makeKey(storage.DataMPT, h)): append(bytes.Clone(data), 1),
	}))
	_, err = s.Nodes().GetNode(h)
	require.ErrorIs(t, err, ErrDigestMismatch)

	t.Run("not verified", func(t *testing.T) {
		s, err := New(backend, config.Trie{}, nil)
		require.NoError(t, err)
		actual, err := s.Nodes().GetNode(h)
		require.NoError(t, err)
		require.Equal(t, append(bytes.Clone(data), 1), actual)
	})
}

func TestValueStore(t *testing.T) {
	values := [][]byte{
		{},
		{1},
		random.Bytes(100),
		bytes.Repeat([]byte{0x42}, 1000),
	}
	for name, cfg := range allConfigs {
		t.Run(name, func(t *testing.T) {
			s, backend := newTestStore(t, cfg)
			for _, v := range values {
				h, err := s.Values().PutValue(v)
				require.NoError(t, err)
				require.Equal(t, hash.Sha256(v), h)

				actual, err := s.Values().GetValue(h, uint32(len(v)))
				require.NoError(t, err)
				require.Equal(t, v, actual)

				_, err = s.Values().GetValue(h, uint32(len(v)+1))
				require.ErrorIs(t, err, ErrLengthMismatch)
			}
			_, err := s.Persist()
			require.NoError(t, err)

			s2, err := New(backend, cfg, nil)
			require.NoError(t, err)
			for _, v := range values {
				actual, err := s2.Values().GetValue(hash.Sha256(v), uint32(len(v)))
				require.NoError(t, err)
				require.Equal(t, v, actual)
			}

			_, err = s2.Values().GetValue(random.Uint256(), 1)
			require.ErrorIs(t, err, storage.ErrKeyNotFound)
		})
	}
}

func TestValueStoreCompression(t *testing.T) {
	v := bytes.Repeat([]byte{0x42}, 1000)
	rec := encodeValue(v, true)
	require.Equal(t, valueLZ4, rec[0])
	require.Less(t, len(rec), len(v))

	actual, err := decodeValue(rec)
	require.NoError(t, err)
	require.Equal(t, v, actual)

	t.Run("corrupted", func(t *testing.T) {
		_, err := decodeValue(rec[:len(rec)-2])
		require.ErrorIs(t, err, ErrMalformedValue)
		require.False(t, errors.Is(err, ErrLengthMismatch))

		bad := bytes.Clone(rec)
		bad[1] = 0xFF
		_, err = decodeValue(bad)
		require.ErrorIs(t, err, ErrMalformedValue)
	})

	small := []byte{1, 2, 3}
	rec = encodeValue(small, true)
	require.Equal(t, append([]byte{valueRaw}, small...), rec)

	rec = encodeValue(v, false)
	require.Equal(t, valueRaw, rec[0])

	_, err = decodeValue(nil)
	require.ErrorIs(t, err, ErrMalformedValue)
	_, err = decodeValue([]byte{7, 1})
	require.ErrorIs(t, err, ErrMalformedValue)
}

func TestValueStoreCompressedLength(t *testing.T) {
	s, _ := newTestStore(t, config.Trie{CompressValues: true})
	v := bytes.Repeat([]byte{0x42}, 1000)
	h, err := s.Values().PutValue(v)
	require.NoError(t, err)

	_, err = s.Values().GetValue(h, uint32(len(v)-1))
	require.ErrorIs(t, err, ErrLengthMismatch)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = s.Values().GetValue(h, 1<<30)
	runtime.ReadMemStats(&after)
	require.ErrorIs(t, err, ErrLengthMismatch)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))

	actual, err := s.Values().GetValue(h, uint32(len(v)))
	require.NoError(t, err)
	require.Equal(t, v, actual)
}

func TestValueStoreDigestMismatch(t *testing.T) {
	s, backend := newTestStore(t, config.Trie{VerifyDigests: true})
	v := random.Bytes(10)
	h := hash.Sha256(v)
	require.NoError(t, backend.PutChangeSet(map[string][]byte{
		string(makeKey(storage.DataMPTValue, h)): append([]byte{valueRaw}, random.Bytes(10)...),
	}))
	_, err := s.Values().GetValue(h, 10)
	require.True(t, errors.Is(err, ErrDigestMismatch))
}

func TestRoots(t *testing.T) {
	s, backend := newTestStore(t, config.Trie{})

	root, height, err := s.CurrentRoot()
	require.NoError(t, err)
	require.True(t, root.IsZero())
	require.Equal(t, uint32(0), height)

	roots := make([]util.Uint256, 5)
	for i := range roots {
		roots[i] = random.Uint256()
		s.PutRootAt(uint32(i), roots[i])
	}
	s.PutCurrentRoot(roots[4], 4)
	_, err = s.Persist()
	require.NoError(t, err)

	s2, err := New(backend, config.Trie{}, nil)
	require.NoError(t, err)
	root, height, err = s2.CurrentRoot()
	require.NoError(t, err)
	require.Equal(t, roots[4], root)
	require.Equal(t, uint32(4), height)

	for i := range roots {
		r, err := s2.RootAt(uint32(i))
		require.NoError(t, err)
		require.Equal(t, roots[i], r)
	}
	_, err = s2.RootAt(5)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	var seen []util.Uint256
	s2.Roots(func(h uint32, r util.Uint256) bool {
		require.Equal(t, uint32(len(seen)), h)
		seen = append(seen, r)
		return h < 2
	})
	require.Equal(t, roots[:3], seen)
}
