package mpt

import (
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestTrieGetProof(t *testing.T) {
	tr := newTestTrie(t)
	kv := map[string][]byte{
		"\x12\x34":     []byte("a"),
		"\x12\x56":     []byte("b"),
		"\x12\x56\x78": []byte("c"),
		"\x20":         []byte("d"),
	}
	root := putAll(t, tr, EmptyRoot, kv)

	for k, v := range kv {
		proof, err := tr.GetProof(root, []byte(k))
		require.NoError(t, err)
		require.Equal(t, root, hash.Sha256(proof[0]))

		ref, ok := VerifyProof(root, []byte(k), proof)
		require.True(t, ok)
		require.Equal(t, NewValueRef(v), ref)

		_, ok = VerifyProof(util.Uint256{1}, []byte(k), proof)
		require.False(t, ok)
		_, ok = VerifyProof(root, []byte(k), proof[:len(proof)-1])
		require.False(t, ok)
	}

	_, err := tr.GetProof(root, []byte{0x12, 0x35})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tr.GetProof(root, make([]byte, MaxKeyLength+1))
	require.ErrorIs(t, err, ErrKeyTooBig)

	t.Run("tampered", func(t *testing.T) {
		proof, err := tr.GetProof(root, []byte{0x12, 0x34})
		require.NoError(t, err)
		last := append([]byte{}, proof[len(proof)-1]...)
		last[len(last)-1] ^= 0xff
		proof[len(proof)-1] = last
		_, ok := VerifyProof(root, []byte{0x12, 0x34}, proof)
		require.False(t, ok)
	})

	t.Run("foreign key", func(t *testing.T) {
		proof, err := tr.GetProof(root, []byte{0x12, 0x34})
		require.NoError(t, err)
		_, ok := VerifyProof(root, []byte{0x12, 0x56}, proof)
		require.False(t, ok)
	})
}
