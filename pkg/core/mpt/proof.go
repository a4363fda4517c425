package mpt

import (
	"bytes"
	"errors"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// GetProof returns a proof that the key belongs to the trie with the given
// root. The proof is the list of encoded nodes on the path from the root to
// the value, root first.
func (t *Trie) GetProof(root util.Uint256, key []byte) ([][]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooBig
	}
	var proof [][]byte
	m := t.newMutator()
	_, err := m.walk(root, toNibbles(key), func(n Node) {
		proof = append(proof, bytes.Clone(n.Bytes()))
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// VerifyProof verifies that the path indeed belongs to the MPT with the
// specified root hash and returns the value reference for the key.
func VerifyProof(root util.Uint256, key []byte, proof [][]byte) (ValueRef, bool) {
	ps := make(proofStore, len(proof))
	for i := range proof {
		ps[hash.Sha256(proof[i])] = proof[i]
	}
	tr := NewTrie(Config{Nodes: ps})
	ref, err := tr.GetRef(root, key)
	return ref, err == nil
}

// proofStore is a read-only NodeStore over the proof nodes.
type proofStore map[util.Uint256][]byte

var errProofNodeMissing = errors.New("node is not in the proof")

func (ps proofStore) GetNode(h util.Uint256) ([]byte, error) {
	data, ok := ps[h]
	if !ok {
		return nil, errProofNodeMissing
	}
	return data, nil
}

func (ps proofStore) PutNode(util.Uint256, []byte) error {
	return errors.New("proof store is read-only")
}
