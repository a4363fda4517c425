package statestore

import (
	"bytes"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// NodeStore keeps encoded trie nodes addressed by their digests.
type NodeStore struct {
	store  *storage.MemCachedStore
	cache  *lru.Cache
	verify bool
}

// GetNode returns encoded node by its digest. storage.ErrKeyNotFound is
// returned for unknown digests. Returned slice must not be modified.
func (s *NodeStore) GetNode(h util.Uint256) ([]byte, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(h); ok {
			nodeCacheHits.Inc()
			return v.([]byte), nil
		}
		nodeCacheMisses.Inc()
	}
	data, err := s.store.Get(makeKey(storage.DataMPT, h))
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", h, err)
	}
	if s.verify && hash.Sha256(data) != h {
		digestMismatches.Inc()
		return nil, fmt.Errorf("%w: node %s", ErrDigestMismatch, h)
	}
	if s.cache != nil {
		s.cache.Add(h, data)
	}
	return data, nil
}

// PutNode stores encoded node, storing the same node twice is a no-op.
func (s *NodeStore) PutNode(h util.Uint256, data []byte) error {
	if s.verify && hash.Sha256(data) != h {
		digestMismatches.Inc()
		return fmt.Errorf("%w: node %s", ErrDigestMismatch, h)
	}
	data = bytes.Clone(data)
	s.store.Put(makeKey(storage.DataMPT, h), data)
	if s.cache != nil {
		s.cache.Add(h, data)
	}
	nodesWritten.Inc()
	return nil
}
