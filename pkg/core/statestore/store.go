package statestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/zap"
)

var (
	// ErrDigestMismatch is returned when data doesn't match the digest it's
	// stored or requested with.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrLengthMismatch is returned when stored value length differs from
	// the expected one.
	ErrLengthMismatch = errors.New("value length mismatch")
	// ErrMalformedValue is returned for stored value records that can't be
	// decoded.
	ErrMalformedValue = errors.New("malformed value record")
)

// Store groups node and value stores and root bookkeeping over a single
// backend so that they are persisted together.
type Store struct {
	mem    *storage.MemCachedStore
	log    *zap.Logger
	nodes  *NodeStore
	values *ValueStore
}

// New returns a Store over the given backend.
func New(backend storage.Store, cfg config.Trie, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mem := storage.NewMemCachedStore(backend)
	nodeCache, err := newCache(cfg.NodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("node cache: %w", err)
	}
	valueCache, err := newCache(cfg.ValueCacheSize)
	if err != nil {
		return nil, fmt.Errorf("value cache: %w", err)
	}
	return &Store{
		mem: mem,
		log: log,
		nodes: &NodeStore{
			store:  mem,
			cache:  nodeCache,
			verify: cfg.VerifyDigests,
		},
		values: &ValueStore{
			store:    mem,
			cache:    valueCache,
			verify:   cfg.VerifyDigests,
			compress: cfg.CompressValues,
		},
	}, nil
}

func newCache(size int) (*lru.Cache, error) {
	if size <= 0 {
		return nil, nil
	}
	return lru.New(size)
}

// Nodes returns the node store.
func (s *Store) Nodes() *NodeStore {
	return s.nodes
}

// Values returns the value store.
func (s *Store) Values() *ValueStore {
	return s.values
}

// PutCurrentRoot saves the latest root along with its height.
func (s *Store) PutCurrentRoot(root util.Uint256, height uint32) {
	buf := make([]byte, util.Uint256Size+4)
	copy(buf, root[:])
	binary.LittleEndian.PutUint32(buf[util.Uint256Size:], height)
	s.mem.Put(storage.SYSCurrentRoot.Bytes(), buf)
}

// CurrentRoot returns the latest root and its height. Zero root and height
// are returned for an empty store.
func (s *Store) CurrentRoot() (util.Uint256, uint32, error) {
	buf, err := s.mem.Get(storage.SYSCurrentRoot.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return util.Uint256{}, 0, nil
	}
	if err != nil {
		return util.Uint256{}, 0, err
	}
	if len(buf) != util.Uint256Size+4 {
		return util.Uint256{}, 0, fmt.Errorf("invalid current root record length %d", len(buf))
	}
	var root util.Uint256
	copy(root[:], buf)
	return root, binary.LittleEndian.Uint32(buf[util.Uint256Size:]), nil
}

// PutRootAt saves the root of the trie version with the given height.
func (s *Store) PutRootAt(height uint32, root util.Uint256) {
	s.mem.Put(makeHeightKey(height), root.Bytes())
}

// RootAt returns the root of the trie version with the given height.
func (s *Store) RootAt(height uint32) (util.Uint256, error) {
	data, err := s.mem.Get(makeHeightKey(height))
	if err != nil {
		return util.Uint256{}, fmt.Errorf("root at %d: %w", height, err)
	}
	return util.Uint256DecodeBytes(data)
}

// Roots iterates over the root history in ascending height order until f
// returns false.
func (s *Store) Roots(f func(height uint32, root util.Uint256) bool) {
	s.mem.Seek(storage.SeekRange{Prefix: storage.DataMPTAux.Bytes()}, func(k, v []byte) bool {
		if len(k) != 5 {
			return true
		}
		root, err := util.Uint256DecodeBytes(v)
		if err != nil {
			return true
		}
		return f(binary.BigEndian.Uint32(k[1:]), root)
	})
}

// Persist flushes all pending changes to the backend and returns the number
// of keys written.
func (s *Store) Persist() (int, error) {
	start := time.Now()
	keys, err := s.mem.Persist()
	if err != nil {
		return 0, fmt.Errorf("failed to persist: %w", err)
	}
	if keys != 0 {
		s.log.Debug("persisted to disk",
			zap.Int("keys", keys),
			zap.Duration("took", time.Since(start)))
	}
	return keys, nil
}

// Close closes the backend, pending changes are lost.
func (s *Store) Close() error {
	return s.mem.Close()
}

// makeHeightKey uses big-endian height so that Seek returns roots in order.
func makeHeightKey(height uint32) []byte {
	key := make([]byte, 5)
	key[0] = byte(storage.DataMPTAux)
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

func makeKey(prefix storage.KeyPrefix, h util.Uint256) []byte {
	key := make([]byte, 1+util.Uint256Size)
	key[0] = byte(prefix)
	copy(key[1:], h[:])
	return key
}
