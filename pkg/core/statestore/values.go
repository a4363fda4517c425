package statestore

import (
	"bytes"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/pierrec/lz4"
)

// Stored value record encodings, the first byte of every record.
const (
	valueRaw byte = 0
	valueLZ4 byte = 1
)

// ValueStore keeps values addressed by their SHA-256 hashes. Identical values
// share a single record.
type ValueStore struct {
	store    *storage.MemCachedStore
	cache    *lru.Cache
	verify   bool
	compress bool
}

// PutValue stores the value and returns its hash.
func (s *ValueStore) PutValue(value []byte) (util.Uint256, error) {
	h := hash.Sha256(value)
	s.store.Put(makeKey(storage.DataMPTValue, h), encodeValue(value, s.compress))
	if s.cache != nil {
		s.cache.Add(h, bytes.Clone(value))
	}
	valuesWritten.Inc()
	return h, nil
}

// GetValue returns the value with the given hash checking that it has the
// expected length. Returned slice must not be modified.
func (s *ValueStore) GetValue(h util.Uint256, length uint32) ([]byte, error) {
	var value []byte
	if s.cache != nil {
		if v, ok := s.cache.Get(h); ok {
			value = v.([]byte)
		}
	}
	if value == nil {
		rec, err := s.store.Get(makeKey(storage.DataMPTValue, h))
		if err != nil {
			return nil, fmt.Errorf("value %s: %w", h, err)
		}
		value, err = decodeValue(rec)
		if err != nil {
			return nil, fmt.Errorf("value %s: %w", h, err)
		}
		if s.verify && hash.Sha256(value) != h {
			digestMismatches.Inc()
			return nil, fmt.Errorf("%w: value %s", ErrDigestMismatch, h)
		}
		if s.cache != nil {
			s.cache.Add(h, value)
		}
	}
	if uint32(len(value)) != length {
		return nil, fmt.Errorf("%w: value %s has %d bytes, expected %d", ErrLengthMismatch, h, len(value), length)
	}
	return value, nil
}

// encodeValue prepends the value with the encoding byte compressing it if
// that makes it shorter.
func encodeValue(value []byte, compress bool) []byte {
	if compress && len(value) > 0 {
		dst := make([]byte, lz4.CompressBlockBound(len(value)))
		size, err := lz4.CompressBlock(value, dst, nil)
		if err == nil && size > 0 && size+1 < len(value) {
			res := make([]byte, 1+size)
			res[0] = valueLZ4
			copy(res[1:], dst[:size])
			return res
		}
	}
	res := make([]byte, 1+len(value))
	res[0] = valueRaw
	copy(res[1:], value)
	return res
}

// lz4MaxRatio is the largest possible lz4 block expansion ratio.
const lz4MaxRatio = 255

// decodeValue restores the value from its record. The decompression buffer
// is bounded by the record size only.
func decodeValue(rec []byte) ([]byte, error) {
	if len(rec) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformedValue)
	}
	switch rec[0] {
	case valueRaw:
		return bytes.Clone(rec[1:]), nil
	case valueLZ4:
		src := rec[1:]
		maxSize := uint64(len(src)) * lz4MaxRatio
		if maxSize > math.MaxUint32 {
			maxSize = math.MaxUint32
		}
		dst := make([]byte, maxSize)
		size, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedValue, err)
		}
		return bytes.Clone(dst[:size]), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrMalformedValue, rec[0])
	}
}
