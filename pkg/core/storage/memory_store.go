package storage

import (
	"bytes"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of a Store, mainly
// used for testing. Do not use MemoryStore in production.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates a new MemoryStore object.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mem: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok && val != nil {
		return val, nil
	}
	return nil, ErrKeyNotFound
}

// PutChangeSet implements the Store interface. Never returns an error.
func (s *MemoryStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k := range puts {
		if puts[k] != nil {
			s.mem[k] = puts[k]
		} else {
			delete(s.mem, k)
		}
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	items := s.collect(rng)
	s.mut.RUnlock()
	for _, kv := range items {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// collect returns sorted items matching the range, it's supposed to be
// called with mutex locked. Deleted (nil) entries are included, it's up to
// the caller to filter them.
func (s *MemoryStore) collect(rng SeekRange) []KeyValue {
	var (
		sPrefix = string(rng.Prefix)
		sStart  = sPrefix + string(rng.Start)
		res     []KeyValue
	)
	for k, v := range s.mem {
		if strings.HasPrefix(k, sPrefix) && k >= sStart {
			res = append(res, KeyValue{Key: []byte(k), Value: v})
		}
	}
	slices.SortFunc(res, func(a, b KeyValue) int {
		return bytes.Compare(a.Key, b.Key)
	})
	return res
}

// Close implements Store interface and clears up memory. Never returns an
// error.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	s.mem = nil
	s.mut.Unlock()
	return nil
}
