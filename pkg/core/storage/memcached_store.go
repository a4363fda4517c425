package storage

import (
	"bytes"
	"maps"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	val, ok := s.mem[string(key)]
	s.mut.RUnlock()
	if ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// Put puts new KV pair into the store.
func (s *MemCachedStore) Put(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	s.mut.Lock()
	s.mem[string(key)] = value
	s.mut.Unlock()
}

// Delete drops KV pair from the store. Never returns an error.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface, changes are kept in memory
// until Persist.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	maps.Copy(s.mem, puts)
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes take precedence over
// the lower layer contents.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	mem := s.collect(rng)
	s.mut.RUnlock()

	var lower []KeyValue
	s.ps.Seek(rng, func(k, v []byte) bool {
		lower = append(lower, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		return true
	})

	var i, j int
	for i < len(mem) || j < len(lower) {
		var kv KeyValue
		switch {
		case j == len(lower) || i < len(mem) && bytes.Compare(mem[i].Key, lower[j].Key) < 0:
			kv = mem[i]
			i++
		case i == len(mem) || bytes.Compare(mem[i].Key, lower[j].Key) > 0:
			kv = lower[j]
			j++
		default:
			kv = mem[i]
			i++
			j++
		}
		if kv.Value == nil {
			continue
		}
		if !f(kv.Key, kv.Value) {
			return
		}
	}
}

// Persist flushes all the MemoryStore contents into the (supposedly) persistent
// store ps. It returns the number of keys flushed.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, clears up memory and closes the lower layer
// Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	return s.ps.Close()
}
