package mpt

import (
	"bytes"
	"sort"
)

// Batch is a set of trie modifications to be applied at once. Entries are kept
// sorted by key, the last write wins for duplicate keys. Nil value means
// deletion.
type Batch struct {
	kv []keyValue
}

type keyValue struct {
	key   []byte
	value []byte
}

// MapToBatch makes a Batch from the unordered set of changes.
func MapToBatch(m map[string][]byte) Batch {
	var b Batch
	b.kv = make([]keyValue, 0, len(m))
	for k, v := range m {
		b.kv = append(b.kv, keyValue{key: []byte(k), value: bytes.Clone(v)})
	}
	sort.Slice(b.kv, func(i, j int) bool {
		return bytes.Compare(b.kv[i].key, b.kv[j].key) < 0
	})
	return b
}

// Add adds a key-value pair to the batch. Nil value means the key is to be
// deleted, empty non-nil value is a valid value. Both key and value are
// copied.
func (b *Batch) Add(key []byte, value []byte) {
	kv := keyValue{key: bytes.Clone(key), value: bytes.Clone(value)}
	if kv.key == nil {
		kv.key = []byte{}
	}
	i := sort.Search(len(b.kv), func(i int) bool {
		return bytes.Compare(kv.key, b.kv[i].key) <= 0
	})
	if i == len(b.kv) {
		b.kv = append(b.kv, kv)
	} else if bytes.Equal(b.kv[i].key, kv.key) {
		b.kv[i].value = kv.value
	} else {
		b.kv = append(b.kv, keyValue{})
		copy(b.kv[i+1:], b.kv[i:])
		b.kv[i] = kv
	}
}

// Delete adds key deletion to the batch.
func (b *Batch) Delete(key []byte) {
	b.Add(key, nil)
}

// Len returns the number of entries in the batch.
func (b *Batch) Len() int {
	return len(b.kv)
}
