package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/zap"
)

// NodeStore is a content-addressed storage of encoded nodes. GetNode must
// return an error for unknown digests, PutNode must be idempotent.
type NodeStore interface {
	GetNode(h util.Uint256) ([]byte, error)
	PutNode(h util.Uint256, data []byte) error
}

// ValueStore is a content-addressed storage of values referenced by trie
// nodes. Values are identified by their SHA-256 hash.
type ValueStore interface {
	GetValue(h util.Uint256, length uint32) ([]byte, error)
	PutValue(value []byte) (util.Uint256, error)
}

// NodeRecord is a newly created node ready to be stored.
type NodeRecord struct {
	Hash  util.Uint256
	Bytes []byte
}

// Config contains Trie collaborators.
type Config struct {
	Nodes  NodeStore
	Values ValueStore
	Log    *zap.Logger
}

// Trie is an MPT trie engine. It keeps no version state, every operation gets
// the root digest of the trie version to work with and mutating operations
// return the root of the resulting version leaving the original one intact.
// It's safe for concurrent use as long as the stores are.
type Trie struct {
	nodes  NodeStore
	values ValueStore
	log    *zap.Logger
}

// NewTrie returns a new MPT trie engine working over the given stores.
func NewTrie(cfg Config) *Trie {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Trie{
		nodes:  cfg.Nodes,
		values: cfg.Values,
		log:    log,
	}
}

// Get returns the value for the provided key in the trie with the given root.
func (t *Trie) Get(root util.Uint256, key []byte) ([]byte, error) {
	ref, err := t.GetRef(root, key)
	if err != nil {
		return nil, err
	}
	val, err := t.values.GetValue(ref.Hash, ref.Length)
	if err != nil {
		return nil, fmt.Errorf("failed to get value %s: %w", ref.Hash, err)
	}
	return val, nil
}

// GetRef returns the value reference for the provided key in the trie with
// the given root without fetching the value itself.
func (t *Trie) GetRef(root util.Uint256, key []byte) (ValueRef, error) {
	if len(key) > MaxKeyLength {
		return ValueRef{}, ErrKeyTooBig
	}
	m := t.newMutator()
	return m.walk(root, toNibbles(key), nil)
}

// Put puts the key-value pair into the trie with the given root and returns
// the new root. Nil value is treated as an empty one. New nodes are written
// to the node store.
func (t *Trie) Put(root util.Uint256, key, value []byte) (util.Uint256, error) {
	if value == nil {
		value = []byte{}
	}
	var b Batch
	b.Add(key, value)
	return t.applyAndCommit(root, b)
}

// Delete removes the key from the trie with the given root and returns the
// new root. Deleting a missing key is not an error, the same root is
// returned then.
func (t *Trie) Delete(root util.Uint256, key []byte) (util.Uint256, error) {
	var b Batch
	b.Add(key, nil)
	return t.applyAndCommit(root, b)
}

func (t *Trie) applyAndCommit(root util.Uint256, b Batch) (util.Uint256, error) {
	newRoot, nodes, err := t.PutBatch(root, b)
	if err != nil {
		return root, err
	}
	if err := t.Commit(nodes); err != nil {
		return root, err
	}
	return newRoot, nil
}

// PutBatch applies the batch to the trie with the given root. Values are
// written to the value store immediately, while new nodes are only returned
// (children go before parents) and are to be committed by the caller. Only
// nodes reachable from the new root are returned.
func (t *Trie) PutBatch(root util.Uint256, b Batch) (util.Uint256, []NodeRecord, error) {
	var (
		m    = t.newMutator()
		base = root
	)
	for _, kv := range b.kv {
		if len(kv.key) > MaxKeyLength {
			return base, nil, fmt.Errorf("%w: %d bytes", ErrKeyTooBig, len(kv.key))
		}
		path := toNibbles(kv.key)
		if kv.value == nil {
			r, err := m.delete(root, path)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return base, nil, err
			}
			root = r
			continue
		}
		if uint64(len(kv.value)) > MaxValueLength {
			return base, nil, fmt.Errorf("%w: %d bytes", ErrValueTooBig, len(kv.value))
		}
		ref := NewValueRef(kv.value)
		h, err := t.values.PutValue(kv.value)
		if err != nil {
			return base, nil, fmt.Errorf("failed to put value: %w", err)
		}
		if h != ref.Hash {
			return base, nil, fmt.Errorf("value store returned %s for value %s", h, ref.Hash)
		}
		root, err = m.put(root, path, ref)
		if err != nil {
			return base, nil, err
		}
	}
	nodes := m.collect(root)
	t.log.Debug("batch applied",
		zap.Int("ops", len(b.kv)),
		zap.Int("new nodes", len(nodes)),
		zap.Stringer("root", root))
	return root, nodes, nil
}

// Commit writes the nodes to the node store.
func (t *Trie) Commit(nodes []NodeRecord) error {
	for i := range nodes {
		if err := t.nodes.PutNode(nodes[i].Hash, nodes[i].Bytes); err != nil {
			return fmt.Errorf("failed to put node %s: %w", nodes[i].Hash, err)
		}
	}
	return nil
}

// getNode fetches the node from the store.
func (t *Trie) getNode(h util.Uint256) (Node, error) {
	data, err := t.nodes.GetNode(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingNode, h, err)
	}
	n, err := decodeNode(data, h)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", h, err)
	}
	return n, nil
}

// mutator builds new trie versions on top of the stored ones. New nodes are
// kept in memory until collected.
type mutator struct {
	t     *Trie
	fresh map[util.Uint256]Node
}

func (t *Trie) newMutator() *mutator {
	return &mutator{
		t:     t,
		fresh: make(map[util.Uint256]Node),
	}
}

func (m *mutator) getNode(h util.Uint256) (Node, error) {
	if n, ok := m.fresh[h]; ok {
		return n, nil
	}
	return m.t.getNode(h)
}

func (m *mutator) add(n Node) util.Uint256 {
	m.fresh[n.Hash()] = n
	return n.Hash()
}

func (m *mutator) newLeaf(key []byte, v ValueRef) (util.Uint256, error) {
	n, err := NewLeafNode(key, v)
	if err != nil {
		return util.Uint256{}, err
	}
	return m.add(n), nil
}

// newExtension wraps next into an extension with the given key. Empty key
// leaves next as is.
func (m *mutator) newExtension(key []byte, next util.Uint256) (util.Uint256, error) {
	if len(key) == 0 {
		return next, nil
	}
	n, err := NewExtensionNode(key, next)
	if err != nil {
		return util.Uint256{}, err
	}
	return m.add(n), nil
}

func (m *mutator) newBranch(children [childrenCount]util.Uint256, v *ValueRef) (util.Uint256, error) {
	n, err := NewBranchNode(children, v)
	if err != nil {
		return util.Uint256{}, err
	}
	return m.add(n), nil
}

// walk descends to the path calling fn for every node on the way.
func (m *mutator) walk(h util.Uint256, path []byte, fn func(Node)) (ValueRef, error) {
	for {
		if h.IsZero() {
			return ValueRef{}, ErrNotFound
		}
		n, err := m.getNode(h)
		if err != nil {
			return ValueRef{}, err
		}
		if fn != nil {
			fn(n)
		}
		switch n := n.(type) {
		case *LeafNode:
			if bytes.Equal(n.key, path) {
				return n.value, nil
			}
			return ValueRef{}, ErrNotFound
		case *ExtensionNode:
			if !bytes.HasPrefix(path, n.key) {
				return ValueRef{}, ErrNotFound
			}
			h, path = n.next, path[len(n.key):]
		case *BranchNode:
			if len(path) == 0 {
				if n.value == nil {
					return ValueRef{}, ErrNotFound
				}
				return *n.value, nil
			}
			h, path = n.children[path[0]], path[1:]
		}
	}
}

// put puts the value to the subtrie with the root h. The same root is
// returned if nothing has changed.
func (m *mutator) put(h util.Uint256, path []byte, v ValueRef) (util.Uint256, error) {
	if h.IsZero() {
		return m.newLeaf(path, v)
	}
	n, err := m.getNode(h)
	if err != nil {
		return h, err
	}
	switch n := n.(type) {
	case *LeafNode:
		return m.putIntoLeaf(n, path, v)
	case *ExtensionNode:
		return m.putIntoExtension(n, path, v)
	case *BranchNode:
		return m.putIntoBranch(n, path, v)
	default:
		panic("invalid MPT node type")
	}
}

func (m *mutator) putIntoLeaf(n *LeafNode, path []byte, v ValueRef) (util.Uint256, error) {
	if bytes.Equal(n.key, path) {
		if n.value == v {
			return n.Hash(), nil
		}
		return m.newLeaf(path, v)
	}
	var (
		pref     = lcp(n.key, path)
		children [childrenCount]util.Uint256
		value    *ValueRef
	)
	if err := m.attach(&children, &value, n.key[len(pref):], n.value); err != nil {
		return n.Hash(), err
	}
	if err := m.attach(&children, &value, path[len(pref):], v); err != nil {
		return n.Hash(), err
	}
	b, err := m.newBranch(children, value)
	if err != nil {
		return n.Hash(), err
	}
	return m.newExtension(pref, b)
}

func (m *mutator) putIntoExtension(n *ExtensionNode, path []byte, v ValueRef) (util.Uint256, error) {
	if bytes.HasPrefix(path, n.key) {
		r, err := m.put(n.next, path[len(n.key):], v)
		if err != nil || r == n.next {
			return n.Hash(), err
		}
		return m.newExtension(n.key, r)
	}

	var (
		pref     = lcp(n.key, path)
		keyTail  = n.key[len(pref):]
		children [childrenCount]util.Uint256
		value    *ValueRef
	)
	if len(keyTail) == 1 {
		children[keyTail[0]] = n.next
	} else {
		e, err := m.newExtension(keyTail[1:], n.next)
		if err != nil {
			return n.Hash(), err
		}
		children[keyTail[0]] = e
	}
	if err := m.attach(&children, &value, path[len(pref):], v); err != nil {
		return n.Hash(), err
	}
	b, err := m.newBranch(children, value)
	if err != nil {
		return n.Hash(), err
	}
	return m.newExtension(pref, b)
}

func (m *mutator) putIntoBranch(n *BranchNode, path []byte, v ValueRef) (util.Uint256, error) {
	children, value := n.children, n.value
	if len(path) == 0 {
		if value != nil && *value == v {
			return n.Hash(), nil
		}
		value = &v
	} else {
		r, err := m.put(children[path[0]], path[1:], v)
		if err != nil || r == children[path[0]] {
			return n.Hash(), err
		}
		children[path[0]] = r
	}
	return m.newBranch(children, value)
}

// attach places the value with the remaining path rest into the branch
// being built.
func (m *mutator) attach(children *[childrenCount]util.Uint256, value **ValueRef, rest []byte, v ValueRef) error {
	if len(rest) == 0 {
		*value = &v
		return nil
	}
	h, err := m.newLeaf(rest[1:], v)
	if err != nil {
		return err
	}
	children[rest[0]] = h
	return nil
}

// delete removes the path from the subtrie with the root h. ErrNotFound is
// returned if there is no such path.
func (m *mutator) delete(h util.Uint256, path []byte) (util.Uint256, error) {
	if h.IsZero() {
		return h, ErrNotFound
	}
	n, err := m.getNode(h)
	if err != nil {
		return h, err
	}
	switch n := n.(type) {
	case *LeafNode:
		if bytes.Equal(n.key, path) {
			return EmptyRoot, nil
		}
		return h, ErrNotFound
	case *ExtensionNode:
		if !bytes.HasPrefix(path, n.key) {
			return h, ErrNotFound
		}
		r, err := m.delete(n.next, path[len(n.key):])
		if err != nil {
			return h, err
		}
		return m.prepend(n.key, r)
	case *BranchNode:
		children, value := n.children, n.value
		if len(path) == 0 {
			if value == nil {
				return h, ErrNotFound
			}
			value = nil
		} else {
			r, err := m.delete(children[path[0]], path[1:])
			if err != nil {
				return h, err
			}
			children[path[0]] = r
		}
		return m.normalizeBranch(children, value)
	default:
		panic("invalid MPT node type")
	}
}

// normalizeBranch returns the canonical form of the branch with the given
// contents.
func (m *mutator) normalizeBranch(children [childrenCount]util.Uint256, value *ValueRef) (util.Uint256, error) {
	var (
		cnt int
		idx byte
	)
	for i := range children {
		if !children[i].IsZero() {
			cnt++
			idx = byte(i)
		}
	}
	switch {
	case cnt == 0 && value == nil:
		return EmptyRoot, nil
	case cnt == 0:
		return m.newLeaf(nil, *value)
	case cnt == 1 && value == nil:
		return m.prepend([]byte{idx}, children[idx])
	default:
		return m.newBranch(children, value)
	}
}

// prepend returns the root of the subtrie h with all paths prefixed by
// prefix, nested extensions and leaves are merged.
func (m *mutator) prepend(prefix []byte, h util.Uint256) (util.Uint256, error) {
	if len(prefix) == 0 || h.IsZero() {
		return h, nil
	}
	n, err := m.getNode(h)
	if err != nil {
		return h, err
	}
	switch n := n.(type) {
	case *LeafNode:
		return m.newLeaf(concatPaths(prefix, n.key), n.value)
	case *ExtensionNode:
		return m.newExtension(concatPaths(prefix, n.key), n.next)
	default:
		return m.newExtension(prefix, h)
	}
}

// collect returns the new nodes reachable from h, children first. Every node
// is returned once.
func (m *mutator) collect(h util.Uint256) []NodeRecord {
	var res []NodeRecord
	var visit func(util.Uint256)
	visit = func(h util.Uint256) {
		n, ok := m.fresh[h]
		if !ok {
			return
		}
		delete(m.fresh, h)
		switch n := n.(type) {
		case *ExtensionNode:
			visit(n.next)
		case *BranchNode:
			for i := range n.children {
				if !n.children[i].IsZero() {
					visit(n.children[i])
				}
			}
		}
		res = append(res, NodeRecord{Hash: h, Bytes: n.Bytes()})
	}
	visit(h)
	return res
}
