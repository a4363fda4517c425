package mpt

import (
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Traverse walks the trie with the given root in pre-order calling process
// for every node. path is the nibble path from the root to the node (not
// including the node's own key). If process returns true, the traversal
// stops without an error.
func (t *Trie) Traverse(root util.Uint256, process func(path []byte, h util.Uint256, n Node) bool) error {
	_, err := t.traverse(root, []byte{}, process)
	return err
}

func (t *Trie) traverse(h util.Uint256, path []byte, process func([]byte, util.Uint256, Node) bool) (bool, error) {
	if h.IsZero() {
		return false, nil
	}
	n, err := t.getNode(h)
	if err != nil {
		return false, err
	}
	if process(path, h, n) {
		return true, nil
	}
	switch n := n.(type) {
	case *ExtensionNode:
		return t.traverse(n.next, concatPaths(path, n.key), process)
	case *BranchNode:
		for i := range n.children {
			if n.children[i].IsZero() {
				continue
			}
			stop, err := t.traverse(n.children[i], concatPaths(path, []byte{byte(i)}), process)
			if stop || err != nil {
				return stop, err
			}
		}
	}
	return false, nil
}

// KeyOf returns the full key of the value stored in the node n found at
// path during traversal. ok is false if n holds no value or the key is not
// a whole number of bytes.
func KeyOf(path []byte, n Node) ([]byte, bool) {
	switch n := n.(type) {
	case *LeafNode:
		path = concatPaths(path, n.key)
	case *BranchNode:
		if !n.HasValue() {
			return nil, false
		}
	default:
		return nil, false
	}
	if len(path)%2 != 0 {
		return nil, false
	}
	return fromNibbles(path), true
}
