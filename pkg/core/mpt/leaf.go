package mpt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/io"
)

// LeafNode represents MPT's leaf node. It holds the remaining part of the
// key (which can be empty) and the reference to the value.
type LeafNode struct {
	BaseNode
	key   []byte
	value ValueRef
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns a leaf node with the specified key (in nibbles) and
// value reference.
func NewLeafNode(key []byte, value ValueRef) (*LeafNode, error) {
	if err := validatePath(key); err != nil {
		return nil, err
	}
	n := &LeafNode{key: key, value: value}
	n.init(n)
	return n, nil
}

// Type implements Node interface.
func (n *LeafNode) Type() NodeType { return LeafT }

// Key returns the remaining key path in nibbles. It must not be modified.
func (n *LeafNode) Key() []byte { return n.key }

// Value returns the value reference.
func (n *LeafNode) Value() ValueRef { return n.value }

// EncodeBinary implements io.Serializable.
func (n *LeafNode) EncodeBinary(w *io.BinWriter) {
	encodePath(w, n.key)
	n.value.EncodeBinary(w)
}

// DecodeBinary implements io.Serializable.
func (n *LeafNode) DecodeBinary(r *io.BinReader) {
	n.key = decodePath(r)
	n.value.DecodeBinary(r)
}

func (n *LeafNode) validate() error {
	return validatePath(n.key)
}

// MarshalJSON implements json.Marshaler.
func (n *LeafNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string       `json:"type"`
		Key   string       `json:"key"`
		Value jsonValueRef `json:"value"`
	}{
		Type:  n.Type().String(),
		Key:   nibblesToString(n.key),
		Value: toJSONValueRef(n.value),
	})
}

type jsonValueRef struct {
	Length uint32 `json:"length"`
	Hash   string `json:"hash"`
}

func toJSONValueRef(v ValueRef) jsonValueRef {
	return jsonValueRef{Length: v.Length, Hash: "0x" + v.Hash.String()}
}

// nibblesToString renders every nibble as a single hex character.
func nibblesToString(path []byte) string {
	const digits = "0123456789abcdef"
	res := make([]byte, len(path))
	for i, b := range path {
		res[i] = digits[b]
	}
	return string(res)
}

// encodePath writes nibble count followed by packed nibbles.
func encodePath(w *io.BinWriter, path []byte) {
	w.WriteU32LE(uint32(len(path)))
	w.WriteBytes(packNibbles(path))
}

// decodePath is the reverse of encodePath, it sets r.Err for malformed input.
func decodePath(r *io.BinReader) []byte {
	n := r.ReadU32LE()
	if r.Err != nil {
		return nil
	}
	if n > MaxPathLength {
		r.Err = fmt.Errorf("key is too long: %d nibbles", n)
		return nil
	}
	packed := make([]byte, (n+1)/2)
	r.ReadBytes(packed)
	if r.Err != nil {
		return nil
	}
	path, ok := unpackNibbles(packed, int(n))
	if !ok {
		r.Err = fmt.Errorf("non-zero key padding %s", hex.EncodeToString(packed[len(packed)-1:]))
		return nil
	}
	return path
}
