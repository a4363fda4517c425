package mpt

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// ExtensionNode represents MPT's extension node. It compresses a non-empty
// run of nibbles shared by all keys below it.
type ExtensionNode struct {
	BaseNode
	key  []byte
	next util.Uint256
}

var _ Node = (*ExtensionNode)(nil)

// NewExtensionNode returns an extension node with the specified key (in nibbles)
// and the child digest.
func NewExtensionNode(key []byte, next util.Uint256) (*ExtensionNode, error) {
	n := &ExtensionNode{key: key, next: next}
	if err := n.validate(); err != nil {
		return nil, err
	}
	n.init(n)
	return n, nil
}

// Type implements Node interface.
func (n *ExtensionNode) Type() NodeType { return ExtensionT }

// Key returns the shared key part in nibbles. It must not be modified.
func (n *ExtensionNode) Key() []byte { return n.key }

// Next returns the child digest.
func (n *ExtensionNode) Next() util.Uint256 { return n.next }

// EncodeBinary implements io.Serializable.
func (n *ExtensionNode) EncodeBinary(w *io.BinWriter) {
	encodePath(w, n.key)
	w.WriteBytes(n.next[:])
}

// DecodeBinary implements io.Serializable.
func (n *ExtensionNode) DecodeBinary(r *io.BinReader) {
	n.key = decodePath(r)
	r.ReadBytes(n.next[:])
}

func (n *ExtensionNode) validate() error {
	if len(n.key) == 0 {
		return fmt.Errorf("%w: empty extension key", ErrInvalidNode)
	}
	if n.next.IsZero() {
		return fmt.Errorf("%w: empty extension child", ErrInvalidNode)
	}
	return validatePath(n.key)
}

// MarshalJSON implements json.Marshaler.
func (n *ExtensionNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Key  string `json:"key"`
		Next string `json:"next"`
	}{
		Type: n.Type().String(),
		Key:  nibblesToString(n.key),
		Next: "0x" + n.next.String(),
	})
}
