package mpt

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// childrenCount is the number of children of a branch node.
const childrenCount = 16

// BranchNode represents MPT's branch node. Absent children are represented
// by zero digests. Depending on the value presence it's encoded either as
// BranchT or as BranchWithValueT.
type BranchNode struct {
	BaseNode
	children [childrenCount]util.Uint256
	value    *ValueRef
}

var _ Node = (*BranchNode)(nil)

// NewBranchNode returns a new branch node. value can be nil. Branch without a
// value must have at least 2 children, branch with a value at least one.
func NewBranchNode(children [childrenCount]util.Uint256, value *ValueRef) (*BranchNode, error) {
	n := &BranchNode{children: children}
	if value != nil {
		v := *value
		n.value = &v
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	n.init(n)
	return n, nil
}

// Type implements Node interface.
func (b *BranchNode) Type() NodeType {
	if b.value != nil {
		return BranchWithValueT
	}
	return BranchT
}

// Child returns the digest of the i-th child, zero if the slot is empty.
func (b *BranchNode) Child(i byte) util.Uint256 { return b.children[i] }

// Children returns a copy of all child digests.
func (b *BranchNode) Children() [childrenCount]util.Uint256 { return b.children }

// Value returns the value reference stored in the branch.
func (b *BranchNode) Value() (ValueRef, bool) {
	if b.value == nil {
		return ValueRef{}, false
	}
	return *b.value, true
}

// HasValue returns true for BranchWithValueT nodes.
func (b *BranchNode) HasValue() bool { return b.value != nil }

// Bitmask returns the set of occupied child slots, bit i stands for slot i.
func (b *BranchNode) Bitmask() uint16 {
	var mask uint16
	for i := range b.children {
		if !b.children[i].IsZero() {
			mask |= 1 << i
		}
	}
	return mask
}

// EncodeBinary implements io.Serializable.
func (b *BranchNode) EncodeBinary(w *io.BinWriter) {
	w.WriteU16LE(b.Bitmask())
	for i := range b.children {
		if !b.children[i].IsZero() {
			w.WriteBytes(b.children[i][:])
		}
	}
	if b.value != nil {
		b.value.EncodeBinary(w)
	}
}

// DecodeBinary implements io.Serializable. b.value must be set to non-nil
// before the call for BranchWithValueT nodes.
func (b *BranchNode) DecodeBinary(r *io.BinReader) {
	mask := r.ReadU16LE()
	for i := range b.children {
		if mask&(1<<i) != 0 {
			r.ReadBytes(b.children[i][:])
			if r.Err == nil && b.children[i].IsZero() {
				r.Err = fmt.Errorf("zero digest for child %d", i)
			}
		}
	}
	if b.value != nil {
		b.value.DecodeBinary(r)
	}
}

func (b *BranchNode) validate() error {
	cnt := bits.OnesCount16(b.Bitmask())
	if b.value == nil && cnt < 2 {
		return fmt.Errorf("%w: branch without value has %d children", ErrInvalidNode, cnt)
	}
	if b.value != nil && cnt < 1 {
		return fmt.Errorf("%w: branch with value has no children", ErrInvalidNode)
	}
	return nil
}

// firstChild returns the index of the first non-empty child slot.
func (b *BranchNode) firstChild() byte {
	return byte(bits.TrailingZeros16(b.Bitmask()))
}

// MarshalJSON implements json.Marshaler.
func (b *BranchNode) MarshalJSON() ([]byte, error) {
	children := make(map[string]string, childrenCount)
	for i := range b.children {
		if !b.children[i].IsZero() {
			children[nibblesToString([]byte{byte(i)})] = "0x" + b.children[i].String()
		}
	}
	res := struct {
		Type     string            `json:"type"`
		Children map[string]string `json:"children"`
		Value    *jsonValueRef     `json:"value,omitempty"`
	}{
		Type:     b.Type().String(),
		Children: children,
	}
	if b.value != nil {
		v := toJSONValueRef(*b.value)
		res.Value = &v
	}
	return json.Marshal(res)
}
