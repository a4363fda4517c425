package mpt

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// NodeType represents node type.
type NodeType byte

// Node types definitions. These are the first byte of every encoded node.
const (
	LeafT            NodeType = 0x00
	BranchT          NodeType = 0x01
	BranchWithValueT NodeType = 0x02
	ExtensionT       NodeType = 0x03
)

const (
	// MaxKeyLength is the max length of the key to put in the trie
	// before transforming to nibbles.
	MaxKeyLength = 4096

	// MaxPathLength is the max length of the node key in nibbles.
	MaxPathLength = MaxKeyLength * 2

	// MaxValueLength is the max length of a value, it must fit into
	// ValueRef.Length.
	MaxValueLength = 1<<32 - 1
)

var (
	// EmptyRoot is the root hash of an empty trie. It's not a hash of any
	// node, empty trie has no nodes stored.
	EmptyRoot = util.Uint256{}

	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrMissingNode is returned when a node referenced by some other node
	// can't be found in the store. It means the store is inconsistent.
	ErrMissingNode = errors.New("missing trie node")
	// ErrInvalidNode is returned on an attempt to construct a node violating
	// trie structure rules.
	ErrInvalidNode = errors.New("invalid node")
	// ErrMalformedEncoding is returned when node bytes can't be decoded.
	ErrMalformedEncoding = errors.New("malformed node encoding")
	// ErrKeyTooBig is returned for keys longer than MaxKeyLength.
	ErrKeyTooBig = errors.New("key is too big")
	// ErrValueTooBig is returned for values longer than MaxValueLength.
	ErrValueTooBig = errors.New("value is too big")
)

// Node represents common interface of all MPT nodes. Nodes are immutable,
// hash and bytes are calculated once upon construction or decoding.
type Node interface {
	io.Serializable
	Type() NodeType
	Hash() util.Uint256
	Bytes() []byte
}

// ValueRef is a reference to the value stored in the ValueStore.
type ValueRef struct {
	Length uint32
	Hash   util.Uint256
}

// NewValueRef returns a reference to the given value. It panics if the value
// is bigger than MaxValueLength.
func NewValueRef(value []byte) ValueRef {
	if uint64(len(value)) > MaxValueLength {
		panic("value is too big")
	}
	return ValueRef{
		Length: uint32(len(value)),
		Hash:   hash.Sha256(value),
	}
}

// EncodeBinary implements io.Serializable.
func (v *ValueRef) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(v.Length)
	w.WriteBytes(v.Hash[:])
}

// DecodeBinary implements io.Serializable.
func (v *ValueRef) DecodeBinary(r *io.BinReader) {
	v.Length = r.ReadU32LE()
	r.ReadBytes(v.Hash[:])
}

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case LeafT:
		return "leaf"
	case BranchT:
		return "branch"
	case BranchWithValueT:
		return "branch with value"
	case ExtensionT:
		return "extension"
	default:
		return fmt.Sprintf("unknown node type %d", byte(t))
	}
}

// validatePath checks node key for validity.
func validatePath(path []byte) error {
	if len(path) > MaxPathLength {
		return fmt.Errorf("%w: key is too long: %d nibbles", ErrInvalidNode, len(path))
	}
	if !isValidPath(path) {
		return fmt.Errorf("%w: key contains non-nibble element", ErrInvalidNode)
	}
	return nil
}
