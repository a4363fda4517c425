package mpt

import (
	"bytes"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// EncodeNode returns canonical node encoding. The digest of a node is the
// SHA-256 hash of this encoding.
func EncodeNode(n Node) []byte {
	return bytes.Clone(n.Bytes())
}

// DecodeNode decodes node from its canonical encoding. Any input that is not
// an encoding of some valid node is rejected with ErrMalformedEncoding.
func DecodeNode(data []byte) (Node, error) {
	return decodeNode(data, hash.Sha256(data))
}

// decodeNode decodes node with the known digest h.
func decodeNode(data []byte, h util.Uint256) (Node, error) {
	var (
		r = io.NewBinReaderFromBuf(data)
		n interface {
			Node
			validate() error
			setCache([]byte, util.Uint256)
		}
	)
	typ := NodeType(r.ReadB())
	if r.Err != nil {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedEncoding)
	}
	switch typ {
	case LeafT:
		n = new(LeafNode)
	case ExtensionT:
		n = new(ExtensionNode)
	case BranchT:
		n = new(BranchNode)
	case BranchWithValueT:
		n = &BranchNode{value: new(ValueRef)}
	default:
		return nil, fmt.Errorf("%w: invalid node type %d", ErrMalformedEncoding, byte(typ))
	}
	n.DecodeBinary(r)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEncoding, typ, r.Err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %s: %d trailing bytes", ErrMalformedEncoding, typ, r.Len())
	}
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEncoding, err)
	}
	n.setCache(bytes.Clone(data), h)
	return n, nil
}
