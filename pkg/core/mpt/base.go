package mpt

import (
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// BaseNode implements basic things every node needs like caching hash and
// serialized representation. It's a basic node building block intended to be
// included into all node types.
type BaseNode struct {
	hash  util.Uint256
	bytes []byte
}

// Hash returns node hash, that is the hash of node bytes.
func (b *BaseNode) Hash() util.Uint256 {
	return b.hash
}

// Bytes returns canonical node encoding. It must not be modified.
func (b *BaseNode) Bytes() []byte {
	return b.bytes
}

// init encodes n and calculates its hash.
func (b *BaseNode) init(n Node) {
	b.setCache(toBytes(n), util.Uint256{})
	b.hash = hash.Sha256(b.bytes)
}

// setCache sets node bytes and hash, bs must be canonical encoding of the node.
func (b *BaseNode) setCache(bs []byte, h util.Uint256) {
	b.bytes = bs
	b.hash = h
}

// encodeNodeWithType encodes node together with its type.
func encodeNodeWithType(n Node, w *io.BinWriter) {
	w.WriteB(byte(n.Type()))
	n.EncodeBinary(w)
}

// toBytes is a helper for serializing node.
func toBytes(n Node) []byte {
	buf := io.NewBufBinWriter()
	encodeNodeWithType(n, buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err) // Never happens for in-memory buffer.
	}
	return buf.Bytes()
}
