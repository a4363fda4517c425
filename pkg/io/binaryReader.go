package io

import (
	"encoding/binary"
	"io"
)

// BinReader is a bounds-checked reader over a byte slice. The first
// failure is kept in Err and turns all subsequent reads into no-ops, so
// callers check Err once after decoding a whole structure.
type BinReader struct {
	Data []byte
	Pos  int
	Err  error
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return &BinReader{Data: b}
}

// Len returns the number of unread bytes.
func (r *BinReader) Len() int {
	return len(r.Data) - r.Pos
}

// ReadU32LE reads a little-endian encoded uint32 value.
func (r *BinReader) ReadU32LE() uint32 {
	if r.Err == nil {
		if pos := r.Pos; pos+4 <= len(r.Data) {
			r.Pos += 4
			return binary.LittleEndian.Uint32(r.Data[pos:])
		}
		r.Err = io.ErrUnexpectedEOF
	}
	return 0
}

// ReadU16LE reads a little-endian encoded uint16 value.
func (r *BinReader) ReadU16LE() uint16 {
	if r.Err == nil {
		if pos := r.Pos; pos+2 <= len(r.Data) {
			r.Pos += 2
			return binary.LittleEndian.Uint16(r.Data[pos:])
		}
		r.Err = io.ErrUnexpectedEOF
	}
	return 0
}

// ReadB reads a byte.
func (r *BinReader) ReadB() byte {
	if r.Err == nil {
		if pos := r.Pos; pos < len(r.Data) {
			r.Pos++
			return r.Data[pos]
		}
		r.Err = io.EOF
	}
	return 0
}

// ReadBytes fills the given slice with the next len(b) bytes. A short read
// is an error, partially filled b must not be used.
func (r *BinReader) ReadBytes(b []byte) {
	if r.Err != nil {
		return
	}
	if r.Len() < len(b) {
		if r.Len() == 0 {
			r.Err = io.EOF
		} else {
			r.Err = io.ErrUnexpectedEOF
		}
		return
	}
	r.Pos += copy(b, r.Data[r.Pos:])
}
