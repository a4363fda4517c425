package io

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mocks io.Writer for error tests.
type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func TestWriteLE(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteU32LE(0xdeadbeef)
	bw.WriteU16LE(0xbabe)
	bw.WriteB(0x42)
	bw.WriteBytes([]byte{1, 2, 3})
	require.NoError(t, bw.Err)
	require.Equal(t, 10, bw.Len())
	data := bw.Bytes()
	require.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde, 0xbe, 0xba, 0x42, 1, 2, 3}, data)

	br := NewBinReaderFromBuf(data)
	assert.Equal(t, uint32(0xdeadbeef), br.ReadU32LE())
	assert.Equal(t, uint16(0xbabe), br.ReadU16LE())
	assert.Equal(t, byte(0x42), br.ReadB())
	buf := make([]byte, 3)
	br.ReadBytes(buf)
	require.NoError(t, br.Err)
	assert.Equal(t, []byte{1, 2, 3}, buf)
	assert.Equal(t, 0, br.Len())
}

func TestBufBinWriter_Drained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(1)
	_ = bw.Bytes()
	bw.WriteB(2)
	require.ErrorIs(t, bw.Err, ErrDrained)
	require.Nil(t, bw.Bytes())

	bw.Reset()
	bw.WriteB(3)
	require.Equal(t, []byte{3}, bw.Bytes())
}

func TestWriterErrHandling(t *testing.T) {
	bw := NewBinWriterFromIO(&badRW{})
	bw.WriteU32LE(uint32(0))
	require.Error(t, bw.Err)
	// These should work (not panic), but not do anything.
	bw.WriteU16LE(1)
	bw.WriteB(1)
	bw.WriteBytes([]byte{0x55, 0xaa})
	require.Error(t, bw.Err)
}

func TestReaderErrHandling(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		br := NewBinReaderFromBuf(nil)
		br.ReadB()
		require.ErrorIs(t, br.Err, io.EOF)
		// Further reads are no-ops.
		assert.Equal(t, uint32(0), br.ReadU32LE())
		assert.Equal(t, uint16(0), br.ReadU16LE())
		require.ErrorIs(t, br.Err, io.EOF)
	})
	t.Run("short u32", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1, 2, 3})
		assert.Equal(t, uint32(0), br.ReadU32LE())
		require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
		assert.Equal(t, 3, br.Len())
	})
	t.Run("short u16", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1})
		assert.Equal(t, uint16(0), br.ReadU16LE())
		require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
	})
	t.Run("short bytes", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1, 2})
		buf := make([]byte, 3)
		br.ReadBytes(buf)
		require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
		assert.Equal(t, 0, br.Pos)
	})
	t.Run("bytes at EOF", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{1})
		br.ReadB()
		br.ReadBytes(make([]byte, 1))
		require.ErrorIs(t, br.Err, io.EOF)
	})
}
