package io

import (
	"encoding/binary"
	"io"
	"math/bits"
)

// BinWriter is a convenient wrapper around an io.Writer and err object.
// Used to simplify error handling when writing into an io.Writer
// from a struct with many fields.
type BinWriter struct {
	w   io.Writer
	Err error
	uv  [9]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// WriteU64LE writes a uint64 value into the underlying io.Writer in
// little-endian format.
func (w *BinWriter) WriteU64LE(u64 uint64) {
	binary.LittleEndian.PutUint64(w.uv[:8], u64)
	w.WriteBytes(w.uv[:8])
}

// WriteU32LE writes a uint32 value into the underlying io.Writer in
// little-endian format.
func (w *BinWriter) WriteU32LE(u32 uint32) {
	binary.LittleEndian.PutUint32(w.uv[:4], u32)
	w.WriteBytes(w.uv[:4])
}

// WriteU16LE writes a uint16 value into the underlying io.Writer in
// little-endian format.
func (w *BinWriter) WriteU16LE(u16 uint16) {
	binary.LittleEndian.PutUint16(w.uv[:2], u16)
	w.WriteBytes(w.uv[:2])
}

// WriteB writes a byte into the underlying io.Writer.
func (w *BinWriter) WriteB(u8 byte) {
	w.uv[0] = u8
	w.WriteBytes(w.uv[:1])
}

// WriteBool writes a boolean value into the underlying io.Writer encoded as
// a byte with values of 0 or 1.
func (w *BinWriter) WriteBool(b bool) {
	var i byte
	if b {
		i = 1
	}
	w.WriteB(i)
}

// WriteCompactUint writes n using SCALE compact integer encoding. Values
// below 2^30 use single-byte, two-byte or four-byte modes, anything bigger
// is written in the big-integer mode with the minimal number of bytes.
func (w *BinWriter) WriteCompactUint(n uint64) {
	switch {
	case n < 1<<6:
		w.WriteB(byte(n << 2))
	case n < 1<<14:
		w.WriteU16LE(uint16(n<<2) | 0b01)
	case n < 1<<30:
		w.WriteU32LE(uint32(n<<2) | 0b10)
	default:
		l := (bits.Len64(n) + 7) / 8
		w.WriteB(byte((l-4)<<2) | 0b11)
		binary.LittleEndian.PutUint64(w.uv[1:], n)
		w.WriteBytes(w.uv[1 : 1+l])
	}
}

// WriteVarBytes writes a compact-prefixed byte slice into the underlying
// io.Writer, this is SCALE encoding of a byte vector.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteCompactUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteBytes writes a variable byte into the underlying io.Writer without prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteString writes a SCALE-encoded string into the underlying io.Writer.
func (w *BinWriter) WriteString(s string) {
	w.WriteVarBytes([]byte(s))
}

// SetError sets the error state of the writer.
func (w *BinWriter) SetError(err error) {
	w.Err = err
}
