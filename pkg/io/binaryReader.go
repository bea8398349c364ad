package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxArraySize is the maximum size of a byte vector which can be decoded.
const MaxArraySize = 0x1000000

// ErrNonCanonical is returned when a compact integer is not encoded in
// its shortest form.
var ErrNonCanonical = errors.New("non-canonical compact integer")

// BinReader is a convenient wrapper around a io.Reader and err object.
// Used to simplify error handling when reading into a struct with many fields.
type BinReader struct {
	r   io.Reader
	buf *bytes.Reader
	u   [8]byte
	Err error
}

// NewBinReaderFromIO makes a BinReader from io.Reader.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{r: ior}
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	r := bytes.NewReader(b)
	return &BinReader{r: r, buf: r}
}

// Len returns the number of bytes left unread for buffer-based readers
// and -1 for generic ones.
func (r *BinReader) Len() int {
	if r.buf == nil {
		return -1
	}
	return r.buf.Len()
}

// ReadU64LE reads a little-endian encoded uint64 value from the underlying
// io.Reader. On read failures it returns zero.
func (r *BinReader) ReadU64LE() uint64 {
	r.ReadBytes(r.u[:8])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(r.u[:8])
}

// ReadU32LE reads a little-endian encoded uint32 value from the underlying
// io.Reader. On read failures it returns zero.
func (r *BinReader) ReadU32LE() uint32 {
	r.ReadBytes(r.u[:4])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(r.u[:4])
}

// ReadU16LE reads a little-endian encoded uint16 value from the underlying
// io.Reader. On read failures it returns zero.
func (r *BinReader) ReadU16LE() uint16 {
	r.ReadBytes(r.u[:2])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(r.u[:2])
}

// ReadB reads a byte from the underlying io.Reader. On read failures it
// returns zero.
func (r *BinReader) ReadB() byte {
	r.ReadBytes(r.u[:1])
	if r.Err != nil {
		return 0
	}
	return r.u[0]
}

// ReadBool reads a boolean value encoded in a zero/non-zero byte from the
// underlying io.Reader. On read failures it returns false.
func (r *BinReader) ReadBool() bool {
	return r.ReadB() != 0
}

// ReadCompactUint reads a SCALE compact integer from the underlying reader.
// Encodings that are not the shortest possible are rejected.
func (r *BinReader) ReadCompactUint() uint64 {
	b := r.ReadB()
	if r.Err != nil {
		return 0
	}
	switch b & 0b11 {
	case 0b00:
		return uint64(b >> 2)
	case 0b01:
		rest := r.ReadB()
		if r.Err != nil {
			return 0
		}
		v := uint64(uint16(b)|uint16(rest)<<8) >> 2
		if v < 1<<6 {
			r.Err = ErrNonCanonical
			return 0
		}
		return v
	case 0b10:
		r.u[0] = b
		r.ReadBytes(r.u[1:4])
		if r.Err != nil {
			return 0
		}
		v := uint64(binary.LittleEndian.Uint32(r.u[:4]) >> 2)
		if v < 1<<14 {
			r.Err = ErrNonCanonical
			return 0
		}
		return v
	default:
		l := int(b>>2) + 4
		if l > 8 {
			r.Err = fmt.Errorf("compact integer is too big: %d bytes", l)
			return 0
		}
		for i := range r.u {
			r.u[i] = 0
		}
		r.ReadBytes(r.u[:l])
		if r.Err != nil {
			return 0
		}
		v := binary.LittleEndian.Uint64(r.u[:])
		if v < 1<<30 || r.u[l-1] == 0 {
			r.Err = ErrNonCanonical
			return 0
		}
		return v
	}
}

// ReadVarBytes reads a SCALE-encoded byte vector from the underlying reader.
// The result is never nil on success, so an empty vector is distinguishable
// from a missing one. The optional parameter limits the vector length.
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadCompactUint()
	if r.Err != nil {
		return nil
	}
	ms := MaxArraySize
	if len(maxSize) != 0 {
		ms = maxSize[0]
	}
	if n > uint64(ms) {
		r.Err = fmt.Errorf("byte-slice is too big (%d)", n)
		return nil
	}
	if r.buf != nil && n > uint64(r.buf.Len()) {
		r.Err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	if r.Err != nil {
		return nil
	}
	return b
}

// ReadBytes copies fixed-size buffer from the reader to provided slice.
func (r *BinReader) ReadBytes(buf []byte) {
	if r.Err != nil {
		return
	}
	_, r.Err = io.ReadFull(r.r, buf)
}

// ReadString calls ReadVarBytes and casts the results as a string.
func (r *BinReader) ReadString(maxSize ...int) string {
	b := r.ReadVarBytes(maxSize...)
	return string(b)
}
