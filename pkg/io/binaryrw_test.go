package io

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var compactCases = []struct {
	n   uint64
	enc string
}{
	{0, "00"},
	{1, "04"},
	{42, "a8"},
	{63, "fc"},
	{64, "0101"},
	{69, "1501"},
	{16383, "fdff"},
	{16384, "02000100"},
	{1<<30 - 1, "feffffff"},
	{1 << 30, "0300000040"},
	{1 << 32, "070000000001"},
	{math.MaxUint64, "13ffffffffffffffff"},
}

func TestWriteCompactUint(t *testing.T) {
	for _, tc := range compactCases {
		require.Equal(t, tc.enc, hex.EncodeToString(EncodeCompact(tc.n)), tc.n)
	}
}

func TestReadCompactUint(t *testing.T) {
	for _, tc := range compactCases {
		b, err := hex.DecodeString(tc.enc)
		require.NoError(t, err)
		r := NewBinReaderFromBuf(b)
		require.Equal(t, tc.n, r.ReadCompactUint())
		require.NoError(t, r.Err)
		require.Equal(t, 0, r.Len())
	}
}

func TestReadCompactUintNonCanonical(t *testing.T) {
	for _, s := range []string{
		"0100",         // 0 in two-byte mode
		"02000000",     // 0 in four-byte mode
		"03ffffff00",   // fits into four-byte mode
		"070000004000", // top byte is zero
		"0300000000",   // zero in big-integer mode
	} {
		b, err := hex.DecodeString(s)
		require.NoError(t, err)
		r := NewBinReaderFromBuf(b)
		r.ReadCompactUint()
		require.True(t, errors.Is(r.Err, ErrNonCanonical), s)
	}
}

func TestReadCompactUintTooBig(t *testing.T) {
	r := NewBinReaderFromBuf([]byte{0x17, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	r.ReadCompactUint()
	require.Error(t, r.Err)
}

func TestVarBytes(t *testing.T) {
	t.Run("empty is not nil", func(t *testing.T) {
		r := NewBinReaderFromBuf(EncodeVarBytes(nil))
		b := r.ReadVarBytes()
		require.NoError(t, r.Err)
		require.NotNil(t, b)
		require.Len(t, b, 0)
	})
	t.Run("roundtrip", func(t *testing.T) {
		data := make([]byte, 300)
		for i := range data {
			data[i] = byte(i)
		}
		enc := EncodeVarBytes(data)
		require.Equal(t, []byte{0xb1, 0x04}, enc[:2])
		r := NewBinReaderFromBuf(enc)
		require.Equal(t, data, r.ReadVarBytes())
		require.NoError(t, r.Err)
	})
	t.Run("limit", func(t *testing.T) {
		r := NewBinReaderFromBuf(EncodeVarBytes([]byte{1, 2, 3}))
		r.ReadVarBytes(2)
		require.Error(t, r.Err)
	})
	t.Run("truncated", func(t *testing.T) {
		r := NewBinReaderFromBuf([]byte{0x0c, 1})
		require.Nil(t, r.ReadVarBytes())
		require.Error(t, r.Err)
	})
}

func TestBinWriterStickyError(t *testing.T) {
	w := NewBufBinWriter()
	w.WriteU16LE(0x0201)
	w.WriteU32LE(0x06050403)
	w.WriteU64LE(0x0e0d0c0b0a090807)
	w.WriteBool(true)
	require.Equal(t, 15, w.Len())
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 1}, w.Bytes())

	w.WriteB(1)
	require.ErrorIs(t, w.Err, ErrDrained)
	require.Nil(t, w.Bytes())

	w.Reset()
	w.WriteString("ab")
	require.Equal(t, []byte{0x08, 'a', 'b'}, w.Bytes())
}

func TestBinReaderFixed(t *testing.T) {
	r := NewBinReaderFromBuf([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0})
	require.Equal(t, uint16(0x0201), r.ReadU16LE())
	require.Equal(t, uint32(0x06050403), r.ReadU32LE())
	require.Equal(t, uint64(0x0e0d0c0b0a090807), r.ReadU64LE())
	require.False(t, r.ReadBool())
	require.NoError(t, r.Err)
	require.Equal(t, byte(0), r.ReadB())
	require.Error(t, r.Err)
}
