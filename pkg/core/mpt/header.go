package mpt

import (
	"github.com/nspcc-dev/dot-go/pkg/io"
)

// Node header prefixes, the rest of the first byte holds the partial key
// length (or its beginning).
const (
	headerEmpty        byte = 0
	headerLeaf         byte = 0b01 << 6
	headerBranch       byte = 0b10 << 6
	headerBranchValue  byte = 0b11 << 6
	headerHashedLeaf   byte = 0b001 << 5
	headerHashedBranch byte = 0b0001 << 4
)

// Masks for partial key length in the first header byte.
const (
	plainMask        = 0x3f
	hashedLeafMask   = 0x1f
	hashedBranchMask = 0x0f
)

type nodeKind byte

const (
	kindEmpty nodeKind = iota
	kindLeaf
	kindBranch
	kindBranchValue
	kindHashedLeaf
	kindHashedBranch
)

func (k nodeKind) isLeaf() bool {
	return k == kindLeaf || k == kindHashedLeaf
}

func (k nodeKind) hashedValue() bool {
	return k == kindHashedLeaf || k == kindHashedBranch
}

// writeHeader writes node header with the partial key length. Lengths not
// fitting into the first byte are continued in the following bytes, each
// 255 means "add 255 and read one more".
func writeHeader(w *io.BinWriter, prefix byte, mask int, nibbles int) error {
	if nibbles > MaxKeyNibbles {
		return ErrTooManyNibbles
	}
	if nibbles < mask {
		w.WriteB(prefix | byte(nibbles))
		return nil
	}
	w.WriteB(prefix | byte(mask))
	l := nibbles - mask
	for ; l >= 255; l -= 255 {
		w.WriteB(255)
	}
	w.WriteB(byte(l))
	return nil
}

// readHeader reads node header returning node kind and partial key length.
func readHeader(r *io.BinReader) (nodeKind, int, error) {
	b := r.ReadB()
	if r.Err != nil {
		return 0, 0, readErr(r.Err)
	}

	var (
		kind nodeKind
		mask int
	)
	switch {
	case b == headerEmpty:
		return kindEmpty, 0, nil
	case b&0xc0 == headerLeaf:
		kind, mask = kindLeaf, plainMask
	case b&0xc0 == headerBranch:
		kind, mask = kindBranch, plainMask
	case b&0xc0 == headerBranchValue:
		kind, mask = kindBranchValue, plainMask
	case b&0xe0 == headerHashedLeaf:
		kind, mask = kindHashedLeaf, hashedLeafMask
	case b&0xf0 == headerHashedBranch:
		kind, mask = kindHashedBranch, hashedBranchMask
	default:
		return 0, 0, ErrUnknownNodeType
	}

	n := int(b) & mask
	if n < mask {
		return kind, n, nil
	}
	for {
		c := r.ReadB()
		if r.Err != nil {
			return 0, 0, readErr(r.Err)
		}
		n += int(c)
		if n > MaxKeyNibbles {
			return 0, 0, ErrTooManyNibbles
		}
		if c < 255 {
			return kind, n, nil
		}
	}
}
