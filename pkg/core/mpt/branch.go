package mpt

import "math/bits"

const childrenCount = 16

// BranchNode represents a trie node with a partial key, up to 16 children
// and an optional value.
type BranchNode struct {
	key   []byte
	value []byte

	Children [childrenCount]Node
}

var _ Node = (*BranchNode)(nil)

// NewBranchNode returns a new branch node with no children. nil value means
// the branch doesn't have one.
func NewBranchNode(key, value []byte) *BranchNode {
	return &BranchNode{key: key, value: value}
}

// Type implements Node interface.
func (b *BranchNode) Type() NodeType { return BranchT }

// Key returns the partial key of the node in nibbles. It must not be modified.
func (b *BranchNode) Key() []byte { return b.key }

// Value returns the value stored in the node or nil if there is none.
func (b *BranchNode) Value() []byte { return b.value }

// HasValue checks whether the branch carries a value.
func (b *BranchNode) HasValue() bool { return b.value != nil }

// ChildrenBitmap returns the bitmap of present children, bit i is set iff
// there is a child with index i.
func (b *BranchNode) ChildrenBitmap() uint16 {
	var bm uint16
	for i := range b.Children {
		if b.Children[i] != nil {
			bm |= 1 << i
		}
	}
	return bm
}

// ChildrenNum returns the number of present children.
func (b *BranchNode) ChildrenNum() int {
	return bits.OnesCount16(b.ChildrenBitmap())
}

// firstChild returns the index of the first present child starting from
// (and including) from, -1 if there is none.
func (b *BranchNode) firstChild(from int) int {
	for i := from; i < childrenCount; i++ {
		if b.Children[i] != nil {
			return i
		}
	}
	return -1
}

// lastChild returns the index of the last present child, -1 if there is none.
func (b *BranchNode) lastChild() int {
	for i := childrenCount - 1; i >= 0; i-- {
		if b.Children[i] != nil {
			return i
		}
	}
	return -1
}

// clone returns a shallow copy of b, children are shared.
func (b *BranchNode) clone() *BranchNode {
	res := *b
	return &res
}
