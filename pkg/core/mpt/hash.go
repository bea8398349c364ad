package mpt

import (
	"github.com/nspcc-dev/dot-go/pkg/util"
)

// HashNode represents a child which is not loaded into memory. It carries
// the child's merkle value: either its 32-byte hash or, for small nodes, the
// inline encoding.
type HashNode struct {
	merkle []byte
}

var _ Node = (*HashNode)(nil)

// NewHashNode returns hash node with the specified merkle value.
func NewHashNode(merkle []byte) *HashNode {
	return &HashNode{merkle: merkle}
}

// Type implements Node interface.
func (h *HashNode) Type() NodeType { return HashT }

// MerkleValue returns the merkle value of the referenced node. It must not be
// modified.
func (h *HashNode) MerkleValue() []byte { return h.merkle }

// IsInline checks whether the node is embedded into the reference as is,
// rather than referenced by hash.
func (h *HashNode) IsInline() bool {
	return len(h.merkle) < InlineThreshold
}

// Hash returns the hash of the referenced node, ok is false for inline
// references.
func (h *HashNode) Hash() (util.Uint256, bool) {
	if len(h.merkle) != util.Uint256Size {
		return util.Uint256{}, false
	}
	u, _ := util.Uint256DecodeBytesBE(h.merkle)
	return u, true
}
