package mpt

// LeafNode represents a trie node with a partial key and a value and no
// children.
type LeafNode struct {
	key   []byte
	value []byte
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns a leaf node with the specified partial key (in
// nibbles) and value. Both slices are owned by the node after the call.
func NewLeafNode(key, value []byte) *LeafNode {
	if value == nil {
		value = []byte{}
	}
	return &LeafNode{key: key, value: value}
}

// Type implements Node interface.
func (n *LeafNode) Type() NodeType { return LeafT }

// Key returns the partial key of the node in nibbles. It must not be modified.
func (n *LeafNode) Key() []byte { return n.key }

// Value returns the value stored in the node. It must not be modified.
func (n *LeafNode) Value() []byte { return n.value }
