package mpt

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	EmptyT NodeType = iota
	LeafT
	BranchT
	HashT
)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case EmptyT:
		return "empty"
	case LeafT:
		return "leaf"
	case BranchT:
		return "branch"
	case HashT:
		return "hash"
	default:
		return "unknown"
	}
}

// Node represents common interface of all trie nodes. The set of
// implementations is closed: *LeafNode, *BranchNode and *HashNode.
type Node interface {
	Type() NodeType
}

// partialKey returns the partial key of a resolved node.
func partialKey(n Node) []byte {
	switch n := n.(type) {
	case *LeafNode:
		return n.key
	case *BranchNode:
		return n.key
	default:
		return nil
	}
}

// nodeValue returns the value of a resolved node, nil if there is none.
func nodeValue(n Node) []byte {
	switch n := n.(type) {
	case *LeafNode:
		return n.value
	case *BranchNode:
		return n.value
	default:
		return nil
	}
}
