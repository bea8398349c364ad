package mpt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNodeStructure is returned when the trie contains a node that
	// can't appear in the position it was found at. It usually means that
	// the backing store is corrupted.
	ErrInvalidNodeStructure = errors.New("invalid node structure")
	// ErrNoResolver is returned when an unresolved child is met and the trie
	// has no resolver.
	ErrNoResolver = errors.New("no child resolver")
)

// ChildResolver loads children that are not present in memory. It's called
// with the branch and the index of the child which is a *HashNode and must
// return the decoded child. Errors are returned to the trie user as is.
type ChildResolver interface {
	ResolveChild(parent *BranchNode, index byte) (Node, error)
}

// ResolverFunc is an adapter allowing to use ordinary functions as
// ChildResolver.
type ResolverFunc func(parent *BranchNode, index byte) (Node, error)

// ResolveChild implements ChildResolver.
func (f ResolverFunc) ResolveChild(parent *BranchNode, index byte) (Node, error) {
	return f(parent, index)
}

// resolveChild returns the child of parent with the specified index
// resolving it if needed. nil is returned for missing children.
func resolveChild(r ChildResolver, parent *BranchNode, index byte) (Node, error) {
	child := parent.Children[index]
	if _, ok := child.(*HashNode); !ok {
		return child, nil
	}
	if r == nil {
		return nil, ErrNoResolver
	}
	n, err := r.ResolveChild(parent, index)
	if err != nil {
		return nil, err
	}
	switch c := n.(type) {
	case *LeafNode:
		if c != nil {
			return c, nil
		}
	case *BranchNode:
		if c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: child %d resolved to %T", ErrInvalidNodeStructure, index, n)
}
