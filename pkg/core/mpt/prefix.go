package mpt

import (
	"bytes"
)

// ClearPrefix removes all keys starting with prefix from t.
func (t *Trie) ClearPrefix(prefix []byte) error {
	r, err := t.eng.clearPrefix(t.root, ToNibbles(prefix))
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// ClearPrefixLimit removes at most limit keys starting with prefix from t.
// It returns true if there are no more keys with this prefix left and the
// number of removed keys. Keys are removed in the subtrie order (deeper
// ones first), so a limited removal can be continued by the next call.
func (t *Trie) ClearPrefixLimit(prefix []byte, limit uint32) (bool, uint32, error) {
	c := &limitedClear{e: t.eng, limit: limit}
	r, finished, err := c.descend(t.root, ToNibbles(prefix))
	if err != nil {
		return false, 0, err
	}
	t.root = r
	return finished, c.removed, nil
}

// ClearPrefix removes all keys starting with prefix from the trie with the
// specified root and returns the new root.
func ClearPrefix(root Node, prefix []byte, r ChildResolver) (Node, error) {
	return newEngine(r).clearPrefix(root, ToNibbles(prefix))
}

func (e engine) clearPrefix(curr Node, prefix []byte) (Node, error) {
	switch n := curr.(type) {
	case nil:
		return nil, nil
	case *LeafNode:
		if bytes.HasPrefix(n.key, prefix) {
			return nil, nil
		}
		return n, nil
	case *BranchNode:
		if bytes.HasPrefix(n.key, prefix) {
			return nil, nil
		}
		if !bytes.HasPrefix(prefix, n.key) {
			return n, nil
		}
		rest := prefix[len(n.key):]
		return e.updateChild(n, rest[0], func(child Node) (Node, error) {
			return e.clearPrefix(child, rest[1:])
		})
	default:
		return nil, unexpectedNode(curr)
	}
}

// limitedClear removes keys under a prefix until limit is exhausted.
type limitedClear struct {
	e       engine
	limit   uint32
	removed uint32
}

// descend looks for the subtrie covered by prefix and removes keys from it.
func (c *limitedClear) descend(curr Node, prefix []byte) (Node, bool, error) {
	switch n := curr.(type) {
	case nil:
		return nil, true, nil
	case *LeafNode:
		if !bytes.HasPrefix(n.key, prefix) {
			return n, true, nil
		}
		r := c.removeLeaf(n)
		return r, r == nil, nil
	case *BranchNode:
		if bytes.HasPrefix(n.key, prefix) {
			r, err := c.removeBranch(n)
			if err != nil {
				return nil, false, err
			}
			return r, r == nil, nil
		}
		if !bytes.HasPrefix(prefix, n.key) {
			return n, true, nil
		}
		rest := prefix[len(n.key):]
		var finished = true
		r, err := c.e.updateChild(n, rest[0], func(child Node) (Node, error) {
			var (
				res Node
				err error
			)
			res, finished, err = c.descend(child, rest[1:])
			return res, err
		})
		return r, finished, err
	default:
		return nil, false, unexpectedNode(curr)
	}
}

func (c *limitedClear) remove(curr Node) (Node, error) {
	switch n := curr.(type) {
	case *LeafNode:
		return c.removeLeaf(n), nil
	case *BranchNode:
		return c.removeBranch(n)
	default:
		return nil, unexpectedNode(curr)
	}
}

func (c *limitedClear) removeLeaf(n *LeafNode) Node {
	if c.limit == 0 {
		return n
	}
	c.limit--
	c.removed++
	return nil
}

func (c *limitedClear) removeBranch(n *BranchNode) (Node, error) {
	var (
		b       = n.clone()
		changed bool
	)
	for i := range b.Children {
		if c.limit == 0 {
			break
		}
		if b.Children[i] == nil {
			continue
		}
		child, err := resolveChild(c.e.r, n, byte(i))
		if err != nil {
			return nil, err
		}
		r, err := c.remove(child)
		if err != nil {
			return nil, err
		}
		if r != child {
			b.Children[i] = r
			changed = true
		}
	}
	if c.limit > 0 && b.value != nil {
		b.value = nil
		c.limit--
		c.removed++
		changed = true
	}
	if !changed {
		return n, nil
	}
	return c.e.collapse(b)
}
