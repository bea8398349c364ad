package mpt

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/nspcc-dev/dot-go/pkg/util/slice"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrKeyTooLong is returned on attempt to put a key longer than
	// MaxKeyNibbles/2 bytes.
	ErrKeyTooLong = errors.New("key is too long")
	// ErrValueTooLarge is returned on attempt to put a value longer than
	// MaxValueSize.
	ErrValueTooLarge = errors.New("value is too large")
)

// MaxValueSize is the maximum length of a value that can be stored in the
// trie and decoded back.
const MaxValueSize = math.MaxInt32

// Config contains trie parameters.
type Config struct {
	// Resolver is used to load children represented by HashNode. It can be
	// omitted for tries that are completely in memory.
	Resolver ChildResolver
	// Logger is used for debug output, nil means no logging.
	Logger *zap.Logger
}

// Trie is a Merkle-Patricia trie storing key-value pairs. It's a mutable
// handle over an immutable tree: every modification replaces the root, so a
// Snapshot taken before it is never affected. A single Trie is not safe for
// concurrent modification, but its snapshots can be used from different
// goroutines.
type Trie struct {
	root Node
	eng  engine
}

// engine contains trie algorithms working with explicit roots.
type engine struct {
	r   ChildResolver
	log *zap.Logger
}

var nopEngine = engine{log: zap.NewNop()}

func newEngine(r ChildResolver) engine {
	e := nopEngine
	e.r = r
	return e
}

// NewTrie returns a new trie with the specified root (nil means an empty
// trie). The root must be a resolved node.
func NewTrie(root Node, cfg Config) *Trie {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Trie{
		root: root,
		eng:  engine{r: cfg.Resolver, log: log},
	}
}

// Root returns the current root of t, nil for an empty trie.
func (t *Trie) Root() Node {
	return t.root
}

// Resolver returns the child resolver used by t.
func (t *Trie) Resolver() ChildResolver {
	return t.eng.r
}

// IsEmpty checks whether t has no entries.
func (t *Trie) IsEmpty() bool {
	return t.root == nil
}

// Snapshot returns a copy of t sharing all nodes with it. Subsequent
// modifications of either trie are not visible to the other one.
func (t *Trie) Snapshot() *Trie {
	res := *t
	return &res
}

// Get returns value for the provided key in t.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.eng.get(t.root, key)
}

// Contains checks whether there is a value for the provided key in t.
func (t *Trie) Contains(key []byte) (bool, error) {
	return t.eng.contains(t.root, key)
}

// Put puts key-value pair in t. nil value is stored as an empty one.
func (t *Trie) Put(key, value []byte) error {
	r, err := t.eng.put(t.root, key, value)
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// Delete removes the key from t, it's a no-op if there is no such key.
func (t *Trie) Delete(key []byte) error {
	r, err := t.eng.delete(t.root, key)
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// IsEmpty checks whether the trie with the specified root has no entries.
func IsEmpty(root Node) bool {
	return root == nil
}

// Get returns value for the provided key in the trie with the specified root.
func Get(root Node, key []byte, r ChildResolver) ([]byte, error) {
	return newEngine(r).get(root, key)
}

// Contains checks whether the trie with the specified root has a value for
// the key.
func Contains(root Node, key []byte, r ChildResolver) (bool, error) {
	return newEngine(r).contains(root, key)
}

// Put puts key-value pair into the trie with the specified root and returns
// the new root. Nodes reachable from root are not modified.
func Put(root Node, key, value []byte, r ChildResolver) (Node, error) {
	return newEngine(r).put(root, key, value)
}

// Delete removes the key from the trie with the specified root and returns
// the new root. Nodes reachable from root are not modified.
func Delete(root Node, key []byte, r ChildResolver) (Node, error) {
	return newEngine(r).delete(root, key)
}

func (e engine) get(root Node, key []byte) ([]byte, error) {
	n, err := e.lookup(root, ToNibbles(key))
	if err != nil {
		return nil, err
	}
	return slice.Copy(nodeValue(n)), nil
}

func (e engine) contains(root Node, key []byte) (bool, error) {
	_, err := e.lookup(root, ToNibbles(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// lookup returns the node holding the value for the provided path.
func (e engine) lookup(curr Node, path []byte) (Node, error) {
	for {
		switch n := curr.(type) {
		case nil:
			return nil, ErrNotFound
		case *LeafNode:
			if !bytes.Equal(n.key, path) {
				return nil, ErrNotFound
			}
			return n, nil
		case *BranchNode:
			if !bytes.HasPrefix(path, n.key) {
				return nil, ErrNotFound
			}
			path = path[len(n.key):]
			if len(path) == 0 {
				if n.value == nil {
					return nil, ErrNotFound
				}
				return n, nil
			}
			next, err := resolveChild(e.r, n, path[0])
			if err != nil {
				return nil, err
			}
			curr, path = next, path[1:]
		default:
			return nil, unexpectedNode(curr)
		}
	}
}

func (e engine) put(root Node, key, value []byte) (Node, error) {
	path := ToNibbles(key)
	if len(path) > MaxKeyNibbles {
		return nil, fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	if len(value) > MaxValueSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}
	value = slice.Copy(value)
	if value == nil {
		value = []byte{}
	}
	return e.putIntoNode(root, path, value)
}

func (e engine) putIntoNode(curr Node, path, value []byte) (Node, error) {
	switch n := curr.(type) {
	case nil:
		return NewLeafNode(path, value), nil
	case *LeafNode:
		return e.putIntoLeaf(n, path, value), nil
	case *BranchNode:
		return e.putIntoBranch(n, path, value)
	default:
		return nil, unexpectedNode(curr)
	}
}

// putIntoLeaf puts value into the subtrie rooted at the leaf curr.
func (e engine) putIntoLeaf(curr *LeafNode, path, value []byte) Node {
	if bytes.Equal(curr.key, path) {
		return NewLeafNode(curr.key, value)
	}

	pref := lcp(curr.key, path)
	b := NewBranchNode(path[:pref], nil)
	if pref == len(curr.key) {
		b.value = curr.value
	} else {
		b.Children[curr.key[pref]] = NewLeafNode(curr.key[pref+1:], curr.value)
	}
	if pref == len(path) {
		b.value = value
	} else {
		b.Children[path[pref]] = NewLeafNode(path[pref+1:], value)
	}
	e.log.Debug("leaf split", zap.Int("prefix", pref), zap.Int("path", len(path)))
	return b
}

// putIntoBranch puts value into the subtrie rooted at the branch curr.
func (e engine) putIntoBranch(curr *BranchNode, path, value []byte) (Node, error) {
	pref := lcp(curr.key, path)
	if pref == len(curr.key) {
		b := curr.clone()
		if pref == len(path) {
			b.value = value
			return b, nil
		}
		i := path[pref]
		child, err := resolveChild(e.r, curr, i)
		if err != nil {
			return nil, err
		}
		r, err := e.putIntoNode(child, path[pref+1:], value)
		if err != nil {
			return nil, err
		}
		b.Children[i] = r
		return b, nil
	}

	old := curr.clone()
	old.key = curr.key[pref+1:]
	b := NewBranchNode(path[:pref], nil)
	b.Children[curr.key[pref]] = old
	if pref == len(path) {
		b.value = value
	} else {
		b.Children[path[pref]] = NewLeafNode(path[pref+1:], value)
	}
	e.log.Debug("branch split", zap.Int("prefix", pref), zap.Int("path", len(path)))
	return b, nil
}

func (e engine) delete(root Node, key []byte) (Node, error) {
	return e.deleteFromNode(root, ToNibbles(key))
}

func (e engine) deleteFromNode(curr Node, path []byte) (Node, error) {
	switch n := curr.(type) {
	case nil:
		return nil, nil
	case *LeafNode:
		if bytes.Equal(n.key, path) {
			return nil, nil
		}
		return n, nil
	case *BranchNode:
		if !bytes.HasPrefix(path, n.key) {
			return n, nil
		}
		path = path[len(n.key):]
		if len(path) == 0 {
			if n.value == nil {
				return n, nil
			}
			b := n.clone()
			b.value = nil
			return e.collapse(b)
		}
		return e.updateChild(n, path[0], func(child Node) (Node, error) {
			return e.deleteFromNode(child, path[1:])
		})
	default:
		return nil, unexpectedNode(curr)
	}
}

// updateChild replaces the existing child i of curr with the result of f
// and repairs the branch if needed. curr is returned as is if f doesn't
// change anything or if there is no such child.
func (e engine) updateChild(curr *BranchNode, i byte, f func(Node) (Node, error)) (Node, error) {
	if curr.Children[i] == nil {
		return curr, nil
	}
	child, err := resolveChild(e.r, curr, i)
	if err != nil {
		return nil, err
	}
	r, err := f(child)
	if err != nil {
		return nil, err
	}
	if r == child {
		return curr, nil
	}
	b := curr.clone()
	b.Children[i] = r
	return e.collapse(b)
}

// collapse restores canonical form of a branch after removal of a value or
// a child. Branch without children becomes a leaf (or disappears), branch
// with a single child and no value is merged with this child.
func (e engine) collapse(b *BranchNode) (Node, error) {
	switch b.ChildrenNum() {
	case 0:
		if b.value == nil {
			return nil, nil
		}
		return NewLeafNode(b.key, b.value), nil
	case 1:
		if b.value != nil {
			return b, nil
		}
		i := byte(b.firstChild(0))
		child, err := resolveChild(e.r, b, i)
		if err != nil {
			return nil, err
		}
		key := concatNibbles(b.key, i, partialKey(child))
		e.log.Debug("branch merged with child", zap.Uint8("index", i), zap.Int("key", len(key)))
		switch c := child.(type) {
		case *LeafNode:
			return NewLeafNode(key, c.value), nil
		case *BranchNode:
			res := c.clone()
			res.key = key
			return res, nil
		default:
			return nil, unexpectedNode(child)
		}
	default:
		return b, nil
	}
}

func unexpectedNode(n Node) error {
	return fmt.Errorf("%w: unexpected %s node", ErrInvalidNodeStructure, n.Type())
}
