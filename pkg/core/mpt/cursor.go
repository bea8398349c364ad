package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/util/slice"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCursorPosition is returned when cursor data is requested
	// while it doesn't point to any entry or when a cursor that failed
	// before is moved.
	ErrInvalidCursorPosition = errors.New("invalid cursor position")
	// ErrNullRoot is returned by SeekLowerBound and SeekUpperBound over an
	// empty trie. SeekFirst, SeekLast and Seek report an empty trie as a
	// miss (false without an error), Next just exhausts the cursor.
	ErrNullRoot = errors.New("trie is empty")
	// ErrNotImplemented is returned by operations cursor doesn't support.
	ErrNotImplemented = errors.New("not implemented")
)

type cursorState byte

const (
	cursorUninitialized cursorState = iota
	cursorPositioned
	cursorExhausted
	cursorInvalid
)

// pathEntry is a branch passed by the cursor on the way to the current node
// along with the index of the child taken.
type pathEntry struct {
	parent *BranchNode
	index  byte
}

// Cursor iterates over trie entries in the lexicographic key order. It
// works over the trie snapshot taken at the moment of creation, so
// modifications of the trie don't affect it.
type Cursor struct {
	root  Node
	eng   engine
	state cursorState
	err   error

	path    []pathEntry
	current Node
}

// Cursor returns a new cursor over the current state of t. It's not
// positioned, Next moves it to the first entry.
func (t *Trie) Cursor() *Cursor {
	return &Cursor{root: t.root, eng: t.eng}
}

// NewCursor returns a cursor over the trie with the specified root.
func NewCursor(root Node, r ChildResolver) *Cursor {
	return &Cursor{root: root, eng: newEngine(r)}
}

// SeekFirst moves the cursor to the first entry of the trie. It returns
// false if the trie is empty.
func (c *Cursor) SeekFirst() (bool, error) {
	c.reset()
	if c.root == nil {
		c.state = cursorExhausted
		return false, nil
	}
	if err := c.descendFirst(c.root); err != nil {
		return false, c.fail(err)
	}
	c.state = cursorPositioned
	return true, nil
}

// SeekLast moves the cursor to the last entry of the trie. It returns
// false if the trie is empty.
func (c *Cursor) SeekLast() (bool, error) {
	c.reset()
	if c.root == nil {
		c.state = cursorExhausted
		return false, nil
	}
	if err := c.descendLast(c.root); err != nil {
		return false, c.fail(err)
	}
	c.state = cursorPositioned
	return true, nil
}

// Seek moves the cursor to the entry with exactly the specified key. If
// there is no such entry, false is returned and the cursor is exhausted: the
// path is not kept, so Next after a miss doesn't continue from the key's
// position and a key matching a valueless branch is a miss too. Use
// SeekLowerBound to position the cursor near an absent key.
func (c *Cursor) Seek(key []byte) (bool, error) {
	c.reset()
	var (
		curr = c.root
		path = ToNibbles(key)
	)
	for curr != nil {
		switch n := curr.(type) {
		case *LeafNode:
			if bytes.Equal(n.key, path) {
				c.current = n
				c.state = cursorPositioned
				return true, nil
			}
			curr = nil
		case *BranchNode:
			if !bytes.HasPrefix(path, n.key) {
				curr = nil
				break
			}
			path = path[len(n.key):]
			if len(path) == 0 {
				if n.value == nil {
					curr = nil
					break
				}
				c.current = n
				c.state = cursorPositioned
				return true, nil
			}
			next, err := resolveChild(c.eng.r, n, path[0])
			if err != nil {
				return false, c.fail(err)
			}
			if next != nil {
				c.path = append(c.path, pathEntry{n, path[0]})
			}
			curr, path = next, path[1:]
		default:
			return false, c.fail(unexpectedNode(curr))
		}
	}
	c.path = c.path[:0]
	c.state = cursorExhausted
	return false, nil
}

// SeekLowerBound moves the cursor to the first entry with the key greater
// than or equal to the specified one. The cursor is exhausted if there is no
// such entry.
func (c *Cursor) SeekLowerBound(key []byte) error {
	c.reset()
	if c.root == nil {
		c.state = cursorExhausted
		return ErrNullRoot
	}
	found, err := c.lowerBound(c.root, ToNibbles(key))
	if err != nil {
		return c.fail(err)
	}
	if !found {
		c.path = c.path[:0]
		c.state = cursorExhausted
		return nil
	}
	c.state = cursorPositioned
	return nil
}

// SeekUpperBound moves the cursor to the first entry with the key strictly
// greater than the specified one. The cursor is exhausted if there is no
// such entry.
func (c *Cursor) SeekUpperBound(key []byte) error {
	if err := c.SeekLowerBound(key); err != nil {
		return err
	}
	if c.state == cursorPositioned && bytes.Equal(c.Key(), key) {
		return c.Next()
	}
	return nil
}

// Next moves the cursor to the next entry. For a cursor that was not
// positioned yet it's the first entry of the trie. Moving an exhausted
// cursor is a no-op.
func (c *Cursor) Next() error {
	switch c.state {
	case cursorUninitialized:
		_, err := c.SeekFirst()
		return err
	case cursorExhausted:
		return nil
	case cursorInvalid:
		return fmt.Errorf("%w: previous error: %v", ErrInvalidCursorPosition, c.err)
	}

	if b, ok := c.current.(*BranchNode); ok {
		if i := b.firstChild(0); i >= 0 {
			if err := c.descendChild(b, byte(i)); err != nil {
				return c.fail(err)
			}
			return nil
		}
	}
	found, err := c.nextSibling()
	if err != nil {
		return c.fail(err)
	}
	if !found {
		c.current = nil
		c.state = cursorExhausted
	}
	return nil
}

// Prev is not supported, reverse iteration has to be done with SeekLast and
// bounds.
func (c *Cursor) Prev() error {
	return ErrNotImplemented
}

// IsValid checks whether the cursor points to some entry.
func (c *Cursor) IsValid() bool {
	return c.state == cursorPositioned
}

// Err returns the error the cursor failed with, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Key returns the key of the current entry, nil if the cursor doesn't point
// to any.
func (c *Cursor) Key() []byte {
	if c.state != cursorPositioned {
		return nil
	}
	var nibbles []byte
	for _, e := range c.path {
		nibbles = append(nibbles, e.parent.key...)
		nibbles = append(nibbles, e.index)
	}
	nibbles = append(nibbles, partialKey(c.current)...)
	return FromNibbles(nibbles)
}

// Value returns the value of the current entry, nil if the cursor doesn't
// point to any.
func (c *Cursor) Value() []byte {
	if c.state != cursorPositioned {
		return nil
	}
	return slice.Copy(nodeValue(c.current))
}

// KeyValue returns both the key and the value of the current entry.
func (c *Cursor) KeyValue() ([]byte, []byte, error) {
	if c.state != cursorPositioned {
		return nil, nil, ErrInvalidCursorPosition
	}
	return c.Key(), c.Value(), nil
}

func (c *Cursor) reset() {
	c.path = c.path[:0]
	c.current = nil
	c.err = nil
	c.state = cursorUninitialized
}

func (c *Cursor) fail(err error) error {
	c.eng.log.Debug("cursor failed", zap.Error(err))
	c.path = c.path[:0]
	c.current = nil
	c.err = err
	c.state = cursorInvalid
	return err
}

// descendChild moves to the first entry of the subtrie of parent's child i.
func (c *Cursor) descendChild(parent *BranchNode, i byte) error {
	child, err := resolveChild(c.eng.r, parent, i)
	if err != nil {
		return err
	}
	c.path = append(c.path, pathEntry{parent, i})
	return c.descendFirst(child)
}

// descendFirst moves to the first entry of the subtrie rooted at n.
func (c *Cursor) descendFirst(n Node) error {
	for {
		switch b := n.(type) {
		case *LeafNode:
			c.current = b
			return nil
		case *BranchNode:
			if b.value != nil {
				c.current = b
				return nil
			}
			i := b.firstChild(0)
			if i < 0 {
				return fmt.Errorf("%w: empty branch", ErrInvalidNodeStructure)
			}
			child, err := resolveChild(c.eng.r, b, byte(i))
			if err != nil {
				return err
			}
			c.path = append(c.path, pathEntry{b, byte(i)})
			n = child
		default:
			return unexpectedNode(n)
		}
	}
}

// descendLast moves to the last entry of the subtrie rooted at n.
func (c *Cursor) descendLast(n Node) error {
	for {
		switch b := n.(type) {
		case *LeafNode:
			c.current = b
			return nil
		case *BranchNode:
			i := b.lastChild()
			if i < 0 {
				if b.value == nil {
					return fmt.Errorf("%w: empty branch", ErrInvalidNodeStructure)
				}
				c.current = b
				return nil
			}
			child, err := resolveChild(c.eng.r, b, byte(i))
			if err != nil {
				return err
			}
			c.path = append(c.path, pathEntry{b, byte(i)})
			n = child
		default:
			return unexpectedNode(n)
		}
	}
}

// nextSibling goes up the path looking for the closest branch having
// a child after the one taken and moves to the first entry under it.
func (c *Cursor) nextSibling() (bool, error) {
	for len(c.path) != 0 {
		last := c.path[len(c.path)-1]
		c.path = c.path[:len(c.path)-1]
		if i := last.parent.firstChild(int(last.index) + 1); i >= 0 {
			return true, c.descendChild(last.parent, byte(i))
		}
	}
	return false, nil
}

// lowerBound moves to the first entry with the key not less than target in
// the subtrie rooted at n. target is relative to n, the path to n must be
// already recorded. false is returned if all keys in the subtrie are less
// than target, the path is left unchanged then.
func (c *Cursor) lowerBound(n Node, target []byte) (bool, error) {
	key := partialKey(n)
	pref := lcp(key, target)
	switch {
	case pref == len(target):
		// target is a prefix of the node key, every key here is >= target.
		return true, c.descendFirst(n)
	case pref < len(key):
		if target[pref] < key[pref] {
			return true, c.descendFirst(n)
		}
		return false, nil
	}

	// The node key is a strict prefix of target, so the node's own value is
	// less than target.
	b, ok := n.(*BranchNode)
	if !ok {
		return false, nil
	}
	i := target[pref]
	if b.Children[i] != nil {
		child, err := resolveChild(c.eng.r, b, i)
		if err != nil {
			return false, err
		}
		c.path = append(c.path, pathEntry{b, i})
		found, err := c.lowerBound(child, target[pref+1:])
		if found || err != nil {
			return found, err
		}
		c.path = c.path[:len(c.path)-1]
	}
	if j := b.firstChild(int(i) + 1); j >= 0 {
		return true, c.descendChild(b, byte(j))
	}
	return false, nil
}
