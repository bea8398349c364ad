package mpt

import (
	"errors"
	"fmt"
	gio "io"

	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/nspcc-dev/dot-go/pkg/io"
	"github.com/nspcc-dev/dot-go/pkg/util"
)

// Version is a state version, it defines whether big values are stored in
// nodes as is or by hash.
type Version byte

// Supported state versions.
const (
	V0 Version = 0
	V1 Version = 1
)

// InlineThreshold is the node encoding size starting from which children
// are referenced by hash rather than embedded into parent's encoding.
const InlineThreshold = util.Uint256Size

// MaxInlineValue is the maximum length of a value stored in V1 node as is,
// longer values are replaced with their hashes.
const MaxInlineValue = 32

var (
	// ErrTooManyNibbles is returned for partial keys longer than MaxKeyNibbles.
	ErrTooManyNibbles = errors.New("too many nibbles in partial key")
	// ErrUnknownNodeType is returned for unknown node header.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrInputTooSmall is returned when node encoding ends unexpectedly.
	ErrInputTooSmall = errors.New("input is too small")
	// ErrNoNodeValue is returned when a node with hashed value is decoded
	// and the value can't be loaded.
	ErrNoNodeValue = errors.New("node value is not available")
)

// Codec encodes and hashes trie nodes.
type Codec struct {
	Hasher  hash.Hasher
	Version Version
}

// DefaultCodec is BLAKE2b-256 state version 0 codec.
var DefaultCodec = NewCodec(hash.Blake2b256, V0)

// NewCodec returns a codec with the specified parameters.
func NewCodec(h hash.Hasher, v Version) *Codec {
	return &Codec{Hasher: h, Version: v}
}

// Visitor receives data that is referenced by hash from encoded nodes. It's
// used to persist nodes and values. Any of the callbacks can be nil.
type Visitor struct {
	// Node is called for every child node encoding which is referenced by
	// hash, children go before their parents.
	Node func(h util.Uint256, enc []byte) error
	// Value is called for every value stored by hash (V1 only).
	Value func(h util.Uint256, value []byte) error

	// keep receives encodings of the in-memory nodes it has keys for.
	keep map[Node][]byte
}

// ValueLoader returns the value with the specified hash.
type ValueLoader func(h util.Uint256) ([]byte, error)

// NodeGetter returns the encoded node with the specified hash.
type NodeGetter func(h util.Uint256) ([]byte, error)

// EncodeNode returns the encoding of n. In-memory children are encoded
// recursively, the ones that are referenced by hash are passed to v.
func (c *Codec) EncodeNode(n Node, v *Visitor) ([]byte, error) {
	w := io.NewBufBinWriter()
	if err := c.encode(w.BinWriter, n, v); err != nil {
		return nil, err
	}
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// Hash returns the hash of the trie with the specified root.
func (c *Codec) Hash(root Node) (util.Uint256, error) {
	enc, err := c.EncodeNode(root, nil)
	if err != nil {
		return util.Uint256{}, err
	}
	return c.Hasher(enc), nil
}

// EmptyRootHash returns the hash of an empty trie.
func (c *Codec) EmptyRootHash() util.Uint256 {
	return c.Hasher([]byte{headerEmpty})
}

// MerkleValue returns the merkle value for the node encoding, that is the
// encoding itself for small nodes and its hash for others.
func (c *Codec) MerkleValue(enc []byte) []byte {
	if len(enc) < InlineThreshold {
		return enc
	}
	h := c.Hasher(enc)
	return h[:]
}

// IsHashedValue checks whether the value is stored by hash.
func (c *Codec) IsHashedValue(value []byte) bool {
	return c.Version == V1 && len(value) > MaxInlineValue
}

func (c *Codec) encode(w *io.BinWriter, n Node, v *Visitor) error {
	switch n := n.(type) {
	case nil:
		w.WriteB(headerEmpty)
		return nil
	case *LeafNode:
		hashed := c.IsHashedValue(n.value)
		prefix, mask := headerLeaf, plainMask
		if hashed {
			prefix, mask = headerHashedLeaf, hashedLeafMask
		}
		if err := writeHeader(w, prefix, mask, len(n.key)); err != nil {
			return err
		}
		w.WriteBytes(FromNibbles(n.key))
		return c.writeValue(w, n.value, hashed, v)
	case *BranchNode:
		hashed := n.value != nil && c.IsHashedValue(n.value)
		prefix, mask := headerBranch, plainMask
		if hashed {
			prefix, mask = headerHashedBranch, hashedBranchMask
		} else if n.value != nil {
			prefix = headerBranchValue
		}
		if err := writeHeader(w, prefix, mask, len(n.key)); err != nil {
			return err
		}
		w.WriteBytes(FromNibbles(n.key))
		w.WriteU16LE(n.ChildrenBitmap())
		if n.value != nil {
			if err := c.writeValue(w, n.value, hashed, v); err != nil {
				return err
			}
		}
		for i := range n.Children {
			if n.Children[i] == nil {
				continue
			}
			mv, err := c.childMerkleValue(n.Children[i], v)
			if err != nil {
				return err
			}
			w.WriteVarBytes(mv)
		}
		return nil
	default:
		return fmt.Errorf("%w: can't encode %s node", ErrInvalidNodeStructure, n.Type())
	}
}

func (c *Codec) writeValue(w *io.BinWriter, value []byte, hashed bool, v *Visitor) error {
	if !hashed {
		w.WriteVarBytes(value)
		return nil
	}
	h := c.Hasher(value)
	if v != nil && v.Value != nil {
		if err := v.Value(h, value); err != nil {
			return err
		}
	}
	w.WriteBytes(h[:])
	return nil
}

func (c *Codec) childMerkleValue(n Node, v *Visitor) ([]byte, error) {
	if h, ok := n.(*HashNode); ok {
		return h.merkle, nil
	}
	enc, err := c.EncodeNode(n, v)
	if err != nil {
		return nil, err
	}
	if v != nil && v.keep != nil {
		if _, ok := v.keep[n]; ok {
			v.keep[n] = enc
		}
	}
	if len(enc) < InlineThreshold {
		return enc, nil
	}
	h := c.Hasher(enc)
	if v != nil && v.Node != nil {
		if err := v.Node(h, enc); err != nil {
			return nil, err
		}
	}
	return h[:], nil
}

// DecodeNode decodes a single node, its children are returned as *HashNode.
// Hashed values are fetched with load, it can be nil if no such values are
// expected. The empty node is decoded as nil.
func (c *Codec) DecodeNode(data []byte, load ValueLoader) (Node, error) {
	r := io.NewBinReaderFromBuf(data)
	n, err := c.decode(r, load)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidNodeStructure, r.Len())
	}
	return n, nil
}

func (c *Codec) decode(r *io.BinReader, load ValueLoader) (Node, error) {
	kind, nibbles, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if kind == kindEmpty {
		return nil, nil
	}

	key, err := readPartialKey(r, nibbles)
	if err != nil {
		return nil, err
	}

	var bitmap uint16
	if !kind.isLeaf() {
		bitmap = r.ReadU16LE()
	}
	var value []byte
	switch {
	case kind.hashedValue():
		value, err = c.loadValue(r, load)
		if err != nil {
			return nil, err
		}
	case kind == kindLeaf || kind == kindBranchValue:
		value = r.ReadVarBytes(MaxValueSize)
	}
	if r.Err != nil {
		return nil, readErr(r.Err)
	}

	if kind.isLeaf() {
		return NewLeafNode(key, value), nil
	}
	if bitmap == 0 && value == nil {
		return nil, fmt.Errorf("%w: branch without children and value", ErrInvalidNodeStructure)
	}
	b := NewBranchNode(key, value)
	for i := range b.Children {
		if bitmap&(1<<i) == 0 {
			continue
		}
		mv := r.ReadVarBytes(InlineThreshold)
		if r.Err != nil {
			return nil, readErr(r.Err)
		}
		if len(mv) == 0 {
			return nil, fmt.Errorf("%w: empty child reference", ErrInvalidNodeStructure)
		}
		b.Children[i] = NewHashNode(mv)
	}
	return b, nil
}

func (c *Codec) loadValue(r *io.BinReader, load ValueLoader) ([]byte, error) {
	var h util.Uint256
	r.ReadBytes(h[:])
	if r.Err != nil {
		return nil, readErr(r.Err)
	}
	if load == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoNodeValue, h.StringBE())
	}
	value, err := load(h)
	if err != nil {
		return nil, fmt.Errorf("value %s: %w", h.StringBE(), err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func readPartialKey(r *io.BinReader, nibbles int) ([]byte, error) {
	buf := make([]byte, (nibbles+1)/2)
	r.ReadBytes(buf)
	if r.Err != nil {
		return nil, readErr(r.Err)
	}
	if nibbles%2 == 0 {
		return ToNibbles(buf), nil
	}
	if buf[0]&0xf0 != 0 {
		return nil, fmt.Errorf("%w: bad partial key padding", ErrInvalidNodeStructure)
	}
	key := make([]byte, 0, nibbles)
	key = append(key, buf[0])
	return append(key, ToNibbles(buf[1:])...), nil
}

// DecodeReference decodes the node referenced by h. Inline nodes are decoded
// as is, others are fetched with get.
func (c *Codec) DecodeReference(h *HashNode, get NodeGetter, load ValueLoader) (Node, error) {
	if h.IsInline() {
		return c.DecodeNode(h.merkle, load)
	}
	u, _ := h.Hash()
	data, err := get(u)
	if err != nil {
		return nil, err
	}
	return c.DecodeNode(data, load)
}

// Resolver returns a child resolver decoding nodes fetched with get.
func (c *Codec) Resolver(get NodeGetter, load ValueLoader) ChildResolver {
	return ResolverFunc(func(parent *BranchNode, index byte) (Node, error) {
		h, ok := parent.Children[index].(*HashNode)
		if !ok {
			return nil, fmt.Errorf("%w: child %d is not a reference", ErrInvalidNodeStructure, index)
		}
		return c.DecodeReference(h, get, load)
	})
}

func readErr(err error) error {
	if errors.Is(err, gio.EOF) || errors.Is(err, gio.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrInputTooSmall, err)
	}
	return err
}
