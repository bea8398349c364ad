package triedb

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"go.uber.org/zap"
)

// Serializer stores tries into the backend and loads them back. Loaded
// tries resolve their children lazily, decoded nodes are shared between
// tries via the node cache.
type Serializer struct {
	backend *NodeBackend
	hasher  hash.Hasher
	decoder *mpt.Codec
	cache   *lru.Cache
	log     *zap.Logger
}

// NewSerializer creates a serializer over the backend. cacheSize is the
// number of decoded nodes to keep, zero disables caching.
func NewSerializer(b *NodeBackend, h hash.Hasher, cacheSize int, log *zap.Logger) (*Serializer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Serializer{
		backend: b,
		hasher:  h,
		decoder: mpt.NewCodec(h, mpt.V0),
		log:     log,
	}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("node cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// EmptyRootHash returns the root hash of an empty trie.
func (s *Serializer) EmptyRootHash() util.Uint256 {
	return s.decoder.EmptyRootHash()
}

// StoreTrie writes all the in-memory nodes of t referenced by hash (and
// the root node itself) into the backend using the given state version.
// Subtrees that are still unresolved references are already stored and
// are not touched.
func (s *Serializer) StoreTrie(t *mpt.Trie, v mpt.Version) (util.Uint256, error) {
	var (
		c      = mpt.NewCodec(s.hasher, v)
		batch  = s.backend.batch()
		nodes  int
		values int
	)
	enc, err := c.EncodeNode(t.Root(), &mpt.Visitor{
		Node: func(h util.Uint256, enc []byte) error {
			batch.Put(makeNodeKey(h), enc)
			nodes++
			return nil
		},
		Value: func(h util.Uint256, value []byte) error {
			batch.Put(makeValueKey(h), value)
			values++
			return nil
		},
	})
	if err != nil {
		return util.Uint256{}, fmt.Errorf("failed to encode trie: %w", err)
	}
	root := c.Hasher(enc)
	batch.Put(makeNodeKey(root), enc)
	nodes++
	if _, err := batch.Persist(); err != nil {
		return util.Uint256{}, fmt.Errorf("failed to persist trie: %w", err)
	}
	updateCommitMetrics(nodes, values)
	s.log.Debug("trie stored",
		zap.Stringer("root", root),
		zap.Int("nodes", nodes),
		zap.Int("values", values))
	return root, nil
}

// RetrieveTrie loads the trie with the specified root hash. Only the root
// node is decoded immediately.
func (s *Serializer) RetrieveTrie(root util.Uint256) (*mpt.Trie, error) {
	cfg := mpt.Config{Resolver: s, Logger: s.log}
	if root.Equals(s.EmptyRootHash()) {
		return mpt.NewTrie(nil, cfg), nil
	}
	n, err := s.loadNode(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load root %s: %w", root.StringBE(), err)
	}
	return mpt.NewTrie(n, cfg), nil
}

// ResolveChild implements mpt.ChildResolver. Storage errors are returned
// as is.
func (s *Serializer) ResolveChild(parent *mpt.BranchNode, index byte) (mpt.Node, error) {
	h, ok := parent.Children[index].(*mpt.HashNode)
	if !ok {
		return nil, fmt.Errorf("%w: child %d is not a reference", mpt.ErrInvalidNodeStructure, index)
	}
	if h.IsInline() {
		return s.decoder.DecodeNode(h.MerkleValue(), s.backend.GetValue)
	}
	u, _ := h.Hash()
	return s.loadNode(u)
}

func (s *Serializer) loadNode(h util.Uint256) (mpt.Node, error) {
	if s.cache != nil {
		if n, ok := s.cache.Get(h); ok {
			nodeCacheHits.Inc()
			return n.(mpt.Node), nil
		}
	}
	enc, err := s.backend.GetNode(h)
	if err != nil {
		return nil, err
	}
	n, err := s.decoder.DecodeNode(enc, s.backend.GetValue)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", h.StringBE(), err)
	}
	nodesLoaded.Inc()
	if s.cache != nil {
		s.cache.Add(h, n)
	}
	return n, nil
}
