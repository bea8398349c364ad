package triedb

import (
	"github.com/nspcc-dev/dot-go/pkg/core/storage"
	"github.com/nspcc-dev/dot-go/pkg/util"
)

// NodeBackend maps node and value hashes to storage keys.
type NodeBackend struct {
	store storage.Store
}

// NewNodeBackend returns a backend over s.
func NewNodeBackend(s storage.Store) *NodeBackend {
	return &NodeBackend{store: s}
}

// GetNode returns the encoded node with the specified hash.
func (b *NodeBackend) GetNode(h util.Uint256) ([]byte, error) {
	return b.store.Get(makeNodeKey(h))
}

// GetValue returns the value stored by hash.
func (b *NodeBackend) GetValue(h util.Uint256) ([]byte, error) {
	return b.store.Get(makeValueKey(h))
}

// batch returns a write cache over the backing store.
func (b *NodeBackend) batch() *storage.MemCachedStore {
	return storage.NewMemCachedStore(b.store)
}

func makeNodeKey(h util.Uint256) []byte {
	return storage.DataTrieNode.Key(h[:])
}

func makeValueKey(h util.Uint256) []byte {
	return storage.DataTrieValue.Key(h[:])
}
