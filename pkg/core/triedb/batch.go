package triedb

import (
	"errors"

	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/util"
)

// EphemeralBatch is a mutable view of the state, its changes are never
// written to the storage.
type EphemeralBatch struct {
	trie  *mpt.Trie
	codec *mpt.Codec
}

// Get returns the value stored by key, mpt.ErrNotFound if there is none.
func (b *EphemeralBatch) Get(key []byte) ([]byte, error) {
	return b.trie.Get(key)
}

// TryGet is like Get, but returns nil without an error for missing keys.
func (b *EphemeralBatch) TryGet(key []byte) ([]byte, error) {
	v, err := b.trie.Get(key)
	if errors.Is(err, mpt.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// Contains checks whether key has a value.
func (b *EphemeralBatch) Contains(key []byte) (bool, error) {
	return b.trie.Contains(key)
}

// Put sets the value for the key.
func (b *EphemeralBatch) Put(key, value []byte) error {
	return b.trie.Put(key, value)
}

// Remove deletes the key, missing keys are ignored.
func (b *EphemeralBatch) Remove(key []byte) error {
	return b.trie.Delete(key)
}

// ClearPrefix removes all the keys starting with prefix.
func (b *EphemeralBatch) ClearPrefix(prefix []byte) error {
	return b.trie.ClearPrefix(prefix)
}

// ClearPrefixLimit removes at most limit keys starting with prefix, see
// mpt.Trie.ClearPrefixLimit.
func (b *EphemeralBatch) ClearPrefixLimit(prefix []byte, limit uint32) (bool, uint32, error) {
	return b.trie.ClearPrefixLimit(prefix, limit)
}

// Cursor returns a cursor over a snapshot of the current state.
func (b *EphemeralBatch) Cursor() *mpt.Cursor {
	return b.trie.Snapshot().Cursor()
}

// GetProof returns the proof of the key value (or its absence).
func (b *EphemeralBatch) GetProof(key []byte) ([][]byte, error) {
	return b.trie.GetProof(key, b.codec)
}

// Root returns the hash of the current state using the configured state
// version. It's the root Commit returns only if the same version is used for
// commit and there are no uncommitted child trie changes.
func (b *EphemeralBatch) Root() (util.Uint256, error) {
	return b.codec.Hash(b.trie.Root())
}

// PersistentBatch is a view of the state which can be committed to the
// storage.
type PersistentBatch struct {
	EphemeralBatch
	ts       *TrieStorage
	parent   *PersistentBatch
	children map[string]*PersistentBatch
}

// Commit writes the state using the given state version and returns its
// root hash. Child tries are stored first and their roots are put into the
// main trie. The batch remains usable after commit.
func (b *PersistentBatch) Commit(v mpt.Version) (util.Uint256, error) {
	if b.parent != nil {
		return util.Uint256{}, ErrChildCommit
	}
	if err := b.commitChildren(v); err != nil {
		return util.Uint256{}, err
	}
	return b.ts.commit(b.trie, v)
}
