package triedb

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"go.uber.org/zap"
)

// ChildStoragePrefix is prepended to the child trie key to get the main
// trie key storing the child trie root.
var ChildStoragePrefix = []byte(":child_storage:default:")

var (
	// ErrBadChildRoot is returned when the child trie root stored in the
	// main trie is not a hash.
	ErrBadChildRoot = errors.New("invalid child trie root")
	// ErrChildCommit is returned on attempt to commit a child batch on its
	// own, it's committed with the parent.
	ErrChildCommit = errors.New("child batch can't be committed separately")
)

// ChildStorageKey returns the main trie key of the child trie root.
func ChildStorageKey(childKey []byte) []byte {
	key := make([]byte, 0, len(ChildStoragePrefix)+len(childKey))
	key = append(key, ChildStoragePrefix...)
	return append(key, childKey...)
}

// ChildRoot returns the root of the child trie stored under childKey, ok is
// false if there is no such child trie.
func (b *EphemeralBatch) ChildRoot(childKey []byte) (util.Uint256, bool, error) {
	data, err := b.TryGet(ChildStorageKey(childKey))
	if err != nil || data == nil {
		return util.Uint256{}, false, err
	}
	root, err := util.Uint256DecodeBytesBE(data)
	if err != nil {
		return util.Uint256{}, false, fmt.Errorf("%w: %v", ErrBadChildRoot, err)
	}
	return root, true, nil
}

// ChildBatch returns the batch of the child trie stored under childKey, an
// empty one if there is no such child trie yet. The same batch is returned
// for the same key, its changes are committed along with b.
func (b *PersistentBatch) ChildBatch(childKey []byte) (*PersistentBatch, error) {
	if c, ok := b.children[string(childKey)]; ok {
		return c, nil
	}
	root, ok, err := b.ChildRoot(childKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		root = b.ts.EmptyRootHash()
	}
	c, err := b.ts.GetPersistentBatchAt(root)
	if err != nil {
		return nil, fmt.Errorf("child trie %x: %w", childKey, err)
	}
	c.parent = b
	if b.children == nil {
		b.children = make(map[string]*PersistentBatch)
	}
	b.children[string(childKey)] = c
	return c, nil
}

// commitChildren stores child tries and puts their roots into b. Empty
// child tries are removed from b.
func (b *PersistentBatch) commitChildren(v mpt.Version) error {
	keys := make([]string, 0, len(b.children))
	for k := range b.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := b.children[k]
		if err := c.commitChildren(v); err != nil {
			return err
		}
		key := ChildStorageKey([]byte(k))
		if c.trie.IsEmpty() {
			if err := b.Remove(key); err != nil {
				return err
			}
			continue
		}
		root, err := b.ts.ser.StoreTrie(c.trie, v)
		if err != nil {
			return fmt.Errorf("child trie %x: %w", k, err)
		}
		if err := b.Put(key, root.BytesBE()); err != nil {
			return err
		}
		b.ts.log.Debug("child trie committed", zap.String("key", fmt.Sprintf("%x", k)), zap.Stringer("root", root))
	}
	return nil
}
