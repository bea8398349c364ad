/*
Package triedb keeps state tries in a key-value storage. It provides
ephemeral (read-mostly, never persisted) and persistent (committable) views
of the state at any stored root.
*/
package triedb

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/config"
	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/core/storage"
	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// dbVersionPrefix is prepended to the hasher name in the stored DB version.
const dbVersionPrefix = "dot-go/"

// TrieStorage gives access to tries kept in the storage.
type TrieStorage struct {
	store    storage.Store
	ser      *Serializer
	codec    *mpt.Codec
	log      *zap.Logger
	lastRoot atomic.Value
}

// New opens trie storage over s. The storage must either be empty or be
// created with the same hasher.
func New(s storage.Store, cfg config.Trie, log *zap.Logger) (*TrieStorage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, err := hash.ByName(cfg.Hasher)
	if err != nil {
		return nil, err
	}
	hasherName := cfg.Hasher
	if hasherName == "" {
		hasherName = config.DefaultHasher
	}
	if err := checkVersion(s, dbVersionPrefix+hasherName); err != nil {
		return nil, err
	}
	ser, err := NewSerializer(NewNodeBackend(s), h, cfg.NodeCacheSize, log)
	if err != nil {
		return nil, err
	}
	ts := &TrieStorage{
		store: s,
		ser:   ser,
		codec: mpt.NewCodec(h, mpt.Version(cfg.StateVersion)),
		log:   log,
	}
	root := ser.EmptyRootHash()
	data, err := s.Get(storage.SYSStateRoot.Bytes())
	switch {
	case err == nil:
		root, err = util.Uint256DecodeBytesBE(data)
		if err != nil {
			return nil, fmt.Errorf("bad stored state root: %w", err)
		}
	case !errors.Is(err, storage.ErrKeyNotFound):
		return nil, fmt.Errorf("failed to get last state root: %w", err)
	}
	ts.lastRoot.Store(root)
	log.Info("trie storage opened",
		zap.String("hasher", hasherName),
		zap.Uint8("state version", cfg.StateVersion),
		zap.Stringer("root", root))
	return ts, nil
}

func checkVersion(s storage.Store, expected string) error {
	v, err := storage.Version(s)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return storage.PutVersion(s, expected)
	}
	if err != nil {
		return fmt.Errorf("failed to get DB version: %w", err)
	}
	if v != expected {
		return fmt.Errorf("DB version mismatch: stored %q, expected %q", v, expected)
	}
	return nil
}

// Codec returns the codec used to hash tries with the configured state
// version.
func (ts *TrieStorage) Codec() *mpt.Codec {
	return ts.codec
}

// EmptyRootHash returns the root hash of an empty trie.
func (ts *TrieStorage) EmptyRootHash() util.Uint256 {
	return ts.ser.EmptyRootHash()
}

// LastRoot returns the last committed root, EmptyRootHash if nothing was
// committed yet.
func (ts *TrieStorage) LastRoot() util.Uint256 {
	return ts.lastRoot.Load().(util.Uint256)
}

// GetEphemeralBatchAt returns a view of the state at the specified root,
// its changes can't be persisted.
func (ts *TrieStorage) GetEphemeralBatchAt(root util.Uint256) (*EphemeralBatch, error) {
	t, err := ts.ser.RetrieveTrie(root)
	if err != nil {
		return nil, err
	}
	return &EphemeralBatch{trie: t, codec: ts.codec}, nil
}

// GetPersistentBatchAt returns a view of the state at the specified root
// that can be committed.
func (ts *TrieStorage) GetPersistentBatchAt(root util.Uint256) (*PersistentBatch, error) {
	b, err := ts.GetEphemeralBatchAt(root)
	if err != nil {
		return nil, err
	}
	return &PersistentBatch{EphemeralBatch: *b, ts: ts}, nil
}

// commit stores t and makes its root the last one.
func (ts *TrieStorage) commit(t *mpt.Trie, v mpt.Version) (util.Uint256, error) {
	root, err := ts.ser.StoreTrie(t, v)
	if err != nil {
		return util.Uint256{}, err
	}
	err = ts.store.PutChangeSet(map[string][]byte{
		string(storage.SYSStateRoot.Bytes()): root.BytesBE(),
	})
	if err != nil {
		return util.Uint256{}, fmt.Errorf("failed to store state root: %w", err)
	}
	ts.lastRoot.Store(root)
	ts.log.Info("state committed", zap.Stringer("root", root), zap.Uint8("state version", uint8(v)))
	return root, nil
}
