package storage

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyPrefix constants.
const (
	// DataTrieNode is used for trie node encodings identified by their hash.
	DataTrieNode KeyPrefix = 0x03
	// DataTrieValue is used for values stored by hash (state version 1).
	DataTrieValue KeyPrefix = 0x05
	// SYSStateRoot keeps the last committed state root.
	SYSStateRoot KeyPrefix = 0xc0
	SYSVersion   KeyPrefix = 0xf0
)

// Supported database types.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

// SeekRange represents options for Store.Seek operation.
type SeekRange struct {
	// Prefix denotes the Seek's lookup key.
	Prefix []byte
	// Start denotes value appended to the Prefix to start Seek from.
	// Seeking starting from some key includes this key to the result;
	// if no matching key was found then next suitable key is picked up.
	// Empty Start means seeking through all keys in the DB with matching
	// Prefix.
	Start []byte
	// Backwards denotes whether Seek direction should be reversed, i.e.
	// whether seeking should be performed in a descending way.
	Backwards bool
}

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend for the trie data, it's not
	// intended to be used directly, you wrap it with MemCachedStore most
	// of the time.
	Store interface {
		Get([]byte) ([]byte, error)
		// PutChangeSet allows to push prepared changeset to the Store.
		// Nil values denote deleted keys.
		PutChangeSet(puts map[string][]byte) error
		// Seek can guarantee that provided key (k) and value (v) are the only valid until the next call to f.
		// Seek continues iteration until false is returned from f.
		// Key and value slices should not be modified.
		// Seek guarantees that key-value items are sorted by key in the
		// requested direction.
		Seek(rng SeekRange, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8

	// KeyValue represents key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// Key returns k followed by the given parts.
func (k KeyPrefix) Key(parts ...[]byte) []byte {
	var l = 1
	for _, p := range parts {
		l += len(p)
	}
	key := make([]byte, 1, l)
	key[0] = byte(k)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func seekRangeToPrefixes(sr SeekRange) *util.Range {
	var (
		rang  *util.Range
		start = make([]byte, len(sr.Prefix)+len(sr.Start))
	)
	copy(start, sr.Prefix)
	copy(start[len(sr.Prefix):], sr.Start)

	if !sr.Backwards {
		rang = util.BytesPrefix(sr.Prefix)
		rang.Start = start
	} else {
		rang = util.BytesPrefix(start)
		rang.Start = sr.Prefix
	}
	return rang
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case InMemoryDB:
		store = NewMemoryStore()
	case BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}
