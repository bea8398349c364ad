/*
Package stateapi implements state queries over the stored tries: storage
values, key paging, child tries and read proofs.
*/
package stateapi

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/core/triedb"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"go.uber.org/zap"
)

// Service answers state queries.
type Service struct {
	ts  *triedb.TrieStorage
	log *zap.Logger
}

// New creates a new Service over the trie storage.
func New(ts *triedb.TrieStorage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{ts: ts, log: log}
}

// LastRoot returns the last committed state root.
func (s *Service) LastRoot() util.Uint256 {
	return s.ts.LastRoot()
}

// GetStorage returns the value stored by key in the state with the given
// root, nil if there is none.
func (s *Service) GetStorage(root util.Uint256, key []byte) ([]byte, error) {
	b, err := s.ts.GetEphemeralBatchAt(root)
	if err != nil {
		return nil, err
	}
	return b.TryGet(key)
}

// GetStorageSize returns the length of the value stored by key, the flag
// is false if there is no such value.
func (s *Service) GetStorageSize(root util.Uint256, key []byte) (uint64, bool, error) {
	v, err := s.GetStorage(root, key)
	if err != nil || v == nil {
		return 0, false, err
	}
	return uint64(len(v)), true, nil
}

// GetStorageHash returns the hash of the value stored by key, the flag is
// false if there is no such value.
func (s *Service) GetStorageHash(root util.Uint256, key []byte) (util.Uint256, bool, error) {
	v, err := s.GetStorage(root, key)
	if err != nil || v == nil {
		return util.Uint256{}, false, err
	}
	return s.ts.Codec().Hasher(v), true, nil
}

// GetKeysPaged returns at most count keys starting with prefix in
// ascending order. If prevKey is greater than prefix, keys following it
// are returned, otherwise the first page is.
func (s *Service) GetKeysPaged(root util.Uint256, prefix []byte, count uint32, prevKey []byte) ([][]byte, error) {
	b, err := s.ts.GetEphemeralBatchAt(root)
	if err != nil {
		return nil, err
	}
	return keysPaged(b.Cursor(), prefix, count, prevKey)
}

func keysPaged(c *mpt.Cursor, prefix []byte, count uint32, prevKey []byte) ([][]byte, error) {
	var err error
	if bytes.Compare(prevKey, prefix) > 0 {
		err = c.SeekUpperBound(prevKey)
	} else {
		err = c.SeekLowerBound(prefix)
	}
	if errors.Is(err, mpt.ErrNullRoot) {
		return [][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}

	res := make([][]byte, 0, count)
	for uint32(len(res)) < count && c.IsValid() {
		key := c.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		res = append(res, key)
		if err := c.Next(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// GetReadProof returns the set of encoded nodes proving the values (or
// their absence) of all the keys. Every node is included once.
func (s *Service) GetReadProof(root util.Uint256, keys [][]byte) ([][]byte, error) {
	b, err := s.ts.GetEphemeralBatchAt(root)
	if err != nil {
		return nil, err
	}
	var (
		seen  = make(map[string]bool)
		proof = make([][]byte, 0)
	)
	for _, key := range keys {
		p, err := b.GetProof(key)
		if err != nil {
			return nil, fmt.Errorf("proof for %x: %w", key, err)
		}
		for _, enc := range p {
			if !seen[string(enc)] {
				seen[string(enc)] = true
				proof = append(proof, enc)
			}
		}
	}
	return proof, nil
}

// GetChildStorage returns the value stored by key in the child trie, nil
// if there is no such child trie or value.
func (s *Service) GetChildStorage(root util.Uint256, childKey []byte, key []byte) ([]byte, error) {
	b, err := s.childBatch(root, childKey)
	if err != nil || b == nil {
		return nil, err
	}
	return b.TryGet(key)
}

// GetChildStorageSize is like GetStorageSize for child tries.
func (s *Service) GetChildStorageSize(root util.Uint256, childKey []byte, key []byte) (uint64, bool, error) {
	v, err := s.GetChildStorage(root, childKey, key)
	if err != nil || v == nil {
		return 0, false, err
	}
	return uint64(len(v)), true, nil
}

// GetChildStorageHash is like GetStorageHash for child tries.
func (s *Service) GetChildStorageHash(root util.Uint256, childKey []byte, key []byte) (util.Uint256, bool, error) {
	v, err := s.GetChildStorage(root, childKey, key)
	if err != nil || v == nil {
		return util.Uint256{}, false, err
	}
	return s.ts.Codec().Hasher(v), true, nil
}

func (s *Service) childBatch(root util.Uint256, childKey []byte) (*triedb.EphemeralBatch, error) {
	b, err := s.ts.GetEphemeralBatchAt(root)
	if err != nil {
		return nil, err
	}
	childRoot, ok, err := b.ChildRoot(childKey)
	if err != nil || !ok {
		return nil, err
	}
	s.log.Debug("child trie", zap.String("key", fmt.Sprintf("%x", childKey)), zap.Stringer("root", childRoot))
	return s.ts.GetEphemeralBatchAt(childRoot)
}
