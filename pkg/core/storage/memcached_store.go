package storage

import (
	"bytes"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch. Deleted keys are
// kept in the cache with nil values.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	val, ok := s.mem[string(key)]
	s.mut.RUnlock()
	if ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// Put puts the key-value pair into the cache, value must not be nil.
func (s *MemCachedStore) Put(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	s.mut.Lock()
	s.mem[string(key)] = value
	s.mut.Unlock()
}

// Delete marks the key as deleted.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface, changes are cached until
// Persist. Never returns an error.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes shadow the items of
// the persistent store.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	cached := s.collect(rng, true)
	s.mut.RUnlock()

	less := seekLess(rng.Backwards)
	var (
		i    int
		done bool
	)
	// emit passes cached items going before k (all of them for nil k).
	emit := func(k []byte) bool {
		for ; i < len(cached); i++ {
			if k != nil && !less(cached[i].Key, k) {
				return true
			}
			if cached[i].Value != nil && !f(cached[i].Key, cached[i].Value) {
				return false
			}
		}
		return true
	}
	s.ps.Seek(rng, func(k, v []byte) bool {
		if !emit(k) {
			done = true
			return false
		}
		if i < len(cached) && bytes.Equal(cached[i].Key, k) {
			i++
			if cached[i-1].Value == nil {
				return true
			}
			v = cached[i-1].Value
		}
		if !f(k, v) {
			done = true
			return false
		}
		return true
	})
	if !done {
		emit(nil)
	}
}

// Persist flushes all the cached changes into the persistent store. It
// returns the number of flushed items.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements the Store interface, it closes the persistent store
// and drops the cache.
func (s *MemCachedStore) Close() error {
	err := s.ps.Close()
	_ = s.MemoryStore.Close()
	return err
}
