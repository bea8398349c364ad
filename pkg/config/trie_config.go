package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
)

// Trie defaults.
const (
	DefaultNodeCacheSize = 16384
	DefaultHasher        = hash.Blake2b256Name
)

// Trie contains state trie settings.
type Trie struct {
	// NodeCacheSize is the number of decoded nodes kept in memory, zero
	// disables the cache.
	NodeCacheSize int `yaml:"NodeCacheSize"`
	// StateVersion is the version used for new commits, 0 or 1.
	StateVersion uint8 `yaml:"StateVersion"`
	// Hasher is the trie hash function name.
	Hasher string `yaml:"Hasher"`
}

// Validate checks Trie settings.
func (t Trie) Validate() error {
	if t.NodeCacheSize < 0 {
		return errors.New("negative NodeCacheSize")
	}
	if t.StateVersion > 1 {
		return fmt.Errorf("unsupported StateVersion %d", t.StateVersion)
	}
	_, err := hash.ByName(t.Hasher)
	return err
}
