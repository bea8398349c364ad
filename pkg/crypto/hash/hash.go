/*
Package hash contains the hash functions used by the state trie: BLAKE2b-256
(the default one) and legacy Keccak-256.
*/
package hash

import (
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/util"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Names of supported hashers.
const (
	Blake2b256Name = "blake2b-256"
	Keccak256Name  = "keccak-256"
)

// Hasher is a 32-byte hash function.
type Hasher func(data []byte) util.Uint256

// Blake2b256 hashes the incoming byte slice using the unkeyed BLAKE2b
// algorithm with 256-bit output.
func Blake2b256(data []byte) util.Uint256 {
	return blake2b.Sum256(data)
}

// Keccak256 hashes the incoming byte slice using the original (pre-SHA3)
// Keccak-256 algorithm.
func Keccak256(data []byte) util.Uint256 {
	var hash util.Uint256
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	h.Sum(hash[:0])
	return hash
}

// ByName returns the hasher registered under the given name. Empty name
// means the default (BLAKE2b-256) one.
func ByName(name string) (Hasher, error) {
	switch name {
	case "", Blake2b256Name:
		return Blake2b256, nil
	case Keccak256Name:
		return Keccak256, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}
