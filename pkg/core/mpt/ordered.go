package mpt

import (
	"github.com/nspcc-dev/dot-go/pkg/io"
	"github.com/nspcc-dev/dot-go/pkg/util"
)

// OrderedRoot returns the root hash of a trie mapping SCALE-encoded
// positions of values to the values themselves. It's used for extrinsics
// roots.
func OrderedRoot(values [][]byte, c *Codec) (util.Uint256, error) {
	if len(values) == 0 {
		return c.EmptyRootHash(), nil
	}
	var (
		root Node
		err  error
	)
	for i, v := range values {
		root, err = nopEngine.put(root, io.EncodeCompact(uint64(i)), v)
		if err != nil {
			return util.Uint256{}, err
		}
	}
	return c.Hash(root)
}
