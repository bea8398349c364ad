package mpt

import (
	"bytes"
	"testing"

	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestProof(t *testing.T) {
	for _, c := range []*Codec{DefaultCodec, NewCodec(hash.Blake2b256, V1)} {
		pairs := randomPairs(200)
		tr := newTestTrie(t, pairs)
		root, err := c.Hash(tr.Root())
		require.NoError(t, err)

		for _, p := range pairs[:50] {
			proof, err := tr.GetProof(p.key, c)
			require.NoError(t, err)
			v, err := VerifyProof(root, p.key, proof, c)
			require.NoError(t, err)
			require.Equal(t, p.value, v)
		}

		t.Run("missing key", func(t *testing.T) {
			key := []byte("definitely missing key")
			proof, err := tr.GetProof(key, c)
			require.NoError(t, err)
			_, err = VerifyProof(root, key, proof, c)
			require.ErrorIs(t, err, ErrNotFound)
		})
		t.Run("incomplete proof", func(t *testing.T) {
			var key []byte
			var proof [][]byte
			for _, p := range pairs {
				proof, err = tr.GetProof(p.key, c)
				require.NoError(t, err)
				if len(proof) > 1 {
					key = p.key
					break
				}
			}
			require.NotNil(t, key)
			_, err = VerifyProof(root, key, proof[:len(proof)-1], c)
			require.ErrorIs(t, err, ErrInvalidProof)

			_, err = VerifyProof(util.Uint256{1, 2, 3}, key, proof, c)
			require.ErrorIs(t, err, ErrInvalidProof)
		})
	}
}

func TestProof_Small(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		tr := NewTrie(nil, Config{})
		proof, err := tr.GetProof([]byte{1}, DefaultCodec)
		require.NoError(t, err)
		require.Equal(t, [][]byte{{0}}, proof)
		_, err = VerifyProof(DefaultCodec.EmptyRootHash(), []byte{1}, proof, DefaultCodec)
		require.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("inline children", func(t *testing.T) {
		tr := newTestTrie(t, []testPair{{[]byte{1}, []byte{1}}, {[]byte{2}, []byte{2}}})
		root, err := DefaultCodec.Hash(tr.Root())
		require.NoError(t, err)
		proof, err := GetProof(tr.Root(), []byte{2}, nil, DefaultCodec)
		require.NoError(t, err)
		require.Equal(t, 1, len(proof))
		v, err := VerifyProof(root, []byte{2}, proof, DefaultCodec)
		require.NoError(t, err)
		require.Equal(t, []byte{2}, v)
	})
	t.Run("hashed value", func(t *testing.T) {
		c := NewCodec(hash.Blake2b256, V1)
		value := bytes.Repeat([]byte{7}, 100)
		tr := newTestTrie(t, []testPair{{[]byte{1}, value}})
		root, err := c.Hash(tr.Root())
		require.NoError(t, err)
		proof, err := tr.GetProof([]byte{1}, c)
		require.NoError(t, err)
		require.Equal(t, 2, len(proof))
		require.Equal(t, value, proof[1])

		v, err := VerifyProof(root, []byte{1}, proof, c)
		require.NoError(t, err)
		require.Equal(t, value, v)

		_, err = VerifyProof(root, []byte{1}, proof[:1], c)
		require.ErrorIs(t, err, ErrInvalidProof)
	})
}

// pathProof builds the proof encoding every node on the path separately.
func pathProof(t *testing.T, tr *Trie, key []byte, c *Codec) [][]byte {
	var (
		proof [][]byte
		path  = ToNibbles(key)
		curr  = tr.Root()
	)
	for {
		enc, err := c.EncodeNode(curr, nil)
		require.NoError(t, err)
		if curr == tr.Root() || len(enc) >= InlineThreshold {
			proof = append(proof, enc)
		}
		if v := nodeValue(curr); v != nil && c.IsHashedValue(v) {
			proof = append(proof, v)
		}
		b, ok := curr.(*BranchNode)
		if !ok || !bytes.HasPrefix(path, b.key) || len(path) == len(b.key) {
			return proof
		}
		path = path[len(b.key):]
		if b.Children[path[0]] == nil {
			return proof
		}
		curr, err = resolveChild(tr.Resolver(), b, path[0])
		require.NoError(t, err)
		path = path[1:]
	}
}

func TestProof_PartiallyLoaded(t *testing.T) {
	for _, c := range []*Codec{DefaultCodec, NewCodec(hash.Blake2b256, V1)} {
		pairs := randomPairs(300)
		rootH, db := storeTrie(t, c, newTestTrie(t, pairs).Root())
		get := func(h util.Uint256) ([]byte, error) {
			return db[h], nil
		}
		root, err := c.DecodeNode(db[rootH], get)
		require.NoError(t, err)
		tr := NewTrie(root, Config{Resolver: c.Resolver(get, get)})

		// Mix loaded and in-memory nodes on the paths.
		for i := 0; i < 20; i++ {
			pairs[i].value = bytes.Repeat([]byte{byte(i)}, i*3)
			require.NoError(t, tr.Put(pairs[i].key, pairs[i].value))
		}
		newRoot, err := c.Hash(tr.Root())
		require.NoError(t, err)

		keys := [][]byte{[]byte("missing key")}
		for _, p := range pairs[:60] {
			keys = append(keys, p.key)
		}
		for _, k := range keys {
			proof, err := tr.GetProof(k, c)
			require.NoError(t, err)
			require.Equal(t, pathProof(t, tr, k, c), proof)
		}
		for _, p := range pairs[:60] {
			proof, err := tr.GetProof(p.key, c)
			require.NoError(t, err)
			v, err := VerifyProof(newRoot, p.key, proof, c)
			require.NoError(t, err)
			require.Equal(t, p.value, v)
		}
	}
}
