package mpt

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/nspcc-dev/dot-go/internal/random"
	"github.com/stretchr/testify/require"
)

type testPair struct {
	key   []byte
	value []byte
}

func randomPairs(n int) []testPair {
	seen := make(map[string]bool, n)
	pairs := make([]testPair, 0, n)
	for len(pairs) < n {
		k := random.Bytes(random.Int(1, 6))
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		pairs = append(pairs, testPair{k, random.Bytes(random.Int(0, 70))})
	}
	return pairs
}

func newTestTrie(t *testing.T, pairs []testPair) *Trie {
	tr := NewTrie(nil, Config{})
	for _, p := range pairs {
		require.NoError(t, tr.Put(p.key, p.value))
	}
	return tr
}

func (tr *Trie) testHas(t *testing.T, key, value []byte) {
	v, err := tr.Get(key)
	if value == nil {
		require.ErrorIs(t, err, ErrNotFound)
		ok, err := tr.Contains(key)
		require.NoError(t, err)
		require.False(t, ok)
		return
	}
	require.NoError(t, err)
	require.Equal(t, value, v)
}

func rootHash(t *testing.T, tr *Trie) string {
	h, err := DefaultCodec.Hash(tr.Root())
	require.NoError(t, err)
	return h.StringBE()
}

func TestTrie_Empty(t *testing.T) {
	tr := NewTrie(nil, Config{})
	require.True(t, tr.IsEmpty())
	require.True(t, IsEmpty(tr.Root()))
	tr.testHas(t, []byte{1}, nil)
	tr.testHas(t, []byte{}, nil)
	require.Equal(t, DefaultCodec.EmptyRootHash().StringBE(), rootHash(t, tr))

	require.NoError(t, tr.Delete([]byte{1, 2}))
	require.True(t, tr.IsEmpty())
}

func TestTrie_PutGet(t *testing.T) {
	pairs := randomPairs(200)
	tr := newTestTrie(t, pairs)
	require.False(t, tr.IsEmpty())
	for _, p := range pairs {
		tr.testHas(t, p.key, p.value)
		ok, err := tr.Contains(p.key)
		require.NoError(t, err)
		require.True(t, ok)
	}

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, tr.Put(pairs[0].key, []byte("new")))
		tr.testHas(t, pairs[0].key, []byte("new"))
		tr.testHas(t, pairs[1].key, pairs[1].value)
	})
	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, tr.Put([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, []byte{1, 2, 3}))
		v, err := tr.Get([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
		require.NoError(t, err)
		v[0] = 42
		tr.testHas(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, []byte{1, 2, 3})
	})
	t.Run("stored value is a copy", func(t *testing.T) {
		val := []byte{7, 7}
		require.NoError(t, tr.Put([]byte{0xFE}, val))
		val[0] = 0
		tr.testHas(t, []byte{0xFE}, []byte{7, 7})
	})
}

func TestTrie_EmptyValue(t *testing.T) {
	tr := NewTrie(nil, Config{})
	require.NoError(t, tr.Put([]byte{1}, []byte{}))
	require.NoError(t, tr.Put([]byte{1, 2}, nil))

	for _, k := range [][]byte{{1}, {1, 2}} {
		v, err := tr.Get(k)
		require.NoError(t, err)
		require.NotNil(t, v)
		require.Len(t, v, 0)
		ok, err := tr.Contains(k)
		require.NoError(t, err)
		require.True(t, ok)
	}
	tr.testHas(t, []byte{1, 3}, nil)
}

func TestTrie_Delete(t *testing.T) {
	pairs := randomPairs(100)
	tr := newTestTrie(t, pairs)

	for i, p := range pairs {
		require.NoError(t, tr.Delete(p.key))
		tr.testHas(t, p.key, nil)
		for _, rest := range pairs[i+1:] {
			tr.testHas(t, rest.key, rest.value)
		}

		expected := newTestTrie(t, pairs[i+1:])
		require.Equal(t, rootHash(t, expected), rootHash(t, tr), "after %d deletions", i+1)
	}
	require.True(t, tr.IsEmpty())
	require.Equal(t, DefaultCodec.EmptyRootHash().StringBE(), rootHash(t, tr))
}

func TestTrie_DeleteMissing(t *testing.T) {
	tr := newTestTrie(t, []testPair{
		{[]byte{0x12}, []byte{1}},
		{[]byte{0x12, 0x34}, []byte{2}},
		{[]byte{0x12, 0x35}, []byte{3}},
	})
	root := tr.Root()
	for _, k := range [][]byte{{0x13}, {0x12, 0x36}, {0x12, 0x34, 0x56}, {0x1}, {}} {
		require.NoError(t, tr.Delete(k))
		require.True(t, root == tr.Root())
	}
}

func TestTrie_Collapse(t *testing.T) {
	tr := newTestTrie(t, []testPair{
		{[]byte{0x12}, []byte{1}},
		{[]byte{0x12, 0x34}, []byte{2}},
	})
	b, ok := tr.Root().(*BranchNode)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2}, b.Key())
	require.Equal(t, []byte{1}, b.Value())
	require.Equal(t, 1, b.ChildrenNum())

	t.Run("branch value removed", func(t *testing.T) {
		tr := tr.Snapshot()
		require.NoError(t, tr.Delete([]byte{0x12}))
		l, ok := tr.Root().(*LeafNode)
		require.True(t, ok)
		require.Equal(t, []byte{1, 2, 3, 4}, l.Key())
		require.Equal(t, []byte{2}, l.Value())
	})
	t.Run("child removed", func(t *testing.T) {
		tr := tr.Snapshot()
		require.NoError(t, tr.Delete([]byte{0x12, 0x34}))
		l, ok := tr.Root().(*LeafNode)
		require.True(t, ok)
		require.Equal(t, []byte{1, 2}, l.Key())
		require.Equal(t, []byte{1}, l.Value())
	})
	t.Run("merge with branch", func(t *testing.T) {
		tr := newTestTrie(t, []testPair{
			{[]byte{0x10}, []byte{1}},
			{[]byte{0x12, 0x34}, []byte{2}},
			{[]byte{0x12, 0x35}, []byte{3}},
		})
		require.NoError(t, tr.Delete([]byte{0x10}))
		b, ok := tr.Root().(*BranchNode)
		require.True(t, ok)
		require.Equal(t, []byte{1, 2, 3}, b.Key())
		require.False(t, b.HasValue())
		require.Equal(t, uint16(1<<4|1<<5), b.ChildrenBitmap())
	})
}

func TestTrie_OrderIndependence(t *testing.T) {
	pairs := randomPairs(100)
	expected := rootHash(t, newTestTrie(t, pairs))
	for i := 0; i < 5; i++ {
		shuffled := make([]testPair, len(pairs))
		for j, k := range rand.Perm(len(pairs)) {
			shuffled[j] = pairs[k]
		}
		tr := newTestTrie(t, shuffled)
		require.Equal(t, expected, rootHash(t, tr))
	}

	t.Run("put and delete", func(t *testing.T) {
		tr := newTestTrie(t, pairs[:50])
		extra := randomPairs(30)
		for _, p := range extra {
			if _, err := tr.Get(p.key); err == nil {
				continue
			}
			require.NoError(t, tr.Put(p.key, p.value))
			require.NoError(t, tr.Delete(p.key))
		}
		for _, p := range pairs[50:] {
			require.NoError(t, tr.Put(p.key, p.value))
		}
		require.Equal(t, expected, rootHash(t, tr))
	})
}

func TestTrie_Snapshot(t *testing.T) {
	pairs := randomPairs(50)
	tr := newTestTrie(t, pairs)
	snap := tr.Snapshot()
	h := rootHash(t, snap)

	require.NoError(t, tr.Put([]byte("another key"), []byte("value")))
	for _, p := range pairs[:25] {
		require.NoError(t, tr.Delete(p.key))
	}

	require.Equal(t, h, rootHash(t, snap))
	for _, p := range pairs {
		snap.testHas(t, p.key, p.value)
	}
	snap.testHas(t, []byte("another key"), nil)
	tr.testHas(t, []byte("another key"), []byte("value"))
}

func TestTrie_ExplicitRoot(t *testing.T) {
	r1, err := Put(nil, []byte{1}, []byte{1}, nil)
	require.NoError(t, err)
	r2, err := Put(r1, []byte{2}, []byte{2}, nil)
	require.NoError(t, err)

	_, err = Get(r1, []byte{2}, nil)
	require.ErrorIs(t, err, ErrNotFound)
	v, err := Get(r2, []byte{2}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{2}, v)

	r3, err := Delete(r2, []byte{1}, nil)
	require.NoError(t, err)
	ok, err := Contains(r3, []byte{1}, nil)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = Contains(r2, []byte{1}, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTrie_KeyTooLong(t *testing.T) {
	tr := NewTrie(nil, Config{})
	require.ErrorIs(t, tr.Put(make([]byte, MaxKeyNibbles/2+1), []byte{1}), ErrKeyTooLong)
	require.NoError(t, tr.Put(make([]byte, MaxKeyNibbles/2), []byte{1}))
}

func TestTrie_Resolver(t *testing.T) {
	b := NewBranchNode([]byte{1}, nil)
	b.Children[2] = NewLeafNode([]byte{3, 0}, []byte("in memory"))
	b.Children[4] = NewHashNode(make([]byte, 32))

	errStorage := errors.New("storage failure")
	leaf := NewLeafNode([]byte{5, 0}, []byte("resolved"))

	t.Run("no resolver", func(t *testing.T) {
		tr := NewTrie(b, Config{})
		tr.testHas(t, []byte{0x12, 0x3}, nil)
		v, err := tr.Get([]byte{0x12, 0x30})
		require.NoError(t, err)
		require.Equal(t, []byte("in memory"), v)

		_, err = tr.Get([]byte{0x14, 0x50})
		require.ErrorIs(t, err, ErrNoResolver)
	})
	t.Run("storage error", func(t *testing.T) {
		tr := NewTrie(b, Config{Resolver: ResolverFunc(func(*BranchNode, byte) (Node, error) {
			return nil, errStorage
		})})
		_, err := tr.Get([]byte{0x14, 0x50})
		require.True(t, errors.Is(err, errStorage))
		_, err = tr.Contains([]byte{0x14, 0x50})
		require.True(t, errors.Is(err, errStorage))
		require.True(t, errors.Is(tr.Put([]byte{0x14, 0x60}, []byte{1}), errStorage))
		require.True(t, errors.Is(tr.Delete([]byte{0x14, 0x50}), errStorage))
		// the trie is not changed by failed operations
		require.True(t, tr.Root() == Node(b))

		// removal of the in-memory child requires merging with the other one
		require.True(t, errors.Is(tr.Delete([]byte{0x12, 0x30}), errStorage))
	})
	t.Run("invalid node", func(t *testing.T) {
		for _, n := range []Node{nil, NewHashNode([]byte{1}), (*LeafNode)(nil)} {
			n := n
			tr := NewTrie(b, Config{Resolver: ResolverFunc(func(*BranchNode, byte) (Node, error) {
				return n, nil
			})})
			_, err := tr.Get([]byte{0x14, 0x50})
			require.ErrorIs(t, err, ErrInvalidNodeStructure)
		}
	})
	t.Run("resolved", func(t *testing.T) {
		var calls int
		tr := NewTrie(b, Config{Resolver: ResolverFunc(func(p *BranchNode, i byte) (Node, error) {
			calls++
			require.Equal(t, byte(4), i)
			_, ok := p.Children[i].(*HashNode)
			require.True(t, ok)
			return leaf, nil
		})})
		v, err := tr.Get([]byte{0x14, 0x50})
		require.NoError(t, err)
		require.Equal(t, []byte("resolved"), v)
		require.Equal(t, 1, calls)

		require.NoError(t, tr.Delete([]byte{0x12, 0x30}))
		l, ok := tr.Root().(*LeafNode)
		require.True(t, ok)
		require.Equal(t, []byte{1, 4, 5, 0}, l.Key())

		// the original tree is intact
		_, ok = b.Children[4].(*HashNode)
		require.True(t, ok)
		require.NotNil(t, b.Children[2])
	})
}
