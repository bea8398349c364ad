package mpt

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrie_ClearPrefix(t *testing.T) {
	pairs := []testPair{
		{[]byte("bark"), []byte("123")},
		{[]byte("barnacle"), []byte("456")},
		{[]byte("bat"), []byte("789")},
		{[]byte("batch"), []byte("0-=")},
	}
	tr := newTestTrie(t, pairs)

	require.NoError(t, tr.ClearPrefix([]byte("bar")))
	tr.testHas(t, []byte("bark"), nil)
	tr.testHas(t, []byte("barnacle"), nil)
	tr.testHas(t, []byte("bat"), []byte("789"))
	tr.testHas(t, []byte("batch"), []byte("0-="))
	require.Equal(t, rootHash(t, newTestTrie(t, pairs[2:])), rootHash(t, tr))

	require.NoError(t, tr.ClearPrefix([]byte("batc")))
	tr.testHas(t, []byte("bat"), []byte("789"))
	tr.testHas(t, []byte("batch"), nil)
	require.Equal(t, rootHash(t, newTestTrie(t, pairs[2:3])), rootHash(t, tr))

	require.NoError(t, tr.ClearPrefix([]byte("b")))
	require.True(t, tr.IsEmpty())
}

func TestTrie_ClearPrefixRandom(t *testing.T) {
	pairs := randomPairs(300)
	for _, prefix := range [][]byte{{}, {0x00}, {0x7F}, {0xAB}, {0xAB, 0xCD}, pairs[0].key, pairs[1].key[:1]} {
		t.Run(fmt.Sprintf("%x", prefix), func(t *testing.T) {
			tr := newTestTrie(t, pairs)
			require.NoError(t, tr.ClearPrefix(prefix))

			var rest []testPair
			for _, p := range pairs {
				if bytes.HasPrefix(p.key, prefix) {
					tr.testHas(t, p.key, nil)
				} else {
					tr.testHas(t, p.key, p.value)
					rest = append(rest, p)
				}
			}
			require.Equal(t, rootHash(t, newTestTrie(t, rest)), rootHash(t, tr))
		})
	}
}

func TestClearPrefix_ExplicitRoot(t *testing.T) {
	tr := newTestTrie(t, []testPair{
		{[]byte{0x12}, []byte{1}},
		{[]byte{0x12, 0x34}, []byte{2}},
		{[]byte{0x56}, []byte{3}},
	})
	r, err := ClearPrefix(tr.Root(), []byte{0x12}, nil)
	require.NoError(t, err)
	l, ok := r.(*LeafNode)
	require.True(t, ok)
	require.Equal(t, []byte{5, 6}, l.Key())

	// the old root is intact
	tr.testHas(t, []byte{0x12, 0x34}, []byte{2})

	r, err = ClearPrefix(tr.Root(), []byte{0x99}, nil)
	require.NoError(t, err)
	require.True(t, r == tr.Root())
}

func TestTrie_ClearPrefixLimit(t *testing.T) {
	var pairs []testPair
	for i := 0; i < 10; i++ {
		pairs = append(pairs, testPair{[]byte{'a', byte('0' + i)}, []byte{byte(i)}})
	}
	pairs = append(pairs, testPair{[]byte("a"), []byte("a")}, testPair{[]byte("b"), []byte("b")})
	tr := newTestTrie(t, pairs)

	finished, n, err := tr.ClearPrefixLimit([]byte("a"), 0)
	require.NoError(t, err)
	require.False(t, finished)
	require.Equal(t, uint32(0), n)

	finished, n, err = tr.ClearPrefixLimit([]byte("a"), 3)
	require.NoError(t, err)
	require.False(t, finished)
	require.Equal(t, uint32(3), n)
	var left int
	for _, p := range pairs[:11] {
		if ok, err := tr.Contains(p.key); err == nil && ok {
			left++
		}
	}
	require.Equal(t, 8, left)

	finished, n, err = tr.ClearPrefixLimit([]byte("a"), 100)
	require.NoError(t, err)
	require.True(t, finished)
	require.Equal(t, uint32(8), n)
	tr.testHas(t, []byte("b"), []byte("b"))
	require.Equal(t, rootHash(t, newTestTrie(t, pairs[11:])), rootHash(t, tr))

	finished, n, err = tr.ClearPrefixLimit([]byte("a"), 100)
	require.NoError(t, err)
	require.True(t, finished)
	require.Equal(t, uint32(0), n)

	t.Run("exact limit", func(t *testing.T) {
		tr := newTestTrie(t, pairs)
		finished, n, err := tr.ClearPrefixLimit([]byte("a"), 11)
		require.NoError(t, err)
		require.True(t, finished)
		require.Equal(t, uint32(11), n)
	})
	t.Run("leaf", func(t *testing.T) {
		tr := newTestTrie(t, pairs)
		finished, n, err := tr.ClearPrefixLimit([]byte("b"), 1)
		require.NoError(t, err)
		require.True(t, finished)
		require.Equal(t, uint32(1), n)
		tr.testHas(t, []byte("b"), nil)
	})
}

func TestTrie_ClearPrefixResolverError(t *testing.T) {
	b := NewBranchNode(nil, []byte{1})
	b.Children[1] = NewHashNode(make([]byte, 32))
	b.Children[2] = NewLeafNode([]byte{0}, []byte{2})
	errStorage := errors.New("storage failure")
	tr := NewTrie(b, Config{Resolver: ResolverFunc(func(*BranchNode, byte) (Node, error) {
		return nil, errStorage
	})})

	require.True(t, errors.Is(tr.ClearPrefix([]byte{0x10}), errStorage))
	_, _, err := tr.ClearPrefixLimit([]byte{}, 10)
	require.True(t, errors.Is(err, errStorage))
	require.True(t, tr.Root() == Node(b))

	// unrelated subtrie doesn't need resolution
	require.NoError(t, tr.ClearPrefix([]byte{0x20}))
	tr.testHas(t, []byte{0x20}, nil)
}
