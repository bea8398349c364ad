package mpt

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/nspcc-dev/dot-go/pkg/util/slice"
)

// Batch is a batch of storage changes.
// It stores key-value pairs in a sorted order.
type Batch struct {
	kv []keyValue
}

type keyValue struct {
	key   []byte
	value []byte
}

// MapToBatch makes a Batch from an unordered set of storage changes. nil
// value means that the key is to be deleted.
func MapToBatch(m map[string][]byte) Batch {
	var b Batch
	b.kv = make([]keyValue, 0, len(m))
	for k, v := range m {
		b.kv = append(b.kv, keyValue{ToNibbles([]byte(k)), v})
	}
	sort.Slice(b.kv, func(i, j int) bool {
		return bytes.Compare(b.kv[i].key, b.kv[j].key) < 0
	})
	return b
}

// Add adds key-value pair to batch. If there is an item with the specified
// key, it is replaced. nil value means deletion.
func (b *Batch) Add(key []byte, value []byte) {
	path := ToNibbles(key)
	i := sort.Search(len(b.kv), func(i int) bool {
		return bytes.Compare(path, b.kv[i].key) <= 0
	})
	if i == len(b.kv) {
		b.kv = append(b.kv, keyValue{path, value})
	} else if bytes.Equal(b.kv[i].key, path) {
		b.kv[i].value = value
	} else {
		b.kv = append(b.kv, keyValue{})
		copy(b.kv[i+1:], b.kv[i:])
		b.kv[i].key = path
		b.kv[i].value = value
	}
}

// Len returns the number of changes in the batch.
func (b Batch) Len() int {
	return len(b.kv)
}

// PutBatch applies the batch of changes to t. It returns the number of
// successfully applied changes, the trie contains all of them even if an
// error is returned.
func (t *Trie) PutBatch(b Batch) (int, error) {
	root := t.root
	for i, kv := range b.kv {
		var (
			r   Node
			err error
		)
		if kv.value == nil {
			r, err = t.eng.deleteFromNode(root, kv.key)
		} else if len(kv.key) > MaxKeyNibbles {
			err = fmt.Errorf("%w: %d nibbles", ErrKeyTooLong, len(kv.key))
		} else if len(kv.value) > MaxValueSize {
			err = fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(kv.value))
		} else {
			r, err = t.eng.putIntoNode(root, kv.key, slice.Copy(kv.value))
		}
		if err != nil {
			t.root = root
			return i, err
		}
		root = r
	}
	t.root = root
	return len(b.kv), nil
}
