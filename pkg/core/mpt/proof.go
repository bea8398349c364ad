package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/util"
)

// ErrInvalidProof is returned when proof doesn't contain some node required
// to check the key.
var ErrInvalidProof = errors.New("invalid proof")

// GetProof returns a proof for the key in t. See GetProof.
func (t *Trie) GetProof(key []byte, c *Codec) ([][]byte, error) {
	return getProof(t.eng, t.root, key, c)
}

// GetProof returns a proof that key belongs (or doesn't belong) to the trie
// with the specified root. Proof consists of encoded nodes on the path from
// the root to the key which are referenced by hash, plus hashed values of
// these nodes.
func GetProof(root Node, key []byte, r ChildResolver, c *Codec) ([][]byte, error) {
	return getProof(newEngine(r), root, key, c)
}

func getProof(e engine, root Node, key []byte, c *Codec) ([][]byte, error) {
	var (
		path  = ToNibbles(key)
		curr  = root
		nodes = []Node{root}
		// Nodes taken from the resolver rather than from their parent.
		loaded = map[int]bool{0: true}
	)
	for {
		b, ok := curr.(*BranchNode)
		if !ok || !bytes.HasPrefix(path, b.key) || len(path) == len(b.key) {
			break
		}
		path = path[len(b.key):]
		i := path[0]
		if b.Children[i] == nil {
			break
		}
		_, isRef := b.Children[i].(*HashNode)
		next, err := resolveChild(e.r, b, i)
		if err != nil {
			return nil, err
		}
		if isRef {
			loaded[len(nodes)] = true
		}
		nodes = append(nodes, next)
		curr = next
		path = path[1:]
	}

	// Every in-memory subtree is encoded once, encodings of the path nodes
	// are picked up on the way.
	encs := make(map[Node][]byte, len(nodes))
	for _, n := range nodes {
		encs[n] = nil
	}
	v := &Visitor{keep: encs}
	for i := len(nodes) - 1; i >= 0; i-- {
		if !loaded[i] {
			continue
		}
		enc, err := c.EncodeNode(nodes[i], v)
		if err != nil {
			return nil, err
		}
		encs[nodes[i]] = enc
	}

	proof := make([][]byte, 0, len(nodes))
	for _, n := range nodes {
		enc := encs[n]
		if n == root || len(enc) >= InlineThreshold {
			proof = append(proof, enc)
		}
		if val := nodeValue(n); val != nil && c.IsHashedValue(val) {
			proof = append(proof, val)
		}
	}
	return proof, nil
}

// VerifyProof checks the proof against the trie root hash and returns the
// value stored for the key. ErrNotFound is returned if the proof shows that
// there is no such key.
func VerifyProof(root util.Uint256, key []byte, proof [][]byte, c *Codec) ([]byte, error) {
	db := make(map[util.Uint256][]byte, len(proof))
	for _, p := range proof {
		db[c.Hasher(p)] = p
	}
	get := func(h util.Uint256) ([]byte, error) {
		data, ok := db[h]
		if !ok {
			return nil, fmt.Errorf("%w: %s is missing", ErrInvalidProof, h.StringBE())
		}
		return data, nil
	}

	data, err := get(root)
	if err != nil {
		return nil, err
	}
	rootNode, err := c.DecodeNode(data, get)
	if err != nil {
		return nil, err
	}
	return Get(rootNode, key, c.Resolver(get, get))
}
