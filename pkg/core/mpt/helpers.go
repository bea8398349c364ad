package mpt

import "github.com/nspcc-dev/dot-go/pkg/util/slice"

// MaxKeyNibbles is the maximum length of a key (and hence of any partial
// key) in nibbles, it's limited by the node header encoding.
const MaxKeyNibbles = 0xffff

// ToNibbles splits key into nibbles, the most significant one goes first.
func ToNibbles(key []byte) []byte {
	result := make([]byte, len(key)*2)
	for i, b := range key {
		result[i*2] = b >> 4
		result[i*2+1] = b & 0x0F
	}
	return result
}

// FromNibbles packs nibbles back into bytes. For an odd number of nibbles
// the first one takes the whole first byte, this is the layout used for
// partial keys by the node codec.
func FromNibbles(nibbles []byte) []byte {
	odd := len(nibbles) % 2
	result := make([]byte, len(nibbles)/2+odd)
	if odd == 1 {
		result[0] = nibbles[0]
	}
	for i, j := odd, odd; i < len(nibbles); i, j = i+2, j+1 {
		result[j] = nibbles[i]<<4 | nibbles[i+1]
	}
	return result
}

// lcp returns the length of the longest common prefix of a and b.
func lcp(a, b []byte) int {
	if len(a) > len(b) {
		return lcp(b, a)
	}

	var i int
	for i = 0; i < len(a); i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// concatNibbles returns parent ++ index ++ child as a newly allocated slice.
func concatNibbles(parent []byte, index byte, child []byte) []byte {
	return slice.Concat(parent, []byte{index}, child)
}
