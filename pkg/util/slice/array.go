/*
Package slice contains byte slice helpers.
*/
package slice

// Copy copies the byte slice into new slice. A nil slice stays nil, an
// empty one produces an empty non-nil copy.
func Copy(b []byte) []byte {
	if b == nil {
		return nil
	}
	d := make([]byte, len(b))
	copy(d, b)
	return d
}

// Concat returns a freshly allocated slice containing all of the parts.
// None of the parts is ever aliased by the result.
func Concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	res := make([]byte, 0, n)
	for _, p := range parts {
		res = append(res, p...)
	}
	return res
}
