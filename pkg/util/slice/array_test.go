package slice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	require.Nil(t, Copy(nil))

	empty := Copy([]byte{})
	require.NotNil(t, empty)
	require.Len(t, empty, 0)

	orig := []byte{1, 2, 3}
	cp := Copy(orig)
	require.Equal(t, orig, cp)
	cp[0] = 0xff
	require.Equal(t, byte(1), orig[0])
}

func TestConcat(t *testing.T) {
	a := make([]byte, 2, 10)
	a[0], a[1] = 1, 2
	b := []byte{3}

	res := Concat(a, b, nil, []byte{4, 5})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, res)

	// a has spare capacity, the result must not share it
	res[2] = 0xff
	require.Equal(t, byte(0), a[:3][2])

	require.Equal(t, []byte{}, Concat())
}
