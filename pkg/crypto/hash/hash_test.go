package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlake2b256(t *testing.T) {
	res := Blake2b256([]byte{0})
	require.Equal(t, "03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314", hex.EncodeToString(res.BytesBE()))

	res = Blake2b256(nil)
	require.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", res.StringBE())
}

func TestKeccak256(t *testing.T) {
	res := Keccak256(nil)
	require.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", res.StringBE())

	res = Keccak256([]byte{0})
	require.Equal(t, "bc36789e7a1e281436464229828f817d6612f7b477d66591ff96a9e064bcc98a", res.StringBE())
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", Blake2b256Name} {
		h, err := ByName(name)
		require.NoError(t, err)
		require.Equal(t, Blake2b256([]byte("x")), h([]byte("x")))
	}
	h, err := ByName(Keccak256Name)
	require.NoError(t, err)
	require.Equal(t, Keccak256([]byte("x")), h([]byte("x")))

	_, err = ByName("sha256")
	require.Error(t, err)
}
