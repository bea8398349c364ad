package util_test

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/dot-go/internal/testserdes"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const emptyRoot = "03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314"

func TestUint256DecodeString(t *testing.T) {
	val, err := util.Uint256DecodeStringBE(emptyRoot)
	require.NoError(t, err)
	require.Equal(t, emptyRoot, val.StringBE())
	require.Equal(t, emptyRoot, val.String())

	prefixed, err := util.Uint256DecodeStringBE("0x" + emptyRoot)
	require.NoError(t, err)
	require.Equal(t, val, prefixed)

	_, err = util.Uint256DecodeStringBE(emptyRoot[1:])
	require.Error(t, err)

	_, err = util.Uint256DecodeStringBE(emptyRoot[2:] + "zz")
	require.Error(t, err)
}

func TestUint256DecodeBytes(t *testing.T) {
	b, err := hex.DecodeString(emptyRoot)
	require.NoError(t, err)

	val, err := util.Uint256DecodeBytesBE(b)
	require.NoError(t, err)
	require.Equal(t, b, val.BytesBE())
	require.Equal(t, byte(0x03), val[0])

	_, err = util.Uint256DecodeBytesBE(b[1:])
	require.Error(t, err)
}

func TestUint256Equals(t *testing.T) {
	a, err := util.Uint256DecodeStringBE(emptyRoot)
	require.NoError(t, err)
	b := a
	b[31]++
	require.True(t, a.Equals(a))
	require.False(t, a.Equals(b))
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
}

func TestUint256MarshalJSON(t *testing.T) {
	expected, err := util.Uint256DecodeStringBE(emptyRoot)
	require.NoError(t, err)

	s, err := json.Marshal(expected)
	require.NoError(t, err)
	require.Equal(t, `"0x`+emptyRoot+`"`, string(s))

	testserdes.MarshalUnmarshalJSON(t, &expected, new(util.Uint256))

	var u util.Uint256
	require.Error(t, json.Unmarshal([]byte(`123`), &u))
}

func TestUint256MarshalYAML(t *testing.T) {
	expected, err := util.Uint256DecodeStringBE(emptyRoot)
	require.NoError(t, err)

	s, err := yaml.Marshal(expected)
	require.NoError(t, err)
	require.Contains(t, string(s), "0x"+emptyRoot)

	testserdes.MarshalUnmarshalYAML(t, &expected, new(util.Uint256))

	var u util.Uint256
	require.Error(t, yaml.Unmarshal([]byte(`[1, 2]`), &u))
}

func TestUint256Serializable(t *testing.T) {
	a, err := util.Uint256DecodeStringBE(emptyRoot)
	require.NoError(t, err)
	testserdes.EncodeDecodeBinary(t, &a, new(util.Uint256))
}
