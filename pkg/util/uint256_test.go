package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256DecodeString(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	val, err := Uint256DecodeString(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, val.String())

	val2, err := Uint256DecodeString("0x" + hexStr)
	require.NoError(t, err)
	assert.Equal(t, val, val2)

	_, err = Uint256DecodeString(hexStr[1:])
	assert.Error(t, err)

	_, err = Uint256DecodeString(hexStr[:62] + "zz")
	assert.Error(t, err)
}

func TestUint256DecodeBytes(t *testing.T) {
	b := make([]byte, Uint256Size)
	for i := range b {
		b[i] = byte(i)
	}
	val, err := Uint256DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, b, val.Bytes())

	_, err = Uint256DecodeBytes(b[1:])
	assert.Error(t, err)
}

func TestUint256Equals(t *testing.T) {
	a, err := Uint256DecodeString("f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d")
	require.NoError(t, err)
	b, err := Uint256DecodeString("e287c5b29a1b66092be6803c59c765308ac20287e1b4977fd399da5fc8f66ab5")
	require.NoError(t, err)

	assert.False(t, a.Equals(b))
	assert.True(t, a.Equals(a))
	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.False(t, a.IsZero())
	assert.True(t, Uint256{}.IsZero())
}

func TestUint256_JSON(t *testing.T) {
	expected, err := Uint256DecodeString("f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d")
	require.NoError(t, err)

	data, err := json.Marshal(expected)
	require.NoError(t, err)
	require.Equal(t, `"0xf037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"`, string(data))

	var actual Uint256
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, expected, actual)

	require.Error(t, json.Unmarshal([]byte(`"0x01"`), &actual))
	require.Error(t, json.Unmarshal([]byte(`123`), &actual))
}
