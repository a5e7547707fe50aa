package merkle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestKeyPathRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 0, 20), 1, 10).Draw(t, "keys").([][]byte)

		var path KeyPath
		for _, key := range keys {
			enc := keyEncoding(rapid.IntRange(0, int(KeyEncodingMax)-1).Draw(t, "enc").(int))
			if bytes.HasPrefix(key, []byte("x:")) {
				// url encoding keeps the colon, which reads back as hex
				enc = KeyEncodingHex
			}
			path = path.AppendKey(key, enc)
		}

		res, err := KeyPathToKeys(path.String())
		require.NoError(t, err)
		require.Len(t, res, len(keys))
		for i, key := range keys {
			require.Equal(t, string(key), string(res[i]))
		}
	})
}

func TestKeyPathStorePath(t *testing.T) {
	path := KeyPath{}.
		AppendKey([]byte("ibc"), KeyEncodingURL).
		AppendKey([]byte("connections/connection-0"), KeyEncodingURL)
	require.Equal(t, "/ibc/connections%2Fconnection-0", path.String())

	keys, err := KeyPathToKeys(path.String())
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("ibc"), []byte("connections/connection-0")}, keys)

	_, err = KeyPathToKeys("ibc")
	require.Error(t, err)

	_, err = KeyPathToKeys("/x:zz")
	require.Error(t, err)
}
