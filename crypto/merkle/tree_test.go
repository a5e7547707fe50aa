package merkle

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const emptyHashHex = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestHashFromByteSlices(t *testing.T) {
	testCases := map[string]struct {
		slices  [][]byte
		expHash string
	}{
		"nil":          {nil, emptyHashHex},
		"empty":        {[][]byte{}, emptyHashHex},
		"single":       {[][]byte{{1, 2, 3}}, "054edec1d0211f624fed0cbca9d4f9400b0e491c43742af2c5b0abebf0c990d8"},
		"single blank": {[][]byte{{}}, "6e340b9cffb37a989ca544e6bb780a2c78901d3fb33738768511a30617afa01d"},
		"two":          {[][]byte{{1, 2, 3}, {4, 5, 6}}, "82e6cfce00453804379b53962939eaa7906b39904be0813fcadd31b100773c4b"},
		"five": {
			[][]byte{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}},
			"f326493eceab4f2d9ffbc78c59432a0a005d6ea98392045c74df5d14a113be18",
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			hash := HashFromByteSlices(tc.slices)
			require.Equal(t, tc.expHash, hex.EncodeToString(hash))
			require.Equal(t, hash, HashFromByteSlicesIterative(tc.slices))
		})
	}
}

func TestProofsFromByteSlices(t *testing.T) {
	root, proofs := ProofsFromByteSlices(nil)
	require.Equal(t, emptyHashHex, hex.EncodeToString(root))
	require.Empty(t, proofs)

	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 32), 1, 64).Draw(t, "items").([][]byte)
		root, proofs := ProofsFromByteSlices(items)
		require.Equal(t, HashFromByteSlices(items), root)

		i := rapid.IntRange(0, len(items)-1).Draw(t, "index").(int)
		proof := proofs[i]
		require.EqualValues(t, i, proof.Index)
		require.EqualValues(t, len(items), proof.Total)
		require.NoError(t, proof.ValidateBasic())
		require.NoError(t, proof.Verify(root, items[i]))

		flipped := append([]byte{}, items[i]...)
		flipped[0] ^= 0x01
		require.Error(t, proof.Verify(root, flipped))

		badRoot := append([]byte{}, root...)
		badRoot[0] ^= 0x01
		require.Error(t, proof.Verify(badRoot, items[i]))

		aunts := proof.Aunts
		proof.Aunts = append(append([][]byte{}, aunts...), root)
		require.Error(t, proof.Verify(root, items[i]), "trail too long")
		if len(aunts) > 0 {
			proof.Aunts = aunts[:len(aunts)-1]
			require.Error(t, proof.Verify(root, items[i]), "trail too short")
		}
		proof.Aunts = aunts
	})
}

func TestGetSplitPoint(t *testing.T) {
	for length, want := range map[int64]int64{
		1: 0, 2: 1, 3: 2, 4: 2, 5: 4, 10: 8, 20: 16, 100: 64, 255: 128, 256: 128, 257: 256,
	} {
		require.Equal(t, want, getSplitPoint(length), "length %d", length)
	}
}
