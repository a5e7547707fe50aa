package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	clienttypes "github.com/tendermint/ibc/core/client/types"
)

func TestCompareHeights(t *testing.T) {
	testCases := map[string]struct {
		height1     clienttypes.Height
		height2     clienttypes.Height
		compareSign int
	}{
		"revision number 1 is lesser":  {clienttypes.NewHeight(1, 3), clienttypes.NewHeight(3, 4), -1},
		"revision number 1 is greater": {clienttypes.NewHeight(7, 5), clienttypes.NewHeight(4, 5), 1},
		"revision height 1 is lesser":  {clienttypes.NewHeight(3, 4), clienttypes.NewHeight(3, 9), -1},
		"revision height 1 is greater": {clienttypes.NewHeight(3, 8), clienttypes.NewHeight(3, 3), 1},
		"revision number is MaxUint64": {clienttypes.NewHeight(^uint64(0), 1), clienttypes.NewHeight(0, 10000), 1},
		"revision height is MaxUint64": {clienttypes.NewHeight(3, ^uint64(0)), clienttypes.NewHeight(3, 10), 1},
		"height is equal":              {clienttypes.NewHeight(4, 4), clienttypes.NewHeight(4, 4), 0},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.compareSign, tc.height1.Compare(tc.height2))
			require.Equal(t, tc.compareSign == -1, tc.height1.LT(tc.height2))
			require.Equal(t, tc.compareSign != 1, tc.height1.LTE(tc.height2))
			require.Equal(t, tc.compareSign == 1, tc.height1.GT(tc.height2))
			require.Equal(t, tc.compareSign != -1, tc.height1.GTE(tc.height2))
			require.Equal(t, tc.compareSign == 0, tc.height1.EQ(tc.height2))
		})
	}
}

func TestDecrementAndIncrement(t *testing.T) {
	height := clienttypes.NewHeight(3, 1)

	decr, ok := height.Decrement()
	require.True(t, ok)
	require.Equal(t, clienttypes.NewHeight(3, 0), decr)

	_, ok = decr.Decrement()
	require.False(t, ok)

	require.Equal(t, clienttypes.NewHeight(3, 2), height.Increment())
	require.True(t, clienttypes.ZeroHeight().IsZero())
	require.Equal(t, clienttypes.ZeroHeight(), clienttypes.HeightFromPtr(nil))
}

func TestParseHeight(t *testing.T) {
	testCases := map[string]struct {
		input    string
		expected clienttypes.Height
		expPass  bool
	}{
		"valid":             {"1-5", clienttypes.NewHeight(1, 5), true},
		"zero":              {"0-0", clienttypes.ZeroHeight(), true},
		"missing separator": {"15", clienttypes.Height{}, false},
		"bad revision":      {"a-5", clienttypes.Height{}, false},
		"bad height":        {"1-b", clienttypes.Height{}, false},
		"too many parts":    {"1-2-3", clienttypes.Height{}, false},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			height, err := clienttypes.ParseHeight(tc.input)
			if !tc.expPass {
				require.ErrorIs(t, err, clienttypes.ErrInvalidHeight)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, height)
			require.Equal(t, tc.input, height.String())
		})
	}
}

func TestParseChainID(t *testing.T) {
	testCases := map[string]uint64{
		"gaia-4":       4,
		"chain-a-1":    1,
		"ibc-0":        0,
		"gaia":         0,
		"gaia-":        0,
		"-3":           0,
		"gaia-x":       0,
		"osmosis-1024": 1024,
	}
	for chainID, revision := range testCases {
		require.Equal(t, revision, clienttypes.ParseChainID(chainID), chainID)
	}
}
