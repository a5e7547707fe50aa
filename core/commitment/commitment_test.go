package commitment_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
)

func TestCommitPacket(t *testing.T) {
	actual := commitment.CommitPacket([]byte("packet data"), clienttypes.NewHeight(42, 24), 0x42)
	require.Equal(t, "a928b51f62bd540091ec451f4ef345794f059e65910816866126dc364f84cc15", hex.EncodeToString(actual))
}

func TestCommitAcknowledgement(t *testing.T) {
	actual := commitment.CommitAcknowledgement([]byte{0, 1, 2, 3})
	require.Equal(t, "054edec1d0211f624fed0cbca9d4f9400b0e491c43742af2c5b0abebf0c990d8", hex.EncodeToString(actual))
}

func TestCommitPacketDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data").([]byte)
		height := clienttypes.NewHeight(
			rapid.Uint64().Draw(t, "revision").(uint64),
			rapid.Uint64().Draw(t, "height").(uint64),
		)
		timestamp := rapid.Uint64().Draw(t, "timestamp").(uint64)

		first := commitment.CommitPacket(data, height, timestamp)
		second := commitment.CommitPacket(append([]byte{}, data...), height, timestamp)
		if hex.EncodeToString(first) != hex.EncodeToString(second) {
			t.Fatalf("commitment not deterministic")
		}

		if hex.EncodeToString(commitment.CommitPacket(data, height, timestamp+1)) == hex.EncodeToString(first) {
			t.Fatalf("timestamp change did not change the commitment")
		}
		if hex.EncodeToString(commitment.CommitPacket(append(data, 0x00), height, timestamp)) == hex.EncodeToString(first) {
			t.Fatalf("data change did not change the commitment")
		}
		if hex.EncodeToString(commitment.CommitPacket(data, height.Increment(), timestamp)) == hex.EncodeToString(first) {
			t.Fatalf("height change did not change the commitment")
		}
	})
}

func TestApplyPrefix(t *testing.T) {
	path, err := commitment.ApplyPrefix(commitment.Prefix("ibc"), "connections/connection-0")
	require.NoError(t, err)
	require.Equal(t, "/ibc/connections%2Fconnection-0", path)

	_, err = commitment.ApplyPrefix(nil, "connections/connection-0")
	require.ErrorIs(t, err, commitment.ErrEmptyPrefix)
}
