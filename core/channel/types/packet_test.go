package types_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

const (
	portID    = "mockport"
	channelID = "channel-0"
	cpPortID  = "mockcounterpartyport"
	cpChanID  = "channel-1"
)

var (
	timeoutHeight = clienttypes.NewHeight(0, 100)
	data          = []byte("testdata")
)

func TestPacketValidateBasic(t *testing.T) {
	testCases := []struct {
		packet  types.Packet
		expPass bool
		errMsg  string
	}{
		{types.NewPacket(data, 1, portID, channelID, cpPortID, cpChanID, timeoutHeight, 0), true, ""},
		{types.NewPacket(data, 0, portID, channelID, cpPortID, cpChanID, timeoutHeight, 0), false, "invalid sequence"},
		{types.NewPacket(data, 1, "p", channelID, cpPortID, cpChanID, timeoutHeight, 0), false, "invalid source port"},
		{types.NewPacket(data, 1, portID, "chan", cpPortID, cpChanID, timeoutHeight, 0), false, "invalid source channel"},
		{types.NewPacket(data, 1, portID, channelID, "p", cpChanID, timeoutHeight, 0), false, "invalid destination port"},
		{types.NewPacket(data, 1, portID, channelID, cpPortID, "chan", timeoutHeight, 0), false, "invalid destination channel"},
		{types.NewPacket(data, 1, portID, channelID, cpPortID, cpChanID, clienttypes.ZeroHeight(), 0), false, "disabled both timeout height and timestamp"},
		{types.NewPacket(data, 1, portID, channelID, cpPortID, cpChanID, clienttypes.ZeroHeight(), 1000), true, "timestamp only"},
		{types.NewPacket([]byte{}, 1, portID, channelID, cpPortID, cpChanID, timeoutHeight, 0), false, "empty data"},
	}

	for i, tc := range testCases {
		err := tc.packet.ValidateBasic()
		if tc.expPass {
			require.NoError(t, err, "Msg %d failed: %s", i, tc.errMsg)
		} else {
			require.ErrorIs(t, err, types.ErrInvalidPacket, "Invalid Msg %d passed: %s", i, tc.errMsg)
		}
	}
}

func TestPacketTimedOut(t *testing.T) {
	testCases := map[string]struct {
		timeoutHeight    clienttypes.Height
		timeoutTimestamp uint64
		height           clienttypes.Height
		timestamp        uint64
		timedOut         bool
	}{
		"height before timeout":         {timeoutHeight, 0, clienttypes.NewHeight(0, 99), 0, false},
		"height equal to timeout":       {timeoutHeight, 0, clienttypes.NewHeight(0, 100), 0, true},
		"later revision":                {timeoutHeight, 0, clienttypes.NewHeight(1, 1), 0, true},
		"timestamp before timeout":      {clienttypes.ZeroHeight(), 1000, clienttypes.NewHeight(0, 500), 999, false},
		"timestamp equal to timeout":    {clienttypes.ZeroHeight(), 1000, clienttypes.NewHeight(0, 500), 1000, false},
		"timestamp after timeout":       {clienttypes.ZeroHeight(), 1000, clienttypes.NewHeight(0, 500), 1001, true},
		"either timeout suffices":       {timeoutHeight, 1000, clienttypes.NewHeight(0, 1), 1001, true},
		"unset timeouts never time out": {clienttypes.ZeroHeight(), 0, clienttypes.NewHeight(9, 9), 1 << 62, false},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			packet := types.NewPacket(data, 1, portID, channelID, cpPortID, cpChanID, tc.timeoutHeight, tc.timeoutTimestamp)
			require.Equal(t, tc.timedOut, packet.TimedOut(tc.height, tc.timestamp))
		})
	}
}

func TestPacketCommitmentIgnoresRouting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data").([]byte)
		timestamp := rapid.Uint64().Draw(t, "timestamp").(uint64)
		seqA := host.Sequence(rapid.Uint64Range(1, 1<<32).Draw(t, "seqA").(uint64))
		seqB := host.Sequence(rapid.Uint64Range(1, 1<<32).Draw(t, "seqB").(uint64))

		a := types.NewPacket(payload, seqA, portID, channelID, cpPortID, cpChanID, timeoutHeight, timestamp)
		b := types.NewPacket(payload, seqB, "otherport", "channel-9", "otherport", "channel-8", timeoutHeight, timestamp)

		if !bytes.Equal(a.Commitment(), b.Commitment()) {
			t.Fatalf("commitment depends on routing fields")
		}
		if !bytes.Equal(a.Commitment(), commitment.CommitPacket(payload, timeoutHeight, timestamp)) {
			t.Fatalf("packet commitment differs from CommitPacket")
		}
	})
}
