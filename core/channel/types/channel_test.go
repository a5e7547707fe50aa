package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/host"
)

var connHops = []host.ConnectionID{"connection-0"}

func TestChannelValidateBasic(t *testing.T) {
	counterparty := types.NewCounterparty(cpPortID, cpChanID)

	testCases := []struct {
		name    string
		channel types.Channel
		expPass bool
	}{
		{"valid channel", types.NewChannel(types.TRYOPEN, types.ORDERED, counterparty, connHops, "1.0"), true},
		{"valid without counterparty channel", types.NewChannel(types.INIT, types.UNORDERED, types.NewCounterparty(cpPortID, ""), connHops, ""), true},
		{"invalid state", types.NewChannel(types.UNINITIALIZED, types.ORDERED, counterparty, connHops, "1.0"), false},
		{"invalid order", types.NewChannel(types.TRYOPEN, types.NONE, counterparty, connHops, "1.0"), false},
		{"no connection hops", types.NewChannel(types.TRYOPEN, types.ORDERED, counterparty, nil, "1.0"), false},
		{"two connection hops", types.NewChannel(types.TRYOPEN, types.ORDERED, counterparty, []host.ConnectionID{"connection-0", "connection-1"}, "1.0"), false},
		{"invalid connection hop", types.NewChannel(types.TRYOPEN, types.ORDERED, counterparty, []host.ConnectionID{"conn"}, "1.0"), false},
		{"invalid counterparty port", types.NewChannel(types.TRYOPEN, types.ORDERED, types.NewCounterparty("p", cpChanID), connHops, "1.0"), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.channel.ValidateBasic()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}

	var hopsErr types.ErrInvalidConnectionHops
	err := types.NewChannel(types.OPEN, types.ORDERED, counterparty, nil, "").ValidateBasic()
	require.True(t, errors.As(err, &hopsErr))
	require.Equal(t, types.ErrInvalidConnectionHops{Expected: 1, Actual: 0}, hopsErr)
}

func TestOrderStringMatchesConnectionFeatures(t *testing.T) {
	require.Equal(t, "ORDER_ORDERED", types.ORDERED.String())
	require.Equal(t, "ORDER_UNORDERED", types.UNORDERED.String())
}

func TestWrapErrors(t *testing.T) {
	require.NoError(t, types.WrapChannelError(portID, channelID, nil))
	require.NoError(t, types.WrapPacketError(portID, channelID, 1, nil))

	packetErr := types.WrapPacketError(portID, channelID, 3, types.ErrAcknowledgementExists)
	require.Equal(t, "packet 3 on channel mockport/channel-0: acknowledgement for packet already exists", packetErr.Error())

	// a packet error is not rewrapped as a channel error
	require.Equal(t, packetErr, types.WrapChannelError(portID, channelID, packetErr))

	var pe types.PacketError
	require.True(t, errors.As(packetErr, &pe))
	require.Equal(t, host.Sequence(3), pe.Sequence)
	require.ErrorIs(t, packetErr, types.ErrAcknowledgementExists)

	timeoutErr := types.ErrTimeoutTimestampElapsed{Timestamp: 11, TimeoutTimestamp: 10}
	require.ErrorIs(t, timeoutErr, types.ErrPacketTimeout)
}
