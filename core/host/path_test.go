package host_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/core/host"
)

func TestPaths(t *testing.T) {
	const (
		port    = host.PortID("transfer")
		channel = host.ChannelID("channel-0")
	)

	testCases := map[string]struct {
		path     string
		expected string
	}{
		"client state":      {host.ClientStatePath("07-tendermint-0"), "clients/07-tendermint-0/clientState"},
		"consensus state":   {host.ConsensusStatePath("07-tendermint-0", 1, 5), "clients/07-tendermint-0/consensusStates/1-5"},
		"processed time":    {host.ProcessedTimePath("07-tendermint-0", 1, 5), "clients/07-tendermint-0/consensusStates/1-5/processedTime"},
		"processed height":  {host.ProcessedHeightPath("07-tendermint-0", 1, 5), "clients/07-tendermint-0/consensusStates/1-5/processedHeight"},
		"client conns":      {host.ClientConnectionsPath("07-tendermint-0"), "clients/07-tendermint-0/connections"},
		"connection":        {host.ConnectionPath("connection-0"), "connections/connection-0"},
		"port":              {host.PortPath(port), "ports/transfer"},
		"channel end":       {host.ChannelPath(port, channel), "channelEnds/ports/transfer/channels/channel-0"},
		"next seq send":     {host.NextSequenceSendPath(port, channel), "nextSequenceSend/ports/transfer/channels/channel-0"},
		"next seq recv":     {host.NextSequenceRecvPath(port, channel), "nextSequenceRecv/ports/transfer/channels/channel-0"},
		"next seq ack":      {host.NextSequenceAckPath(port, channel), "nextSequenceAck/ports/transfer/channels/channel-0"},
		"commitment":        {host.PacketCommitmentPath(port, channel, 3), "commitments/ports/transfer/channels/channel-0/sequences/3"},
		"ack":               {host.PacketAcknowledgementPath(port, channel, 3), "acks/ports/transfer/channels/channel-0/sequences/3"},
		"receipt":           {host.PacketReceiptPath(port, channel, 3), "receipts/ports/transfer/channels/channel-0/sequences/3"},
		"commitment prefix": {host.PacketCommitmentPrefixPath(port, channel), "commitments/ports/transfer/channels/channel-0/sequences/"},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.path)
		})
	}
}

func TestParsePacketSequence(t *testing.T) {
	seq, err := host.ParsePacketSequence(host.PacketReceiptPath("transfer", "channel-1", 99))
	require.NoError(t, err)
	require.Equal(t, host.Sequence(99), seq)

	_, err = host.ParsePacketSequence(host.ConnectionPath("connection-0"))
	require.ErrorIs(t, err, host.ErrInvalidPath)
}
