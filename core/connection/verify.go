package connection

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ReceiptValue is the value stored under a packet receipt path.
var ReceiptValue = []byte{1}

// VerifyConnectionState verifies a proof of the connection state of the
// specified connection end stored on the target machine.
func VerifyConnectionState(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, connectionID host.ConnectionID, expected connectiontypes.ConnectionEnd,
) error {
	bz, err := proto.Marshal(&expected)
	if err != nil {
		return err
	}
	return verify(ctx, connection, "connection state", height, proof, host.ConnectionPath(connectionID), bz)
}

// VerifyClientState verifies a proof of the client state of the running
// machine stored on the target machine.
func VerifyClientState(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, clientState exported.ClientState,
) error {
	bz, err := clienttypes.MarshalAny(clientState)
	if err != nil {
		return err
	}
	path := host.ClientStatePath(connection.GetCounterparty().ClientID)
	return verify(ctx, connection, "client state", height, proof, path, bz)
}

// VerifyClientConsensusState verifies a proof of the consensus state of the
// running machine stored on the target machine.
func VerifyClientConsensusState(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	consensusHeight clienttypes.Height, proof commitment.Proof, consensusState exported.ConsensusState,
) error {
	bz, err := clienttypes.MarshalAny(consensusState)
	if err != nil {
		return err
	}
	path := host.ConsensusStatePath(connection.GetCounterparty().ClientID, consensusHeight.RevisionNumber, consensusHeight.RevisionHeight)
	return verify(ctx, connection, "consensus state", height, proof, path, bz)
}

// VerifyChannelState verifies a proof of the channel state of the specified
// channel end, under the specified port, stored on the target machine.
func VerifyChannelState(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, portID host.PortID, channelID host.ChannelID, expected channeltypes.Channel,
) error {
	bz, err := proto.Marshal(&expected)
	if err != nil {
		return err
	}
	return verify(ctx, connection, "channel state", height, proof, host.ChannelPath(portID, channelID), bz)
}

// VerifyPacketCommitment verifies a proof of an outgoing packet commitment
// at the specified port, specified channel, and specified sequence.
func VerifyPacketCommitment(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, portID host.PortID, channelID host.ChannelID, sequence host.Sequence, commitmentBytes []byte,
) error {
	if err := VerifyDelayPassed(ctx, connection, height); err != nil {
		return err
	}
	path := host.PacketCommitmentPath(portID, channelID, sequence)
	return verify(ctx, connection, "packet commitment", height, proof, path, commitmentBytes)
}

// VerifyPacketAcknowledgement verifies a proof of an incoming packet
// acknowledgement at the specified port, specified channel, and specified
// sequence.
func VerifyPacketAcknowledgement(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, portID host.PortID, channelID host.ChannelID, sequence host.Sequence, acknowledgement []byte,
) error {
	if err := VerifyDelayPassed(ctx, connection, height); err != nil {
		return err
	}
	path := host.PacketAcknowledgementPath(portID, channelID, sequence)
	return verify(ctx, connection, "packet acknowledgement", height, proof, path, commitment.CommitAcknowledgement(acknowledgement))
}

// VerifyPacketReceiptAbsence verifies a proof of the absence of an incoming
// packet receipt at the specified port, specified channel, and specified
// sequence.
func VerifyPacketReceiptAbsence(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, portID host.PortID, channelID host.ChannelID, sequence host.Sequence,
) error {
	if err := VerifyDelayPassed(ctx, connection, height); err != nil {
		return err
	}
	clientState, consensusState, err := provingClient(ctx, connection, height)
	if err != nil {
		return err
	}
	path := host.PacketReceiptPath(portID, channelID, sequence)
	if err := clientState.VerifyNonMembership(connection.GetCounterparty().Prefix, proof, consensusState.Root(), path); err != nil {
		return connectiontypes.ErrVerificationFailed{
			What: "packet receipt absence",
			Err:  clienttypes.WrapClientError(connection.ClientID, fmt.Errorf("%w: %v", clienttypes.ErrFailedNonMembershipVerify, err)),
		}
	}
	return nil
}

// VerifyNextSequenceRecv verifies a proof of the next sequence number to be
// received of the specified channel at the specified port.
func VerifyNextSequenceRecv(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
	proof commitment.Proof, portID host.PortID, channelID host.ChannelID, nextSequenceRecv host.Sequence,
) error {
	if err := VerifyDelayPassed(ctx, connection, height); err != nil {
		return err
	}
	path := host.NextSequenceRecvPath(portID, channelID)
	return verify(ctx, connection, "next sequence recv", height, proof, path, SequenceBytes(nextSequenceRecv))
}

// SequenceBytes is the encoding of a sequence counter in the store.
func SequenceBytes(sequence host.Sequence) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(sequence))
	return bz
}

// VerifyDelayPassed checks that the connection delay has elapsed on the host
// since the consensus state at proofHeight was stored, both in time and in
// blocks.
func VerifyDelayPassed(ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, proofHeight clienttypes.Height) error {
	processedTime, err := ctx.ClientUpdateTime(connection.ClientID, proofHeight)
	if err != nil {
		return clienttypes.WrapClientError(connection.ClientID, err)
	}
	processedHeight, err := ctx.ClientUpdateHeight(connection.ClientID, proofHeight)
	if err != nil {
		return clienttypes.WrapClientError(connection.ClientID, err)
	}

	timeDelay := connection.GetDelayPeriod()
	blockDelay := BlockDelay(timeDelay, ctx.MaxExpectedTimePerBlock())
	hostTime, hostHeight := ctx.HostTimestamp(), ctx.HostHeight()

	earliestTime := processedTime + uint64(timeDelay)
	earliestHeight := clienttypes.NewHeight(processedHeight.RevisionNumber, processedHeight.RevisionHeight+blockDelay)
	if hostTime < earliestTime || hostHeight.LT(earliestHeight) {
		return connectiontypes.ErrDelayPeriodNotPassed{
			ProcessedTime:   time.Unix(0, int64(processedTime)),
			HostTime:        time.Unix(0, int64(hostTime)),
			ProcessedHeight: processedHeight,
			HostHeight:      hostHeight,
			TimeDelay:       timeDelay,
			BlockDelay:      blockDelay,
		}
	}
	return nil
}

// BlockDelay is the number of blocks the host produces, at most, during
// timeDelay. It is zero when the host does not bound its block time.
func BlockDelay(timeDelay, maxExpectedTimePerBlock time.Duration) uint64 {
	if maxExpectedTimePerBlock <= 0 || timeDelay <= 0 {
		return 0
	}
	return uint64((timeDelay + maxExpectedTimePerBlock - 1) / maxExpectedTimePerBlock)
}

func provingClient(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, height clienttypes.Height,
) (exported.ClientState, exported.ConsensusState, error) {
	clientState, err := client.VerifyActive(ctx, connection.ClientID)
	if err != nil {
		return nil, nil, clienttypes.WrapClientError(connection.ClientID, err)
	}
	if err := clientState.ValidateProofHeight(height); err != nil {
		return nil, nil, clienttypes.WrapClientError(connection.ClientID, err)
	}
	consensusState, err := ctx.ConsensusState(connection.ClientID, height)
	if err != nil {
		return nil, nil, clienttypes.WrapClientError(connection.ClientID, err)
	}
	return clientState, consensusState, nil
}

func verify(
	ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, what string,
	height clienttypes.Height, proof commitment.Proof, path string, value []byte,
) error {
	clientState, consensusState, err := provingClient(ctx, connection, height)
	if err != nil {
		return err
	}
	if err := clientState.VerifyMembership(connection.GetCounterparty().Prefix, proof, consensusState.Root(), path, value); err != nil {
		return connectiontypes.ErrVerificationFailed{
			What: what,
			Err:  clienttypes.WrapClientError(connection.ClientID, fmt.Errorf("%w: %v", clienttypes.ErrFailedMembershipVerification, err)),
		}
	}
	return nil
}
