package channel

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/connection"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// SendPacket validates and commits an outgoing packet. It is called by
// applications through the host.
func SendPacket(ctx exported.ExecutionContext, packet channeltypes.Packet) error {
	if err := ValidateSendPacket(ctx, packet); err != nil {
		return err
	}
	return ExecuteSendPacket(ctx, packet)
}

// ValidateSendPacket checks the packet can be sent on its source channel:
// the channel is not closed, the packet is the next one and its timeout has
// not already passed on the counterparty as tracked by the client.
func ValidateSendPacket(ctx exported.ValidationContext, packet channeltypes.Packet) error {
	wrap := func(err error) error {
		return channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}
	if err := packet.ValidateBasic(); err != nil {
		return wrap(err)
	}

	channel, err := ctx.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	if channel.IsClosed() {
		return wrap(channeltypes.ErrChannelClosed{PortID: packet.SourcePort, ChannelID: packet.SourceChannel})
	}
	if err := verifyCounterparty(channel, packet.DestinationPort, packet.DestinationChannel); err != nil {
		return wrap(err)
	}

	connectionID := channel.ConnectionID()
	conn, err := ctx.ConnectionEnd(connectionID)
	if err != nil {
		return wrap(connectiontypes.WrapConnectionError(connectionID, err))
	}
	clientState, err := client.VerifyActive(ctx, conn.ClientID)
	if err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}

	latestHeight := clientState.LatestHeight()
	if packet.TimeoutHeightElapsed(latestHeight) {
		return wrap(channeltypes.ErrTimeoutHeightElapsed{Height: latestHeight, TimeoutHeight: packet.GetTimeoutHeight()})
	}
	consensusState, err := ctx.ConsensusState(conn.ClientID, latestHeight)
	if err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}
	if latestTimestamp := consensusState.Timestamp(); packet.TimeoutTimestampElapsed(latestTimestamp) {
		return wrap(channeltypes.ErrTimeoutTimestampElapsed{Timestamp: latestTimestamp, TimeoutTimestamp: packet.TimeoutTimestamp})
	}

	nextSequenceSend, err := ctx.NextSequenceSend(packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	if packet.Sequence != nextSequenceSend {
		return wrap(channeltypes.ErrInvalidPacketSequence{Expected: nextSequenceSend, Actual: packet.Sequence})
	}
	return nil
}

// ExecuteSendPacket stores the packet commitment and advances the send
// sequence.
func ExecuteSendPacket(ctx exported.ExecutionContext, packet channeltypes.Packet) error {
	wrap := func(err error) error {
		return channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}
	channel, err := ctx.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	if err := ctx.StoreNextSequenceSend(packet.SourcePort, packet.SourceChannel, packet.Sequence.Increment()); err != nil {
		return wrap(err)
	}
	if err := ctx.StorePacketCommitment(packet.SourcePort, packet.SourceChannel, packet.Sequence, packet.Commitment()); err != nil {
		return wrap(err)
	}

	ctx.EmitEvent(exported.NewMessageEvent(channeltypes.AttributeValueCategory))
	ctx.EmitEvent(packetEvent(channeltypes.EventTypeSendPacket, packet, channel))
	ctx.LogMessage("packet sent", "sequence", packet.Sequence, "src_port", packet.SourcePort,
		"src_channel", packet.SourceChannel, "dst_port", packet.DestinationPort, "dst_channel", packet.DestinationChannel)
	return nil
}

// ValidateRecvPacket checks a received packet. A packet that was already
// received yields NOOP before any proof is looked at.
func ValidateRecvPacket(
	ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgRecvPacket,
) (channeltypes.ResponseResultType, error) {
	packet := *msg.Packet
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.DestinationPort, packet.DestinationChannel, packet.Sequence, err)
	}

	channel, err := openChannel(ctx, packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return wrap(err)
	}
	if err := verifyCounterparty(channel, packet.SourcePort, packet.SourceChannel); err != nil {
		return wrap(err)
	}
	conn, err := openConnection(ctx, channel)
	if err != nil {
		return wrap(err)
	}

	res, err := recvReplayGuard(ctx, channel, packet)
	if err != nil {
		return wrap(err)
	}
	if res == channeltypes.NOOP {
		return channeltypes.NOOP, nil
	}

	if hostHeight := ctx.HostHeight(); packet.TimeoutHeightElapsed(hostHeight) {
		return wrap(channeltypes.ErrTimeoutHeightElapsed{Height: hostHeight, TimeoutHeight: packet.GetTimeoutHeight()})
	}
	if hostTimestamp := ctx.HostTimestamp(); packet.TimeoutTimestampElapsed(hostTimestamp) {
		return wrap(channeltypes.ErrTimeoutTimestampElapsed{Timestamp: hostTimestamp, TimeoutTimestamp: packet.TimeoutTimestamp})
	}

	if err := connection.VerifyPacketCommitment(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofCommitment,
		packet.SourcePort, packet.SourceChannel, packet.Sequence, packet.Commitment()); err != nil {
		return wrap(err)
	}

	ack, err := ctx.PacketAcknowledgement(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	if err != nil {
		return wrap(err)
	}
	if ack != nil {
		return wrap(channeltypes.ErrAcknowledgementExists)
	}

	if _, err := route(router, packet.DestinationPort); err != nil {
		return wrap(err)
	}
	return channeltypes.SUCCESS, nil
}

// ExecuteRecvPacket hands the packet to the module, records its receipt and
// writes the acknowledgement the module returned. It yields NOOP without
// side effects for a packet that was already received.
func ExecuteRecvPacket(
	ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgRecvPacket,
) (channeltypes.ResponseResultType, error) {
	packet := *msg.Packet
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.DestinationPort, packet.DestinationChannel, packet.Sequence, err)
	}

	channel, err := ctx.ChannelEnd(packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return wrap(err)
	}
	res, err := recvReplayGuard(ctx, channel, packet)
	if err != nil {
		return wrap(err)
	}
	if res == channeltypes.NOOP {
		return channeltypes.NOOP, nil
	}

	module, err := route(router, packet.DestinationPort)
	if err != nil {
		return wrap(err)
	}
	extras, ack := module.OnRecvPacketExecute(packet, msg.Signer)

	switch channel.Ordering {
	case channeltypes.UNORDERED:
		err = ctx.StorePacketReceipt(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	case channeltypes.ORDERED:
		err = ctx.StoreNextSequenceRecv(packet.DestinationPort, packet.DestinationChannel, packet.Sequence.Increment())
	default:
		err = fmt.Errorf("%w: %s", channeltypes.ErrInvalidChannelOrdering, channel.Ordering)
	}
	if err != nil {
		return wrap(err)
	}

	ctx.EmitEvent(exported.NewMessageEvent(channeltypes.AttributeValueCategory))
	ctx.EmitEvent(packetEvent(channeltypes.EventTypeRecvPacket, packet, channel))
	if ack != nil {
		if err := writeAcknowledgement(ctx, packet, channel, ack); err != nil {
			return wrap(err)
		}
	}
	emitExtras(ctx, extras)
	ctx.LogMessage("packet received", "sequence", packet.Sequence, "dst_port", packet.DestinationPort,
		"dst_channel", packet.DestinationChannel, "async_ack", ack == nil)
	return channeltypes.SUCCESS, nil
}

// WriteAcknowledgement writes the acknowledgement of a packet whose module
// deferred it when the packet was received.
func WriteAcknowledgement(ctx exported.ExecutionContext, packet channeltypes.Packet, ack []byte) error {
	wrap := func(err error) error {
		return channeltypes.WrapPacketError(packet.DestinationPort, packet.DestinationChannel, packet.Sequence, err)
	}
	channel, err := openChannel(ctx, packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return wrap(err)
	}
	if len(ack) == 0 {
		return wrap(fmt.Errorf("%w: acknowledgement cannot be empty", channeltypes.ErrInvalidAcknowledgement))
	}
	existing, err := ctx.PacketAcknowledgement(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	if err != nil {
		return wrap(err)
	}
	if existing != nil {
		return wrap(channeltypes.ErrAcknowledgementExists)
	}
	return wrap(writeAcknowledgement(ctx, packet, channel, ack))
}

func writeAcknowledgement(ctx exported.ExecutionContext, packet channeltypes.Packet, channel channeltypes.Channel, ack []byte) error {
	if err := ctx.StorePacketAcknowledgement(packet.DestinationPort, packet.DestinationChannel, packet.Sequence,
		commitment.CommitAcknowledgement(ack)); err != nil {
		return err
	}
	event := packetEvent(channeltypes.EventTypeWriteAck, packet, channel)
	event.Attributes = append(event.Attributes, exported.NewAttribute(channeltypes.AttributeKeyAckHex, hex.EncodeToString(ack)))
	ctx.EmitEvent(event)
	return nil
}

// ValidateAcknowledgement checks an acknowledgement against the packet
// commitment still held for it. A settled packet yields NOOP.
func ValidateAcknowledgement(
	ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgAcknowledgement,
) (channeltypes.ResponseResultType, error) {
	packet := *msg.Packet
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}

	channel, err := openChannel(ctx, packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	if err := verifyCounterparty(channel, packet.DestinationPort, packet.DestinationChannel); err != nil {
		return wrap(err)
	}

	conn, err := openConnection(ctx, channel)
	if err != nil {
		return wrap(err)
	}

	res, err := verifyPacketCommitment(ctx, packet)
	if err != nil || res == channeltypes.NOOP {
		if err != nil {
			return wrap(err)
		}
		return channeltypes.NOOP, nil
	}

	if channel.Ordering == channeltypes.ORDERED {
		nextSequenceAck, err := ctx.NextSequenceAck(packet.SourcePort, packet.SourceChannel)
		if err != nil {
			return wrap(err)
		}
		if packet.Sequence != nextSequenceAck {
			return wrap(channeltypes.ErrPacketSequenceOutOfOrder{Expected: nextSequenceAck, Actual: packet.Sequence})
		}
	}

	if err := connection.VerifyPacketAcknowledgement(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofAcked,
		packet.DestinationPort, packet.DestinationChannel, packet.Sequence, msg.Acknowledgement); err != nil {
		return wrap(err)
	}

	module, err := route(router, packet.SourcePort)
	if err != nil {
		return wrap(err)
	}
	if err := module.OnAcknowledgementPacketValidate(packet, msg.Acknowledgement, msg.Signer); err != nil {
		return wrap(err)
	}
	return channeltypes.SUCCESS, nil
}

// ExecuteAcknowledgement settles the packet and hands the acknowledgement to
// the module.
func ExecuteAcknowledgement(
	ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgAcknowledgement,
) (channeltypes.ResponseResultType, error) {
	packet := *msg.Packet
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}

	channel, err := ctx.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	res, err := settle(ctx, packet)
	if err != nil || res == channeltypes.NOOP {
		if err != nil {
			return wrap(err)
		}
		return channeltypes.NOOP, nil
	}
	if channel.Ordering == channeltypes.ORDERED {
		if err := ctx.StoreNextSequenceAck(packet.SourcePort, packet.SourceChannel, packet.Sequence.Increment()); err != nil {
			return wrap(err)
		}
	}

	module, err := route(router, packet.SourcePort)
	if err != nil {
		return wrap(err)
	}
	extras, err := module.OnAcknowledgementPacketExecute(packet, msg.Acknowledgement, msg.Signer)
	if err != nil {
		return wrap(err)
	}

	ctx.EmitEvent(exported.NewMessageEvent(channeltypes.AttributeValueCategory))
	ctx.EmitEvent(packetEvent(channeltypes.EventTypeAcknowledgePacket, packet, channel))
	emitExtras(ctx, extras)
	ctx.LogMessage("packet acknowledged", "sequence", packet.Sequence, "src_port", packet.SourcePort,
		"src_channel", packet.SourceChannel)
	return channeltypes.SUCCESS, nil
}

// timeoutParams carries what MsgTimeout and MsgTimeoutOnClose have in
// common. proofClose is set only for a timeout on close.
type timeoutParams struct {
	packet           channeltypes.Packet
	proofUnreceived  commitment.Proof
	proofClose       commitment.Proof
	proofHeight      clienttypes.Height
	nextSequenceRecv host.Sequence
	signer           string
	onClose          bool
}

// ValidateTimeout checks the counterparty never received the packet before
// it timed out. A settled packet yields NOOP.
func ValidateTimeout(
	ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgTimeout,
) (channeltypes.ResponseResultType, error) {
	return validateTimeout(ctx, router, timeoutParams{
		packet:           *msg.Packet,
		proofUnreceived:  msg.ProofUnreceived,
		proofHeight:      clienttypes.HeightFromPtr(msg.ProofHeight),
		nextSequenceRecv: msg.NextSequenceRecv,
		signer:           msg.Signer,
	})
}

// ExecuteTimeout settles a timed out packet. Ordered channels are closed.
func ExecuteTimeout(
	ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgTimeout,
) (channeltypes.ResponseResultType, error) {
	return executeTimeout(ctx, router, *msg.Packet, msg.Signer)
}

// ValidateTimeoutOnClose checks the counterparty closed its channel end
// without receiving the packet. The packet need not have timed out and the
// local channel need not be open.
func ValidateTimeoutOnClose(
	ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgTimeoutOnClose,
) (channeltypes.ResponseResultType, error) {
	return validateTimeout(ctx, router, timeoutParams{
		packet:           *msg.Packet,
		proofUnreceived:  msg.ProofUnreceived,
		proofClose:       msg.ProofClose,
		proofHeight:      clienttypes.HeightFromPtr(msg.ProofHeight),
		nextSequenceRecv: msg.NextSequenceRecv,
		signer:           msg.Signer,
		onClose:          true,
	})
}

// ExecuteTimeoutOnClose settles the packet like ExecuteTimeout.
func ExecuteTimeoutOnClose(
	ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgTimeoutOnClose,
) (channeltypes.ResponseResultType, error) {
	return executeTimeout(ctx, router, *msg.Packet, msg.Signer)
}

func validateTimeout(ctx exported.ValidationContext, router exported.Router, p timeoutParams) (channeltypes.ResponseResultType, error) {
	packet := p.packet
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}

	var (
		channel channeltypes.Channel
		err     error
	)
	if p.onClose {
		channel, err = ctx.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	} else {
		channel, err = openChannel(ctx, packet.SourcePort, packet.SourceChannel)
	}
	if err != nil {
		return wrap(err)
	}
	if err := verifyCounterparty(channel, packet.DestinationPort, packet.DestinationChannel); err != nil {
		return wrap(err)
	}

	res, err := verifyPacketCommitment(ctx, packet)
	if err != nil || res == channeltypes.NOOP {
		if err != nil {
			return wrap(err)
		}
		return channeltypes.NOOP, nil
	}

	connectionID := channel.ConnectionID()
	conn, err := ctx.ConnectionEnd(connectionID)
	if err != nil {
		return wrap(connectiontypes.WrapConnectionError(connectionID, err))
	}
	clientState, err := client.VerifyActive(ctx, conn.ClientID)
	if err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}
	if err := clientState.ValidateProofHeight(p.proofHeight); err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}

	if p.onClose {
		expected := channeltypes.NewChannel(channeltypes.CLOSED, channel.Ordering,
			channeltypes.NewCounterparty(packet.SourcePort, packet.SourceChannel),
			[]host.ConnectionID{conn.GetCounterparty().ConnectionID}, channel.Version)
		if err := connection.VerifyChannelState(ctx, conn, p.proofHeight, p.proofClose,
			packet.DestinationPort, packet.DestinationChannel, expected); err != nil {
			return wrap(err)
		}
	} else {
		consensusState, err := ctx.ConsensusState(conn.ClientID, p.proofHeight)
		if err != nil {
			return wrap(clienttypes.WrapClientError(conn.ClientID, err))
		}
		if !packet.TimedOut(p.proofHeight, consensusState.Timestamp()) {
			return wrap(fmt.Errorf("%w: proof height %s, proof timestamp %d", channeltypes.ErrPacketNotTimedOut,
				p.proofHeight, consensusState.Timestamp()))
		}
	}

	switch channel.Ordering {
	case channeltypes.ORDERED:
		if p.nextSequenceRecv > packet.Sequence {
			return wrap(fmt.Errorf("%w: next sequence receive %d is greater than the packet sequence",
				channeltypes.ErrPacketReceived, p.nextSequenceRecv))
		}
		err = connection.VerifyNextSequenceRecv(ctx, conn, p.proofHeight, p.proofUnreceived,
			packet.DestinationPort, packet.DestinationChannel, p.nextSequenceRecv)
	case channeltypes.UNORDERED:
		err = connection.VerifyPacketReceiptAbsence(ctx, conn, p.proofHeight, p.proofUnreceived,
			packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	default:
		err = fmt.Errorf("%w: %s", channeltypes.ErrInvalidChannelOrdering, channel.Ordering)
	}
	if err != nil {
		return wrap(err)
	}

	module, err := route(router, packet.SourcePort)
	if err != nil {
		return wrap(err)
	}
	if err := module.OnTimeoutPacketValidate(packet, p.signer); err != nil {
		return wrap(err)
	}
	return channeltypes.SUCCESS, nil
}

func executeTimeout(
	ctx exported.ExecutionContext, router exported.Router, packet channeltypes.Packet, signer string,
) (channeltypes.ResponseResultType, error) {
	wrap := func(err error) (channeltypes.ResponseResultType, error) {
		return channeltypes.FAILURE, channeltypes.WrapPacketError(packet.SourcePort, packet.SourceChannel, packet.Sequence, err)
	}

	channel, err := ctx.ChannelEnd(packet.SourcePort, packet.SourceChannel)
	if err != nil {
		return wrap(err)
	}
	res, err := settle(ctx, packet)
	if err != nil || res == channeltypes.NOOP {
		if err != nil {
			return wrap(err)
		}
		return channeltypes.NOOP, nil
	}

	closed := false
	if channel.Ordering == channeltypes.ORDERED && !channel.IsClosed() {
		channel.State = channeltypes.CLOSED
		if err := ctx.StoreChannel(packet.SourcePort, packet.SourceChannel, channel); err != nil {
			return wrap(err)
		}
		closed = true
	}

	module, err := route(router, packet.SourcePort)
	if err != nil {
		return wrap(err)
	}
	extras, err := module.OnTimeoutPacketExecute(packet, signer)
	if err != nil {
		return wrap(err)
	}

	ctx.EmitEvent(exported.NewMessageEvent(channeltypes.AttributeValueCategory))
	ctx.EmitEvent(packetEvent(channeltypes.EventTypeTimeoutPacket, packet, channel))
	if closed {
		counterparty := channel.GetCounterparty()
		ctx.EmitEvent(exported.NewEvent(channeltypes.EventTypeChannelClosed,
			exported.NewAttribute(channeltypes.AttributeKeyPortID, packet.SourcePort.String()),
			exported.NewAttribute(channeltypes.AttributeKeyChannelID, packet.SourceChannel.String()),
			exported.NewAttribute(channeltypes.AttributeKeyCounterpartyPortID, counterparty.PortID.String()),
			exported.NewAttribute(channeltypes.AttributeKeyCounterpartyChannelID, counterparty.ChannelID.String()),
			exported.NewAttribute(channeltypes.AttributeKeyConnectionID, channel.ConnectionID().String()),
			exported.NewAttribute(channeltypes.AttributeKeyChannelOrdering, channel.Ordering.String()),
		))
	}
	emitExtras(ctx, extras)
	ctx.LogMessage("packet timed out", "sequence", packet.Sequence, "src_port", packet.SourcePort,
		"src_channel", packet.SourceChannel, "channel_closed", closed)
	return channeltypes.SUCCESS, nil
}

// recvReplayGuard yields NOOP for a packet the channel end already received
// and rejects ordered packets received ahead of their turn.
func recvReplayGuard(ctx exported.ValidationContext, channel channeltypes.Channel, packet channeltypes.Packet) (channeltypes.ResponseResultType, error) {
	switch channel.Ordering {
	case channeltypes.UNORDERED:
		received, err := ctx.HasPacketReceipt(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
		if err != nil {
			return channeltypes.FAILURE, err
		}
		if received {
			return channeltypes.NOOP, nil
		}
	case channeltypes.ORDERED:
		nextSequenceRecv, err := ctx.NextSequenceRecv(packet.DestinationPort, packet.DestinationChannel)
		if err != nil {
			return channeltypes.FAILURE, err
		}
		switch {
		case packet.Sequence < nextSequenceRecv:
			return channeltypes.NOOP, nil
		case packet.Sequence > nextSequenceRecv:
			return channeltypes.FAILURE, channeltypes.ErrPacketSequenceOutOfOrder{Expected: nextSequenceRecv, Actual: packet.Sequence}
		}
	default:
		return channeltypes.FAILURE, fmt.Errorf("%w: %s", channeltypes.ErrInvalidChannelOrdering, channel.Ordering)
	}
	return channeltypes.SUCCESS, nil
}

// verifyPacketCommitment yields NOOP when no commitment is held for the
// packet and fails when the held commitment is for different packet
// contents.
func verifyPacketCommitment(ctx exported.ValidationContext, packet channeltypes.Packet) (channeltypes.ResponseResultType, error) {
	stored, err := ctx.PacketCommitment(packet.SourcePort, packet.SourceChannel, packet.Sequence)
	if err != nil {
		return channeltypes.FAILURE, err
	}
	if stored == nil {
		return channeltypes.NOOP, nil
	}
	if expected := packet.Commitment(); !bytes.Equal(stored, expected) {
		return channeltypes.FAILURE, fmt.Errorf("%w: stored %X, packet %X", channeltypes.ErrInvalidPacketCommitment, stored, expected)
	}
	return channeltypes.SUCCESS, nil
}

// settle deletes the packet commitment, or yields NOOP if it is already
// gone.
func settle(ctx exported.ExecutionContext, packet channeltypes.Packet) (channeltypes.ResponseResultType, error) {
	res, err := verifyPacketCommitment(ctx, packet)
	if err != nil || res == channeltypes.NOOP {
		return res, err
	}
	if err := ctx.DeletePacketCommitment(packet.SourcePort, packet.SourceChannel, packet.Sequence); err != nil {
		return channeltypes.FAILURE, err
	}
	return channeltypes.SUCCESS, nil
}

func openChannel(ctx exported.ValidationContext, portID host.PortID, channelID host.ChannelID) (channeltypes.Channel, error) {
	channel, err := ctx.ChannelEnd(portID, channelID)
	if err != nil {
		return channeltypes.Channel{}, err
	}
	if !channel.IsOpen() {
		return channeltypes.Channel{}, channeltypes.ErrInvalidChannelState{
			PortID: portID, ChannelID: channelID, Expected: channeltypes.OPEN, Actual: channel.State,
		}
	}
	return channel, nil
}

func verifyCounterparty(channel channeltypes.Channel, portID host.PortID, channelID host.ChannelID) error {
	actual := channeltypes.NewCounterparty(portID, channelID)
	if expected := channel.GetCounterparty(); expected != actual {
		return channeltypes.ErrCounterpartyMismatch{Expected: expected, Actual: actual}
	}
	return nil
}

func packetEvent(eventType string, packet channeltypes.Packet, channel channeltypes.Channel) exported.Event {
	return exported.NewEvent(eventType,
		exported.NewAttribute(channeltypes.AttributeKeyDataHex, hex.EncodeToString(packet.Data)),
		exported.NewAttribute(channeltypes.AttributeKeyTimeoutHeight, packet.GetTimeoutHeight().String()),
		exported.NewAttribute(channeltypes.AttributeKeyTimeoutTimestamp, strconv.FormatUint(packet.TimeoutTimestamp, 10)),
		exported.NewAttribute(channeltypes.AttributeKeySequence, packet.Sequence.String()),
		exported.NewAttribute(channeltypes.AttributeKeySrcPort, packet.SourcePort.String()),
		exported.NewAttribute(channeltypes.AttributeKeySrcChannel, packet.SourceChannel.String()),
		exported.NewAttribute(channeltypes.AttributeKeyDstPort, packet.DestinationPort.String()),
		exported.NewAttribute(channeltypes.AttributeKeyDstChannel, packet.DestinationChannel.String()),
		exported.NewAttribute(channeltypes.AttributeKeyChannelOrdering, channel.Ordering.String()),
		exported.NewAttribute(channeltypes.AttributeKeyConnection, channel.ConnectionID().String()),
	)
}
