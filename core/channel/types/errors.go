package types

import (
	"errors"
	"fmt"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/host"
)

var (
	ErrChannelExists            = errors.New("channel already exists")
	ErrInvalidChannel           = errors.New("invalid channel")
	ErrInvalidChannelOrdering   = errors.New("invalid channel ordering")
	ErrInvalidCounterparty      = errors.New("invalid counterparty channel")
	ErrInvalidChannelVersion    = errors.New("invalid channel version")
	ErrInvalidPacket            = errors.New("invalid packet")
	ErrPacketTimeout            = errors.New("packet timeout")
	ErrPacketNotTimedOut        = errors.New("packet has not timed out")
	ErrPacketCommitmentNotFound = errors.New("packet commitment not found")
	ErrInvalidPacketCommitment  = errors.New("invalid packet commitment")
	ErrPacketReceived           = errors.New("packet already received")
	ErrAcknowledgementExists    = errors.New("acknowledgement for packet already exists")
	ErrInvalidAcknowledgement   = errors.New("invalid acknowledgement")
	ErrInvalidTimeout           = errors.New("invalid packet timeout")
	ErrNoOpMsg                  = errors.New("message is redundant, no-op will be performed")
)

// ErrChannelNotFound is returned when no channel end is stored under the
// port and channel.
type ErrChannelNotFound struct {
	PortID    host.PortID
	ChannelID host.ChannelID
}

func (e ErrChannelNotFound) Error() string {
	return fmt.Sprintf("channel %s/%s not found", e.PortID, e.ChannelID)
}

// ErrInvalidChannelState is returned when a handshake or packet step finds
// the channel end in an unexpected state.
type ErrInvalidChannelState struct {
	PortID    host.PortID
	ChannelID host.ChannelID
	Expected  State
	Actual    State
}

func (e ErrInvalidChannelState) Error() string {
	return fmt.Sprintf("channel %s/%s state is %s, expected %s", e.PortID, e.ChannelID, e.Actual, e.Expected)
}

// ErrChannelClosed is returned when an operation requires a channel that is
// not closed.
type ErrChannelClosed struct {
	PortID    host.PortID
	ChannelID host.ChannelID
}

func (e ErrChannelClosed) Error() string {
	return fmt.Sprintf("channel %s/%s is closed", e.PortID, e.ChannelID)
}

// ErrInvalidConnectionHops is returned when a channel does not travel over
// exactly the supported number of connections.
type ErrInvalidConnectionHops struct {
	Expected int
	Actual   int
}

func (e ErrInvalidConnectionHops) Error() string {
	return fmt.Sprintf("invalid connection hops length: expected %d, got %d", e.Expected, e.Actual)
}

// ErrOrderingNotSupported is returned when the connection version does not
// list the channel ordering as a feature.
type ErrOrderingNotSupported struct {
	Ordering Order
}

func (e ErrOrderingNotSupported) Error() string {
	return fmt.Sprintf("connection version does not support channel ordering %s", e.Ordering)
}

// ErrCounterpartyMismatch is returned when a packet names a counterparty
// other than the one stored on the channel end.
type ErrCounterpartyMismatch struct {
	Expected Counterparty
	Actual   Counterparty
}

func (e ErrCounterpartyMismatch) Error() string {
	return fmt.Sprintf("packet counterparty %s/%s does not match channel counterparty %s/%s",
		e.Actual.PortID, e.Actual.ChannelID, e.Expected.PortID, e.Expected.ChannelID)
}

// ErrPacketSequenceOutOfOrder is returned when an ordered channel receives
// or acknowledges a packet other than the next one.
type ErrPacketSequenceOutOfOrder struct {
	Expected host.Sequence
	Actual   host.Sequence
}

func (e ErrPacketSequenceOutOfOrder) Error() string {
	return fmt.Sprintf("packet sequence %d is out of order, expected %d", e.Actual, e.Expected)
}

// ErrInvalidPacketSequence is returned when a send uses a sequence other
// than the next one, or an ordered timeout names a sequence already
// received.
type ErrInvalidPacketSequence struct {
	Expected host.Sequence
	Actual   host.Sequence
}

func (e ErrInvalidPacketSequence) Error() string {
	return fmt.Sprintf("invalid packet sequence %d, expected %d", e.Actual, e.Expected)
}

// ErrSequenceNotFound is returned when a channel end has no stored sequence
// counter of the given kind ("send", "recv" or "ack").
type ErrSequenceNotFound struct {
	Kind      string
	PortID    host.PortID
	ChannelID host.ChannelID
}

func (e ErrSequenceNotFound) Error() string {
	return fmt.Sprintf("next %s sequence for channel %s/%s not found", e.Kind, e.PortID, e.ChannelID)
}

// ErrTimeoutHeightElapsed is returned when a packet reached its timeout
// height before being sent or received.
type ErrTimeoutHeightElapsed struct {
	Height        clienttypes.Height
	TimeoutHeight clienttypes.Height
}

func (e ErrTimeoutHeightElapsed) Error() string {
	return fmt.Sprintf("%v: height %s >= packet timeout height %s", ErrPacketTimeout, e.Height, e.TimeoutHeight)
}

func (e ErrTimeoutHeightElapsed) Unwrap() error { return ErrPacketTimeout }

// ErrTimeoutTimestampElapsed is returned when a packet passed its timeout
// timestamp before being sent or received.
type ErrTimeoutTimestampElapsed struct {
	Timestamp        uint64
	TimeoutTimestamp uint64
}

func (e ErrTimeoutTimestampElapsed) Error() string {
	return fmt.Sprintf("%v: timestamp %d > packet timeout timestamp %d", ErrPacketTimeout, e.Timestamp, e.TimeoutTimestamp)
}

func (e ErrTimeoutTimestampElapsed) Unwrap() error { return ErrPacketTimeout }

// ErrVerificationFailed is returned when the counterparty's proof of one of
// its stored values fails.
type ErrVerificationFailed struct {
	// What was being verified, e.g. "channel state".
	What string
	Err  error
}

func (e ErrVerificationFailed) Error() string {
	return fmt.Sprintf("failed to verify %s: %v", e.What, e.Err)
}

func (e ErrVerificationFailed) Unwrap() error {
	return e.Err
}

// ChannelError reports a failure of a channel handshake operation.
type ChannelError struct {
	PortID    host.PortID
	ChannelID host.ChannelID
	Err       error
}

func (e ChannelError) Error() string {
	if e.ChannelID == "" {
		return fmt.Sprintf("channel on port %s: %v", e.PortID, e.Err)
	}
	return fmt.Sprintf("channel %s/%s: %v", e.PortID, e.ChannelID, e.Err)
}

func (e ChannelError) Unwrap() error {
	return e.Err
}

// WrapChannelError wraps err unless it is nil or already a ChannelError or
// PacketError.
func WrapChannelError(portID host.PortID, channelID host.ChannelID, err error) error {
	if err == nil {
		return nil
	}
	var (
		ce ChannelError
		pe PacketError
	)
	if errors.As(err, &ce) || errors.As(err, &pe) {
		return err
	}
	return ChannelError{PortID: portID, ChannelID: channelID, Err: err}
}

// PacketError reports a failure of a packet operation, naming the packet by
// its sequence and the channel end it was handled on.
type PacketError struct {
	PortID    host.PortID
	ChannelID host.ChannelID
	Sequence  host.Sequence
	Err       error
}

func (e PacketError) Error() string {
	return fmt.Sprintf("packet %d on channel %s/%s: %v", e.Sequence, e.PortID, e.ChannelID, e.Err)
}

func (e PacketError) Unwrap() error {
	return e.Err
}

// WrapPacketError wraps err unless it is nil or already a PacketError.
func WrapPacketError(portID host.PortID, channelID host.ChannelID, sequence host.Sequence, err error) error {
	if err == nil {
		return nil
	}
	var pe PacketError
	if errors.As(err, &pe) {
		return err
	}
	return PacketError{PortID: portID, ChannelID: channelID, Sequence: sequence, Err: err}
}

// ErrRouteNotFound is returned when no module is bound to a port.
type ErrRouteNotFound struct {
	PortID host.PortID
}

func (e ErrRouteNotFound) Error() string {
	return fmt.Sprintf("no module bound to port %s", e.PortID)
}
