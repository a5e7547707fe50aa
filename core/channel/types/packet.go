package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

// Packet defines a type that carries data across different chains through IBC
type Packet struct {
	// number corresponds to the order of sends and receives, where a Packet
	// with an earlier sequence number must be sent and received before a Packet
	// with a later sequence number.
	Sequence host.Sequence `protobuf:"varint,1,opt,name=sequence,proto3" json:"sequence,omitempty"`
	// identifies the port on the sending chain.
	SourcePort host.PortID `protobuf:"bytes,2,opt,name=source_port,json=sourcePort,proto3" json:"source_port,omitempty"`
	// identifies the channel end on the sending chain.
	SourceChannel host.ChannelID `protobuf:"bytes,3,opt,name=source_channel,json=sourceChannel,proto3" json:"source_channel,omitempty"`
	// identifies the port on the receiving chain.
	DestinationPort host.PortID `protobuf:"bytes,4,opt,name=destination_port,json=destinationPort,proto3" json:"destination_port,omitempty"`
	// identifies the channel end on the receiving chain.
	DestinationChannel host.ChannelID `protobuf:"bytes,5,opt,name=destination_channel,json=destinationChannel,proto3" json:"destination_channel,omitempty"`
	// actual opaque bytes transferred directly to the application module
	Data []byte `protobuf:"bytes,6,opt,name=data,proto3" json:"data,omitempty"`
	// block height after which the packet times out
	TimeoutHeight *clienttypes.Height `protobuf:"bytes,7,opt,name=timeout_height,json=timeoutHeight,proto3" json:"timeout_height"`
	// block timestamp (in nanoseconds) after which the packet times out
	TimeoutTimestamp uint64 `protobuf:"varint,8,opt,name=timeout_timestamp,json=timeoutTimestamp,proto3" json:"timeout_timestamp,omitempty"`
}

func (p *Packet) Reset()         { *p = Packet{} }
func (p *Packet) String() string { return proto.CompactTextString(p) }
func (*Packet) ProtoMessage()    {}

// NewPacket creates a new Packet instance.
func NewPacket(
	data []byte,
	sequence host.Sequence, sourcePort host.PortID, sourceChannel host.ChannelID,
	destinationPort host.PortID, destinationChannel host.ChannelID,
	timeoutHeight clienttypes.Height, timeoutTimestamp uint64,
) Packet {
	return Packet{
		Data:               data,
		Sequence:           sequence,
		SourcePort:         sourcePort,
		SourceChannel:      sourceChannel,
		DestinationPort:    destinationPort,
		DestinationChannel: destinationChannel,
		TimeoutHeight:      timeoutHeight.Ptr(),
		TimeoutTimestamp:   timeoutTimestamp,
	}
}

// GetTimeoutHeight returns the timeout height, zero when unset.
func (p Packet) GetTimeoutHeight() clienttypes.Height {
	return clienttypes.HeightFromPtr(p.TimeoutHeight)
}

// Commitment returns the packet commitment stored by the sending chain.
func (p Packet) Commitment() []byte {
	return commitment.CommitPacket(p.Data, p.GetTimeoutHeight(), p.TimeoutTimestamp)
}

// TimeoutHeightElapsed reports whether the timeout height is set and h has
// reached it.
func (p Packet) TimeoutHeightElapsed(h clienttypes.Height) bool {
	timeout := p.GetTimeoutHeight()
	return !timeout.IsZero() && h.GTE(timeout)
}

// TimeoutTimestampElapsed reports whether the timeout timestamp is set and
// t has passed it.
func (p Packet) TimeoutTimestampElapsed(t uint64) bool {
	return p.TimeoutTimestamp != 0 && t > p.TimeoutTimestamp
}

// TimedOut reports whether the packet timed out on a chain at height h and
// timestamp t.
func (p Packet) TimedOut(h clienttypes.Height, t uint64) bool {
	return p.TimeoutHeightElapsed(h) || p.TimeoutTimestampElapsed(t)
}

// ValidateBasic checks identifiers, a non-zero sequence, non-empty data and
// that at least one timeout is set.
func (p Packet) ValidateBasic() error {
	if err := p.SourcePort.Validate(); err != nil {
		return fmt.Errorf("%w: invalid source port ID: %v", ErrInvalidPacket, err)
	}
	if err := p.DestinationPort.Validate(); err != nil {
		return fmt.Errorf("%w: invalid destination port ID: %v", ErrInvalidPacket, err)
	}
	if err := p.SourceChannel.Validate(); err != nil {
		return fmt.Errorf("%w: invalid source channel ID: %v", ErrInvalidPacket, err)
	}
	if err := p.DestinationChannel.Validate(); err != nil {
		return fmt.Errorf("%w: invalid destination channel ID: %v", ErrInvalidPacket, err)
	}
	if p.Sequence == 0 {
		return fmt.Errorf("%w: packet sequence cannot be 0", ErrInvalidPacket)
	}
	if p.GetTimeoutHeight().IsZero() && p.TimeoutTimestamp == 0 {
		return fmt.Errorf("%w: packet timeout height and packet timeout timestamp cannot both be 0", ErrInvalidPacket)
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: packet data bytes cannot be empty", ErrInvalidPacket)
	}
	return nil
}
