package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	"github.com/tendermint/ibc/core/host"
)

// State defines if a channel is in one of the following states:
// CLOSED, INIT, TRYOPEN, OPEN or UNINITIALIZED.
type State int32

const (
	// Default State
	UNINITIALIZED State = 0
	// A channel has just started the opening handshake.
	INIT State = 1
	// A channel has acknowledged the handshake step on the counterparty chain.
	TRYOPEN State = 2
	// A channel has completed the handshake. Open channels are
	// ready to send and receive packets.
	OPEN State = 3
	// A channel has been closed and can no longer be used to send or receive
	// packets.
	CLOSED State = 4
)

var stateNames = map[State]string{
	UNINITIALIZED: "STATE_UNINITIALIZED_UNSPECIFIED",
	INIT:          "STATE_INIT",
	TRYOPEN:       "STATE_TRYOPEN",
	OPEN:          "STATE_OPEN",
	CLOSED:        "STATE_CLOSED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int32(s))
}

// Order defines if a channel is ORDERED or UNORDERED
type Order int32

const (
	// zero-value for channel ordering
	NONE Order = 0
	// packets can be delivered in any order, which may differ from the order in
	// which they were sent.
	UNORDERED Order = 1
	// packets are delivered exactly in the order which they were sent
	ORDERED Order = 2
)

var orderNames = map[Order]string{
	NONE:      "ORDER_NONE_UNSPECIFIED",
	UNORDERED: "ORDER_UNORDERED",
	ORDERED:   "ORDER_ORDERED",
}

// String returns the connection feature name of the ordering.
func (o Order) String() string {
	if name, ok := orderNames[o]; ok {
		return name
	}
	return fmt.Sprintf("ORDER_%d", int32(o))
}

// Channel defines pipeline for exactly-once packet delivery between specific
// modules on separate blockchains, which has at least one end capable of
// sending packets and one end capable of receiving packets.
type Channel struct {
	// current state of the channel end
	State State `protobuf:"varint,1,opt,name=state,proto3,enum=ibc.core.channel.v1.State" json:"state,omitempty"`
	// whether the channel is ordered or unordered
	Ordering Order `protobuf:"varint,2,opt,name=ordering,proto3,enum=ibc.core.channel.v1.Order" json:"ordering,omitempty"`
	// counterparty channel end
	Counterparty *Counterparty `protobuf:"bytes,3,opt,name=counterparty,proto3" json:"counterparty"`
	// list of connection identifiers, in order, along which packets sent on
	// this channel will travel
	ConnectionHops []host.ConnectionID `protobuf:"bytes,4,rep,name=connection_hops,json=connectionHops,proto3" json:"connection_hops,omitempty"`
	// opaque channel version, which is agreed upon during the handshake
	Version string `protobuf:"bytes,5,opt,name=version,proto3" json:"version,omitempty"`
}

func (ch *Channel) Reset()         { *ch = Channel{} }
func (ch *Channel) String() string { return proto.CompactTextString(ch) }
func (*Channel) ProtoMessage()     {}

// NewChannel creates a new Channel instance
func NewChannel(state State, ordering Order, counterparty Counterparty, hops []host.ConnectionID, version string) Channel {
	return Channel{
		State:          state,
		Ordering:       ordering,
		Counterparty:   &counterparty,
		ConnectionHops: hops,
		Version:        version,
	}
}

// GetCounterparty returns the counterparty, never nil.
func (ch Channel) GetCounterparty() Counterparty {
	if ch.Counterparty == nil {
		return Counterparty{}
	}
	return *ch.Counterparty
}

// ConnectionID returns the single connection hop, or "" if there is none.
func (ch Channel) ConnectionID() host.ConnectionID {
	if len(ch.ConnectionHops) == 0 {
		return ""
	}
	return ch.ConnectionHops[0]
}

// IsOpen returns true if the channel state is OPEN
func (ch Channel) IsOpen() bool {
	return ch.State == OPEN
}

// IsClosed returns true if the channel state is CLOSED
func (ch Channel) IsClosed() bool {
	return ch.State == CLOSED
}

// ValidateBasic performs a basic validation of the channel fields
func (ch Channel) ValidateBasic() error {
	if ch.State == UNINITIALIZED {
		return fmt.Errorf("%w: channel state cannot be uninitialized", ErrInvalidChannel)
	}
	if ch.Ordering != ORDERED && ch.Ordering != UNORDERED {
		return fmt.Errorf("%w: %s", ErrInvalidChannelOrdering, ch.Ordering)
	}
	if len(ch.ConnectionHops) != 1 {
		return ErrInvalidConnectionHops{Expected: 1, Actual: len(ch.ConnectionHops)}
	}
	if err := ch.ConnectionHops[0].Validate(); err != nil {
		return fmt.Errorf("invalid connection hop ID: %w", err)
	}
	if ch.Counterparty == nil {
		return fmt.Errorf("%w: counterparty cannot be nil", ErrInvalidCounterparty)
	}
	return ch.Counterparty.ValidateBasic()
}

// Counterparty defines a channel end counterparty
type Counterparty struct {
	// port on the counterparty chain which owns the other end of the channel.
	PortID host.PortID `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	// channel end on the counterparty chain. Empty until the counterparty has
	// answered the handshake.
	ChannelID host.ChannelID `protobuf:"bytes,2,opt,name=channel_id,json=channelId,proto3" json:"channel_id,omitempty"`
}

func (c *Counterparty) Reset()         { *c = Counterparty{} }
func (c *Counterparty) String() string { return proto.CompactTextString(c) }
func (*Counterparty) ProtoMessage()    {}

// NewCounterparty returns a new Counterparty instance
func NewCounterparty(portID host.PortID, channelID host.ChannelID) Counterparty {
	return Counterparty{
		PortID:    portID,
		ChannelID: channelID,
	}
}

// ValidateBasic performs a basic validation check of the identifiers
func (c Counterparty) ValidateBasic() error {
	if err := c.PortID.Validate(); err != nil {
		return fmt.Errorf("%w: invalid counterparty port ID: %v", ErrInvalidCounterparty, err)
	}
	if c.ChannelID != "" {
		if err := c.ChannelID.Validate(); err != nil {
			return fmt.Errorf("%w: invalid counterparty channel ID: %v", ErrInvalidCounterparty, err)
		}
	}
	return nil
}

// IdentifiedChannel is a channel end together with its identifiers.
type IdentifiedChannel struct {
	PortID    host.PortID
	ChannelID host.ChannelID
	Channel
}
