package types

import (
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

// State defines if a connection is in one of the following states:
// INIT, TRYOPEN, OPEN or UNINITIALIZED.
type State int32

const (
	// Default State
	UNINITIALIZED State = 0
	// A connection end has just started the opening handshake.
	INIT State = 1
	// A connection end has acknowledged the handshake step on the counterparty
	// chain.
	TRYOPEN State = 2
	// A connection end has completed the handshake.
	OPEN State = 3
)

var stateNames = map[State]string{
	UNINITIALIZED: "STATE_UNINITIALIZED_UNSPECIFIED",
	INIT:          "STATE_INIT",
	TRYOPEN:       "STATE_TRYOPEN",
	OPEN:          "STATE_OPEN",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int32(s))
}

// ConnectionEnd defines a stateful object on a chain connected to another
// separate one.
// NOTE: there must only be 2 defined ConnectionEnds to establish
// a connection between two chains.
type ConnectionEnd struct {
	// client associated with this connection.
	ClientID host.ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	// IBC version which can be utilised to determine encodings or protocols for
	// channels or packets utilising this connection.
	Versions []*Version `protobuf:"bytes,2,rep,name=versions,proto3" json:"versions,omitempty"`
	// current state of the connection end.
	State State `protobuf:"varint,3,opt,name=state,proto3,enum=ibc.core.connection.v1.State" json:"state,omitempty"`
	// counterparty chain associated with this connection.
	Counterparty *Counterparty `protobuf:"bytes,4,opt,name=counterparty,proto3" json:"counterparty"`
	// delay period that must pass before a consensus state can be used for
	// packet-verification NOTE: delay period logic is only implemented by some
	// clients.
	DelayPeriod uint64 `protobuf:"varint,5,opt,name=delay_period,json=delayPeriod,proto3" json:"delay_period,omitempty"`
}

func (c *ConnectionEnd) Reset()         { *c = ConnectionEnd{} }
func (c *ConnectionEnd) String() string { return proto.CompactTextString(c) }
func (*ConnectionEnd) ProtoMessage()    {}

// NewConnectionEnd creates a new ConnectionEnd instance.
func NewConnectionEnd(state State, clientID host.ClientID, counterparty Counterparty, versions []*Version, delayPeriod time.Duration) ConnectionEnd {
	return ConnectionEnd{
		ClientID:     clientID,
		Versions:     versions,
		State:        state,
		Counterparty: &counterparty,
		DelayPeriod:  uint64(delayPeriod),
	}
}

// GetCounterparty returns the counterparty, never nil.
func (c ConnectionEnd) GetCounterparty() Counterparty {
	if c.Counterparty == nil {
		return Counterparty{}
	}
	return *c.Counterparty
}

// GetDelayPeriod returns the delay period as a duration.
func (c ConnectionEnd) GetDelayPeriod() time.Duration {
	return time.Duration(c.DelayPeriod)
}

// IsOpen reports whether the handshake has completed.
func (c ConnectionEnd) IsOpen() bool {
	return c.State == OPEN
}

// VerifyState returns ErrInvalidConnectionState unless the end is in
// expected.
func (c ConnectionEnd) VerifyState(connectionID host.ConnectionID, expected State) error {
	if c.State != expected {
		return ErrInvalidConnectionState{ConnectionID: connectionID, Expected: expected, Actual: c.State}
	}
	return nil
}

// ValidateBasic implements the Connection interface.
// NOTE: the protocol supports that the connection and client IDs match the
// counterparty's.
func (c ConnectionEnd) ValidateBasic() error {
	if c.State == UNINITIALIZED {
		return fmt.Errorf("%w: connection state cannot be uninitialized", ErrInvalidConnection)
	}
	if err := c.ClientID.Validate(); err != nil {
		return fmt.Errorf("%w: invalid client ID: %v", ErrInvalidConnection, err)
	}
	if len(c.Versions) == 0 {
		return fmt.Errorf("%w: empty connection versions", ErrInvalidVersion)
	}
	if c.State != INIT && len(c.Versions) != 1 {
		return fmt.Errorf("%w: connection in state %s must have exactly one version, got %d", ErrInvalidVersion, c.State, len(c.Versions))
	}
	for _, version := range c.Versions {
		if err := ValidateVersion(version); err != nil {
			return err
		}
	}
	if c.Counterparty == nil {
		return fmt.Errorf("%w: counterparty cannot be nil", ErrInvalidCounterparty)
	}
	return c.Counterparty.ValidateBasic()
}

// Counterparty defines the counterparty chain associated with a connection end.
type Counterparty struct {
	// identifies the client on the counterparty chain associated with a given
	// connection.
	ClientID host.ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	// identifies the connection end on the counterparty chain associated with a
	// given connection. Empty until the counterparty has answered the
	// handshake.
	ConnectionID host.ConnectionID `protobuf:"bytes,2,opt,name=connection_id,json=connectionId,proto3" json:"connection_id,omitempty"`
	// commitment merkle prefix of the counterparty chain.
	Prefix commitment.Prefix `protobuf:"bytes,3,opt,name=prefix,proto3" json:"prefix"`
}

func (c *Counterparty) Reset()         { *c = Counterparty{} }
func (c *Counterparty) String() string { return proto.CompactTextString(c) }
func (*Counterparty) ProtoMessage()    {}

// NewCounterparty creates a new Counterparty instance.
func NewCounterparty(clientID host.ClientID, connectionID host.ConnectionID, prefix commitment.Prefix) Counterparty {
	return Counterparty{
		ClientID:     clientID,
		ConnectionID: connectionID,
		Prefix:       prefix,
	}
}

// ValidateBasic performs a basic validation check of the identifiers and prefix
func (c Counterparty) ValidateBasic() error {
	if c.ConnectionID != "" {
		if err := c.ConnectionID.Validate(); err != nil {
			return fmt.Errorf("%w: invalid counterparty connection ID: %v", ErrInvalidCounterparty, err)
		}
	}
	if err := c.ClientID.Validate(); err != nil {
		return fmt.Errorf("%w: invalid counterparty client ID: %v", ErrInvalidCounterparty, err)
	}
	if c.Prefix.Empty() {
		return fmt.Errorf("%w: counterparty prefix cannot be empty", ErrInvalidCounterparty)
	}
	return nil
}

// IdentifiedConnection is a connection end together with its identifier.
type IdentifiedConnection struct {
	ConnectionID host.ConnectionID
	ConnectionEnd
}
