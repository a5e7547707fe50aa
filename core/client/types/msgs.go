package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"

	"github.com/tendermint/ibc/core/host"
)

// Type URLs of the client messages.
const (
	TypeURLMsgCreateClient = "/ibc.core.client.v1.MsgCreateClient"
	TypeURLMsgUpdateClient = "/ibc.core.client.v1.MsgUpdateClient"
)

func init() {
	proto.RegisterType((*MsgCreateClient)(nil), "ibc.core.client.v1.MsgCreateClient")
	proto.RegisterType((*MsgUpdateClient)(nil), "ibc.core.client.v1.MsgUpdateClient")
	proto.RegisterType((*Height)(nil), "ibc.core.client.v1.Height")
}

// MsgCreateClient defines a message to create an IBC client
type MsgCreateClient struct {
	// light client state
	ClientState *codectypes.Any `protobuf:"bytes,1,opt,name=client_state,json=clientState,proto3" json:"client_state,omitempty"`
	// consensus state associated with the client that corresponds to a given
	// height.
	ConsensusState *codectypes.Any `protobuf:"bytes,2,opt,name=consensus_state,json=consensusState,proto3" json:"consensus_state,omitempty"`
	// signer address
	Signer string `protobuf:"bytes,3,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgCreateClient) Reset()         { *m = MsgCreateClient{} }
func (m *MsgCreateClient) String() string { return proto.CompactTextString(m) }
func (*MsgCreateClient) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgCreateClient) ValidateBasic() error {
	if m.ClientState == nil {
		return fmt.Errorf("%w: client state cannot be empty", ErrInvalidClientState)
	}
	if m.ConsensusState == nil {
		return fmt.Errorf("%w: consensus state cannot be empty", ErrInvalidConsensusState)
	}
	return host.ValidateSigner(m.Signer)
}

// MsgUpdateClient defines a msg to update a IBC client state using
// the given client message.
type MsgUpdateClient struct {
	// client unique identifier
	ClientID host.ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	// client message to update the light client
	ClientMessage *codectypes.Any `protobuf:"bytes,2,opt,name=client_message,json=clientMessage,proto3" json:"client_message,omitempty"`
	// signer address
	Signer string `protobuf:"bytes,3,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgUpdateClient) Reset()         { *m = MsgUpdateClient{} }
func (m *MsgUpdateClient) String() string { return proto.CompactTextString(m) }
func (*MsgUpdateClient) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgUpdateClient) ValidateBasic() error {
	if err := m.ClientID.Validate(); err != nil {
		return err
	}
	if m.ClientMessage == nil {
		return fmt.Errorf("%w: client message cannot be empty", ErrInvalidClientMessage)
	}
	return host.ValidateSigner(m.Signer)
}
