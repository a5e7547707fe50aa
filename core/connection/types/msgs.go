package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

// Type URLs of the connection handshake messages.
const (
	TypeURLMsgConnectionOpenInit    = "/ibc.core.connection.v1.MsgConnectionOpenInit"
	TypeURLMsgConnectionOpenTry     = "/ibc.core.connection.v1.MsgConnectionOpenTry"
	TypeURLMsgConnectionOpenAck     = "/ibc.core.connection.v1.MsgConnectionOpenAck"
	TypeURLMsgConnectionOpenConfirm = "/ibc.core.connection.v1.MsgConnectionOpenConfirm"
)

func init() {
	proto.RegisterType((*ConnectionEnd)(nil), "ibc.core.connection.v1.ConnectionEnd")
	proto.RegisterType((*Counterparty)(nil), "ibc.core.connection.v1.Counterparty")
	proto.RegisterType((*Version)(nil), "ibc.core.connection.v1.Version")
	proto.RegisterType((*MsgConnectionOpenInit)(nil), "ibc.core.connection.v1.MsgConnectionOpenInit")
	proto.RegisterType((*MsgConnectionOpenTry)(nil), "ibc.core.connection.v1.MsgConnectionOpenTry")
	proto.RegisterType((*MsgConnectionOpenAck)(nil), "ibc.core.connection.v1.MsgConnectionOpenAck")
	proto.RegisterType((*MsgConnectionOpenConfirm)(nil), "ibc.core.connection.v1.MsgConnectionOpenConfirm")
}

// MsgConnectionOpenInit defines the msg sent by an account on Chain A to
// initialize a connection with Chain B.
type MsgConnectionOpenInit struct {
	ClientID     host.ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	Counterparty *Counterparty `protobuf:"bytes,2,opt,name=counterparty,proto3" json:"counterparty"`
	// Version is optional. When nil every compatible version is proposed.
	Version     *Version `protobuf:"bytes,3,opt,name=version,proto3" json:"version,omitempty"`
	DelayPeriod uint64   `protobuf:"varint,4,opt,name=delay_period,json=delayPeriod,proto3" json:"delay_period,omitempty"`
	Signer      string   `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgConnectionOpenInit) Reset()         { *m = MsgConnectionOpenInit{} }
func (m *MsgConnectionOpenInit) String() string { return proto.CompactTextString(m) }
func (*MsgConnectionOpenInit) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
// NOTE: the counterparty connection ID must be empty since the counterparty
// has not allocated one yet.
func (m *MsgConnectionOpenInit) ValidateBasic() error {
	if err := m.ClientID.Validate(); err != nil {
		return fmt.Errorf("invalid client ID: %w", err)
	}
	if m.Counterparty == nil {
		return fmt.Errorf("%w: counterparty cannot be nil", ErrInvalidCounterparty)
	}
	if m.Counterparty.ConnectionID != "" {
		return fmt.Errorf("%w: counterparty connection identifier must be empty", ErrInvalidCounterparty)
	}
	if m.Version != nil {
		if err := ValidateVersion(m.Version); err != nil {
			return err
		}
	}
	if err := m.Counterparty.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgConnectionOpenTry defines a msg sent by a Relayer to try to open a
// connection on Chain B.
type MsgConnectionOpenTry struct {
	ClientID host.ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3" json:"client_id,omitempty"`
	// the host's client state as tracked by the counterparty
	ClientState          *codectypes.Any     `protobuf:"bytes,3,opt,name=client_state,json=clientState,proto3" json:"client_state,omitempty"`
	Counterparty         *Counterparty       `protobuf:"bytes,4,opt,name=counterparty,proto3" json:"counterparty"`
	DelayPeriod          uint64              `protobuf:"varint,5,opt,name=delay_period,json=delayPeriod,proto3" json:"delay_period,omitempty"`
	CounterpartyVersions []*Version          `protobuf:"bytes,6,rep,name=counterparty_versions,json=counterpartyVersions,proto3" json:"counterparty_versions,omitempty"`
	ProofHeight          *clienttypes.Height `protobuf:"bytes,7,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	// proof of the initialization the connection on Chain A: `UNITIALIZED ->
	// INIT`
	ProofInit commitment.Proof `protobuf:"bytes,8,opt,name=proof_init,json=proofInit,proto3" json:"proof_init,omitempty"`
	// proof of client state included in message
	ProofClient commitment.Proof `protobuf:"bytes,9,opt,name=proof_client,json=proofClient,proto3" json:"proof_client,omitempty"`
	// proof of client consensus state
	ProofConsensus  commitment.Proof    `protobuf:"bytes,10,opt,name=proof_consensus,json=proofConsensus,proto3" json:"proof_consensus,omitempty"`
	ConsensusHeight *clienttypes.Height `protobuf:"bytes,11,opt,name=consensus_height,json=consensusHeight,proto3" json:"consensus_height"`
	Signer          string              `protobuf:"bytes,12,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgConnectionOpenTry) Reset()         { *m = MsgConnectionOpenTry{} }
func (m *MsgConnectionOpenTry) String() string { return proto.CompactTextString(m) }
func (*MsgConnectionOpenTry) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgConnectionOpenTry) ValidateBasic() error {
	if err := m.ClientID.Validate(); err != nil {
		return fmt.Errorf("invalid client ID: %w", err)
	}
	if m.ClientState == nil {
		return fmt.Errorf("%w: counterparty client state cannot be nil", clienttypes.ErrInvalidClientState)
	}
	if m.Counterparty == nil {
		return fmt.Errorf("%w: counterparty cannot be nil", ErrInvalidCounterparty)
	}
	if m.Counterparty.ConnectionID == "" {
		return fmt.Errorf("%w: counterparty connection ID cannot be empty", ErrInvalidCounterparty)
	}
	if err := m.Counterparty.ValidateBasic(); err != nil {
		return err
	}
	if err := ValidateVersions(m.CounterpartyVersions); err != nil {
		return err
	}
	if err := m.ProofInit.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof init", err)
	}
	if err := m.ProofClient.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit empty proof client", err)
	}
	if err := m.ProofConsensus.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof of consensus state", err)
	}
	if clienttypes.HeightFromPtr(m.ProofHeight).IsZero() {
		return fmt.Errorf("%w: proof height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	if clienttypes.HeightFromPtr(m.ConsensusHeight).IsZero() {
		return fmt.Errorf("%w: consensus height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	return host.ValidateSigner(m.Signer)
}

// MsgConnectionOpenAck defines a msg sent by a Relayer to Chain A to
// acknowledge the change of connection state to TRYOPEN on Chain B.
type MsgConnectionOpenAck struct {
	ConnectionID             host.ConnectionID   `protobuf:"bytes,1,opt,name=connection_id,json=connectionId,proto3" json:"connection_id,omitempty"`
	CounterpartyConnectionID host.ConnectionID   `protobuf:"bytes,2,opt,name=counterparty_connection_id,json=counterpartyConnectionId,proto3" json:"counterparty_connection_id,omitempty"`
	Version                  *Version            `protobuf:"bytes,3,opt,name=version,proto3" json:"version,omitempty"`
	ClientState              *codectypes.Any     `protobuf:"bytes,4,opt,name=client_state,json=clientState,proto3" json:"client_state,omitempty"`
	ProofHeight              *clienttypes.Height `protobuf:"bytes,5,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	// proof of the initialization the connection on Chain B: `UNITIALIZED ->
	// TRYOPEN`
	ProofTry commitment.Proof `protobuf:"bytes,6,opt,name=proof_try,json=proofTry,proto3" json:"proof_try,omitempty"`
	// proof of client state included in message
	ProofClient commitment.Proof `protobuf:"bytes,7,opt,name=proof_client,json=proofClient,proto3" json:"proof_client,omitempty"`
	// proof of client consensus state
	ProofConsensus  commitment.Proof    `protobuf:"bytes,8,opt,name=proof_consensus,json=proofConsensus,proto3" json:"proof_consensus,omitempty"`
	ConsensusHeight *clienttypes.Height `protobuf:"bytes,9,opt,name=consensus_height,json=consensusHeight,proto3" json:"consensus_height"`
	Signer          string              `protobuf:"bytes,10,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgConnectionOpenAck) Reset()         { *m = MsgConnectionOpenAck{} }
func (m *MsgConnectionOpenAck) String() string { return proto.CompactTextString(m) }
func (*MsgConnectionOpenAck) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgConnectionOpenAck) ValidateBasic() error {
	if err := m.ConnectionID.Validate(); err != nil {
		return fmt.Errorf("invalid connection ID: %w", err)
	}
	if err := m.CounterpartyConnectionID.Validate(); err != nil {
		return fmt.Errorf("invalid counterparty connection ID: %w", err)
	}
	if err := ValidateVersion(m.Version); err != nil {
		return err
	}
	if m.ClientState == nil {
		return fmt.Errorf("%w: counterparty client state cannot be nil", clienttypes.ErrInvalidClientState)
	}
	if err := m.ProofTry.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof try", err)
	}
	if err := m.ProofClient.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit empty proof client", err)
	}
	if err := m.ProofConsensus.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof of consensus state", err)
	}
	if clienttypes.HeightFromPtr(m.ProofHeight).IsZero() {
		return fmt.Errorf("%w: proof height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	if clienttypes.HeightFromPtr(m.ConsensusHeight).IsZero() {
		return fmt.Errorf("%w: consensus height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	return host.ValidateSigner(m.Signer)
}

// MsgConnectionOpenConfirm defines a msg sent by a Relayer to Chain B to
// acknowledge the change of connection state to OPEN on Chain A.
type MsgConnectionOpenConfirm struct {
	ConnectionID host.ConnectionID `protobuf:"bytes,1,opt,name=connection_id,json=connectionId,proto3" json:"connection_id,omitempty"`
	// proof for the change of the connection state on Chain A: `INIT -> OPEN`
	ProofAck    commitment.Proof    `protobuf:"bytes,2,opt,name=proof_ack,json=proofAck,proto3" json:"proof_ack,omitempty"`
	ProofHeight *clienttypes.Height `protobuf:"bytes,3,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer      string              `protobuf:"bytes,4,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgConnectionOpenConfirm) Reset()         { *m = MsgConnectionOpenConfirm{} }
func (m *MsgConnectionOpenConfirm) String() string { return proto.CompactTextString(m) }
func (*MsgConnectionOpenConfirm) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgConnectionOpenConfirm) ValidateBasic() error {
	if err := m.ConnectionID.Validate(); err != nil {
		return fmt.Errorf("invalid connection ID: %w", err)
	}
	if err := m.ProofAck.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof ack", err)
	}
	if clienttypes.HeightFromPtr(m.ProofHeight).IsZero() {
		return fmt.Errorf("%w: proof height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	return host.ValidateSigner(m.Signer)
}
