package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

// Type URLs of the channel and packet messages.
const (
	TypeURLMsgChannelOpenInit     = "/ibc.core.channel.v1.MsgChannelOpenInit"
	TypeURLMsgChannelOpenTry      = "/ibc.core.channel.v1.MsgChannelOpenTry"
	TypeURLMsgChannelOpenAck      = "/ibc.core.channel.v1.MsgChannelOpenAck"
	TypeURLMsgChannelOpenConfirm  = "/ibc.core.channel.v1.MsgChannelOpenConfirm"
	TypeURLMsgChannelCloseInit    = "/ibc.core.channel.v1.MsgChannelCloseInit"
	TypeURLMsgChannelCloseConfirm = "/ibc.core.channel.v1.MsgChannelCloseConfirm"
	TypeURLMsgRecvPacket          = "/ibc.core.channel.v1.MsgRecvPacket"
	TypeURLMsgAcknowledgement     = "/ibc.core.channel.v1.MsgAcknowledgement"
	TypeURLMsgTimeout             = "/ibc.core.channel.v1.MsgTimeout"
	TypeURLMsgTimeoutOnClose      = "/ibc.core.channel.v1.MsgTimeoutOnClose"
)

func init() {
	proto.RegisterType((*Channel)(nil), "ibc.core.channel.v1.Channel")
	proto.RegisterType((*Counterparty)(nil), "ibc.core.channel.v1.Counterparty")
	proto.RegisterType((*Packet)(nil), "ibc.core.channel.v1.Packet")
	proto.RegisterType((*MsgChannelOpenInit)(nil), "ibc.core.channel.v1.MsgChannelOpenInit")
	proto.RegisterType((*MsgChannelOpenTry)(nil), "ibc.core.channel.v1.MsgChannelOpenTry")
	proto.RegisterType((*MsgChannelOpenAck)(nil), "ibc.core.channel.v1.MsgChannelOpenAck")
	proto.RegisterType((*MsgChannelOpenConfirm)(nil), "ibc.core.channel.v1.MsgChannelOpenConfirm")
	proto.RegisterType((*MsgChannelCloseInit)(nil), "ibc.core.channel.v1.MsgChannelCloseInit")
	proto.RegisterType((*MsgChannelCloseConfirm)(nil), "ibc.core.channel.v1.MsgChannelCloseConfirm")
	proto.RegisterType((*MsgRecvPacket)(nil), "ibc.core.channel.v1.MsgRecvPacket")
	proto.RegisterType((*MsgAcknowledgement)(nil), "ibc.core.channel.v1.MsgAcknowledgement")
	proto.RegisterType((*MsgTimeout)(nil), "ibc.core.channel.v1.MsgTimeout")
	proto.RegisterType((*MsgTimeoutOnClose)(nil), "ibc.core.channel.v1.MsgTimeoutOnClose")
}

func validateProof(name string, proof commitment.Proof, height *clienttypes.Height) error {
	if err := proof.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty %s", err, name)
	}
	if clienttypes.HeightFromPtr(height).IsZero() {
		return fmt.Errorf("%w: proof height must be non-zero", clienttypes.ErrInvalidHeight)
	}
	return nil
}

func validatePortChannel(portID host.PortID, channelID host.ChannelID) error {
	if err := portID.Validate(); err != nil {
		return fmt.Errorf("invalid port ID: %w", err)
	}
	if err := channelID.Validate(); err != nil {
		return fmt.Errorf("invalid channel ID: %w", err)
	}
	return nil
}

// MsgChannelOpenInit defines a msg to initialize a channel handshake.
// It is called by a relayer on Chain A.
type MsgChannelOpenInit struct {
	PortID  host.PortID `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	Channel *Channel    `protobuf:"bytes,2,opt,name=channel,proto3" json:"channel"`
	Signer  string      `protobuf:"bytes,3,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelOpenInit) Reset()         { *m = MsgChannelOpenInit{} }
func (m *MsgChannelOpenInit) String() string { return proto.CompactTextString(m) }
func (*MsgChannelOpenInit) ProtoMessage()    {}

// ValidateBasic checks the channel is in INIT with no counterparty channel
// yet.
func (m *MsgChannelOpenInit) ValidateBasic() error {
	if err := m.PortID.Validate(); err != nil {
		return fmt.Errorf("invalid port ID: %w", err)
	}
	if m.Channel == nil {
		return fmt.Errorf("%w: channel cannot be nil", ErrInvalidChannel)
	}
	if m.Channel.State != INIT {
		return fmt.Errorf("%w: channel state must be INIT in MsgChannelOpenInit, got %s", ErrInvalidChannel, m.Channel.State)
	}
	if m.Channel.GetCounterparty().ChannelID != "" {
		return fmt.Errorf("%w: counterparty channel identifier must be empty", ErrInvalidCounterparty)
	}
	if err := m.Channel.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgChannelOpenTry defines a msg sent by a Relayer to try to open a channel
// on Chain B. The version string is left empty and is set by the
// application callback.
type MsgChannelOpenTry struct {
	PortID host.PortID `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	// the version of the channel is ignored, the application callback picks it
	Channel             *Channel            `protobuf:"bytes,3,opt,name=channel,proto3" json:"channel"`
	CounterpartyVersion string              `protobuf:"bytes,4,opt,name=counterparty_version,json=counterpartyVersion,proto3" json:"counterparty_version,omitempty"`
	ProofInit           commitment.Proof    `protobuf:"bytes,5,opt,name=proof_init,json=proofInit,proto3" json:"proof_init,omitempty"`
	ProofHeight         *clienttypes.Height `protobuf:"bytes,6,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer              string              `protobuf:"bytes,7,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelOpenTry) Reset()         { *m = MsgChannelOpenTry{} }
func (m *MsgChannelOpenTry) String() string { return proto.CompactTextString(m) }
func (*MsgChannelOpenTry) ProtoMessage()    {}

// ValidateBasic checks the channel is in TRYOPEN and names the counterparty
// channel.
func (m *MsgChannelOpenTry) ValidateBasic() error {
	if err := m.PortID.Validate(); err != nil {
		return fmt.Errorf("invalid port ID: %w", err)
	}
	if err := validateProof("proof init", m.ProofInit, m.ProofHeight); err != nil {
		return err
	}
	if m.Channel == nil {
		return fmt.Errorf("%w: channel cannot be nil", ErrInvalidChannel)
	}
	if m.Channel.State != TRYOPEN {
		return fmt.Errorf("%w: channel state must be TRYOPEN in MsgChannelOpenTry, got %s", ErrInvalidChannel, m.Channel.State)
	}
	if err := m.Channel.GetCounterparty().ChannelID.Validate(); err != nil {
		return fmt.Errorf("%w: invalid counterparty channel ID: %v", ErrInvalidCounterparty, err)
	}
	if err := m.Channel.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgChannelOpenAck defines a msg sent by a Relayer to Chain A to acknowledge
// the change of channel state to TRYOPEN on Chain B.
type MsgChannelOpenAck struct {
	PortID                host.PortID         `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	ChannelID             host.ChannelID      `protobuf:"bytes,2,opt,name=channel_id,json=channelId,proto3" json:"channel_id,omitempty"`
	CounterpartyChannelID host.ChannelID      `protobuf:"bytes,3,opt,name=counterparty_channel_id,json=counterpartyChannelId,proto3" json:"counterparty_channel_id,omitempty"`
	CounterpartyVersion   string              `protobuf:"bytes,4,opt,name=counterparty_version,json=counterpartyVersion,proto3" json:"counterparty_version,omitempty"`
	ProofTry              commitment.Proof    `protobuf:"bytes,5,opt,name=proof_try,json=proofTry,proto3" json:"proof_try,omitempty"`
	ProofHeight           *clienttypes.Height `protobuf:"bytes,6,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer                string              `protobuf:"bytes,7,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelOpenAck) Reset()         { *m = MsgChannelOpenAck{} }
func (m *MsgChannelOpenAck) String() string { return proto.CompactTextString(m) }
func (*MsgChannelOpenAck) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgChannelOpenAck) ValidateBasic() error {
	if err := validatePortChannel(m.PortID, m.ChannelID); err != nil {
		return err
	}
	if err := m.CounterpartyChannelID.Validate(); err != nil {
		return fmt.Errorf("%w: invalid counterparty channel ID: %v", ErrInvalidCounterparty, err)
	}
	if err := validateProof("proof try", m.ProofTry, m.ProofHeight); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgChannelOpenConfirm defines a msg sent by a Relayer to Chain B to
// acknowledge the change of channel state to OPEN on Chain A.
type MsgChannelOpenConfirm struct {
	PortID      host.PortID         `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	ChannelID   host.ChannelID      `protobuf:"bytes,2,opt,name=channel_id,json=channelId,proto3" json:"channel_id,omitempty"`
	ProofAck    commitment.Proof    `protobuf:"bytes,3,opt,name=proof_ack,json=proofAck,proto3" json:"proof_ack,omitempty"`
	ProofHeight *clienttypes.Height `protobuf:"bytes,4,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer      string              `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelOpenConfirm) Reset()         { *m = MsgChannelOpenConfirm{} }
func (m *MsgChannelOpenConfirm) String() string { return proto.CompactTextString(m) }
func (*MsgChannelOpenConfirm) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgChannelOpenConfirm) ValidateBasic() error {
	if err := validatePortChannel(m.PortID, m.ChannelID); err != nil {
		return err
	}
	if err := validateProof("proof ack", m.ProofAck, m.ProofHeight); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgChannelCloseInit defines a msg sent by a Relayer to Chain A
// to close a channel with Chain B.
type MsgChannelCloseInit struct {
	PortID    host.PortID    `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	ChannelID host.ChannelID `protobuf:"bytes,2,opt,name=channel_id,json=channelId,proto3" json:"channel_id,omitempty"`
	Signer    string         `protobuf:"bytes,3,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelCloseInit) Reset()         { *m = MsgChannelCloseInit{} }
func (m *MsgChannelCloseInit) String() string { return proto.CompactTextString(m) }
func (*MsgChannelCloseInit) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgChannelCloseInit) ValidateBasic() error {
	if err := validatePortChannel(m.PortID, m.ChannelID); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgChannelCloseConfirm defines a msg sent by a Relayer to Chain B
// to acknowledge the change of channel state to CLOSED on Chain A.
type MsgChannelCloseConfirm struct {
	PortID      host.PortID         `protobuf:"bytes,1,opt,name=port_id,json=portId,proto3" json:"port_id,omitempty"`
	ChannelID   host.ChannelID      `protobuf:"bytes,2,opt,name=channel_id,json=channelId,proto3" json:"channel_id,omitempty"`
	ProofInit   commitment.Proof    `protobuf:"bytes,3,opt,name=proof_init,json=proofInit,proto3" json:"proof_init,omitempty"`
	ProofHeight *clienttypes.Height `protobuf:"bytes,4,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer      string              `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgChannelCloseConfirm) Reset()         { *m = MsgChannelCloseConfirm{} }
func (m *MsgChannelCloseConfirm) String() string { return proto.CompactTextString(m) }
func (*MsgChannelCloseConfirm) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgChannelCloseConfirm) ValidateBasic() error {
	if err := validatePortChannel(m.PortID, m.ChannelID); err != nil {
		return err
	}
	if err := validateProof("proof init", m.ProofInit, m.ProofHeight); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgRecvPacket receives incoming IBC packet
type MsgRecvPacket struct {
	Packet          *Packet             `protobuf:"bytes,1,opt,name=packet,proto3" json:"packet"`
	ProofCommitment commitment.Proof    `protobuf:"bytes,2,opt,name=proof_commitment,json=proofCommitment,proto3" json:"proof_commitment,omitempty"`
	ProofHeight     *clienttypes.Height `protobuf:"bytes,3,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer          string              `protobuf:"bytes,4,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgRecvPacket) Reset()         { *m = MsgRecvPacket{} }
func (m *MsgRecvPacket) String() string { return proto.CompactTextString(m) }
func (*MsgRecvPacket) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgRecvPacket) ValidateBasic() error {
	if m.Packet == nil {
		return fmt.Errorf("%w: packet cannot be nil", ErrInvalidPacket)
	}
	if err := validateProof("proof commitment", m.ProofCommitment, m.ProofHeight); err != nil {
		return err
	}
	if err := m.Packet.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgAcknowledgement receives incoming IBC acknowledgement
type MsgAcknowledgement struct {
	Packet          *Packet             `protobuf:"bytes,1,opt,name=packet,proto3" json:"packet"`
	Acknowledgement []byte              `protobuf:"bytes,2,opt,name=acknowledgement,proto3" json:"acknowledgement,omitempty"`
	ProofAcked      commitment.Proof    `protobuf:"bytes,3,opt,name=proof_acked,json=proofAcked,proto3" json:"proof_acked,omitempty"`
	ProofHeight     *clienttypes.Height `protobuf:"bytes,4,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	Signer          string              `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgAcknowledgement) Reset()         { *m = MsgAcknowledgement{} }
func (m *MsgAcknowledgement) String() string { return proto.CompactTextString(m) }
func (*MsgAcknowledgement) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgAcknowledgement) ValidateBasic() error {
	if m.Packet == nil {
		return fmt.Errorf("%w: packet cannot be nil", ErrInvalidPacket)
	}
	if len(m.Acknowledgement) == 0 {
		return fmt.Errorf("%w: ack bytes cannot be empty", ErrInvalidAcknowledgement)
	}
	if err := validateProof("proof acked", m.ProofAcked, m.ProofHeight); err != nil {
		return err
	}
	if err := m.Packet.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgTimeout receives timed-out packet
type MsgTimeout struct {
	Packet           *Packet             `protobuf:"bytes,1,opt,name=packet,proto3" json:"packet"`
	ProofUnreceived  commitment.Proof    `protobuf:"bytes,2,opt,name=proof_unreceived,json=proofUnreceived,proto3" json:"proof_unreceived,omitempty"`
	ProofHeight      *clienttypes.Height `protobuf:"bytes,3,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	NextSequenceRecv host.Sequence       `protobuf:"varint,4,opt,name=next_sequence_recv,json=nextSequenceRecv,proto3" json:"next_sequence_recv,omitempty"`
	Signer           string              `protobuf:"bytes,5,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgTimeout) Reset()         { *m = MsgTimeout{} }
func (m *MsgTimeout) String() string { return proto.CompactTextString(m) }
func (*MsgTimeout) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgTimeout) ValidateBasic() error {
	if m.Packet == nil {
		return fmt.Errorf("%w: packet cannot be nil", ErrInvalidPacket)
	}
	if err := validateProof("proof unreceived", m.ProofUnreceived, m.ProofHeight); err != nil {
		return err
	}
	if err := m.NextSequenceRecv.Validate(); err != nil {
		return fmt.Errorf("%w: next sequence receive cannot be 0", ErrInvalidTimeout)
	}
	if err := m.Packet.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}

// MsgTimeoutOnClose timed-out packet upon counterparty channel closure.
type MsgTimeoutOnClose struct {
	Packet           *Packet             `protobuf:"bytes,1,opt,name=packet,proto3" json:"packet"`
	ProofUnreceived  commitment.Proof    `protobuf:"bytes,2,opt,name=proof_unreceived,json=proofUnreceived,proto3" json:"proof_unreceived,omitempty"`
	ProofClose       commitment.Proof    `protobuf:"bytes,3,opt,name=proof_close,json=proofClose,proto3" json:"proof_close,omitempty"`
	ProofHeight      *clienttypes.Height `protobuf:"bytes,4,opt,name=proof_height,json=proofHeight,proto3" json:"proof_height"`
	NextSequenceRecv host.Sequence       `protobuf:"varint,5,opt,name=next_sequence_recv,json=nextSequenceRecv,proto3" json:"next_sequence_recv,omitempty"`
	Signer           string              `protobuf:"bytes,6,opt,name=signer,proto3" json:"signer,omitempty"`
}

func (m *MsgTimeoutOnClose) Reset()         { *m = MsgTimeoutOnClose{} }
func (m *MsgTimeoutOnClose) String() string { return proto.CompactTextString(m) }
func (*MsgTimeoutOnClose) ProtoMessage()    {}

// ValidateBasic checks the message is well formed.
func (m *MsgTimeoutOnClose) ValidateBasic() error {
	if m.Packet == nil {
		return fmt.Errorf("%w: packet cannot be nil", ErrInvalidPacket)
	}
	if err := validateProof("proof unreceived", m.ProofUnreceived, m.ProofHeight); err != nil {
		return err
	}
	if err := m.ProofClose.Validate(); err != nil {
		return fmt.Errorf("%w: cannot submit an empty proof of closed counterparty channel end", err)
	}
	if err := m.NextSequenceRecv.Validate(); err != nil {
		return fmt.Errorf("%w: next sequence receive cannot be 0", ErrInvalidTimeout)
	}
	if err := m.Packet.ValidateBasic(); err != nil {
		return err
	}
	return host.ValidateSigner(m.Signer)
}
