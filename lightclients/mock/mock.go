// Package mock implements a light client that trusts whatever it is told.
// It accepts every non-empty proof and is meant for tests of the handlers
// that do not need real commitment proofs.
package mock

import (
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ClientType is the mock client type.
const ClientType = "9999-mock"

// ErrInvalidProof is returned for an empty proof.
var ErrInvalidProof = errors.New("mock proof cannot be empty")

func init() {
	proto.RegisterType((*ClientState)(nil), "ibc.mock.ClientState")
	proto.RegisterType((*ConsensusState)(nil), "ibc.mock.ConsensusState")
	proto.RegisterType((*Header)(nil), "ibc.mock.Header")
	proto.RegisterType((*Misbehaviour)(nil), "ibc.mock.Misbehaviour")
}

// ClientState of the mock client.
type ClientState struct {
	Height *clienttypes.Height `protobuf:"bytes,1,opt,name=height,proto3" json:"height"`
	Frozen bool                `protobuf:"varint,2,opt,name=frozen,proto3" json:"frozen,omitempty"`
}

func (cs *ClientState) Reset()         { *cs = ClientState{} }
func (cs *ClientState) String() string { return proto.CompactTextString(cs) }
func (*ClientState) ProtoMessage()     {}

var _ exported.ClientState = (*ClientState)(nil)

// NewClientState returns an active mock client at height.
func NewClientState(height clienttypes.Height) *ClientState {
	return &ClientState{Height: height.Ptr()}
}

func (*ClientState) ClientType() string { return ClientType }

func (cs *ClientState) LatestHeight() clienttypes.Height { return clienttypes.HeightFromPtr(cs.Height) }

func (cs *ClientState) Validate() error {
	if cs.LatestHeight().IsZero() {
		return fmt.Errorf("%w: zero latest height", clienttypes.ErrInvalidClientState)
	}
	return nil
}

func (cs *ClientState) Status(exported.ClientReader, host.ClientID) exported.Status {
	if cs.Frozen {
		return clienttypes.Frozen
	}
	return clienttypes.Active
}

func (cs *ClientState) ValidateProofHeight(proofHeight clienttypes.Height) error {
	if latest := cs.LatestHeight(); latest.LT(proofHeight) {
		return clienttypes.ErrInvalidProofHeight{LatestHeight: latest, ProofHeight: proofHeight}
	}
	return nil
}

func (cs *ClientState) Initialise(ctx exported.ClientExecutionContext, clientID host.ClientID, consensusState exported.ConsensusState) error {
	if _, ok := consensusState.(*ConsensusState); !ok {
		return fmt.Errorf("%w: expected %T, got %T", clienttypes.ErrInvalidConsensusState, &ConsensusState{}, consensusState)
	}
	if err := ctx.StoreClientState(clientID, cs); err != nil {
		return err
	}
	return ctx.StoreConsensusState(clientID, cs.LatestHeight(), consensusState)
}

func (*ClientState) VerifyMembership(_ commitment.Prefix, proof commitment.Proof, _ commitment.Root, _ string, _ []byte) error {
	if len(proof) == 0 {
		return ErrInvalidProof
	}
	return nil
}

func (*ClientState) VerifyNonMembership(_ commitment.Prefix, proof commitment.Proof, _ commitment.Root, _ string) error {
	if len(proof) == 0 {
		return ErrInvalidProof
	}
	return nil
}

func (*ClientState) VerifyClientMessage(_ exported.ClientReader, _ host.ClientID, msg exported.ClientMessage) error {
	switch msg.(type) {
	case *Header, *Misbehaviour:
		return nil
	default:
		return fmt.Errorf("%w: unexpected %T", clienttypes.ErrInvalidClientMessage, msg)
	}
}

func (*ClientState) CheckForMisbehaviour(_ exported.ClientReader, _ host.ClientID, msg exported.ClientMessage) bool {
	_, ok := msg.(*Misbehaviour)
	return ok
}

func (cs *ClientState) UpdateStateOnMisbehaviour(ctx exported.ClientExecutionContext, clientID host.ClientID, _ exported.ClientMessage) error {
	frozen := *cs
	frozen.Frozen = true
	return ctx.StoreClientState(clientID, &frozen)
}

func (cs *ClientState) UpdateState(ctx exported.ClientExecutionContext, clientID host.ClientID, msg exported.ClientMessage) ([]clienttypes.Height, error) {
	header, ok := msg.(*Header)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %T", clienttypes.ErrInvalidClientMessage, msg)
	}
	height := header.GetHeight()
	if err := ctx.StoreConsensusState(clientID, height, header.ConsensusState()); err != nil {
		return nil, err
	}
	updated := *cs
	if height.GT(cs.LatestHeight()) {
		updated.Height = height.Ptr()
	}
	if err := ctx.StoreClientState(clientID, &updated); err != nil {
		return nil, err
	}
	return []clienttypes.Height{height}, nil
}

// ConsensusState of the mock client.
type ConsensusState struct {
	Time uint64          `protobuf:"varint,1,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Hash commitment.Root `protobuf:"bytes,2,opt,name=root,proto3" json:"root,omitempty"`
}

func (cs *ConsensusState) Reset()         { *cs = ConsensusState{} }
func (cs *ConsensusState) String() string { return proto.CompactTextString(cs) }
func (*ConsensusState) ProtoMessage()     {}

var _ exported.ConsensusState = (*ConsensusState)(nil)

func (*ConsensusState) ClientType() string       { return ClientType }
func (cs *ConsensusState) Root() commitment.Root { return cs.Hash }
func (cs *ConsensusState) Timestamp() uint64     { return cs.Time }
func (cs *ConsensusState) ValidateBasic() error {
	if cs.Time == 0 {
		return fmt.Errorf("%w: zero timestamp", clienttypes.ErrInvalidConsensusState)
	}
	return nil
}

// Header moves the mock client to a new height.
type Header struct {
	Height *clienttypes.Height `protobuf:"bytes,1,opt,name=height,proto3" json:"height"`
	Time   uint64              `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Root   commitment.Root     `protobuf:"bytes,3,opt,name=root,proto3" json:"root,omitempty"`
}

func (h *Header) Reset()         { *h = Header{} }
func (h *Header) String() string { return proto.CompactTextString(h) }
func (*Header) ProtoMessage()    {}

var _ exported.ClientMessage = (*Header)(nil)

func (*Header) ClientType() string { return ClientType }

func (h *Header) GetHeight() clienttypes.Height { return clienttypes.HeightFromPtr(h.Height) }

func (h *Header) ValidateBasic() error {
	if h.GetHeight().IsZero() {
		return fmt.Errorf("%w: zero height", clienttypes.ErrInvalidHeader)
	}
	if h.Time == 0 {
		return fmt.Errorf("%w: zero timestamp", clienttypes.ErrInvalidHeader)
	}
	return nil
}

// ConsensusState returns the consensus state the header produces.
func (h *Header) ConsensusState() *ConsensusState {
	return &ConsensusState{Time: h.Time, Hash: h.Root}
}

// Misbehaviour freezes the mock client.
type Misbehaviour struct{}

func (m *Misbehaviour) Reset()         { *m = Misbehaviour{} }
func (m *Misbehaviour) String() string { return proto.CompactTextString(m) }
func (*Misbehaviour) ProtoMessage()    {}

var _ exported.ClientMessage = (*Misbehaviour)(nil)

func (*Misbehaviour) ClientType() string   { return ClientType }
func (*Misbehaviour) ValidateBasic() error { return nil }
