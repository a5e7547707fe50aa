package tendermint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/crypto/merkle"
)

// Header is a block header of the counterparty chain, together with the
// height of the consensus state it is verified against.
type Header struct {
	ChainID            string              `protobuf:"bytes,1,opt,name=chain_id,json=chainId,proto3" json:"chain_id"`
	Height             *clienttypes.Height `protobuf:"bytes,2,opt,name=height,proto3" json:"height"`
	Time               uint64              `protobuf:"varint,3,opt,name=time,proto3" json:"time"`
	AppHash            []byte              `protobuf:"bytes,4,opt,name=app_hash,json=appHash,proto3" json:"app_hash"`
	ValidatorsHash     []byte              `protobuf:"bytes,5,opt,name=validators_hash,json=validatorsHash,proto3" json:"validators_hash"`
	NextValidatorsHash []byte              `protobuf:"bytes,6,opt,name=next_validators_hash,json=nextValidatorsHash,proto3" json:"next_validators_hash"`
	TrustedHeight      *clienttypes.Height `protobuf:"bytes,7,opt,name=trusted_height,json=trustedHeight,proto3" json:"trusted_height"`
}

func (h *Header) Reset()         { *h = Header{} }
func (h *Header) String() string { return proto.CompactTextString(h) }
func (*Header) ProtoMessage()    {}

var _ exported.ClientMessage = (*Header)(nil)

func (*Header) ClientType() string { return ClientType }

// GetHeight returns the height of the header.
func (h *Header) GetHeight() clienttypes.Height { return clienttypes.HeightFromPtr(h.Height) }

// GetTrustedHeight returns the height of the consensus state h is verified
// against.
func (h *Header) GetTrustedHeight() clienttypes.Height {
	return clienttypes.HeightFromPtr(h.TrustedHeight)
}

// GetTime returns the block time.
func (h *Header) GetTime() time.Time { return time.Unix(0, int64(h.Time)).UTC() }

// ConsensusState returns the consensus state the header produces.
func (h *Header) ConsensusState() *ConsensusState {
	return &ConsensusState{Time: h.Time, AppHash: h.AppHash, NextValidatorsHash: h.NextValidatorsHash}
}

// Hash returns the Merkle root of the header fields. Two headers with the
// same height and different hashes are evidence of misbehaviour.
func (h *Header) Hash() []byte {
	height := h.GetHeight()
	return merkle.HashFromByteSlices([][]byte{
		[]byte(h.ChainID),
		uint64Bytes(height.RevisionNumber),
		uint64Bytes(height.RevisionHeight),
		uint64Bytes(h.Time),
		h.AppHash,
		h.ValidatorsHash,
		h.NextValidatorsHash,
	})
}

func (h *Header) ValidateBasic() error {
	if h.ChainID == "" {
		return ErrInvalidHeader{ErrInvalidChainID}
	}
	height := h.GetHeight()
	if height.RevisionHeight == 0 {
		return ErrInvalidHeader{errors.New("header height cannot be zero")}
	}
	if revision := clienttypes.ParseChainID(h.ChainID); revision != height.RevisionNumber {
		return ErrInvalidHeader{fmt.Errorf("revision number %d does not match chain-id %s", height.RevisionNumber, h.ChainID)}
	}
	if h.Time == 0 {
		return ErrInvalidHeader{errors.New("header time cannot be zero")}
	}
	if len(h.AppHash) == 0 {
		return ErrInvalidHeader{errors.New("app hash cannot be empty")}
	}
	if len(h.ValidatorsHash) == 0 || len(h.NextValidatorsHash) == 0 {
		return ErrInvalidHeader{errors.New("validators hashes cannot be empty")}
	}
	if trusted := h.GetTrustedHeight(); trusted.GTE(height) {
		return ErrInvalidHeader{fmt.Errorf("trusted height %s must be lower than header height %s", trusted, height)}
	}
	return nil
}

func uint64Bytes(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

// Misbehaviour is a pair of headers that cannot both have been committed
// by an honest chain: either the same height with different contents, or
// two heights whose times run backwards.
type Misbehaviour struct {
	Header1 *Header `protobuf:"bytes,1,opt,name=header_1,json=header1,proto3" json:"header_1"`
	Header2 *Header `protobuf:"bytes,2,opt,name=header_2,json=header2,proto3" json:"header_2"`
}

func (m *Misbehaviour) Reset()         { *m = Misbehaviour{} }
func (m *Misbehaviour) String() string { return proto.CompactTextString(m) }
func (*Misbehaviour) ProtoMessage()    {}

var _ exported.ClientMessage = (*Misbehaviour)(nil)

func (*Misbehaviour) ClientType() string { return ClientType }

func (m *Misbehaviour) ValidateBasic() error {
	if m.Header1 == nil || m.Header2 == nil {
		return fmt.Errorf("%w: misbehaviour needs two headers", ErrInvalidMisbehaviour)
	}
	if err := m.Header1.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: header 1: %v", ErrInvalidMisbehaviour, err)
	}
	if err := m.Header2.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: header 2: %v", ErrInvalidMisbehaviour, err)
	}
	if m.Header1.ChainID != m.Header2.ChainID {
		return fmt.Errorf("%w: headers are from different chains", ErrInvalidMisbehaviour)
	}
	if m.Header1.GetHeight().LT(m.Header2.GetHeight()) {
		return fmt.Errorf("%w: header 1 height %s is lower than header 2 height %s",
			ErrInvalidMisbehaviour, m.Header1.GetHeight(), m.Header2.GetHeight())
	}
	return nil
}

// conflicting reports whether the two headers are evidence of misbehaviour.
func (m *Misbehaviour) conflicting() bool {
	h1, h2 := m.Header1, m.Header2
	if h1.GetHeight().EQ(h2.GetHeight()) {
		return string(h1.Hash()) != string(h2.Hash())
	}
	// header 1 is higher, so it must be later
	return h1.Time <= h2.Time
}
