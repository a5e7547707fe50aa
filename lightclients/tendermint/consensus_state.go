package tendermint

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/exported"
)

// ConsensusState is what the client remembers of a verified header.
type ConsensusState struct {
	// nanoseconds since the epoch
	Time               uint64          `protobuf:"varint,1,opt,name=timestamp,proto3" json:"timestamp"`
	AppHash            commitment.Root `protobuf:"bytes,2,opt,name=root,proto3" json:"root"`
	NextValidatorsHash []byte          `protobuf:"bytes,3,opt,name=next_validators_hash,json=nextValidatorsHash,proto3" json:"next_validators_hash"`
}

func (cs *ConsensusState) Reset()         { *cs = ConsensusState{} }
func (cs *ConsensusState) String() string { return proto.CompactTextString(cs) }
func (*ConsensusState) ProtoMessage()     {}

var _ exported.ConsensusState = (*ConsensusState)(nil)

// NewConsensusState returns a consensus state.
func NewConsensusState(timestamp time.Time, root commitment.Root, nextValidatorsHash []byte) *ConsensusState {
	return &ConsensusState{
		Time:               uint64(timestamp.UnixNano()),
		AppHash:            root,
		NextValidatorsHash: nextValidatorsHash,
	}
}

func (*ConsensusState) ClientType() string { return ClientType }

func (cs *ConsensusState) Root() commitment.Root { return cs.AppHash }

func (cs *ConsensusState) Timestamp() uint64 { return cs.Time }

// Equal reports whether both states commit to the same header.
func (cs *ConsensusState) Equal(other *ConsensusState) bool {
	return cs.Time == other.Time &&
		bytes.Equal(cs.AppHash, other.AppHash) &&
		bytes.Equal(cs.NextValidatorsHash, other.NextValidatorsHash)
}

// GetTime returns the timestamp as a time.Time.
func (cs *ConsensusState) GetTime() time.Time {
	return time.Unix(0, int64(cs.Time)).UTC()
}

func (cs *ConsensusState) ValidateBasic() error {
	if cs.AppHash.Empty() {
		return fmt.Errorf("%w: %v", clienttypes.ErrInvalidConsensusState, commitment.ErrEmptyRoot)
	}
	if len(cs.NextValidatorsHash) == 0 {
		return fmt.Errorf("%w: %v", clienttypes.ErrInvalidConsensusState, errors.New("next validators hash cannot be empty"))
	}
	if cs.Time == 0 {
		return fmt.Errorf("%w: timestamp cannot be zero", clienttypes.ErrInvalidConsensusState)
	}
	return nil
}
