package exported

import (
	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/host"
)

// Status is the status of a light client as seen by the host.
type Status = clienttypes.Status

// ClientState defines the required common functions for light clients. The
// core calls into it for every proof and never inspects the concrete type.
type ClientState interface {
	proto.Message

	ClientType() string
	LatestHeight() clienttypes.Height
	Validate() error

	// Status must return the status of the client. Only Active clients are
	// allowed to process packets.
	Status(ctx ClientReader, clientID host.ClientID) Status

	// ValidateProofHeight fails if the client has not reached proofHeight.
	ValidateProofHeight(proofHeight clienttypes.Height) error

	// Initialise is called upon client creation, it allows the client to
	// perform validation on the initial consensus state and set it in the
	// store.
	Initialise(ctx ClientExecutionContext, clientID host.ClientID, consensusState ConsensusState) error

	// VerifyMembership is a generic proof verification method which verifies
	// a proof of the existence of value at path under prefix in the
	// counterparty store committed to by root.
	VerifyMembership(prefix commitment.Prefix, proof commitment.Proof, root commitment.Root, path string, value []byte) error

	// VerifyNonMembership verifies the absence of a value at path under
	// prefix in the counterparty store committed to by root.
	VerifyNonMembership(prefix commitment.Prefix, proof commitment.Proof, root commitment.Root, path string) error

	// VerifyClientMessage must verify a ClientMessage. A ClientMessage could
	// be a Header, Misbehaviour, or batch update. It must handle each type of
	// ClientMessage appropriately. Calls to CheckForMisbehaviour and
	// UpdateState follow it only if it succeeds.
	VerifyClientMessage(ctx ClientReader, clientID host.ClientID, msg ClientMessage) error

	// CheckForMisbehaviour checks for evidence of a misbehaviour in Header or
	// Misbehaviour type. It assumes the ClientMessage has already been
	// verified.
	CheckForMisbehaviour(ctx ClientReader, clientID host.ClientID, msg ClientMessage) bool

	// UpdateStateOnMisbehaviour should perform appropriate state changes on a
	// client state given that misbehaviour has been detected and verified.
	UpdateStateOnMisbehaviour(ctx ClientExecutionContext, clientID host.ClientID, msg ClientMessage) error

	// UpdateState updates and stores as necessary any associated information
	// for an IBC client, such as the ClientState and corresponding
	// ConsensusState. It returns the heights of the consensus states it
	// stored.
	UpdateState(ctx ClientExecutionContext, clientID host.ClientID, msg ClientMessage) ([]clienttypes.Height, error)
}

// ConsensusState is the state of the consensus process.
type ConsensusState interface {
	proto.Message

	ClientType() string

	// Root is the commitment root of the counterparty store, its app hash.
	Root() commitment.Root

	// Timestamp returns the block time in nanoseconds of the header that
	// created the consensus state.
	Timestamp() uint64

	ValidateBasic() error
}

// ClientMessage is an interface used to update an IBC client. The update
// may be done by a single header, a batch of headers, misbehaviour, or any
// type which when verified produces a change to state of the IBC client.
type ClientMessage interface {
	proto.Message

	ClientType() string
	ValidateBasic() error
}

// ClientReader is the read access light clients get to the host.
type ClientReader interface {
	ClientState(clientID host.ClientID) (ClientState, error)
	ConsensusState(clientID host.ClientID, height clienttypes.Height) (ConsensusState, error)
	HostHeight() clienttypes.Height
	// HostTimestamp is the block time of the host in nanoseconds.
	HostTimestamp() uint64
}

// ClientExecutionContext is the write access light clients get to the host.
type ClientExecutionContext interface {
	ClientReader
	StoreClientState(clientID host.ClientID, clientState ClientState) error
	StoreConsensusState(clientID host.ClientID, height clienttypes.Height, consensusState ConsensusState) error
}
