package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/ibc/core/host"
)

var (
	ErrInvalidHeight                = errors.New("invalid height")
	ErrClientExists                 = errors.New("light client already exists")
	ErrInvalidClient                = errors.New("light client is invalid")
	ErrInvalidClientType            = errors.New("invalid client type")
	ErrClientTypeNotSupported       = errors.New("client type not supported")
	ErrInvalidClientState           = errors.New("invalid client state")
	ErrInvalidConsensusState        = errors.New("invalid consensus state")
	ErrInvalidClientMessage         = errors.New("invalid client message")
	ErrInvalidHeader                = errors.New("invalid client header")
	ErrInvalidProof                 = errors.New("invalid proof")
	ErrFailedMembershipVerification = errors.New("membership verification failed")
	ErrFailedNonMembershipVerify    = errors.New("non-membership verification failed")
	ErrInvalidSelfClient            = errors.New("invalid client state of the host chain")
	ErrMissingProcessedTime         = errors.New("processed time not found")
	ErrMissingProcessedHeight       = errors.New("processed height not found")
)

// ErrClientNotFound is returned when no client state is stored under ClientID.
type ErrClientNotFound struct {
	ClientID host.ClientID
}

func (e ErrClientNotFound) Error() string {
	return fmt.Sprintf("light client %s not found", e.ClientID)
}

// ErrConsensusStateNotFound is returned when the client has no consensus
// state at Height.
type ErrConsensusStateNotFound struct {
	ClientID host.ClientID
	Height   Height
}

func (e ErrConsensusStateNotFound) Error() string {
	return fmt.Sprintf("consensus state for client %s at height %s not found", e.ClientID, e.Height)
}

// ErrClientNotActive is returned when a client must be Active and is not.
type ErrClientNotActive struct {
	ClientID host.ClientID
	Status   Status
}

func (e ErrClientNotActive) Error() string {
	return fmt.Sprintf("client %s is not active, status: %s", e.ClientID, e.Status)
}

// ErrInvalidProofHeight is returned when a proof is claimed at a height the
// client has not reached.
type ErrInvalidProofHeight struct {
	LatestHeight Height
	ProofHeight  Height
}

func (e ErrInvalidProofHeight) Error() string {
	return fmt.Sprintf("client latest height %s is lower than proof height %s", e.LatestHeight, e.ProofHeight)
}

// ClientError reports a failure of a client-layer operation, naming the
// client involved. Handlers convert every client failure into a ClientError.
type ClientError struct {
	ClientID host.ClientID
	Err      error
}

func (e ClientError) Error() string {
	return fmt.Sprintf("client %s: %v", e.ClientID, e.Err)
}

func (e ClientError) Unwrap() error {
	return e.Err
}

// WrapClientError wraps err unless it is nil or already a ClientError.
func WrapClientError(clientID host.ClientID, err error) error {
	if err == nil {
		return nil
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return err
	}
	return ClientError{ClientID: clientID, Err: err}
}
