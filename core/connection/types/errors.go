package types

import (
	"errors"
	"fmt"
	"time"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/host"
)

var (
	ErrConnectionExists    = errors.New("connection already exists")
	ErrInvalidConnection   = errors.New("invalid connection")
	ErrInvalidCounterparty = errors.New("invalid counterparty connection")
	ErrInvalidVersion      = errors.New("invalid connection version")
	ErrNoCommonVersion     = errors.New("no common connection version")
	ErrClientConnectionIDs = errors.New("invalid client connection paths")
	ErrInvalidDelayPeriod  = errors.New("invalid delay period")
)

// ErrConnectionNotFound is returned when no connection end is stored under
// ConnectionID.
type ErrConnectionNotFound struct {
	ConnectionID host.ConnectionID
}

func (e ErrConnectionNotFound) Error() string {
	return fmt.Sprintf("connection %s not found", e.ConnectionID)
}

// ErrInvalidConnectionState is returned when a handshake step finds the
// connection end in an unexpected state.
type ErrInvalidConnectionState struct {
	ConnectionID host.ConnectionID
	Expected     State
	Actual       State
}

func (e ErrInvalidConnectionState) Error() string {
	return fmt.Sprintf("connection %s state is %s, expected %s", e.ConnectionID, e.Actual, e.Expected)
}

// ErrVersionNotSupported is returned when a proposed version is not one the
// host supports.
type ErrVersionNotSupported struct {
	Version *Version
}

func (e ErrVersionNotSupported) Error() string {
	return fmt.Sprintf("connection version %v is not supported", e.Version)
}

// ErrInvalidConsensusHeight is returned when a counterparty claims a
// consensus height of the host that is not in the past.
type ErrInvalidConsensusHeight struct {
	ConsensusHeight clienttypes.Height
	HostHeight      clienttypes.Height
}

func (e ErrInvalidConsensusHeight) Error() string {
	return fmt.Sprintf("consensus height %s must be lower than the host height %s", e.ConsensusHeight, e.HostHeight)
}

// ErrDelayPeriodNotPassed is returned when a proof is submitted before the
// connection delay elapsed on the host.
type ErrDelayPeriodNotPassed struct {
	ProcessedTime   time.Time
	HostTime        time.Time
	ProcessedHeight clienttypes.Height
	HostHeight      clienttypes.Height
	TimeDelay       time.Duration
	BlockDelay      uint64
}

func (e ErrDelayPeriodNotPassed) Error() string {
	return fmt.Sprintf("delay period not passed: processed at %s (height %s), host at %s (height %s), time delay %s, block delay %d",
		e.ProcessedTime.UTC().Format(time.RFC3339Nano), e.ProcessedHeight,
		e.HostTime.UTC().Format(time.RFC3339Nano), e.HostHeight,
		e.TimeDelay, e.BlockDelay)
}

// ErrVerificationFailed is returned when the counterparty's proof of one of
// its stored values fails.
type ErrVerificationFailed struct {
	// What was being verified, e.g. "connection state".
	What string
	Err  error
}

func (e ErrVerificationFailed) Error() string {
	return fmt.Sprintf("failed to verify %s: %v", e.What, e.Err)
}

func (e ErrVerificationFailed) Unwrap() error {
	return e.Err
}

// ConnectionError reports a failure of a connection-layer operation. Client
// errors that surface while handling a connection message end up wrapped in
// it.
type ConnectionError struct {
	ConnectionID host.ConnectionID
	Err          error
}

func (e ConnectionError) Error() string {
	if e.ConnectionID == "" {
		return fmt.Sprintf("connection: %v", e.Err)
	}
	return fmt.Sprintf("connection %s: %v", e.ConnectionID, e.Err)
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}

// WrapConnectionError wraps err unless it is nil or already a
// ConnectionError.
func WrapConnectionError(connectionID host.ConnectionID, err error) error {
	if err == nil {
		return nil
	}
	var ce ConnectionError
	if errors.As(err, &ce) {
		return err
	}
	return ConnectionError{ConnectionID: connectionID, Err: err}
}
