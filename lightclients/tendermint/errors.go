package tendermint

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidChainID         = errors.New("invalid chain-id")
	ErrInvalidTrustingPeriod  = errors.New("invalid trusting period")
	ErrInvalidUnbondingPeriod = errors.New("invalid unbonding period")
	ErrInvalidMaxClockDrift   = errors.New("invalid max clock drift")
	ErrInvalidMisbehaviour    = errors.New("invalid misbehaviour")
	ErrInvalidProof           = errors.New("invalid merkle proof")
)

// ErrOldHeaderExpired means the trusted consensus state is older than the
// trusting period. The client has to be replaced.
type ErrOldHeaderExpired struct {
	At  time.Time
	Now time.Time
}

func (e ErrOldHeaderExpired) Error() string {
	return fmt.Sprintf("trusted header has expired at %v (now: %v)", e.At, e.Now)
}

// ErrInvalidHeader means the header failed verification against the trusted
// consensus state.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

func (e ErrInvalidHeader) Unwrap() error {
	return e.Reason
}
