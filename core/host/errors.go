package host

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSequence is returned for the zero packet sequence.
	ErrInvalidSequence = errors.New("sequence cannot be 0")
	// ErrInvalidPath is returned when a string is not a known store path.
	ErrInvalidPath = errors.New("invalid path")
)

// IdentifierError is returned when an identifier fails validation.
type IdentifierError struct {
	ID     string
	Reason string
	Err    error
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.ID, e.Reason)
}

func (e *IdentifierError) Unwrap() error {
	return e.Err
}

// ErrEmptySigner is returned by message validation when no signer is set.
var ErrEmptySigner = errors.New("signer cannot be empty")

// ValidateSigner checks that a message names its signer.
func ValidateSigner(signer string) error {
	if signer == "" {
		return ErrEmptySigner
	}
	return nil
}
