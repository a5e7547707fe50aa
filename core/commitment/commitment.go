package commitment

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/crypto/merkle"
)

var (
	ErrEmptyPrefix = errors.New("commitment prefix cannot be empty")
	ErrEmptyRoot   = errors.New("commitment root cannot be empty")
	ErrEmptyProof  = errors.New("commitment proof cannot be empty")
)

// Prefix is the store prefix a chain applies to every IBC path before it
// commits it, e.g. "ibc".
type Prefix []byte

// Bytes returns the raw prefix.
func (p Prefix) Bytes() []byte { return p }

// Empty reports whether the prefix is unset.
func (p Prefix) Empty() bool { return len(p) == 0 }

// Validate rejects the empty prefix.
func (p Prefix) Validate() error {
	if p.Empty() {
		return ErrEmptyPrefix
	}
	return nil
}

// Root is the commitment root a light client verifies proofs against, the
// application hash of the counterparty at some height.
type Root []byte

// Empty reports whether the root is unset.
func (r Root) Empty() bool { return len(r) == 0 }

func (r Root) String() string { return fmt.Sprintf("%X", []byte(r)) }

// Proof is an opaque encoded proof as carried by messages.
type Proof []byte

// Validate rejects the empty proof.
func (p Proof) Validate() error {
	if len(p) == 0 {
		return ErrEmptyProof
	}
	return nil
}

// ApplyPrefix returns the Merkle key path of an ICS-24 path under prefix:
// the outer key is the prefix and the inner key is the path.
func ApplyPrefix(prefix Prefix, path string) (string, error) {
	if err := prefix.Validate(); err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	return merkle.KeyPath{}.
		AppendKey(prefix, merkle.KeyEncodingURL).
		AppendKey([]byte(path), merkle.KeyEncodingURL).
		String(), nil
}

// CommitPacket returns the packet commitment stored by the sending chain:
//
//	sha256(be64(timeout_timestamp) || be64(timeout_revision_number) ||
//	       be64(timeout_revision_height) || sha256(data))
//
// A zero timeout height contributes eight zero bytes for each field.
func CommitPacket(data []byte, timeoutHeight clienttypes.Height, timeoutTimestamp uint64) []byte {
	buf := make([]byte, 8*3, 8*3+sha256.Size)
	binary.BigEndian.PutUint64(buf[0:8], timeoutTimestamp)
	binary.BigEndian.PutUint64(buf[8:16], timeoutHeight.RevisionNumber)
	binary.BigEndian.PutUint64(buf[16:24], timeoutHeight.RevisionHeight)

	dataHash := sha256.Sum256(data)
	buf = append(buf, dataHash[:]...)

	hash := sha256.Sum256(buf)
	return hash[:]
}

// CommitAcknowledgement returns sha256(ack).
func CommitAcknowledgement(ack []byte) []byte {
	hash := sha256.Sum256(ack)
	return hash[:]
}
