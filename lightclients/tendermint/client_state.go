// Package tendermint implements a light client of Tendermint-style chains.
// Headers are hash linked through their validator set hashes and commitment
// proofs are Merkle proofs of the counterparty application hash. Commit
// signatures are not checked.
package tendermint

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/crypto/merkle"
)

// ClientType is the Tendermint client type.
const ClientType = "07-tendermint"

// FrozenHeight is set on the client state when misbehaviour is detected.
var FrozenHeight = clienttypes.NewHeight(0, 1)

func init() {
	proto.RegisterType((*ClientState)(nil), "ibc.lightclients.tendermint.v1.ClientState")
	proto.RegisterType((*ConsensusState)(nil), "ibc.lightclients.tendermint.v1.ConsensusState")
	proto.RegisterType((*Header)(nil), "ibc.lightclients.tendermint.v1.Header")
	proto.RegisterType((*Misbehaviour)(nil), "ibc.lightclients.tendermint.v1.Misbehaviour")
}

var proofRuntime = merkle.DefaultProofRuntime()

// ClientState of a Tendermint light client.
type ClientState struct {
	ChainID         string              `protobuf:"bytes,1,opt,name=chain_id,json=chainId,proto3" json:"chain_id"`
	TrustingPeriod  time.Duration       `protobuf:"varint,2,opt,name=trusting_period,json=trustingPeriod,proto3" json:"trusting_period"`
	UnbondingPeriod time.Duration       `protobuf:"varint,3,opt,name=unbonding_period,json=unbondingPeriod,proto3" json:"unbonding_period"`
	MaxClockDrift   time.Duration       `protobuf:"varint,4,opt,name=max_clock_drift,json=maxClockDrift,proto3" json:"max_clock_drift"`
	FrozenHeight    *clienttypes.Height `protobuf:"bytes,5,opt,name=frozen_height,json=frozenHeight,proto3" json:"frozen_height"`
	Latest          *clienttypes.Height `protobuf:"bytes,6,opt,name=latest_height,json=latestHeight,proto3" json:"latest_height"`
}

func (cs *ClientState) Reset()         { *cs = ClientState{} }
func (cs *ClientState) String() string { return proto.CompactTextString(cs) }
func (*ClientState) ProtoMessage()     {}

var _ exported.ClientState = (*ClientState)(nil)

// NewClientState returns an unfrozen client state.
func NewClientState(
	chainID string, trustingPeriod, unbondingPeriod, maxClockDrift time.Duration, latestHeight clienttypes.Height,
) *ClientState {
	return &ClientState{
		ChainID:         chainID,
		TrustingPeriod:  trustingPeriod,
		UnbondingPeriod: unbondingPeriod,
		MaxClockDrift:   maxClockDrift,
		Latest:          latestHeight.Ptr(),
	}
}

func (*ClientState) ClientType() string { return ClientType }

func (cs *ClientState) LatestHeight() clienttypes.Height { return clienttypes.HeightFromPtr(cs.Latest) }

// IsFrozen reports whether misbehaviour froze the client.
func (cs *ClientState) IsFrozen() bool { return !clienttypes.HeightFromPtr(cs.FrozenHeight).IsZero() }

func (cs *ClientState) Validate() error {
	if cs.ChainID == "" {
		return ErrInvalidChainID
	}
	if cs.TrustingPeriod <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidTrustingPeriod, cs.TrustingPeriod)
	}
	if cs.UnbondingPeriod <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidUnbondingPeriod, cs.UnbondingPeriod)
	}
	if cs.TrustingPeriod >= cs.UnbondingPeriod {
		return fmt.Errorf("%w: trusting period %v must be shorter than unbonding period %v",
			ErrInvalidTrustingPeriod, cs.TrustingPeriod, cs.UnbondingPeriod)
	}
	if cs.MaxClockDrift <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidMaxClockDrift, cs.MaxClockDrift)
	}
	latest := cs.LatestHeight()
	if latest.RevisionHeight == 0 {
		return fmt.Errorf("%w: latest height revision height cannot be zero", clienttypes.ErrInvalidHeight)
	}
	if revision := clienttypes.ParseChainID(cs.ChainID); revision != latest.RevisionNumber {
		return fmt.Errorf("%w: latest height revision number %d does not match chain-id %s",
			clienttypes.ErrInvalidHeight, latest.RevisionNumber, cs.ChainID)
	}
	return nil
}

// Status is Frozen after misbehaviour and Expired once the latest consensus
// state is older than the trusting period.
func (cs *ClientState) Status(ctx exported.ClientReader, clientID host.ClientID) exported.Status {
	if cs.IsFrozen() {
		return clienttypes.Frozen
	}
	consensusState, err := ctx.ConsensusState(clientID, cs.LatestHeight())
	if err != nil {
		return clienttypes.Expired
	}
	if cs.expired(consensusState.Timestamp(), ctx.HostTimestamp()) {
		return clienttypes.Expired
	}
	return clienttypes.Active
}

func (cs *ClientState) expired(consensusTimestamp, now uint64) bool {
	expiry := time.Unix(0, int64(consensusTimestamp)).Add(cs.TrustingPeriod)
	return !expiry.After(time.Unix(0, int64(now)))
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
	if err := cs.Validate(); err != nil {
		return err
	}
	if err := consensusState.ValidateBasic(); err != nil {
		return err
	}
	if err := ctx.StoreClientState(clientID, cs); err != nil {
		return err
	}
	return ctx.StoreConsensusState(clientID, cs.LatestHeight(), consensusState)
}

// VerifyMembership verifies proof, encoded merkle.ProofOps, of value at
// path under prefix against root.
func (cs *ClientState) VerifyMembership(
	prefix commitment.Prefix, proof commitment.Proof, root commitment.Root, path string, value []byte,
) error {
	ops, keyPath, err := decodeProof(prefix, proof, root, path)
	if err != nil {
		return err
	}
	if err := proofRuntime.VerifyValue(ops, root, keyPath, value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// VerifyNonMembership verifies proof, encoded merkle.ProofOps, that nothing
// is stored at path under prefix in the store committed to by root.
func (cs *ClientState) VerifyNonMembership(
	prefix commitment.Prefix, proof commitment.Proof, root commitment.Root, path string,
) error {
	ops, keyPath, err := decodeProof(prefix, proof, root, path)
	if err != nil {
		return err
	}
	if err := proofRuntime.VerifyAbsence(ops, root, keyPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

func decodeProof(prefix commitment.Prefix, proof commitment.Proof, root commitment.Root, path string) (*merkle.ProofOps, string, error) {
	if root.Empty() {
		return nil, "", commitment.ErrEmptyRoot
	}
	ops, err := merkle.ProofOpsFromBytes(proof)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	keyPath, err := commitment.ApplyPrefix(prefix, path)
	if err != nil {
		return nil, "", err
	}
	return ops, keyPath, nil
}

// VerifyClientMessage verifies a header against the consensus state at its
// trusted height, or both headers of a misbehaviour.
func (cs *ClientState) VerifyClientMessage(ctx exported.ClientReader, clientID host.ClientID, msg exported.ClientMessage) error {
	switch msg := msg.(type) {
	case *Header:
		return cs.verifyHeader(ctx, clientID, msg)
	case *Misbehaviour:
		return cs.verifyMisbehaviour(ctx, clientID, msg)
	default:
		return fmt.Errorf("%w: unexpected %T", clienttypes.ErrInvalidClientMessage, msg)
	}
}

func (cs *ClientState) verifyHeader(ctx exported.ClientReader, clientID host.ClientID, header *Header) error {
	if err := header.ValidateBasic(); err != nil {
		return err
	}
	if header.ChainID != cs.ChainID {
		return ErrInvalidHeader{fmt.Errorf("header chain-id %s does not match client chain-id %s", header.ChainID, cs.ChainID)}
	}
	trustedHeight := header.GetTrustedHeight()
	consensusState, err := ctx.ConsensusState(clientID, trustedHeight)
	if err != nil {
		return err
	}
	trusted, ok := consensusState.(*ConsensusState)
	if !ok {
		return fmt.Errorf("%w: unexpected %T", clienttypes.ErrInvalidConsensusState, consensusState)
	}
	if header.GetHeight().RevisionNumber != trustedHeight.RevisionNumber {
		return ErrInvalidHeader{fmt.Errorf("header revision %d does not match trusted revision %d",
			header.GetHeight().RevisionNumber, trustedHeight.RevisionNumber)}
	}
	return verify(trusted, header, cs.TrustingPeriod, time.Unix(0, int64(ctx.HostTimestamp())), cs.MaxClockDrift)
}

// verify checks untrusted against the trusted consensus state. The header
// must be newer, not from the future, and carry the validator set the
// trusted state announced.
func verify(trusted *ConsensusState, untrusted *Header, trustingPeriod time.Duration, now time.Time, maxClockDrift time.Duration) error {
	if expiry := trusted.GetTime().Add(trustingPeriod); !expiry.After(now) {
		return ErrOldHeaderExpired{At: expiry, Now: now}
	}
	if untrusted.Time <= trusted.Time {
		return ErrInvalidHeader{fmt.Errorf("expected new header time %v to be after trusted header time %v",
			untrusted.GetTime(), trusted.GetTime())}
	}
	if !untrusted.GetTime().Before(now.Add(maxClockDrift)) {
		return ErrInvalidHeader{fmt.Errorf("new header has a time from the future %v (now: %v; max clock drift: %v)",
			untrusted.GetTime(), now, maxClockDrift)}
	}
	if !bytes.Equal(untrusted.ValidatorsHash, trusted.NextValidatorsHash) {
		return ErrInvalidHeader{fmt.Errorf("expected trusted next validators (%X) to match those from new header (%X)",
			trusted.NextValidatorsHash, untrusted.ValidatorsHash)}
	}
	return nil
}

func (cs *ClientState) verifyMisbehaviour(ctx exported.ClientReader, clientID host.ClientID, misbehaviour *Misbehaviour) error {
	if err := misbehaviour.ValidateBasic(); err != nil {
		return err
	}
	if err := cs.verifyHeader(ctx, clientID, misbehaviour.Header1); err != nil {
		return fmt.Errorf("%w: header 1: %v", ErrInvalidMisbehaviour, err)
	}
	if err := cs.verifyHeader(ctx, clientID, misbehaviour.Header2); err != nil {
		return fmt.Errorf("%w: header 2: %v", ErrInvalidMisbehaviour, err)
	}
	if !misbehaviour.conflicting() {
		return fmt.Errorf("%w: headers do not conflict", ErrInvalidMisbehaviour)
	}
	return nil
}

// CheckForMisbehaviour reports a verified misbehaviour, or a header that
// conflicts with the consensus state already stored at its height.
func (cs *ClientState) CheckForMisbehaviour(ctx exported.ClientReader, clientID host.ClientID, msg exported.ClientMessage) bool {
	switch msg := msg.(type) {
	case *Misbehaviour:
		return true
	case *Header:
		existing, err := ctx.ConsensusState(clientID, msg.GetHeight())
		if err != nil {
			return false
		}
		stored, ok := existing.(*ConsensusState)
		return !ok || !stored.Equal(msg.ConsensusState())
	default:
		return false
	}
}

func (cs *ClientState) UpdateStateOnMisbehaviour(ctx exported.ClientExecutionContext, clientID host.ClientID, _ exported.ClientMessage) error {
	frozen := *cs
	frozen.FrozenHeight = FrozenHeight.Ptr()
	return ctx.StoreClientState(clientID, &frozen)
}

// UpdateState stores the consensus state of a verified header and advances
// the latest height. A header already applied changes nothing.
func (cs *ClientState) UpdateState(ctx exported.ClientExecutionContext, clientID host.ClientID, msg exported.ClientMessage) ([]clienttypes.Height, error) {
	header, ok := msg.(*Header)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %T", clienttypes.ErrInvalidClientMessage, msg)
	}
	height := header.GetHeight()
	if _, err := ctx.ConsensusState(clientID, height); err == nil {
		return []clienttypes.Height{height}, nil
	}

	if err := ctx.StoreConsensusState(clientID, height, header.ConsensusState()); err != nil {
		return nil, err
	}
	updated := *cs
	if height.GT(cs.LatestHeight()) {
		updated.Latest = height.Ptr()
	}
	if err := ctx.StoreClientState(clientID, &updated); err != nil {
		return nil, err
	}
	return []clienttypes.Height{height}, nil
}
