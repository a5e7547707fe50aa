package client

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
)

// Codec decodes the client states, consensus states and client messages of
// the light clients registered with it. It implements exported.ClientCodec.
type Codec struct {
	clientStates    map[string]struct{}
	consensusStates map[string]struct{}
	clientMessages  map[string]struct{}
}

var _ exported.ClientCodec = (*Codec)(nil)

// NewCodec returns a codec with no light client registered.
func NewCodec() *Codec {
	return &Codec{
		clientStates:    make(map[string]struct{}),
		consensusStates: make(map[string]struct{}),
		clientMessages:  make(map[string]struct{}),
	}
}

// RegisterClientState allows the client state type of cs to be decoded.
func (c *Codec) RegisterClientState(cs exported.ClientState) {
	c.clientStates[proto.MessageName(cs)] = struct{}{}
}

// RegisterConsensusState allows the consensus state type of cs to be
// decoded.
func (c *Codec) RegisterConsensusState(cs exported.ConsensusState) {
	c.consensusStates[proto.MessageName(cs)] = struct{}{}
}

// RegisterClientMessage allows the client message type of msg to be
// decoded.
func (c *Codec) RegisterClientMessage(msg exported.ClientMessage) {
	c.clientMessages[proto.MessageName(msg)] = struct{}{}
}

// UnpackClientState decodes a registered client state.
func (c *Codec) UnpackClientState(any *codectypes.Any) (exported.ClientState, error) {
	msg, err := unpack(any, c.clientStates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clienttypes.ErrInvalidClientState, err)
	}
	cs, ok := msg.(exported.ClientState)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a client state", clienttypes.ErrInvalidClientState, msg)
	}
	return cs, nil
}

// UnpackConsensusState decodes a registered consensus state.
func (c *Codec) UnpackConsensusState(any *codectypes.Any) (exported.ConsensusState, error) {
	msg, err := unpack(any, c.consensusStates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clienttypes.ErrInvalidConsensusState, err)
	}
	cs, ok := msg.(exported.ConsensusState)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a consensus state", clienttypes.ErrInvalidConsensusState, msg)
	}
	return cs, nil
}

// UnpackClientMessage decodes a registered client message.
func (c *Codec) UnpackClientMessage(any *codectypes.Any) (exported.ClientMessage, error) {
	msg, err := unpack(any, c.clientMessages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clienttypes.ErrInvalidClientMessage, err)
	}
	cm, ok := msg.(exported.ClientMessage)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a client message", clienttypes.ErrInvalidClientMessage, msg)
	}
	return cm, nil
}

func unpack(any *codectypes.Any, allowed map[string]struct{}) (proto.Message, error) {
	if any == nil {
		return nil, fmt.Errorf("empty Any")
	}
	name, err := codectypes.AnyMessageName(any)
	if err != nil {
		return nil, err
	}
	if _, ok := allowed[name]; !ok {
		return nil, fmt.Errorf("type URL %q is not registered", any.TypeUrl)
	}
	msg, err := codectypes.EmptyAny(any)
	if err != nil {
		return nil, err
	}
	if err := codectypes.UnmarshalAny(any, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
