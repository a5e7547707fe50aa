// Package client implements the create and update client handlers.
package client

import (
	"fmt"
	"strings"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ValidateCreateClient checks the initial client and consensus states of a
// new client.
func ValidateCreateClient(ctx exported.ValidationContext, msg *clienttypes.MsgCreateClient) error {
	clientState, consensusState, err := unpackCreateClient(ctx, msg)
	if err != nil {
		return clienttypes.WrapClientError("", err)
	}
	if clientState.ClientType() != consensusState.ClientType() {
		return clienttypes.WrapClientError("", fmt.Errorf("%w: client type %s does not match consensus state type %s",
			clienttypes.ErrInvalidClientType, clientState.ClientType(), consensusState.ClientType()))
	}
	if _, err := ctx.ClientCounter(); err != nil {
		return clienttypes.WrapClientError("", err)
	}
	return nil
}

// ExecuteCreateClient allocates the client identifier and stores the client
// with its initial consensus state.
func ExecuteCreateClient(ctx exported.ExecutionContext, msg *clienttypes.MsgCreateClient) error {
	clientState, consensusState, err := unpackCreateClient(ctx, msg)
	if err != nil {
		return clienttypes.WrapClientError("", err)
	}
	counter, err := ctx.ClientCounter()
	if err != nil {
		return clienttypes.WrapClientError("", err)
	}
	clientType := clientState.ClientType()
	clientID := host.FormatClientID(clientType, counter)

	if _, err := ctx.ClientState(clientID); err == nil {
		return clienttypes.WrapClientError(clientID, clienttypes.ErrClientExists)
	}
	if err := clientState.Initialise(ctx, clientID, consensusState); err != nil {
		return clienttypes.WrapClientError(clientID, err)
	}
	latest := clientState.LatestHeight()
	if err := ctx.StoreUpdateMeta(clientID, latest, ctx.HostTimestamp(), ctx.HostHeight()); err != nil {
		return clienttypes.WrapClientError(clientID, err)
	}
	if err := ctx.IncreaseClientCounter(); err != nil {
		return clienttypes.WrapClientError(clientID, err)
	}

	ctx.EmitEvent(exported.NewMessageEvent(clienttypes.AttributeValueCategory))
	ctx.EmitEvent(exported.NewEvent(clienttypes.EventTypeCreateClient,
		exported.NewAttribute(clienttypes.AttributeKeyClientID, clientID.String()),
		exported.NewAttribute(clienttypes.AttributeKeyClientType, clientType),
		exported.NewAttribute(clienttypes.AttributeKeyConsensusHeight, latest.String()),
	))
	ctx.LogMessage("client created", "client_id", clientID, "height", latest)
	return nil
}

// ValidateUpdateClient checks the client is active and verifies the client
// message against it.
func ValidateUpdateClient(ctx exported.ValidationContext, msg *clienttypes.MsgUpdateClient) error {
	clientState, clientMsg, err := prepareUpdate(ctx, msg)
	if err != nil {
		return clienttypes.WrapClientError(msg.ClientID, err)
	}
	if err := clientState.VerifyClientMessage(ctx, msg.ClientID, clientMsg); err != nil {
		return clienttypes.WrapClientError(msg.ClientID, err)
	}
	return nil
}

// ExecuteUpdateClient freezes the client on misbehaviour and otherwise
// applies the update, recording when each new consensus state was stored.
func ExecuteUpdateClient(ctx exported.ExecutionContext, msg *clienttypes.MsgUpdateClient) error {
	clientState, clientMsg, err := prepareUpdate(ctx, msg)
	if err != nil {
		return clienttypes.WrapClientError(msg.ClientID, err)
	}
	clientType := clientState.ClientType()

	ctx.EmitEvent(exported.NewMessageEvent(clienttypes.AttributeValueCategory))

	if clientState.CheckForMisbehaviour(ctx, msg.ClientID, clientMsg) {
		if err := clientState.UpdateStateOnMisbehaviour(ctx, msg.ClientID, clientMsg); err != nil {
			return clienttypes.WrapClientError(msg.ClientID, err)
		}
		ctx.EmitEvent(exported.NewEvent(clienttypes.EventTypeClientMisbehaviour,
			exported.NewAttribute(clienttypes.AttributeKeyClientID, msg.ClientID.String()),
			exported.NewAttribute(clienttypes.AttributeKeyClientType, clientType),
		))
		ctx.LogMessage("client frozen due to misbehaviour", "client_id", msg.ClientID)
		return nil
	}

	heights, err := clientState.UpdateState(ctx, msg.ClientID, clientMsg)
	if err != nil {
		return clienttypes.WrapClientError(msg.ClientID, err)
	}
	hostTimestamp, hostHeight := ctx.HostTimestamp(), ctx.HostHeight()
	consensusHeights := make([]string, 0, len(heights))
	for _, height := range heights {
		if err := ctx.StoreUpdateMeta(msg.ClientID, height, hostTimestamp, hostHeight); err != nil {
			return clienttypes.WrapClientError(msg.ClientID, err)
		}
		consensusHeights = append(consensusHeights, height.String())
	}

	var consensusHeight string
	if len(consensusHeights) > 0 {
		consensusHeight = consensusHeights[0]
	}
	ctx.EmitEvent(exported.NewEvent(clienttypes.EventTypeUpdateClient,
		exported.NewAttribute(clienttypes.AttributeKeyClientID, msg.ClientID.String()),
		exported.NewAttribute(clienttypes.AttributeKeyClientType, clientType),
		exported.NewAttribute(clienttypes.AttributeKeyConsensusHeight, consensusHeight),
		exported.NewAttribute(clienttypes.AttributeKeyConsensusHeights, strings.Join(consensusHeights, ",")),
	))
	ctx.LogMessage("client updated", "client_id", msg.ClientID, "heights", consensusHeights)
	return nil
}

// VerifyActive returns the client state of an Active client.
func VerifyActive(ctx exported.ValidationContext, clientID host.ClientID) (exported.ClientState, error) {
	clientState, err := ctx.ClientState(clientID)
	if err != nil {
		return nil, err
	}
	if status := clientState.Status(ctx, clientID); !status.IsActive() {
		return nil, clienttypes.ErrClientNotActive{ClientID: clientID, Status: status}
	}
	return clientState, nil
}

func unpackCreateClient(ctx exported.ValidationContext, msg *clienttypes.MsgCreateClient) (exported.ClientState, exported.ConsensusState, error) {
	clientState, err := ctx.UnpackClientState(msg.ClientState)
	if err != nil {
		return nil, nil, err
	}
	if err := clientState.Validate(); err != nil {
		return nil, nil, err
	}
	consensusState, err := ctx.UnpackConsensusState(msg.ConsensusState)
	if err != nil {
		return nil, nil, err
	}
	if err := consensusState.ValidateBasic(); err != nil {
		return nil, nil, err
	}
	return clientState, consensusState, nil
}

func prepareUpdate(ctx exported.ValidationContext, msg *clienttypes.MsgUpdateClient) (exported.ClientState, exported.ClientMessage, error) {
	clientState, err := VerifyActive(ctx, msg.ClientID)
	if err != nil {
		return nil, nil, err
	}
	clientMsg, err := ctx.UnpackClientMessage(msg.ClientMessage)
	if err != nil {
		return nil, nil, err
	}
	if err := clientMsg.ValidateBasic(); err != nil {
		return nil, nil, err
	}
	if clientMsg.ClientType() != clientState.ClientType() {
		return nil, nil, fmt.Errorf("%w: message for %s sent to %s client",
			clienttypes.ErrInvalidClientType, clientMsg.ClientType(), clientState.ClientType())
	}
	return clientState, clientMsg, nil
}
