// Package connection implements the ICS-03 connection handshake handlers
// and the proof verification helpers shared with the channel handlers.
package connection

import (
	"fmt"

	codectypes "github.com/gogo/protobuf/types"

	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ValidateConnOpenInit checks the local client is active and the proposed
// version, if any, is supported.
func ValidateConnOpenInit(ctx exported.ValidationContext, msg *connectiontypes.MsgConnectionOpenInit) error {
	if _, err := client.VerifyActive(ctx, msg.ClientID); err != nil {
		return connectiontypes.WrapConnectionError("", clienttypes.WrapClientError(msg.ClientID, err))
	}
	if msg.Version != nil && !connectiontypes.IsSupportedVersion(connectiontypes.GetCompatibleVersions(), msg.Version) {
		return connectiontypes.WrapConnectionError("", connectiontypes.ErrVersionNotSupported{Version: msg.Version})
	}
	if _, err := ctx.ConnectionCounter(); err != nil {
		return connectiontypes.WrapConnectionError("", err)
	}
	return nil
}

// ExecuteConnOpenInit stores a new connection end in INIT.
func ExecuteConnOpenInit(ctx exported.ExecutionContext, msg *connectiontypes.MsgConnectionOpenInit) error {
	versions := connectiontypes.GetCompatibleVersions()
	if msg.Version != nil {
		versions = []*connectiontypes.Version{msg.Version}
	}
	connection := connectiontypes.ConnectionEnd{
		State:        connectiontypes.INIT,
		ClientID:     msg.ClientID,
		Counterparty: msg.Counterparty,
		Versions:     versions,
		DelayPeriod:  msg.DelayPeriod,
	}

	connectionID, err := storeNewConnection(ctx, connection)
	if err != nil {
		return connectiontypes.WrapConnectionError(connectionID, err)
	}
	emitConnectionEvent(ctx, connectiontypes.EventTypeConnectionOpenInit, connectionID, connection)
	ctx.LogMessage("connection open init", "connection_id", connectionID, "client_id", msg.ClientID)
	return nil
}

// ValidateConnOpenTry checks the counterparty's client of this chain and
// verifies the counterparty stored a matching INIT end.
func ValidateConnOpenTry(ctx exported.ValidationContext, msg *connectiontypes.MsgConnectionOpenTry) error {
	clientState, err := validateSelfClient(ctx, msg.ClientState, clienttypes.HeightFromPtr(msg.ConsensusHeight))
	if err != nil {
		return connectiontypes.WrapConnectionError("", err)
	}

	prefix := ctx.CommitmentPrefix()
	expectedCounterparty := connectiontypes.NewCounterparty(msg.ClientID, "", prefix)
	expectedConnection := connectiontypes.ConnectionEnd{
		State:        connectiontypes.INIT,
		ClientID:     msg.Counterparty.ClientID,
		Counterparty: &expectedCounterparty,
		Versions:     msg.CounterpartyVersions,
		DelayPeriod:  msg.DelayPeriod,
	}
	// the connection end the proofs are checked against is the one about to
	// be created
	connection := connectiontypes.ConnectionEnd{
		State:        connectiontypes.TRYOPEN,
		ClientID:     msg.ClientID,
		Counterparty: msg.Counterparty,
		DelayPeriod:  msg.DelayPeriod,
	}

	if err := verifyHandshakeProofs(ctx, connection, handshakeProofs{
		proofHeight:        clienttypes.HeightFromPtr(msg.ProofHeight),
		proofConnection:    msg.ProofInit,
		connectionID:       msg.Counterparty.ConnectionID,
		expectedConnection: expectedConnection,
		clientState:        clientState,
		proofClient:        msg.ProofClient,
		consensusHeight:    clienttypes.HeightFromPtr(msg.ConsensusHeight),
		proofConsensus:     msg.ProofConsensus,
	}); err != nil {
		return connectiontypes.WrapConnectionError("", err)
	}

	if _, err := connectiontypes.PickVersion(connectiontypes.GetCompatibleVersions(), msg.CounterpartyVersions); err != nil {
		return connectiontypes.WrapConnectionError("", err)
	}
	return nil
}

// ExecuteConnOpenTry stores a new connection end in TRYOPEN with the
// negotiated version.
func ExecuteConnOpenTry(ctx exported.ExecutionContext, msg *connectiontypes.MsgConnectionOpenTry) error {
	version, err := connectiontypes.PickVersion(connectiontypes.GetCompatibleVersions(), msg.CounterpartyVersions)
	if err != nil {
		return connectiontypes.WrapConnectionError("", err)
	}
	connection := connectiontypes.ConnectionEnd{
		State:        connectiontypes.TRYOPEN,
		ClientID:     msg.ClientID,
		Counterparty: msg.Counterparty,
		Versions:     []*connectiontypes.Version{version},
		DelayPeriod:  msg.DelayPeriod,
	}

	connectionID, err := storeNewConnection(ctx, connection)
	if err != nil {
		return connectiontypes.WrapConnectionError(connectionID, err)
	}
	emitConnectionEvent(ctx, connectiontypes.EventTypeConnectionOpenTry, connectionID, connection)
	ctx.LogMessage("connection open try", "connection_id", connectionID, "version", version.Identifier)
	return nil
}

// ValidateConnOpenAck checks the local end is in INIT, the chosen version is
// one it proposed, and the counterparty stored a matching TRYOPEN end.
func ValidateConnOpenAck(ctx exported.ValidationContext, msg *connectiontypes.MsgConnectionOpenAck) error {
	connection, err := ctx.ConnectionEnd(msg.ConnectionID)
	if err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	if err := connection.VerifyState(msg.ConnectionID, connectiontypes.INIT); err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	if !connectiontypes.IsSupportedVersion(connection.Versions, msg.Version) {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, connectiontypes.ErrVersionNotSupported{Version: msg.Version})
	}
	clientState, err := validateSelfClient(ctx, msg.ClientState, clienttypes.HeightFromPtr(msg.ConsensusHeight))
	if err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}

	prefix := ctx.CommitmentPrefix()
	expectedCounterparty := connectiontypes.NewCounterparty(connection.ClientID, msg.ConnectionID, prefix)
	expectedConnection := connectiontypes.ConnectionEnd{
		State:        connectiontypes.TRYOPEN,
		ClientID:     connection.GetCounterparty().ClientID,
		Counterparty: &expectedCounterparty,
		Versions:     []*connectiontypes.Version{msg.Version},
		DelayPeriod:  connection.DelayPeriod,
	}

	if err := verifyHandshakeProofs(ctx, connection, handshakeProofs{
		proofHeight:        clienttypes.HeightFromPtr(msg.ProofHeight),
		proofConnection:    msg.ProofTry,
		connectionID:       msg.CounterpartyConnectionID,
		expectedConnection: expectedConnection,
		clientState:        clientState,
		proofClient:        msg.ProofClient,
		consensusHeight:    clienttypes.HeightFromPtr(msg.ConsensusHeight),
		proofConsensus:     msg.ProofConsensus,
	}); err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	return nil
}

// ExecuteConnOpenAck opens the local end and records the counterparty
// connection identifier and the chosen version.
func ExecuteConnOpenAck(ctx exported.ExecutionContext, msg *connectiontypes.MsgConnectionOpenAck) error {
	connection, err := ctx.ConnectionEnd(msg.ConnectionID)
	if err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	counterparty := connection.GetCounterparty()
	counterparty.ConnectionID = msg.CounterpartyConnectionID

	connection.State = connectiontypes.OPEN
	connection.Versions = []*connectiontypes.Version{msg.Version}
	connection.Counterparty = &counterparty

	if err := ctx.StoreConnection(msg.ConnectionID, connection); err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	emitConnectionEvent(ctx, connectiontypes.EventTypeConnectionOpenAck, msg.ConnectionID, connection)
	ctx.LogMessage("connection open ack", "connection_id", msg.ConnectionID,
		"counterparty_connection_id", msg.CounterpartyConnectionID)
	return nil
}

// ValidateConnOpenConfirm checks the local end is in TRYOPEN. The proof of
// the counterparty's OPEN end carried by the message is not verified.
func ValidateConnOpenConfirm(ctx exported.ValidationContext, msg *connectiontypes.MsgConnectionOpenConfirm) error {
	connection, err := ctx.ConnectionEnd(msg.ConnectionID)
	if err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	if err := connection.VerifyState(msg.ConnectionID, connectiontypes.TRYOPEN); err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	return nil
}

// ExecuteConnOpenConfirm opens the local end.
func ExecuteConnOpenConfirm(ctx exported.ExecutionContext, msg *connectiontypes.MsgConnectionOpenConfirm) error {
	connection, err := ctx.ConnectionEnd(msg.ConnectionID)
	if err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	connection.State = connectiontypes.OPEN
	if err := ctx.StoreConnection(msg.ConnectionID, connection); err != nil {
		return connectiontypes.WrapConnectionError(msg.ConnectionID, err)
	}
	emitConnectionEvent(ctx, connectiontypes.EventTypeConnectionOpenConfirm, msg.ConnectionID, connection)
	ctx.LogMessage("connection open confirm", "connection_id", msg.ConnectionID)
	return nil
}

type handshakeProofs struct {
	proofHeight        clienttypes.Height
	proofConnection    []byte
	connectionID       host.ConnectionID
	expectedConnection connectiontypes.ConnectionEnd
	clientState        exported.ClientState
	proofClient        []byte
	consensusHeight    clienttypes.Height
	proofConsensus     []byte
}

func verifyHandshakeProofs(ctx exported.ValidationContext, connection connectiontypes.ConnectionEnd, p handshakeProofs) error {
	if err := VerifyConnectionState(ctx, connection, p.proofHeight, p.proofConnection, p.connectionID, p.expectedConnection); err != nil {
		return err
	}
	if err := VerifyClientState(ctx, connection, p.proofHeight, p.proofClient, p.clientState); err != nil {
		return err
	}
	expectedConsensus, err := ctx.HostConsensusState(p.consensusHeight)
	if err != nil {
		return err
	}
	return VerifyClientConsensusState(ctx, connection, p.proofHeight, p.consensusHeight, p.proofConsensus, expectedConsensus)
}

func storeNewConnection(ctx exported.ExecutionContext, connection connectiontypes.ConnectionEnd) (host.ConnectionID, error) {
	counter, err := ctx.ConnectionCounter()
	if err != nil {
		return "", err
	}
	connectionID := host.FormatConnectionID(counter)
	if _, err := ctx.ConnectionEnd(connectionID); err == nil {
		return connectionID, connectiontypes.ErrConnectionExists
	}
	if err := ctx.StoreConnection(connectionID, connection); err != nil {
		return connectionID, err
	}
	if err := ctx.StoreConnectionToClient(connection.ClientID, connectionID); err != nil {
		return connectionID, err
	}
	return connectionID, ctx.IncreaseConnectionCounter()
}

func emitConnectionEvent(ctx exported.ExecutionContext, eventType string, connectionID host.ConnectionID, connection connectiontypes.ConnectionEnd) {
	counterparty := connection.GetCounterparty()
	ctx.EmitEvent(exported.NewMessageEvent(connectiontypes.AttributeValueCategory))
	ctx.EmitEvent(exported.NewEvent(eventType,
		exported.NewAttribute(connectiontypes.AttributeKeyConnectionID, connectionID.String()),
		exported.NewAttribute(connectiontypes.AttributeKeyClientID, connection.ClientID.String()),
		exported.NewAttribute(connectiontypes.AttributeKeyCounterpartyClientID, counterparty.ClientID.String()),
		exported.NewAttribute(connectiontypes.AttributeKeyCounterpartyConnectionID, counterparty.ConnectionID.String()),
	))
}

// validateSelfClient decodes the counterparty's client of this chain and
// checks it, together with the consensus height it claims to track.
func validateSelfClient(ctx exported.ValidationContext, any *codectypes.Any, consensusHeight clienttypes.Height) (exported.ClientState, error) {
	if hostHeight := ctx.HostHeight(); consensusHeight.GTE(hostHeight) {
		return nil, connectiontypes.ErrInvalidConsensusHeight{ConsensusHeight: consensusHeight, HostHeight: hostHeight}
	}
	clientState, err := ctx.UnpackClientState(any)
	if err != nil {
		return nil, err
	}
	if err := ctx.ValidateSelfClient(clientState); err != nil {
		return nil, fmt.Errorf("%w: %v", clienttypes.ErrInvalidSelfClient, err)
	}
	return clientState, nil
}
