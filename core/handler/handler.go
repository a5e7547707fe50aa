// Package handler decodes IBC messages and dispatches them to the client,
// connection and channel handlers in two phases: Validate never writes to
// the host, Execute applies a message Validate accepted.
package handler

import (
	"errors"
	"fmt"

	codectypes "github.com/gogo/protobuf/types"

	"github.com/tendermint/ibc/core/channel"
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/connection"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
)

// Outcome is how a dispatched message ended.
type Outcome uint8

const (
	// Rejected messages left the host untouched.
	Rejected Outcome = iota
	// Applied messages were executed.
	Applied
	// NoOp messages were redundant and skipped execution.
	NoOp
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoOp:
		return "noop"
	default:
		return "rejected"
	}
}

// Result describes a dispatched message.
type Result struct {
	TypeURL string
	Outcome Outcome
}

// ContextError is returned for every rejected message. Err keeps the
// layer error (a ClientError, ConnectionError, ChannelError or
// PacketError) so callers can match it with errors.As.
type ContextError struct {
	TypeURL string
	Err     error
}

func (e ContextError) Error() string {
	if e.TypeURL == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.TypeURL, e.Err)
}

func (e ContextError) Unwrap() error { return e.Err }

// Kind names the layer that rejected the message.
func (e ContextError) Kind() string {
	var (
		packetErr     channeltypes.PacketError
		channelErr    channeltypes.ChannelError
		connectionErr connectiontypes.ConnectionError
		clientErr     clienttypes.ClientError
	)
	switch {
	case errors.As(e.Err, &packetErr):
		return "packet"
	case errors.As(e.Err, &channelErr):
		return "channel"
	case errors.As(e.Err, &connectionErr):
		return "connection"
	case errors.As(e.Err, &clientErr):
		return "client"
	default:
		return "message"
	}
}

// Dispatch decodes any and runs Validate then Execute. A redundant packet
// message yields a NoOp result and is not executed. The host is expected to
// run Dispatch on a branch it discards when an error is returned.
func Dispatch(ctx exported.ExecutionContext, router exported.Router, any *codectypes.Any) (*Result, error) {
	var typeURL string
	if any != nil {
		typeURL = any.TypeUrl
	}
	reject := func(err error) (*Result, error) {
		return &Result{TypeURL: typeURL, Outcome: Rejected}, ContextError{TypeURL: typeURL, Err: err}
	}

	envelope, err := Decode(any)
	if err != nil {
		return reject(err)
	}
	res, err := Validate(ctx, router, envelope)
	if err != nil {
		return reject(err)
	}
	if res == channeltypes.NOOP {
		return &Result{TypeURL: typeURL, Outcome: NoOp}, nil
	}
	res, err = Execute(ctx, router, envelope)
	if err != nil {
		return reject(err)
	}
	if res == channeltypes.NOOP {
		return &Result{TypeURL: typeURL, Outcome: NoOp}, nil
	}
	return &Result{TypeURL: typeURL, Outcome: Applied}, nil
}

// Validate checks envelope against the host state without writing to it.
func Validate(ctx exported.ValidationContext, router exported.Router, envelope MsgEnvelope) (channeltypes.ResponseResultType, error) {
	var err error
	switch msg := envelope.Msg.(type) {
	case *clienttypes.MsgCreateClient:
		err = client.ValidateCreateClient(ctx, msg)
	case *clienttypes.MsgUpdateClient:
		err = client.ValidateUpdateClient(ctx, msg)

	case *connectiontypes.MsgConnectionOpenInit:
		err = connection.ValidateConnOpenInit(ctx, msg)
	case *connectiontypes.MsgConnectionOpenTry:
		err = connection.ValidateConnOpenTry(ctx, msg)
	case *connectiontypes.MsgConnectionOpenAck:
		err = connection.ValidateConnOpenAck(ctx, msg)
	case *connectiontypes.MsgConnectionOpenConfirm:
		err = connection.ValidateConnOpenConfirm(ctx, msg)

	case *channeltypes.MsgChannelOpenInit:
		err = channel.ValidateChanOpenInit(ctx, router, msg)
	case *channeltypes.MsgChannelOpenTry:
		err = channel.ValidateChanOpenTry(ctx, router, msg)
	case *channeltypes.MsgChannelOpenAck:
		err = channel.ValidateChanOpenAck(ctx, router, msg)
	case *channeltypes.MsgChannelOpenConfirm:
		err = channel.ValidateChanOpenConfirm(ctx, router, msg)
	case *channeltypes.MsgChannelCloseInit:
		err = channel.ValidateChanCloseInit(ctx, router, msg)
	case *channeltypes.MsgChannelCloseConfirm:
		err = channel.ValidateChanCloseConfirm(ctx, router, msg)

	case *channeltypes.MsgRecvPacket:
		return channel.ValidateRecvPacket(ctx, router, msg)
	case *channeltypes.MsgAcknowledgement:
		return channel.ValidateAcknowledgement(ctx, router, msg)
	case *channeltypes.MsgTimeout:
		return channel.ValidateTimeout(ctx, router, msg)
	case *channeltypes.MsgTimeoutOnClose:
		return channel.ValidateTimeoutOnClose(ctx, router, msg)

	default:
		return channeltypes.FAILURE, ErrUnknownMessage{TypeURL: envelope.TypeURL}
	}
	if err != nil {
		return channeltypes.FAILURE, err
	}
	return channeltypes.SUCCESS, nil
}

// Execute applies envelope. The caller must have run Validate on the same
// state first.
func Execute(ctx exported.ExecutionContext, router exported.Router, envelope MsgEnvelope) (channeltypes.ResponseResultType, error) {
	var err error
	switch msg := envelope.Msg.(type) {
	case *clienttypes.MsgCreateClient:
		err = client.ExecuteCreateClient(ctx, msg)
	case *clienttypes.MsgUpdateClient:
		err = client.ExecuteUpdateClient(ctx, msg)

	case *connectiontypes.MsgConnectionOpenInit:
		err = connection.ExecuteConnOpenInit(ctx, msg)
	case *connectiontypes.MsgConnectionOpenTry:
		err = connection.ExecuteConnOpenTry(ctx, msg)
	case *connectiontypes.MsgConnectionOpenAck:
		err = connection.ExecuteConnOpenAck(ctx, msg)
	case *connectiontypes.MsgConnectionOpenConfirm:
		err = connection.ExecuteConnOpenConfirm(ctx, msg)

	case *channeltypes.MsgChannelOpenInit:
		err = channel.ExecuteChanOpenInit(ctx, router, msg)
	case *channeltypes.MsgChannelOpenTry:
		err = channel.ExecuteChanOpenTry(ctx, router, msg)
	case *channeltypes.MsgChannelOpenAck:
		err = channel.ExecuteChanOpenAck(ctx, router, msg)
	case *channeltypes.MsgChannelOpenConfirm:
		err = channel.ExecuteChanOpenConfirm(ctx, router, msg)
	case *channeltypes.MsgChannelCloseInit:
		err = channel.ExecuteChanCloseInit(ctx, router, msg)
	case *channeltypes.MsgChannelCloseConfirm:
		err = channel.ExecuteChanCloseConfirm(ctx, router, msg)

	case *channeltypes.MsgRecvPacket:
		return channel.ExecuteRecvPacket(ctx, router, msg)
	case *channeltypes.MsgAcknowledgement:
		return channel.ExecuteAcknowledgement(ctx, router, msg)
	case *channeltypes.MsgTimeout:
		return channel.ExecuteTimeout(ctx, router, msg)
	case *channeltypes.MsgTimeoutOnClose:
		return channel.ExecuteTimeoutOnClose(ctx, router, msg)

	default:
		return channeltypes.FAILURE, ErrUnknownMessage{TypeURL: envelope.TypeURL}
	}
	if err != nil {
		return channeltypes.FAILURE, err
	}
	return channeltypes.SUCCESS, nil
}
