package handler

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
)

// Msg is a message the handler accepts.
type Msg interface {
	proto.Message
	ValidateBasic() error
}

// MsgEnvelope is a decoded message together with the type URL it was
// routed on.
type MsgEnvelope struct {
	TypeURL string
	Msg     Msg
}

// ErrUnknownMessage is returned by Decode for a type URL the handler does
// not route.
type ErrUnknownMessage struct {
	TypeURL string
}

func (e ErrUnknownMessage) Error() string {
	return fmt.Sprintf("unknown message type URL %q", e.TypeURL)
}

// ErrInvalidMessage is returned by Decode when the message bytes do not
// decode or the message fails its stateless checks.
type ErrInvalidMessage struct {
	TypeURL string
	Err     error
}

func (e ErrInvalidMessage) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.TypeURL, e.Err)
}

func (e ErrInvalidMessage) Unwrap() error { return e.Err }

var msgConstructors = map[string]func() Msg{
	clienttypes.TypeURLMsgCreateClient: func() Msg { return &clienttypes.MsgCreateClient{} },
	clienttypes.TypeURLMsgUpdateClient: func() Msg { return &clienttypes.MsgUpdateClient{} },

	connectiontypes.TypeURLMsgConnectionOpenInit:    func() Msg { return &connectiontypes.MsgConnectionOpenInit{} },
	connectiontypes.TypeURLMsgConnectionOpenTry:     func() Msg { return &connectiontypes.MsgConnectionOpenTry{} },
	connectiontypes.TypeURLMsgConnectionOpenAck:     func() Msg { return &connectiontypes.MsgConnectionOpenAck{} },
	connectiontypes.TypeURLMsgConnectionOpenConfirm: func() Msg { return &connectiontypes.MsgConnectionOpenConfirm{} },

	channeltypes.TypeURLMsgChannelOpenInit:     func() Msg { return &channeltypes.MsgChannelOpenInit{} },
	channeltypes.TypeURLMsgChannelOpenTry:      func() Msg { return &channeltypes.MsgChannelOpenTry{} },
	channeltypes.TypeURLMsgChannelOpenAck:      func() Msg { return &channeltypes.MsgChannelOpenAck{} },
	channeltypes.TypeURLMsgChannelOpenConfirm:  func() Msg { return &channeltypes.MsgChannelOpenConfirm{} },
	channeltypes.TypeURLMsgChannelCloseInit:    func() Msg { return &channeltypes.MsgChannelCloseInit{} },
	channeltypes.TypeURLMsgChannelCloseConfirm: func() Msg { return &channeltypes.MsgChannelCloseConfirm{} },
	channeltypes.TypeURLMsgRecvPacket:          func() Msg { return &channeltypes.MsgRecvPacket{} },
	channeltypes.TypeURLMsgAcknowledgement:     func() Msg { return &channeltypes.MsgAcknowledgement{} },
	channeltypes.TypeURLMsgTimeout:             func() Msg { return &channeltypes.MsgTimeout{} },
	channeltypes.TypeURLMsgTimeoutOnClose:      func() Msg { return &channeltypes.MsgTimeoutOnClose{} },
}

// Decode routes any on its exact type URL, decodes the message and runs its
// stateless checks.
func Decode(any *codectypes.Any) (MsgEnvelope, error) {
	if any == nil {
		return MsgEnvelope{}, ErrUnknownMessage{}
	}
	newMsg, ok := msgConstructors[any.TypeUrl]
	if !ok {
		return MsgEnvelope{}, ErrUnknownMessage{TypeURL: any.TypeUrl}
	}
	msg := newMsg()
	if err := proto.Unmarshal(any.Value, msg); err != nil {
		return MsgEnvelope{}, ErrInvalidMessage{TypeURL: any.TypeUrl, Err: err}
	}
	if err := msg.ValidateBasic(); err != nil {
		return MsgEnvelope{}, ErrInvalidMessage{TypeURL: any.TypeUrl, Err: err}
	}
	return MsgEnvelope{TypeURL: any.TypeUrl, Msg: msg}, nil
}

// Encode packs msg into an Any that Decode accepts.
func Encode(msg Msg) (*codectypes.Any, error) {
	any, err := clienttypes.PackAny(msg)
	if err != nil {
		return nil, err
	}
	if _, ok := msgConstructors[any.TypeUrl]; !ok {
		return nil, ErrUnknownMessage{TypeURL: any.TypeUrl}
	}
	return any, nil
}

// MustEncode is Encode that panics on error.
func MustEncode(msg Msg) *codectypes.Any {
	any, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return any
}
