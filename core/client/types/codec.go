package types

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"
)

// PackAny wraps msg in an Any whose type URL is "/" followed by the
// registered message name.
func PackAny(msg proto.Message) (*codectypes.Any, error) {
	name := proto.MessageName(msg)
	if name == "" {
		return nil, fmt.Errorf("message %T is not registered", msg)
	}
	bz, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return &codectypes.Any{TypeUrl: "/" + name, Value: bz}, nil
}

// MustPackAny is PackAny that panics on error.
func MustPackAny(msg proto.Message) *codectypes.Any {
	any, err := PackAny(msg)
	if err != nil {
		panic(err)
	}
	return any
}

// MarshalAny returns the encoding of msg packed in an Any, the form in which
// client and consensus states are committed to the store.
func MarshalAny(msg proto.Message) ([]byte, error) {
	any, err := PackAny(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(any)
}
