package ibctesting

import (
	"encoding/hex"
	"fmt"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ParseClientIDFromEvents parses events emitted from a MsgCreateClient and
// returns the client identifier.
func ParseClientIDFromEvents(events []exported.Event) (host.ClientID, error) {
	id, err := findAttribute(events, clienttypes.AttributeKeyClientID, clienttypes.EventTypeCreateClient)
	return host.ClientID(id), err
}

// ParseConnectionIDFromEvents parses events emitted from a
// MsgConnectionOpenInit or MsgConnectionOpenTry and returns the connection
// identifier.
func ParseConnectionIDFromEvents(events []exported.Event) (host.ConnectionID, error) {
	id, err := findAttribute(events, connectiontypes.AttributeKeyConnectionID,
		connectiontypes.EventTypeConnectionOpenInit, connectiontypes.EventTypeConnectionOpenTry)
	return host.ConnectionID(id), err
}

// ParseChannelIDFromEvents parses events emitted from a MsgChannelOpenInit
// or MsgChannelOpenTry and returns the channel identifier.
func ParseChannelIDFromEvents(events []exported.Event) (host.ChannelID, error) {
	id, err := findAttribute(events, channeltypes.AttributeKeyChannelID,
		channeltypes.EventTypeChannelOpenInit, channeltypes.EventTypeChannelOpenTry)
	return host.ChannelID(id), err
}

// ParseAckFromEvents parses events emitted from a MsgRecvPacket or a
// deferred acknowledgement and returns the acknowledgement. It returns nil
// when no acknowledgement was written.
func ParseAckFromEvents(events []exported.Event) ([]byte, error) {
	for _, ev := range events {
		if ev.Type != channeltypes.EventTypeWriteAck {
			continue
		}
		value, ok := ev.Attribute(channeltypes.AttributeKeyAckHex)
		if !ok {
			return nil, fmt.Errorf("%s event without %s", ev.Type, channeltypes.AttributeKeyAckHex)
		}
		return hex.DecodeString(value)
	}
	return nil, nil
}

func findAttribute(events []exported.Event, key string, eventTypes ...string) (string, error) {
	for _, ev := range events {
		for _, typ := range eventTypes {
			if ev.Type != typ {
				continue
			}
			if value, ok := ev.Attribute(key); ok {
				return value, nil
			}
		}
	}
	return "", fmt.Errorf("attribute %s not found in %v events", key, eventTypes)
}
