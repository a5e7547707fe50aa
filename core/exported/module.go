package exported

import (
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/host"
)

// ModuleExtras are the events and log lines an application adds to the
// output of the message that invoked it.
type ModuleExtras struct {
	Events []Event
	Logs   []string
}

// Merge appends other to e.
func (e *ModuleExtras) Merge(other ModuleExtras) {
	e.Events = append(e.Events, other.Events...)
	e.Logs = append(e.Logs, other.Logs...)
}

// Module is the callback interface an application bound to a port
// implements. Handshake callbacks are split in a validate half, which must
// not write state, and an execute half.
type Module interface {
	OnChanOpenInitValidate(order channeltypes.Order, connectionHops []host.ConnectionID, portID host.PortID,
		channelID host.ChannelID, counterparty channeltypes.Counterparty, version string) error
	// OnChanOpenInitExecute returns the channel version, which may differ
	// from the proposed one.
	OnChanOpenInitExecute(order channeltypes.Order, connectionHops []host.ConnectionID, portID host.PortID,
		channelID host.ChannelID, counterparty channeltypes.Counterparty, version string) (ModuleExtras, string, error)

	OnChanOpenTryValidate(order channeltypes.Order, connectionHops []host.ConnectionID, portID host.PortID,
		channelID host.ChannelID, counterparty channeltypes.Counterparty, counterpartyVersion string) error
	// OnChanOpenTryExecute returns the channel version.
	OnChanOpenTryExecute(order channeltypes.Order, connectionHops []host.ConnectionID, portID host.PortID,
		channelID host.ChannelID, counterparty channeltypes.Counterparty, counterpartyVersion string) (ModuleExtras, string, error)

	OnChanOpenAckValidate(portID host.PortID, channelID host.ChannelID, counterpartyVersion string) error
	OnChanOpenAckExecute(portID host.PortID, channelID host.ChannelID, counterpartyVersion string) (ModuleExtras, error)

	OnChanOpenConfirmValidate(portID host.PortID, channelID host.ChannelID) error
	OnChanOpenConfirmExecute(portID host.PortID, channelID host.ChannelID) (ModuleExtras, error)

	OnChanCloseInitValidate(portID host.PortID, channelID host.ChannelID) error
	OnChanCloseInitExecute(portID host.PortID, channelID host.ChannelID) (ModuleExtras, error)

	OnChanCloseConfirmValidate(portID host.PortID, channelID host.ChannelID) error
	OnChanCloseConfirmExecute(portID host.PortID, channelID host.ChannelID) (ModuleExtras, error)

	// OnRecvPacketExecute processes a received packet and returns the
	// acknowledgement. A nil acknowledgement means the application writes it
	// later.
	OnRecvPacketExecute(packet channeltypes.Packet, relayer string) (ModuleExtras, []byte)

	OnAcknowledgementPacketValidate(packet channeltypes.Packet, acknowledgement []byte, relayer string) error
	OnAcknowledgementPacketExecute(packet channeltypes.Packet, acknowledgement []byte, relayer string) (ModuleExtras, error)

	OnTimeoutPacketValidate(packet channeltypes.Packet, relayer string) error
	OnTimeoutPacketExecute(packet channeltypes.Packet, relayer string) (ModuleExtras, error)
}

// Router looks up the module bound to a port.
type Router interface {
	Route(portID host.PortID) (Module, bool)
}
