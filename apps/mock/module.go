// Package mock is an application module that records the callbacks it
// receives. What it answers to a received packet depends on the packet data.
package mock

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

const (
	// PortID is the port the mock module is usually bound to.
	PortID host.PortID = "mock"
	// Version is the channel version the module negotiates.
	Version = "mock-version"

	EventTypeRecv    = "mock_recv"
	EventTypeAck     = "mock_ack"
	EventTypeTimeout = "mock_timeout"
)

var (
	// PacketData is acknowledged with a successful acknowledgement.
	PacketData = []byte("mock packet data")
	// FailPacketData is acknowledged with an error acknowledgement.
	FailPacketData = []byte("mock failed packet data")
	// AsyncPacketData is not acknowledged on receipt; the acknowledgement
	// is written later through WriteAcknowledgement.
	AsyncPacketData = []byte("mock async packet data")

	// SuccessResult is the result carried by successful acknowledgements.
	SuccessResult = []byte("mock acknowledgement")

	ErrInvalidVersion = errors.New("invalid mock version")
	ErrRejected       = errors.New("rejected by mock module")
)

// Module records callbacks. The zero value is not usable; use NewModule.
type Module struct {
	mtx sync.Mutex

	// RejectChannelClose makes the module refuse channel closure.
	RejectChannelClose bool

	calls    []string
	received []channeltypes.Packet
	acked    []channeltypes.Packet
	timedOut []channeltypes.Packet
}

var _ exported.Module = (*Module)(nil)

// NewModule returns a module accepting everything.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) record(call string) {
	m.mtx.Lock()
	m.calls = append(m.calls, call)
	m.mtx.Unlock()
}

// Calls returns the executed callbacks in order.
func (m *Module) Calls() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]string(nil), m.calls...)
}

// Received returns the packets passed to OnRecvPacketExecute.
func (m *Module) Received() []channeltypes.Packet {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]channeltypes.Packet(nil), m.received...)
}

// Acknowledged returns the packets passed to OnAcknowledgementPacketExecute.
func (m *Module) Acknowledged() []channeltypes.Packet {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]channeltypes.Packet(nil), m.acked...)
}

// TimedOut returns the packets passed to OnTimeoutPacketExecute.
func (m *Module) TimedOut() []channeltypes.Packet {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]channeltypes.Packet(nil), m.timedOut...)
}

func validateVersion(version string) error {
	if version != "" && version != Version {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidVersion, Version, version)
	}
	return nil
}

func (m *Module) OnChanOpenInitValidate(
	_ channeltypes.Order, _ []host.ConnectionID, _ host.PortID, _ host.ChannelID, _ channeltypes.Counterparty, version string,
) error {
	return validateVersion(version)
}

func (m *Module) OnChanOpenInitExecute(
	_ channeltypes.Order, _ []host.ConnectionID, _ host.PortID, _ host.ChannelID, _ channeltypes.Counterparty, _ string,
) (exported.ModuleExtras, string, error) {
	m.record("OnChanOpenInit")
	return exported.ModuleExtras{}, Version, nil
}

func (m *Module) OnChanOpenTryValidate(
	_ channeltypes.Order, _ []host.ConnectionID, _ host.PortID, _ host.ChannelID, _ channeltypes.Counterparty, counterpartyVersion string,
) error {
	if counterpartyVersion != Version {
		return fmt.Errorf("%w: counterparty proposed %q", ErrInvalidVersion, counterpartyVersion)
	}
	return nil
}

func (m *Module) OnChanOpenTryExecute(
	_ channeltypes.Order, _ []host.ConnectionID, _ host.PortID, _ host.ChannelID, _ channeltypes.Counterparty, _ string,
) (exported.ModuleExtras, string, error) {
	m.record("OnChanOpenTry")
	return exported.ModuleExtras{}, Version, nil
}

func (m *Module) OnChanOpenAckValidate(_ host.PortID, _ host.ChannelID, counterpartyVersion string) error {
	if counterpartyVersion != Version {
		return fmt.Errorf("%w: counterparty chose %q", ErrInvalidVersion, counterpartyVersion)
	}
	return nil
}

func (m *Module) OnChanOpenAckExecute(host.PortID, host.ChannelID, string) (exported.ModuleExtras, error) {
	m.record("OnChanOpenAck")
	return exported.ModuleExtras{}, nil
}

func (m *Module) OnChanOpenConfirmValidate(host.PortID, host.ChannelID) error { return nil }

func (m *Module) OnChanOpenConfirmExecute(host.PortID, host.ChannelID) (exported.ModuleExtras, error) {
	m.record("OnChanOpenConfirm")
	return exported.ModuleExtras{}, nil
}

func (m *Module) OnChanCloseInitValidate(host.PortID, host.ChannelID) error {
	if m.RejectChannelClose {
		return ErrRejected
	}
	return nil
}

func (m *Module) OnChanCloseInitExecute(host.PortID, host.ChannelID) (exported.ModuleExtras, error) {
	m.record("OnChanCloseInit")
	return exported.ModuleExtras{}, nil
}

func (m *Module) OnChanCloseConfirmValidate(host.PortID, host.ChannelID) error { return nil }

func (m *Module) OnChanCloseConfirmExecute(host.PortID, host.ChannelID) (exported.ModuleExtras, error) {
	m.record("OnChanCloseConfirm")
	return exported.ModuleExtras{}, nil
}

// OnRecvPacketExecute acknowledges PacketData with success, FailPacketData
// with an error and AsyncPacketData not at all. Other data is acknowledged
// with success.
func (m *Module) OnRecvPacketExecute(packet channeltypes.Packet, _ string) (exported.ModuleExtras, []byte) {
	m.mtx.Lock()
	m.calls = append(m.calls, "OnRecvPacket")
	m.received = append(m.received, packet)
	m.mtx.Unlock()

	extras := exported.ModuleExtras{
		Events: []exported.Event{exported.NewEvent(EventTypeRecv,
			exported.NewAttribute("sequence", packet.Sequence.String()))},
	}
	switch {
	case bytes.Equal(packet.Data, AsyncPacketData):
		return extras, nil
	case bytes.Equal(packet.Data, FailPacketData):
		return extras, channeltypes.NewErrorAcknowledgement(ErrRejected).Acknowledgement()
	default:
		return extras, channeltypes.NewResultAcknowledgement(SuccessResult).Acknowledgement()
	}
}

func (m *Module) OnAcknowledgementPacketValidate(_ channeltypes.Packet, acknowledgement []byte, _ string) error {
	_, err := channeltypes.ParseAcknowledgement(acknowledgement)
	return err
}

func (m *Module) OnAcknowledgementPacketExecute(packet channeltypes.Packet, _ []byte, _ string) (exported.ModuleExtras, error) {
	m.mtx.Lock()
	m.calls = append(m.calls, "OnAcknowledgementPacket")
	m.acked = append(m.acked, packet)
	m.mtx.Unlock()
	return exported.ModuleExtras{
		Events: []exported.Event{exported.NewEvent(EventTypeAck,
			exported.NewAttribute("sequence", packet.Sequence.String()))},
	}, nil
}

func (m *Module) OnTimeoutPacketValidate(channeltypes.Packet, string) error { return nil }

func (m *Module) OnTimeoutPacketExecute(packet channeltypes.Packet, _ string) (exported.ModuleExtras, error) {
	m.mtx.Lock()
	m.calls = append(m.calls, "OnTimeoutPacket")
	m.timedOut = append(m.timedOut, packet)
	m.mtx.Unlock()
	return exported.ModuleExtras{
		Events: []exported.Event{exported.NewEvent(EventTypeTimeout,
			exported.NewAttribute("sequence", packet.Sequence.String()))},
	}, nil
}
