package ibctesting

import (
	"fmt"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
)

// Path contains two endpoints representing two chains connected over IBC.
type Path struct {
	EndpointA *Endpoint
	EndpointB *Endpoint
}

// NewPath constructs an endpoint for each chain using the default values
// for the endpoints. Each endpoint is updated to have a pointer to the
// counterparty endpoint.
func NewPath(chainA, chainB *TestChain) *Path {
	endpointA := NewDefaultEndpoint(chainA)
	endpointB := NewDefaultEndpoint(chainB)

	endpointA.Counterparty = endpointB
	endpointB.Counterparty = endpointA

	return &Path{
		EndpointA: endpointA,
		EndpointB: endpointB,
	}
}

// SetChannelOrdered sets the channel order for the channel config of both
// endpoints.
func (path *Path) SetChannelOrdered() {
	path.EndpointA.ChannelConfig.Order = channeltypes.ORDERED
	path.EndpointB.ChannelConfig.Order = channeltypes.ORDERED
}

// RelayPacket receives packet on the endpoint it is destined to and, if the
// application acknowledged it synchronously, acknowledges it on the source
// endpoint.
func (path *Path) RelayPacket(packet channeltypes.Packet) error {
	source, dest, err := path.endpoints(packet)
	if err != nil {
		return err
	}
	ack, err := dest.RecvPacket(packet)
	if err != nil {
		return err
	}
	if ack == nil {
		return nil
	}
	return source.AcknowledgePacket(packet, ack)
}

func (path *Path) endpoints(packet channeltypes.Packet) (source, dest *Endpoint, err error) {
	a, b := path.EndpointA, path.EndpointB
	switch {
	case packet.SourcePort == a.ChannelConfig.PortID && packet.SourceChannel == a.ChannelID:
		return a, b, nil
	case packet.SourcePort == b.ChannelConfig.PortID && packet.SourceChannel == b.ChannelID:
		return b, a, nil
	default:
		return nil, nil, fmt.Errorf("packet %s/%s is not sent on path", packet.SourcePort, packet.SourceChannel)
	}
}
