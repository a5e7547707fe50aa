package exported

import (
	"time"

	codectypes "github.com/gogo/protobuf/types"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/host"
)

// ClientCodec decodes the light client types carried by messages.
type ClientCodec interface {
	UnpackClientState(any *codectypes.Any) (ClientState, error)
	UnpackConsensusState(any *codectypes.Any) (ConsensusState, error)
	UnpackClientMessage(any *codectypes.Any) (ClientMessage, error)
}

// ValidationContext is the read-only view of the host chain the handlers
// validate messages against. Getters return a typed not-found error for
// missing ends and nil for missing commitments, acknowledgements and
// receipts.
type ValidationContext interface {
	ClientReader
	ClientCodec

	// ClientCounter returns the number of clients created so far.
	ClientCounter() (uint64, error)

	// ClientUpdateTime returns the host time at which the consensus state of
	// clientID at height was stored.
	ClientUpdateTime(clientID host.ClientID, height clienttypes.Height) (uint64, error)
	// ClientUpdateHeight returns the host height at which the consensus state
	// of clientID at height was stored.
	ClientUpdateHeight(clientID host.ClientID, height clienttypes.Height) (clienttypes.Height, error)

	// HostConsensusState returns the consensus state the host itself
	// committed at height.
	HostConsensusState(height clienttypes.Height) (ConsensusState, error)
	// ValidateSelfClient checks a counterparty's client of this host.
	ValidateSelfClient(clientState ClientState) error
	CommitmentPrefix() commitment.Prefix
	MaxExpectedTimePerBlock() time.Duration

	ConnectionEnd(connectionID host.ConnectionID) (connectiontypes.ConnectionEnd, error)
	ConnectionCounter() (uint64, error)
	// ClientConnections returns the connections opened on clientID, in
	// creation order.
	ClientConnections(clientID host.ClientID) ([]host.ConnectionID, error)

	ChannelEnd(portID host.PortID, channelID host.ChannelID) (channeltypes.Channel, error)
	ChannelCounter() (uint64, error)

	NextSequenceSend(portID host.PortID, channelID host.ChannelID) (host.Sequence, error)
	NextSequenceRecv(portID host.PortID, channelID host.ChannelID) (host.Sequence, error)
	NextSequenceAck(portID host.PortID, channelID host.ChannelID) (host.Sequence, error)

	PacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) ([]byte, error)
	HasPacketReceipt(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) (bool, error)
	PacketAcknowledgement(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) ([]byte, error)
}

// ExecutionContext is the host view the handlers apply state changes
// through. The host is responsible for discarding the writes of a message
// whose execution fails.
type ExecutionContext interface {
	ValidationContext
	ClientExecutionContext

	IncreaseClientCounter() error
	// StoreUpdateMeta records the host time and height at which the
	// consensus state of clientID at height was stored.
	StoreUpdateMeta(clientID host.ClientID, height clienttypes.Height, hostTimestamp uint64, hostHeight clienttypes.Height) error

	StoreConnection(connectionID host.ConnectionID, connection connectiontypes.ConnectionEnd) error
	StoreConnectionToClient(clientID host.ClientID, connectionID host.ConnectionID) error
	IncreaseConnectionCounter() error

	StoreChannel(portID host.PortID, channelID host.ChannelID, channel channeltypes.Channel) error
	IncreaseChannelCounter() error

	StoreNextSequenceSend(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error
	StoreNextSequenceRecv(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error
	StoreNextSequenceAck(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error

	StorePacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence, commitment []byte) error
	DeletePacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error
	StorePacketReceipt(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error
	StorePacketAcknowledgement(portID host.PortID, channelID host.ChannelID, sequence host.Sequence, ackCommitment []byte) error

	EmitEvent(event Event)
	LogMessage(msg string, keyvals ...interface{})
}
