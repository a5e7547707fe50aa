package host

import (
	"fmt"
	"strings"
)

// Store path segments, ICS-24.
const (
	KeyClientStorePrefix       = "clients"
	KeyClientState             = "clientState"
	KeyConsensusStatePrefix    = "consensusStates"
	KeyProcessedTime           = "processedTime"
	KeyProcessedHeight         = "processedHeight"
	KeyConnectionPrefix        = "connections"
	KeyChannelEndPrefix        = "channelEnds"
	KeyChannelPrefix           = "channels"
	KeyPortPrefix              = "ports"
	KeySequencePrefix          = "sequences"
	KeyNextSeqSendPrefix       = "nextSequenceSend"
	KeyNextSeqRecvPrefix       = "nextSequenceRecv"
	KeyNextSeqAckPrefix        = "nextSequenceAck"
	KeyPacketCommitmentPrefix  = "commitments"
	KeyPacketAckPrefix         = "acks"
	KeyPacketReceiptPrefix     = "receipts"
	KeyNextClientSequence      = "nextClientSequence"
	KeyNextConnectionSequence  = "nextConnectionSequence"
	KeyNextChannelSequence     = "nextChannelSequence"
	KeyClientConnectionsSuffix = "connections"
)

// FullClientPath returns the full path of a specific client path in the
// format: "clients/{clientID}/{path}".
func FullClientPath(clientID ClientID, path string) string {
	return fmt.Sprintf("%s/%s/%s", KeyClientStorePrefix, clientID, path)
}

// ClientStatePath returns clients/{clientID}/clientState.
func ClientStatePath(clientID ClientID) string {
	return FullClientPath(clientID, KeyClientState)
}

// ConsensusStatePath returns clients/{clientID}/consensusStates/{rev}-{height}.
func ConsensusStatePath(clientID ClientID, revisionNumber, revisionHeight uint64) string {
	return FullClientPath(clientID, consensusStateKey(revisionNumber, revisionHeight))
}

// ProcessedTimePath returns the path under which the host records when a
// consensus state was stored.
func ProcessedTimePath(clientID ClientID, revisionNumber, revisionHeight uint64) string {
	return ConsensusStatePath(clientID, revisionNumber, revisionHeight) + "/" + KeyProcessedTime
}

// ProcessedHeightPath returns the path under which the host records the host
// height at which a consensus state was stored.
func ProcessedHeightPath(clientID ClientID, revisionNumber, revisionHeight uint64) string {
	return ConsensusStatePath(clientID, revisionNumber, revisionHeight) + "/" + KeyProcessedHeight
}

func consensusStateKey(revisionNumber, revisionHeight uint64) string {
	return fmt.Sprintf("%s/%d-%d", KeyConsensusStatePrefix, revisionNumber, revisionHeight)
}

// ClientConnectionsPath returns clients/{clientID}/connections.
func ClientConnectionsPath(clientID ClientID) string {
	return FullClientPath(clientID, KeyClientConnectionsSuffix)
}

// ConnectionPath returns connections/{connectionID}.
func ConnectionPath(connectionID ConnectionID) string {
	return fmt.Sprintf("%s/%s", KeyConnectionPrefix, connectionID)
}

// PortPath returns ports/{portID}.
func PortPath(portID PortID) string {
	return fmt.Sprintf("%s/%s", KeyPortPrefix, portID)
}

// ChannelPath returns channelEnds/ports/{portID}/channels/{channelID}.
func ChannelPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s", KeyChannelEndPrefix, channelPath(portID, channelID))
}

// NextSequenceSendPath returns nextSequenceSend/ports/{portID}/channels/{channelID}.
func NextSequenceSendPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s", KeyNextSeqSendPrefix, channelPath(portID, channelID))
}

// NextSequenceRecvPath returns nextSequenceRecv/ports/{portID}/channels/{channelID}.
func NextSequenceRecvPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s", KeyNextSeqRecvPrefix, channelPath(portID, channelID))
}

// NextSequenceAckPath returns nextSequenceAck/ports/{portID}/channels/{channelID}.
func NextSequenceAckPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s", KeyNextSeqAckPrefix, channelPath(portID, channelID))
}

// PacketCommitmentPath returns commitments/ports/{portID}/channels/{channelID}/sequences/{sequence}.
func PacketCommitmentPath(portID PortID, channelID ChannelID, sequence Sequence) string {
	return fmt.Sprintf("%s/%s", KeyPacketCommitmentPrefix, sequencePath(portID, channelID, sequence))
}

// PacketCommitmentPrefixPath returns the prefix under which all commitments
// of a channel are stored.
func PacketCommitmentPrefixPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s/%s/", KeyPacketCommitmentPrefix, channelPath(portID, channelID), KeySequencePrefix)
}

// PacketAcknowledgementPath returns acks/ports/{portID}/channels/{channelID}/sequences/{sequence}.
func PacketAcknowledgementPath(portID PortID, channelID ChannelID, sequence Sequence) string {
	return fmt.Sprintf("%s/%s", KeyPacketAckPrefix, sequencePath(portID, channelID, sequence))
}

// PacketReceiptPath returns receipts/ports/{portID}/channels/{channelID}/sequences/{sequence}.
func PacketReceiptPath(portID PortID, channelID ChannelID, sequence Sequence) string {
	return fmt.Sprintf("%s/%s", KeyPacketReceiptPrefix, sequencePath(portID, channelID, sequence))
}

func channelPath(portID PortID, channelID ChannelID) string {
	return fmt.Sprintf("%s/%s/%s/%s", KeyPortPrefix, portID, KeyChannelPrefix, channelID)
}

func sequencePath(portID PortID, channelID ChannelID, sequence Sequence) string {
	return fmt.Sprintf("%s/%s/%d", channelPath(portID, channelID), KeySequencePrefix, sequence)
}

// ParsePacketSequence returns the trailing sequence of a commitment, receipt
// or acknowledgement path.
func ParsePacketSequence(path string) (Sequence, error) {
	i := strings.LastIndex(path, "/"+KeySequencePrefix+"/")
	if i < 0 {
		return 0, fmt.Errorf("%w: %s has no sequence", ErrInvalidPath, path)
	}
	seq, err := parseSequenceSuffix(path, path[i+len(KeySequencePrefix)+2:])
	if err != nil {
		return 0, err
	}
	return Sequence(seq), nil
}
