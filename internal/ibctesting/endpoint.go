package ibctesting

import (
	"fmt"
	"time"

	mockapp "github.com/tendermint/ibc/apps/mock"
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/internal/chain"
	"github.com/tendermint/ibc/lightclients/tendermint"
)

// ConnectionConfig is the connection an endpoint proposes.
type ConnectionConfig struct {
	DelayPeriod time.Duration
	// nil proposes every compatible version
	Version *connectiontypes.Version
}

// ChannelConfig is the channel an endpoint proposes.
type ChannelConfig struct {
	PortID  host.PortID
	Version string
	Order   channeltypes.Order
}

// Endpoint is a which represents a channel endpoint and its associated
// client and connections. It contains client, connection, and channel
// configuration parameters. Endpoint functions will utilize the parameters
// set in the configuration structs when executing IBC messages.
type Endpoint struct {
	Chain        *TestChain
	Counterparty *Endpoint
	ClientID     host.ClientID
	ConnectionID host.ConnectionID
	ChannelID    host.ChannelID

	// App is the mock application bound to the port of the endpoint.
	App *mockapp.Module

	ConnectionConfig *ConnectionConfig
	ChannelConfig    *ChannelConfig
}

// NewDefaultEndpoint constructs a new endpoint using default values.
// CONTRACT: the counterparty endpoint must be set by the caller.
func NewDefaultEndpoint(chain *TestChain) *Endpoint {
	return &Endpoint{
		Chain:            chain,
		App:              chain.App,
		ConnectionConfig: &ConnectionConfig{DelayPeriod: chain.DelayPeriod()},
		ChannelConfig: &ChannelConfig{
			PortID:  mockapp.PortID,
			Version: mockapp.Version,
			Order:   channeltypes.UNORDERED,
		},
	}
}

// QueryProof queries proof associated with this endpoint using the latest
// client state height on the counterparty chain.
func (endpoint *Endpoint) QueryProof(key string) (commitment.Proof, clienttypes.Height) {
	height := endpoint.Counterparty.GetClientState().LatestHeight()
	return endpoint.QueryProofAtHeight(key, height), height
}

// QueryProofAtHeight queries proof associated with this endpoint using the
// proof height provided.
func (endpoint *Endpoint) QueryProofAtHeight(key string, height clienttypes.Height) commitment.Proof {
	proof, err := endpoint.Chain.QueryProofAt(height, key)
	if err != nil {
		panic(err)
	}
	return proof
}

// CreateClient creates a tendermint client of the counterparty chain on the
// endpoint chain from its latest header.
func (endpoint *Endpoint) CreateClient() error {
	counterparty := endpoint.Counterparty.Chain
	header := counterparty.LatestHeader()

	msg := &clienttypes.MsgCreateClient{
		ClientState:    clienttypes.MustPackAny(counterparty.NewClientState()),
		ConsensusState: clienttypes.MustPackAny(header.ConsensusState()),
		Signer:         endpoint.Chain.Signer,
	}
	res, err := endpoint.Chain.SendMsgs(msg)
	if err != nil {
		return err
	}
	endpoint.ClientID, err = ParseClientIDFromEvents(res.Events)
	return err
}

// UpdateClient updates the client of the endpoint to the latest header of
// the counterparty chain. It is a no-op when the client is up to date.
func (endpoint *Endpoint) UpdateClient() error {
	header, err := endpoint.UpdateHeader()
	if err != nil || header == nil {
		return err
	}
	msg := &clienttypes.MsgUpdateClient{
		ClientID:      endpoint.ClientID,
		ClientMessage: clienttypes.MustPackAny(header),
		Signer:        endpoint.Chain.Signer,
	}
	_, err = endpoint.Chain.SendMsgs(msg)
	return err
}

// UpdateHeader returns the latest header of the counterparty chain, set to
// be verified against the latest consensus state of the endpoint client.
// It returns nil if the client already tracks that header.
func (endpoint *Endpoint) UpdateHeader() (*tendermint.Header, error) {
	trusted := endpoint.GetClientState().LatestHeight()
	header := endpoint.Counterparty.Chain.LatestHeader()
	if !header.GetHeight().GT(trusted) {
		return nil, nil
	}
	header.TrustedHeight = trusted.Ptr()
	return header, nil
}

// ConnOpenInit will construct and execute a MsgConnectionOpenInit on the
// associated endpoint.
func (endpoint *Endpoint) ConnOpenInit() error {
	counterparty := connectiontypes.NewCounterparty(endpoint.Counterparty.ClientID, "", endpoint.Counterparty.Chain.Prefix())
	msg := &connectiontypes.MsgConnectionOpenInit{
		ClientID:     endpoint.ClientID,
		Counterparty: &counterparty,
		Version:      endpoint.ConnectionConfig.Version,
		DelayPeriod:  uint64(endpoint.ConnectionConfig.DelayPeriod),
		Signer:       endpoint.Chain.Signer,
	}
	res, err := endpoint.Chain.SendMsgs(msg)
	if err != nil {
		return err
	}
	endpoint.ConnectionID, err = ParseConnectionIDFromEvents(res.Events)
	return err
}

// ConnOpenTry will construct and execute a MsgConnectionOpenTry on the
// associated endpoint.
func (endpoint *Endpoint) ConnOpenTry() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	p := endpoint.QueryConnectionHandshakeProof()
	counterparty := connectiontypes.NewCounterparty(endpoint.Counterparty.ClientID, endpoint.Counterparty.ConnectionID,
		endpoint.Counterparty.Chain.Prefix())
	msg := &connectiontypes.MsgConnectionOpenTry{
		ClientID:             endpoint.ClientID,
		ClientState:          clienttypes.MustPackAny(p.ClientState),
		Counterparty:         &counterparty,
		DelayPeriod:          uint64(endpoint.ConnectionConfig.DelayPeriod),
		CounterpartyVersions: endpoint.Counterparty.GetConnection().Versions,
		ProofHeight:          p.ProofHeight.Ptr(),
		ProofInit:            p.ProofConnection,
		ProofClient:          p.ProofClient,
		ProofConsensus:       p.ProofConsensus,
		ConsensusHeight:      p.ConsensusHeight.Ptr(),
		Signer:               endpoint.Chain.Signer,
	}
	res, err := endpoint.Chain.SendMsgs(msg)
	if err != nil {
		return err
	}
	if endpoint.ConnectionID == "" {
		endpoint.ConnectionID, err = ParseConnectionIDFromEvents(res.Events)
	}
	return err
}

// ConnOpenAck will construct and execute a MsgConnectionOpenAck on the
// associated endpoint.
func (endpoint *Endpoint) ConnOpenAck() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	p := endpoint.QueryConnectionHandshakeProof()
	versions := endpoint.Counterparty.GetConnection().Versions
	if len(versions) != 1 {
		return fmt.Errorf("counterparty connection has %d versions, expected one", len(versions))
	}
	msg := &connectiontypes.MsgConnectionOpenAck{
		ConnectionID:             endpoint.ConnectionID,
		CounterpartyConnectionID: endpoint.Counterparty.ConnectionID,
		Version:                  versions[0],
		ClientState:              clienttypes.MustPackAny(p.ClientState),
		ProofHeight:              p.ProofHeight.Ptr(),
		ProofTry:                 p.ProofConnection,
		ProofClient:              p.ProofClient,
		ProofConsensus:           p.ProofConsensus,
		ConsensusHeight:          p.ConsensusHeight.Ptr(),
		Signer:                   endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// ConnOpenConfirm will construct and execute a MsgConnectionOpenConfirm on
// the associated endpoint.
func (endpoint *Endpoint) ConnOpenConfirm() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	proof, height := endpoint.Counterparty.QueryProof(host.ConnectionPath(endpoint.Counterparty.ConnectionID))
	msg := &connectiontypes.MsgConnectionOpenConfirm{
		ConnectionID: endpoint.ConnectionID,
		ProofAck:     proof,
		ProofHeight:  height.Ptr(),
		Signer:       endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// HandshakeProof is what a connection handshake step proves about the
// counterparty.
type HandshakeProof struct {
	ClientState     exported.ClientState
	ProofClient     commitment.Proof
	ProofConsensus  commitment.Proof
	ConsensusHeight clienttypes.Height
	ProofConnection commitment.Proof
	ProofHeight     clienttypes.Height
}

// QueryConnectionHandshakeProof returns the proofs the counterparty chain
// holds for its connection end and its client of the endpoint chain.
func (endpoint *Endpoint) QueryConnectionHandshakeProof() HandshakeProof {
	counterparty := endpoint.Counterparty
	clientState := counterparty.GetClientState()

	proofClient, proofHeight := counterparty.QueryProof(host.ClientStatePath(counterparty.ClientID))
	consensusHeight := clientState.LatestHeight()
	proofConsensus := counterparty.QueryProofAtHeight(
		host.ConsensusStatePath(counterparty.ClientID, consensusHeight.RevisionNumber, consensusHeight.RevisionHeight), proofHeight)
	proofConnection := counterparty.QueryProofAtHeight(host.ConnectionPath(counterparty.ConnectionID), proofHeight)

	return HandshakeProof{
		ClientState:     clientState,
		ProofClient:     proofClient,
		ProofConsensus:  proofConsensus,
		ConsensusHeight: consensusHeight,
		ProofConnection: proofConnection,
		ProofHeight:     proofHeight,
	}
}

// ChanOpenInit will construct and execute a MsgChannelOpenInit on the
// associated endpoint.
func (endpoint *Endpoint) ChanOpenInit() error {
	cfg := endpoint.ChannelConfig
	channel := channeltypes.NewChannel(channeltypes.INIT, cfg.Order,
		channeltypes.NewCounterparty(endpoint.Counterparty.ChannelConfig.PortID, ""),
		[]host.ConnectionID{endpoint.ConnectionID}, cfg.Version)
	msg := &channeltypes.MsgChannelOpenInit{
		PortID:  cfg.PortID,
		Channel: &channel,
		Signer:  endpoint.Chain.Signer,
	}
	res, err := endpoint.Chain.SendMsgs(msg)
	if err != nil {
		return err
	}
	endpoint.ChannelID, err = ParseChannelIDFromEvents(res.Events)
	return err
}

// ChanOpenTry will construct and execute a MsgChannelOpenTry on the
// associated endpoint.
func (endpoint *Endpoint) ChanOpenTry() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	cfg := endpoint.ChannelConfig
	counterparty := endpoint.Counterparty
	proof, height := counterparty.QueryProof(host.ChannelPath(counterparty.ChannelConfig.PortID, counterparty.ChannelID))

	channel := channeltypes.NewChannel(channeltypes.TRYOPEN, cfg.Order,
		channeltypes.NewCounterparty(counterparty.ChannelConfig.PortID, counterparty.ChannelID),
		[]host.ConnectionID{endpoint.ConnectionID}, cfg.Version)
	msg := &channeltypes.MsgChannelOpenTry{
		PortID:              cfg.PortID,
		Channel:             &channel,
		CounterpartyVersion: counterparty.GetChannel().Version,
		ProofInit:           proof,
		ProofHeight:         height.Ptr(),
		Signer:              endpoint.Chain.Signer,
	}
	res, err := endpoint.Chain.SendMsgs(msg)
	if err != nil {
		return err
	}
	if endpoint.ChannelID == "" {
		endpoint.ChannelID, err = ParseChannelIDFromEvents(res.Events)
	}
	return err
}

// ChanOpenAck will construct and execute a MsgChannelOpenAck on the
// associated endpoint.
func (endpoint *Endpoint) ChanOpenAck() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	counterparty := endpoint.Counterparty
	proof, height := counterparty.QueryProof(host.ChannelPath(counterparty.ChannelConfig.PortID, counterparty.ChannelID))
	msg := &channeltypes.MsgChannelOpenAck{
		PortID:                endpoint.ChannelConfig.PortID,
		ChannelID:             endpoint.ChannelID,
		CounterpartyChannelID: counterparty.ChannelID,
		CounterpartyVersion:   counterparty.GetChannel().Version,
		ProofTry:              proof,
		ProofHeight:           height.Ptr(),
		Signer:                endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// ChanOpenConfirm will construct and execute a MsgChannelOpenConfirm on the
// associated endpoint.
func (endpoint *Endpoint) ChanOpenConfirm() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	counterparty := endpoint.Counterparty
	proof, height := counterparty.QueryProof(host.ChannelPath(counterparty.ChannelConfig.PortID, counterparty.ChannelID))
	msg := &channeltypes.MsgChannelOpenConfirm{
		PortID:      endpoint.ChannelConfig.PortID,
		ChannelID:   endpoint.ChannelID,
		ProofAck:    proof,
		ProofHeight: height.Ptr(),
		Signer:      endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// ChanCloseInit will construct and execute a MsgChannelCloseInit on the
// associated endpoint.
func (endpoint *Endpoint) ChanCloseInit() error {
	msg := &channeltypes.MsgChannelCloseInit{
		PortID:    endpoint.ChannelConfig.PortID,
		ChannelID: endpoint.ChannelID,
		Signer:    endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// ChanCloseConfirm will construct and execute a MsgChannelCloseConfirm on
// the associated endpoint.
func (endpoint *Endpoint) ChanCloseConfirm() error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	counterparty := endpoint.Counterparty
	proof, height := counterparty.QueryProof(host.ChannelPath(counterparty.ChannelConfig.PortID, counterparty.ChannelID))
	msg := &channeltypes.MsgChannelCloseConfirm{
		PortID:      endpoint.ChannelConfig.PortID,
		ChannelID:   endpoint.ChannelID,
		ProofInit:   proof,
		ProofHeight: height.Ptr(),
		Signer:      endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// SendPacket sends a packet with data through the channel of the endpoint
// and commits it in a block.
func (endpoint *Endpoint) SendPacket(timeoutHeight clienttypes.Height, timeoutTimestamp uint64, data []byte) (channeltypes.Packet, error) {
	sequence, err := endpoint.Chain.Query().NextSequenceSend(endpoint.ChannelConfig.PortID, endpoint.ChannelID)
	if err != nil {
		return channeltypes.Packet{}, err
	}
	packet := channeltypes.NewPacket(data, sequence,
		endpoint.ChannelConfig.PortID, endpoint.ChannelID,
		endpoint.Counterparty.ChannelConfig.PortID, endpoint.Counterparty.ChannelID,
		timeoutHeight, timeoutTimestamp)
	if _, err := endpoint.Chain.SendPacket(packet); err != nil {
		return channeltypes.Packet{}, err
	}
	endpoint.Chain.Coordinator.CommitBlock(endpoint.Chain)
	return packet, nil
}

// RecvPacket receives a packet on the associated endpoint and returns the
// acknowledgement written for it, nil if the application deferred it.
func (endpoint *Endpoint) RecvPacket(packet channeltypes.Packet) ([]byte, error) {
	res, err := endpoint.RecvPacketWithResult(packet)
	if err != nil {
		return nil, err
	}
	return ParseAckFromEvents(res.Events)
}

// RecvPacketWithResult receives a packet on the associated endpoint and
// returns the result of the transaction.
func (endpoint *Endpoint) RecvPacketWithResult(packet channeltypes.Packet) (*chain.TxResult, error) {
	if err := endpoint.UpdateClient(); err != nil {
		return nil, err
	}
	proof, height := endpoint.Counterparty.QueryProof(
		host.PacketCommitmentPath(packet.SourcePort, packet.SourceChannel, packet.Sequence))
	msg := &channeltypes.MsgRecvPacket{
		Packet:          &packet,
		ProofCommitment: proof,
		ProofHeight:     height.Ptr(),
		Signer:          endpoint.Chain.Signer,
	}
	return endpoint.Chain.SendMsgs(msg)
}

// WriteAcknowledgement writes the acknowledgement of a packet the
// application of the endpoint deferred, and commits it in a block.
func (endpoint *Endpoint) WriteAcknowledgement(packet channeltypes.Packet, ack []byte) error {
	if _, err := endpoint.Chain.WriteAcknowledgement(packet, ack); err != nil {
		return err
	}
	endpoint.Chain.Coordinator.CommitBlock(endpoint.Chain)
	return nil
}

// AcknowledgePacket sends a MsgAcknowledgement to the channel associated
// with the endpoint.
func (endpoint *Endpoint) AcknowledgePacket(packet channeltypes.Packet, ack []byte) error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	proof, height := endpoint.Counterparty.QueryProof(
		host.PacketAcknowledgementPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence))
	msg := &channeltypes.MsgAcknowledgement{
		Packet:          &packet,
		Acknowledgement: ack,
		ProofAcked:      proof,
		ProofHeight:     height.Ptr(),
		Signer:          endpoint.Chain.Signer,
	}
	_, err := endpoint.Chain.SendMsgs(msg)
	return err
}

// TimeoutPacket sends a MsgTimeout to the channel associated with the
// endpoint.
func (endpoint *Endpoint) TimeoutPacket(packet channeltypes.Packet) error {
	_, err := endpoint.TimeoutPacketWithResult(packet)
	return err
}

// TimeoutPacketWithResult sends a MsgTimeout to the channel associated with
// the endpoint and returns the result of the transaction.
func (endpoint *Endpoint) TimeoutPacketWithResult(packet channeltypes.Packet) (*chain.TxResult, error) {
	if err := endpoint.UpdateClient(); err != nil {
		return nil, err
	}
	proof, height, nextSequenceRecv, err := endpoint.queryUnreceivedProof(packet)
	if err != nil {
		return nil, err
	}
	msg := &channeltypes.MsgTimeout{
		Packet:           &packet,
		ProofUnreceived:  proof,
		ProofHeight:      height.Ptr(),
		NextSequenceRecv: nextSequenceRecv,
		Signer:           endpoint.Chain.Signer,
	}
	return endpoint.Chain.SendMsgs(msg)
}

// TimeoutOnClose sends a MsgTimeoutOnClose to the channel associated with
// the endpoint.
func (endpoint *Endpoint) TimeoutOnClose(packet channeltypes.Packet) error {
	if err := endpoint.UpdateClient(); err != nil {
		return err
	}
	proof, height, nextSequenceRecv, err := endpoint.queryUnreceivedProof(packet)
	if err != nil {
		return err
	}
	proofClosed := endpoint.Counterparty.QueryProofAtHeight(
		host.ChannelPath(packet.DestinationPort, packet.DestinationChannel), height)
	msg := &channeltypes.MsgTimeoutOnClose{
		Packet:           &packet,
		ProofUnreceived:  proof,
		ProofClose:       proofClosed,
		ProofHeight:      height.Ptr(),
		NextSequenceRecv: nextSequenceRecv,
		Signer:           endpoint.Chain.Signer,
	}
	_, err = endpoint.Chain.SendMsgs(msg)
	return err
}

// queryUnreceivedProof proves on the counterparty that packet was not
// received: the next receive sequence on an ordered channel, the absence of
// a receipt otherwise. The next receive sequence is returned for both
// orderings; it stays 1 on an unordered channel.
func (endpoint *Endpoint) queryUnreceivedProof(packet channeltypes.Packet) (commitment.Proof, clienttypes.Height, host.Sequence, error) {
	counterparty := endpoint.Counterparty
	next, err := counterparty.Chain.Query().NextSequenceRecv(packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return nil, clienttypes.Height{}, 0, err
	}
	key := host.PacketReceiptPath(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	if endpoint.ChannelConfig.Order == channeltypes.ORDERED {
		key = host.NextSequenceRecvPath(packet.DestinationPort, packet.DestinationChannel)
	}
	proof, height := counterparty.QueryProof(key)
	return proof, height, next, nil
}

// GetClientState retrieves the client state of the endpoint.
func (endpoint *Endpoint) GetClientState() exported.ClientState {
	clientState, err := endpoint.Chain.Query().ClientState(endpoint.ClientID)
	if err != nil {
		panic(err)
	}
	return clientState
}

// GetConsensusState retrieves the consensus state of the endpoint client
// at height.
func (endpoint *Endpoint) GetConsensusState(height clienttypes.Height) exported.ConsensusState {
	consensusState, err := endpoint.Chain.Query().ConsensusState(endpoint.ClientID, height)
	if err != nil {
		panic(err)
	}
	return consensusState
}

// GetConnection retrieves the connection end of the endpoint.
func (endpoint *Endpoint) GetConnection() connectiontypes.ConnectionEnd {
	connection, err := endpoint.Chain.Query().ConnectionEnd(endpoint.ConnectionID)
	if err != nil {
		panic(err)
	}
	return connection
}

// GetChannel retrieves the channel end of the endpoint.
func (endpoint *Endpoint) GetChannel() channeltypes.Channel {
	channel, err := endpoint.Chain.Query().ChannelEnd(endpoint.ChannelConfig.PortID, endpoint.ChannelID)
	if err != nil {
		panic(err)
	}
	return channel
}
