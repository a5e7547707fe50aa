package chain

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"

	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/connection"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/internal/store"
	"github.com/tendermint/ibc/libs/log"
)

// Context is the view of the chain a message is handled in. Reads and
// writes go to kv, which is a branch of the committed state while a
// transaction is delivered.
type Context struct {
	*client.Codec

	chain      *Chain
	kv         store.KVStore
	logger     log.Logger
	hostHeight clienttypes.Height
	hostTime   uint64
	events     []exported.Event
}

var _ exported.ExecutionContext = (*Context)(nil)

// newContext must be called with c.mtx held.
func (c *Chain) newContext(kv store.KVStore) *Context {
	return &Context{
		Codec:      c.codec,
		chain:      c,
		kv:         kv,
		logger:     c.logger,
		hostHeight: c.hostHeight(),
		hostTime:   uint64(c.blockTime.UnixNano()),
	}
}

// Events returns the events emitted in the context so far.
func (ctx *Context) Events() []exported.Event { return ctx.events }

//-----------------------------------------------------------------------------
// host

func (ctx *Context) HostHeight() clienttypes.Height { return ctx.hostHeight }

func (ctx *Context) HostTimestamp() uint64 { return ctx.hostTime }

func (ctx *Context) HostConsensusState(height clienttypes.Height) (exported.ConsensusState, error) {
	return ctx.chain.HostConsensusState(height)
}

func (ctx *Context) ValidateSelfClient(clientState exported.ClientState) error {
	return ctx.chain.ValidateSelfClient(clientState)
}

func (ctx *Context) CommitmentPrefix() commitment.Prefix { return ctx.chain.prefix }

func (ctx *Context) MaxExpectedTimePerBlock() time.Duration {
	return ctx.chain.cfg.MaxExpectedTimePerBlock
}

func (ctx *Context) EmitEvent(event exported.Event) {
	ctx.events = append(ctx.events, event)
}

func (ctx *Context) LogMessage(msg string, keyvals ...interface{}) {
	ctx.logger.Debug(msg, keyvals...)
}

//-----------------------------------------------------------------------------
// clients

func (ctx *Context) ClientState(clientID host.ClientID) (exported.ClientState, error) {
	any, err := ctx.getAny(host.ClientStatePath(clientID))
	if err != nil {
		return nil, err
	}
	if any == nil {
		return nil, clienttypes.ErrClientNotFound{ClientID: clientID}
	}
	return ctx.UnpackClientState(any)
}

func (ctx *Context) ConsensusState(clientID host.ClientID, height clienttypes.Height) (exported.ConsensusState, error) {
	any, err := ctx.getAny(host.ConsensusStatePath(clientID, height.RevisionNumber, height.RevisionHeight))
	if err != nil {
		return nil, err
	}
	if any == nil {
		return nil, clienttypes.ErrConsensusStateNotFound{ClientID: clientID, Height: height}
	}
	return ctx.UnpackConsensusState(any)
}

func (ctx *Context) StoreClientState(clientID host.ClientID, clientState exported.ClientState) error {
	bz, err := clienttypes.MarshalAny(clientState)
	if err != nil {
		return err
	}
	return ctx.set(host.ClientStatePath(clientID), bz)
}

func (ctx *Context) StoreConsensusState(clientID host.ClientID, height clienttypes.Height, consensusState exported.ConsensusState) error {
	bz, err := clienttypes.MarshalAny(consensusState)
	if err != nil {
		return err
	}
	return ctx.set(host.ConsensusStatePath(clientID, height.RevisionNumber, height.RevisionHeight), bz)
}

func (ctx *Context) ClientCounter() (uint64, error) {
	return ctx.counter(host.KeyNextClientSequence)
}

func (ctx *Context) IncreaseClientCounter() error {
	return ctx.increaseCounter(host.KeyNextClientSequence)
}

func (ctx *Context) ClientUpdateTime(clientID host.ClientID, height clienttypes.Height) (uint64, error) {
	bz, err := ctx.get(host.ProcessedTimePath(clientID, height.RevisionNumber, height.RevisionHeight))
	if err != nil {
		return 0, err
	}
	if len(bz) != 8 {
		return 0, fmt.Errorf("%w: client %s at height %s", clienttypes.ErrMissingProcessedTime, clientID, height)
	}
	return binary.BigEndian.Uint64(bz), nil
}

func (ctx *Context) ClientUpdateHeight(clientID host.ClientID, height clienttypes.Height) (clienttypes.Height, error) {
	bz, err := ctx.get(host.ProcessedHeightPath(clientID, height.RevisionNumber, height.RevisionHeight))
	if err != nil {
		return clienttypes.Height{}, err
	}
	if bz == nil {
		return clienttypes.Height{}, fmt.Errorf("%w: client %s at height %s", clienttypes.ErrMissingProcessedHeight, clientID, height)
	}
	var processed clienttypes.Height
	if err := proto.Unmarshal(bz, &processed); err != nil {
		return clienttypes.Height{}, err
	}
	return processed, nil
}

func (ctx *Context) StoreUpdateMeta(
	clientID host.ClientID, height clienttypes.Height, hostTimestamp uint64, hostHeight clienttypes.Height,
) error {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, hostTimestamp)
	if err := ctx.set(host.ProcessedTimePath(clientID, height.RevisionNumber, height.RevisionHeight), ts); err != nil {
		return err
	}
	bz, err := proto.Marshal(&hostHeight)
	if err != nil {
		return err
	}
	return ctx.set(host.ProcessedHeightPath(clientID, height.RevisionNumber, height.RevisionHeight), bz)
}

//-----------------------------------------------------------------------------
// connections

func (ctx *Context) ConnectionEnd(connectionID host.ConnectionID) (connectiontypes.ConnectionEnd, error) {
	var end connectiontypes.ConnectionEnd
	found, err := ctx.getProto(host.ConnectionPath(connectionID), &end)
	if err != nil {
		return end, err
	}
	if !found {
		return end, connectiontypes.ErrConnectionNotFound{ConnectionID: connectionID}
	}
	return end, nil
}

func (ctx *Context) StoreConnection(connectionID host.ConnectionID, end connectiontypes.ConnectionEnd) error {
	return ctx.setProto(host.ConnectionPath(connectionID), &end)
}

// ClientConnections returns the connections built on top of clientID.
func (ctx *Context) ClientConnections(clientID host.ClientID) ([]host.ConnectionID, error) {
	var paths connectionPaths
	if _, err := ctx.getProto(host.ClientConnectionsPath(clientID), &paths); err != nil {
		return nil, err
	}
	ids := make([]host.ConnectionID, len(paths.Paths))
	for i, id := range paths.Paths {
		ids[i] = host.ConnectionID(id)
	}
	return ids, nil
}

func (ctx *Context) StoreConnectionToClient(clientID host.ClientID, connectionID host.ConnectionID) error {
	var paths connectionPaths
	if _, err := ctx.getProto(host.ClientConnectionsPath(clientID), &paths); err != nil {
		return err
	}
	paths.Paths = append(paths.Paths, connectionID.String())
	return ctx.setProto(host.ClientConnectionsPath(clientID), &paths)
}

func (ctx *Context) ConnectionCounter() (uint64, error) {
	return ctx.counter(host.KeyNextConnectionSequence)
}

func (ctx *Context) IncreaseConnectionCounter() error {
	return ctx.increaseCounter(host.KeyNextConnectionSequence)
}

//-----------------------------------------------------------------------------
// channels

func (ctx *Context) ChannelEnd(portID host.PortID, channelID host.ChannelID) (channeltypes.Channel, error) {
	var end channeltypes.Channel
	found, err := ctx.getProto(host.ChannelPath(portID, channelID), &end)
	if err != nil {
		return end, err
	}
	if !found {
		return end, channeltypes.ErrChannelNotFound{PortID: portID, ChannelID: channelID}
	}
	return end, nil
}

func (ctx *Context) StoreChannel(portID host.PortID, channelID host.ChannelID, end channeltypes.Channel) error {
	return ctx.setProto(host.ChannelPath(portID, channelID), &end)
}

func (ctx *Context) ChannelCounter() (uint64, error) {
	return ctx.counter(host.KeyNextChannelSequence)
}

func (ctx *Context) IncreaseChannelCounter() error {
	return ctx.increaseCounter(host.KeyNextChannelSequence)
}

func (ctx *Context) NextSequenceSend(portID host.PortID, channelID host.ChannelID) (host.Sequence, error) {
	return ctx.sequence("send", host.NextSequenceSendPath(portID, channelID), portID, channelID)
}

func (ctx *Context) NextSequenceRecv(portID host.PortID, channelID host.ChannelID) (host.Sequence, error) {
	return ctx.sequence("recv", host.NextSequenceRecvPath(portID, channelID), portID, channelID)
}

func (ctx *Context) NextSequenceAck(portID host.PortID, channelID host.ChannelID) (host.Sequence, error) {
	return ctx.sequence("ack", host.NextSequenceAckPath(portID, channelID), portID, channelID)
}

func (ctx *Context) StoreNextSequenceSend(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error {
	return ctx.set(host.NextSequenceSendPath(portID, channelID), connection.SequenceBytes(sequence))
}

func (ctx *Context) StoreNextSequenceRecv(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error {
	return ctx.set(host.NextSequenceRecvPath(portID, channelID), connection.SequenceBytes(sequence))
}

func (ctx *Context) StoreNextSequenceAck(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error {
	return ctx.set(host.NextSequenceAckPath(portID, channelID), connection.SequenceBytes(sequence))
}

//-----------------------------------------------------------------------------
// packets

func (ctx *Context) PacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) ([]byte, error) {
	return ctx.get(host.PacketCommitmentPath(portID, channelID, sequence))
}

func (ctx *Context) StorePacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence, packetCommitment []byte) error {
	return ctx.set(host.PacketCommitmentPath(portID, channelID, sequence), packetCommitment)
}

func (ctx *Context) DeletePacketCommitment(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error {
	return ctx.kv.Delete([]byte(host.PacketCommitmentPath(portID, channelID, sequence)))
}

func (ctx *Context) HasPacketReceipt(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) (bool, error) {
	return ctx.kv.Has([]byte(host.PacketReceiptPath(portID, channelID, sequence)))
}

func (ctx *Context) StorePacketReceipt(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) error {
	return ctx.set(host.PacketReceiptPath(portID, channelID, sequence), connection.ReceiptValue)
}

func (ctx *Context) PacketAcknowledgement(portID host.PortID, channelID host.ChannelID, sequence host.Sequence) ([]byte, error) {
	return ctx.get(host.PacketAcknowledgementPath(portID, channelID, sequence))
}

func (ctx *Context) StorePacketAcknowledgement(portID host.PortID, channelID host.ChannelID, sequence host.Sequence, ackCommitment []byte) error {
	return ctx.set(host.PacketAcknowledgementPath(portID, channelID, sequence), ackCommitment)
}

//-----------------------------------------------------------------------------
// encoding

// connectionPaths is the list of connections stored under a client.
type connectionPaths struct {
	Paths []string `protobuf:"bytes,1,rep,name=paths,proto3" json:"paths"`
}

func (p *connectionPaths) Reset()         { *p = connectionPaths{} }
func (p *connectionPaths) String() string { return proto.CompactTextString(p) }
func (*connectionPaths) ProtoMessage()    {}

func (ctx *Context) get(path string) ([]byte, error) {
	return ctx.kv.Get([]byte(path))
}

func (ctx *Context) set(path string, value []byte) error {
	return ctx.kv.Set([]byte(path), value)
}

func (ctx *Context) getProto(path string, msg proto.Message) (bool, error) {
	bz, err := ctx.get(path)
	if err != nil || bz == nil {
		return false, err
	}
	if err := proto.Unmarshal(bz, msg); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (ctx *Context) setProto(path string, msg proto.Message) error {
	bz, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return ctx.set(path, bz)
}

func (ctx *Context) getAny(path string) (*codectypes.Any, error) {
	var any codectypes.Any
	found, err := ctx.getProto(path, &any)
	if err != nil || !found {
		return nil, err
	}
	return &any, nil
}

func (ctx *Context) counter(key string) (uint64, error) {
	bz, err := ctx.get(key)
	if err != nil || bz == nil {
		return 0, err
	}
	if len(bz) != 8 {
		return 0, fmt.Errorf("malformed counter %s", key)
	}
	return binary.BigEndian.Uint64(bz), nil
}

func (ctx *Context) increaseCounter(key string) error {
	n, err := ctx.counter(key)
	if err != nil {
		return err
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n+1)
	return ctx.set(key, bz)
}

func (ctx *Context) sequence(kind, path string, portID host.PortID, channelID host.ChannelID) (host.Sequence, error) {
	bz, err := ctx.get(path)
	if err != nil {
		return 0, err
	}
	if bz == nil {
		return 0, channeltypes.ErrSequenceNotFound{Kind: kind, PortID: portID, ChannelID: channelID}
	}
	if len(bz) != 8 {
		return 0, fmt.Errorf("malformed sequence at %s", path)
	}
	return host.Sequence(binary.BigEndian.Uint64(bz)), nil
}
