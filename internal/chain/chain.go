// Package chain is an in-process IBC host chain. It produces blocks over a
// versioned Merkle store, delivers transactions of IBC messages atomically
// and serves the proofs a relayer submits to the counterparty.
package chain

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	codectypes "github.com/gogo/protobuf/types"
	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/config"
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/handler"
	"github.com/tendermint/ibc/core/router"
	"github.com/tendermint/ibc/crypto/merkle"
	"github.com/tendermint/ibc/internal/store"
	"github.com/tendermint/ibc/libs/log"
	"github.com/tendermint/ibc/lightclients/mock"
	"github.com/tendermint/ibc/lightclients/tendermint"
)

var (
	stateDBPrefix   = []byte("state/")
	eventsDBPrefix  = []byte("events/")
	headersDBPrefix = []byte("headers/")
)

// ErrHeaderNotFound is returned for a height the chain has not committed or
// no longer retains.
type ErrHeaderNotFound struct {
	Height clienttypes.Height
}

func (e ErrHeaderNotFound) Error() string {
	return fmt.Sprintf("no header at height %s", e.Height)
}

// TxResult is the outcome of a delivered transaction.
type TxResult struct {
	Results []*handler.Result
	Events  []exported.Event
}

// Chain is an IBC host chain. Writes of the current block are visible to
// queries immediately and provable once the block is committed.
type Chain struct {
	codec   *client.Codec
	cfg     *config.ChainConfig
	prefix  commitment.Prefix
	delay   time.Duration
	logger  log.Logger
	metrics *handler.Metrics

	store   *store.Store
	events  *store.EventLog
	headers dbm.DB
	router  *router.Router
	handler *handler.Handler

	chainID        string
	revision       uint64
	validatorsHash []byte

	mtx       sync.RWMutex
	latest    *tendermint.Header
	blockTime time.Time
	pending   []exported.Event
}

// Option sets an optional Chain parameter.
type Option func(*Chain)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Chain) { c.logger = logger }
}

// WithMetrics sets the handler metrics.
func WithMetrics(metrics *handler.Metrics) Option {
	return func(c *Chain) { c.metrics = metrics }
}

// WithGenesisTime sets the time of the genesis block.
func WithGenesisTime(t time.Time) Option {
	return func(c *Chain) { c.blockTime = t.UTC() }
}

// New returns a chain storing its state in db, with the applications bound
// in r. The router is sealed. A chain on an empty db commits a genesis block.
func New(cfg *config.Config, db dbm.DB, r *router.Router, options ...Option) (*Chain, error) {
	if err := cfg.Chain.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid chain config: %w", err)
	}
	if err := cfg.IBC.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid ibc config: %w", err)
	}

	c := &Chain{
		codec:          newCodec(),
		cfg:            cfg.Chain,
		prefix:         cfg.IBC.Prefix(),
		delay:          cfg.IBC.DelayPeriod,
		logger:         log.NewNopLogger(),
		metrics:        handler.NopMetrics(),
		events:         store.NewEventLog(dbm.NewPrefixDB(db, eventsDBPrefix)),
		headers:        dbm.NewPrefixDB(db, headersDBPrefix),
		router:         r,
		chainID:        cfg.Chain.ChainID,
		revision:       clienttypes.ParseChainID(cfg.Chain.ChainID),
		validatorsHash: validatorsHash(cfg.Chain.ChainID),
		blockTime:      time.Now().UTC(),
	}
	for _, option := range options {
		option(c)
	}
	c.logger = c.logger.With("module", "ibc", "chain_id", c.chainID)

	s, err := store.NewStore(dbm.NewPrefixDB(db, stateDBPrefix), cfg.Chain.KeepRecent)
	if err != nil {
		return nil, err
	}
	c.store = s

	r.Seal()
	c.handler = handler.New(r, handler.WithLogger(c.logger), handler.WithMetrics(c.metrics))

	if height := s.Height(); height > 0 {
		header, err := c.loadHeader(height)
		if err != nil {
			return nil, fmt.Errorf("load header of the last block: %w", err)
		}
		c.latest = header
		c.blockTime = header.GetTime().Add(cfg.Chain.BlockTime)
		return c, nil
	}
	if _, err := c.NextBlock(); err != nil {
		return nil, fmt.Errorf("commit genesis block: %w", err)
	}
	return c, nil
}

func newCodec() *client.Codec {
	codec := client.NewCodec()
	codec.RegisterClientState(&tendermint.ClientState{})
	codec.RegisterConsensusState(&tendermint.ConsensusState{})
	codec.RegisterClientMessage(&tendermint.Header{})
	codec.RegisterClientMessage(&tendermint.Misbehaviour{})
	codec.RegisterClientState(&mock.ClientState{})
	codec.RegisterConsensusState(&mock.ConsensusState{})
	codec.RegisterClientMessage(&mock.Header{})
	codec.RegisterClientMessage(&mock.Misbehaviour{})
	return codec
}

// validatorsHash stands in for the hash of a validator set that never
// changes.
func validatorsHash(chainID string) []byte {
	hash := sha256.Sum256([]byte(chainID + "/validators"))
	return hash[:]
}

// ChainID returns the chain identifier.
func (c *Chain) ChainID() string { return c.chainID }

// Prefix returns the commitment prefix of the chain.
func (c *Chain) Prefix() commitment.Prefix { return c.prefix }

// DelayPeriod returns the delay period of the connections the chain opens.
func (c *Chain) DelayPeriod() time.Duration { return c.delay }

// Config returns the chain parameters.
func (c *Chain) Config() *config.ChainConfig { return c.cfg }

// Router returns the router of the chain applications.
func (c *Chain) Router() *router.Router { return c.router }

// Logger returns the chain logger.
func (c *Chain) Logger() log.Logger { return c.logger }

// LatestHeader returns the header of the last committed block.
func (c *Chain) LatestHeader() *tendermint.Header {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return proto.Clone(c.latest).(*tendermint.Header)
}

// LatestHeight returns the height of the last committed block.
func (c *Chain) LatestHeight() clienttypes.Height {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.latest.GetHeight()
}

// HostHeight returns the height of the block being built.
func (c *Chain) HostHeight() clienttypes.Height {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.hostHeight()
}

// HostTimestamp returns the time of the block being built in nanoseconds.
func (c *Chain) HostTimestamp() uint64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return uint64(c.blockTime.UnixNano())
}

// CurrentTime returns the time of the block being built.
func (c *Chain) CurrentTime() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.blockTime
}

func (c *Chain) hostHeight() clienttypes.Height {
	return clienttypes.NewHeight(c.revision, uint64(c.store.Height())+1)
}

// SetTime sets the time of the block being built. It must be after the time
// of the last committed block.
func (c *Chain) SetTime(t time.Time) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.latest != nil && !t.After(c.latest.GetTime()) {
		return fmt.Errorf("block time %v is not after the time of the last block %v", t, c.latest.GetTime())
	}
	c.blockTime = t.UTC()
	return nil
}

// AdvanceTime moves the time of the block being built forward by d.
func (c *Chain) AdvanceTime(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.blockTime = c.blockTime.Add(d)
}

// DeliverTx handles msgs in order as a single transaction: either every
// message is applied or none is.
func (c *Chain) DeliverTx(msgs ...*codectypes.Any) (*TxResult, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	branch := c.store.Branch()
	ctx := c.newContext(branch)
	res := &TxResult{}
	for i, msg := range msgs {
		r, err := c.handler.Dispatch(ctx, msg)
		res.Results = append(res.Results, r)
		if err != nil {
			branch.Discard()
			return res, fmt.Errorf("message %d: %w", i, err)
		}
	}
	if err := branch.Write(); err != nil {
		return res, err
	}
	res.Events = ctx.Events()
	c.pending = append(c.pending, res.Events...)
	return res, nil
}

// DeliverMsgs encodes msgs and delivers them as one transaction.
func (c *Chain) DeliverMsgs(msgs ...handler.Msg) (*TxResult, error) {
	anys := make([]*codectypes.Any, len(msgs))
	for i, msg := range msgs {
		any, err := handler.Encode(msg)
		if err != nil {
			return nil, err
		}
		anys[i] = any
	}
	return c.DeliverTx(anys...)
}

// SendPacket commits packet on behalf of the application bound to its
// source port.
func (c *Chain) SendPacket(packet channeltypes.Packet) ([]exported.Event, error) {
	return c.withBranch(func(ctx *Context) error {
		return c.handler.SendPacket(ctx, packet)
	})
}

// WriteAcknowledgement writes the acknowledgement of a received packet whose
// application deferred it.
func (c *Chain) WriteAcknowledgement(packet channeltypes.Packet, ack []byte) ([]exported.Event, error) {
	return c.withBranch(func(ctx *Context) error {
		return c.handler.WriteAcknowledgement(ctx, packet, ack)
	})
}

func (c *Chain) withBranch(fn func(*Context) error) ([]exported.Event, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	branch := c.store.Branch()
	ctx := c.newContext(branch)
	if err := fn(ctx); err != nil {
		branch.Discard()
		return nil, err
	}
	if err := branch.Write(); err != nil {
		return nil, err
	}
	c.pending = append(c.pending, ctx.Events()...)
	return ctx.Events(), nil
}

// NextBlock commits the current block and starts the next one, one block
// time later. It returns the header of the committed block.
func (c *Chain) NextBlock() (*tendermint.Header, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	height, root, err := c.store.Commit()
	if err != nil {
		return nil, err
	}
	header := &tendermint.Header{
		ChainID:            c.chainID,
		Height:             clienttypes.NewHeight(c.revision, uint64(height)).Ptr(),
		Time:               uint64(c.blockTime.UnixNano()),
		AppHash:            c.appHash(root),
		ValidatorsHash:     c.validatorsHash,
		NextValidatorsHash: c.validatorsHash,
	}
	if err := c.saveHeader(height, header); err != nil {
		return nil, err
	}
	if err := c.events.Append(height, c.pending); err != nil {
		return nil, err
	}

	c.logger.Debug("committed block", "height", height, "app_hash", log.Hexadecimal(header.AppHash), "events", len(c.pending))
	c.latest = header
	c.pending = nil
	c.blockTime = c.blockTime.Add(c.cfg.BlockTime)
	return proto.Clone(header).(*tendermint.Header), nil
}

// appHash commits to the store root under the commitment prefix.
func (c *Chain) appHash(storeRoot []byte) []byte {
	return merkle.NewKVTree(map[string][]byte{string(c.prefix): storeRoot}).Hash()
}

// Header returns the header committed at height.
func (c *Chain) Header(height clienttypes.Height) (*tendermint.Header, error) {
	if height.RevisionNumber != c.revision || height.RevisionHeight == 0 {
		return nil, ErrHeaderNotFound{Height: height}
	}
	header, err := c.loadHeader(int64(height.RevisionHeight))
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ErrHeaderNotFound{Height: height}
	}
	return header, nil
}

func headerKey(height int64) []byte {
	key, err := orderedcode.Append(nil, height)
	if err != nil {
		panic(err)
	}
	return key
}

func (c *Chain) saveHeader(height int64, header *tendermint.Header) error {
	bz, err := proto.Marshal(header)
	if err != nil {
		return err
	}
	if err := c.headers.SetSync(headerKey(height), bz); err != nil {
		return err
	}
	if keep := c.cfg.KeepRecent; keep > 0 && height > keep {
		return c.headers.Delete(headerKey(height - keep))
	}
	return nil
}

func (c *Chain) loadHeader(height int64) (*tendermint.Header, error) {
	bz, err := c.headers.Get(headerKey(height))
	if err != nil || bz == nil {
		return nil, err
	}
	header := &tendermint.Header{}
	if err := proto.Unmarshal(bz, header); err != nil {
		return nil, err
	}
	return header, nil
}

// HostConsensusState returns the consensus state a client of this chain
// stores for the block committed at height.
func (c *Chain) HostConsensusState(height clienttypes.Height) (exported.ConsensusState, error) {
	header, err := c.Header(height)
	if err != nil {
		return nil, err
	}
	return header.ConsensusState(), nil
}

// ValidateSelfClient checks a client of this chain held by a counterparty.
func (c *Chain) ValidateSelfClient(clientState exported.ClientState) error {
	cs, ok := clientState.(*tendermint.ClientState)
	if !ok {
		return fmt.Errorf("client must be a %s client, got %T", tendermint.ClientType, clientState)
	}
	if cs.IsFrozen() {
		return errors.New("client is frozen")
	}
	if cs.ChainID != c.chainID {
		return fmt.Errorf("invalid chain-id, expected %s, got %s", c.chainID, cs.ChainID)
	}
	latest := cs.LatestHeight()
	if latest.RevisionNumber != c.revision {
		return fmt.Errorf("client is tracking revision %d, chain is at revision %d", latest.RevisionNumber, c.revision)
	}
	// called while a transaction holds the lock
	if hostHeight := c.hostHeight(); latest.GTE(hostHeight) {
		return fmt.Errorf("client latest height %s must be lower than the chain height %s", latest, hostHeight)
	}
	if cs.UnbondingPeriod != c.cfg.UnbondingPeriod {
		return fmt.Errorf("invalid unbonding period, expected %v, got %v", c.cfg.UnbondingPeriod, cs.UnbondingPeriod)
	}
	return cs.Validate()
}

// NewClientState returns the client state a counterparty creates to track
// this chain from its last committed block.
func (c *Chain) NewClientState() *tendermint.ClientState {
	return tendermint.NewClientState(c.chainID, c.cfg.TrustingPeriod, c.cfg.UnbondingPeriod, c.cfg.MaxClockDrift, c.LatestHeight())
}

// QueryProof proves the value stored at key, or its absence, in the last
// committed block. It returns the proof with the height it was taken at.
func (c *Chain) QueryProof(key string) (commitment.Proof, clienttypes.Height, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.proofAt(c.latest.GetHeight(), key)
}

// QueryProofAt proves key in the block committed at height.
func (c *Chain) QueryProofAt(height clienttypes.Height, key string) (commitment.Proof, error) {
	proof, _, err := c.proofAt(height, key)
	return proof, err
}

func (c *Chain) proofAt(height clienttypes.Height, key string) (commitment.Proof, clienttypes.Height, error) {
	if height.RevisionNumber != c.revision {
		return nil, height, ErrHeaderNotFound{Height: height}
	}
	h := int64(height.RevisionHeight)
	storeOp, err := c.store.Proof(h, []byte(key))
	if err != nil {
		return nil, height, err
	}
	root, err := c.store.Root(h)
	if err != nil {
		return nil, height, err
	}
	valueOp, err := merkle.NewKVTree(map[string][]byte{string(c.prefix): root}).ValueOp(c.prefix)
	if err != nil {
		return nil, height, err
	}
	prefixOp := valueOp.ProofOp()
	bz, err := (&merkle.ProofOps{Ops: []*merkle.ProofOp{&storeOp, &prefixOp}}).Bytes()
	if err != nil {
		return nil, height, err
	}
	return bz, height, nil
}

// Query returns a read-only view of the chain state, including the writes
// of the block being built.
func (c *Chain) Query() exported.ValidationContext {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.newContext(c.store)
}

// Events returns the events committed in the block at height.
func (c *Chain) Events(height int64) ([]exported.Event, error) {
	return c.events.Events(height)
}

// SearchEvents returns the events of type eventType committed between the
// heights from and to, inclusive.
func (c *Chain) SearchEvents(eventType string, from, to int64) ([]store.IndexedEvent, error) {
	return c.events.Search(eventType, from, to)
}

// Close releases the chain store.
func (c *Chain) Close() error {
	return c.store.Close()
}
