// Package ibctesting runs in-process chains against each other. A
// Coordinator owns the clock of its chains, an Endpoint plays the relayer
// for one side of a Path.
package ibctesting

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/internal/chain"
)

const ChainIDPrefix = "testchain-"

var (
	// TimeIncrement is the time between two blocks of the coordinated
	// chains.
	TimeIncrement = 5 * time.Second

	globalStartTime = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
)

// TB is the part of testing.TB the harness reports failures through.
type TB interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

// Coordinator is a testing struct which contains N TestChain's. It handles
// keeping all chains in sync with regards to time.
type Coordinator struct {
	t TB

	CurrentTime time.Time
	Chains      map[string]*TestChain
}

// ChainDB opens the database of a chain.
type ChainDB func(chainID string) (dbm.DB, error)

func memDB(string) (dbm.DB, error) { return dbm.NewMemDB(), nil }

// NewCoordinator initializes a Coordinator with n TestChain's on in-memory
// databases, built with options.
func NewCoordinator(t TB, n int, options ...chain.Option) *Coordinator {
	return NewCoordinatorWithDB(t, n, memDB, options...)
}

// NewCoordinatorWithDB is NewCoordinator with the chain databases opened by
// newDB.
func NewCoordinatorWithDB(t TB, n int, newDB ChainDB, options ...chain.Option) *Coordinator {
	coord := &Coordinator{
		t:           t,
		CurrentTime: globalStartTime,
		Chains:      make(map[string]*TestChain),
	}
	for i := 1; i <= n; i++ {
		chainID := GetChainID(i)
		db, err := newDB(chainID)
		require.NoError(t, err)
		coord.Chains[chainID] = NewTestChain(t, coord, chainID, db, options...)
	}
	coord.IncrementTime()
	return coord
}

// GetChainID returns the chain identifier of the chain at index.
func GetChainID(index int) string {
	return ChainIDPrefix + strconv.Itoa(index)
}

// GetChain returns the TestChain using the given chainID and panics if it
// does not exist.
func (coord *Coordinator) GetChain(chainID string) *TestChain {
	chain, ok := coord.Chains[chainID]
	if !ok {
		panic(fmt.Sprintf("%s chain does not exist", chainID))
	}
	return chain
}

// IncrementTime moves the clock of every chain forward by TimeIncrement.
func (coord *Coordinator) IncrementTime() {
	coord.IncrementTimeBy(TimeIncrement)
}

// IncrementTimeBy moves the clock of every chain forward by increment.
func (coord *Coordinator) IncrementTimeBy(increment time.Duration) {
	coord.CurrentTime = coord.CurrentTime.Add(increment).UTC()
	for _, chain := range coord.Chains {
		require.NoError(coord.t, chain.SetTime(coord.CurrentTime))
	}
}

// CommitBlock commits a block on each of the provided chains and then
// increments the global time.
func (coord *Coordinator) CommitBlock(chains ...*TestChain) {
	for _, chain := range chains {
		_, err := chain.NextBlock()
		require.NoError(coord.t, err)
	}
	coord.IncrementTime()
}

// CommitNBlocks commits n blocks to state and updates the block height by 1
// for each commit.
func (coord *Coordinator) CommitNBlocks(chain *TestChain, n uint64) {
	for i := uint64(0); i < n; i++ {
		coord.CommitBlock(chain)
	}
}

// Setup constructs a TM client, connection, and channel on both chains
// provided. It will fail if any error occurs.
func (coord *Coordinator) Setup(path *Path) {
	coord.SetupConnections(path)
	coord.CreateChannels(path)
}

// SetupClients is a helper function to create clients on both chains.
func (coord *Coordinator) SetupClients(path *Path) {
	require.NoError(coord.t, path.EndpointA.CreateClient())
	require.NoError(coord.t, path.EndpointB.CreateClient())
}

// SetupConnections is a helper function to create clients and the
// appropriate connections on both the source and counterparty chain.
func (coord *Coordinator) SetupConnections(path *Path) {
	coord.SetupClients(path)
	coord.CreateConnections(path)
}

// CreateConnections runs the connection handshake from EndpointA.
func (coord *Coordinator) CreateConnections(path *Path) {
	require.NoError(coord.t, path.EndpointA.ConnOpenInit())
	require.NoError(coord.t, path.EndpointB.ConnOpenTry())
	require.NoError(coord.t, path.EndpointA.ConnOpenAck())
	require.NoError(coord.t, path.EndpointB.ConnOpenConfirm())

	// ensure counterparty is up to date
	require.NoError(coord.t, path.EndpointA.UpdateClient())
}

// CreateChannels runs the channel handshake from EndpointA.
func (coord *Coordinator) CreateChannels(path *Path) {
	require.NoError(coord.t, path.EndpointA.ChanOpenInit())
	require.NoError(coord.t, path.EndpointB.ChanOpenTry())
	require.NoError(coord.t, path.EndpointA.ChanOpenAck())
	require.NoError(coord.t, path.EndpointB.ChanOpenConfirm())

	// ensure counterparty is up to date
	require.NoError(coord.t, path.EndpointA.UpdateClient())
}
