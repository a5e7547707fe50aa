package ibctesting

import (
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	mockapp "github.com/tendermint/ibc/apps/mock"
	"github.com/tendermint/ibc/config"
	"github.com/tendermint/ibc/core/handler"
	"github.com/tendermint/ibc/core/router"
	"github.com/tendermint/ibc/internal/chain"
	"github.com/tendermint/ibc/libs/log"
)

// DefaultSigner signs every message the endpoints relay.
const DefaultSigner = "relayer"

// TestChain is a chain with the mock application bound to mock.PortID.
type TestChain struct {
	*chain.Chain

	t           TB
	Coordinator *Coordinator
	App         *mockapp.Module
	Signer      string
}

// NewTestChain returns a chain on db whose genesis block is at the current
// time of coord. Options apply after the defaults.
func NewTestChain(t TB, coord *Coordinator, chainID string, db dbm.DB, options ...chain.Option) *TestChain {
	cfg := config.TestConfig()
	cfg.Chain.ChainID = chainID
	cfg.Chain.BlockTime = TimeIncrement

	app := mockapp.NewModule()
	r := router.New()
	require.NoError(t, r.AddRoute(mockapp.PortID, app))

	options = append([]chain.Option{
		chain.WithLogger(log.TestingLogger()),
		chain.WithGenesisTime(coord.CurrentTime),
	}, options...)
	c, err := chain.New(cfg, db, r, options...)
	require.NoError(t, err)

	return &TestChain{
		Chain:       c,
		t:           t,
		Coordinator: coord,
		App:         app,
		Signer:      DefaultSigner,
	}
}

// SendMsgs delivers msgs as one transaction and commits a block when it
// succeeds.
func (c *TestChain) SendMsgs(msgs ...handler.Msg) (*chain.TxResult, error) {
	res, err := c.DeliverMsgs(msgs...)
	if err != nil {
		return res, err
	}
	c.Coordinator.CommitBlock(c)
	return res, nil
}
