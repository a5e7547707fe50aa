package chain_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	mockapp "github.com/tendermint/ibc/apps/mock"
	"github.com/tendermint/ibc/config"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/handler"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/core/router"
	"github.com/tendermint/ibc/internal/chain"
	"github.com/tendermint/ibc/libs/log"
	"github.com/tendermint/ibc/lightclients/mock"
	"github.com/tendermint/ibc/lightclients/tendermint"
)

var genesisTime = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func newChain(t *testing.T, db dbm.DB) *chain.Chain {
	t.Helper()
	r := router.New()
	require.NoError(t, r.AddRoute(mockapp.PortID, mockapp.NewModule()))
	c, err := chain.New(config.TestConfig(), db, r,
		chain.WithLogger(log.TestingLogger()),
		chain.WithGenesisTime(genesisTime),
	)
	require.NoError(t, err)
	return c
}

func createMockClient(signer string) *clienttypes.MsgCreateClient {
	return &clienttypes.MsgCreateClient{
		ClientState:    clienttypes.MustPackAny(mock.NewClientState(clienttypes.NewHeight(0, 5))),
		ConsensusState: clienttypes.MustPackAny(&mock.ConsensusState{Time: uint64(genesisTime.UnixNano()), Hash: []byte("root")}),
		Signer:         signer,
	}
}

func TestGenesisBlock(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())

	require.Equal(t, clienttypes.NewHeight(0, 1), c.LatestHeight())
	require.Equal(t, clienttypes.NewHeight(0, 2), c.HostHeight())
	require.Equal(t, genesisTime, c.LatestHeader().GetTime())
	require.Equal(t, genesisTime.Add(c.Config().BlockTime), c.CurrentTime())

	header, err := c.NextBlock()
	require.NoError(t, err)
	require.Equal(t, clienttypes.NewHeight(0, 2), header.GetHeight())
	require.NoError(t, header.ValidateBasic())
	require.Equal(t, header, c.LatestHeader())

	stored, err := c.Header(header.GetHeight())
	require.NoError(t, err)
	require.Equal(t, header, stored)

	for _, height := range []clienttypes.Height{clienttypes.ZeroHeight(), clienttypes.NewHeight(0, 3), clienttypes.NewHeight(1, 1)} {
		_, err := c.Header(height)
		var notFound chain.ErrHeaderNotFound
		require.True(t, errors.As(err, &notFound), height)
	}
}

func TestSetTime(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())

	require.Error(t, c.SetTime(genesisTime))
	require.Error(t, c.SetTime(genesisTime.Add(-time.Second)))

	next := genesisTime.Add(time.Hour)
	require.NoError(t, c.SetTime(next))
	require.Equal(t, uint64(next.UnixNano()), c.HostTimestamp())

	c.AdvanceTime(time.Minute)
	header, err := c.NextBlock()
	require.NoError(t, err)
	require.Equal(t, next.Add(time.Minute), header.GetTime())
}

func TestDeliverTxIsAtomic(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())

	invalid := &clienttypes.MsgUpdateClient{
		ClientID:      "9999-mock-7",
		ClientMessage: clienttypes.MustPackAny(&mock.Header{Height: clienttypes.NewHeight(0, 6).Ptr(), Time: 1}),
		Signer:        "relayer",
	}
	res, err := c.DeliverMsgs(createMockClient("relayer"), invalid)
	require.Error(t, err)
	require.Len(t, res.Results, 2)
	require.Equal(t, handler.Applied, res.Results[0].Outcome)
	require.Equal(t, handler.Rejected, res.Results[1].Outcome)
	require.Empty(t, res.Events)

	counter, err := c.Query().ClientCounter()
	require.NoError(t, err)
	require.Zero(t, counter)
	_, err = c.Query().ClientState("9999-mock-0")
	var notFound clienttypes.ErrClientNotFound
	require.True(t, errors.As(err, &notFound), err)

	res, err = c.DeliverMsgs(createMockClient("relayer"))
	require.NoError(t, err)
	require.NotEmpty(t, res.Events)
	counter, err = c.Query().ClientCounter()
	require.NoError(t, err)
	require.Equal(t, uint64(1), counter)
}

func TestEventsAreIndexedByHeight(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())

	_, err := c.DeliverMsgs(createMockClient("relayer"))
	require.NoError(t, err)
	_, err = c.DeliverMsgs(createMockClient("relayer"))
	require.NoError(t, err)
	header, err := c.NextBlock()
	require.NoError(t, err)
	height := int64(header.GetHeight().RevisionHeight)

	events, err := c.Events(height)
	require.NoError(t, err)
	types := make([]string, len(events))
	for i, event := range events {
		types[i] = event.Type
	}
	// each message event precedes the event of the message it describes
	require.Equal(t, []string{
		exported.EventTypeMessage, clienttypes.EventTypeCreateClient,
		exported.EventTypeMessage, clienttypes.EventTypeCreateClient,
	}, types)

	found, err := c.SearchEvents(clienttypes.EventTypeCreateClient, 1, height)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, height, found[1].Height)
	require.EqualValues(t, 1, found[0].Index)
	require.EqualValues(t, 3, found[1].Index)

	found, err = c.SearchEvents(clienttypes.EventTypeUpdateClient, 1, height)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestQueryProofVerifiesAgainstHeader(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())
	_, err := c.DeliverMsgs(createMockClient("relayer"))
	require.NoError(t, err)
	header, err := c.NextBlock()
	require.NoError(t, err)

	var verifier tendermint.ClientState
	root := header.ConsensusState().Root()

	proof, height, err := c.QueryProof(host.KeyNextClientSequence)
	require.NoError(t, err)
	require.Equal(t, header.GetHeight(), height)
	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, 1)
	require.NoError(t, verifier.VerifyMembership(c.Prefix(), proof, root, host.KeyNextClientSequence, counter))
	require.ErrorIs(t, verifier.VerifyMembership(c.Prefix(), proof, root, host.KeyNextClientSequence, []byte("forged")),
		tendermint.ErrInvalidProof)

	absent := host.ClientStatePath("9999-mock-1")
	proof, _, err = c.QueryProof(absent)
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyNonMembership(c.Prefix(), proof, root, absent))

	// the commitment of an earlier block still verifies against its header
	genesis, err := c.Header(clienttypes.NewHeight(0, 1))
	require.NoError(t, err)
	proof, err = c.QueryProofAt(genesis.GetHeight(), host.KeyNextClientSequence)
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyNonMembership(c.Prefix(), proof, genesis.ConsensusState().Root(), host.KeyNextClientSequence))
}

func TestRestartResumesFromDB(t *testing.T) {
	db := dbm.NewMemDB()
	c := newChain(t, db)
	_, err := c.DeliverMsgs(createMockClient("relayer"))
	require.NoError(t, err)
	last, err := c.NextBlock()
	require.NoError(t, err)

	restarted := newChain(t, db)
	require.Equal(t, last.GetHeight(), restarted.LatestHeight())
	require.Equal(t, last, restarted.LatestHeader())
	require.Equal(t, last.GetTime().Add(restarted.Config().BlockTime), restarted.CurrentTime())

	counter, err := restarted.Query().ClientCounter()
	require.NoError(t, err)
	require.Equal(t, uint64(1), counter)
	_, err = restarted.Query().ClientState("9999-mock-0")
	require.NoError(t, err)
}

func TestValidateSelfClient(t *testing.T) {
	c := newChain(t, dbm.NewMemDB())
	_, err := c.NextBlock()
	require.NoError(t, err)

	require.NoError(t, c.ValidateSelfClient(c.NewClientState()))

	testCases := map[string]func(cs *tendermint.ClientState){
		"other chain":       func(cs *tendermint.ClientState) { cs.ChainID = "otherchain-0" },
		"future height":     func(cs *tendermint.ClientState) { cs.Latest = c.HostHeight().Ptr() },
		"unbonding differs": func(cs *tendermint.ClientState) { cs.UnbondingPeriod += time.Hour },
		"frozen":            func(cs *tendermint.ClientState) { cs.FrozenHeight = tendermint.FrozenHeight.Ptr() },
	}
	for name, malleate := range testCases {
		malleate := malleate
		t.Run(name, func(t *testing.T) {
			cs := c.NewClientState()
			malleate(cs)
			require.Error(t, c.ValidateSelfClient(cs))
		})
	}
	require.Error(t, c.ValidateSelfClient(mock.NewClientState(clienttypes.NewHeight(0, 1))))
}
