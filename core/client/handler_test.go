package client_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/apps/mock"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/internal/ibctesting"
	mockclient "github.com/tendermint/ibc/lightclients/mock"
	"github.com/tendermint/ibc/lightclients/tendermint"
)

func newPath(t *testing.T) (*ibctesting.Coordinator, *ibctesting.Path) {
	t.Helper()
	coord := ibctesting.NewCoordinator(t, 2)
	path := ibctesting.NewPath(coord.GetChain(ibctesting.GetChainID(1)), coord.GetChain(ibctesting.GetChainID(2)))
	return coord, path
}

func tendermintClient(t *testing.T, endpoint *ibctesting.Endpoint) *tendermint.ClientState {
	t.Helper()
	cs, ok := endpoint.GetClientState().(*tendermint.ClientState)
	require.True(t, ok)
	return cs
}

func TestCreateClient(t *testing.T) {
	_, path := newPath(t)
	a, b := path.EndpointA, path.EndpointB

	require.NoError(t, a.CreateClient())
	require.Equal(t, host.ClientID("07-tendermint-0"), a.ClientID)

	cs := tendermintClient(t, a)
	require.Equal(t, b.Chain.ChainID(), cs.ChainID)
	require.False(t, cs.IsFrozen())

	latest := cs.LatestHeight()
	require.Equal(t, b.Chain.LatestHeader().ConsensusState(), a.GetConsensusState(latest))

	counter, err := a.Chain.Query().ClientCounter()
	require.NoError(t, err)
	require.Equal(t, uint64(1), counter)

	processed, err := a.Chain.Query().ClientUpdateHeight(a.ClientID, latest)
	require.NoError(t, err)
	require.True(t, processed.GT(clienttypes.ZeroHeight()))

	require.NoError(t, a.CreateClient())
	require.Equal(t, host.ClientID("07-tendermint-1"), a.ClientID)
}

func TestCreateClientErrors(t *testing.T) {
	_, path := newPath(t)
	a, b := path.EndpointA, path.EndpointB
	header := b.Chain.LatestHeader()

	testCases := map[string]*clienttypes.MsgCreateClient{
		"client and consensus state types differ": {
			ClientState:    clienttypes.MustPackAny(mockclient.NewClientState(header.GetHeight())),
			ConsensusState: clienttypes.MustPackAny(header.ConsensusState()),
		},
		"invalid client state": {
			ClientState:    clienttypes.MustPackAny(tendermint.NewClientState(b.Chain.ChainID(), 0, time.Hour, time.Second, header.GetHeight())),
			ConsensusState: clienttypes.MustPackAny(header.ConsensusState()),
		},
		"unregistered client state": {
			ClientState:    clienttypes.MustPackAny(header),
			ConsensusState: clienttypes.MustPackAny(header.ConsensusState()),
		},
	}
	for name, msg := range testCases {
		msg := msg
		t.Run(name, func(t *testing.T) {
			msg.Signer = a.Chain.Signer
			_, err := a.Chain.SendMsgs(msg)
			var clientErr clienttypes.ClientError
			require.True(t, errors.As(err, &clientErr), err)
		})
	}

	counter, err := a.Chain.Query().ClientCounter()
	require.NoError(t, err)
	require.Zero(t, counter)
}

func TestUpdateClient(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a, b := path.EndpointA, path.EndpointB

	coord.CommitNBlocks(b.Chain, 3)
	require.NoError(t, a.UpdateClient())

	latest := b.Chain.LatestHeight()
	require.Equal(t, latest, a.GetClientState().LatestHeight())
	require.Equal(t, b.Chain.LatestHeader().ConsensusState(), a.GetConsensusState(latest))

	processedTime, err := a.Chain.Query().ClientUpdateTime(a.ClientID, latest)
	require.NoError(t, err)
	require.NotZero(t, processedTime)

	// the client is up to date
	require.NoError(t, a.UpdateClient())
}

func TestUpdateClientErrors(t *testing.T) {
	testCases := map[string]struct {
		malleate func(header *tendermint.Header)
		check    func(t *testing.T, err error)
	}{
		"untrusted height": {
			func(header *tendermint.Header) {
				header.TrustedHeight = clienttypes.NewHeight(header.GetHeight().RevisionNumber, header.GetHeight().RevisionHeight-1).Ptr()
			},
			func(t *testing.T, err error) {
				var target clienttypes.ErrConsensusStateNotFound
				require.True(t, errors.As(err, &target), err)
			},
		},
		"other chain": {
			func(header *tendermint.Header) { header.ChainID = "otherchain-2" },
			func(t *testing.T, err error) {
				var target tendermint.ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
		"unexpected validators": {
			func(header *tendermint.Header) { header.ValidatorsHash = []byte("validators") },
			func(t *testing.T, err error) {
				var target tendermint.ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
		"from the future": {
			func(header *tendermint.Header) { header.Time += uint64(time.Hour) },
			func(t *testing.T, err error) {
				var target tendermint.ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			coord, path := newPath(t)
			coord.SetupClients(path)
			a, b := path.EndpointA, path.EndpointB
			coord.CommitNBlocks(b.Chain, 3)

			header, err := a.UpdateHeader()
			require.NoError(t, err)
			tc.malleate(header)

			_, err = a.Chain.SendMsgs(&clienttypes.MsgUpdateClient{
				ClientID:      a.ClientID,
				ClientMessage: clienttypes.MustPackAny(header),
				Signer:        a.Chain.Signer,
			})
			require.Error(t, err)
			tc.check(t, err)
			require.False(t, tendermintClient(t, a).IsFrozen())
		})
	}
}

func TestExpiredClient(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a := path.EndpointA

	trustingPeriod := tendermintClient(t, a).TrustingPeriod
	coord.IncrementTimeBy(trustingPeriod)

	err := a.UpdateClient()
	var target clienttypes.ErrClientNotActive
	require.True(t, errors.As(err, &target), err)
	require.Equal(t, clienttypes.Expired, target.Status)
}

func sendClientMessage(t *testing.T, endpoint *ibctesting.Endpoint, msg exported.ClientMessage) error {
	t.Helper()
	_, err := endpoint.Chain.SendMsgs(&clienttypes.MsgUpdateClient{
		ClientID:      endpoint.ClientID,
		ClientMessage: clienttypes.MustPackAny(msg),
		Signer:        endpoint.Chain.Signer,
	})
	return err
}

func TestMisbehaviourFreezesClient(t *testing.T) {
	coord, path := newPath(t)
	coord.Setup(path)
	a, b := path.EndpointA, path.EndpointB

	coord.CommitBlock(b.Chain)
	header1, err := a.UpdateHeader()
	require.NoError(t, err)
	header2 := *header1
	header2.AppHash = []byte("forked app hash")

	require.NoError(t, sendClientMessage(t, a, &tendermint.Misbehaviour{Header1: header1, Header2: &header2}))
	require.True(t, tendermintClient(t, a).IsFrozen())

	// a frozen client cannot be updated nor used for packets
	var notActive clienttypes.ErrClientNotActive
	require.True(t, errors.As(a.UpdateClient(), &notActive))
	require.Equal(t, clienttypes.Frozen, notActive.Status)

	latest := b.Chain.LatestHeight()
	_, err = a.SendPacket(clienttypes.NewHeight(latest.RevisionNumber, latest.RevisionHeight+100), 0, mock.PacketData)
	require.True(t, errors.As(err, &notActive), err)
}

func TestMisbehaviourNotConflicting(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a, b := path.EndpointA, path.EndpointB

	coord.CommitBlock(b.Chain)
	header, err := a.UpdateHeader()
	require.NoError(t, err)
	duplicate := *header

	err = sendClientMessage(t, a, &tendermint.Misbehaviour{Header1: header, Header2: &duplicate})
	require.ErrorIs(t, err, tendermint.ErrInvalidMisbehaviour)
	require.False(t, tendermintClient(t, a).IsFrozen())
}

func TestConflictingHeaderFreezesClient(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a, b := path.EndpointA, path.EndpointB
	trusted := a.GetClientState().LatestHeight()

	coord.CommitNBlocks(b.Chain, 2)
	require.NoError(t, a.UpdateClient())

	header, err := b.Chain.Header(b.Chain.LatestHeight())
	require.NoError(t, err)
	header.AppHash = []byte("forked app hash")
	header.TrustedHeight = trusted.Ptr()

	require.NoError(t, sendClientMessage(t, a, header))
	require.True(t, tendermintClient(t, a).IsFrozen())
}

func TestRepeatedHeaderIsNotMisbehaviour(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a, b := path.EndpointA, path.EndpointB

	coord.CommitBlock(b.Chain)
	header, err := a.UpdateHeader()
	require.NoError(t, err)
	require.NoError(t, sendClientMessage(t, a, header))

	// a second relayer submits the same update
	repeated := *header
	require.NoError(t, sendClientMessage(t, a, &repeated))
	cs := tendermintClient(t, a)
	require.False(t, cs.IsFrozen())
	require.Equal(t, header.GetHeight(), cs.LatestHeight())
}

func TestMockClient(t *testing.T) {
	coord, path := newPath(t)
	a := path.EndpointA
	start := clienttypes.NewHeight(0, 10)
	now := uint64(coord.CurrentTime.UnixNano())

	res, err := a.Chain.SendMsgs(&clienttypes.MsgCreateClient{
		ClientState:    clienttypes.MustPackAny(mockclient.NewClientState(start)),
		ConsensusState: clienttypes.MustPackAny(&mockclient.ConsensusState{Time: now, Hash: []byte("root")}),
		Signer:         a.Chain.Signer,
	})
	require.NoError(t, err)
	a.ClientID, err = ibctesting.ParseClientIDFromEvents(res.Events)
	require.NoError(t, err)
	require.Equal(t, host.ClientID("9999-mock-0"), a.ClientID)

	next := start.Increment()
	require.NoError(t, sendClientMessage(t, a, &mockclient.Header{Height: next.Ptr(), Time: now + 1, Root: []byte("next")}))
	require.Equal(t, next, a.GetClientState().LatestHeight())
	require.Equal(t, now+1, a.GetConsensusState(next).Timestamp())

	require.NoError(t, sendClientMessage(t, a, &mockclient.Misbehaviour{}))
	err = sendClientMessage(t, a, &mockclient.Header{Height: next.Increment().Ptr(), Time: now + 2})
	var notActive clienttypes.ErrClientNotActive
	require.True(t, errors.As(err, &notActive), err)
	require.Equal(t, clienttypes.Frozen, notActive.Status)
}

func TestClientMessageTypeMismatch(t *testing.T) {
	coord, path := newPath(t)
	coord.SetupClients(path)
	a := path.EndpointA

	height := a.GetClientState().LatestHeight().Increment()
	err := sendClientMessage(t, a, &mockclient.Header{Height: height.Ptr(), Time: uint64(coord.CurrentTime.UnixNano())})
	require.ErrorIs(t, err, clienttypes.ErrInvalidClientType)
}
