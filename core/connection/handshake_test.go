package connection_test

import (
	"errors"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/require"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/internal/ibctesting"
	"github.com/tendermint/ibc/lightclients/tendermint"
)

func newPath(t *testing.T) (*ibctesting.Coordinator, *ibctesting.Path) {
	t.Helper()
	coord := ibctesting.NewCoordinator(t, 2)
	path := ibctesting.NewPath(coord.GetChain(ibctesting.GetChainID(1)), coord.GetChain(ibctesting.GetChainID(2)))
	coord.SetupClients(path)
	return coord, path
}

func TestConnectionHandshake(t *testing.T) {
	_, path := newPath(t)
	a, b := path.EndpointA, path.EndpointB

	require.NoError(t, a.ConnOpenInit())
	require.Equal(t, host.ConnectionID("connection-0"), a.ConnectionID)
	initEnd := a.GetConnection()
	require.Equal(t, connectiontypes.INIT, initEnd.State)
	require.Equal(t, connectiontypes.GetCompatibleVersions(), initEnd.Versions)

	require.NoError(t, b.ConnOpenTry())
	require.Equal(t, connectiontypes.TRYOPEN, b.GetConnection().State)
	require.Len(t, b.GetConnection().Versions, 1)

	require.NoError(t, a.ConnOpenAck())
	require.NoError(t, b.ConnOpenConfirm())

	for _, endpoint := range []*ibctesting.Endpoint{a, b} {
		conn := endpoint.GetConnection()
		require.Equal(t, connectiontypes.OPEN, conn.State)
		require.Equal(t, endpoint.ClientID, conn.ClientID)
		require.Equal(t, connectiontypes.NewCounterparty(endpoint.Counterparty.ClientID, endpoint.Counterparty.ConnectionID,
			endpoint.Counterparty.Chain.Prefix()), conn.GetCounterparty())
		require.Len(t, conn.Versions, 1)

		ids, err := endpoint.Chain.Query().ClientConnections(endpoint.ClientID)
		require.NoError(t, err)
		require.Equal(t, []host.ConnectionID{endpoint.ConnectionID}, ids)
	}
	require.Equal(t, a.GetConnection().Versions, b.GetConnection().Versions)
}

func TestConnOpenInitErrors(t *testing.T) {
	testCases := map[string]struct {
		malleate func(a *ibctesting.Endpoint)
		check    func(t *testing.T, err error)
	}{
		"unknown client": {
			func(a *ibctesting.Endpoint) { a.ClientID = "07-tendermint-9" },
			func(t *testing.T, err error) {
				var target clienttypes.ErrClientNotFound
				require.True(t, errors.As(err, &target), err)
			},
		},
		"unsupported version": {
			func(a *ibctesting.Endpoint) {
				a.ConnectionConfig.Version = connectiontypes.NewVersion("9", []string{"ORDER_ORDERED"})
			},
			func(t *testing.T, err error) {
				var target connectiontypes.ErrVersionNotSupported
				require.True(t, errors.As(err, &target), err)
			},
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, path := newPath(t)
			tc.malleate(path.EndpointA)

			err := path.EndpointA.ConnOpenInit()
			var connErr connectiontypes.ConnectionError
			require.True(t, errors.As(err, &connErr), err)
			tc.check(t, err)
		})
	}
}

func TestConnOpenInitWithVersion(t *testing.T) {
	coord, path := newPath(t)
	version := connectiontypes.GetCompatibleVersions()[0]
	path.EndpointA.ConnectionConfig.Version = version
	coord.CreateConnections(path)

	require.Equal(t, []*connectiontypes.Version{version}, path.EndpointB.GetConnection().Versions)
}

// tryMsg returns the MsgConnectionOpenTry endpoint b would send after a
// opened its end.
func tryMsg(t *testing.T, b *ibctesting.Endpoint) *connectiontypes.MsgConnectionOpenTry {
	t.Helper()
	require.NoError(t, b.UpdateClient())
	a := b.Counterparty
	p := b.QueryConnectionHandshakeProof()
	counterparty := connectiontypes.NewCounterparty(a.ClientID, a.ConnectionID, a.Chain.Prefix())
	return &connectiontypes.MsgConnectionOpenTry{
		ClientID:             b.ClientID,
		ClientState:          clienttypes.MustPackAny(p.ClientState),
		Counterparty:         &counterparty,
		CounterpartyVersions: a.GetConnection().Versions,
		ProofHeight:          p.ProofHeight.Ptr(),
		ProofInit:            p.ProofConnection,
		ProofClient:          p.ProofClient,
		ProofConsensus:       p.ProofConsensus,
		ConsensusHeight:      p.ConsensusHeight.Ptr(),
		Signer:               b.Chain.Signer,
	}
}

func TestConnOpenTryErrors(t *testing.T) {
	testCases := map[string]struct {
		malleate func(msg *connectiontypes.MsgConnectionOpenTry)
		check    func(t *testing.T, err error)
	}{
		"client of another chain": {
			func(msg *connectiontypes.MsgConnectionOpenTry) {
				var cs tendermint.ClientState
				require.NoError(t, proto.Unmarshal(msg.ClientState.Value, &cs))
				cs.ChainID = "otherchain-1"
				msg.ClientState = clienttypes.MustPackAny(&cs)
			},
			func(t *testing.T, err error) {
				require.ErrorIs(t, err, clienttypes.ErrInvalidSelfClient)
			},
		},
		"consensus height from the future": {
			func(msg *connectiontypes.MsgConnectionOpenTry) {
				h := clienttypes.HeightFromPtr(msg.ConsensusHeight)
				msg.ConsensusHeight = clienttypes.NewHeight(h.RevisionNumber, h.RevisionHeight+100).Ptr()
			},
			func(t *testing.T, err error) {
				var target connectiontypes.ErrInvalidConsensusHeight
				require.True(t, errors.As(err, &target), err)
			},
		},
		"delay period differs from the counterparty": {
			func(msg *connectiontypes.MsgConnectionOpenTry) { msg.DelayPeriod = 1 },
			func(t *testing.T, err error) {
				var target connectiontypes.ErrVerificationFailed
				require.True(t, errors.As(err, &target), err)
			},
		},
		"proof height not reached by the client": {
			func(msg *connectiontypes.MsgConnectionOpenTry) {
				h := clienttypes.HeightFromPtr(msg.ProofHeight)
				msg.ProofHeight = clienttypes.NewHeight(h.RevisionNumber, h.RevisionHeight+100).Ptr()
			},
			func(t *testing.T, err error) {
				require.Error(t, err)
			},
		},
		"no common version": {
			func(msg *connectiontypes.MsgConnectionOpenTry) {
				msg.CounterpartyVersions = []*connectiontypes.Version{connectiontypes.NewVersion("9", []string{"ORDER_ORDERED"})}
			},
			func(t *testing.T, err error) {
				require.Error(t, err)
			},
		},
		"forged client proof": {
			func(msg *connectiontypes.MsgConnectionOpenTry) { msg.ProofClient = msg.ProofInit },
			func(t *testing.T, err error) {
				var target connectiontypes.ErrVerificationFailed
				require.True(t, errors.As(err, &target), err)
			},
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, path := newPath(t)
			require.NoError(t, path.EndpointA.ConnOpenInit())

			msg := tryMsg(t, path.EndpointB)
			tc.malleate(msg)
			_, err := path.EndpointB.Chain.SendMsgs(msg)
			require.Error(t, err)
			tc.check(t, err)

			counter, err := path.EndpointB.Chain.Query().ConnectionCounter()
			require.NoError(t, err)
			require.Zero(t, counter)
		})
	}
}

func TestConnOpenAckWrongState(t *testing.T) {
	coord, path := newPath(t)
	coord.CreateConnections(path)

	err := path.EndpointA.ConnOpenAck()
	var target connectiontypes.ErrInvalidConnectionState
	require.True(t, errors.As(err, &target), err)
}

func TestConnOpenConfirmRequiresTryOpen(t *testing.T) {
	_, path := newPath(t)
	a, b := path.EndpointA, path.EndpointB
	require.NoError(t, a.ConnOpenInit())

	// a confirm on the end that initialised the handshake
	b.ConnectionID = a.ConnectionID
	err := a.ConnOpenConfirm()
	var target connectiontypes.ErrInvalidConnectionState
	require.True(t, errors.As(err, &target), err)
}
