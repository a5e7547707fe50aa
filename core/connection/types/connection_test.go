package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/host"
)

var (
	clientID       = host.ClientID("07-tendermint-0")
	counterpartyID = host.ClientID("07-tendermint-1")
	connectionID   = host.ConnectionID("connection-0")
	prefix         = commitment.Prefix("ibc")
)

func TestConnectionValidateBasic(t *testing.T) {
	testCases := []struct {
		name       string
		connection types.ConnectionEnd
		expPass    bool
	}{
		{
			"valid connection",
			types.NewConnectionEnd(types.INIT, clientID, types.NewCounterparty(counterpartyID, connectionID, prefix), types.GetCompatibleVersions(), 0),
			true,
		},
		{
			"valid connection without counterparty connection ID",
			types.NewConnectionEnd(types.INIT, clientID, types.NewCounterparty(counterpartyID, "", prefix), types.GetCompatibleVersions(), 0),
			true,
		},
		{
			"uninitialized state",
			types.NewConnectionEnd(types.UNINITIALIZED, clientID, types.NewCounterparty(counterpartyID, connectionID, prefix), types.GetCompatibleVersions(), 0),
			false,
		},
		{
			"invalid client id",
			types.NewConnectionEnd(types.INIT, "(clientID1)", types.NewCounterparty(counterpartyID, connectionID, prefix), types.GetCompatibleVersions(), 0),
			false,
		},
		{
			"empty versions",
			types.NewConnectionEnd(types.INIT, clientID, types.NewCounterparty(counterpartyID, connectionID, prefix), nil, 0),
			false,
		},
		{
			"open connection with two versions",
			types.NewConnectionEnd(types.OPEN, clientID, types.NewCounterparty(counterpartyID, connectionID, prefix),
				[]*types.Version{types.DefaultIBCVersion, types.NewVersion("2", []string{"ORDER_ORDERED"})}, 0),
			false,
		},
		{
			"invalid counterparty prefix",
			types.NewConnectionEnd(types.INIT, clientID, types.NewCounterparty(counterpartyID, connectionID, nil), types.GetCompatibleVersions(), 0),
			false,
		},
		{
			"invalid counterparty connection id",
			types.NewConnectionEnd(types.INIT, clientID, types.NewCounterparty(counterpartyID, "conn", prefix), types.GetCompatibleVersions(), 0),
			false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.connection.ValidateBasic()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestConnectionVerifyState(t *testing.T) {
	conn := types.NewConnectionEnd(types.TRYOPEN, clientID, types.NewCounterparty(counterpartyID, connectionID, prefix), types.GetCompatibleVersions()[:1], 0)

	require.NoError(t, conn.VerifyState(connectionID, types.TRYOPEN))

	err := conn.VerifyState(connectionID, types.INIT)
	require.Equal(t, types.ErrInvalidConnectionState{ConnectionID: connectionID, Expected: types.INIT, Actual: types.TRYOPEN}, err)
	require.Equal(t, "connection connection-0 state is STATE_TRYOPEN, expected STATE_INIT", err.Error())
}

func TestWrapConnectionError(t *testing.T) {
	require.NoError(t, types.WrapConnectionError(connectionID, nil))

	err := types.WrapConnectionError(connectionID, types.ErrInvalidVersion)
	require.ErrorIs(t, err, types.ErrInvalidVersion)
	require.Equal(t, "connection connection-0: invalid connection version", err.Error())

	// already wrapped errors keep the innermost connection
	require.Equal(t, err, types.WrapConnectionError("connection-7", err))
}
