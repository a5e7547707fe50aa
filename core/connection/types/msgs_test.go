package types_test

import (
	"testing"

	codectypes "github.com/gogo/protobuf/types"
	"github.com/stretchr/testify/require"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/connection/types"
)

const signer = "relayer"

var (
	proof       = []byte("proof")
	proofHeight = clienttypes.NewHeight(0, 10).Ptr()
	clientState = &codectypes.Any{TypeUrl: "/ibc.lightclients.tendermint.v1.ClientState", Value: []byte{1}}
)

func TestMsgConnectionOpenInitValidateBasic(t *testing.T) {
	counterparty := types.NewCounterparty(counterpartyID, "", prefix)
	withConnection := types.NewCounterparty(counterpartyID, connectionID, prefix)

	testCases := []struct {
		name    string
		msg     *types.MsgConnectionOpenInit
		expPass bool
	}{
		{"success", &types.MsgConnectionOpenInit{ClientID: clientID, Counterparty: &counterparty, Signer: signer}, true},
		{"success with version", &types.MsgConnectionOpenInit{ClientID: clientID, Counterparty: &counterparty, Version: types.DefaultIBCVersion, Signer: signer}, true},
		{"invalid client ID", &types.MsgConnectionOpenInit{ClientID: "test/iris", Counterparty: &counterparty, Signer: signer}, false},
		{"nil counterparty", &types.MsgConnectionOpenInit{ClientID: clientID, Signer: signer}, false},
		{"counterparty connection ID set", &types.MsgConnectionOpenInit{ClientID: clientID, Counterparty: &withConnection, Signer: signer}, false},
		{"invalid version", &types.MsgConnectionOpenInit{ClientID: clientID, Counterparty: &counterparty, Version: &types.Version{}, Signer: signer}, false},
		{"empty signer", &types.MsgConnectionOpenInit{ClientID: clientID, Counterparty: &counterparty}, false},
	}

	for _, tc := range testCases {
		err := tc.msg.ValidateBasic()
		if tc.expPass {
			require.NoError(t, err, tc.name)
		} else {
			require.Error(t, err, tc.name)
		}
	}
}

func TestMsgConnectionOpenTryValidateBasic(t *testing.T) {
	counterparty := types.NewCounterparty(counterpartyID, connectionID, prefix)
	valid := func() *types.MsgConnectionOpenTry {
		return &types.MsgConnectionOpenTry{
			ClientID:             clientID,
			ClientState:          clientState,
			Counterparty:         &counterparty,
			CounterpartyVersions: types.GetCompatibleVersions(),
			ProofHeight:          proofHeight,
			ProofInit:            proof,
			ProofClient:          proof,
			ProofConsensus:       proof,
			ConsensusHeight:      clienttypes.NewHeight(0, 1).Ptr(),
			Signer:               signer,
		}
	}

	testCases := []struct {
		name     string
		malleate func(*types.MsgConnectionOpenTry)
		expPass  bool
	}{
		{"success", func(*types.MsgConnectionOpenTry) {}, true},
		{"nil client state", func(m *types.MsgConnectionOpenTry) { m.ClientState = nil }, false},
		{"empty counterparty connection ID", func(m *types.MsgConnectionOpenTry) {
			cp := types.NewCounterparty(counterpartyID, "", prefix)
			m.Counterparty = &cp
		}, false},
		{"no counterparty versions", func(m *types.MsgConnectionOpenTry) { m.CounterpartyVersions = nil }, false},
		{"empty proof init", func(m *types.MsgConnectionOpenTry) { m.ProofInit = nil }, false},
		{"empty proof client", func(m *types.MsgConnectionOpenTry) { m.ProofClient = nil }, false},
		{"empty proof consensus", func(m *types.MsgConnectionOpenTry) { m.ProofConsensus = nil }, false},
		{"zero proof height", func(m *types.MsgConnectionOpenTry) { m.ProofHeight = nil }, false},
		{"zero consensus height", func(m *types.MsgConnectionOpenTry) { m.ConsensusHeight = &clienttypes.Height{} }, false},
		{"empty signer", func(m *types.MsgConnectionOpenTry) { m.Signer = "" }, false},
	}

	for _, tc := range testCases {
		msg := valid()
		tc.malleate(msg)
		err := msg.ValidateBasic()
		if tc.expPass {
			require.NoError(t, err, tc.name)
		} else {
			require.Error(t, err, tc.name)
		}
	}
}

func TestMsgConnectionOpenAckValidateBasic(t *testing.T) {
	valid := func() *types.MsgConnectionOpenAck {
		return &types.MsgConnectionOpenAck{
			ConnectionID:             connectionID,
			CounterpartyConnectionID: "connection-1",
			Version:                  types.DefaultIBCVersion,
			ClientState:              clientState,
			ProofHeight:              proofHeight,
			ProofTry:                 proof,
			ProofClient:              proof,
			ProofConsensus:           proof,
			ConsensusHeight:          clienttypes.NewHeight(0, 1).Ptr(),
			Signer:                   signer,
		}
	}

	testCases := []struct {
		name     string
		malleate func(*types.MsgConnectionOpenAck)
		expPass  bool
	}{
		{"success", func(*types.MsgConnectionOpenAck) {}, true},
		{"invalid connection ID", func(m *types.MsgConnectionOpenAck) { m.ConnectionID = "connection" }, false},
		{"invalid counterparty connection ID", func(m *types.MsgConnectionOpenAck) { m.CounterpartyConnectionID = "" }, false},
		{"nil version", func(m *types.MsgConnectionOpenAck) { m.Version = nil }, false},
		{"empty proof try", func(m *types.MsgConnectionOpenAck) { m.ProofTry = nil }, false},
		{"zero proof height", func(m *types.MsgConnectionOpenAck) { m.ProofHeight = nil }, false},
	}

	for _, tc := range testCases {
		msg := valid()
		tc.malleate(msg)
		err := msg.ValidateBasic()
		if tc.expPass {
			require.NoError(t, err, tc.name)
		} else {
			require.Error(t, err, tc.name)
		}
	}
}

func TestMsgConnectionOpenConfirmValidateBasic(t *testing.T) {
	testCases := []struct {
		name    string
		msg     *types.MsgConnectionOpenConfirm
		expPass bool
	}{
		{"success", &types.MsgConnectionOpenConfirm{ConnectionID: connectionID, ProofAck: proof, ProofHeight: proofHeight, Signer: signer}, true},
		{"invalid connection ID", &types.MsgConnectionOpenConfirm{ConnectionID: "connection-00", ProofAck: proof, ProofHeight: proofHeight, Signer: signer}, false},
		{"empty proof", &types.MsgConnectionOpenConfirm{ConnectionID: connectionID, ProofHeight: proofHeight, Signer: signer}, false},
		{"zero proof height", &types.MsgConnectionOpenConfirm{ConnectionID: connectionID, ProofAck: proof, Signer: signer}, false},
	}

	for _, tc := range testCases {
		err := tc.msg.ValidateBasic()
		if tc.expPass {
			require.NoError(t, err, tc.name)
		} else {
			require.Error(t, err, tc.name)
		}
	}
}
