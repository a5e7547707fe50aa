package tendermint

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

const (
	testChainID  = "gaia-4"
	testClientID = host.ClientID("07-tendermint-0")
)

var (
	trustingPeriod  = 14 * 24 * time.Hour
	unbondingPeriod = 21 * 24 * time.Hour
	maxClockDrift   = 10 * time.Second
	startTime       = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	validators      = []byte("validators-hash")
)

// memClients is an in-memory client store.
type memClients struct {
	now             time.Time
	clientStates    map[host.ClientID]exported.ClientState
	consensusStates map[clienttypes.Height]exported.ConsensusState
}

func newMemClients(now time.Time) *memClients {
	return &memClients{
		now:             now,
		clientStates:    make(map[host.ClientID]exported.ClientState),
		consensusStates: make(map[clienttypes.Height]exported.ConsensusState),
	}
}

func (m *memClients) ClientState(clientID host.ClientID) (exported.ClientState, error) {
	cs, ok := m.clientStates[clientID]
	if !ok {
		return nil, clienttypes.ErrClientNotFound{ClientID: clientID}
	}
	return cs, nil
}

func (m *memClients) ConsensusState(clientID host.ClientID, height clienttypes.Height) (exported.ConsensusState, error) {
	cs, ok := m.consensusStates[height]
	if !ok {
		return nil, clienttypes.ErrConsensusStateNotFound{ClientID: clientID, Height: height}
	}
	return cs, nil
}

func (m *memClients) HostHeight() clienttypes.Height { return clienttypes.NewHeight(0, 100) }

func (m *memClients) HostTimestamp() uint64 { return uint64(m.now.UnixNano()) }

func (m *memClients) StoreClientState(clientID host.ClientID, clientState exported.ClientState) error {
	m.clientStates[clientID] = clientState
	return nil
}

func (m *memClients) StoreConsensusState(_ host.ClientID, height clienttypes.Height, consensusState exported.ConsensusState) error {
	m.consensusStates[height] = consensusState
	return nil
}

func testHeader(height uint64, t time.Time, trusted clienttypes.Height) *Header {
	return &Header{
		ChainID:            testChainID,
		Height:             clienttypes.NewHeight(4, height).Ptr(),
		TrustedHeight:      trusted.Ptr(),
		Time:               uint64(t.UnixNano()),
		AppHash:            []byte("app-hash"),
		ValidatorsHash:     validators,
		NextValidatorsHash: validators,
	}
}

// initClient creates a client trusting the header at height 10.
func initClient(t *testing.T, now time.Time) (*ClientState, *memClients) {
	t.Helper()
	ctx := newMemClients(now)
	genesis := testHeader(10, startTime, clienttypes.ZeroHeight())
	cs := NewClientState(testChainID, trustingPeriod, unbondingPeriod, maxClockDrift, genesis.GetHeight())
	require.NoError(t, cs.Initialise(ctx, testClientID, genesis.ConsensusState()))
	return cs, ctx
}

func TestClientStateValidate(t *testing.T) {
	height := clienttypes.NewHeight(4, 10)
	testCases := map[string]struct {
		cs  *ClientState
		err error
	}{
		"valid":                    {NewClientState(testChainID, trustingPeriod, unbondingPeriod, maxClockDrift, height), nil},
		"empty chain-id":           {NewClientState("", trustingPeriod, unbondingPeriod, maxClockDrift, height), ErrInvalidChainID},
		"zero trusting period":     {NewClientState(testChainID, 0, unbondingPeriod, maxClockDrift, height), ErrInvalidTrustingPeriod},
		"trusting above unbonding": {NewClientState(testChainID, unbondingPeriod, trustingPeriod, maxClockDrift, height), ErrInvalidTrustingPeriod},
		"zero max clock drift":     {NewClientState(testChainID, trustingPeriod, unbondingPeriod, 0, height), ErrInvalidMaxClockDrift},
		"zero latest height":       {NewClientState(testChainID, trustingPeriod, unbondingPeriod, maxClockDrift, clienttypes.NewHeight(4, 0)), clienttypes.ErrInvalidHeight},
		"revision mismatch":        {NewClientState(testChainID, trustingPeriod, unbondingPeriod, maxClockDrift, clienttypes.NewHeight(3, 10)), clienttypes.ErrInvalidHeight},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			err := tc.cs.Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestStatus(t *testing.T) {
	cs, ctx := initClient(t, startTime.Add(time.Hour))
	require.Equal(t, clienttypes.Active, cs.Status(ctx, testClientID))

	// expiry is exclusive of the last instant of the trusting period
	ctx.now = startTime.Add(trustingPeriod - time.Nanosecond)
	require.Equal(t, clienttypes.Active, cs.Status(ctx, testClientID))
	ctx.now = startTime.Add(trustingPeriod)
	require.Equal(t, clienttypes.Expired, cs.Status(ctx, testClientID))

	frozen := *cs
	frozen.FrozenHeight = FrozenHeight.Ptr()
	require.Equal(t, clienttypes.Frozen, frozen.Status(ctx, testClientID))
}

func TestVerifyHeader(t *testing.T) {
	now := startTime.Add(time.Hour)
	trusted := clienttypes.NewHeight(4, 10)

	testCases := map[string]struct {
		header *Header
		check  func(t *testing.T, err error)
	}{
		"valid": {
			testHeader(15, now.Add(-time.Minute), trusted),
			func(t *testing.T, err error) { require.NoError(t, err) },
		},
		"within clock drift": {
			testHeader(15, now.Add(maxClockDrift-time.Second), trusted),
			func(t *testing.T, err error) { require.NoError(t, err) },
		},
		"beyond clock drift": {
			testHeader(15, now.Add(maxClockDrift), trusted),
			func(t *testing.T, err error) {
				var target ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
		"not after trusted time": {
			testHeader(15, startTime, trusted),
			func(t *testing.T, err error) {
				var target ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
		"unknown trusted height": {
			testHeader(15, now, clienttypes.NewHeight(4, 11)),
			func(t *testing.T, err error) {
				var target clienttypes.ErrConsensusStateNotFound
				require.True(t, errors.As(err, &target), err)
			},
		},
		"trusted height not lower": {
			testHeader(10, now, trusted),
			func(t *testing.T, err error) {
				var target ErrInvalidHeader
				require.True(t, errors.As(err, &target), err)
			},
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			cs, ctx := initClient(t, now)
			tc.check(t, cs.VerifyClientMessage(ctx, testClientID, tc.header))
		})
	}
}

func TestVerifyHeaderTrustedStateExpired(t *testing.T) {
	now := startTime.Add(trustingPeriod)
	cs, ctx := initClient(t, now)
	err := cs.VerifyClientMessage(ctx, testClientID, testHeader(15, now.Add(-time.Second), clienttypes.NewHeight(4, 10)))
	var target ErrOldHeaderExpired
	require.True(t, errors.As(err, &target), err)
}

func TestUpdateState(t *testing.T) {
	now := startTime.Add(time.Hour)
	cs, ctx := initClient(t, now)

	header := testHeader(15, now.Add(-time.Minute), clienttypes.NewHeight(4, 10))
	require.NoError(t, cs.VerifyClientMessage(ctx, testClientID, header))
	require.False(t, cs.CheckForMisbehaviour(ctx, testClientID, header))
	heights, err := cs.UpdateState(ctx, testClientID, header)
	require.NoError(t, err)
	require.Equal(t, []clienttypes.Height{header.GetHeight()}, heights)

	updated, err := ctx.ClientState(testClientID)
	require.NoError(t, err)
	require.Equal(t, header.GetHeight(), updated.LatestHeight())

	// the same header submitted again is not misbehaviour
	repeated := *header
	require.False(t, updated.CheckForMisbehaviour(ctx, testClientID, &repeated))
	heights, err = updated.UpdateState(ctx, testClientID, &repeated)
	require.NoError(t, err)
	require.Equal(t, []clienttypes.Height{header.GetHeight()}, heights)

	// an older header fills a gap without moving the latest height back
	older := testHeader(12, now.Add(-time.Hour+time.Second), clienttypes.NewHeight(4, 10))
	_, err = updated.UpdateState(ctx, testClientID, older)
	require.NoError(t, err)
	latest, err := ctx.ClientState(testClientID)
	require.NoError(t, err)
	require.Equal(t, header.GetHeight(), latest.LatestHeight())
	_, err = ctx.ConsensusState(testClientID, older.GetHeight())
	require.NoError(t, err)

	// a different header at a stored height is misbehaviour
	forked := *header
	forked.AppHash = []byte("forked")
	require.True(t, cs.CheckForMisbehaviour(ctx, testClientID, &forked))

	require.NoError(t, cs.UpdateStateOnMisbehaviour(ctx, testClientID, &forked))
	frozen, err := ctx.ClientState(testClientID)
	require.NoError(t, err)
	require.Equal(t, clienttypes.Frozen, frozen.Status(ctx, testClientID))
}

func TestConsensusStateEqual(t *testing.T) {
	base := NewConsensusState(startTime, []byte("app-hash"), validators)
	testCases := map[string]struct {
		malleate func(*ConsensusState)
		expEqual bool
	}{
		"same":            {func(*ConsensusState) {}, true},
		"time":            {func(cs *ConsensusState) { cs.Time++ }, false},
		"app hash":        {func(cs *ConsensusState) { cs.AppHash = []byte("other") }, false},
		"validators hash": {func(cs *ConsensusState) { cs.NextValidatorsHash = nil }, false},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			other := *base
			tc.malleate(&other)
			require.Equal(t, tc.expEqual, base.Equal(&other))
		})
	}
}

func TestMisbehaviour(t *testing.T) {
	now := startTime.Add(time.Hour)
	trusted := clienttypes.NewHeight(4, 10)
	header := testHeader(15, now.Add(-time.Minute), trusted)

	testCases := map[string]struct {
		header1, header2 func() *Header
		err              error
	}{
		"same height, different app hash": {
			func() *Header { return header },
			func() *Header {
				h := *header
				h.AppHash = []byte("forked")
				return &h
			},
			nil,
		},
		"time runs backwards": {
			func() *Header { return testHeader(16, now.Add(-2*time.Minute), trusted) },
			func() *Header { return header },
			nil,
		},
		"identical headers": {
			func() *Header { return header },
			func() *Header {
				h := *header
				return &h
			},
			ErrInvalidMisbehaviour,
		},
		"header 1 lower": {
			func() *Header { return testHeader(14, now.Add(-2*time.Minute), trusted) },
			func() *Header { return header },
			ErrInvalidMisbehaviour,
		},
		"different chains": {
			func() *Header { return header },
			func() *Header {
				h := *header
				h.ChainID = "gaia-5"
				h.Height = clienttypes.NewHeight(5, 15).Ptr()
				return &h
			},
			ErrInvalidMisbehaviour,
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			cs, ctx := initClient(t, now)
			misbehaviour := &Misbehaviour{Header1: tc.header1(), Header2: tc.header2()}
			err := cs.VerifyClientMessage(ctx, testClientID, misbehaviour)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.True(t, cs.CheckForMisbehaviour(ctx, testClientID, misbehaviour))
		})
	}
}

func TestHeaderHashCoversEveryField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		header := testHeader(rapid.Uint64Range(1, 1<<40).Draw(t, "height").(uint64), startTime, clienttypes.ZeroHeight())
		header.AppHash = rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "app_hash").([]byte)
		mutated := *header
		switch rapid.IntRange(0, 3).Draw(t, "field").(int) {
		case 0:
			mutated.Height = clienttypes.NewHeight(4, header.GetHeight().RevisionHeight+1).Ptr()
		case 1:
			mutated.Time++
		case 2:
			mutated.AppHash = append([]byte{0}, header.AppHash...)
		case 3:
			mutated.NextValidatorsHash = []byte("next")
		}
		if string(header.Hash()) == string(mutated.Hash()) {
			t.Fatalf("hash does not change with the header")
		}
	})
}
