package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/core/channel/types"
)

func TestAcknowledgement(t *testing.T) {
	testCases := map[string]struct {
		ack     types.Acknowledgement
		encoded string
		success bool
		expPass bool
	}{
		"valid successful ack":      {types.NewResultAcknowledgement([]byte{1}), `{"result":"AQ=="}`, true, true},
		"valid failed ack":          {types.NewErrorAcknowledgement(errors.New("cannot unmarshal packet data")), `{"error":"cannot unmarshal packet data"}`, false, true},
		"empty successful ack":      {types.NewResultAcknowledgement(nil), `{}`, false, false},
		"blank failed ack":          {types.Acknowledgement{Error: "  "}, `{"error":"  "}`, false, false},
		"result and error both set": {types.Acknowledgement{Result: []byte{1}, Error: "x"}, `{"result":"AQ==","error":"x"}`, true, false},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.success, tc.ack.Success())
			require.JSONEq(t, tc.encoded, string(tc.ack.Acknowledgement()))

			err := tc.ack.ValidateBasic()
			parsed, parseErr := types.ParseAcknowledgement(tc.ack.Acknowledgement())
			if tc.expPass {
				require.NoError(t, err)
				require.NoError(t, parseErr)
				require.Equal(t, tc.ack, parsed)
			} else {
				require.ErrorIs(t, err, types.ErrInvalidAcknowledgement)
				require.ErrorIs(t, parseErr, types.ErrInvalidAcknowledgement)
			}
		})
	}
}

func TestResponseResultTypeString(t *testing.T) {
	require.Equal(t, "RESPONSE_RESULT_TYPE_NOOP", types.NOOP.String())
	require.Equal(t, "RESPONSE_RESULT_TYPE_SUCCESS", types.SUCCESS.String())
	require.Equal(t, "RESPONSE_RESULT_TYPE_7", types.ResponseResultType(7).String())
}
