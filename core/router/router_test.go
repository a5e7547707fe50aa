package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/apps/mock"
	"github.com/tendermint/ibc/core/host"
	"github.com/tendermint/ibc/core/router"
)

func TestRouter(t *testing.T) {
	r := router.New()
	module := mock.NewModule()

	require.NoError(t, r.AddRoute("transfer", module))
	require.NoError(t, r.AddRoute("mockport", module))
	require.Error(t, r.AddRoute("transfer", module), "port bound twice")
	require.Error(t, r.AddRoute("x", module), "invalid port identifier")
	require.Error(t, r.AddRoute("other", nil))

	got, ok := r.Route("transfer")
	require.True(t, ok)
	require.Equal(t, module, got)

	_, ok = r.Route("unbound")
	require.False(t, ok)

	require.Equal(t, []host.PortID{"mockport", "transfer"}, r.Ports())

	r.Seal()
	require.True(t, r.Sealed())
	require.Error(t, r.AddRoute("late", module))
}
