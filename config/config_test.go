package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NotNil(cfg.Chain)
	assert.NotNil(cfg.IBC)
	assert.NotNil(cfg.Instrumentation)

	cfg.SetRoot("/foo")
	assert.Equal("/foo/data", cfg.DBDir())
	cfg.DBPath = "/opt/data"
	assert.Equal("/opt/data", cfg.DBDir())
	assert.Equal("ibc", string(cfg.IBC.Prefix()))
}

func TestConfigValidateBasic(t *testing.T) {
	testCases := map[string]struct {
		malleate func(*Config)
		expPass  bool
	}{
		"default":               {func(*Config) {}, true},
		"unknown log format":    {func(c *Config) { c.LogFormat = "xml" }, false},
		"unknown log level":     {func(c *Config) { c.LogLevel = "loud" }, false},
		"empty chain id":        {func(c *Config) { c.Chain.ChainID = "" }, false},
		"zero block time":       {func(c *Config) { c.Chain.BlockTime = 0 }, false},
		"block time too long":   {func(c *Config) { c.Chain.MaxExpectedTimePerBlock = time.Second }, false},
		"trusting >= unbonding": {func(c *Config) { c.Chain.TrustingPeriod = c.Chain.UnbondingPeriod }, false},
		"zero clock drift":      {func(c *Config) { c.Chain.MaxClockDrift = 0 }, false},
		"negative keep recent":  {func(c *Config) { c.Chain.KeepRecent = -1 }, false},
		"empty prefix":          {func(c *Config) { c.IBC.CommitmentPrefix = "" }, false},
		"negative delay":        {func(c *Config) { c.IBC.DelayPeriod = -time.Second }, false},
		"prometheus without addr": {func(c *Config) {
			c.Instrumentation.Prometheus = true
			c.Instrumentation.PrometheusListenAddr = ""
		}, false},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			cfg := TestConfig()
			tc.malleate(cfg)
			if tc.expPass {
				require.NoError(t, cfg.ValidateBasic())
			} else {
				require.Error(t, cfg.ValidateBasic())
			}
		})
	}
}

func TestEnsureRoot(t *testing.T) {
	rootDir := t.TempDir()

	require.NoError(t, EnsureRoot(rootDir))

	for _, dir := range []string{defaultConfigDir, defaultDataDir} {
		info, err := os.Stat(filepath.Join(rootDir, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
	_, err := os.Stat(ConfigFile(rootDir))
	require.NoError(t, err)
}

func TestWriteConfigFileRoundTrip(t *testing.T) {
	rootDir := t.TempDir()
	require.NoError(t, ensureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm))

	cfg := DefaultConfig()
	cfg.Chain.ChainID = "gaia-4"
	cfg.Chain.BlockTime = 2 * time.Second
	cfg.IBC.DelayPeriod = time.Minute
	cfg.Instrumentation.Prometheus = true
	require.NoError(t, WriteConfigFile(rootDir, cfg))

	v := viper.New()
	v.SetConfigFile(ConfigFile(rootDir))
	require.NoError(t, v.ReadInConfig())

	loaded := DefaultConfig()
	require.NoError(t, v.Unmarshal(loaded))
	loaded.SetRoot(rootDir)

	require.Equal(t, "gaia-4", loaded.Chain.ChainID)
	require.Equal(t, 2*time.Second, loaded.Chain.BlockTime)
	require.Equal(t, time.Minute, loaded.IBC.DelayPeriod)
	require.True(t, loaded.Instrumentation.Prometheus)
	require.Equal(t, cfg.Chain.TrustingPeriod, loaded.Chain.TrustingPeriod)
	require.NoError(t, loaded.ValidateBasic())
}

func TestResetDBProvider(t *testing.T) {
	cfg := TestConfig()
	cfg.SetRoot(t.TempDir())
	cfg.DBBackend = "goleveldb"
	ctx := &DBContext{ID: "sim-chain-a", Config: cfg}
	require.Equal(t, filepath.Join(cfg.DBDir(), "sim-chain-a.db"), ctx.Path())

	db, err := DefaultDBProvider(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = ResetDBProvider(DefaultDBProvider)(ctx)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)

	cfg.DBBackend = "memdb"
	require.Empty(t, ctx.Path())
}
