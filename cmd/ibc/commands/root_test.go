package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/ibc/config"
	"github.com/tendermint/ibc/libs/cli"
	"github.com/tendermint/ibc/libs/log"
)

// writeConfigVals writes a toml file with the given values.
func writeConfigVals(t *testing.T, dir string, vals map[string]string) {
	t.Helper()
	data := ""
	for k, v := range vals {
		data += fmt.Sprintf("%s = \"%s\"\n", k, v)
	}
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0600))
}

// clearConfig clears env vars and viper, and returns a default config
// rooted at dir.
func clearConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	require.NoError(t, os.Unsetenv("IBCHOME"))
	require.NoError(t, os.Unsetenv("IBC_HOME"))

	viper.Reset()
	conf := config.DefaultConfig()
	conf.SetRoot(dir)
	return conf
}

// testRootCmd returns a root command whose home flag defaults to the root
// of conf.
func testRootCmd(t *testing.T, conf *config.Config) *cobra.Command {
	t.Helper()
	cmd := RootCommand(conf, log.NewNopLogger())
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	home := cmd.PersistentFlags().Lookup(cli.HomeFlag)
	home.DefValue = conf.RootDir
	require.NoError(t, home.Value.Set(conf.RootDir))
	return cmd
}

func testSetup(t *testing.T, conf *config.Config, args []string, env map[string]string) error {
	t.Helper()
	cmd := testRootCmd(t, conf)
	return cli.RunWithArgs(context.Background(), cmd, append([]string{cmd.Use}, args...), env)
}

func TestRootHome(t *testing.T) {
	defaultRoot := t.TempDir()
	newRoot := filepath.Join(defaultRoot, "something-else")
	testCases := map[string]struct {
		args []string
		env  map[string]string
		root string
	}{
		"default":  {nil, nil, defaultRoot},
		"flag":     {[]string{"--home", newRoot}, nil, newRoot},
		"env":      {nil, map[string]string{"IBCHOME": newRoot}, newRoot},
		"env_form": {nil, map[string]string{"IBC_HOME": newRoot}, newRoot},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			conf := clearConfig(t, defaultRoot)
			require.NoError(t, testSetup(t, conf, tc.args, tc.env))
			require.Equal(t, tc.root, conf.RootDir)
		})
	}
}

func TestRootFlagsEnv(t *testing.T) {
	defaultLogLevel := config.DefaultConfig().LogLevel
	testCases := map[string]struct {
		args     []string
		env      map[string]string
		logLevel string
	}{
		"other flag": {[]string{"--log", "debug"}, nil, defaultLogLevel},
		"flag":       {[]string{"--log-level", "debug"}, nil, "debug"},
		"env":        {nil, map[string]string{"IBC_LOG_LEVEL": "error"}, "error"},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			conf := clearConfig(t, t.TempDir())
			cmd := testRootCmd(t, conf)
			cmd.PersistentFlags().String("log", "", "Log")
			require.NoError(t, cli.RunWithArgs(context.Background(), cmd, append([]string{cmd.Use}, tc.args...), tc.env))
			require.Equal(t, tc.logLevel, conf.LogLevel)
		})
	}
}

func TestRootConfig(t *testing.T) {
	testCases := map[string]struct {
		args     []string
		logLevel string
	}{
		"config file":         {nil, "debug"},
		"flag overrides file": {[]string{"--log-level=info"}, "info"},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			conf := clearConfig(t, root)
			writeConfigVals(t, filepath.Join(root, "config"), map[string]string{"log-level": "debug"})

			require.NoError(t, testSetup(t, conf, tc.args, nil))
			require.Equal(t, tc.logLevel, conf.LogLevel)
		})
	}
}

func TestRootInvalidConfig(t *testing.T) {
	root := t.TempDir()
	conf := clearConfig(t, root)
	writeConfigVals(t, filepath.Join(root, "config"), map[string]string{"log-format": "yaml"})
	require.Error(t, testSetup(t, conf, nil, nil))
}

func TestInitFiles(t *testing.T) {
	root := t.TempDir()
	conf := clearConfig(t, root)
	conf.Chain.ChainID = "mychain-3"

	require.NoError(t, initFiles(conf, log.NewNopLogger()))
	require.FileExists(t, config.ConfigFile(root))
	require.DirExists(t, filepath.Join(root, "data"))

	// the written file round trips through the root command
	loaded := clearConfig(t, root)
	require.NoError(t, testSetup(t, loaded, nil, nil))
	require.Equal(t, "mychain-3", loaded.Chain.ChainID)
	require.Equal(t, conf.Chain.BlockTime, loaded.Chain.BlockTime)
	require.Equal(t, conf.IBC.DelayPeriod, loaded.IBC.DelayPeriod)
}
