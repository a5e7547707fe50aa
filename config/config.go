package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tendermint/ibc/core/commitment"
	"github.com/tendermint/ibc/libs/log"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// DefaultIBCDir is the default home directory, relative to $HOME.
	DefaultIBCDir = ".ibc"

	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = defaultConfigDir + "/" + defaultConfigFileName
)

// Config defines the top level configuration for an IBC host chain.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Chain           *ChainConfig           `mapstructure:"chain"`
	IBC             *IBCConfig             `mapstructure:"ibc"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for an IBC host chain.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Chain:           DefaultChainConfig(),
		IBC:             DefaultIBCConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Chain:           TestChainConfig(),
		IBC:             DefaultIBCConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Chain.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [chain] section: %w", err)
	}
	if err := cfg.IBC.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [ibc] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the host process.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Database backend: goleveldb | memdb
	// * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
	//   - pure go
	//   - stable
	// * memdb
	//   - nothing survives the process, used by the simulator and tests
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log-format (must be 'plain' or 'json')")
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("unknown log-level %q", cfg.LogLevel)
	}
	return nil
}

//-----------------------------------------------------------------------------
// ChainConfig

// ChainConfig defines the block production parameters of the host chain and
// the light client parameters it expects counterparties to track it with.
type ChainConfig struct {
	// Chain identifier. A "-{N}" suffix sets the revision number.
	ChainID string `mapstructure:"chain-id"`

	// Time between two consecutive blocks.
	BlockTime time.Duration `mapstructure:"block-time"`

	// Upper bound on BlockTime used to turn a connection time delay into a
	// block delay.
	MaxExpectedTimePerBlock time.Duration `mapstructure:"max-expected-time-per-block"`

	// Parameters of the clients counterparties create of this chain.
	TrustingPeriod  time.Duration `mapstructure:"trusting-period"`
	UnbondingPeriod time.Duration `mapstructure:"unbonding-period"`
	MaxClockDrift   time.Duration `mapstructure:"max-clock-drift"`

	// Number of recent heights whose commitments stay provable.
	// 0 keeps every height.
	KeepRecent int64 `mapstructure:"keep-recent"`
}

// DefaultChainConfig returns the default chain parameters.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		ChainID:                 "ibc-1",
		BlockTime:               5 * time.Second,
		MaxExpectedTimePerBlock: 30 * time.Second,
		TrustingPeriod:          14 * 24 * time.Hour,
		UnbondingPeriod:         21 * 24 * time.Hour,
		MaxClockDrift:           10 * time.Second,
		KeepRecent:              0,
	}
}

// TestChainConfig returns chain parameters for testing.
func TestChainConfig() *ChainConfig {
	cfg := DefaultChainConfig()
	cfg.ChainID = "testchain-0"
	cfg.KeepRecent = 100
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *ChainConfig) ValidateBasic() error {
	if cfg.ChainID == "" {
		return errors.New("chain-id can't be empty")
	}
	if cfg.BlockTime <= 0 {
		return errors.New("block-time must be positive")
	}
	if cfg.MaxExpectedTimePerBlock < cfg.BlockTime {
		return fmt.Errorf("max-expected-time-per-block (%v) can't be less than block-time (%v)",
			cfg.MaxExpectedTimePerBlock, cfg.BlockTime)
	}
	if cfg.TrustingPeriod <= 0 {
		return errors.New("trusting-period must be positive")
	}
	if cfg.TrustingPeriod >= cfg.UnbondingPeriod {
		return fmt.Errorf("trusting-period (%v) must be less than unbonding-period (%v)",
			cfg.TrustingPeriod, cfg.UnbondingPeriod)
	}
	if cfg.MaxClockDrift <= 0 {
		return errors.New("max-clock-drift must be positive")
	}
	if cfg.KeepRecent < 0 {
		return errors.New("keep-recent can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// IBCConfig

// IBCConfig defines the parameters of the IBC handler.
type IBCConfig struct {
	// Key under which the IBC store root is committed in the app hash.
	CommitmentPrefix string `mapstructure:"commitment-prefix"`

	// Delay period proposed by connections this chain initiates.
	DelayPeriod time.Duration `mapstructure:"delay-period"`
}

// DefaultIBCConfig returns the default handler parameters.
func DefaultIBCConfig() *IBCConfig {
	return &IBCConfig{
		CommitmentPrefix: "ibc",
		DelayPeriod:      0,
	}
}

// Prefix returns the commitment prefix.
func (cfg *IBCConfig) Prefix() commitment.Prefix {
	return commitment.Prefix(cfg.CommitmentPrefix)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *IBCConfig) ValidateBasic() error {
	if err := cfg.Prefix().Validate(); err != nil {
		return fmt.Errorf("invalid commitment-prefix: %w", err)
	}
	if cfg.DelayPeriod < 0 {
		return errors.New("delay-period can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "ibc",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func ensureDir(dir string, mode os.FileMode) error {
	if err := os.MkdirAll(dir, mode); err != nil {
		return fmt.Errorf("could not create directory %q: %w", dir, err)
	}
	return nil
}
