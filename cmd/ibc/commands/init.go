package commands

import (
	"github.com/spf13/cobra"

	"github.com/tendermint/ibc/config"
	"github.com/tendermint/ibc/libs/log"
)

// MakeInitFilesCommand returns the command that writes the config file and
// creates the data directory under the home directory.
func MakeInitFilesCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initializes the IBC home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(conf, logger)
		},
	}
}

func initFiles(conf *config.Config, logger log.Logger) error {
	if err := config.EnsureRoot(conf.RootDir); err != nil {
		return err
	}
	// EnsureRoot keeps an existing file; flags and environment still apply.
	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}
	logger.Info("wrote config", "path", config.ConfigFile(conf.RootDir), "chain_id", conf.Chain.ChainID)
	return nil
}
