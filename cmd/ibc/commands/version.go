package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/version"
)

var verbose bool

// VersionCmd prints the version of the handler.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return nil
		}
		versions := connectiontypes.GetCompatibleVersions()
		identifiers := make([]string, len(versions))
		for i, v := range versions {
			identifiers[i] = v.Identifier
		}
		values, err := json.MarshalIndent(struct {
			IBC                string   `json:"ibc"`
			ConnectionVersions []string `json:"connection_versions"`
		}{
			IBC:                version.Version,
			ConnectionVersions: identifiers,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(values))
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the supported connection versions")
}
