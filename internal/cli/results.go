package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"forcestatus/internal/forcestatus"
)

var resultsCmd = &cobra.Command{
	Use:         "results",
	Short:       "List the results a force step can set",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipRootHooks: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		for _, item := range (forcestatus.Descriptor{}).FillResultItems() {
			fmt.Fprintln(cmd.OutOrStdout(), item)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show the current version",
	Annotations: map[string]string{skipRootHooks: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		b, _ := json.MarshalIndent(RootArgs.version, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd, versionCmd)
}
