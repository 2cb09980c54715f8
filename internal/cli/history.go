package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"forcestatus/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the build history ledger",
}

var historyInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recorded builds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := history.Open(RootArgs.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		for _, r := range l.Records() {
			forced := ""
			if r.Forced {
				forced = " (forced)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s build=%s number=%d result=%s%s hash=%s\n",
				r.Index, r.Pipeline, r.BuildID, r.Number, r.Result, forced, shortHash(r.Hash))
		}
		return nil
	},
}

var historyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the ledger for tampering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := history.Open(RootArgs.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if err := l.VerifyChain(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History verification OK")
		return nil
	},
}

// shortHash abbreviates a hash for listings; records are not verified
// before printing, so hand-edited hashes may be short.
func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

func init() {
	historyCmd.AddCommand(historyInspectCmd, historyVerifyCmd)
	rootCmd.AddCommand(historyCmd)
}
