// Package cli wires the forcestatus commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"forcestatus/internal/condition"
	"forcestatus/internal/core"
	"forcestatus/pkg/logger"
)

type rootCmdArgs struct {
	version      VersionInfo
	LogsDir      string
	HistoryPath  string
	AgentID      string
	GuardTimeout time.Duration
	Verbose      bool
}

type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

const skipRootHooks = "skipRootHooks"

var RootArgs = &rootCmdArgs{}

var rootCmd = &cobra.Command{
	Use:           "forcestatus",
	Short:         "Run pipelines whose steps can force the build result",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipRootHooks] == "true" {
			return nil
		}
		logger.Setup(logger.Options{Verbose: RootArgs.Verbose, Out: cmd.ErrOrStderr()})
		slog.Debug("Version", "version", RootArgs.version)
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&RootArgs.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&RootArgs.LogsDir, "logs-dir", "./logs", "Directory for build console logs (empty disables)")
	rootCmd.PersistentFlags().StringVar(&RootArgs.HistoryPath, "history", "./history.jsonl", "Build history ledger (empty disables)")
	rootCmd.PersistentFlags().DurationVar(&RootArgs.GuardTimeout, "guard-timeout", condition.DefaultTimeout, "Maximum time to evaluate one force step condition")
	rootCmd.PersistentFlags().StringVar(&RootArgs.AgentID, "agent-id", hostname(), "Agent name recorded in the build history")
}

func SetVersionInfo(version, commit, date string) string {
	rootCmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)
	RootArgs.version = VersionInfo{Version: version, Commit: commit, Date: date}
	return rootCmd.Version
}

func newRunner() *core.Runner {
	return core.NewRunner(core.RunnerConfig{
		LogsDir:      RootArgs.LogsDir,
		HistoryPath:  RootArgs.HistoryPath,
		AgentID:      RootArgs.AgentID,
		GuardTimeout: RootArgs.GuardTimeout,
		Logger:       slog.Default(),
	})
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "local-agent"
	}
	return h
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
