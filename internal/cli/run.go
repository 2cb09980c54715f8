package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"forcestatus/internal/core"
)

// ErrBuildNotCompleted makes the process exit non-zero for unusable results.
var ErrBuildNotCompleted = errors.New("build did not complete")

var runCmd = &cobra.Command{
	Use:   "run <pipeline.yaml>",
	Short: "Run a pipeline locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	pipeline, err := core.LoadPipeline(args[0])
	if err != nil {
		return fmt.Errorf("load pipeline: %w", err)
	}

	b, runErr := newRunner().RunPipeline(cmd.Context(), pipeline)
	fmt.Fprint(cmd.OutOrStdout(), b.Console())

	res, _ := b.Result()
	if runErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrBuildNotCompleted, res, runErr)
	}
	if !res.Completed() {
		return fmt.Errorf("%w: %s", ErrBuildNotCompleted, res)
	}
	return nil
}
