package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var submitArgs struct {
	Server string
}

var submitCmd = &cobra.Command{
	Use:   "submit <pipeline.yaml>",
	Short: "Send a pipeline to a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  submit,
}

func init() {
	submitCmd.Flags().StringVar(&submitArgs.Server, "server", envOr("FORCESTATUS_SERVER", "http://localhost:8080"), "Server base URL")
	rootCmd.AddCommand(submitCmd)
}

func submit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read pipeline file: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	url := strings.TrimRight(submitArgs.Server, "/") + "/pipelines"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-yaml")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("server rejected pipeline: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Fprint(cmd.OutOrStdout(), string(body))
	return nil
}
