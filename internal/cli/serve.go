package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"forcestatus/internal/server"
)

var serveArgs struct {
	Addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept pipelines over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	serveCmd.Flags().StringVar(&serveArgs.Addr, "addr", ":"+envOr("PORT", "8080"), "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := server.New(ctx, newRunner(), slog.Default())
	srv := &http.Server{
		Addr:              serveArgs.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", serveArgs.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	return err
}
