package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/dusted-go/logging/prettylog"
)

// Options controls the process-wide logger.
type Options struct {
	Verbose bool
	Out     io.Writer
}

// New returns a pretty slog handler writing to opts.Out (stderr by default).
// Verbose switches to debug level and adds the source location.
func New(opts Options) slog.Handler {
	logOpts := slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	}
	if opts.Verbose {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	return prettylog.New(&logOpts, prettylog.WithDestinationWriter(out))
}

// Setup installs the handler as the slog default and returns the logger.
func Setup(opts Options) *slog.Logger {
	l := slog.New(New(opts))
	slog.SetDefault(l)
	return l
}
