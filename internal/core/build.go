package core

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"

	"forcestatus/internal/forcestatus"
	"forcestatus/internal/result"
)

// BuildStatus is the lifecycle state of a build.
type BuildStatus string

const (
	StatusPending  BuildStatus = "pending"
	StatusRunning  BuildStatus = "running"
	StatusFinished BuildStatus = "finished"
)

// Build is one execution of a pipeline.
type Build struct {
	ID       string
	Number   int
	Pipeline string

	mu        sync.Mutex
	status    BuildStatus
	executor  *Executor
	oneOff    *Executor
	result    result.Result
	hasResult bool
	forced    bool
	started   time.Time
	duration  time.Duration
	console   lockedBuffer
	logger    *slog.Logger
}

func newBuild(id string, number int, pipeline string, logger *slog.Logger) *Build {
	return &Build{
		ID:       id,
		Number:   number,
		Pipeline: pipeline,
		status:   StatusPending,
		logger:   logger,
	}
}

// Executor returns the regular executor running the build, if any.
func (b *Build) Executor() (forcestatus.Executor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.executor == nil {
		return nil, nil
	}
	return b.executor, nil
}

// OneOffExecutor returns the one-off executor of a flyweight build, if any.
func (b *Build) OneOffExecutor() (forcestatus.Executor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.oneOff == nil {
		return nil, nil
	}
	return b.oneOff, nil
}

// SetResult records r. While the build runs a result can only get worse;
// a finished build keeps its result.
func (b *Build) SetResult(r result.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == StatusFinished {
		b.logger.Warn("Build is complete, result cannot be changed", "build", b.ID, "result", r)
		return
	}
	if b.hasResult && !r.IsWorseThan(b.result) {
		b.logger.Debug("Ignoring better result", "build", b.ID, "current", b.result, "requested", r)
		return
	}
	b.result = r
	b.hasResult = true
}

// Result returns the current result and whether one was set.
func (b *Build) Result() (result.Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result, b.hasResult
}

func (b *Build) Status() BuildStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Forced reports whether a force status step applied its result.
func (b *Build) Forced() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forced
}

func (b *Build) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration
}

// Log is the build's console.
func (b *Build) Log() io.Writer {
	return &b.console
}

// Console returns everything written to the build's console so far.
func (b *Build) Console() string {
	return b.console.String()
}

// Interrupt stops a running build with r from outside the build.
func (b *Build) Interrupt(r result.Result) error {
	e, err := b.Executor()
	if err != nil {
		return err
	}
	if e == nil {
		if e, err = b.OneOffExecutor(); err != nil {
			return err
		}
	}
	if e == nil {
		return ErrExecutorReleased
	}
	return e.Interrupt(r)
}

func (b *Build) start(e *Executor, oneOff bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if oneOff {
		b.oneOff = e
	} else {
		b.executor = e
	}
	b.status = StatusRunning
	b.started = time.Now()
}

func (b *Build) markForced() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = true
}

// finish detaches the executor and settles the result; an unset result is SUCCESS.
func (b *Build) finish() result.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasResult {
		b.result = result.Success
		b.hasResult = true
	}
	b.executor = nil
	b.oneOff = nil
	b.status = StatusFinished
	b.duration = time.Since(b.started)
	return b.result
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}
