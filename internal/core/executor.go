package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"forcestatus/internal/result"
)

var (
	// ErrInterrupted is the cancellation cause of an interrupted build.
	ErrInterrupted = errors.New("build interrupted")
	// ErrExecutorReleased is returned when interrupting a build that already finished.
	ErrExecutorReleased = errors.New("executor is not running a build")
)

// Executor is the slot running one build. It runs the build's shell steps
// and can be interrupted from any goroutine.
type Executor struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	env    []string

	mu        sync.Mutex
	interrupt *result.Result
	released  bool
}

// NewExecutor returns an executor bound to ctx. env entries ("KEY=value")
// are added to the environment of every step.
func NewExecutor(ctx context.Context, env []string) *Executor {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Executor{ctx: ctx, cancel: cancel, env: env}
}

// Context is cancelled once the executor is interrupted or released.
func (e *Executor) Context() context.Context {
	return e.ctx
}

// RunStep executes a single shell command and returns its combined output.
func (e *Executor) RunStep(command string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(e.ctx, timeout)
	defer cancel()

	// Run the step in a shell (sh -c "cmd")
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), e.env...)
	// children of sh may keep the output pipes open after a kill
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", err, context.Cause(ctx))
	}
	return out.String(), err
}

// Interrupt asks the build to stop with r and returns without waiting.
// The first requested result wins.
func (e *Executor) Interrupt(r result.Result) error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return ErrExecutorReleased
	}
	if e.interrupt == nil {
		e.interrupt = &r
	}
	e.mu.Unlock()

	e.cancel(ErrInterrupted)
	return nil
}

// Interrupted returns the result requested by Interrupt, if any.
func (e *Executor) Interrupted() (result.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interrupt == nil {
		return result.Success, false
	}
	return *e.interrupt, true
}

// Release frees the slot once the build finished.
func (e *Executor) Release() {
	e.mu.Lock()
	e.released = true
	e.mu.Unlock()
	e.cancel(context.Canceled)
}
