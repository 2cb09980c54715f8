// Package forcestatus implements a build step that forces the final result of
// the running build and stops its executor.
//
// The step is gated by an optional guard condition. When the guard passes the
// step interrupts the build's executor with the configured result, so the
// remaining steps never run. Host objects are reached through the narrow
// interfaces declared here; the host adapts its own build and executor types.
package forcestatus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"forcestatus/internal/result"
)

// Config is the user-facing configuration of a force status step.
type Config struct {
	Result       string `yaml:"result" json:"result"`
	Condition    string `yaml:"condition,omitempty" json:"condition,omitempty"`
	UseCondition bool   `yaml:"useCondition,omitempty" json:"useCondition,omitempty"`
}

// ParsedResult returns the configured result or ErrConfiguration.
func (c Config) ParsedResult() (result.Result, error) {
	r, err := result.Parse(c.Result)
	if err != nil {
		return result.Failure, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return r, nil
}

// guarded reports whether the condition has to be evaluated at all.
func (c Config) guarded() bool {
	return c.UseCondition && strings.TrimSpace(c.Condition) != ""
}

// Executor is the host slot running a build. Interrupt asks it to stop with
// the given result and must not wait for the build to finish.
type Executor interface {
	Interrupt(r result.Result) error
}

// ExecutorLookup finds the executor of a build. Both methods return a nil
// Executor and a nil error when there is none.
type ExecutorLookup interface {
	Executor() (Executor, error)
	OneOffExecutor() (Executor, error)
}

// ResultSink receives the build's result.
type ResultSink interface {
	SetResult(r result.Result)
}

// Build is the running build as seen by the step.
type Build interface {
	ExecutorLookup
	ResultSink
}

// Predicate evaluates a guard expression to a boolean.
type Predicate interface {
	Evaluate(ctx context.Context, expression string) (bool, error)
}

// Outcome is the terminal state of one Perform call.
type Outcome int

const (
	Skipped Outcome = iota
	Applied
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// Builder is a configured force status step.
type Builder struct {
	Config
	Predicate Predicate
	Logger    *slog.Logger
}

// New returns a step for cfg. predicate may be nil when the step never
// evaluates a condition.
func New(cfg Config, predicate Predicate) *Builder {
	return &Builder{Config: cfg, Predicate: predicate}
}

// Descriptor returns the step's descriptor.
func (b *Builder) Descriptor() Descriptor {
	return Descriptor{}
}

// Perform runs the step against build and writes console lines to log.
// The boolean reports whether the step passed. An error is returned only for
// a bad configuration or a guard that could not be evaluated; a failed
// interrupt is reported through the boolean, the build result and the log.
func (b *Builder) Perform(ctx context.Context, build Build, log io.Writer) (bool, error) {
	outcome, err := b.Apply(ctx, build, log)
	if err != nil {
		return false, err
	}
	return outcome != Failed, nil
}

// Apply is Perform reporting the terminal state instead of a pass flag.
func (b *Builder) Apply(ctx context.Context, build Build, log io.Writer) (Outcome, error) {
	r, err := b.ParsedResult()
	if err != nil {
		return Failed, err
	}

	ok, err := b.conditionHolds(ctx)
	if err != nil {
		return Failed, err
	}
	if !ok {
		b.logger().Debug("Condition not met, leaving build result alone", "condition", b.Condition)
		return Skipped, nil
	}

	outcome := b.tryInterrupt(build, log, r)
	b.logger().Debug("Force status step finished", "result", r, "outcome", outcome)
	return outcome, nil
}

func (b *Builder) conditionHolds(ctx context.Context) (bool, error) {
	if !b.guarded() {
		return true, nil
	}
	if b.Predicate == nil {
		return false, fmt.Errorf("%w: no evaluator configured for %q", ErrGuardEvaluation, b.Condition)
	}
	ok, err := b.Predicate.Evaluate(ctx, b.Condition)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrGuardEvaluation, b.Condition, err)
	}
	return ok, nil
}

func (b *Builder) tryInterrupt(build Build, log io.Writer, r result.Result) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = b.fail(build, log, &InterruptError{Cause: fmt.Errorf("panic: %v", rec)})
		}
	}()

	e, err := executorOf(build)
	if err != nil {
		return b.fail(build, log, &InterruptError{Cause: err})
	}
	if e == nil {
		fmt.Fprintln(log, "No executor found. Is build running?")
		return Skipped
	}

	if err := e.Interrupt(r); err != nil {
		return b.fail(build, log, &InterruptError{Cause: err})
	}
	build.SetResult(r)
	fmt.Fprintf(log, "Marking build as %s and finishing.\n", r)
	return Applied
}

func (b *Builder) fail(build Build, log io.Writer, err *InterruptError) Outcome {
	build.SetResult(result.Failure)
	fmt.Fprintln(log, "Could not stop build.")
	b.logger().Warn("Force status step failed", "error", err)
	return Failed
}

func executorOf(build Build) (Executor, error) {
	e, err := build.Executor()
	if err != nil {
		return nil, fmt.Errorf("lookup executor: %w", err)
	}
	if e != nil {
		return e, nil
	}
	e, err = build.OneOffExecutor()
	if err != nil {
		return nil, fmt.Errorf("lookup one-off executor: %w", err)
	}
	return e, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
