package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"forcestatus/internal/condition"
	"forcestatus/internal/forcestatus"
	"forcestatus/internal/history"
	"forcestatus/internal/result"
	"forcestatus/internal/storage"
	"forcestatus/pkg/utils"
)

// DefaultStepTimeout bounds a single shell step.
const DefaultStepTimeout = 5 * time.Minute

// ErrStepFailed is returned when a step stops the pipeline with FAILURE.
var ErrStepFailed = errors.New("step failed")

// RunnerConfig configures a Runner. Empty paths disable log and history persistence.
type RunnerConfig struct {
	LogsDir      string
	HistoryPath  string
	AgentID      string
	StepTimeout  time.Duration
	// GuardTimeout bounds one condition evaluation when Predicate is nil.
	GuardTimeout time.Duration
	Predicate    forcestatus.Predicate
	Logger       *slog.Logger
}

// Runner ties together Scheduler + Executor + force status steps + storage + history
type Runner struct {
	Scheduler   *Scheduler
	LogStorage  *storage.LogStorage
	History     *history.Ledger
	Predicate   forcestatus.Predicate
	AgentID     string // identifies which agent executed the build
	StepTimeout time.Duration

	logger  *slog.Logger
	counter atomic.Int64
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		Scheduler:   NewScheduler(),
		Predicate:   cfg.Predicate,
		AgentID:     cfg.AgentID,
		StepTimeout: cfg.StepTimeout,
		logger:      logger,
	}
	if r.Predicate == nil {
		r.Predicate = condition.NewEvaluator(condition.WithTimeout(cfg.GuardTimeout))
	}
	if r.AgentID == "" {
		r.AgentID = "local-agent"
	}
	if r.StepTimeout <= 0 {
		r.StepTimeout = DefaultStepTimeout
	}
	if cfg.LogsDir != "" {
		r.LogStorage = storage.NewLogStorage(cfg.LogsDir)
	}
	if cfg.HistoryPath != "" {
		ledger, err := history.Open(cfg.HistoryPath)
		if err != nil {
			// fail-open: builds still run without a history
			logger.Warn("Cannot open build history", "path", cfg.HistoryPath, "error", err)
		} else {
			r.History = ledger
			r.counter.Store(int64(ledger.NextIndex()))
		}
	}
	return r
}

// NewBuild allocates a pending build for pipeline.
func (r *Runner) NewBuild(pipeline *Pipeline) *Build {
	number := int(r.counter.Add(1))
	return newBuild(uuid.NewString(), number, pipeline.Agent, r.logger)
}

// RunPipeline executes all stages sequentially and returns the finished build.
func (r *Runner) RunPipeline(ctx context.Context, pipeline *Pipeline) (*Build, error) {
	b := r.NewBuild(pipeline)
	return b, r.Run(ctx, b, pipeline)
}

// Run executes pipeline as build b. The returned error describes why the
// pipeline stopped early; the build result is set either way.
func (r *Runner) Run(ctx context.Context, b *Build, pipeline *Pipeline) error {
	log := r.logger.With("build", b.ID, "number", b.Number, "pipeline", pipeline.Agent)
	exec := NewExecutor(ctx, environ(pipeline.Env))
	b.start(exec, pipeline.Flyweight)
	log.Info("Starting pipeline", "agent", r.AgentID, "flyweight", pipeline.Flyweight)
	fmt.Fprintf(b.Log(), "Starting pipeline %s on agent %s\n", pipeline.Agent, r.AgentID)

	runErr := r.runStages(exec, b, pipeline)

	if res, ok := exec.Interrupted(); ok {
		b.SetResult(res)
		fmt.Fprintf(b.Log(), "Build interrupted with %s, remaining steps skipped\n", res)
		runErr = nil
	} else if runErr != nil && ctx.Err() != nil {
		b.SetResult(result.Aborted)
	}
	exec.Release()

	final := b.finish()
	fmt.Fprintf(b.Log(), "Finished: %s\n", final)
	log.Info("Pipeline finished", "result", final, "forced", b.Forced(), "duration", b.Duration())

	r.record(b, pipeline)
	return runErr
}

func (r *Runner) runStages(exec *Executor, b *Build, pipeline *Pipeline) error {
	for i, stage := range pipeline.Stages {
		fmt.Fprintf(b.Log(), "\n==> Stage %d: %s\n", i+1, stage.Name)

		for _, step := range r.Scheduler.GetNextSteps(pipeline, i) {
			if _, ok := exec.Interrupted(); ok {
				return nil
			}
			if err := exec.Context().Err(); err != nil {
				b.SetResult(result.Aborted)
				return fmt.Errorf("stage %q: %w", stage.Name, context.Cause(exec.Context()))
			}

			var err error
			if step.Force != nil {
				err = r.runForce(exec.Context(), b, pipeline, step.Force)
			} else {
				err = r.runShell(exec, b, step)
			}
			if err != nil {
				return fmt.Errorf("stage %q: %w", stage.Name, err)
			}
		}
	}
	return nil
}

func (r *Runner) runShell(exec *Executor, b *Build, step Step) error {
	fmt.Fprintf(b.Log(), "Running step: %s\n", step.Run)
	output, err := exec.RunStep(step.Run, r.StepTimeout)
	if output != "" {
		fmt.Fprint(b.Log(), output)
	}
	if err != nil {
		if _, ok := exec.Interrupted(); ok {
			return nil
		}
		b.SetResult(result.Failure)
		fmt.Fprintf(b.Log(), "Step failed: %v\n", err)
		return fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Run, err)
	}
	return nil
}

func (r *Runner) runForce(ctx context.Context, b *Build, pipeline *Pipeline, cfg *forcestatus.Config) error {
	expanded := *cfg
	// ${VAR} becomes a Go string literal so values cannot change the expression
	expanded.Condition = os.Expand(cfg.Condition, func(key string) string {
		return strconv.Quote(pipeline.Env[key])
	})

	step := forcestatus.New(expanded, r.Predicate)
	step.Logger = r.logger.With("build", b.ID)
	outcome, err := step.Apply(ctx, b, b.Log())
	if err != nil {
		b.SetResult(result.Failure)
		fmt.Fprintf(b.Log(), "Step failed: %v\n", err)
		return fmt.Errorf("%w: %w", ErrStepFailed, err)
	}
	switch outcome {
	case forcestatus.Applied:
		b.markForced()
	case forcestatus.Failed:
		return fmt.Errorf("%w: force %s", ErrStepFailed, cfg.Result)
	}
	return nil
}

// record persists the console and appends the build to the history.
// Both are best-effort and never change the build result.
func (r *Runner) record(b *Build, pipeline *Pipeline) {
	console := b.Console()
	logPath, logHash := "", utils.HashString(console)
	if r.LogStorage != nil {
		path, err := r.LogStorage.SaveLog(b.ID, pipeline.Agent, console)
		if err != nil {
			r.logger.Warn("Failed to save build log", "build", b.ID, "error", err)
		} else {
			r.logger.Debug("Build log saved", "build", b.ID, "path", path)
			logPath = path
		}
	}

	if r.History == nil {
		return
	}
	res, _ := b.Result()
	rec, err := r.History.Append(history.Entry{
		BuildID:  b.ID,
		Number:   b.Number,
		Pipeline: pipeline.Agent,
		Result:   res,
		Forced:   b.Forced(),
		AgentID:  r.AgentID,
		LogPath:  logPath,
		LogHash:  logHash,
	})
	if err != nil {
		r.logger.Warn("Cannot append build to history", "build", b.ID, "error", err)
		return
	}
	r.logger.Debug("History appended", "index", rec.Index, "hash", rec.Hash)
}

func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
