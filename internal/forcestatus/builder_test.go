package forcestatus_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forcestatus/internal/forcestatus"
	"forcestatus/internal/result"
)

type fakeExecutor struct {
	interrupts []result.Result
	err        error
	panicWith  any
}

func (e *fakeExecutor) Interrupt(r result.Result) error {
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	e.interrupts = append(e.interrupts, r)
	return e.err
}

type fakeBuild struct {
	primary   *fakeExecutor
	oneOff    *fakeExecutor
	lookupErr error
	results   []result.Result
}

func (b *fakeBuild) Executor() (forcestatus.Executor, error) {
	if b.lookupErr != nil {
		return nil, b.lookupErr
	}
	if b.primary == nil {
		return nil, nil
	}
	return b.primary, nil
}

func (b *fakeBuild) OneOffExecutor() (forcestatus.Executor, error) {
	if b.oneOff == nil {
		return nil, nil
	}
	return b.oneOff, nil
}

func (b *fakeBuild) SetResult(r result.Result) {
	b.results = append(b.results, r)
}

type countingPredicate struct {
	value bool
	err   error
	calls int
}

func (p *countingPredicate) Evaluate(_ context.Context, _ string) (bool, error) {
	p.calls++
	return p.value, p.err
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestPerformWithoutConditionInterrupts(t *testing.T) {
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}
	var log bytes.Buffer

	step := forcestatus.New(forcestatus.Config{Result: "FAILURE"}, nil)
	ok, err := step.Perform(context.Background(), build, &log)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []result.Result{result.Failure}, exec.interrupts)
	assert.Equal(t, []result.Result{result.Failure}, build.results)
	assert.Equal(t, []string{"Marking build as FAILURE and finishing."}, lines(&log))
}

func TestPerformIgnoresConditionWhenDisabled(t *testing.T) {
	pred := &countingPredicate{err: errors.New("must not be called")}
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}
	var log bytes.Buffer

	step := forcestatus.New(forcestatus.Config{
		Result:       "SUCCESS",
		Condition:    "this is (not valid",
		UseCondition: false,
	}, pred)
	ok, err := step.Perform(context.Background(), build, &log)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, pred.calls)
	assert.Equal(t, []result.Result{result.Success}, exec.interrupts)
}

func TestPerformBlankConditionPasses(t *testing.T) {
	for _, cond := range []string{"", "   ", "\t\n"} {
		pred := &countingPredicate{}
		exec := &fakeExecutor{}
		build := &fakeBuild{primary: exec}

		step := forcestatus.New(forcestatus.Config{Result: "UNSTABLE", Condition: cond, UseCondition: true}, pred)
		ok, err := step.Perform(context.Background(), build, &bytes.Buffer{})

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, pred.calls)
		assert.Equal(t, []result.Result{result.Unstable}, exec.interrupts)
	}
}

func TestPerformFalseConditionIsNoop(t *testing.T) {
	pred := &countingPredicate{value: false}
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}
	var log bytes.Buffer

	step := forcestatus.New(forcestatus.Config{Result: "ABORTED", Condition: "1 > 2", UseCondition: true}, pred)
	outcome, err := step.Apply(context.Background(), build, &log)

	require.NoError(t, err)
	assert.Equal(t, forcestatus.Skipped, outcome)
	assert.Equal(t, 1, pred.calls)
	assert.Empty(t, exec.interrupts)
	assert.Empty(t, build.results)
	assert.Empty(t, log.String())
}

func TestPerformTrueConditionApplies(t *testing.T) {
	pred := &countingPredicate{value: true}
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}

	step := forcestatus.New(forcestatus.Config{Result: "NOT_BUILT", Condition: "1 < 2", UseCondition: true}, pred)
	outcome, err := step.Apply(context.Background(), build, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, forcestatus.Applied, outcome)
	assert.Equal(t, []result.Result{result.NotBuilt}, build.results)
}

func TestPerformFallsBackToOneOffExecutor(t *testing.T) {
	oneOff := &fakeExecutor{}
	build := &fakeBuild{oneOff: oneOff}

	step := forcestatus.New(forcestatus.Config{Result: "SUCCESS"}, nil)
	ok, err := step.Perform(context.Background(), build, &bytes.Buffer{})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []result.Result{result.Success}, oneOff.interrupts)
}

func TestPerformPrefersPrimaryExecutor(t *testing.T) {
	primary, oneOff := &fakeExecutor{}, &fakeExecutor{}
	build := &fakeBuild{primary: primary, oneOff: oneOff}

	step := forcestatus.New(forcestatus.Config{Result: "ABORTED"}, nil)
	_, err := step.Perform(context.Background(), build, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Len(t, primary.interrupts, 1)
	assert.Empty(t, oneOff.interrupts)
}

// A missing executor is treated as success so a racing build is not failed.
func TestPerformNoExecutorIsNoop(t *testing.T) {
	build := &fakeBuild{}
	var log bytes.Buffer

	step := forcestatus.New(forcestatus.Config{Result: "FAILURE"}, nil)
	outcome, err := step.Apply(context.Background(), build, &log)

	require.NoError(t, err)
	assert.Equal(t, forcestatus.Skipped, outcome)
	assert.Empty(t, build.results)
	assert.Equal(t, []string{"No executor found. Is build running?"}, lines(&log))

	ok, err := step.Perform(context.Background(), build, &log)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPerformInterruptFailure(t *testing.T) {
	tests := []struct {
		name  string
		build *fakeBuild
	}{
		{name: "lookup error", build: &fakeBuild{lookupErr: errors.New("executor gone")}},
		{name: "interrupt error", build: &fakeBuild{primary: &fakeExecutor{err: errors.New("denied")}}},
		{name: "interrupt panic", build: &fakeBuild{oneOff: &fakeExecutor{panicWith: "boom"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log bytes.Buffer
			step := forcestatus.New(forcestatus.Config{Result: "SUCCESS"}, nil)

			ok, err := step.Perform(context.Background(), tt.build, &log)

			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, []result.Result{result.Failure}, tt.build.results)
			assert.Equal(t, []string{"Could not stop build."}, lines(&log))
		})
	}
}

func TestPerformGuardErrorPropagates(t *testing.T) {
	cause := errors.New("syntax error")
	pred := &countingPredicate{err: cause}
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}
	var log bytes.Buffer

	step := forcestatus.New(forcestatus.Config{Result: "FAILURE", Condition: "1 +", UseCondition: true}, pred)
	ok, err := step.Perform(context.Background(), build, &log)

	assert.False(t, ok)
	assert.ErrorIs(t, err, forcestatus.ErrGuardEvaluation)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, exec.interrupts)
	assert.Empty(t, build.results)
	assert.Empty(t, log.String())
}

func TestPerformGuardWithoutPredicate(t *testing.T) {
	step := forcestatus.New(forcestatus.Config{Result: "FAILURE", Condition: "true", UseCondition: true}, nil)
	_, err := step.Perform(context.Background(), &fakeBuild{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, forcestatus.ErrGuardEvaluation)
}

func TestPerformUnknownResult(t *testing.T) {
	exec := &fakeExecutor{}
	build := &fakeBuild{primary: exec}

	step := forcestatus.New(forcestatus.Config{Result: "GREEN"}, nil)
	ok, err := step.Perform(context.Background(), build, &bytes.Buffer{})

	assert.False(t, ok)
	assert.ErrorIs(t, err, forcestatus.ErrConfiguration)
	assert.ErrorIs(t, err, result.ErrUnknown)
	assert.Empty(t, exec.interrupts)
	assert.Empty(t, build.results)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", forcestatus.Applied.String())
	assert.Equal(t, "skipped", forcestatus.Skipped.String())
	assert.Equal(t, "failed", forcestatus.Failed.String())
}

func TestInterruptErrorUnwraps(t *testing.T) {
	cause := errors.New("denied")
	err := error(&forcestatus.InterruptError{Cause: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not stop build")
}
