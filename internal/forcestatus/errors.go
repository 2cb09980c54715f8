package forcestatus

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the configured result does not name a known result.
	ErrConfiguration = errors.New("invalid force status configuration")
	// ErrGuardEvaluation means the condition could not be evaluated to a boolean.
	ErrGuardEvaluation = errors.New("condition evaluation failed")
)

// InterruptError wraps whatever went wrong while stopping the build.
type InterruptError struct {
	Cause error
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("could not stop build: %v", e.Cause)
}

func (e *InterruptError) Unwrap() error {
	return e.Cause
}
