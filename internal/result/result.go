package result

import (
	"errors"
	"fmt"
	"strings"
)

// Result is the terminal status of a build.
// Ordinals grow with severity, so a higher value is a worse result.
type Result int

const (
	Success Result = iota
	Unstable
	Failure
	NotBuilt
	Aborted
)

// ErrUnknown is returned when text does not name a known result.
var ErrUnknown = errors.New("unknown build result")

var names = [...]string{
	Success:  "SUCCESS",
	Unstable: "UNSTABLE",
	Failure:  "FAILURE",
	NotBuilt: "NOT_BUILT",
	Aborted:  "ABORTED",
}

// All returns every result in ordinal order.
func All() []Result {
	return []Result{Success, Unstable, Failure, NotBuilt, Aborted}
}

func (r Result) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Result(%d)", int(r))
	}
	return names[r]
}

// Valid reports whether r is one of the five known results.
func (r Result) Valid() bool {
	return r >= Success && r <= Aborted
}

// Parse converts an exact result name (e.g. "NOT_BUILT") into a Result.
func Parse(text string) (Result, error) {
	name := strings.TrimSpace(text)
	for i, n := range names {
		if n == name {
			return Result(i), nil
		}
	}
	return Failure, fmt.Errorf("%w: %q", ErrUnknown, text)
}

// IsWorseThan reports whether r is more severe than other.
func (r Result) IsWorseThan(other Result) bool {
	return r > other
}

// IsBetterThan reports whether r is less severe than other.
func (r Result) IsBetterThan(other Result) bool {
	return r < other
}

// Combine returns the worse of the two results.
func (r Result) Combine(other Result) Result {
	if other.IsWorseThan(r) {
		return other
	}
	return r
}

// Completed reports whether a build with this result produced usable output.
func (r Result) Completed() bool {
	return r == Success || r == Unstable
}

func (r Result) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(r))
	}
	return []byte(names[r]), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
