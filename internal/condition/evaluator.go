// Package condition evaluates guard expressions written as Go boolean
// expressions inside a sandboxed yaegi interpreter.
package condition

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

// ErrNotBoolean is returned when an expression yields a non-boolean value.
var ErrNotBoolean = errors.New("expression is not boolean")

// allowedPackages are the only stdlib packages visible to expressions.
// Anything touching the filesystem, processes or network stays out.
var allowedPackages = []string{
	"math",
	"regexp",
	"strconv",
	"strings",
	"unicode",
}

// Evaluator evaluates guard expressions. The zero value is not usable; call
// NewEvaluator.
type Evaluator struct {
	timeout time.Duration
	symbols interp.Exports
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		timeout: DefaultTimeout,
		symbols: sandboxSymbols(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate interprets expression and returns its boolean value.
func (e *Evaluator) Evaluate(ctx context.Context, expression string) (bool, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return false, errors.New("empty expression")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	i, err := e.interpreter(ctx)
	if err != nil {
		return false, err
	}

	v, err := i.EvalWithContext(ctx, expr)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	if !v.IsValid() || v.Kind() != reflect.Bool {
		return false, fmt.Errorf("%w: %q yields %s", ErrNotBoolean, expr, kindOf(v))
	}
	return v.Bool(), nil
}

// interpreter returns a fresh interpreter with the sandboxed packages
// already imported, so expressions can call strings.HasPrefix directly.
func (e *Evaluator) interpreter(ctx context.Context) (*interp.Interpreter, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(e.symbols); err != nil {
		return nil, fmt.Errorf("load sandbox symbols: %w", err)
	}
	for _, pkg := range allowedPackages {
		if _, err := i.EvalWithContext(ctx, fmt.Sprintf("import %q", pkg)); err != nil {
			return nil, fmt.Errorf("import %s: %w", pkg, err)
		}
	}
	return i, nil
}

func sandboxSymbols() interp.Exports {
	allowed := make(map[string]bool, len(allowedPackages))
	for _, pkg := range allowedPackages {
		allowed[pkg] = true
	}

	exports := interp.Exports{}
	for key, syms := range stdlib.Symbols {
		// keys look like "strings/strings"
		idx := strings.LastIndex(key, "/")
		if idx < 0 || !allowed[key[:idx]] {
			continue
		}
		exports[key] = syms
	}
	return exports
}

func kindOf(v reflect.Value) string {
	if !v.IsValid() {
		return "no value"
	}
	return v.Kind().String()
}

// Func adapts a plain function to a guard predicate.
type Func func(ctx context.Context, expression string) (bool, error)

func (f Func) Evaluate(ctx context.Context, expression string) (bool, error) {
	return f(ctx, expression)
}
