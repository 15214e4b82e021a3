package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/alkali/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func (h *Harness) assert(ctx context.Context, s *Scenario, r *Result, a Assertion) error {
	switch a.Type {
	case AssertOutputContains:
		if !strings.Contains(r.Output, a.Value) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("output containing %q", a.Value), Actual: r.Output}
		}
	case AssertOutputExcludes:
		if strings.Contains(r.Output, a.Value) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("output without %q", a.Value), Actual: r.Output}
		}
	case AssertIdempotent:
		return h.assertIdempotent(ctx, s, r)
	case AssertEquivalent:
		return h.assertEquivalent(ctx, s, a.Env)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertIdempotent rewrites the compiled form again and requires the same
// text. For programs the output no longer contains marker calls, so a
// second transform must leave it untouched.
func (h *Harness) assertIdempotent(ctx context.Context, s *Scenario, r *Result) error {
	var again string
	if s.Expression != "" {
		_, compiled, err := h.compile(ctx, s.Expression)
		if err != nil {
			return err
		}
		twice, err := h.tr.Tree(compiled)
		if err != nil {
			return fmt.Errorf("idempotent: second rewrite: %w", err)
		}
		again = h.tr.Print(twice)
	} else {
		res, err := h.tr.Source(ctx, []byte(r.Output))
		if err != nil {
			return fmt.Errorf("idempotent: second transform: %w", err)
		}
		again = string(res.Output)
	}
	if again != r.Output {
		return &AssertionError{Type: AssertIdempotent, Expected: r.Output, Actual: again}
	}
	return nil
}

// assertEquivalent evaluates the expression and its compiled form in
// separate copies of env and compares the resolved values.
func (h *Harness) assertEquivalent(ctx context.Context, s *Scenario, env map[string]any) error {
	source, compiled, err := h.compile(ctx, s.Expression)
	if err != nil {
		return err
	}
	ev := testutil.NewEvaluator(h.runtime())

	want, err := ev.Eval(source, testutil.NewEnv(envValues(env)))
	if err != nil {
		return fmt.Errorf("equivalent: evaluate source: %w", err)
	}
	got, err := ev.Eval(compiled, testutil.NewEnv(envValues(env)))
	if err != nil {
		return fmt.Errorf("equivalent: evaluate compiled: %w", err)
	}
	want, got = testutil.Resolve(want), testutil.Resolve(got)
	if !reflect.DeepEqual(want, got) {
		return &AssertionError{
			Type:     AssertEquivalent,
			Expected: fmt.Sprintf("%#v", want),
			Actual:   fmt.Sprintf("%#v", got),
		}
	}
	return nil
}

// envValues converts YAML-decoded values into evaluator values: numbers
// become float64 and mappings become Objects.
func envValues(env map[string]any) map[string]any {
	out := make(map[string]any, len(env))
	for k, v := range env {
		out[k] = evalValue(v)
	}
	return out
}

func evalValue(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case map[string]any:
		obj := make(testutil.Object, len(v))
		for k, e := range v {
			obj[k] = evalValue(e)
		}
		return obj
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = evalValue(e)
		}
		return out
	}
	return v
}
