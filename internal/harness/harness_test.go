package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alkali/internal/testutil"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 8)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRun_OutputMismatch(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expected output",
		Expression:  "a + b",
		Expect:      Expect{Output: "react.subtract(a, b)"},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "react.add(a, b)", result.Output)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: output")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected",
		Description: "statement without expected error",
		Expression:  "a ** (() => { return x; })()",
		Expect:      Expect{Output: "anything"},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, ErrorInvalidExpression, result.Err)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_MissingExpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "missing",
		Description: "valid expression expected to fail",
		Expression:  "a",
		Expect:      Expect{Error: ErrorSyntax},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected syntax error")
}

func TestRun_SiteCount(t *testing.T) {
	two := 2
	s := &Scenario{
		Name:        "sites",
		Description: "site count mismatch",
		Source:      "x = react(a);\n",
		Expect:      Expect{Output: "x = react.from(a);\n", Sites: &two},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2 rewritten roots")
}

func TestRun_BadConfig(t *testing.T) {
	s := &Scenario{
		Name:        "bad_config",
		Description: "config with an unknown field",
		Config:      `colour: "blue"`,
		Expression:  "a",
		Expect:      Expect{Output: "a"},
	}

	_, err := Run(context.Background(), s)
	assert.ErrorContains(t, err, "E203")
}

func TestAssertions(t *testing.T) {
	base := Scenario{
		Name:        "assertions",
		Description: "assertion checks",
		Expression:  "a > b",
		Expect:      Expect{Output: "react.greater(a, b)"},
	}

	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"contains", Assertion{Type: AssertOutputContains, Value: "greater"}, true},
		{"contains fails", Assertion{Type: AssertOutputContains, Value: "less"}, false},
		{"excludes", Assertion{Type: AssertOutputExcludes, Value: "less"}, true},
		{"excludes fails", Assertion{Type: AssertOutputExcludes, Value: "greater"}, false},
		{"idempotent", Assertion{Type: AssertIdempotent}, true},
		{"equivalent", Assertion{Type: AssertEquivalent, Env: map[string]any{"a": 3, "b": 1.5}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			s.Assertions = []Assertion{tt.assertion}

			result, err := Run(context.Background(), &s)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, result.Pass, result.Errors)
		})
	}
}

func TestEvalValue(t *testing.T) {
	got := envValues(map[string]any{
		"n":   3,
		"s":   "x",
		"obj": map[string]any{"k": 1, "list": []any{2, "y"}},
	})

	assert.Equal(t, 3.0, got["n"])
	assert.Equal(t, "x", got["s"])
	assert.Equal(t, testutil.Object{"k": 1.0, "list": []any{2.0, "y"}}, got["obj"])
}

func TestLoadScenario(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "s.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("valid", func(t *testing.T) {
		s, err := LoadScenario("testdata/scenarios/a_operator.yaml")
		require.NoError(t, err)
		assert.Equal(t, "scenario_a_operator", s.Name)
		assert.Equal(t, "num + 5", s.Expression)
		assert.Len(t, s.Assertions, 2)
		assert.Equal(t, 2, s.Assertions[1].Env["num"])
	})

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown field", "name: x\ndescription: d\nexpresion: a\n", "failed to parse YAML"},
		{"missing name", "description: d\nexpression: a\nexpect: { output: a }\n", "name is required"},
		{"missing description", "name: x\nexpression: a\nexpect: { output: a }\n", "description is required"},
		{"no input", "name: x\ndescription: d\nexpect: { output: a }\n", "exactly one of expression and source"},
		{"both inputs", "name: x\ndescription: d\nexpression: a\nsource: a\nexpect: { output: a }\n", "exactly one of expression and source"},
		{"no expectation", "name: x\ndescription: d\nexpression: a\n", "output or error is required"},
		{"output and error", "name: x\ndescription: d\nexpression: a\nexpect: { output: a, error: syntax }\n", "exclusive"},
		{"unknown error class", "name: x\ndescription: d\nexpression: a\nexpect: { error: boom }\n", "unknown error class"},
		{"sites on expression", "name: x\ndescription: d\nexpression: a\nexpect: { output: a, sites: 1 }\n", "source scenarios only"},
		{"unknown assertion", "name: x\ndescription: d\nexpression: a\nexpect: { output: a }\nassertions: [{ type: magic }]\n", "unknown assertion type"},
		{"contains without value", "name: x\ndescription: d\nexpression: a\nexpect: { output: a }\nassertions: [{ type: output_contains }]\n", "value is required"},
		{"equivalent on source", "name: x\ndescription: d\nsource: a\nexpect: { output: a }\nassertions: [{ type: equivalent }]\n", "requires an expression"},
		{"assertion on error", "name: x\ndescription: d\nexpression: a\nexpect: { error: syntax }\nassertions: [{ type: idempotent }]\n", "not allowed on error scenarios"},
		{"path in name", "name: a/b\ndescription: d\nexpression: a\nexpect: { output: a }\n", "path separators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(write(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenario("testdata/scenarios/nope.yaml")
		assert.ErrorContains(t, err, "failed to read scenario file")
	})
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := []byte("name: same\ndescription: d\nexpression: a\nexpect: { output: a }\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yml"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, `scenario name "same" already used by one.yaml`)
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Type: "output", Expected: "a", Actual: "b"}
	assert.Equal(t, "Assertion failed: output\n  Expected: a\n  Actual: b", err.Error())
}
