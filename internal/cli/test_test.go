package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorScenario = `name: operator
description: "binary operator"
config: |
  namespace: ""
expression: "num + 5"
expect:
  output: "add(num, 5)"
assertions:
  - type: idempotent
`

const statementScenario = `name: statement
description: "statement rejected"
expression: "a ** (() => { return x; })()"
expect:
  error: invalid_reactive_expression
`

func TestTestCommand_PassAndGolden(t *testing.T) {
	dir := workdir(t, map[string]string{
		"testdata/scenarios/operator.yaml":  operatorScenario,
		"testdata/scenarios/statement.yaml": statementScenario,
	})

	out, err := execute(t, "", "test", "testdata/scenarios", "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ operator (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "testdata", "golden", "operator.golden"))
	require.NoError(t, err)
	assert.Equal(t, `{"output":"add(num, 5)","scenario_name":"operator","sites":0}`, string(golden))

	out, err = execute(t, "", "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ operator")
	assert.Contains(t, out, "✓ statement")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	workdir(t, map[string]string{
		"testdata/scenarios/operator.yaml": operatorScenario,
		"testdata/golden/operator.golden":  `{"output":"stale","scenario_name":"operator","sites":0}`,
	})

	out, err := execute(t, "", "--format", "json", "test", "testdata/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, float64(1), data["failed"])
	scenarios := data["scenarios"].([]any)
	errs := scenarios[0].(map[string]any)["errors"].([]any)
	assert.Contains(t, errs[0], "does not match golden file")
}

func TestTestCommand_Filter(t *testing.T) {
	workdir(t, map[string]string{
		"s/operator.yaml":  operatorScenario,
		"s/statement.yaml": statementScenario,
	})

	out, err := execute(t, "", "test", "s", "--filter", "stat*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "operator")

	out, err = execute(t, "", "test", "s", "--filter", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_FailingExpectation(t *testing.T) {
	workdir(t, map[string]string{
		"s/wrong.yaml": `name: wrong
description: "wrong output"
expression: "a - b"
expect:
  output: "react.add(a, b)"
`,
	})

	out, err := execute(t, "", "test", "s")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "Assertion failed: output")
}

func TestTestCommand_MissingDir(t *testing.T) {
	workdir(t, nil)

	out, err := execute(t, "", "test", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	abs, err := filepath.Abs("../harness/testdata/scenarios")
	require.NoError(t, err)
	workdir(t, nil)

	out, err := execute(t, "", "test", abs)
	require.NoError(t, err)
	assert.Contains(t, out, "8 passed, 0 failed, 8 total")
}
