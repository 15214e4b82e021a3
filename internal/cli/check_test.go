package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AllPass(t *testing.T) {
	workdir(t, map[string]string{"app.js": appJS, "plain.js": "f(x);\n"})

	out, err := execute(t, "", "check", "app.js", "plain.js")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ app.js (1 reactive roots)")
	assert.Contains(t, out, "✓ plain.js (0 reactive roots)")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestCheck_ReportsEveryFailure(t *testing.T) {
	workdir(t, map[string]string{
		"stmt.js":   "react(a ** (() => { return a; })());\n",
		"syntax.js": "react(a +);\n",
		"ok.js":     appJS,
	})

	out, err := execute(t, "", "--format", "json", "check", "stmt.js", "syntax.js", "ok.js", "missing.js")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, float64(1), data["passed"])
	assert.Equal(t, float64(3), data["failed"])

	files := data["files"].([]any)
	require.Len(t, files, 4)
	codes := make([]string, 0, 3)
	for _, f := range files {
		m := f.(map[string]any)
		if e, ok := m["error"].(map[string]any); ok {
			codes = append(codes, e["code"].(string))
		}
	}
	assert.Equal(t, []string{ErrCodeInvalidRoot, ErrCodeSyntax, ErrCodeRead}, codes)
}

func TestCheck_RequiresFiles(t *testing.T) {
	workdir(t, nil)

	_, err := execute(t, "", "check")
	require.Error(t, err)
}
