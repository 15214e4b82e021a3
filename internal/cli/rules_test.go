package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_Text(t *testing.T) {
	workdir(t, nil)

	out, err := execute(t, "", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "Marker: react(...)")
	assert.Contains(t, out, "===  react.equal")
	assert.Contains(t, out, "entry        react.from")
	assert.Contains(t, out, "put          .put")
	assert.Contains(t, out, "Root naming is off.")
}

func TestRules_JSON(t *testing.T) {
	workdir(t, map[string]string{"alkali.cue": "primitives: read: \"get\"\nnameRoots: true\n"})

	out, err := execute(t, "", "--format", "json", "rules")
	require.NoError(t, err)

	_, data := decode(t, out)
	assert.Equal(t, "react", data["marker"])
	assert.Equal(t, true, data["name_roots"])
	assert.Len(t, data["operators"], 14)

	prims := data["primitives"].(map[string]any)
	assert.Equal(t, "get", prims["read"])
	assert.Equal(t, "from", prims["entry"])
}
