package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterNamer(t *testing.T) {
	assert.Equal(t, "_ref0", CounterNamer{}.Name(Hint{Seq: 0}))
	assert.Equal(t, "_ref3", CounterNamer{}.Name(Hint{Object: "a", Property: "b", Seq: 3}))
	assert.Equal(t, "$c1", CounterNamer{Prefix: "$c"}.Name(Hint{Seq: 1}))
}

func TestDebugNamer(t *testing.T) {
	assert.Equal(t, "ab", DebugNamer{}.Name(Hint{Object: "a", Property: "b"}))
	assert.Equal(t, "tempb", DebugNamer{}.Name(Hint{Property: "b"}))
	assert.Equal(t, "atemp", DebugNamer{}.Name(Hint{Object: "a"}))
	assert.Equal(t, "xx", DebugNamer{Placeholder: "x"}.Name(Hint{}))
}

func TestNamerFor(t *testing.T) {
	n, err := NamerFor("", "")
	require.NoError(t, err)
	assert.Equal(t, CounterNamer{}, n)

	n, err = NamerFor(NamingCounter, "_t")
	require.NoError(t, err)
	assert.Equal(t, CounterNamer{Prefix: "_t"}, n)

	n, err = NamerFor(NamingDebug, "")
	require.NoError(t, err)
	assert.Equal(t, DebugNamer{}, n)

	_, err = NamerFor("random", "")
	assert.Error(t, err)
}

func TestNameSetFresh(t *testing.T) {
	s := nameSet{"a": true, "a_1": true}

	assert.Equal(t, "b", s.fresh("b"))
	assert.Equal(t, "b_1", s.fresh("b"))
	assert.Equal(t, "a_2", s.fresh("a"))
}

func TestOperators(t *testing.T) {
	rules := Operators()
	require.Len(t, rules, 14)

	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Symbol, rules[i].Symbol)
	}

	name, ok := Operator("===")
	assert.True(t, ok)
	assert.Equal(t, "equal", name)

	_, ok = Operator("**")
	assert.False(t, ok)
	_, ok = Operator("!=")
	assert.False(t, ok)
}
