package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alkali/internal/rewrite"
	tu "github.com/roach88/alkali/internal/testutil"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "react", cfg.Marker)
	assert.Equal(t, "react", cfg.Namespace)
	assert.False(t, cfg.NameRoots)
	assert.Equal(t, Naming{Strategy: "counter", Prefix: "_ref", Placeholder: "temp"}, cfg.Naming)
	assert.Equal(t, Cache{Enabled: true, Path: ".alkali/cache.db"}, cfg.Cache)
	assert.Equal(t, rewrite.DefaultPrimitives, cfg.ResolvedPrimitives())
	assert.Empty(t, cfg.Source)
}

func TestParse_Overrides(t *testing.T) {
	src := `
marker:    "$r"
namespace: ""
nameRoots: true
naming: strategy: "debug"
primitives: {
	entry: "track"
	put:   "set"
}
cache: enabled: false
`
	cfg, err := Parse([]byte(src), "alkali.cue")
	require.NoError(t, err)

	assert.Equal(t, "$r", cfg.Marker)
	assert.Equal(t, "", cfg.Namespace)
	assert.True(t, cfg.NameRoots)
	assert.Equal(t, "debug", cfg.Naming.Strategy)
	assert.Equal(t, "_ref", cfg.Naming.Prefix)
	assert.False(t, cfg.Cache.Enabled)

	p := cfg.ResolvedPrimitives()
	assert.Equal(t, "track", p.Entry)
	assert.Equal(t, "set", p.Put)
	assert.Equal(t, "prop", p.Read)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		field string
	}{
		{"syntax", "marker: ", ErrSyntax, ""},
		{"bad identifier", `marker: "1abc"`, ErrInvalidValue, "marker"},
		{"bad strategy", `naming: strategy: "random"`, ErrInvalidValue, "naming.strategy"},
		{"wrong type", `nameRoots: "yes"`, ErrInvalidValue, "nameRoots"},
		{"unknown field", `markr: "x"`, ErrUnknownField, "markr"},
		{"unknown primitive", `primitives: fetch: "get"`, ErrUnknownField, "primitives.fetch"},
		{"duplicate primitive", `primitives: { read: "get", cond: "get" }`, ErrDuplicatePrim, "primitives"},
		{"operator collision", `primitives: entry: "add"`, ErrDuplicatePrim, "primitives"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "alkali.cue")
			require.Error(t, err)

			var errs Errors
			require.ErrorAs(t, err, &errs)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code, errs.Error())
			if tt.field != "" {
				assert.Equal(t, tt.field, errs[0].Field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing default file", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("default file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`marker: "r"`), 0o644))
		chdir(t, dir)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "r", cfg.Marker)
		assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))

		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, ErrReadFailed, errs[0].Code)
	})

	t.Run("testdata", func(t *testing.T) {
		cfg, err := Load("testdata/alkali.cue")
		require.NoError(t, err)
		assert.True(t, cfg.NameRoots)
		assert.Equal(t, "rt", cfg.Namespace)
	})
}

func TestConfig_Rewriter(t *testing.T) {
	cfg, err := Parse([]byte(`
namespace: "rt"
naming: { strategy: "debug", placeholder: "x" }
primitives: read: "get"
`), "")
	require.NoError(t, err)

	r, err := cfg.Rewriter(nil)
	require.NoError(t, err)

	out, err := r.Rewrite(tu.Call(tu.Id("f"), tu.Mem(tu.Id("a"), "b")))
	require.NoError(t, err)
	assert.Equal(t, `rt.fcall(f, [rt.get(a, "b")])`, cfg.Printer().Print(out))

	out, err = r.Rewrite(tu.Un("typeof", tu.Mem(tu.Id("a"), "b")))
	require.NoError(t, err)
	assert.Equal(t, `rt.fcall((ab) => typeof ab, [rt.get(a, "b")])`, cfg.Printer().Print(out))

	namer, err := cfg.Namer()
	require.NoError(t, err)
	assert.Equal(t, rewrite.DebugNamer{Placeholder: "x"}, namer)
}

func TestConfig_Fingerprint(t *testing.T) {
	a := Default()
	b := Default()
	b.Cache.Enabled = false
	b.Source = "/elsewhere/alkali.cue"

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb, "cache settings must not change the fingerprint")

	b.Primitives.Entry = "from"
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb, "explicit defaults resolve to the same names")

	b.NameRoots = true
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "marker", Message: "bad", Code: ErrInvalidValue, File: "alkali.cue", Line: 3}
	assert.Equal(t, "[E202] alkali.cue:3: marker: bad", e.Error())

	e = ValidationError{Message: "unreadable", Code: ErrReadFailed}
	assert.Equal(t, "[E200] unreadable", e.Error())

}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
