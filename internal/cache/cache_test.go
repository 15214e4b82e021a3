package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alkali/internal/config"
	"github.com/roach88/alkali/internal/transform"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	for i := 0; i < 3; i++ {
		c, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, c.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	c := openTestCache(t)

	var mode string
	require.NoError(t, c.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, c.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	_, err = c.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestKey(t *testing.T) {
	a := Key([]byte("react(a)"), "cfg1")

	assert.Len(t, a, 64)
	assert.Equal(t, a, Key([]byte("react(a)"), "cfg1"))
	assert.NotEqual(t, a, Key([]byte("react(b)"), "cfg1"))
	assert.NotEqual(t, a, Key([]byte("react(a)"), "cfg2"))
	// The separator keeps (config, source) boundaries unambiguous.
	assert.NotEqual(t, Key([]byte("bc"), "a"), Key([]byte("c"), "ab"))
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	e := Entry{
		Key:        "k1",
		ConfigHash: "cfg",
		Output:     []byte("react.from(a);"),
		Sites:      []transform.Site{{Line: 1, Column: 1, Original: "react(a)", Rewritten: "react.from(a)"}},
		RunID:      "run-1",
	}
	require.NoError(t, c.Put(ctx, e))

	got, found, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, e, got)

	// Content-addressed: a second put under the same key keeps the first.
	e2 := e
	e2.RunID = "run-2"
	require.NoError(t, c.Put(ctx, e2))
	got, _, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}

func TestPut_NilSites(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, Entry{Key: "k", ConfigHash: "c", Output: []byte("x;"), RunID: "r"}))
	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []transform.Site{}, got.Sites)
}

func TestRuns(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.RecordRun(ctx, Run{ID: "r1", Path: "a.js", Key: "k", Roots: 2}))
	require.NoError(t, c.RecordRun(ctx, Run{ID: "r2", Path: "a.js", Key: "k", Hit: true, Roots: 2}))
	require.NoError(t, c.RecordRun(ctx, Run{ID: "r2", Path: "dup.js", Key: "k"}))

	runs, err := c.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)
	assert.True(t, runs[0].Hit)
	assert.Equal(t, "a.js", runs[0].Path)

	runs, err = c.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 0, Runs: 2, Hits: 1}, stats)

	require.NoError(t, c.Clear(ctx))
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestTransform_MissThenHit(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	cfg := config.Default()
	tr, err := transform.New(cfg)
	require.NoError(t, err)
	hash, err := cfg.Fingerprint()
	require.NoError(t, err)

	src := []byte("let x = react(a + b);\n")

	first, hit, err := c.Transform(ctx, tr, hash, "x.js", src)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "let x = react.from(react.add(a, b));\n", string(first.Output))

	second, hit, err := c.Transform(ctx, tr, hash, "x.js", src)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Sites, second.Sites)
	assert.Equal(t, first.RunID, second.RunID)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 1, Runs: 2, Hits: 1}, stats)

	other := config.Default()
	other.NameRoots = true
	otherHash, err := other.Fingerprint()
	require.NoError(t, err)
	_, hit, err = c.Transform(ctx, tr, otherHash, "x.js", src)
	require.NoError(t, err)
	assert.False(t, hit, "a different configuration misses")
}

func TestTransform_ErrorNotCached(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	tr, err := transform.New(config.Default())
	require.NoError(t, err)

	_, _, err = c.Transform(ctx, tr, "cfg", "bad.js", []byte("react(a +);"))
	require.Error(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
