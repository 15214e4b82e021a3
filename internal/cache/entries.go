package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/transform"
)

// Key returns the cache key for src transformed under the configuration
// with fingerprint configHash.
func Key(src []byte, configHash string) string {
	data := make([]byte, 0, len(configHash)+1+len(src))
	data = append(data, configHash...)
	data = append(data, 0)
	data = append(data, src...)
	return ast.HashWithDomain(ast.DomainSource, data)
}

// Entry is a stored transform result.
type Entry struct {
	Key        string
	ConfigHash string
	Output     []byte
	Sites      []transform.Site
	RunID      string
}

// Get returns the entry for key. found is false when there is none.
func (c *Cache) Get(ctx context.Context, key string) (entry Entry, found bool, err error) {
	var sites string
	row := c.db.QueryRowContext(ctx, `
		SELECT key, config_hash, output, sites, run_id
		FROM entries
		WHERE key = ?
	`, key)
	if err := row.Scan(&entry.Key, &entry.ConfigHash, &entry.Output, &sites, &entry.RunID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get entry: %w", err)
	}
	if err := json.Unmarshal([]byte(sites), &entry.Sites); err != nil {
		return Entry{}, false, fmt.Errorf("get entry: decode sites: %w", err)
	}
	return entry, true, nil
}

// Put stores an entry. Storing an existing key is a no-op.
func (c *Cache) Put(ctx context.Context, e Entry) error {
	if e.Sites == nil {
		e.Sites = []transform.Site{}
	}
	sites, err := json.Marshal(e.Sites)
	if err != nil {
		return fmt.Errorf("put entry: encode sites: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "entries")
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (key, config_hash, output, sites, run_id, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, e.Key, e.ConfigHash, e.Output, string(sites), e.RunID, seq)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	return tx.Commit()
}

// Run records one transform request.
type Run struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Key   string `json:"key"`
	Hit   bool   `json:"hit"`
	Roots int    `json:"roots"`
}

// RecordRun appends a run record. Duplicate IDs are ignored.
func (c *Cache) RecordRun(ctx context.Context, r Run) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "runs")
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	hit := 0
	if r.Hit {
		hit = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, path, entry_key, hit, roots, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.ID, r.Path, r.Key, hit, r.Roots, seq)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (c *Cache) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, path, entry_key, hit, roots FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var hit int
		if err := rows.Scan(&r.ID, &r.Path, &r.Key, &hit, &r.Roots); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Hit = hit == 1
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int `json:"entries"`
	Runs    int `json:"runs"`
	Hits    int `json:"hits"`
}

// Stats returns entry and run counts.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM entries),
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(*) FROM runs WHERE hit = 1)
	`).Scan(&s.Entries, &s.Runs, &s.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return s, nil
}

// Clear deletes all entries and runs.
func (c *Cache) Clear(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM entries", "DELETE FROM runs"} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// Transform returns the cached result for src, or runs tr and stores the
// result. hit reports whether the cache answered. Every call is recorded
// as a run under path.
func (c *Cache) Transform(ctx context.Context, tr *transform.Transformer, configHash, path string, src []byte) (res *transform.Result, hit bool, err error) {
	key := Key(src, configHash)

	entry, found, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		res = &transform.Result{RunID: entry.RunID, Output: entry.Output, Sites: entry.Sites}
	} else {
		res, err = tr.Source(ctx, src)
		if err != nil {
			return nil, false, err
		}
		err = c.Put(ctx, Entry{Key: key, ConfigHash: configHash, Output: res.Output, Sites: res.Sites, RunID: res.RunID})
		if err != nil {
			return nil, false, err
		}
	}

	runID := res.RunID
	if found {
		runID = tr.NewRunID()
	}
	if err := c.RecordRun(ctx, Run{ID: runID, Path: path, Key: key, Hit: found, Roots: len(res.Sites)}); err != nil {
		return nil, false, err
	}
	return res, found, nil
}
