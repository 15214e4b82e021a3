package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/alkali/internal/cache"
)

// CacheOptions holds flags for the cache commands.
type CacheOptions struct {
	*RootOptions
	Limit int // rows shown by "cache runs"
}

// CacheStats is the JSON payload of "cache stats".
type CacheStats struct {
	Path string `json:"path"`
	cache.Stats
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the transform cache",
		Long: `The transform cache stores outputs keyed by the source text and the
output-affecting configuration. Its location is cache.path in alkali.cue.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "stats",
		Short:         "Show entry and run counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache, path string, f *OutputFormatter) error {
				stats, err := c.Stats(ctx)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return f.Success(CacheStats{Path: path, Stats: stats})
				}
				return f.Success(fmt.Sprintf("%s: %d entries, %d runs (%d hits)", path, stats.Entries, stats.Runs, stats.Hits))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Delete all entries and runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache, path string, f *OutputFormatter) error {
				if err := c.Clear(ctx); err != nil {
					return err
				}
				if opts.Format == "json" {
					return f.Success(map[string]string{"path": path, "cleared": "all"})
				}
				return f.Success("Cache cleared: " + path)
			})
		},
	})

	runsCmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recent transform runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache, path string, f *OutputFormatter) error {
				runs, err := c.Runs(ctx, opts.Limit)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return f.Success(runs)
				}
				w := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(w, "No runs recorded.")
					return nil
				}
				for _, r := range runs {
					state := "miss"
					if r.Hit {
						state = "hit"
					}
					fmt.Fprintf(w, "%s  %-4s  %2d roots  %s\n", r.ID, state, r.Roots, r.Path)
				}
				return nil
			})
		},
	}
	runsCmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to show")
	cmd.AddCommand(runsCmd)

	return cmd
}

// withCache opens the configured cache, runs fn and closes it.
func withCache(cmd *cobra.Command, opts *CacheOptions, fn func(context.Context, *cache.Cache, string, *OutputFormatter) error) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	path := cfg.Cache.Path
	c, err := cache.Open(path)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	defer c.Close()

	if err := fn(cmd.Context(), c, path, f); err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cache operation failed", err)
	}
	return nil
}
