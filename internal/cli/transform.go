package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/alkali/internal/cache"
	"github.com/roach88/alkali/internal/config"
	"github.com/roach88/alkali/internal/transform"
)

// TransformOptions holds flags for the transform command.
type TransformOptions struct {
	*RootOptions
	Write   bool   // rewrite files in place
	OutDir  string // write outputs into this directory
	NoCache bool   // bypass the transform cache
}

// FileResult is the JSON payload for one transformed input.
type FileResult struct {
	Path   string           `json:"path"`
	Output string           `json:"output,omitempty"`
	Dest   string           `json:"dest,omitempty"`
	Sites  []transform.Site `json:"sites"`
	Cached bool             `json:"cached"`
	RunID  string           `json:"run_id"`
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transform [file...]",
		Short: "Rewrite reactive roots in JavaScript files",
		Long: `Rewrite every react(...) call in the given JavaScript files into
reactive primitive calls. Source outside reactive roots is left untouched.

With no file, or "-", source is read from stdin. A single input is printed
to stdout unless --write or --out-dir is given; several inputs need one of
them.

Examples:
  alkali transform app.js
  alkali transform -w src/*.js
  alkali transform -o dist src/a.js src/b.js
  cat app.js | alkali transform --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "rewrite files in place")
	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", "", "write outputs into this directory")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the transform cache")

	return cmd
}

func runTransform(ctx context.Context, opts *TransformOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Write && opts.OutDir != "" {
		_ = f.Error(ErrCodeGeneric, "--write and --out-dir are mutually exclusive", nil)
		return NewExitError(ExitCommandError, "conflicting flags")
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	toFiles := opts.Write || opts.OutDir != ""
	if len(args) > 1 && !toFiles {
		_ = f.Error(ErrCodeGeneric, "several inputs need --write or --out-dir", nil)
		return NewExitError(ExitCommandError, "several inputs without destination")
	}

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	pipe, err := newPipeline(cfg, opts.NoCache, opts.logger())
	if err != nil {
		_ = f.PipelineError(err)
		return WrapExitError(ExitCommandError, "failed to set up transform", err)
	}
	defer pipe.Close()

	results := make([]FileResult, 0, len(args))
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return WrapExitError(ExitCommandError, "canceled", err)
		}

		src, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			_ = f.Error(ErrCodeRead, fmt.Sprintf("failed to read %s: %v", path, err), nil)
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}

		res, hit, err := pipe.run(ctx, path, src)
		if err != nil {
			_ = f.PipelineError(fmt.Errorf("%s: %w", displayName(path), err))
			return WrapExitError(ExitFailure, "transform failed", err)
		}
		f.VerboseLog("%s: %d reactive roots (cached: %t)", displayName(path), len(res.Sites), hit)

		fr := FileResult{Path: displayName(path), Sites: res.Sites, Cached: hit, RunID: res.RunID}
		if toFiles && path != "-" {
			dest := path
			if opts.OutDir != "" {
				dest = filepath.Join(opts.OutDir, filepath.Base(path))
			}
			if err := writeOutput(dest, res.Output); err != nil {
				_ = f.Error(ErrCodeWrite, fmt.Sprintf("failed to write %s: %v", dest, err), nil)
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
			fr.Dest = dest
		} else {
			fr.Output = string(res.Output)
		}
		results = append(results, fr)
	}

	if opts.Format == "json" {
		if len(results) == 1 {
			return f.SuccessWithTrace(results[0], results[0].RunID)
		}
		return f.Success(results)
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		if r.Dest == "" {
			fmt.Fprint(w, r.Output)
			continue
		}
		fmt.Fprintf(w, "%s: %d reactive roots -> %s\n", r.Path, len(r.Sites), r.Dest)
	}
	return nil
}

// pipeline is a transformer with an optional cache in front of it.
type pipeline struct {
	tr         *transform.Transformer
	cache      *cache.Cache
	configHash string
}

// newPipeline builds the transformer for cfg and opens the cache when it
// is enabled. A cache that cannot be opened is skipped with a warning.
func newPipeline(cfg *config.Config, noCache bool, logger *slog.Logger) (*pipeline, error) {
	tr, err := transform.New(cfg, transform.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	p := &pipeline{tr: tr}
	if noCache || !cfg.Cache.Enabled {
		return p, nil
	}

	hash, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warn("transform cache unavailable", "path", cfg.Cache.Path, "error", err)
		return p, nil
	}
	p.cache = c
	p.configHash = hash
	return p, nil
}

func (p *pipeline) run(ctx context.Context, path string, src []byte) (*transform.Result, bool, error) {
	if p.cache == nil {
		res, err := p.tr.Source(ctx, src)
		return res, false, err
	}
	return p.cache.Transform(ctx, p.tr, p.configHash, displayName(path), src)
}

// Close releases the cache, if any.
func (p *pipeline) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}

// readInput reads path, or r when path is "-".
func readInput(path string, r io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, creating parent directories and keeping
// the mode of an existing file.
func writeOutput(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, mode)
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
