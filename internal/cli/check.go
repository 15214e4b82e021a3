package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// CheckFile is the check outcome for one input.
type CheckFile struct {
	Path  string    `json:"path"`
	Roots int       `json:"roots"`
	OK    bool      `json:"ok"`
	Error *CLIError `json:"error,omitempty"`
}

// CheckResult holds the overall check result.
type CheckResult struct {
	Files  []CheckFile `json:"files"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <file...>",
		Short: "Report invalid reactive roots without writing output",
		Long: `Parse and rewrite the given files without writing anything, reporting
syntax errors and reactive roots that contain statements. Every file is
checked even after a failure. The cache is not used.

Exit codes:
  0 - All files can be transformed
  1 - One or more files failed
  2 - Command error (bad config, etc.)

Examples:
  alkali check src/*.js
  alkali check app.js --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, args, cmd)
		},
	}

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	pipe, err := newPipeline(cfg, true, opts.logger())
	if err != nil {
		_ = f.PipelineError(err)
		return WrapExitError(ExitCommandError, "failed to set up transform", err)
	}

	result := CheckResult{Files: make([]CheckFile, 0, len(args))}
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return WrapExitError(ExitCommandError, "canceled", err)
		}

		cf := CheckFile{Path: displayName(path)}
		src, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			cf.Error = &CLIError{Code: ErrCodeRead, Message: err.Error()}
		} else if res, _, err := pipe.run(ctx, path, src); err != nil {
			code, details := errorCode(err)
			cf.Error = &CLIError{Code: code, Message: err.Error(), Details: details}
		} else {
			cf.Roots = len(res.Sites)
			cf.OK = true
		}

		if cf.OK {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Files = append(result.Files, cf)
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, cf := range result.Files {
			if cf.OK {
				fmt.Fprintf(w, "✓ %s (%d reactive roots)\n", cf.Path, cf.Roots)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", cf.Path)
			fmt.Fprintf(w, "  [%s] %s\n", cf.Error.Code, cf.Error.Message)
		}
		fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, len(result.Files))
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) failed", result.Failed))
	}
	return nil
}
