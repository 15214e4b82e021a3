package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/jsparse"
)

// RewriteOptions holds flags for the rewrite command.
type RewriteOptions struct {
	*RootOptions
	Tree     string // JSON tree input file ("-" for stdin)
	EmitTree bool   // print the result as a JSON tree
}

// RewriteResult is the JSON payload of the rewrite command.
type RewriteResult struct {
	Input  string         `json:"input,omitempty"`
	Output string         `json:"output"`
	Tree   map[string]any `json:"tree,omitempty"`
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RewriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rewrite [expression]",
		Short: "Rewrite a single reactive expression",
		Long: `Rewrite one expression as if it were the argument of a reactive root
and print the compiled form. No marker call is needed.

With --tree, the expression is read as a JSON tree instead of source text.

Examples:
  alkali rewrite 'a.b + c'
  alkali rewrite --tree expr.json --emit-tree`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tree, "tree", "", "read a JSON expression tree from file (- for stdin)")
	cmd.Flags().BoolVar(&opts.EmitTree, "emit-tree", false, "print the result as a JSON tree")

	return cmd
}

func runRewrite(ctx context.Context, opts *RewriteOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if (len(args) == 1) == (opts.Tree != "") {
		_ = f.Error(ErrCodeNoInput, "give either an expression or --tree", nil)
		return NewExitError(ExitCommandError, "no input")
	}

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	pipe, err := newPipeline(cfg, true, opts.logger())
	if err != nil {
		_ = f.PipelineError(err)
		return WrapExitError(ExitCommandError, "failed to set up transform", err)
	}
	tr := pipe.tr

	var input ast.Node
	if opts.Tree != "" {
		data, err := readInput(opts.Tree, cmd.InOrStdin())
		if err != nil {
			_ = f.Error(ErrCodeRead, fmt.Sprintf("failed to read %s: %v", opts.Tree, err), nil)
			return WrapExitError(ExitCommandError, "failed to read tree", err)
		}
		input, err = ast.DecodeJSON(data)
		if err != nil {
			_ = f.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid tree", err)
		}
	} else {
		input, err = jsparse.ParseExpression(ctx, args[0])
		if err != nil {
			_ = f.PipelineError(err)
			return WrapExitError(ExitFailure, "rewrite failed", err)
		}
	}

	out, err := tr.Tree(input)
	if err != nil {
		_ = f.PipelineError(err)
		return WrapExitError(ExitFailure, "rewrite failed", err)
	}

	result := RewriteResult{Output: tr.Print(out)}
	if len(args) == 1 {
		result.Input = args[0]
	}
	if opts.EmitTree {
		result.Tree = ast.ToMap(out)
	}

	if opts.Format == "json" {
		return f.SuccessWithTrace(result, tr.NewRunID())
	}
	if opts.EmitTree {
		data, err := ast.EncodeJSON(out)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode tree", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	return f.Success(result.Output)
}
