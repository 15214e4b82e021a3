package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/alkali/internal/rewrite"
)

// RulesResult describes the rewrite rules in effect.
type RulesResult struct {
	Marker     string                 `json:"marker"`
	Namespace  string                 `json:"namespace"`
	Operators  []rewrite.OperatorRule `json:"operators"`
	Primitives rewrite.Primitives     `json:"primitives"`
	Naming     string                 `json:"naming"`
	NameRoots  bool                   `json:"name_roots"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the operator table and primitive names in effect",
		Long: `Print the operator-to-primitive table and the primitive names the
current configuration emits. Operators missing from the table are left
to an opaque capture.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}
	return cmd
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}

	result := RulesResult{
		Marker:     cfg.Marker,
		Namespace:  cfg.Namespace,
		Operators:  rewrite.Operators(),
		Primitives: cfg.ResolvedPrimitives(),
		Naming:     cfg.Naming.Strategy,
		NameRoots:  cfg.NameRoots,
	}
	if opts.Format == "json" {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	qualify := func(name string) string {
		if cfg.Namespace == "" {
			return name
		}
		return cfg.Namespace + "." + name
	}

	fmt.Fprintf(w, "Marker: %s(...)\n", result.Marker)
	fmt.Fprintf(w, "Naming: %s\n\n", result.Naming)
	fmt.Fprintln(w, "Operators:")
	for _, r := range result.Operators {
		fmt.Fprintf(w, "  %-4s %s\n", r.Symbol, qualify(r.Primitive))
	}

	p := result.Primitives
	fmt.Fprintln(w, "\nPrimitives:")
	for _, row := range [][2]string{
		{"entry", qualify(p.Entry)},
		{"read", qualify(p.Read)},
		{"method call", qualify(p.MethodCall)},
		{"func call", qualify(p.FuncCall)},
		{"new call", qualify(p.NewCall)},
		{"cond", qualify(p.Cond)},
		{"object", qualify(p.Object)},
		{"put", "." + p.Put},
		{"name", "." + p.Name},
	} {
		fmt.Fprintf(w, "  %-12s %s\n", row[0], row[1])
	}
	if !result.NameRoots {
		fmt.Fprintln(w, "\nRoot naming is off.")
	}
	return nil
}
