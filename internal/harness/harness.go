package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/config"
	"github.com/roach88/alkali/internal/jsparse"
	"github.com/roach88/alkali/internal/rewrite"
	"github.com/roach88/alkali/internal/testutil"
	"github.com/roach88/alkali/internal/transform"
)

// Harness holds what one scenario execution needs.
type Harness struct {
	cfg *config.Config
	tr  *transform.Transformer
}

// Run executes a scenario. A non-nil error means the scenario could not be
// executed at all (bad config); failed expectations are reported in the
// Result.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	cfg, err := config.Parse([]byte(s.Config), s.Name+".config")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	tr, err := transform.New(cfg,
		transform.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID)),
		transform.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	h := &Harness{cfg: cfg, tr: tr}

	result := NewResult()
	var runErr error
	if s.Expression != "" {
		result.Output, runErr = h.tr.Expression(ctx, s.Expression)
	} else {
		var res *transform.Result
		res, runErr = h.tr.Source(ctx, []byte(s.Source))
		if runErr == nil {
			result.Output = string(res.Output)
			result.Sites = res.Sites
		}
	}

	if runErr != nil {
		result.Err = classify(runErr)
		if s.Expect.Error == "" {
			result.AddError(fmt.Sprintf("unexpected error: %v", runErr))
		} else if s.Expect.Error != result.Err {
			result.AddError(fmt.Sprintf("expected %s error, got: %v", s.Expect.Error, runErr))
		}
		return result, nil
	}

	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected %s error, got output %q", s.Expect.Error, result.Output))
		return result, nil
	}
	if result.Output != s.Expect.Output {
		result.AddError((&AssertionError{Type: "output", Expected: s.Expect.Output, Actual: result.Output}).Error())
	}
	if s.Expect.Sites != nil && len(result.Sites) != *s.Expect.Sites {
		result.AddError((&AssertionError{
			Type:     "sites",
			Expected: fmt.Sprintf("%d rewritten roots", *s.Expect.Sites),
			Actual:   fmt.Sprintf("%d rewritten roots", len(result.Sites)),
		}).Error())
	}

	for _, a := range s.Assertions {
		if err := h.assert(ctx, s, result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// classify maps a rewrite failure to an expected error class.
func classify(err error) string {
	var se *jsparse.SyntaxError
	switch {
	case errors.Is(err, rewrite.ErrInvalidReactiveExpression):
		return ErrorInvalidExpression
	case errors.As(err, &se):
		return ErrorSyntax
	}
	return err.Error()
}

// runtime returns the evaluator runtime matching the configured names.
func (h *Harness) runtime() testutil.Runtime {
	p := h.cfg.ResolvedPrimitives()
	return testutil.Runtime{
		Entry:      p.Entry,
		Read:       p.Read,
		MethodCall: p.MethodCall,
		FuncCall:   p.FuncCall,
		NewCall:    p.NewCall,
		Cond:       p.Cond,
		Put:        p.Put,
		Object:     p.Object,
		Name:       p.Name,
	}
}

// compile parses and rewrites a scenario expression, returning both forms.
func (h *Harness) compile(ctx context.Context, src string) (source, compiled ast.Node, err error) {
	source, err = jsparse.ParseExpression(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	compiled, err = h.tr.Tree(source)
	if err != nil {
		return nil, nil, err
	}
	return source, compiled, nil
}
