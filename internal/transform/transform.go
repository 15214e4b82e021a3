// Package transform runs the alkali pipeline on JavaScript source: parse,
// detect and rewrite reactive roots, print each rewritten root and splice
// it back over the original call text. Source outside reactive roots is
// preserved byte for byte.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/config"
	"github.com/roach88/alkali/internal/jsparse"
	"github.com/roach88/alkali/internal/printer"
	"github.com/roach88/alkali/internal/rewrite"
)

// Transformer applies one configuration to any number of inputs. It is
// safe for concurrent use.
type Transformer struct {
	rw      *rewrite.Rewriter
	printer *printer.Printer
	runIDs  RunIDGenerator
	logger  *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithRunIDGenerator overrides the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(t *Transformer) { t.runIDs = g }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) { t.logger = l }
}

// New creates a Transformer for cfg.
func New(cfg *config.Config, opts ...Option) (*Transformer, error) {
	t := &Transformer{
		runIDs: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	rw, err := cfg.Rewriter(t.logger)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	t.rw = rw
	t.printer = cfg.Printer()
	return t, nil
}

// Site describes one rewritten reactive root in the input text.
type Site struct {
	Name      string `json:"name,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Original  string `json:"original"`
	Rewritten string `json:"rewritten"`
}

// Result is the outcome of transforming one source text.
type Result struct {
	RunID  string `json:"run_id"`
	Output []byte `json:"-"`
	Sites  []Site `json:"sites"`
}

// Changed reports whether any root was rewritten.
func (r *Result) Changed() bool { return len(r.Sites) > 0 }

// PositionError locates a rewrite failure in the input text.
type PositionError struct {
	Line   int
	Column int
	Err    error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Line, e.Column, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// Source transforms a JavaScript program.
func (t *Transformer) Source(ctx context.Context, src []byte) (*Result, error) {
	runID := t.runIDs.Generate()
	log := t.logger.With("run_id", runID)

	file, err := jsparse.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	_, sites, err := t.rw.Detect(file.Program)
	if err != nil {
		var rootErr *rewrite.RootError
		if errors.As(err, &rootErr) {
			if span, ok := file.Calls[rootErr.Call]; ok {
				line, col := position(src, span.Start)
				return nil, &PositionError{Line: line, Column: col, Err: err}
			}
		}
		return nil, err
	}

	res := &Result{RunID: runID, Sites: make([]Site, 0, len(sites))}
	type edit struct {
		span jsparse.Span
		text string
	}
	edits := make([]edit, 0, len(sites))
	for _, s := range sites {
		span, ok := file.Calls[s.Call]
		if !ok {
			return nil, fmt.Errorf("transform: no source span for reactive root %q", s.Name)
		}
		text := t.printer.Print(s.Result)
		line, col := position(src, span.Start)
		res.Sites = append(res.Sites, Site{
			Name:      s.Name,
			Line:      line,
			Column:    col,
			Original:  string(src[span.Start:span.End]),
			Rewritten: text,
		})
		edits = append(edits, edit{span: span, text: text})
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })
	var out bytes.Buffer
	out.Grow(len(src))
	pos := 0
	for _, e := range edits {
		out.Write(src[pos:e.span.Start])
		out.WriteString(e.text)
		pos = e.span.End
	}
	out.Write(src[pos:])
	res.Output = out.Bytes()

	log.Debug("source transformed", "roots", len(res.Sites), "bytes_in", len(src), "bytes_out", out.Len())
	return res, nil
}

// Expression rewrites a single expression (not a program) and prints the
// compiled form. No marker call is needed.
func (t *Transformer) Expression(ctx context.Context, src string) (string, error) {
	n, err := jsparse.ParseExpression(ctx, src)
	if err != nil {
		return "", err
	}
	out, err := t.Tree(n)
	if err != nil {
		return "", err
	}
	return t.printer.Print(out), nil
}

// Tree rewrites an already built expression tree.
func (t *Transformer) Tree(n ast.Node) (ast.Node, error) {
	out, err := t.rw.Rewrite(n)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}
	return out, nil
}

// NewRunID returns a fresh run ID from the configured generator.
func (t *Transformer) NewRunID() string {
	return t.runIDs.Generate()
}

// Print renders n with the configured namespace.
func (t *Transformer) Print(n ast.Node) string {
	return t.printer.Print(n)
}

// position converts a byte offset to a 1-based line and column. Columns
// count bytes.
func position(src []byte, offset int) (line, col int) {
	before := src[:offset]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = offset - bytes.LastIndexByte(before, '\n')
	return line, col
}
