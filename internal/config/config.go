package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/printer"
	"github.com/roach88/alkali/internal/rewrite"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "alkali.cue"

//go:embed schema.cue
var schemaSource string

// Config is a resolved alkali configuration.
type Config struct {
	Marker     string             `json:"marker"`
	Namespace  string             `json:"namespace"`
	NameRoots  bool               `json:"nameRoots"`
	Naming     Naming             `json:"naming"`
	Primitives rewrite.Primitives `json:"primitives"`
	Cache      Cache              `json:"cache"`

	// Source is the file the configuration was read from; empty for
	// defaults.
	Source string `json:"-"`
}

// Naming selects the capture naming strategy.
type Naming struct {
	Strategy    string `json:"strategy"`
	Prefix      string `json:"prefix"`
	Placeholder string `json:"placeholder"`
}

// Cache configures the transform cache.
type Cache struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Default returns the configuration used when no alkali.cue exists.
func Default() *Config {
	cfg, err := Parse(nil, "")
	if err != nil {
		// The embedded schema is valid by construction.
		panic(fmt.Sprintf("config: default configuration: %v", err))
	}
	return cfg
}

// Load reads the configuration at path. An empty path means FileName in
// the working directory, and a missing default file yields Default().
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, Errors{{Code: ErrReadFailed, File: path, Message: err.Error()}}
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.Source = abs
	}
	return cfg, nil
}

// Parse resolves CUE source data against the schema. filename is used in
// error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, convertCUEErrors(err, ErrSyntax)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, convertCUEErrors(err, ErrInvalidValue)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, convertCUEErrors(err, ErrInvalidValue)
	}
	if errs := cfg.validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// convertCUEErrors flattens a CUE error into coded ValidationErrors.
func convertCUEErrors(err error, code string) Errors {
	var out Errors
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: cueMessage(e),
			Code:    code,
		}
		if pos := e.Position(); pos.IsValid() {
			ve.File = pos.Filename()
			ve.Line = pos.Line()
		}
		switch {
		case strings.Contains(ve.Message, "not allowed"):
			ve.Code = ErrUnknownField
		case strings.Contains(ve.Message, "incomplete value"):
			ve.Code = ErrIncompleteValue
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = Errors{{Code: code, Message: err.Error()}}
	}
	return out
}

func cueMessage(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}

// validate checks constraints the schema cannot express.
func (c *Config) validate() Errors {
	names := make(map[string][]string)
	p := c.ResolvedPrimitives()
	for field, name := range map[string]string{
		"entry":       p.Entry,
		"read":        p.Read,
		"method_call": p.MethodCall,
		"func_call":   p.FuncCall,
		"new_call":    p.NewCall,
		"cond":        p.Cond,
		"put":         p.Put,
		"object":      p.Object,
		"name":        p.Name,
	} {
		names[name] = append(names[name], field)
	}
	for _, rule := range rewrite.Operators() {
		names[rule.Primitive] = append(names[rule.Primitive], "operator "+rule.Symbol)
	}

	var errs Errors
	for name, fields := range names {
		if len(fields) < 2 {
			continue
		}
		sort.Strings(fields)
		errs = append(errs, ValidationError{
			Field:   "primitives",
			Message: fmt.Sprintf("primitive name %q used by %s", name, strings.Join(fields, ", ")),
			Code:    ErrDuplicatePrim,
		})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Message < errs[j].Message })
	return errs
}

// ResolvedPrimitives returns the primitive names with defaults filled in.
func (c *Config) ResolvedPrimitives() rewrite.Primitives {
	return rewrite.New(rewrite.Config{Primitives: c.Primitives}).Primitives()
}

// Namer returns the capture namer selected by Naming.
func (c *Config) Namer() (rewrite.Namer, error) {
	n, err := rewrite.NamerFor(c.Naming.Strategy, c.Naming.Prefix)
	if err != nil {
		return nil, err
	}
	if d, ok := n.(rewrite.DebugNamer); ok {
		d.Placeholder = c.Naming.Placeholder
		n = d
	}
	return n, nil
}

// Rewriter builds a rewriter for this configuration.
func (c *Config) Rewriter(logger *slog.Logger) (*rewrite.Rewriter, error) {
	namer, err := c.Namer()
	if err != nil {
		return nil, err
	}
	return rewrite.New(rewrite.Config{
		Marker:     c.Marker,
		Primitives: c.Primitives,
		Namer:      namer,
		NameRoots:  c.NameRoots,
		Logger:     logger,
	}), nil
}

// Printer returns a printer emitting primitives under Namespace.
func (c *Config) Printer() *printer.Printer {
	return printer.New(c.Namespace)
}

// Fingerprint identifies the output-affecting settings. Cache settings
// and the source path are excluded.
func (c *Config) Fingerprint() (string, error) {
	p := c.ResolvedPrimitives()
	m := map[string]any{
		"marker":    c.Marker,
		"namespace": c.Namespace,
		"nameRoots": c.NameRoots,
		"naming": map[string]any{
			"strategy":    c.Naming.Strategy,
			"prefix":      c.Naming.Prefix,
			"placeholder": c.Naming.Placeholder,
		},
		"primitives": map[string]any{
			"entry":       p.Entry,
			"read":        p.Read,
			"method_call": p.MethodCall,
			"func_call":   p.FuncCall,
			"new_call":    p.NewCall,
			"cond":        p.Cond,
			"put":         p.Put,
			"object":      p.Object,
			"name":        p.Name,
		},
	}
	data, err := ast.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("config fingerprint: %w", err)
	}
	return ast.HashWithDomain(DomainConfig, data), nil
}

// DomainConfig separates configuration hashes from tree hashes.
const DomainConfig = "alkali/config/v1"
