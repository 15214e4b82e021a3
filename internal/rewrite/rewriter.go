package rewrite

import (
	"log/slog"
	"strings"

	"github.com/roach88/alkali/internal/ast"
)

// DefaultMarker is the callee name that designates a reactive root.
const DefaultMarker = "react"

// Config configures a Rewriter. Zero fields take their defaults.
type Config struct {
	// Marker is the reserved reactive root name. Identifiers with this name
	// are never captured.
	Marker string

	// Primitives names the runtime primitives emitted for non-operator rules.
	Primitives Primitives

	// Namer proposes names for captured member accesses.
	Namer Namer

	// NameRoots wraps roots assigned to a name with the naming primitive
	// (x = react(...) becomes x = react.from(...)._sN("x")).
	NameRoots bool

	// Logger receives rule decisions at debug level.
	Logger *slog.Logger
}

// Rewriter rewrites reactive expressions. It holds only immutable
// configuration; every capture allocates its own state, so a Rewriter may
// be used from several goroutines on distinct trees.
type Rewriter struct {
	marker    string
	prims     Primitives
	namer     Namer
	nameRoots bool
	logger    *slog.Logger
}

// New creates a Rewriter from cfg.
func New(cfg Config) *Rewriter {
	r := &Rewriter{
		marker:    cfg.Marker,
		prims:     cfg.Primitives.withDefaults(),
		namer:     cfg.Namer,
		nameRoots: cfg.NameRoots,
		logger:    cfg.Logger,
	}
	if r.marker == "" {
		r.marker = DefaultMarker
	}
	if r.namer == nil {
		r.namer = CounterNamer{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Marker returns the reactive root name.
func (r *Rewriter) Marker() string { return r.marker }

// Primitives returns the primitive names in use.
func (r *Rewriter) Primitives() Primitives { return r.prims }

// Rewrite returns n in compiled form. Target nodes and bare identifiers are
// returned unchanged. A node kind with a rule becomes a primitive call; any
// other node is wrapped by an opaque capture, or returned unchanged when it
// references nothing.
func (r *Rewriter) Rewrite(n ast.Node) (ast.Node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case ast.Target:
		return n, nil
	case *ast.Ident:
		return n, nil
	case *ast.Stmt, *ast.Program:
		return nil, invalid(n)
	}

	out, applied, err := r.applyRule(n)
	if err != nil {
		return nil, err
	}
	if applied {
		return out, nil
	}
	r.logger.Debug("no rule applies", "kind", n.Kind())
	return r.capture(n)
}

// applyRule applies the rule for n's kind. applied is false when the kind
// has no rule or the rule declined (e.g. an unmapped operator).
func (r *Rewriter) applyRule(n ast.Node) (out ast.Node, applied bool, err error) {
	switch n := n.(type) {
	case *ast.Binary:
		return r.operator(n.Op, n.Left, n.Right)
	case *ast.Logical:
		return r.operator(n.Op, n.Left, n.Right)
	case *ast.Unary:
		return r.operator(n.Op, n.Argument)
	case *ast.Member:
		if ast.OptionalChain(n) {
			r.logger.Debug("member rule declined: optional chain")
			return nil, false, nil
		}
		read, err := r.read(n)
		if err != nil {
			return nil, false, err
		}
		return read, true, nil
	case *ast.Call:
		if ast.OptionalChain(n) {
			r.logger.Debug("call rule declined: optional chain")
			return nil, false, nil
		}
		return r.call(n.Callee, n.Args, r.prims.FuncCall)
	case *ast.New:
		return r.call(n.Callee, n.Args, r.prims.NewCall)
	case *ast.Spread:
		// Only meaningful inside a literal, which keeps the spread and
		// passes the rewritten argument as a parameter.
		arg, err := r.Rewrite(n.Argument)
		if err != nil {
			return nil, false, err
		}
		return &ast.Spread{Argument: arg}, true, nil
	case *ast.Assign:
		return r.assign(n)
	case *ast.Conditional:
		return r.conditional(n)
	case *ast.Object:
		return r.object(n)
	case *ast.Array:
		return r.array(n)
	case *ast.Func:
		// Function literals are plain values; their bodies are not entered.
		return n, true, nil
	}
	return nil, false, nil
}

func (r *Rewriter) operator(symbol string, operands ...ast.Node) (ast.Node, bool, error) {
	name, ok := operators[symbol]
	if !ok {
		r.logger.Debug("operator rule declined", "operator", symbol)
		return nil, false, nil
	}
	args, err := r.rewriteList(operands)
	if err != nil {
		return nil, false, err
	}
	return &ast.Prim{Op: name, Args: args}, true, nil
}

// read rewrites a member access into a property-read primitive.
func (r *Rewriter) read(m *ast.Member) (ast.Node, error) {
	obj, err := r.Rewrite(m.Object)
	if err != nil {
		return nil, err
	}
	prop, err := r.property(m)
	if err != nil {
		return nil, err
	}
	return &ast.Prim{Op: r.prims.Read, Args: []ast.Node{obj, prop}}, nil
}

// property returns the property operand of a read or method call: a string
// literal for a named property, the rewritten expression when computed.
func (r *Rewriter) property(m *ast.Member) (ast.Node, error) {
	if m.Computed {
		return r.Rewrite(m.Property)
	}
	return ast.NewString(ast.NameOf(m.Property)), nil
}

// call handles Call and New. A member callee becomes a method call on the
// raw, unrewritten receiver.
func (r *Rewriter) call(callee ast.Node, argNodes []ast.Node, op string) (ast.Node, bool, error) {
	for _, a := range argNodes {
		if _, ok := a.(*ast.Spread); ok {
			// The argument array is unwrapped element by element, so a
			// spread argument would be passed as the container itself.
			r.logger.Debug("call rule declined: spread argument")
			return nil, false, nil
		}
	}
	args, err := r.rewriteList(argNodes)
	if err != nil {
		return nil, false, err
	}
	if m, ok := callee.(*ast.Member); ok {
		prop, err := r.property(m)
		if err != nil {
			return nil, false, err
		}
		return &ast.Prim{
			Op:   r.prims.MethodCall,
			Args: []ast.Node{m.Object, prop, &ast.Array{Elems: args}},
		}, true, nil
	}
	fn, err := r.Rewrite(callee)
	if err != nil {
		return nil, false, err
	}
	return &ast.Prim{Op: op, Args: []ast.Node{fn, &ast.Array{Elems: args}}}, true, nil
}

// assign turns an assignment into a put on a reactive container. Compound
// assignments with a mapped operator are expanded (a += b is a = a + b);
// other compound operators and pattern targets decline.
func (r *Rewriter) assign(n *ast.Assign) (ast.Node, bool, error) {
	value := n.Value
	if n.Op != "" && n.Op != "=" {
		symbol := strings.TrimSuffix(n.Op, "=")
		if _, ok := operators[symbol]; !ok {
			return nil, false, nil
		}
		if symbol == "&&" || symbol == "||" {
			value = &ast.Logical{Op: symbol, Left: ast.Clone(n.Target), Right: n.Value}
		} else {
			value = &ast.Binary{Op: symbol, Left: ast.Clone(n.Target), Right: n.Value}
		}
	}

	switch target := n.Target.(type) {
	case *ast.Ident:
		v, err := r.Rewrite(value)
		if err != nil {
			return nil, false, err
		}
		return &ast.Invoke{Receiver: r.container(target.Name), Name: r.prims.Put, Args: []ast.Node{v}}, true, nil
	case *ast.Member:
		v, err := r.Rewrite(value)
		if err != nil {
			return nil, false, err
		}
		t, err := r.Rewrite(target)
		if err != nil {
			return nil, false, err
		}
		return &ast.Invoke{Receiver: t, Name: r.prims.Put, Args: []ast.Node{v}}, true, nil
	}
	return nil, false, nil
}

// container builds (x && x.put ? x : x = <ns>.from()), which yields x when
// it already is a reactive container and otherwise initializes it.
func (r *Rewriter) container(name string) ast.Node {
	return &ast.Conditional{
		Test: &ast.Logical{
			Op:    "&&",
			Left:  ast.NewIdent(name),
			Right: &ast.Member{Object: ast.NewIdent(name), Property: ast.NewIdent(r.prims.Put)},
		},
		Consequent: ast.NewIdent(name),
		Alternate: &ast.Assign{
			Op:     "=",
			Target: ast.NewIdent(name),
			Value:  &ast.Prim{Op: r.prims.Entry},
		},
	}
}

// conditional rewrites all three branches eagerly.
func (r *Rewriter) conditional(n *ast.Conditional) (ast.Node, bool, error) {
	args, err := r.rewriteList([]ast.Node{n.Test, n.Consequent, n.Alternate})
	if err != nil {
		return nil, false, err
	}
	return &ast.Prim{Op: r.prims.Cond, Args: args}, true, nil
}

func (r *Rewriter) rewriteList(list []ast.Node) ([]ast.Node, error) {
	out := make([]ast.Node, len(list))
	for i, n := range list {
		rw, err := r.Rewrite(n)
		if err != nil {
			return nil, err
		}
		out[i] = rw
	}
	return out, nil
}
