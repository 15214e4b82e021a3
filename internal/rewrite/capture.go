package rewrite

import (
	"github.com/roach88/alkali/internal/ast"
)

// captureEntry binds one closure parameter to the expression passed for it.
type captureEntry struct {
	name string
	arg  ast.Node
}

// capture is the pending capture set of a single opaque capture. It is
// allocated by the call frame that performs the capture, filled while that
// frame scans its subtree, and drained by the same frame. Nested captures
// started while resolving member accesses get their own capture.
type capture struct {
	namer    Namer
	names    nameSet
	assigned map[string]bool
	entries  []captureEntry
	byKey    map[string]string
	seq      int
}

func newCapture(namer Namer, subtree ast.Node) *capture {
	return &capture{
		namer:    namer,
		names:    nameSet(ast.Idents(subtree)),
		assigned: assignedNames(subtree),
		byKey:    make(map[string]string),
	}
}

// addIdent registers a free identifier. The parameter keeps the
// identifier's own name; the first occurrence wins.
func (c *capture) addIdent(id *ast.Ident) {
	key := "ident:" + id.Name
	if _, ok := c.byKey[key]; ok {
		return
	}
	c.byKey[key] = id.Name
	c.entries = append(c.entries, captureEntry{name: id.Name, arg: id})
}

// addRead registers a free identifier the subtree also assigns to. The
// parameter gets a fresh name so the assignment, which keeps the original
// name, still reaches the ambient binding instead of the parameter.
func (c *capture) addRead(id *ast.Ident) string {
	key := "read:" + id.Name
	if name, ok := c.byKey[key]; ok {
		return name
	}
	name := c.names.fresh(id.Name)
	c.byKey[key] = name
	c.entries = append(c.entries, captureEntry{name: name, arg: id})
	return name
}

// addAccess registers a rewritten member read and returns the name bound
// to it. Reads with identical structure share one name.
func (c *capture) addAccess(m *ast.Member, read ast.Node) string {
	key := ""
	if fp, err := ast.Fingerprint(read); err == nil {
		key = "access:" + fp
		if name, ok := c.byKey[key]; ok {
			return name
		}
	}
	name := c.names.fresh(c.namer.Name(Hint{
		Object:   ast.NameOf(m.Object),
		Property: ast.NameOf(m.Property),
		Seq:      c.seq,
	}))
	c.seq++
	if key != "" {
		c.byKey[key] = name
	}
	c.entries = append(c.entries, captureEntry{name: name, arg: read})
	return name
}

func (c *capture) empty() bool {
	return len(c.entries) == 0
}

// drain returns parameter names and arguments in insertion order and
// empties the set.
func (c *capture) drain() ([]string, []ast.Node) {
	params := make([]string, len(c.entries))
	args := make([]ast.Node, len(c.entries))
	for i, e := range c.entries {
		params[i] = e.name
		args[i] = e.arg
	}
	c.entries = nil
	c.byKey = make(map[string]string)
	return params, args
}

// capture wraps n, which no rule applies to, in a closure over its free
// variables. With no free variables n is returned unchanged.
func (r *Rewriter) capture(n ast.Node) (ast.Node, error) {
	c := newCapture(r.namer, n)
	body, err := r.extract(c, n, nil)
	if err != nil {
		return nil, err
	}
	if c.empty() {
		r.logger.Debug("opaque capture skipped: no free variables", "kind", n.Kind())
		return n, nil
	}
	params, args := c.drain()
	r.logger.Debug("opaque capture", "kind", n.Kind(), "params", params)
	return &ast.Prim{
		Op: r.prims.FuncCall,
		Args: []ast.Node{
			&ast.Closure{Params: params, Body: body},
			&ast.Array{Elems: args},
		},
	}, nil
}

// extract is the free-variable traversal of an opaque capture. It returns
// a copy of n in which captured member accesses are replaced by refs.
// bound holds names bound by function literals enclosing n within the
// captured subtree.
func (r *Rewriter) extract(c *capture, n ast.Node, bound map[string]bool) (ast.Node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case ast.Target:
		return n, nil
	case *ast.Lit:
		return n, nil
	case *ast.Stmt, *ast.Program:
		return nil, invalid(n)
	case *ast.Ident:
		if n.Name == r.marker || bound[n.Name] {
			return n, nil
		}
		if c.assigned[n.Name] {
			return &ast.Ref{Name: c.addRead(n)}, nil
		}
		c.addIdent(n)
		return n, nil
	case *ast.Member:
		// An optional link short-circuits the rest of its chain, which a
		// hoisted read would evaluate unconditionally.
		if ast.OptionalChain(n) || refersTo(n, bound) {
			return r.extractChildren(c, n, bound)
		}
		read, err := r.read(n)
		if err != nil {
			return nil, err
		}
		return &ast.Ref{Name: c.addAccess(n, read)}, nil
	case *ast.Call:
		callee, err := r.extractCallee(c, n.Callee, bound)
		if err != nil {
			return nil, err
		}
		args, err := r.extractList(c, n.Args, bound)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: callee, Args: args, Optional: n.Optional}, nil
	case *ast.New:
		callee, err := r.extractCallee(c, n.Callee, bound)
		if err != nil {
			return nil, err
		}
		args, err := r.extractList(c, n.Args, bound)
		if err != nil {
			return nil, err
		}
		return &ast.New{Callee: callee, Args: args}, nil
	case *ast.Template:
		tag, err := r.extractCallee(c, n.Tag, bound)
		if err != nil {
			return nil, err
		}
		exprs, err := r.extractList(c, n.Exprs, bound)
		if err != nil {
			return nil, err
		}
		return &ast.Template{Tag: tag, Quasis: n.Quasis, Exprs: exprs}, nil
	case *ast.Assign:
		return r.extractAssign(c, n, bound)
	case *ast.Update:
		target, err := r.extractTarget(c, n.Argument, true, bound)
		if err != nil {
			return nil, err
		}
		return &ast.Update{Op: n.Op, Prefix: n.Prefix, Argument: target}, nil
	case *ast.Func:
		inner := make(map[string]bool, len(bound)+len(n.Params)+1)
		for name := range bound {
			inner[name] = true
		}
		for _, p := range n.Params {
			inner[p] = true
		}
		if n.Name != "" {
			inner[n.Name] = true
		}
		return r.extractChildren(c, n, inner)
	}
	return r.extractChildren(c, n, bound)
}

func (r *Rewriter) extractChildren(c *capture, n ast.Node, bound map[string]bool) (ast.Node, error) {
	return ast.MapChildren(n, func(child ast.Node) (ast.Node, error) {
		return r.extract(c, child, bound)
	})
}

func (r *Rewriter) extractList(c *capture, list []ast.Node, bound map[string]bool) ([]ast.Node, error) {
	out := make([]ast.Node, len(list))
	for i, n := range list {
		e, err := r.extract(c, n, bound)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// extractCallee keeps a member callee as a member so the call still
// receives its receiver as this; only the receiver is captured.
func (r *Rewriter) extractCallee(c *capture, callee ast.Node, bound map[string]bool) (ast.Node, error) {
	if m, ok := callee.(*ast.Member); ok {
		return r.extractChildren(c, m, bound)
	}
	return r.extract(c, callee, bound)
}

// extractAssign leaves the assigned identifier or property in place so
// the assignment still reaches the ambient binding.
func (r *Rewriter) extractAssign(c *capture, n *ast.Assign, bound map[string]bool) (ast.Node, error) {
	target, err := r.extractTarget(c, n.Target, n.Op != "" && n.Op != "=", bound)
	if err != nil {
		return nil, err
	}
	value, err := r.extract(c, n.Value, bound)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Op: n.Op, Target: target, Value: value}, nil
}

// extractTarget handles the target of an assignment or update. Only the
// object and computed key of a member target are extracted. An identifier
// target that the operation also reads (x += 1, x++) is registered as a
// dependency but stays in place. Pattern targets are left untouched.
func (r *Rewriter) extractTarget(c *capture, target ast.Node, reads bool, bound map[string]bool) (ast.Node, error) {
	switch t := target.(type) {
	case *ast.Member:
		return r.extractChildren(c, t, bound)
	case *ast.Ident:
		if reads && t.Name != r.marker && !bound[t.Name] {
			c.addRead(t)
		}
	}
	return target, nil
}

// assignedNames returns the identifiers assigned or updated anywhere in
// root, including those inside destructuring patterns.
func assignedNames(root ast.Node) map[string]bool {
	names := make(map[string]bool)
	collect := func(target ast.Node) {
		if _, ok := target.(*ast.Member); ok {
			return
		}
		ast.Apply(target, func(cur *ast.Cursor) bool {
			if cur.IsName() {
				return false
			}
			if id, ok := cur.Node().(*ast.Ident); ok {
				names[id.Name] = true
			}
			return true
		}, nil)
	}
	ast.Inspect(root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Assign:
			collect(n.Target)
		case *ast.Update:
			collect(n.Argument)
		}
		return true
	})
	return names
}

// refersTo reports whether an identifier in reference position under m
// is a bound name. Non-computed property names are not references.
func refersTo(m *ast.Member, bound map[string]bool) bool {
	if len(bound) == 0 {
		return false
	}
	found := false
	ast.Apply(m, func(cur *ast.Cursor) bool {
		if found || cur.IsName() {
			return false
		}
		if id, ok := cur.Node().(*ast.Ident); ok && bound[id.Name] {
			found = true
		}
		return !found
	}, nil)
	return found
}
