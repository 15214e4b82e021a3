package rewrite

import "github.com/roach88/alkali/internal/ast"

// Site records one reactive root rewritten by Detect.
type Site struct {
	// Call is the original marker call, as found in the ambient tree.
	Call *ast.Call

	// Result is the node that replaced Call.
	Result ast.Node

	// Name is the binding the root is assigned to, if any.
	Name string
}

// IsRoot reports whether call is a reactive root: a call whose callee is
// the marker identifier and that has at least one argument.
func (r *Rewriter) IsRoot(call *ast.Call) bool {
	id, ok := call.Callee.(*ast.Ident)
	return ok && id.Name == r.marker && len(call.Args) > 0
}

// RewriteRoot rewrites the arguments of a reactive root and returns the
// entry primitive call that replaces it.
func (r *Rewriter) RewriteRoot(call *ast.Call) (ast.Node, error) {
	args, err := r.rewriteList(call.Args)
	if err != nil {
		return nil, err
	}
	return &ast.Prim{Op: r.prims.Entry, Args: args}, nil
}

// Detect finds every reactive root in root and replaces it in place with
// its rewritten form. Roots are not searched for nested roots. The first
// invalid root aborts detection; roots replaced before it stay replaced,
// so callers should discard the tree on error.
func (r *Rewriter) Detect(root ast.Node) (ast.Node, []Site, error) {
	var (
		sites    []Site
		firstErr error
	)
	out := ast.Apply(root, func(c *ast.Cursor) bool {
		if firstErr != nil {
			return false
		}
		call, ok := c.Node().(*ast.Call)
		if !ok || !r.IsRoot(call) {
			return true
		}
		result, err := r.RewriteRoot(call)
		if err != nil {
			firstErr = &RootError{Index: len(sites) + 1, Call: call, Err: err}
			return false
		}
		name := bindingName(c)
		if name != "" && r.nameRoots {
			result = &ast.Invoke{Receiver: result, Name: r.prims.Name, Args: []ast.Node{ast.NewString(name)}}
		}
		c.Replace(result)
		sites = append(sites, Site{Call: call, Result: result, Name: name})
		r.logger.Debug("reactive root rewritten", "index", len(sites), "name", name)
		return false
	}, nil)
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return out, sites, nil
}

// bindingName returns the name a root is bound to: the identifier of
// x = root, of a declarator x = root, or of an object property x: root.
func bindingName(c *ast.Cursor) string {
	switch p := c.Parent().(type) {
	case *ast.Assign:
		if c.Slot() == ast.SlotValue {
			return ast.NameOf(p.Target)
		}
	case *ast.Stmt:
		if c.Slot() == ast.SlotDecls {
			return p.Decls[c.Index()].Name
		}
	case *ast.Object:
		if c.Slot() == ast.SlotValue {
			prop := p.Props[c.Index()]
			if prop.Computed {
				return ""
			}
			if lit, ok := prop.Key.(*ast.Lit); ok && lit.Type == ast.LitString {
				return lit.Value
			}
			return ast.NameOf(prop.Key)
		}
	}
	return ""
}
