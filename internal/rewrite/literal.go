package rewrite

import (
	"strconv"

	"github.com/roach88/alkali/internal/ast"
)

// literalParams collects the dynamic elements of an object or array
// literal. Each compiled or identifier element is replaced by a positional
// parameter v0, v1, ... in encounter order.
type literalParams struct {
	names  nameSet
	params []string
	args   []ast.Node
}

func newLiteralParams(lit ast.Node) *literalParams {
	return &literalParams{names: nameSet(ast.Idents(lit))}
}

// take returns the node to place in the literal for rewritten element v.
func (p *literalParams) take(v ast.Node) ast.Node {
	if v == nil {
		return nil
	}
	if sp, ok := v.(*ast.Spread); ok {
		return &ast.Spread{Argument: p.take(sp.Argument)}
	}
	if _, isIdent := v.(*ast.Ident); !isIdent && !ast.IsCompiled(v) {
		return v
	}
	name := p.names.fresh("v" + strconv.Itoa(len(p.params)))
	p.params = append(p.params, name)
	p.args = append(p.args, v)
	return &ast.Ref{Name: name}
}

// wrap emits <obj>((v0, ...) => literal, [args]).
func (p *literalParams) wrap(op string, body ast.Node) ast.Node {
	return &ast.Prim{
		Op: op,
		Args: []ast.Node{
			&ast.Closure{Params: p.params, Body: body},
			&ast.Array{Elems: p.args},
		},
	}
}

func (r *Rewriter) object(n *ast.Object) (ast.Node, bool, error) {
	p := newLiteralParams(n)
	out := &ast.Object{Props: make([]*ast.Property, 0, len(n.Props))}
	for _, prop := range n.Props {
		v, err := r.Rewrite(prop.Value)
		if err != nil {
			return nil, false, err
		}
		out.Props = append(out.Props, &ast.Property{
			Key:       prop.Key,
			Value:     p.take(v),
			Computed:  prop.Computed,
			Shorthand: prop.Shorthand,
		})
	}
	if len(p.params) == 0 {
		return n, true, nil
	}
	return p.wrap(r.prims.Object, out), true, nil
}

func (r *Rewriter) array(n *ast.Array) (ast.Node, bool, error) {
	p := newLiteralParams(n)
	out := &ast.Array{Elems: make([]ast.Node, 0, len(n.Elems))}
	for _, elem := range n.Elems {
		v, err := r.Rewrite(elem)
		if err != nil {
			return nil, false, err
		}
		out.Elems = append(out.Elems, p.take(v))
	}
	if len(p.params) == 0 {
		return n, true, nil
	}
	return p.wrap(r.prims.Object, out), true, nil
}
