// Package testutil provides tree builders, a reference evaluator and
// deterministic generators shared by package tests.
package testutil

import (
	"strconv"

	"github.com/roach88/alkali/internal/ast"
)

// Id builds an identifier.
func Id(name string) *ast.Ident { return ast.NewIdent(name) }

// Num builds a numeric literal.
func Num(v float64) *ast.Lit {
	return ast.NewNumber(strconv.FormatFloat(v, 'f', -1, 64))
}

// Str builds a string literal.
func Str(s string) *ast.Lit { return ast.NewString(s) }

// Bool builds a boolean literal.
func Bool(v bool) *ast.Lit {
	return &ast.Lit{Type: ast.LitBool, Value: strconv.FormatBool(v)}
}

// Null builds the null literal.
func Null() *ast.Lit { return &ast.Lit{Type: ast.LitNull} }

// Mem builds a non-computed member access obj.prop.
func Mem(obj ast.Node, prop string) *ast.Member {
	return &ast.Member{Object: obj, Property: ast.NewIdent(prop)}
}

// OptMem builds an optional member access obj?.prop.
func OptMem(obj ast.Node, prop string) *ast.Member {
	return &ast.Member{Object: obj, Property: ast.NewIdent(prop), Optional: true}
}

// Index builds a computed member access obj[prop].
func Index(obj, prop ast.Node) *ast.Member {
	return &ast.Member{Object: obj, Property: prop, Computed: true}
}

// Bin builds a binary expression.
func Bin(op string, left, right ast.Node) *ast.Binary {
	return &ast.Binary{Op: op, Left: left, Right: right}
}

// Logic builds a logical expression.
func Logic(op string, left, right ast.Node) *ast.Logical {
	return &ast.Logical{Op: op, Left: left, Right: right}
}

// Un builds a prefix unary expression.
func Un(op string, arg ast.Node) *ast.Unary {
	return &ast.Unary{Op: op, Argument: arg}
}

// Cond builds a conditional expression.
func Cond(test, cons, alt ast.Node) *ast.Conditional {
	return &ast.Conditional{Test: test, Consequent: cons, Alternate: alt}
}

// Call builds a call expression.
func Call(callee ast.Node, args ...ast.Node) *ast.Call {
	return &ast.Call{Callee: callee, Args: args}
}

// NewExpr builds a new expression.
func NewExpr(callee ast.Node, args ...ast.Node) *ast.New {
	return &ast.New{Callee: callee, Args: args}
}

// Set builds a plain assignment.
func Set(target, value ast.Node) *ast.Assign {
	return &ast.Assign{Op: "=", Target: target, Value: value}
}

// Prop is a key/value pair for Obj.
type Prop struct {
	Key   string
	Value ast.Node
}

// Obj builds an object literal with identifier keys.
func Obj(props ...Prop) *ast.Object {
	out := &ast.Object{}
	for _, p := range props {
		out.Props = append(out.Props, &ast.Property{Key: ast.NewIdent(p.Key), Value: p.Value})
	}
	return out
}

// Spread builds ...arg.
func Spread(arg ast.Node) *ast.Spread { return &ast.Spread{Argument: arg} }

// Tmpl builds an untagged template literal from alternating text and
// expressions: Tmpl("a", x, "b") is `a${x}b`.
func Tmpl(parts ...any) *ast.Template {
	t := &ast.Template{Quasis: []string{""}}
	for _, p := range parts {
		switch p := p.(type) {
		case string:
			t.Quasis[len(t.Quasis)-1] += p
		case ast.Node:
			t.Exprs = append(t.Exprs, p)
			t.Quasis = append(t.Quasis, "")
		}
	}
	return t
}

// Arr builds an array literal.
func Arr(elems ...ast.Node) *ast.Array { return &ast.Array{Elems: elems} }

// Arrow builds an expression-bodied arrow function.
func Arrow(body ast.Node, params ...string) *ast.Func {
	return &ast.Func{Params: params, Body: body, Arrow: true}
}

// Return builds a return statement.
func Return(n ast.Node) *ast.Stmt {
	return &ast.Stmt{Keyword: ast.StmtReturn, Expr: n}
}

// ExprStmt builds an expression statement.
func ExprStmt(n ast.Node) *ast.Stmt {
	return &ast.Stmt{Keyword: ast.StmtExpression, Expr: n}
}

// Let builds a single let declaration.
func Let(name string, init ast.Node) *ast.Stmt {
	return &ast.Stmt{Keyword: ast.StmtLet, Decls: []*ast.Declarator{{Name: name, Init: init}}}
}

// Root builds a marker call react(args...).
func Root(args ...ast.Node) *ast.Call {
	return Call(Id("react"), args...)
}
