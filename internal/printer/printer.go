// Package printer renders expression trees as JavaScript source.
//
// Source-form nodes print as ordinary JavaScript; target-form nodes print
// as calls on the runtime namespace (react.add(a, 1)). Parentheses are
// inserted from operator precedence, so trees built without them print
// correctly.
package printer

import (
	"strings"

	"github.com/roach88/alkali/internal/ast"
)

// DefaultNamespace is the runtime object primitives are called on.
const DefaultNamespace = "react"

// Precedence levels, lowest binding first.
const (
	precLowest = iota
	precSeq
	precAssign
	precConditional
	precNullish
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precNew
	precCall
	precPrimary
)

var binaryPrec = map[string]int{
	"??": precNullish,
	"||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"instanceof": precRelational, "in": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"**": precExponent,
}

// Printer renders trees. The zero value prints primitives without a
// namespace; use New for the usual configuration.
type Printer struct {
	// Namespace is prefixed to primitive names (react.add). Empty means
	// primitives print as bare function calls.
	Namespace string
}

// New creates a Printer calling primitives on namespace.
func New(namespace string) *Printer {
	return &Printer{Namespace: namespace}
}

// Print renders n with the default namespace.
func Print(n ast.Node) string {
	return New(DefaultNamespace).Print(n)
}

// Print renders n.
func (p *Printer) Print(n ast.Node) string {
	var b strings.Builder
	switch n := n.(type) {
	case *ast.Program:
		p.program(&b, n)
	case *ast.Stmt:
		p.stmt(&b, n)
	default:
		p.expr(&b, n, precLowest)
	}
	return b.String()
}

func precedence(n ast.Node) int {
	switch n := n.(type) {
	case *ast.Seq:
		return precSeq
	case *ast.Assign, *ast.Closure, *ast.Spread, *ast.Opaque:
		return precAssign
	case *ast.Func:
		if n.Arrow {
			return precAssign
		}
		return precPrimary
	case *ast.Conditional:
		return precConditional
	case *ast.Binary:
		return binaryPrec[n.Op]
	case *ast.Logical:
		return binaryPrec[n.Op]
	case *ast.Unary, *ast.Update:
		return precUnary
	case *ast.Template:
		if n.Tag != nil {
			return precCall
		}
		return precPrimary
	case *ast.New:
		return precNew
	case *ast.Call, *ast.Member, *ast.Prim, *ast.Invoke:
		return precCall
	}
	return precPrimary
}

func (p *Printer) expr(b *strings.Builder, n ast.Node, min int) {
	if n == nil {
		return
	}
	if precedence(n) < min {
		b.WriteByte('(')
		p.expr(b, n, precLowest)
		b.WriteByte(')')
		return
	}

	switch n := n.(type) {
	case *ast.Ident:
		b.WriteString(n.Name)
	case *ast.Ref:
		b.WriteString(n.Name)
	case *ast.Lit:
		b.WriteString(literal(n))
	case *ast.Member:
		p.expr(b, n.Object, precCall)
		if n.Optional {
			b.WriteString("?.")
			if !n.Computed {
				p.expr(b, n.Property, precPrimary)
				break
			}
		}
		p.property(b, n.Computed, n.Property)
	case *ast.Binary:
		p.binary(b, n.Op, n.Left, n.Right)
	case *ast.Logical:
		p.binary(b, n.Op, n.Left, n.Right)
	case *ast.Unary:
		b.WriteString(n.Op)
		if needsUnarySpace(n) {
			b.WriteByte(' ')
		}
		p.expr(b, n.Argument, precUnary)
	case *ast.Conditional:
		p.expr(b, n.Test, precConditional+1)
		b.WriteString(" ? ")
		p.expr(b, n.Consequent, precAssign)
		b.WriteString(" : ")
		p.expr(b, n.Alternate, precAssign)
	case *ast.Call:
		p.expr(b, n.Callee, precCall)
		if n.Optional {
			b.WriteString("?.")
		}
		p.args(b, n.Args)
	case *ast.New:
		b.WriteString("new ")
		switch n.Callee.(type) {
		case *ast.Call, *ast.Prim, *ast.Invoke:
			b.WriteByte('(')
			p.expr(b, n.Callee, precLowest)
			b.WriteByte(')')
		default:
			p.expr(b, n.Callee, precNew)
		}
		p.args(b, n.Args)
	case *ast.Assign:
		op := n.Op
		if op == "" {
			op = "="
		}
		p.expr(b, n.Target, precCall)
		b.WriteString(" " + op + " ")
		p.expr(b, n.Value, precAssign)
	case *ast.Object:
		p.object(b, n)
	case *ast.Array:
		b.WriteByte('[')
		for i, e := range n.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.expr(b, e, precAssign)
		}
		if len(n.Elems) > 0 && n.Elems[len(n.Elems)-1] == nil {
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case *ast.Func:
		p.function(b, n)
	case *ast.Seq:
		for i, e := range n.Exprs {
			if i > 0 {
				b.WriteString(", ")
			}
			p.expr(b, e, precAssign)
		}
	case *ast.Template:
		p.template(b, n)
	case *ast.Spread:
		b.WriteString("...")
		p.expr(b, n.Argument, precAssign)
	case *ast.Update:
		if n.Prefix {
			b.WriteString(n.Op)
			p.expr(b, n.Argument, precUnary)
			break
		}
		p.expr(b, n.Argument, precCall)
		b.WriteString(n.Op)
	case *ast.Opaque:
		for i, part := range n.Parts {
			b.WriteString(part)
			if i < len(n.Holes) {
				p.hole(b, n.Holes[i])
			}
		}
	case *ast.Prim:
		if p.Namespace != "" {
			b.WriteString(p.Namespace)
			b.WriteByte('.')
		}
		b.WriteString(n.Op)
		p.args(b, n.Args)
	case *ast.Closure:
		b.WriteByte('(')
		b.WriteString(strings.Join(n.Params, ", "))
		b.WriteString(") => ")
		p.conciseBody(b, n.Body)
	case *ast.Invoke:
		p.expr(b, n.Receiver, precCall)
		b.WriteByte('.')
		b.WriteString(n.Name)
		p.args(b, n.Args)
	case *ast.Stmt:
		// Statements only reach here from malformed trees.
		p.stmt(b, n)
	case *ast.Program:
		p.program(b, n)
	}
}

func (p *Printer) binary(b *strings.Builder, op string, left, right ast.Node) {
	prec := binaryPrec[op]
	leftMin, rightMin := prec, prec+1
	if op == "**" {
		// A unary operand on the left of ** is a syntax error.
		leftMin, rightMin = precUnary+1, prec
	}
	if mixesNullish(op, left) {
		leftMin = precPrimary
	}
	if mixesNullish(op, right) {
		rightMin = precPrimary
	}
	p.expr(b, left, leftMin)
	b.WriteString(" " + op + " ")
	p.expr(b, right, rightMin)
}

// mixesNullish reports whether operand is a logical expression that may
// not appear unparenthesized next to op: ?? cannot be mixed with && or ||.
func mixesNullish(op string, operand ast.Node) bool {
	l, ok := operand.(*ast.Logical)
	if !ok {
		return false
	}
	if op == "??" {
		return l.Op == "&&" || l.Op == "||"
	}
	return (op == "&&" || op == "||") && l.Op == "??"
}

func (p *Printer) template(b *strings.Builder, n *ast.Template) {
	if n.Tag != nil {
		p.expr(b, n.Tag, precCall)
	}
	b.WriteByte('`')
	for i, q := range n.Quasis {
		b.WriteString(q)
		if i < len(n.Exprs) {
			b.WriteString("${")
			p.expr(b, n.Exprs[i], precLowest)
			b.WriteByte('}')
		}
	}
	b.WriteByte('`')
}

// hole prints an expression spliced back into opaque source text. The
// text around it already held an expression of the same kind, so no
// parentheses are added.
func (p *Printer) hole(b *strings.Builder, n ast.Node) {
	if s, ok := n.(*ast.Stmt); ok {
		p.stmt(b, s)
		return
	}
	p.expr(b, n, precLowest)
}

func (p *Printer) property(b *strings.Builder, computed bool, prop ast.Node) {
	if computed {
		b.WriteByte('[')
		p.expr(b, prop, precLowest)
		b.WriteByte(']')
		return
	}
	b.WriteByte('.')
	p.expr(b, prop, precPrimary)
}

func (p *Printer) args(b *strings.Builder, args []ast.Node) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		p.expr(b, a, precAssign)
	}
	b.WriteByte(')')
}

func (p *Printer) object(b *strings.Builder, n *ast.Object) {
	if len(n.Props) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{")
	for i, prop := range n.Props {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		if prop.Key == nil {
			p.expr(b, prop.Value, precAssign)
			continue
		}
		if prop.Shorthand && ast.NameOf(prop.Value) == ast.NameOf(prop.Key) && ast.NameOf(prop.Key) != "" {
			if _, isIdent := prop.Value.(*ast.Ident); isIdent {
				b.WriteString(ast.NameOf(prop.Key))
				continue
			}
		}
		if prop.Computed {
			b.WriteByte('[')
			p.expr(b, prop.Key, precAssign)
			b.WriteByte(']')
		} else {
			p.expr(b, prop.Key, precPrimary)
		}
		b.WriteString(": ")
		p.expr(b, prop.Value, precAssign)
	}
	b.WriteString(" }")
}

func (p *Printer) function(b *strings.Builder, n *ast.Func) {
	if n.Async {
		b.WriteString("async ")
	}
	params := n.ParamsText
	if params == "" {
		params = "(" + strings.Join(n.Params, ", ") + ")"
	}
	if n.Arrow {
		b.WriteString(params)
		b.WriteString(" => ")
		p.conciseBody(b, n.Body)
		return
	}
	b.WriteString("function")
	if n.Generator {
		b.WriteByte('*')
	}
	if n.Name != "" {
		b.WriteByte(' ')
		b.WriteString(n.Name)
	}
	b.WriteString(params)
	b.WriteByte(' ')
	if s, ok := n.Body.(*ast.Stmt); ok {
		p.stmt(b, s)
		return
	}
	b.WriteString("{ return ")
	p.expr(b, n.Body, precLowest)
	b.WriteString("; }")
}

// conciseBody prints an arrow body; object literals and comma expressions
// need parentheses there.
func (p *Printer) conciseBody(b *strings.Builder, body ast.Node) {
	switch body := body.(type) {
	case *ast.Stmt:
		p.stmt(b, body)
	case *ast.Object:
		b.WriteByte('(')
		p.object(b, body)
		b.WriteByte(')')
	default:
		p.expr(b, body, precAssign)
	}
}

func needsUnarySpace(n *ast.Unary) bool {
	if len(n.Op) > 1 && n.Op[0] >= 'a' && n.Op[0] <= 'z' {
		return true
	}
	switch inner := n.Argument.(type) {
	case *ast.Unary:
		return (n.Op == "-" || n.Op == "+") && strings.HasPrefix(inner.Op, n.Op)
	case *ast.Update:
		return inner.Prefix && (n.Op == "-" || n.Op == "+") && strings.HasPrefix(inner.Op, n.Op)
	}
	return false
}
