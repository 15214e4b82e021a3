package printer

import (
	"fmt"
	"strings"

	"github.com/roach88/alkali/internal/ast"
)

func (p *Printer) program(b *strings.Builder, n *ast.Program) {
	for i, s := range n.Body {
		if i > 0 {
			b.WriteByte('\n')
		}
		if st, ok := s.(*ast.Stmt); ok {
			p.stmt(b, st)
			continue
		}
		p.expr(b, s, precLowest)
		b.WriteByte(';')
	}
}

// stmt prints structural statements; anything else prints its source text.
func (p *Printer) stmt(b *strings.Builder, n *ast.Stmt) {
	switch n.Keyword {
	case ast.StmtExpression:
		p.statementExpr(b, n.Expr)
		b.WriteByte(';')
	case ast.StmtReturn, ast.StmtThrow:
		b.WriteString(n.Keyword)
		if n.Expr != nil {
			b.WriteByte(' ')
			p.expr(b, n.Expr, precLowest)
		}
		b.WriteByte(';')
	case ast.StmtBlock:
		if len(n.Body) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, s := range n.Body {
			if i > 0 {
				b.WriteByte(' ')
			}
			if st, ok := s.(*ast.Stmt); ok {
				p.stmt(b, st)
			} else {
				p.statementExpr(b, s)
				b.WriteByte(';')
			}
		}
		b.WriteString(" }")
	case ast.StmtVar, ast.StmtLet, ast.StmtConst:
		b.WriteString(n.Keyword)
		b.WriteByte(' ')
		for i, d := range n.Decls {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Name)
			if d.Init != nil {
				b.WriteString(" = ")
				p.expr(b, d.Init, precAssign)
			}
		}
		b.WriteByte(';')
	default:
		if n.Raw != "" {
			b.WriteString(n.Raw)
			return
		}
		fmt.Fprintf(b, "/* %s */", n.Keyword)
	}
}

// statementExpr wraps expressions that would otherwise parse as a block or
// a function declaration.
func (p *Printer) statementExpr(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Object:
		b.WriteByte('(')
		p.object(b, n)
		b.WriteByte(')')
		return
	case *ast.Func:
		if !n.Arrow {
			b.WriteByte('(')
			p.function(b, n)
			b.WriteByte(')')
			return
		}
	}
	p.expr(b, n, precLowest)
}

// literal returns the source spelling of a literal.
func literal(n *ast.Lit) string {
	if n.Raw != "" {
		return n.Raw
	}
	switch n.Type {
	case ast.LitString:
		return Quote(n.Value)
	case ast.LitNull:
		return "null"
	case ast.LitUndefined:
		return "undefined"
	case ast.LitThis:
		return "this"
	}
	return n.Value
}

// Quote returns s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
