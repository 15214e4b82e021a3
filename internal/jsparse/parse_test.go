package jsparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/printer"
)

func TestParseExpression_Printed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "a + b * c", "a + b * c"},
		{"grouping", "(a + b) * c", "(a + b) * c"},
		{"logical", "a && b || c", "a && b || c"},
		{"nullish", "a ?? b", "a ?? b"},
		{"conditional", "x ? y : z", "x ? y : z"},
		{"unary", "!a", "!a"},
		{"typeof", "typeof a", "typeof a"},
		{"call", "f(a, 1)", "f(a, 1)"},
		{"method call", "a.b.c(d)", "a.b.c(d)"},
		{"computed member", "c['d']", "c['d']"},
		{"new", "new C(x)", "new C(x)"},
		{"object", "{ a: 1, b }", "{ a: 1, b }"},
		{"computed key", "{ [k]: v }", "{ [k]: v }"},
		{"array holes", "[1, , 3]", "[1, , 3]"},
		{"arrow", "x => x + 1", "(x) => x + 1"},
		{"arrow block", "(a, b) => { return a; }", "(a, b) => { return a; }"},
		{"function", "function (a) { return a; }", "function(a) { return a; }"},
		{"assign", "a = b", "a = b"},
		{"compound assign", "a += 1", "a += 1"},
		{"strings keep spelling", `'it' + "s"`, `'it' + "s"`},
		{"optional member", "a?.b", "a?.b"},
		{"optional computed member", "a?.[k].c", "a?.[k].c"},
		{"optional call", "f?.(x)", "f?.(x)"},
		{"template", "`t${x}`", "`t${x}`"},
		{"template escapes kept raw", "`a\n${b + 1}c`", "`a\n${b + 1}c`"},
		{"tagged template", "html`<b>${x}</b>`", "html`<b>${x}</b>`"},
		{"object spread", "{ ...a, b: 1 }", "{ ...a, b: 1 }"},
		{"array spread", "[...xs, 1]", "[...xs, 1]"},
		{"argument spread", "f(...xs)", "f(...xs)"},
		{"postfix update", "i++", "i++"},
		{"prefix update", "--o.n", "--o.n"},
		{"class expression", "class extends Base {}", "class extends Base {}"},
		{"literals", "[true, null, undefined, this, 1e3]", "[true, null, undefined, this, 1e3]"},
		{"comment", "a + /* note */ b // tail", "a + b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseExpression(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, printer.Print(n))
		})
	}
}

func TestParseExpression_Structure(t *testing.T) {
	ctx := context.Background()

	n, err := ParseExpression(ctx, "a.b")
	require.NoError(t, err)
	m, ok := n.(*ast.Member)
	require.True(t, ok)
	assert.Equal(t, &ast.Ident{Name: "a"}, m.Object)
	assert.Equal(t, "b", ast.PropertyName(m))
	assert.False(t, m.Computed)

	n, err = ParseExpression(ctx, `"a\nb\u0041"`)
	require.NoError(t, err)
	lit, ok := n.(*ast.Lit)
	require.True(t, ok)
	assert.Equal(t, ast.LitString, lit.Type)
	assert.Equal(t, "a\nbA", lit.Value)

	n, err = ParseExpression(ctx, "a || b")
	require.NoError(t, err)
	assert.IsType(t, &ast.Logical{}, n)

	n, err = ParseExpression(ctx, "({ x }) => x")
	require.NoError(t, err)
	fn, ok := n.(*ast.Func)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, fn.Params)
	assert.Equal(t, "({ x })", fn.ParamsText)
	assert.True(t, fn.Arrow)

	n, err = ParseExpression(ctx, "(a, b, c)")
	require.NoError(t, err)
	seq, ok := n.(*ast.Seq)
	require.True(t, ok)
	assert.Len(t, seq.Exprs, 3)
}

func TestParseExpression_ModeledConstructs(t *testing.T) {
	ctx := context.Background()

	n, err := ParseExpression(ctx, "`sum: ${a.b} of ${c}`")
	require.NoError(t, err)
	tmpl, ok := n.(*ast.Template)
	require.True(t, ok)
	assert.Equal(t, []string{"sum: ", " of ", ""}, tmpl.Quasis)
	require.Len(t, tmpl.Exprs, 2)
	assert.IsType(t, &ast.Member{}, tmpl.Exprs[0])
	assert.Equal(t, &ast.Ident{Name: "c"}, tmpl.Exprs[1])
	assert.Nil(t, tmpl.Tag)

	n, err = ParseExpression(ctx, "a?.b.c")
	require.NoError(t, err)
	outer, ok := n.(*ast.Member)
	require.True(t, ok)
	assert.False(t, outer.Optional)
	inner, ok := outer.Object.(*ast.Member)
	require.True(t, ok)
	assert.True(t, inner.Optional)
	assert.True(t, ast.OptionalChain(outer))

	n, err = ParseExpression(ctx, "f?.(x)")
	require.NoError(t, err)
	call, ok := n.(*ast.Call)
	require.True(t, ok)
	assert.True(t, call.Optional)

	n, err = ParseExpression(ctx, "count++")
	require.NoError(t, err)
	upd, ok := n.(*ast.Update)
	require.True(t, ok)
	assert.Equal(t, "++", upd.Op)
	assert.False(t, upd.Prefix)
	assert.Equal(t, &ast.Ident{Name: "count"}, upd.Argument)

	n, err = ParseExpression(ctx, "{ ...base, k }")
	require.NoError(t, err)
	obj, ok := n.(*ast.Object)
	require.True(t, ok)
	require.Len(t, obj.Props, 2)
	assert.Nil(t, obj.Props[0].Key)
	assert.Equal(t, &ast.Spread{Argument: &ast.Ident{Name: "base"}}, obj.Props[0].Value)
}

func TestParseExpression_OpaqueKeepsReferences(t *testing.T) {
	n, err := ParseExpression(context.Background(), "class Named extends mixin(Base) { static size = limit; }")
	require.NoError(t, err)
	o, ok := n.(*ast.Opaque)
	require.True(t, ok)
	require.Len(t, o.Parts, len(o.Holes)+1)

	var refs []string
	ast.Inspect(o, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			refs = append(refs, id.Name)
		}
		return true
	})
	// The class name binds; it is not a reference.
	assert.Equal(t, []string{"mixin", "Base", "limit"}, refs)
	assert.Equal(t, "class Named extends mixin(Base) { static size = limit; }", printer.Print(o))
}

func TestParse_CallSpans(t *testing.T) {
	src := "let y = react(a + 1);\nf(react(b.c));\n"

	f, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Program.Body, 2)

	var spans []string
	ast.Inspect(f.Program, func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok {
			span, found := f.Calls[call]
			require.True(t, found)
			spans = append(spans, src[span.Start:span.End])
		}
		return true
	})
	assert.Equal(t, []string{"react(a + 1)", "f(react(b.c))", "react(b.c)"}, spans)
}

func TestParse_Statements(t *testing.T) {
	src := `const a = 1, b;
var c;
function g(x) { return x; }
if (ok) { z = react(y); }
;
`
	f, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Program.Body, 4)

	decl := f.Program.Body[0].(*ast.Stmt)
	assert.Equal(t, ast.StmtConst, decl.Keyword)
	require.Len(t, decl.Decls, 2)
	assert.Equal(t, "b", decl.Decls[1].Name)
	assert.Nil(t, decl.Decls[1].Init)

	assert.Equal(t, ast.StmtVar, f.Program.Body[1].(*ast.Stmt).Keyword)

	ifStmt := f.Program.Body[3].(*ast.Stmt)
	assert.Equal(t, "if_statement", ifStmt.Keyword)
	assert.Equal(t, "if (ok) { z = react(y); }", ifStmt.Raw)

	found := false
	ast.Inspect(ifStmt, func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok && ast.NameOf(call.Callee) == "react" {
			found = true
		}
		return true
	})
	assert.True(t, found, "root inside an if body must be reachable")
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), []byte("let a = 1;\nlet = ;\n"))
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)
	assert.Contains(t, err.Error(), "syntax error at line 2")
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, []byte("a;"))
	assert.Error(t, err)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"q\"d"`, `q"d`},
		{`'it\'s'`, "it's"},
		{`"\t\n\\"`, "\t\n\\"},
		{`"\x41B\u{43}"`, "ABC"},
		{`"\uD83D\uDE00"`, "\U0001F600"},
		{`"\q"`, "q"},
		{"\"a\\\nb\"", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := unquote(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{``, `"`, `"abc'`, `"\x4"`, `"\u{zz}"`, `"abc\"`} {
		_, err := unquote(bad)
		assert.Error(t, err, bad)
	}
}
