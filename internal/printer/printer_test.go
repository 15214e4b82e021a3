package printer

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/alkali/internal/ast"
	tu "github.com/roach88/alkali/internal/testutil"
)

func TestPrint_SourceForm(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"identifier", tu.Id("a"), "a"},
		{"number", tu.Num(1.5), "1.5"},
		{"string", tu.Str(`say "hi"`), `"say \"hi\""`},
		{"null", tu.Null(), "null"},
		{"bool", tu.Bool(true), "true"},
		{"member", tu.Mem(tu.Mem(tu.Id("a"), "b"), "c"), "a.b.c"},
		{"computed member", tu.Index(tu.Id("a"), tu.Str("k")), `a["k"]`},
		{"precedence kept", tu.Bin("*", tu.Bin("+", tu.Id("a"), tu.Id("b")), tu.Id("c")), "(a + b) * c"},
		{"no redundant parens", tu.Bin("+", tu.Id("a"), tu.Bin("*", tu.Id("b"), tu.Id("c"))), "a + b * c"},
		{"left associative", tu.Bin("-", tu.Id("a"), tu.Bin("-", tu.Id("b"), tu.Id("c"))), "a - (b - c)"},
		{"exponent right associative", tu.Bin("**", tu.Bin("**", tu.Id("a"), tu.Id("b")), tu.Id("c")), "(a ** b) ** c"},
		{"unary", tu.Un("!", tu.Bin("&&", tu.Id("a"), tu.Id("b"))), "!(a && b)"},
		{"double negation", tu.Un("-", tu.Un("-", tu.Id("a"))), "- -a"},
		{"typeof", tu.Un("typeof", tu.Id("a")), "typeof a"},
		{"conditional", tu.Cond(tu.Id("a"), tu.Id("b"), tu.Cond(tu.Id("c"), tu.Id("d"), tu.Id("e"))), "a ? b : c ? d : e"},
		{"call", tu.Call(tu.Mem(tu.Id("a"), "f"), tu.Id("x"), tu.Num(1)), "a.f(x, 1)"},
		{"new", tu.NewExpr(tu.Id("C"), tu.Id("x")), "new C(x)"},
		{"new of call result", tu.NewExpr(tu.Call(tu.Id("f"))), "new (f())()"},
		{"assign", tu.Set(tu.Id("x"), tu.Set(tu.Id("y"), tu.Num(1))), "x = y = 1"},
		{"object", tu.Obj(tu.Prop{Key: "a", Value: tu.Num(1)}, tu.Prop{Key: "b", Value: tu.Id("c")}), "{ a: 1, b: c }"},
		{"empty object", tu.Obj(), "{}"},
		{"shorthand", &ast.Object{Props: []*ast.Property{{Key: tu.Id("a"), Value: tu.Id("a"), Shorthand: true}}}, "{ a }"},
		{"array with hole", tu.Arr(tu.Num(1), nil, tu.Num(3)), "[1, , 3]"},
		{"arrow", tu.Arrow(tu.Bin("+", tu.Id("x"), tu.Num(1)), "x"), "(x) => x + 1"},
		{"arrow returning object", tu.Arrow(tu.Obj(), "x"), "(x) => ({})"},
		{"called arrow", tu.Call(tu.Arrow(tu.Id("x"))), "(() => x)()"},
		{"sequence in argument", tu.Call(tu.Id("f"), &ast.Seq{Exprs: []ast.Node{tu.Id("a"), tu.Id("b")}}), "f((a, b))"},
		{"unary base of exponent", tu.Bin("**", tu.Un("-", tu.Id("a")), tu.Id("b")), "(-a) ** b"},
		{"typeof base of exponent", tu.Bin("**", tu.Un("typeof", tu.Id("a")), tu.Num(2)), "(typeof a) ** 2"},
		{"unary exponent operand", tu.Bin("**", tu.Id("a"), tu.Un("-", tu.Id("b"))), "a ** -b"},
		{"or inside nullish", tu.Logic("??", tu.Logic("||", tu.Id("a"), tu.Id("b")), tu.Id("c")), "(a || b) ?? c"},
		{"and inside nullish", tu.Logic("??", tu.Id("a"), tu.Logic("&&", tu.Id("b"), tu.Id("c"))), "a ?? (b && c)"},
		{"nullish inside and", tu.Logic("&&", tu.Id("a"), tu.Logic("??", tu.Id("b"), tu.Id("c"))), "a && (b ?? c)"},
		{"nullish chain", tu.Logic("??", tu.Logic("??", tu.Id("a"), tu.Id("b")), tu.Id("c")), "a ?? b ?? c"},
		{"optional member", tu.Mem(tu.OptMem(tu.Id("a"), "b"), "c"), "a?.b.c"},
		{"optional computed", &ast.Member{Object: tu.Id("a"), Property: tu.Id("k"), Computed: true, Optional: true}, "a?.[k]"},
		{"optional call", &ast.Call{Callee: tu.Id("f"), Args: []ast.Node{tu.Id("x")}, Optional: true}, "f?.(x)"},
		{"template", tu.Tmpl("sum: ", tu.Bin("+", tu.Id("a"), tu.Id("b")), "!"), "`sum: ${a + b}!`"},
		{"tagged template", &ast.Template{Tag: tu.Mem(tu.Id("fmt"), "html"), Quasis: []string{"<b>", "</b>"}, Exprs: []ast.Node{tu.Id("x")}}, "fmt.html`<b>${x}</b>`"},
		{"array spread", tu.Arr(tu.Spread(tu.Id("xs")), tu.Num(1)), "[...xs, 1]"},
		{"argument spread", tu.Call(tu.Id("f"), tu.Spread(tu.Id("xs"))), "f(...xs)"},
		{"object spread", &ast.Object{Props: []*ast.Property{{Value: tu.Spread(tu.Id("base"))}, {Key: tu.Id("k"), Value: tu.Num(1)}}}, "{ ...base, k: 1 }"},
		{"postfix update", &ast.Update{Op: "++", Argument: tu.Mem(tu.Id("o"), "n")}, "o.n++"},
		{"prefix update", &ast.Update{Op: "--", Prefix: true, Argument: tu.Id("i")}, "--i"},
		{"negated prefix decrement", tu.Un("-", &ast.Update{Op: "--", Prefix: true, Argument: tu.Id("i")}), "- --i"},
		{"opaque with hole", &ast.Opaque{Parts: []string{"class extends ", " {}"}, Holes: []ast.Node{&ast.Ref{Name: "_ref0"}}}, "class extends _ref0 {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Print(tt.node))
		})
	}
}

func TestPrint_TargetForm(t *testing.T) {
	add := &ast.Prim{Op: "add", Args: []ast.Node{tu.Id("a"), tu.Num(1)}}

	assert.Equal(t, "react.add(a, 1)", Print(add))
	assert.Equal(t, "rt.add(a, 1)", New("rt").Print(add))
	assert.Equal(t, "add(a, 1)", New("").Print(add))

	closure := &ast.Closure{Params: []string{"v0"}, Body: &ast.Object{Props: []*ast.Property{{Key: tu.Id("x"), Value: &ast.Ref{Name: "v0"}}}}}
	assert.Equal(t, "(v0) => ({ x: v0 })", Print(closure))

	put := &ast.Invoke{Receiver: tu.Cond(tu.Id("x"), tu.Id("x"), tu.Id("y")), Name: "put", Args: []ast.Node{add}}
	assert.Equal(t, "(x ? x : y).put(react.add(a, 1))", Print(put))
}

func TestPrint_Statements(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"expression", tu.ExprStmt(tu.Id("a")), "a;"},
		{"object expression statement", tu.ExprStmt(tu.Obj()), "({});"},
		{"return", tu.Return(tu.Id("a")), "return a;"},
		{"bare return", tu.Return(nil), "return;"},
		{"let", tu.Let("a", tu.Num(1)), "let a = 1;"},
		{"var without init", &ast.Stmt{Keyword: ast.StmtVar, Decls: []*ast.Declarator{{Name: "a"}, {Name: "b"}}}, "var a, b;"},
		{"empty block", &ast.Stmt{Keyword: ast.StmtBlock}, "{}"},
		{"block", &ast.Stmt{Keyword: ast.StmtBlock, Body: []ast.Node{tu.Return(tu.Id("a"))}}, "{ return a; }"},
		{"raw", &ast.Stmt{Keyword: "if_statement", Raw: "if (a) b();"}, "if (a) b();"},
		{"function with block", &ast.Func{Name: "f", Params: []string{"a"}, Body: &ast.Stmt{Keyword: ast.StmtBlock, Body: []ast.Node{tu.Return(tu.Id("a"))}}}, "function f(a) { return a; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Print(tt.node))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"a\nb\tc"`, Quote("a\nb\tc"))
	assert.Equal(t, `"back\\slash"`, Quote(`back\slash`))
	assert.Equal(t, `"\u0001"`, Quote("\x01"))
	assert.Equal(t, `"\u2028"`, Quote("\u2028"))
	assert.Equal(t, `"café"`, Quote("café"))
}

func TestPrint_Golden(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		tu.Let("total", &ast.Prim{Op: "from", Args: []ast.Node{
			&ast.Prim{Op: "add", Args: []ast.Node{
				&ast.Prim{Op: "prop", Args: []ast.Node{tu.Id("cart"), tu.Str("items")}},
				&ast.Prim{Op: "fcall", Args: []ast.Node{
					&ast.Closure{Params: []string{"_ref0"}, Body: tu.Bin("**", &ast.Ref{Name: "_ref0"}, tu.Num(2))},
					tu.Arr(&ast.Prim{Op: "prop", Args: []ast.Node{tu.Id("tax"), tu.Str("rate")}}),
				}},
			}},
		}}),
		tu.ExprStmt(&ast.Invoke{
			Receiver: &ast.Prim{Op: "prop", Args: []ast.Node{tu.Id("view"), tu.Str("label")}},
			Name:     "put",
			Args: []ast.Node{&ast.Prim{Op: "obj", Args: []ast.Node{
				&ast.Closure{Params: []string{"v0"}, Body: tu.Obj(tu.Prop{Key: "text", Value: &ast.Ref{Name: "v0"}})},
				tu.Arr(tu.Id("total")),
			}}},
		}),
	}}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "program", []byte(Print(prog)+"\n"))
}
