package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alkali/internal/ast"
	"github.com/roach88/alkali/internal/printer"
	tu "github.com/roach88/alkali/internal/testutil"
)

func sampleProgram() *ast.Program {
	return &ast.Program{Body: []ast.Node{
		tu.Let("y", tu.Root(tu.Bin("+", tu.Id("a"), tu.Num(1)))),
		tu.ExprStmt(tu.Set(tu.Id("z"), tu.Root(tu.Mem(tu.Id("b"), "c")))),
		tu.ExprStmt(tu.Call(tu.Id("f"), tu.Obj(tu.Prop{Key: "k", Value: tu.Root(tu.Id("c"))}))),
		tu.ExprStmt(tu.Call(tu.Id("react"))),
		tu.ExprStmt(tu.Call(tu.Mem(tu.Id("react"), "from"), tu.Id("d"))),
	}}
}

func TestDetect_RewritesRoots(t *testing.T) {
	r := New(Config{})

	out, sites, err := r.Detect(sampleProgram())
	require.NoError(t, err)

	want := `let y = react.from(react.add(a, 1));
z = react.from(react.prop(b, "c"));
f({ k: react.from(c) });
react();
react.from(d);`
	assert.Equal(t, want, printer.Print(out))

	require.Len(t, sites, 3)
	assert.Equal(t, []string{"y", "z", "k"}, []string{sites[0].Name, sites[1].Name, sites[2].Name})
	assert.Equal(t, "react", ast.NameOf(sites[0].Call.Callee))
	assert.Equal(t, `react.from(react.add(a, 1))`, printer.Print(sites[0].Result))
}

func TestDetect_NameRoots(t *testing.T) {
	r := New(Config{NameRoots: true})

	out, sites, err := r.Detect(sampleProgram())
	require.NoError(t, err)

	want := `let y = react.from(react.add(a, 1))._sN("y");
z = react.from(react.prop(b, "c"))._sN("z");
f({ k: react.from(c)._sN("k") });
react();
react.from(d);`
	assert.Equal(t, want, printer.Print(out))
	assert.Len(t, sites, 3)
}

func TestDetect_UnnamedRootNotWrapped(t *testing.T) {
	r := New(Config{NameRoots: true})

	out, sites, err := r.Detect(tu.ExprStmt(tu.Call(tu.Id("g"), tu.Root(tu.Id("a")))))
	require.NoError(t, err)
	assert.Equal(t, `g(react.from(a));`, printer.Print(out))
	require.Len(t, sites, 1)
	assert.Empty(t, sites[0].Name)
}

func TestDetect_CustomMarker(t *testing.T) {
	r := New(Config{Marker: "$r"})

	out, sites, err := r.Detect(&ast.Program{Body: []ast.Node{
		tu.ExprStmt(tu.Call(tu.Id("$r"), tu.Bin("-", tu.Id("a"), tu.Id("b")))),
		tu.ExprStmt(tu.Root(tu.Id("a"))),
	}})
	require.NoError(t, err)
	assert.Equal(t, "react.from(react.subtract(a, b));\nreact(a);", printer.Print(out))
	assert.Len(t, sites, 1)
	assert.Equal(t, "$r", r.Marker())
}

func TestDetect_ExpressionRoot(t *testing.T) {
	r := New(Config{})

	out, sites, err := r.Detect(tu.Root(tu.Id("a"), tu.Id("b")))
	require.NoError(t, err)
	assert.Equal(t, `react.from(a, b)`, printer.Print(out))
	assert.Len(t, sites, 1)
}

func TestDetect_InvalidRoot(t *testing.T) {
	r := New(Config{})

	prog := &ast.Program{Body: []ast.Node{
		tu.ExprStmt(tu.Root(tu.Id("ok"))),
		tu.ExprStmt(tu.Root(tu.Return(tu.Id("x")))),
	}}
	out, sites, err := r.Detect(prog)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Nil(t, sites)
	assert.ErrorIs(t, err, ErrInvalidReactiveExpression)
	assert.Contains(t, err.Error(), "reactive root 2")
}

func TestIsRoot(t *testing.T) {
	r := New(Config{})

	assert.True(t, r.IsRoot(tu.Root(tu.Id("a"))))
	assert.False(t, r.IsRoot(tu.Root()))
	assert.False(t, r.IsRoot(tu.Call(tu.Id("other"), tu.Id("a"))))
	assert.False(t, r.IsRoot(tu.Call(tu.Mem(tu.Id("react"), "from"), tu.Id("a"))))
}

func TestDetect_RootError(t *testing.T) {
	r := New(Config{})

	bad := tu.Root(tu.Return(tu.Id("x")))
	_, _, err := r.Detect(tu.ExprStmt(bad))

	var rootErr *RootError
	require.ErrorAs(t, err, &rootErr)
	assert.Equal(t, 1, rootErr.Index)
	assert.Same(t, bad, rootErr.Call)

	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, "return", exprErr.Keyword)
}
