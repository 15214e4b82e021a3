// Package jsparse converts JavaScript source into alkali expression trees
// using the tree-sitter JavaScript grammar.
//
// Expression forms are modeled structurally, including templates,
// optional chains, spreads and update expressions. Constructs with no
// structural form (classes, yield, await, private names) become an
// ast.Opaque that keeps their source text with the expressions inside it
// converted as holes, and statements the printer does not know keep their
// source text in Stmt.Raw.
package jsparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/roach88/alkali/internal/ast"
)

// Span is a half-open byte range [Start, End) in the parsed source.
type Span struct {
	Start int
	End   int
}

// File is a parsed source file.
type File struct {
	// Program is the converted tree.
	Program *ast.Program

	// Calls maps every call expression in Program to its source range.
	Calls map[*ast.Call]Span

	// Source is the parsed text.
	Source []byte
}

// Parse parses src as a JavaScript program.
func Parse(ctx context.Context, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, src)
	}

	c := &converter{src: src, calls: make(map[*ast.Call]Span)}
	prog := &ast.Program{Body: c.statements(root)}
	return &File{Program: prog, Calls: c.calls, Source: src}, nil
}

// ParseExpression parses src as a single JavaScript expression.
func ParseExpression(ctx context.Context, src string) (ast.Node, error) {
	// Parenthesized so object literals are not read as blocks. The newline
	// keeps a trailing line comment from swallowing the closing paren.
	f, err := Parse(ctx, []byte("("+src+"\n)"))
	if err != nil {
		return nil, err
	}
	if len(f.Program.Body) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(f.Program.Body))
	}
	stmt, ok := f.Program.Body[0].(*ast.Stmt)
	if !ok || stmt.Keyword != ast.StmtExpression {
		return nil, fmt.Errorf("expected an expression")
	}
	return stmt.Expr, nil
}

type converter struct {
	src   []byte
	calls map[*ast.Call]Span
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// opaque keeps the text of n and converts the expressions and statements
// found inside it as holes. Names in binding position (a class name) stay
// in the text.
func (c *converter) opaque(n *sitter.Node) ast.Node {
	o := &ast.Opaque{}
	pos := n.StartByte()
	var walk func(*sitter.Node)
	walk = func(parent *sitter.Node) {
		for i := 0; i < int(parent.ChildCount()); i++ {
			k := parent.Child(i)
			if !k.IsNamed() || k.Type() == "comment" || parent.FieldNameForChild(i) == "name" {
				continue
			}
			var hole ast.Node
			switch {
			case k.Type() == "parenthesized_expression":
				// The parentheses stay in the text.
				walk(k)
				continue
			case k.Type() == "formal_parameters":
				// Method parameters bind names.
				continue
			case referenceLeaves[k.Type()]:
				hole = ast.NewIdent(c.text(k))
			case isStatement(k.Type()):
				hole = c.statement(k)
			case expressionTypes[k.Type()]:
				hole = c.expr(k)
			default:
				walk(k)
				continue
			}
			if hole == nil {
				continue
			}
			o.Parts = append(o.Parts, string(c.src[pos:k.StartByte()]))
			o.Holes = append(o.Holes, hole)
			pos = k.EndByte()
		}
	}
	walk(n)
	o.Parts = append(o.Parts, string(c.src[pos:n.EndByte()]))
	return o
}

// referenceLeaves are identifier-like nodes that read a variable.
var referenceLeaves = map[string]bool{
	"identifier":                    true,
	"shorthand_property_identifier": true,
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func (c *converter) statements(n *sitter.Node) []ast.Node {
	var out []ast.Node
	for _, child := range namedChildren(n) {
		if s := c.statement(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *converter) statement(n *sitter.Node) ast.Node {
	switch n.Type() {
	case "empty_statement":
		return nil
	case "expression_statement":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil
		}
		return &ast.Stmt{Keyword: ast.StmtExpression, Expr: c.expr(kids[0])}
	case "return_statement", "throw_statement":
		kw := ast.StmtReturn
		if n.Type() == "throw_statement" {
			kw = ast.StmtThrow
		}
		s := &ast.Stmt{Keyword: kw}
		if kids := namedChildren(n); len(kids) > 0 {
			s.Expr = c.expr(kids[0])
		}
		return s
	case "statement_block":
		return &ast.Stmt{Keyword: ast.StmtBlock, Body: c.statements(n)}
	case "lexical_declaration", "variable_declaration":
		return c.declaration(n)
	case "function_declaration", "generator_function_declaration":
		return &ast.Stmt{Keyword: "function_declaration", Body: []ast.Node{c.function(n)}, Raw: c.text(n)}
	}
	return c.generic(n)
}

// generic keeps the source text of a construct the printer does not
// model while still converting its children, so roots nested inside
// (an if body, a class method) are found.
func (c *converter) generic(n *sitter.Node) ast.Node {
	s := &ast.Stmt{Keyword: n.Type(), Raw: c.text(n)}
	for _, child := range namedChildren(n) {
		switch {
		case isStatement(child.Type()):
			if st := c.statement(child); st != nil {
				s.Body = append(s.Body, st)
			}
		case expressionTypes[child.Type()]:
			s.Body = append(s.Body, c.expr(child))
		default:
			s.Body = append(s.Body, c.generic(child))
		}
	}
	return s
}

func isStatement(typ string) bool {
	return typ == "statement_block" ||
		strings.HasSuffix(typ, "_statement") ||
		strings.HasSuffix(typ, "_declaration")
}

func (c *converter) declaration(n *sitter.Node) ast.Node {
	kw := ast.StmtVar
	if n.Type() == "lexical_declaration" && n.ChildCount() > 0 {
		kw = n.Child(0).Type()
	}
	s := &ast.Stmt{Keyword: kw, Raw: c.text(n)}
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			// Destructuring declarations are kept as source text.
			return c.generic(n)
		}
		decl := &ast.Declarator{Name: c.text(name)}
		if value := d.ChildByFieldName("value"); value != nil {
			decl.Init = c.expr(value)
		}
		s.Decls = append(s.Decls, decl)
	}
	return s
}

// expressionTypes lists the grammar node types expr converts structurally.
var expressionTypes = map[string]bool{
	"identifier":                      true,
	"undefined":                       true,
	"this":                            true,
	"number":                          true,
	"string":                          true,
	"template_string":                 true,
	"regex":                           true,
	"true":                            true,
	"false":                           true,
	"null":                            true,
	"member_expression":               true,
	"subscript_expression":            true,
	"binary_expression":               true,
	"unary_expression":                true,
	"ternary_expression":              true,
	"call_expression":                 true,
	"new_expression":                  true,
	"assignment_expression":           true,
	"augmented_assignment_expression": true,
	"object":                          true,
	"array":                           true,
	"arrow_function":                  true,
	"function":                        true,
	"function_expression":             true,
	"generator_function":              true,
	"parenthesized_expression":        true,
	"sequence_expression":             true,
	"spread_element":                  true,
	"update_expression":               true,
}

func (c *converter) expr(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return ast.NewIdent(c.text(n))
	case "undefined":
		return &ast.Lit{Type: ast.LitUndefined, Value: "undefined", Raw: "undefined"}
	case "this":
		return &ast.Lit{Type: ast.LitThis, Value: "this", Raw: "this"}
	case "number":
		return ast.NewNumber(c.text(n))
	case "string":
		raw := c.text(n)
		value, err := unquote(raw)
		if err != nil {
			return c.opaque(n)
		}
		return &ast.Lit{Type: ast.LitString, Value: value, Raw: raw}
	case "template_string":
		return c.template(n)
	case "regex":
		return &ast.Lit{Type: ast.LitRegex, Value: c.text(n), Raw: c.text(n)}
	case "true", "false":
		return &ast.Lit{Type: ast.LitBool, Value: n.Type(), Raw: n.Type()}
	case "null":
		return &ast.Lit{Type: ast.LitNull, Value: "null", Raw: "null"}
	case "member_expression":
		return c.member(n)
	case "subscript_expression":
		return &ast.Member{
			Object:   c.expr(n.ChildByFieldName("object")),
			Property: c.expr(n.ChildByFieldName("index")),
			Computed: true,
			Optional: hasChild(n, "optional_chain"),
		}
	case "binary_expression":
		op := c.text(n.ChildByFieldName("operator"))
		left := c.expr(n.ChildByFieldName("left"))
		right := c.expr(n.ChildByFieldName("right"))
		switch op {
		case "&&", "||", "??":
			return &ast.Logical{Op: op, Left: left, Right: right}
		}
		return &ast.Binary{Op: op, Left: left, Right: right}
	case "unary_expression":
		return &ast.Unary{
			Op:       c.text(n.ChildByFieldName("operator")),
			Argument: c.expr(n.ChildByFieldName("argument")),
		}
	case "ternary_expression":
		return &ast.Conditional{
			Test:       c.expr(n.ChildByFieldName("condition")),
			Consequent: c.expr(n.ChildByFieldName("consequence")),
			Alternate:  c.expr(n.ChildByFieldName("alternative")),
		}
	case "call_expression":
		return c.call(n)
	case "new_expression":
		ctor := n.ChildByFieldName("constructor")
		if ctor == nil {
			return c.opaque(n)
		}
		out := &ast.New{Callee: c.expr(ctor)}
		if args := n.ChildByFieldName("arguments"); args != nil {
			out.Args = c.arguments(args)
		}
		return out
	case "assignment_expression":
		return &ast.Assign{
			Op:     "=",
			Target: c.expr(n.ChildByFieldName("left")),
			Value:  c.expr(n.ChildByFieldName("right")),
		}
	case "augmented_assignment_expression":
		return &ast.Assign{
			Op:     c.text(n.ChildByFieldName("operator")),
			Target: c.expr(n.ChildByFieldName("left")),
			Value:  c.expr(n.ChildByFieldName("right")),
		}
	case "object":
		return c.object(n)
	case "array":
		return c.array(n)
	case "arrow_function", "function", "function_expression", "generator_function":
		return c.function(n)
	case "parenthesized_expression":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return c.opaque(n)
		}
		return c.expr(kids[0])
	case "sequence_expression":
		seq := &ast.Seq{}
		c.flatten(n, seq)
		return seq
	case "spread_element":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return c.opaque(n)
		}
		return &ast.Spread{Argument: c.expr(kids[0])}
	case "update_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		if op == nil || arg == nil {
			return c.opaque(n)
		}
		return &ast.Update{
			Op:       c.text(op),
			Prefix:   op.StartByte() < arg.StartByte(),
			Argument: c.expr(arg),
		}
	}
	return c.opaque(n)
}

// template converts a template literal. Quasis are the raw source text
// between substitutions, escapes included.
func (c *converter) template(n *sitter.Node) *ast.Template {
	t := &ast.Template{}
	start := n.StartByte() + 1
	for _, k := range namedChildren(n) {
		if k.Type() != "template_substitution" {
			continue
		}
		t.Quasis = append(t.Quasis, string(c.src[start:k.StartByte()]))
		var e ast.Node = &ast.Lit{Type: ast.LitUndefined, Value: "undefined", Raw: "undefined"}
		if kids := namedChildren(k); len(kids) == 1 {
			e = c.expr(kids[0])
		}
		t.Exprs = append(t.Exprs, e)
		start = k.EndByte()
	}
	t.Quasis = append(t.Quasis, string(c.src[start:n.EndByte()-1]))
	return t
}

func (c *converter) member(n *sitter.Node) ast.Node {
	prop := n.ChildByFieldName("property")
	if prop == nil || prop.Type() != "property_identifier" {
		return c.opaque(n)
	}
	return &ast.Member{
		Object:   c.expr(n.ChildByFieldName("object")),
		Property: ast.NewIdent(c.text(prop)),
		Optional: hasChild(n, "optional_chain"),
	}
}

func (c *converter) call(n *sitter.Node) ast.Node {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn != nil && args != nil && args.Type() == "template_string" {
		t := c.template(args)
		t.Tag = c.expr(fn)
		return t
	}
	if fn == nil || args == nil || args.Type() != "arguments" || fn.Type() == "import" {
		return c.opaque(n)
	}
	call := &ast.Call{Callee: c.expr(fn), Args: c.arguments(args), Optional: hasChild(n, "optional_chain")}
	c.calls[call] = Span{Start: int(n.StartByte()), End: int(n.EndByte())}
	return call
}

func (c *converter) arguments(n *sitter.Node) []ast.Node {
	kids := namedChildren(n)
	out := make([]ast.Node, 0, len(kids))
	for _, k := range kids {
		out = append(out, c.expr(k))
	}
	return out
}

func (c *converter) flatten(n *sitter.Node, seq *ast.Seq) {
	for _, k := range namedChildren(n) {
		if k.Type() == "sequence_expression" {
			c.flatten(k, seq)
			continue
		}
		seq.Exprs = append(seq.Exprs, c.expr(k))
	}
}

func (c *converter) object(n *sitter.Node) ast.Node {
	obj := &ast.Object{}
	for _, k := range namedChildren(n) {
		switch k.Type() {
		case "pair":
			key, computed := c.key(k.ChildByFieldName("key"))
			if key == nil {
				return c.opaque(n)
			}
			obj.Props = append(obj.Props, &ast.Property{
				Key:      key,
				Value:    c.expr(k.ChildByFieldName("value")),
				Computed: computed,
			})
		case "shorthand_property_identifier":
			name := c.text(k)
			obj.Props = append(obj.Props, &ast.Property{
				Key:       ast.NewIdent(name),
				Value:     ast.NewIdent(name),
				Shorthand: true,
			})
		case "spread_element":
			obj.Props = append(obj.Props, &ast.Property{Value: c.expr(k)})
		default:
			// Methods and accessors.
			return c.opaque(n)
		}
	}
	return obj
}

func (c *converter) key(n *sitter.Node) (ast.Node, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "property_identifier":
		return ast.NewIdent(c.text(n)), false
	case "string", "number":
		return c.expr(n), false
	case "computed_property_name":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, false
		}
		return c.expr(kids[0]), true
	}
	return nil, false
}

// array converts an array literal. Holes have no grammar node, so they
// are recovered from consecutive commas.
func (c *converter) array(n *sitter.Node) ast.Node {
	arr := &ast.Array{Elems: []ast.Node{}}
	expectElem := true
	for i := 0; i < int(n.ChildCount()); i++ {
		k := n.Child(i)
		switch {
		case k.Type() == ",":
			if expectElem {
				arr.Elems = append(arr.Elems, nil)
			}
			expectElem = true
		case k.IsNamed() && k.Type() != "comment":
			arr.Elems = append(arr.Elems, c.expr(k))
			expectElem = false
		}
	}
	return arr
}

func (c *converter) function(n *sitter.Node) *ast.Func {
	fn := &ast.Func{
		Arrow:     n.Type() == "arrow_function",
		Async:     hasChild(n, "async"),
		Generator: hasChild(n, "*"),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = c.text(name)
	}
	if p := n.ChildByFieldName("parameter"); p != nil {
		fn.Params = []string{c.text(p)}
	} else if p := n.ChildByFieldName("parameters"); p != nil {
		simple := true
		for _, k := range namedChildren(p) {
			if k.Type() != "identifier" {
				simple = false
			}
			fn.Params = append(fn.Params, c.bindings(k)...)
		}
		if !simple {
			fn.ParamsText = c.text(p)
		}
	}
	body := n.ChildByFieldName("body")
	switch {
	case body == nil:
	case body.Type() == "statement_block":
		fn.Body = &ast.Stmt{Keyword: ast.StmtBlock, Body: c.statements(body)}
	default:
		fn.Body = c.expr(body)
	}
	return fn
}

// bindings returns the names bound by a parameter pattern.
func (c *converter) bindings(n *sitter.Node) []string {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []string{c.text(n)}
	case "assignment_pattern":
		return c.bindings(n.ChildByFieldName("left"))
	case "pair_pattern":
		return c.bindings(n.ChildByFieldName("value"))
	}
	var out []string
	for _, k := range namedChildren(n) {
		out = append(out, c.bindings(k)...)
	}
	return out
}
