package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ESTree type names used by the JSON tree format. Target nodes use the
// Reactive* names so a compiled tree survives a round trip.
const (
	typeIdentifier   = "Identifier"
	typeLiteral      = "Literal"
	typeThis         = "ThisExpression"
	typeTemplate     = "TemplateLiteral"
	typeTemplateElem = "TemplateElement"
	typeTagged       = "TaggedTemplateExpression"
	typeSpread       = "SpreadElement"
	typeUpdate       = "UpdateExpression"
	typeChain        = "ChainExpression"
	typeOptMember    = "OptionalMemberExpression"
	typeOptCall      = "OptionalCallExpression"
	typeMember       = "MemberExpression"
	typeBinary       = "BinaryExpression"
	typeUnary        = "UnaryExpression"
	typeLogical      = "LogicalExpression"
	typeConditional  = "ConditionalExpression"
	typeCall         = "CallExpression"
	typeNew          = "NewExpression"
	typeAssign       = "AssignmentExpression"
	typeObject       = "ObjectExpression"
	typeProperty     = "Property"
	typeArray        = "ArrayExpression"
	typeFunction     = "FunctionExpression"
	typeArrow        = "ArrowFunctionExpression"
	typeSequence     = "SequenceExpression"
	typeProgram      = "Program"
	typeBlock        = "BlockStatement"
	typeExprStmt     = "ExpressionStatement"
	typeReturn       = "ReturnStatement"
	typeThrow        = "ThrowStatement"
	typeVarDecl      = "VariableDeclaration"
	typeOpaque       = "Opaque"
	typePrim         = "ReactivePrimitive"
	typeClosure      = "ReactiveClosure"
	typeRef          = "ReactiveRef"
	typeInvoke       = "ReactiveInvoke"
	typeStringLit    = "StringLiteral"
	typeNumericLit   = "NumericLiteral"
	typeBooleanLit   = "BooleanLiteral"
	typeNullLit      = "NullLiteral"
	typeRegExpLit    = "RegExpLiteral"
	typeParenthesize = "ParenthesizedExpression"
)

// ToMap converts a tree to its ESTree-shaped map form. Absent children are
// omitted; array holes become {"type":"Hole"}.
func ToMap(n Node) map[string]any {
	switch n := n.(type) {
	case nil:
		return map[string]any{"type": "Hole"}
	case *Ident:
		return map[string]any{"type": typeIdentifier, "name": n.Name}
	case *Lit:
		return litToMap(n)
	case *Member:
		return map[string]any{"type": typeMember, "object": ToMap(n.Object), "property": ToMap(n.Property), "computed": n.Computed, "optional": n.Optional}
	case *Binary:
		return map[string]any{"type": typeBinary, "operator": n.Op, "left": ToMap(n.Left), "right": ToMap(n.Right)}
	case *Logical:
		return map[string]any{"type": typeLogical, "operator": n.Op, "left": ToMap(n.Left), "right": ToMap(n.Right)}
	case *Unary:
		return map[string]any{"type": typeUnary, "operator": n.Op, "argument": ToMap(n.Argument), "prefix": true}
	case *Conditional:
		return map[string]any{"type": typeConditional, "test": ToMap(n.Test), "consequent": ToMap(n.Consequent), "alternate": ToMap(n.Alternate)}
	case *Call:
		return map[string]any{"type": typeCall, "callee": ToMap(n.Callee), "arguments": listToMaps(n.Args), "optional": n.Optional}
	case *New:
		return map[string]any{"type": typeNew, "callee": ToMap(n.Callee), "arguments": listToMaps(n.Args)}
	case *Assign:
		return map[string]any{"type": typeAssign, "operator": n.Op, "left": ToMap(n.Target), "right": ToMap(n.Value)}
	case *Object:
		props := make([]any, len(n.Props))
		for i, p := range n.Props {
			if p.Key == nil {
				props[i] = ToMap(p.Value)
				continue
			}
			props[i] = map[string]any{
				"type":      typeProperty,
				"key":       ToMap(p.Key),
				"value":     ToMap(p.Value),
				"computed":  p.Computed,
				"shorthand": p.Shorthand,
			}
		}
		return map[string]any{"type": typeObject, "properties": props}
	case *Array:
		return map[string]any{"type": typeArray, "elements": listToMaps(n.Elems)}
	case *Func:
		return funcToMap(n)
	case *Seq:
		return map[string]any{"type": typeSequence, "expressions": listToMaps(n.Exprs)}
	case *Template:
		return templateToMap(n)
	case *Spread:
		return map[string]any{"type": typeSpread, "argument": ToMap(n.Argument)}
	case *Update:
		return map[string]any{"type": typeUpdate, "operator": n.Op, "prefix": n.Prefix, "argument": ToMap(n.Argument)}
	case *Opaque:
		return map[string]any{"type": typeOpaque, "parts": stringsToAny(n.Parts), "holes": listToMaps(n.Holes)}
	case *Stmt:
		return stmtToMap(n)
	case *Program:
		return map[string]any{"type": typeProgram, "body": listToMaps(n.Body)}
	case *Prim:
		return map[string]any{"type": typePrim, "op": n.Op, "arguments": listToMaps(n.Args)}
	case *Closure:
		return map[string]any{"type": typeClosure, "params": stringsToAny(n.Params), "body": ToMap(n.Body)}
	case *Ref:
		return map[string]any{"type": typeRef, "name": n.Name}
	case *Invoke:
		return map[string]any{"type": typeInvoke, "receiver": ToMap(n.Receiver), "name": n.Name, "arguments": listToMaps(n.Args)}
	}
	return map[string]any{"type": "Invalid"}
}

func litToMap(n *Lit) map[string]any {
	m := map[string]any{"type": typeLiteral}
	switch n.Type {
	case LitThis:
		return map[string]any{"type": typeThis}
	case LitString:
		m["value"] = n.Value
	case LitBool:
		m["value"] = n.Value == "true"
	}
	switch {
	case n.Raw != "":
		m["raw"] = n.Raw
	case n.Type == LitNull:
		m["raw"] = "null"
	case n.Type != LitString:
		m["raw"] = n.Value
	}
	if n.Type == LitUndefined {
		m["type"] = typeIdentifier
		m["name"] = "undefined"
		delete(m, "raw")
	}
	return m
}

func templateToMap(n *Template) map[string]any {
	quasis := make([]any, len(n.Quasis))
	for i, q := range n.Quasis {
		quasis[i] = map[string]any{
			"type":  typeTemplateElem,
			"value": map[string]any{"raw": q},
			"tail":  i == len(n.Quasis)-1,
		}
	}
	m := map[string]any{"type": typeTemplate, "quasis": quasis, "expressions": listToMaps(n.Exprs)}
	if n.Tag == nil {
		return m
	}
	return map[string]any{"type": typeTagged, "tag": ToMap(n.Tag), "quasi": m}
}

func funcToMap(n *Func) map[string]any {
	typ := typeFunction
	if n.Arrow {
		typ = typeArrow
	}
	m := map[string]any{
		"type":      typ,
		"params":    stringsToAny(n.Params),
		"body":      ToMap(n.Body),
		"async":     n.Async,
		"generator": n.Generator,
	}
	if n.Name != "" {
		m["id"] = map[string]any{"type": typeIdentifier, "name": n.Name}
	}
	if n.ParamsText != "" {
		m["params_text"] = n.ParamsText
	}
	return m
}

func stmtToMap(n *Stmt) map[string]any {
	switch n.Keyword {
	case StmtExpression:
		return map[string]any{"type": typeExprStmt, "expression": ToMap(n.Expr)}
	case StmtReturn, StmtThrow:
		typ := typeReturn
		if n.Keyword == StmtThrow {
			typ = typeThrow
		}
		m := map[string]any{"type": typ}
		if n.Expr != nil {
			m["argument"] = ToMap(n.Expr)
		}
		return m
	case StmtBlock:
		return map[string]any{"type": typeBlock, "body": listToMaps(n.Body)}
	case StmtVar, StmtLet, StmtConst:
		decls := make([]any, len(n.Decls))
		for i, d := range n.Decls {
			dm := map[string]any{"type": "VariableDeclarator", "id": map[string]any{"type": typeIdentifier, "name": d.Name}}
			if d.Init != nil {
				dm["init"] = ToMap(d.Init)
			}
			decls[i] = dm
		}
		return map[string]any{"type": typeVarDecl, "kind": n.Keyword, "declarations": decls}
	}
	m := map[string]any{"type": n.Keyword, "body": listToMaps(n.Body)}
	if n.Raw != "" {
		m["raw"] = n.Raw
	}
	return m
}

func listToMaps(list []Node) []any {
	out := make([]any, len(list))
	for i, n := range list {
		out[i] = ToMap(n)
	}
	return out
}

func stringsToAny(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// DecodeJSON parses an ESTree-shaped JSON tree, as emitted by Babel or
// acorn, into a Node. Unknown expression types are rejected; unknown types
// whose name ends in Statement or Declaration become a Stmt.
func DecodeJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	return FromMap(m)
}

// EncodeJSON writes n in the JSON tree format with stable key order.
func EncodeJSON(n Node) ([]byte, error) {
	return MarshalCanonical(ToMap(n))
}

// FromMap converts an ESTree-shaped map into a Node.
func FromMap(m map[string]any) (Node, error) {
	typ, _ := m["type"].(string)
	switch typ {
	case "Hole":
		return nil, nil
	case typeIdentifier:
		name := str(m, "name")
		if name == "undefined" {
			return &Lit{Type: LitUndefined, Value: "undefined"}, nil
		}
		return &Ident{Name: name}, nil
	case typeThis:
		return &Lit{Type: LitThis, Value: "this", Raw: "this"}, nil
	case typeLiteral, typeStringLit, typeNumericLit, typeBooleanLit, typeNullLit, typeRegExpLit:
		return litFromMap(typ, m)
	case typeTemplate:
		return templateFromMap(m)
	case typeTagged:
		tag, err := child(m, "tag")
		if err != nil {
			return nil, err
		}
		quasi, err := child(m, "quasi")
		if err != nil {
			return nil, err
		}
		t, ok := quasi.(*Template)
		if !ok {
			return nil, fmt.Errorf("%s: quasi is %s", typeTagged, quasi.Kind())
		}
		t.Tag = tag
		return t, nil
	case typeSpread:
		arg, err := child(m, "argument")
		if err != nil {
			return nil, err
		}
		return &Spread{Argument: arg}, nil
	case typeUpdate:
		arg, err := child(m, "argument")
		if err != nil {
			return nil, err
		}
		return &Update{Op: str(m, "operator"), Prefix: boolean(m, "prefix"), Argument: arg}, nil
	case typeOpaque:
		return opaqueFromMap(m)
	case typeParenthesize, typeChain:
		return child(m, "expression")
	case typeMember, typeOptMember:
		obj, err := child(m, "object")
		if err != nil {
			return nil, err
		}
		prop, err := child(m, "property")
		if err != nil {
			return nil, err
		}
		return &Member{Object: obj, Property: prop, Computed: boolean(m, "computed"), Optional: boolean(m, "optional")}, nil
	case typeBinary, typeLogical:
		left, err := child(m, "left")
		if err != nil {
			return nil, err
		}
		right, err := child(m, "right")
		if err != nil {
			return nil, err
		}
		if typ == typeLogical {
			return &Logical{Op: str(m, "operator"), Left: left, Right: right}, nil
		}
		return &Binary{Op: str(m, "operator"), Left: left, Right: right}, nil
	case typeUnary:
		arg, err := child(m, "argument")
		if err != nil {
			return nil, err
		}
		return &Unary{Op: str(m, "operator"), Argument: arg}, nil
	case typeConditional:
		test, err := child(m, "test")
		if err != nil {
			return nil, err
		}
		cons, err := child(m, "consequent")
		if err != nil {
			return nil, err
		}
		alt, err := child(m, "alternate")
		if err != nil {
			return nil, err
		}
		return &Conditional{Test: test, Consequent: cons, Alternate: alt}, nil
	case typeCall, typeOptCall, typeNew:
		callee, err := child(m, "callee")
		if err != nil {
			return nil, err
		}
		args, err := list(m, "arguments")
		if err != nil {
			return nil, err
		}
		if typ == typeNew {
			return &New{Callee: callee, Args: args}, nil
		}
		return &Call{Callee: callee, Args: args, Optional: boolean(m, "optional")}, nil
	case typeAssign:
		target, err := child(m, "left")
		if err != nil {
			return nil, err
		}
		value, err := child(m, "right")
		if err != nil {
			return nil, err
		}
		op := str(m, "operator")
		if op == "" {
			op = "="
		}
		return &Assign{Op: op, Target: target, Value: value}, nil
	case typeObject:
		return objectFromMap(m)
	case typeArray:
		elems, err := list(m, "elements")
		if err != nil {
			return nil, err
		}
		return &Array{Elems: elems}, nil
	case typeFunction, typeArrow, "FunctionDeclaration":
		return funcFromMap(typ, m)
	case typeSequence:
		exprs, err := list(m, "expressions")
		if err != nil {
			return nil, err
		}
		return &Seq{Exprs: exprs}, nil
	case typeProgram:
		body, err := list(m, "body")
		if err != nil {
			return nil, err
		}
		return &Program{Body: body}, nil
	case typeExprStmt, typeReturn, typeThrow, typeBlock, typeVarDecl:
		return stmtFromMap(typ, m)
	case typePrim:
		args, err := list(m, "arguments")
		if err != nil {
			return nil, err
		}
		return &Prim{Op: str(m, "op"), Args: args}, nil
	case typeClosure:
		body, err := child(m, "body")
		if err != nil {
			return nil, err
		}
		return &Closure{Params: strs(m, "params"), Body: body}, nil
	case typeRef:
		return &Ref{Name: str(m, "name")}, nil
	case typeInvoke:
		recv, err := child(m, "receiver")
		if err != nil {
			return nil, err
		}
		args, err := list(m, "arguments")
		if err != nil {
			return nil, err
		}
		return &Invoke{Receiver: recv, Name: str(m, "name"), Args: args}, nil
	}
	if strings.HasSuffix(typ, "Statement") || strings.HasSuffix(typ, "Declaration") {
		body, _ := list(m, "body")
		return &Stmt{Keyword: typ, Body: body, Raw: str(m, "raw")}, nil
	}
	return nil, fmt.Errorf("unsupported node type %q", typ)
}

func litFromMap(typ string, m map[string]any) (Node, error) {
	raw := str(m, "raw")
	if extra, ok := m["extra"].(map[string]any); ok && raw == "" {
		raw = str(extra, "raw")
	}
	switch v := m["value"].(type) {
	case string:
		return &Lit{Type: LitString, Value: v, Raw: raw}, nil
	case bool:
		val := "false"
		if v {
			val = "true"
		}
		return &Lit{Type: LitBool, Value: val, Raw: val}, nil
	case json.Number:
		if raw == "" {
			raw = v.String()
		}
		return &Lit{Type: LitNumber, Value: raw, Raw: raw}, nil
	case nil:
		if typ == typeRegExpLit || m["regex"] != nil || strings.HasPrefix(raw, "/") {
			return &Lit{Type: LitRegex, Value: raw, Raw: raw}, nil
		}
		if typ == typeNumericLit || (raw != "" && raw != "null") {
			return &Lit{Type: LitNumber, Value: raw, Raw: raw}, nil
		}
		return &Lit{Type: LitNull, Value: "null", Raw: "null"}, nil
	}
	return nil, fmt.Errorf("unsupported literal value %v", m["value"])
}

func objectFromMap(m map[string]any) (Node, error) {
	raw, _ := m["properties"].([]any)
	obj := &Object{Props: make([]*Property, 0, len(raw))}
	for i, r := range raw {
		pm, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("properties[%d]: not an object", i)
		}
		if str(pm, "type") == typeSpread {
			spread, err := FromMap(pm)
			if err != nil {
				return nil, fmt.Errorf("properties[%d]: %w", i, err)
			}
			obj.Props = append(obj.Props, &Property{Value: spread})
			continue
		}
		key, err := child(pm, "key")
		if err != nil {
			return nil, fmt.Errorf("properties[%d]: %w", i, err)
		}
		value, err := child(pm, "value")
		if err != nil {
			return nil, fmt.Errorf("properties[%d]: %w", i, err)
		}
		obj.Props = append(obj.Props, &Property{
			Key:       key,
			Value:     value,
			Computed:  boolean(pm, "computed"),
			Shorthand: boolean(pm, "shorthand"),
		})
	}
	return obj, nil
}

func templateFromMap(m map[string]any) (Node, error) {
	exprs, err := list(m, "expressions")
	if err != nil {
		return nil, err
	}
	t := &Template{Exprs: exprs}
	quasis, _ := m["quasis"].([]any)
	for _, q := range quasis {
		qm, _ := q.(map[string]any)
		value, _ := qm["value"].(map[string]any)
		t.Quasis = append(t.Quasis, str(value, "raw"))
	}
	if len(t.Quasis) != len(t.Exprs)+1 {
		return nil, fmt.Errorf("%s: %d quasis for %d expressions", typeTemplate, len(t.Quasis), len(t.Exprs))
	}
	return t, nil
}

// opaqueFromMap accepts both the parts/holes form and a bare raw text.
func opaqueFromMap(m map[string]any) (Node, error) {
	if _, ok := m["parts"]; !ok {
		return &Opaque{Parts: []string{str(m, "raw")}}, nil
	}
	holes, err := list(m, "holes")
	if err != nil {
		return nil, err
	}
	o := &Opaque{Parts: strs(m, "parts"), Holes: holes}
	if len(o.Parts) != len(o.Holes)+1 {
		return nil, fmt.Errorf("%s: %d parts for %d holes", typeOpaque, len(o.Parts), len(o.Holes))
	}
	return o, nil
}

func funcFromMap(typ string, m map[string]any) (Node, error) {
	body, err := child(m, "body")
	if err != nil {
		return nil, err
	}
	fn := &Func{
		Arrow:      typ == typeArrow,
		Async:      boolean(m, "async"),
		Generator:  boolean(m, "generator"),
		Body:       body,
		ParamsText: str(m, "params_text"),
	}
	if id, ok := m["id"].(map[string]any); ok {
		fn.Name = str(id, "name")
	}
	params, _ := m["params"].([]any)
	for _, p := range params {
		switch p := p.(type) {
		case string:
			fn.Params = append(fn.Params, p)
		case map[string]any:
			if name := str(p, "name"); name != "" {
				fn.Params = append(fn.Params, name)
			}
		}
	}
	if typ == "FunctionDeclaration" {
		return &Stmt{Keyword: "function_declaration", Body: []Node{fn}}, nil
	}
	return fn, nil
}

func stmtFromMap(typ string, m map[string]any) (Node, error) {
	switch typ {
	case typeExprStmt:
		expr, err := child(m, "expression")
		if err != nil {
			return nil, err
		}
		return &Stmt{Keyword: StmtExpression, Expr: expr}, nil
	case typeReturn, typeThrow:
		kw := StmtReturn
		if typ == typeThrow {
			kw = StmtThrow
		}
		s := &Stmt{Keyword: kw}
		if _, ok := m["argument"].(map[string]any); ok {
			arg, err := child(m, "argument")
			if err != nil {
				return nil, err
			}
			s.Expr = arg
		}
		return s, nil
	case typeBlock:
		body, err := list(m, "body")
		if err != nil {
			return nil, err
		}
		return &Stmt{Keyword: StmtBlock, Body: body}, nil
	}
	s := &Stmt{Keyword: str(m, "kind")}
	if s.Keyword == "" {
		s.Keyword = StmtVar
	}
	decls, _ := m["declarations"].([]any)
	for i, d := range decls {
		dm, ok := d.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("declarations[%d]: not an object", i)
		}
		decl := &Declarator{}
		if id, ok := dm["id"].(map[string]any); ok {
			decl.Name = str(id, "name")
		}
		if _, ok := dm["init"].(map[string]any); ok {
			init, err := child(dm, "init")
			if err != nil {
				return nil, fmt.Errorf("declarations[%d]: %w", i, err)
			}
			decl.Init = init
		}
		s.Decls = append(s.Decls, decl)
	}
	return s, nil
}

func child(m map[string]any, key string) (Node, error) {
	cm, ok := m[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: missing %q", str(m, "type"), key)
	}
	n, err := FromMap(cm)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", str(m, "type"), key, err)
	}
	return n, nil
}

func list(m map[string]any, key string) ([]Node, error) {
	raw, _ := m[key].([]any)
	out := make([]Node, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			out = append(out, nil)
			continue
		}
		cm, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s[%d]: not an object", str(m, "type"), key, i)
		}
		n, err := FromMap(cm)
		if err != nil {
			return nil, fmt.Errorf("%s.%s[%d]: %w", str(m, "type"), key, i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strs(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
