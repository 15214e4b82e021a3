package testutil

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/alkali/internal/ast"
)

// Reference evaluator.
//
// Eval computes the value of a tree in either form over a small model of
// JavaScript values. Primitive calls are given snapshot semantics: each
// returns the value its runtime counterpart would currently hold. A source
// tree and its compiled form must evaluate to the same value in the same
// environment.
//
// Values: float64, string, bool, nil (null), Undefined, Object, []any,
// Function and *Cell.

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the evaluator's undefined value.
var Undefined any = undefined{}

// Object is a mutable object value.
type Object map[string]any

// Function is a callable value.
type Function func(this any, args []any) (any, error)

// Cell is a reactive container created by the entry primitive with no
// arguments and written by put.
type Cell struct {
	Value any
}

// ErrEval is wrapped by every evaluation failure.
var ErrEval = errors.New("eval")

func evalErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEval, fmt.Sprintf(format, args...))
}

// Env is a lexical scope.
type Env struct {
	vars   map[string]any
	parent *Env
}

// NewEnv creates a root scope holding vars.
func NewEnv(vars map[string]any) *Env {
	e := &Env{vars: make(map[string]any, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

func (e *Env) child() *Env {
	return &Env{vars: make(map[string]any), parent: e}
}

func (e *Env) lookup(name string) (any, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// assign sets name in the scope defining it, or in the root scope.
func (e *Env) assign(name string, v any) {
	s := e
	for ; s.parent != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			break
		}
	}
	s.vars[name] = v
}

// Value returns the resolved value bound to name, or Undefined.
func (e *Env) Value(name string) any {
	v, ok := e.lookup(name)
	if !ok {
		return Undefined
	}
	return Resolve(v)
}

// Resolve unwraps cells.
func Resolve(v any) any {
	for {
		c, ok := v.(*Cell)
		if !ok {
			return v
		}
		v = c.Value
	}
}

// Runtime names the primitives the evaluator recognizes.
type Runtime struct {
	Entry, Read, MethodCall, FuncCall, NewCall, Cond, Put, Object, Name string
}

// DefaultRuntime matches the rewriter's default primitive names.
var DefaultRuntime = Runtime{
	Entry:      "from",
	Read:       "prop",
	MethodCall: "mcall",
	FuncCall:   "fcall",
	NewCall:    "ncall",
	Cond:       "cond",
	Put:        "put",
	Object:     "obj",
	Name:       "_sN",
}

var operatorSymbols = map[string]string{
	"add":            "+",
	"subtract":       "-",
	"multiply":       "*",
	"divide":         "/",
	"not":            "!",
	"remainder":      "%",
	"greater":        ">",
	"greaterOrEqual": ">=",
	"less":           "<",
	"lessOrEqual":    "<=",
	"looseEqual":     "==",
	"equal":          "===",
	"and":            "&&",
	"or":             "||",
}

// Evaluator evaluates trees against a Runtime.
type Evaluator struct {
	rt Runtime
}

// NewEvaluator creates an evaluator for rt.
func NewEvaluator(rt Runtime) *Evaluator {
	return &Evaluator{rt: rt}
}

// Eval evaluates n in env with the default runtime and resolves the result.
func Eval(n ast.Node, env *Env) (any, error) {
	return NewEvaluator(DefaultRuntime).Eval(n, env)
}

// Eval evaluates n in env and resolves the result.
func (ev *Evaluator) Eval(n ast.Node, env *Env) (any, error) {
	v, err := ev.eval(n, env)
	if err != nil {
		return nil, err
	}
	return Resolve(v), nil
}

func (ev *Evaluator) eval(n ast.Node, env *Env) (any, error) {
	switch n := n.(type) {
	case nil:
		return Undefined, nil
	case *ast.Ident:
		if n.Name == "undefined" {
			return Undefined, nil
		}
		v, ok := env.lookup(n.Name)
		if !ok {
			return nil, evalErr("%s is not defined", n.Name)
		}
		return v, nil
	case *ast.Ref:
		v, ok := env.lookup(n.Name)
		if !ok {
			return nil, evalErr("ref %s is not bound", n.Name)
		}
		return v, nil
	case *ast.Lit:
		return literal(n)
	case *ast.Member, *ast.Call:
		v, short, err := ev.chain(n, env)
		if err != nil {
			return nil, err
		}
		if short {
			return Undefined, nil
		}
		return v, nil
	case *ast.Binary:
		return ev.binary(n.Op, n.Left, n.Right, env)
	case *ast.Logical:
		return ev.binary(n.Op, n.Left, n.Right, env)
	case *ast.Unary:
		v, err := ev.eval(n.Argument, env)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, Resolve(v))
	case *ast.Conditional:
		return ev.conditional(n.Test, n.Consequent, n.Alternate, env)
	case *ast.New:
		fn, err := ev.eval(n.Callee, env)
		if err != nil {
			return nil, err
		}
		args, err := ev.list(n.Args, env)
		if err != nil {
			return nil, err
		}
		return construct(fn, args)
	case *ast.Assign:
		return ev.assign(n, env)
	case *ast.Object:
		return ev.object(n, env)
	case *ast.Array:
		return ev.list(n.Elems, env)
	case *ast.Func:
		return ev.function(n.Params, n.Body, env), nil
	case *ast.Closure:
		return ev.function(n.Params, n.Body, env), nil
	case *ast.Seq:
		var last any = Undefined
		for _, e := range n.Exprs {
			v, err := ev.eval(e, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.Update:
		return ev.update(n, env)
	case *ast.Template:
		return ev.template(n, env)
	case *ast.Prim:
		return ev.prim(n, env)
	case *ast.Invoke:
		return ev.invoke(n, env)
	}
	return nil, evalErr("cannot evaluate %s", n.Kind())
}

// chain evaluates a member access or call and reports whether an
// optional link in its chain short-circuited.
func (ev *Evaluator) chain(n ast.Node, env *Env) (v any, short bool, err error) {
	switch n := n.(type) {
	case *ast.Member:
		obj, short, err := ev.chain(n.Object, env)
		if err != nil || short {
			return nil, short, err
		}
		if n.Optional && nullish(obj) {
			return nil, true, nil
		}
		key, err := ev.key(n, env)
		if err != nil {
			return nil, false, err
		}
		v, err := getProp(obj, key)
		return v, false, err
	case *ast.Call:
		var this any = Undefined
		var fn any
		if m, ok := n.Callee.(*ast.Member); ok {
			obj, short, err := ev.chain(m.Object, env)
			if err != nil || short {
				return nil, short, err
			}
			if m.Optional && nullish(obj) {
				return nil, true, nil
			}
			key, err := ev.key(m, env)
			if err != nil {
				return nil, false, err
			}
			if fn, err = getProp(obj, key); err != nil {
				return nil, false, err
			}
			this = obj
		} else {
			callee, short, err := ev.chain(n.Callee, env)
			if err != nil || short {
				return nil, short, err
			}
			fn = callee
		}
		if n.Optional && nullish(fn) {
			return nil, true, nil
		}
		args, err := ev.list(n.Args, env)
		if err != nil {
			return nil, false, err
		}
		v, err := apply(fn, this, args)
		return v, false, err
	}
	v, err = ev.eval(n, env)
	return v, false, err
}

func nullish(v any) bool {
	switch Resolve(v).(type) {
	case nil, undefined:
		return true
	}
	return false
}

func (ev *Evaluator) update(n *ast.Update, env *Env) (any, error) {
	old, err := ev.eval(n.Argument, env)
	if err != nil {
		return nil, err
	}
	before := toNumber(Resolve(old))
	after := before + 1
	if n.Op == "--" {
		after = before - 1
	}
	switch t := n.Argument.(type) {
	case *ast.Ident:
		env.assign(t.Name, after)
	case *ast.Member:
		obj, err := ev.eval(t.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := ev.key(t, env)
		if err != nil {
			return nil, err
		}
		if err := setProp(obj, key, after); err != nil {
			return nil, err
		}
	default:
		return nil, evalErr("cannot update %s", n.Argument.Kind())
	}
	if n.Prefix {
		return after, nil
	}
	return before, nil
}

// template evaluates an untagged template literal. Quasis are used as is,
// so escapes are not cooked.
func (ev *Evaluator) template(n *ast.Template, env *Env) (any, error) {
	if n.Tag != nil {
		return nil, evalErr("tagged templates are not supported")
	}
	var b strings.Builder
	for i, q := range n.Quasis {
		b.WriteString(q)
		if i < len(n.Exprs) {
			v, err := ev.eval(n.Exprs[i], env)
			if err != nil {
				return nil, err
			}
			b.WriteString(toString(Resolve(v)))
		}
	}
	return b.String(), nil
}

func literal(n *ast.Lit) (any, error) {
	switch n.Type {
	case ast.LitNumber:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, evalErr("bad number %q", n.Value)
		}
		return f, nil
	case ast.LitString:
		return n.Value, nil
	case ast.LitBool:
		return n.Value == "true", nil
	case ast.LitNull:
		return nil, nil
	case ast.LitUndefined:
		return Undefined, nil
	}
	return nil, evalErr("unsupported literal %q", n.Raw)
}

func (ev *Evaluator) key(m *ast.Member, env *Env) (string, error) {
	if !m.Computed {
		return ast.NameOf(m.Property), nil
	}
	v, err := ev.eval(m.Property, env)
	if err != nil {
		return "", err
	}
	return toString(Resolve(v)), nil
}

// list evaluates array elements or arguments, expanding spreads.
func (ev *Evaluator) list(nodes []ast.Node, env *Env) ([]any, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if sp, ok := n.(*ast.Spread); ok {
			v, err := ev.eval(sp.Argument, env)
			if err != nil {
				return nil, err
			}
			items, ok := Resolve(v).([]any)
			if !ok {
				return nil, evalErr("spread of a non-array")
			}
			out = append(out, items...)
			continue
		}
		v, err := ev.eval(n, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ev *Evaluator) binary(op string, left, right ast.Node, env *Env) (any, error) {
	l, err := ev.eval(left, env)
	if err != nil {
		return nil, err
	}
	switch op {
	case "&&":
		if !truthy(l) {
			return l, nil
		}
		return ev.eval(right, env)
	case "||":
		if truthy(l) {
			return l, nil
		}
		return ev.eval(right, env)
	case "??":
		if rl := Resolve(l); rl != nil && rl != Undefined {
			return l, nil
		}
		return ev.eval(right, env)
	}
	r, err := ev.eval(right, env)
	if err != nil {
		return nil, err
	}
	return binop(op, Resolve(l), Resolve(r))
}

func (ev *Evaluator) conditional(test, cons, alt ast.Node, env *Env) (any, error) {
	t, err := ev.eval(test, env)
	if err != nil {
		return nil, err
	}
	if truthy(t) {
		return ev.eval(cons, env)
	}
	return ev.eval(alt, env)
}

func (ev *Evaluator) assign(n *ast.Assign, env *Env) (any, error) {
	var value any
	var err error
	if n.Op == "" || n.Op == "=" {
		value, err = ev.eval(n.Value, env)
	} else {
		value, err = ev.binary(strings.TrimSuffix(n.Op, "="), n.Target, n.Value, env)
	}
	if err != nil {
		return nil, err
	}
	switch t := n.Target.(type) {
	case *ast.Ident:
		env.assign(t.Name, value)
		return value, nil
	case *ast.Member:
		obj, err := ev.eval(t.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := ev.key(t, env)
		if err != nil {
			return nil, err
		}
		return value, setProp(obj, key, value)
	}
	return nil, evalErr("cannot assign to %s", n.Target.Kind())
}

func (ev *Evaluator) object(n *ast.Object, env *Env) (any, error) {
	out := make(Object, len(n.Props))
	for _, p := range n.Props {
		if sp, ok := p.Value.(*ast.Spread); ok && p.Key == nil {
			v, err := ev.eval(sp.Argument, env)
			if err != nil {
				return nil, err
			}
			if src, ok := Resolve(v).(Object); ok {
				for k, val := range src {
					out[k] = val
				}
			}
			continue
		}
		var key string
		switch {
		case p.Computed:
			k, err := ev.eval(p.Key, env)
			if err != nil {
				return nil, err
			}
			key = toString(Resolve(k))
		case ast.NameOf(p.Key) != "":
			key = ast.NameOf(p.Key)
		default:
			lit, ok := p.Key.(*ast.Lit)
			if !ok {
				return nil, evalErr("unsupported object key %s", p.Key.Kind())
			}
			key = lit.Value
		}
		v, err := ev.eval(p.Value, env)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (ev *Evaluator) function(params []string, body ast.Node, env *Env) Function {
	return func(this any, args []any) (any, error) {
		scope := env.child()
		scope.vars["this"] = this
		for i, p := range params {
			if i < len(args) {
				scope.vars[p] = args[i]
			} else {
				scope.vars[p] = Undefined
			}
		}
		if s, ok := body.(*ast.Stmt); ok {
			return ev.block(s, scope)
		}
		return ev.eval(body, scope)
	}
}

// block evaluates a function body consisting of expression statements and
// a final return.
func (ev *Evaluator) block(s *ast.Stmt, env *Env) (any, error) {
	switch s.Keyword {
	case ast.StmtReturn:
		return ev.eval(s.Expr, env)
	case ast.StmtExpression:
		_, err := ev.eval(s.Expr, env)
		return Undefined, err
	case ast.StmtBlock:
		for _, b := range s.Body {
			st, ok := b.(*ast.Stmt)
			if !ok {
				continue
			}
			v, err := ev.block(st, env)
			if err != nil {
				return nil, err
			}
			if st.Keyword == ast.StmtReturn {
				return v, nil
			}
		}
		return Undefined, nil
	}
	return nil, evalErr("unsupported statement %s", s.Keyword)
}

func (ev *Evaluator) prim(n *ast.Prim, env *Env) (any, error) {
	if sym, ok := operatorSymbols[n.Op]; ok {
		switch len(n.Args) {
		case 1:
			v, err := ev.eval(n.Args[0], env)
			if err != nil {
				return nil, err
			}
			return unary(sym, Resolve(v))
		case 2:
			return ev.binary(sym, n.Args[0], n.Args[1], env)
		}
		return nil, evalErr("%s takes 1 or 2 operands, got %d", n.Op, len(n.Args))
	}

	rt := ev.rt
	switch n.Op {
	case rt.Cond:
		if len(n.Args) != 3 {
			return nil, evalErr("%s takes 3 operands", n.Op)
		}
		return ev.conditional(n.Args[0], n.Args[1], n.Args[2], env)
	}

	args, err := ev.list(n.Args, env)
	if err != nil {
		return nil, err
	}
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return Undefined
	}
	switch n.Op {
	case rt.Entry:
		if len(args) == 0 {
			return &Cell{Value: Undefined}, nil
		}
		return args[0], nil
	case rt.Read:
		return getProp(arg(0), toString(Resolve(arg(1))))
	case rt.MethodCall:
		obj := arg(0)
		fn, err := getProp(obj, toString(Resolve(arg(1))))
		if err != nil {
			return nil, err
		}
		return apply(fn, obj, arrayArg(arg(2)))
	case rt.FuncCall, rt.Object:
		return apply(arg(0), Undefined, arrayArg(arg(1)))
	case rt.NewCall:
		return construct(arg(0), arrayArg(arg(1)))
	}
	return nil, evalErr("unknown primitive %s", n.Op)
}

func (ev *Evaluator) invoke(n *ast.Invoke, env *Env) (any, error) {
	args, err := ev.list(n.Args, env)
	if err != nil {
		return nil, err
	}
	switch n.Name {
	case ev.rt.Put:
		if len(args) != 1 {
			return nil, evalErr("%s takes 1 argument", n.Name)
		}
		value := Resolve(args[0])
		// put on a property read writes the property.
		if read, ok := n.Receiver.(*ast.Prim); ok && read.Op == ev.rt.Read && len(read.Args) == 2 {
			obj, err := ev.eval(read.Args[0], env)
			if err != nil {
				return nil, err
			}
			key, err := ev.eval(read.Args[1], env)
			if err != nil {
				return nil, err
			}
			return value, setProp(obj, toString(Resolve(key)), value)
		}
		recv, err := ev.eval(n.Receiver, env)
		if err != nil {
			return nil, err
		}
		cell, ok := recv.(*Cell)
		if !ok {
			return nil, evalErr("%s on a non-container", n.Name)
		}
		cell.Value = value
		return value, nil
	case ev.rt.Name:
		return ev.eval(n.Receiver, env)
	}
	recv, err := ev.eval(n.Receiver, env)
	if err != nil {
		return nil, err
	}
	fn, err := getProp(recv, n.Name)
	if err != nil {
		return nil, err
	}
	return apply(fn, recv, args)
}

func arrayArg(v any) []any {
	if a, ok := Resolve(v).([]any); ok {
		return a
	}
	return nil
}

func apply(fn, this any, args []any) (any, error) {
	f, ok := Resolve(fn).(Function)
	if !ok {
		return nil, evalErr("%v is not a function", fn)
	}
	return f(this, args)
}

func construct(fn any, args []any) (any, error) {
	this := Object{}
	v, err := apply(fn, this, args)
	if err != nil {
		return nil, err
	}
	if o, ok := Resolve(v).(Object); ok {
		return o, nil
	}
	return this, nil
}

func getProp(obj any, key string) (any, error) {
	if c, ok := obj.(*Cell); ok {
		if key == DefaultRuntime.Put {
			return Function(func(_ any, args []any) (any, error) {
				if len(args) > 0 {
					c.Value = Resolve(args[0])
				}
				return c, nil
			}), nil
		}
		obj = Resolve(c)
	}
	switch o := obj.(type) {
	case nil, undefined:
		return nil, evalErr("cannot read property %q of %v", key, toString(obj))
	case Object:
		if v, ok := o[key]; ok {
			return v, nil
		}
	case []any:
		if key == "length" {
			return float64(len(o)), nil
		}
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(o) {
			return o[i], nil
		}
	case string:
		if key == "length" {
			return float64(len([]rune(o))), nil
		}
	}
	return Undefined, nil
}

func setProp(obj any, key string, v any) error {
	switch o := Resolve(obj).(type) {
	case Object:
		o[key] = v
		return nil
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(o) {
			return evalErr("array index %q out of range", key)
		}
		o[i] = v
		return nil
	}
	return evalErr("cannot set property %q of %v", key, toString(obj))
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	}
	return true
}

func toNumber(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case nil:
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func toString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if math.IsNaN(v) {
			return "NaN"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			if e != nil && e != Undefined {
				parts[i] = toString(e)
			}
		}
		return strings.Join(parts, ",")
	case Object:
		return "[object Object]"
	case Function:
		return "function"
	}
	return fmt.Sprint(v)
}

func unary(op string, v any) (any, error) {
	switch op {
	case "!":
		return !truthy(v), nil
	case "-":
		return -toNumber(v), nil
	case "+":
		return toNumber(v), nil
	case "typeof":
		switch v.(type) {
		case nil, Object, []any:
			return "object", nil
		case undefined:
			return "undefined", nil
		case float64:
			return "number", nil
		case string:
			return "string", nil
		case bool:
			return "boolean", nil
		case Function:
			return "function", nil
		}
	case "void":
		return Undefined, nil
	}
	return nil, evalErr("unsupported unary operator %s", op)
}

func binop(op string, l, r any) (any, error) {
	switch op {
	case "+":
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return toString(l) + toString(r), nil
		}
		return toNumber(l) + toNumber(r), nil
	case "-":
		return toNumber(l) - toNumber(r), nil
	case "*":
		return toNumber(l) * toNumber(r), nil
	case "/":
		return toNumber(l) / toNumber(r), nil
	case "%":
		return math.Mod(toNumber(l), toNumber(r)), nil
	case "**":
		return math.Pow(toNumber(l), toNumber(r)), nil
	case "<", ">", "<=", ">=":
		return compare(op, l, r), nil
	case "===":
		return strictEqual(l, r), nil
	case "!==":
		return !strictEqual(l, r), nil
	case "==":
		return looseEqual(l, r), nil
	case "!=":
		return !looseEqual(l, r), nil
	}
	return nil, evalErr("unsupported binary operator %s", op)
}

func compare(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		}
		return ls >= rs
	}
	a, b := toNumber(l), toNumber(r)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	}
	return a >= b
}

func strictEqual(l, r any) bool {
	switch l := l.(type) {
	case nil, undefined, float64, string, bool:
		return l == r
	}
	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)
	if lv.Kind() != rv.Kind() {
		return false
	}
	switch lv.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer:
		return lv.Pointer() == rv.Pointer()
	case reflect.Slice:
		return lv.Pointer() == rv.Pointer() && lv.Len() == rv.Len()
	}
	return false
}

func looseEqual(l, r any) bool {
	nullish := func(v any) bool { return v == nil || v == Undefined }
	if nullish(l) || nullish(r) {
		return nullish(l) && nullish(r)
	}
	switch l.(type) {
	case float64, string, bool:
		switch r.(type) {
		case float64, string, bool:
			if ls, ok := l.(string); ok {
				if rs, ok := r.(string); ok {
					return ls == rs
				}
			}
			return toNumber(l) == toNumber(r)
		}
	}
	return strictEqual(l, r)
}
