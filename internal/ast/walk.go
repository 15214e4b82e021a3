package ast

// Slot names used by Cursor.Slot.
const (
	SlotRoot       = "root"
	SlotObject     = "object"
	SlotProperty   = "property"
	SlotLeft       = "left"
	SlotRight      = "right"
	SlotArgument   = "argument"
	SlotTest       = "test"
	SlotConsequent = "consequent"
	SlotAlternate  = "alternate"
	SlotCallee     = "callee"
	SlotArguments  = "arguments"
	SlotTarget     = "target"
	SlotValue      = "value"
	SlotKey        = "key"
	SlotElements   = "elements"
	SlotBody       = "body"
	SlotExpr       = "expr"
	SlotDecls      = "decls"
	SlotReceiver   = "receiver"
	SlotTag        = "tag"
)

// slot is a named child position with an in-place setter.
type slot struct {
	name  string
	index int
	node  Node
	set   func(Node)
}

// children lists the child slots of n in evaluation order. Nil children
// (array holes, missing initializers) are skipped. Non-computed member
// properties and object keys are included; callers that care about
// references check Cursor.Slot.
func children(n Node) []slot {
	switch n := n.(type) {
	case *Member:
		return []slot{
			{SlotObject, -1, n.Object, func(c Node) { n.Object = c }},
			{SlotProperty, -1, n.Property, func(c Node) { n.Property = c }},
		}
	case *Binary:
		return []slot{
			{SlotLeft, -1, n.Left, func(c Node) { n.Left = c }},
			{SlotRight, -1, n.Right, func(c Node) { n.Right = c }},
		}
	case *Logical:
		return []slot{
			{SlotLeft, -1, n.Left, func(c Node) { n.Left = c }},
			{SlotRight, -1, n.Right, func(c Node) { n.Right = c }},
		}
	case *Unary:
		return []slot{{SlotArgument, -1, n.Argument, func(c Node) { n.Argument = c }}}
	case *Conditional:
		return []slot{
			{SlotTest, -1, n.Test, func(c Node) { n.Test = c }},
			{SlotConsequent, -1, n.Consequent, func(c Node) { n.Consequent = c }},
			{SlotAlternate, -1, n.Alternate, func(c Node) { n.Alternate = c }},
		}
	case *Call:
		return append([]slot{{SlotCallee, -1, n.Callee, func(c Node) { n.Callee = c }}}, listSlots(SlotArguments, n.Args)...)
	case *New:
		return append([]slot{{SlotCallee, -1, n.Callee, func(c Node) { n.Callee = c }}}, listSlots(SlotArguments, n.Args)...)
	case *Assign:
		return []slot{
			{SlotTarget, -1, n.Target, func(c Node) { n.Target = c }},
			{SlotValue, -1, n.Value, func(c Node) { n.Value = c }},
		}
	case *Object:
		var out []slot
		for i, p := range n.Props {
			p := p
			out = append(out, slot{SlotKey, i, p.Key, func(c Node) { p.Key = c }})
			out = append(out, slot{SlotValue, i, p.Value, func(c Node) { p.Value = c }})
		}
		return out
	case *Array:
		return listSlots(SlotElements, n.Elems)
	case *Func:
		return []slot{{SlotBody, -1, n.Body, func(c Node) { n.Body = c }}}
	case *Seq:
		return listSlots(SlotExpr, n.Exprs)
	case *Template:
		return append([]slot{{SlotTag, -1, n.Tag, func(c Node) { n.Tag = c }}}, listSlots(SlotExpr, n.Exprs)...)
	case *Spread:
		return []slot{{SlotArgument, -1, n.Argument, func(c Node) { n.Argument = c }}}
	case *Update:
		return []slot{{SlotArgument, -1, n.Argument, func(c Node) { n.Argument = c }}}
	case *Opaque:
		return listSlots(SlotExpr, n.Holes)
	case *Stmt:
		out := []slot{{SlotExpr, -1, n.Expr, func(c Node) { n.Expr = c }}}
		for i, d := range n.Decls {
			d := d
			out = append(out, slot{SlotDecls, i, d.Init, func(c Node) { d.Init = c }})
		}
		return append(out, listSlots(SlotBody, n.Body)...)
	case *Program:
		return listSlots(SlotBody, n.Body)
	case *Prim:
		return listSlots(SlotArguments, n.Args)
	case *Closure:
		return []slot{{SlotBody, -1, n.Body, func(c Node) { n.Body = c }}}
	case *Invoke:
		return append([]slot{{SlotReceiver, -1, n.Receiver, func(c Node) { n.Receiver = c }}}, listSlots(SlotArguments, n.Args)...)
	}
	return nil
}

func listSlots(name string, list []Node) []slot {
	out := make([]slot, 0, len(list))
	for i := range list {
		i := i
		out = append(out, slot{name, i, list[i], func(c Node) { list[i] = c }})
	}
	return out
}

// Cursor describes the node currently visited by Apply and allows it to
// be replaced in place.
type Cursor struct {
	node   Node
	parent Node
	slot   string
	index  int
	set    func(Node)
}

// Node returns the current node.
func (c *Cursor) Node() Node { return c.node }

// Parent returns the parent of the current node, nil at the root.
func (c *Cursor) Parent() Node { return c.parent }

// Slot returns the named slot the current node occupies in its parent.
func (c *Cursor) Slot() string { return c.slot }

// Index returns the position within a list slot, or -1.
func (c *Cursor) Index() int { return c.index }

// IsName reports whether the current node sits in a name position: a
// non-computed member property or object key. Such identifiers are not
// variable references.
func (c *Cursor) IsName() bool {
	if c.parent == nil {
		return false
	}
	return isNameSlot(c.parent, slot{name: c.slot, index: c.index})
}

// Replace substitutes n for the current node in its parent.
func (c *Cursor) Replace(n Node) {
	c.set(n)
	c.node = n
}

// ApplyFunc is called for each node by Apply.
type ApplyFunc func(*Cursor) bool

// Apply traverses root depth-first. pre is called before a node's children
// are visited; if it returns false the children and post are skipped. post
// is called after the children. Either may be nil. Apply returns the
// possibly replaced root.
func Apply(root Node, pre, post ApplyFunc) Node {
	if root == nil {
		return nil
	}
	holder := root
	c := &Cursor{node: root, slot: SlotRoot, index: -1, set: func(n Node) { holder = n }}
	apply(c, pre, post)
	return holder
}

func apply(c *Cursor, pre, post ApplyFunc) {
	if pre != nil && !pre(c) {
		return
	}
	parent := c.node
	for _, s := range children(parent) {
		if s.node == nil {
			continue
		}
		apply(&Cursor{node: s.node, parent: parent, slot: s.name, index: s.index, set: s.set}, pre, post)
	}
	if post != nil {
		post(c)
	}
}

// Inspect calls f for every node in depth-first order. If f returns false,
// the children of that node are skipped.
func Inspect(root Node, f func(Node) bool) {
	Apply(root, func(c *Cursor) bool { return f(c.Node()) }, nil)
}

// Idents returns the set of every identifier and ref name appearing in
// root, including property names, declarator names and function
// parameters. It over-approximates the names a fresh name must avoid.
func Idents(root Node) map[string]bool {
	names := make(map[string]bool)
	Inspect(root, func(n Node) bool {
		switch n := n.(type) {
		case *Ident:
			names[n.Name] = true
		case *Ref:
			names[n.Name] = true
		case *Func:
			if n.Name != "" {
				names[n.Name] = true
			}
			for _, p := range n.Params {
				names[p] = true
			}
		case *Closure:
			for _, p := range n.Params {
				names[p] = true
			}
		case *Stmt:
			for _, d := range n.Decls {
				names[d.Name] = true
			}
		}
		return true
	})
	return names
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Ident:
		c := *n
		return &c
	case *Lit:
		c := *n
		return &c
	case *Ref:
		c := *n
		return &c
	case *Member:
		return &Member{Object: Clone(n.Object), Property: Clone(n.Property), Computed: n.Computed, Optional: n.Optional}
	case *Binary:
		return &Binary{Op: n.Op, Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Logical:
		return &Logical{Op: n.Op, Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Unary:
		return &Unary{Op: n.Op, Argument: Clone(n.Argument)}
	case *Conditional:
		return &Conditional{Test: Clone(n.Test), Consequent: Clone(n.Consequent), Alternate: Clone(n.Alternate)}
	case *Call:
		return &Call{Callee: Clone(n.Callee), Args: cloneList(n.Args), Optional: n.Optional}
	case *New:
		return &New{Callee: Clone(n.Callee), Args: cloneList(n.Args)}
	case *Assign:
		return &Assign{Op: n.Op, Target: Clone(n.Target), Value: Clone(n.Value)}
	case *Object:
		props := make([]*Property, len(n.Props))
		for i, p := range n.Props {
			props[i] = &Property{Key: Clone(p.Key), Value: Clone(p.Value), Computed: p.Computed, Shorthand: p.Shorthand}
		}
		return &Object{Props: props}
	case *Array:
		return &Array{Elems: cloneList(n.Elems)}
	case *Func:
		c := *n
		c.Params = append([]string(nil), n.Params...)
		c.Body = Clone(n.Body)
		return &c
	case *Seq:
		return &Seq{Exprs: cloneList(n.Exprs)}
	case *Template:
		return &Template{Tag: Clone(n.Tag), Quasis: append([]string(nil), n.Quasis...), Exprs: cloneList(n.Exprs)}
	case *Spread:
		return &Spread{Argument: Clone(n.Argument)}
	case *Update:
		return &Update{Op: n.Op, Prefix: n.Prefix, Argument: Clone(n.Argument)}
	case *Opaque:
		return &Opaque{Parts: append([]string(nil), n.Parts...), Holes: cloneList(n.Holes)}
	case *Stmt:
		c := &Stmt{Keyword: n.Keyword, Expr: Clone(n.Expr), Body: cloneList(n.Body), Raw: n.Raw}
		for _, d := range n.Decls {
			c.Decls = append(c.Decls, &Declarator{Name: d.Name, Init: Clone(d.Init)})
		}
		return c
	case *Program:
		return &Program{Body: cloneList(n.Body)}
	case *Prim:
		return &Prim{Op: n.Op, Args: cloneList(n.Args)}
	case *Closure:
		return &Closure{Params: append([]string(nil), n.Params...), Body: Clone(n.Body)}
	case *Invoke:
		return &Invoke{Receiver: Clone(n.Receiver), Name: n.Name, Args: cloneList(n.Args)}
	}
	return n
}

func cloneList(list []Node) []Node {
	if list == nil {
		return nil
	}
	out := make([]Node, len(list))
	for i, n := range list {
		out[i] = Clone(n)
	}
	return out
}

// MapChildren returns a shallow copy of n whose reference children have
// been replaced by f, visited in evaluation order. Name positions
// (non-computed member properties and object keys) are copied untouched.
// Leaves are returned as is.
func MapChildren(n Node, f func(Node) (Node, error)) (Node, error) {
	cp := shallowCopy(n)
	for _, s := range children(cp) {
		if s.node == nil || isNameSlot(cp, s) {
			continue
		}
		out, err := f(s.node)
		if err != nil {
			return nil, err
		}
		s.set(out)
	}
	return cp, nil
}

func isNameSlot(parent Node, s slot) bool {
	switch p := parent.(type) {
	case *Member:
		return s.name == SlotProperty && !p.Computed
	case *Object:
		return s.name == SlotKey && !p.Props[s.index].Computed
	}
	return false
}

func shallowCopy(n Node) Node {
	switch n := n.(type) {
	case *Member:
		c := *n
		return &c
	case *Binary:
		c := *n
		return &c
	case *Logical:
		c := *n
		return &c
	case *Unary:
		c := *n
		return &c
	case *Conditional:
		c := *n
		return &c
	case *Call:
		return &Call{Callee: n.Callee, Args: append([]Node(nil), n.Args...), Optional: n.Optional}
	case *New:
		return &New{Callee: n.Callee, Args: append([]Node(nil), n.Args...)}
	case *Assign:
		c := *n
		return &c
	case *Object:
		props := make([]*Property, len(n.Props))
		for i, p := range n.Props {
			cp := *p
			props[i] = &cp
		}
		return &Object{Props: props}
	case *Array:
		return &Array{Elems: append([]Node(nil), n.Elems...)}
	case *Func:
		c := *n
		return &c
	case *Seq:
		return &Seq{Exprs: append([]Node(nil), n.Exprs...)}
	case *Template:
		return &Template{Tag: n.Tag, Quasis: n.Quasis, Exprs: append([]Node(nil), n.Exprs...)}
	case *Spread:
		c := *n
		return &c
	case *Update:
		c := *n
		return &c
	case *Opaque:
		return &Opaque{Parts: n.Parts, Holes: append([]Node(nil), n.Holes...)}
	case *Stmt:
		c := *n
		c.Body = append([]Node(nil), n.Body...)
		c.Decls = make([]*Declarator, len(n.Decls))
		for i, d := range n.Decls {
			cd := *d
			c.Decls[i] = &cd
		}
		return &c
	case *Program:
		return &Program{Body: append([]Node(nil), n.Body...)}
	case *Prim:
		return &Prim{Op: n.Op, Args: append([]Node(nil), n.Args...)}
	case *Closure:
		c := *n
		return &c
	case *Invoke:
		return &Invoke{Receiver: n.Receiver, Name: n.Name, Args: append([]Node(nil), n.Args...)}
	}
	return n
}
