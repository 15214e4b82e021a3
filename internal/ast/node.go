package ast

// Kind identifies the variant of a Node.
type Kind int

const (
	KindInvalid Kind = iota
	KindIdent
	KindLit
	KindMember
	KindBinary
	KindUnary
	KindLogical
	KindConditional
	KindCall
	KindNew
	KindAssign
	KindObject
	KindArray
	KindFunc
	KindSeq
	KindTemplate
	KindSpread
	KindUpdate
	KindOpaque
	KindStmt
	KindProgram

	// Target (compiled) kinds.
	KindPrim
	KindClosure
	KindRef
	KindInvoke
)

var kindNames = map[Kind]string{
	KindInvalid:     "Invalid",
	KindIdent:       "Identifier",
	KindLit:         "Literal",
	KindMember:      "MemberAccess",
	KindBinary:      "BinaryOp",
	KindUnary:       "UnaryOp",
	KindLogical:     "LogicalOp",
	KindConditional: "Conditional",
	KindCall:        "Call",
	KindNew:         "Construct",
	KindAssign:      "Assignment",
	KindObject:      "ObjectLiteral",
	KindArray:       "ArrayLiteral",
	KindFunc:        "FunctionLiteral",
	KindSeq:         "Sequence",
	KindTemplate:    "TemplateLiteral",
	KindSpread:      "Spread",
	KindUpdate:      "UpdateOp",
	KindOpaque:      "Opaque",
	KindStmt:        "Statement",
	KindProgram:     "Program",
	KindPrim:        "Primitive",
	KindClosure:     "Closure",
	KindRef:         "Ref",
	KindInvoke:      "Invoke",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Invalid"
}

// Node is a sealed interface over every tree variant.
type Node interface {
	Kind() Kind
	node()
}

// Target is implemented by nodes in compiled (primitive-call) form.
// Rewriting a Target always returns it unchanged.
type Target interface {
	Node
	target()
}

// IsCompiled reports whether n is in target form.
func IsCompiled(n Node) bool {
	_, ok := n.(Target)
	return ok
}

// LitType distinguishes literal flavours. Raw source text is kept on the
// node so printing reproduces the original spelling.
type LitType int

const (
	LitNumber LitType = iota
	LitString
	LitBool
	LitNull
	LitUndefined
	LitThis
	LitRegex
)

// Ident is a variable reference or a property/key name.
type Ident struct {
	Name string
}

// Lit is a literal value. Value holds the cooked string content for
// LitString; Raw holds the source spelling when the literal came from a parser.
type Lit struct {
	Type  LitType
	Value string
	Raw   string
}

// Member is a property access. Non-computed properties are *Ident names.
// Optional marks the a?.b form.
type Member struct {
	Object   Node
	Property Node
	Computed bool
	Optional bool
}

// Binary is an arithmetic, comparison or bitwise operator application.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

// Unary is a prefix operator application (!, -, +, typeof, ...).
type Unary struct {
	Op       string
	Argument Node
}

// Logical is a short-circuit operator application (&&, ||, ??).
type Logical struct {
	Op    string
	Left  Node
	Right Node
}

// Conditional is test ? consequent : alternate.
type Conditional struct {
	Test       Node
	Consequent Node
	Alternate  Node
}

// Call is a function or method invocation. Optional marks the f?.() form.
type Call struct {
	Callee   Node
	Args     []Node
	Optional bool
}

// New is a constructor invocation.
type New struct {
	Callee Node
	Args   []Node
}

// Assign is an assignment; Op is "=" or a compound operator such as "+=".
type Assign struct {
	Op     string
	Target Node
	Value  Node
}

// Property is one entry of an object literal.
type Property struct {
	Key       Node
	Value     Node
	Computed  bool
	Shorthand bool
}

// Object is an object literal with properties in source order.
type Object struct {
	Props []*Property
}

// Array is an array literal. A nil element is a hole.
type Array struct {
	Elems []Node
}

// Func is a function or arrow function literal. Params lists the names the
// function binds; ParamsText keeps the original parameter list when it
// contains patterns or defaults. Body is an expression for concise arrows
// and a block *Stmt otherwise.
type Func struct {
	Name       string
	Params     []string
	ParamsText string
	Body       Node
	Arrow      bool
	Async      bool
	Generator  bool
}

// Seq is a comma expression.
type Seq struct {
	Exprs []Node
}

// Template is a template literal. Quasis holds the raw text between
// substitutions, so len(Quasis) == len(Exprs)+1. Tag is set for tagged
// templates.
type Template struct {
	Tag    Node
	Quasis []string
	Exprs  []Node
}

// Spread is ...Argument inside an array literal, an argument list or an
// object literal. In an object literal it is a Property value with a nil
// Key.
type Spread struct {
	Argument Node
}

// Update is ++ or -- applied to an identifier or member.
type Update struct {
	Op       string
	Prefix   bool
	Argument Node
}

// Opaque is a construct with no structural form (classes, yield, await,
// private names). Its source text is kept as Parts interleaved with the
// expression Holes found inside it: Parts[0] Holes[0] Parts[1] ... so
// len(Parts) == len(Holes)+1. Holes are converted normally, which keeps
// the references inside an opaque construct visible to traversals.
type Opaque struct {
	Parts []string
	Holes []Node
}

// Statement keywords with a structural representation. Any other statement
// keeps its parser type name as Keyword and its source text in Raw.
const (
	StmtExpression = "expression"
	StmtReturn     = "return"
	StmtThrow      = "throw"
	StmtBlock      = "block"
	StmtVar        = "var"
	StmtLet        = "let"
	StmtConst      = "const"
)

// Declarator is one binding of a var/let/const statement.
type Declarator struct {
	Name string
	Init Node
}

// Stmt is any statement. Expression statements, returns, throws, blocks
// and declarations are structural; other statements keep their children in
// Body for traversal and their source text in Raw for printing.
type Stmt struct {
	Keyword string
	Expr    Node
	Decls   []*Declarator
	Body    []Node
	Raw     string
}

// Program is the ambient tree handed to the entry detector.
type Program struct {
	Body []Node
}

// Prim is a call to the runtime primitive Op.
type Prim struct {
	Op   string
	Args []Node
}

// Closure is an arrow function literal produced by the rewriter.
type Closure struct {
	Params []string
	Body   Node
}

// Ref is a reference to a name synthesized by the rewriter.
type Ref struct {
	Name string
}

// Invoke calls method Name on Receiver; used for put and root naming.
type Invoke struct {
	Receiver Node
	Name     string
	Args     []Node
}

func (*Ident) Kind() Kind       { return KindIdent }
func (*Lit) Kind() Kind         { return KindLit }
func (*Member) Kind() Kind      { return KindMember }
func (*Binary) Kind() Kind      { return KindBinary }
func (*Unary) Kind() Kind       { return KindUnary }
func (*Logical) Kind() Kind     { return KindLogical }
func (*Conditional) Kind() Kind { return KindConditional }
func (*Call) Kind() Kind        { return KindCall }
func (*New) Kind() Kind         { return KindNew }
func (*Assign) Kind() Kind      { return KindAssign }
func (*Object) Kind() Kind      { return KindObject }
func (*Array) Kind() Kind       { return KindArray }
func (*Func) Kind() Kind        { return KindFunc }
func (*Seq) Kind() Kind         { return KindSeq }
func (*Template) Kind() Kind    { return KindTemplate }
func (*Spread) Kind() Kind      { return KindSpread }
func (*Update) Kind() Kind      { return KindUpdate }
func (*Opaque) Kind() Kind      { return KindOpaque }
func (*Stmt) Kind() Kind        { return KindStmt }
func (*Program) Kind() Kind     { return KindProgram }
func (*Prim) Kind() Kind        { return KindPrim }
func (*Closure) Kind() Kind     { return KindClosure }
func (*Ref) Kind() Kind         { return KindRef }
func (*Invoke) Kind() Kind      { return KindInvoke }

func (*Ident) node()       {}
func (*Lit) node()         {}
func (*Member) node()      {}
func (*Binary) node()      {}
func (*Unary) node()       {}
func (*Logical) node()     {}
func (*Conditional) node() {}
func (*Call) node()        {}
func (*New) node()         {}
func (*Assign) node()      {}
func (*Object) node()      {}
func (*Array) node()       {}
func (*Func) node()        {}
func (*Seq) node()         {}
func (*Template) node()    {}
func (*Spread) node()      {}
func (*Update) node()      {}
func (*Opaque) node()      {}
func (*Stmt) node()        {}
func (*Program) node()     {}
func (*Prim) node()        {}
func (*Closure) node()     {}
func (*Ref) node()         {}
func (*Invoke) node()      {}

func (*Prim) target()    {}
func (*Closure) target() {}
func (*Ref) target()     {}
func (*Invoke) target()  {}

// NewIdent creates an identifier.
func NewIdent(name string) *Ident {
	return &Ident{Name: name}
}

// NewString creates a string literal with cooked value s.
func NewString(s string) *Lit {
	return &Lit{Type: LitString, Value: s}
}

// NewNumber creates a numeric literal from its source spelling.
func NewNumber(raw string) *Lit {
	return &Lit{Type: LitNumber, Value: raw, Raw: raw}
}

// NameOf returns the plain name of an identifier-like node, or "".
func NameOf(n Node) string {
	switch n := n.(type) {
	case *Ident:
		return n.Name
	case *Ref:
		return n.Name
	}
	return ""
}

// PropertyName returns the static name of a member property: the identifier
// name when non-computed, the string value of a computed string literal,
// and "" otherwise.
func PropertyName(m *Member) string {
	if !m.Computed {
		return NameOf(m.Property)
	}
	if lit, ok := m.Property.(*Lit); ok && lit.Type == LitString {
		return lit.Value
	}
	return ""
}

// OptionalChain reports whether n belongs to an optional chain: n or a
// member or call it is applied to, down the object and callee links, is
// marked Optional. A short-circuit anywhere in the chain skips all of it.
func OptionalChain(n Node) bool {
	for {
		switch m := n.(type) {
		case *Member:
			if m.Optional {
				return true
			}
			n = m.Object
		case *Call:
			if m.Optional {
				return true
			}
			n = m.Callee
		default:
			return false
		}
	}
}
