package rewrite

import "sort"

// operators maps operator symbols to primitive names. It is read-only.
var operators = map[string]string{
	"+":   "add",
	"-":   "subtract",
	"*":   "multiply",
	"/":   "divide",
	"!":   "not",
	"%":   "remainder",
	">":   "greater",
	">=":  "greaterOrEqual",
	"<":   "less",
	"<=":  "lessOrEqual",
	"==":  "looseEqual",
	"===": "equal",
	"&&":  "and",
	"||":  "or",
}

// Operator returns the primitive name for an operator symbol.
func Operator(symbol string) (string, bool) {
	name, ok := operators[symbol]
	return name, ok
}

// OperatorRule is one row of the operator table.
type OperatorRule struct {
	Symbol    string `json:"symbol"`
	Primitive string `json:"primitive"`
}

// Operators returns the operator table sorted by symbol.
func Operators() []OperatorRule {
	rules := make([]OperatorRule, 0, len(operators))
	for sym, name := range operators {
		rules = append(rules, OperatorRule{Symbol: sym, Primitive: name})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Symbol < rules[j].Symbol })
	return rules
}

// Primitives names the non-operator runtime primitives the rewriter emits.
type Primitives struct {
	Entry      string `json:"entry"`       // reactive root entry point
	Read       string `json:"read"`        // property read
	MethodCall string `json:"method_call"` // method call on a raw receiver
	FuncCall   string `json:"func_call"`   // function call, also used by opaque captures
	NewCall    string `json:"new_call"`    // constructor call
	Cond       string `json:"cond"`        // eager conditional
	Put        string `json:"put"`         // container update method
	Object     string `json:"object"`      // object/array literal closure
	Name       string `json:"name"`        // root naming method
}

// DefaultPrimitives are the names used by the alkali runtime.
var DefaultPrimitives = Primitives{
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

// withDefaults fills empty names from DefaultPrimitives.
func (p Primitives) withDefaults() Primitives {
	d := DefaultPrimitives
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.Entry, d.Entry)
	fill(&p.Read, d.Read)
	fill(&p.MethodCall, d.MethodCall)
	fill(&p.FuncCall, d.FuncCall)
	fill(&p.NewCall, d.NewCall)
	fill(&p.Cond, d.Cond)
	fill(&p.Put, d.Put)
	fill(&p.Object, d.Object)
	fill(&p.Name, d.Name)
	return p
}
