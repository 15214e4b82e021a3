package rewrite

import (
	"fmt"
	"strconv"
)

// Hint describes the member access a synthesized name stands for.
type Hint struct {
	// Object is the plain name of the accessed object, or "".
	Object string

	// Property is the plain name of the property, or "".
	Property string

	// Seq is the number of names already synthesized in the current
	// capture. It starts at 0 for every capture.
	Seq int
}

// Namer proposes a name for a captured member access. Proposals need not
// be unique; the capture resolves collisions.
type Namer interface {
	Name(h Hint) string
}

// CounterNamer names captures Prefix0, Prefix1, ... per capture.
type CounterNamer struct {
	Prefix string
}

// DefaultCounterPrefix is the prefix used when CounterNamer.Prefix is empty.
const DefaultCounterPrefix = "_ref"

// Name implements Namer.
func (n CounterNamer) Name(h Hint) string {
	prefix := n.Prefix
	if prefix == "" {
		prefix = DefaultCounterPrefix
	}
	return prefix + strconv.Itoa(h.Seq)
}

// DebugNamer concatenates object and property names (a.b -> "ab"),
// substituting Placeholder for a part without a plain name.
type DebugNamer struct {
	Placeholder string
}

// Name implements Namer.
func (n DebugNamer) Name(h Hint) string {
	ph := n.Placeholder
	if ph == "" {
		ph = "temp"
	}
	obj, prop := h.Object, h.Property
	if obj == "" {
		obj = ph
	}
	if prop == "" {
		prop = ph
	}
	return obj + prop
}

// Naming strategy identifiers accepted by NamerFor.
const (
	NamingCounter = "counter"
	NamingDebug   = "debug"
)

// NamerFor returns the Namer for a strategy identifier.
func NamerFor(strategy, prefix string) (Namer, error) {
	switch strategy {
	case "", NamingCounter:
		return CounterNamer{Prefix: prefix}, nil
	case NamingDebug:
		return DebugNamer{}, nil
	}
	return nil, fmt.Errorf("unknown naming strategy %q", strategy)
}

// nameSet tracks names that a synthesized name must not shadow.
type nameSet map[string]bool

// fresh returns base, or base_1, base_2, ... if base is taken, and marks
// the result taken.
func (s nameSet) fresh(base string) string {
	name := base
	for i := 1; s[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	s[name] = true
	return name
}
