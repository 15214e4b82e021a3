package jsparse

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError reports the first unparseable region of a source file.
// Line and Column are 1-based.
type SyntaxError struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Near   string `json:"near"`
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Line, e.Column, e.Near)
}

const maxNear = 40

func syntaxError(root *sitter.Node, src []byte) *SyntaxError {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	p := bad.StartPoint()
	near := bad.Content(src)
	if bad.IsMissing() {
		near = "missing " + bad.Type()
	}
	if len(near) > maxNear {
		near = near[:maxNear] + "..."
	}
	return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Near: near}
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
