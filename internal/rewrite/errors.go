package rewrite

import (
	"errors"
	"fmt"

	"github.com/roach88/alkali/internal/ast"
)

// ErrInvalidReactiveExpression is matched (via errors.Is) by every error
// raised when a statement appears inside a reactive root.
var ErrInvalidReactiveExpression = errors.New("invalid reactive expression")

// ExpressionError reports the statement that made a reactive root invalid.
type ExpressionError struct {
	// Keyword is the statement keyword or parser type (e.g. "return").
	Keyword string

	// Kind is the offending node kind.
	Kind ast.Kind
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("%s: %s statement not allowed in reactive expressions", ErrInvalidReactiveExpression, e.Keyword)
	}
	return fmt.Sprintf("%s: %s not allowed in reactive expressions", ErrInvalidReactiveExpression, e.Kind)
}

// Is makes errors.Is(err, ErrInvalidReactiveExpression) succeed.
func (e *ExpressionError) Is(target error) bool {
	return target == ErrInvalidReactiveExpression
}

func invalid(n ast.Node) error {
	e := &ExpressionError{Kind: n.Kind()}
	if s, ok := n.(*ast.Stmt); ok {
		e.Keyword = s.Keyword
	}
	return e
}

// IsInvalidExpression reports whether err is (or wraps) an invalid
// reactive expression error.
func IsInvalidExpression(err error) bool {
	return errors.Is(err, ErrInvalidReactiveExpression)
}

// RootError wraps the error that aborted detection with the root it came
// from. Index is 1-based in detection order.
type RootError struct {
	Index int
	Call  *ast.Call
	Err   error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("reactive root %d: %v", e.Index, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }
