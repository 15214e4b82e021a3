// Package rewrite turns reactive expressions into trees of runtime
// primitive calls.
//
// The package has three parts:
//   - Rewriter.Rewrite dispatches on node kind. A kind with a rule becomes a
//     primitive call over recursively rewritten children; anything else is
//     handed to an opaque capture.
//   - The opaque capture scans a subtree for free variables, turns nested
//     member accesses into rewritten reads bound to synthesized names, and
//     wraps the subtree in a closure invoked with those values.
//   - Rewriter.Detect finds reactive roots (calls to the marker name with at
//     least one argument) in an ambient tree and rewrites their arguments
//     in place.
//
// Nodes in target form (ast.Target) are never rewritten again, so
// Rewrite(Rewrite(n)) returns the first result unchanged.
//
// A statement anywhere inside a reactive root aborts that root with an
// error matching ErrInvalidReactiveExpression.
package rewrite
