// Package ast defines the expression trees that alkali rewrites.
//
// This package contains tree definitions and tree plumbing only. All other
// internal packages import ast; ast imports nothing internal.
//
// Trees come in two states, encoded in the Go type of each node:
//   - Source form: the ordinary expression kinds (Ident, Member, Binary, ...)
//     plus Stmt for anything that is not an expression.
//   - Target form: nodes implementing Target (Prim, Closure, Ref, Invoke).
//     A target node is already compiled and is never rewritten again.
//
// Key design constraints:
//   - Trees are parent-owned and acyclic; a node appears under one parent only
//   - Non-computed member properties and object keys are names, not references
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for fingerprints
package ast
