// Package harness runs alkali conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files. Each rewrites either a single expression or a
// whole program and checks the result:
//
//	name: scenario_a_operator
//	description: "binary operator becomes a primitive call"
//	config: |
//	  namespace: ""
//	expression: "num + 5"
//	expect:
//	  output: "add(num, 5)"
//	assertions:
//	  - type: idempotent
//	  - type: equivalent
//	    env: { num: 2 }
//
// config is optional alkali.cue text applied on top of the defaults.
// Exactly one of expression and source is required. expect.error names an
// expected failure instead of an output: "invalid_reactive_expression" or
// "syntax".
//
// # Assertion Types
//
//   - output_contains: output contains value
//   - output_excludes: output does not contain value
//   - idempotent: rewriting the output again leaves it unchanged
//   - equivalent: the input and its rewritten form evaluate to the same
//     value in env (expression scenarios only)
//
// # Deterministic Testing
//
// Scenarios run with a fixed run ID so golden snapshots are byte-stable.
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/a.yaml")
//	result, err := harness.Run(ctx, scenario)
package harness
