// Package harness runs lowering conformance scenarios.
//
// A scenario names one input, either Python source or a JSON tree dump,
// and a list of assertions about the IR it lowers to. Scenarios are plain
// YAML so that expected shapes can be reviewed without reading Go.
//
// # Scenario Format
//
//	name: elif_ladder
//	description: "An elif chain flattens into one cond"
//	source: |
//	  if a:
//	      f()
//	  elif b:
//	      g()
//	assertions:
//	  - type: head_count
//	    head: cond
//	    count: 1
//	  - type: contains
//	    form: '["b", [["g"]]]'
//
// Exactly one of source and tree is set. A tree path is resolved relative to
// the scenario file. IR in assertions is written as JSON, the same encoding
// ir.UnmarshalIRValue reads, so integers and reals stay distinct.
//
// # Assertion Types
//
//   - ir_equals: the whole IR equals ir
//   - contains: some subtree equals form
//   - head_count: exactly count lists start with the atom head
//   - ir_hash: the canonical IR hashes to hash
//   - dialect: lowering used the named registry
//   - error: lowering fails with code (a lowering error code or SYNTAX_ERROR)
//
// Scenarios without an error assertion fail when lowering fails.
package harness
