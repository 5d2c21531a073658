// Package harness provides conformance testing for ontic contracts.
//
// The harness runs YAML scenarios against a fresh engine.Runtime and checks
// expected results, trace assertions and final registry state. Contracts
// reference scenarios from their operational principles, which makes those
// principles executable.
//
// # Scenario Format
//
//	name: truth_lifecycle
//	description: "What this scenario validates"
//	flow_token: flow-1          # optional, defaults to DefaultFlowToken
//	shared_ids: false           # optional, one id counter for both registries
//	setup:
//	  - call: propose-truth
//	    args: ["seed", 1]
//	flow:
//	  - call: get-truth
//	    args: [0]
//	    expect:
//	      success: true
//	      value: { statement: seed, confidence: 1 }
//	  - call: get-truth
//	    args: [9]
//	    expect: { success: false, kind: not_found, code: 404 }
//	assertions:
//	  - type: trace_contains
//	    method: propose-truth
//	    args: ["seed"]
//	  - type: final_state
//	    record: truth
//	    id: 0
//	    expect: { confidence: 1 }
//
// # Assertion Types
//
//   - trace_contains: a call to method whose args start with args
//   - trace_order: methods first called in the given order
//   - trace_count: exactly count calls to method
//   - final_state: record id exists with the expected fields (subset match)
//   - not_found: record id does not exist
//
// # Deterministic Testing
//
// Each scenario gets its own runtime: a fixed flow token, a clock starting
// at zero and an in-memory journal the trace is read from. Identical
// scenarios therefore produce identical traces, which RunWithGolden compares
// against testdata/golden/<name>.golden.
package harness
