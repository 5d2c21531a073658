package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario: a flow of calls against a fresh
// runtime, followed by assertions on the trace and the final registries.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FlowToken fixes the flow token. Defaults to DefaultFlowToken.
	FlowToken string `yaml:"flow_token,omitempty"`

	// SharedIDs makes truths and realities draw from one identifier counter.
	SharedIDs bool `yaml:"shared_ids,omitempty"`

	// Setup calls establish initial state. Each must succeed.
	Setup []CallStep `yaml:"setup,omitempty"`

	// Flow is the main sequence of calls, each optionally checked.
	Flow []FlowStep `yaml:"flow"`

	// Assertions run after the flow.
	// Supported types: trace_contains, trace_order, trace_count, final_state, not_found
	Assertions []Assertion `yaml:"assertions"`
}

// CallStep is a single wire call.
type CallStep struct {
	// Call is the wire method name (e.g. "propose-truth").
	Call string `yaml:"call"`

	// Args are the positional arguments.
	Args []any `yaml:"args"`
}

// FlowStep is a call in the main flow.
type FlowStep struct {
	Call string `yaml:"call"`
	Args []any  `yaml:"args"`

	// Expect checks the result. If nil, any result is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause describes the expected result of a call. Only the fields
// given are compared.
type ExpectClause struct {
	Success *bool  `yaml:"success"`
	Value   any    `yaml:"value,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Code    int    `yaml:"code,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the trace or the final registry state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Method is the wire method (trace_contains, trace_count).
	Method string `yaml:"method,omitempty"`

	// Args is a positional prefix the call must match (trace_contains).
	Args []any `yaml:"args,omitempty"`

	// Methods is the expected call order (trace_order).
	Methods []string `yaml:"methods,omitempty"`

	// Count is the exact number of calls (trace_count).
	Count int `yaml:"count,omitempty"`

	// Record is "truth" or "reality" (final_state, not_found).
	Record string `yaml:"record,omitempty"`

	// ID is the record identifier (final_state, not_found).
	ID *int64 `yaml:"id,omitempty"`

	// Expect holds expected record fields, subset match (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertNotFound      = "not_found"
)

// Record names accepted by final_state and not_found.
const (
	RecordTruth   = "truth"
	RecordReality = "reality"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// LoadScenarioFS is LoadScenario for a file inside fsys.
func LoadScenarioFS(fsys fs.FS, name string) (*Scenario, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Call == "" {
			return fmt.Errorf("setup[%d]: call is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("setup[%d]: args is required (use [] if no args)", i)
		}
	}

	for i, step := range s.Flow {
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use [] if no args)", i)
		}
		if step.Expect != nil && step.Expect.Success == nil {
			return fmt.Errorf("flow[%d].expect: success is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Methods) == 0 {
			return fmt.Errorf("assertions[%d]: methods list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState, AssertNotFound:
		if a.Record != RecordTruth && a.Record != RecordReality {
			return fmt.Errorf("assertions[%d]: record must be %q or %q for %s", index, RecordTruth, RecordReality, a.Type)
		}
		if a.ID == nil {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
		if a.Type == AssertFinalState && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
