package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// GoldenDir is where golden trace files live, relative to the test's package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	FlowToken    string       `json:"flow_token,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonical converts the snapshot to an IR object for canonical JSON.
// Call events carry args, method, seq, type; outcome events carry case,
// result, seq, type.
func (s *TraceSnapshot) toCanonical() ir.Object {
	trace := make(ir.List, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.Object{
			"type": ir.Str(event.Type),
			"seq":  ir.Int(event.Seq),
		}
		switch event.Type {
		case EventCall:
			obj["method"] = ir.Str(event.Method)
			args := event.Args
			if args == nil {
				args = ir.List{}
			}
			obj["args"] = args
		case EventOutcome:
			obj["case"] = ir.Str(event.Case)
			result := event.Result
			if result == nil {
				result = ir.Object{}
			}
			obj["result"] = result
		}
		trace[i] = obj
	}

	out := ir.Object{
		"scenario_name": ir.Str(s.ScenarioName),
		"trace":         trace,
	}
	if s.FlowToken != "" {
		out["flow_token"] = ir.Str(s.FlowToken)
	}
	return out
}

// Snapshot renders a result's trace as canonical JSON, the golden file format.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		FlowToken:    result.FlowToken,
		Trace:        result.Trace,
	}
	return ir.MarshalVerbatim(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, catalog *contract.Catalog, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), catalog, scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
