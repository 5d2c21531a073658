package harness

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/compiler"
	"github.com/roach88/ontic/internal/ir"
)

// TestGolden_BuiltinScenarios runs the scenarios the built-in contracts
// reference and compares each trace against its golden file.
func TestGolden_BuiltinScenarios(t *testing.T) {
	catalog := newTestCatalog(t)
	sources := compiler.Sources()

	names, err := fs.Glob(sources, "scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		scenario, err := LoadScenarioFS(sources, name)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, catalog, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGolden_TestdataScenarios(t *testing.T) {
	catalog := newTestCatalog(t)

	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, catalog, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Format(t *testing.T) {
	result := NewResult()
	result.FlowToken = "flow-1"
	result.Trace = []TraceEvent{
		{Type: EventCall, Method: "get-truth", Args: ir.List{ir.Int(0)}, Seq: 1},
		{Type: EventOutcome, Case: "NotFound", Result: ir.Object{"code": ir.Int(404), "message": ir.Str("truth 0: record not found")}, Seq: 2},
	}

	data, err := Snapshot("snap", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"flow_token":"flow-1","scenario_name":"snap","trace":[`+
			`{"args":[0],"method":"get-truth","seq":1,"type":"call"},`+
			`{"case":"NotFound","result":{"code":404,"message":"truth 0: record not found"},"seq":2,"type":"outcome"}]}`,
		string(data))
}

func TestSnapshot_EmptyArgsAndResult(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Type: EventCall, Method: "m", Seq: 1},
		{Type: EventOutcome, Case: "Success", Seq: 2},
	}

	data, err := Snapshot("empty", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"empty","trace":[{"args":[],"method":"m","seq":1,"type":"call"},{"case":"Success","result":{},"seq":2,"type":"outcome"}]}`,
		string(data))
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/unknown_method.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), newTestCatalog(t), scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "unknown_method", result))
}
