package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: propose_then_get
description: A proposed truth reads back
flow_token: flow-cli-test
flow:
  - call: propose-truth
    args: ["water is wet", 90]
    expect:
      success: true
      value: 0
  - call: get-truth
    args: [0]
    expect:
      success: true
      value: {statement: "water is wet", confidence: 90}
assertions:
  - type: trace_order
    methods: [propose-truth, get-truth]
`

const failingScenario = `
name: wrong_id
description: Expects the wrong id
flow:
  - call: register-reality
    args: ["r"]
    expect:
      success: true
      value: 7
assertions:
  - type: trace_count
    method: register-reality
    count: 1
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTestCommandPasses(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "propose.yaml", passingScenario)

	out, _, err := execute(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ propose_then_get")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFails(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "propose.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yml", failingScenario)

	out, _, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_id")
	assert.Contains(t, out, "expected value 7, got 0")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "propose.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "propose.golden")

	out, _, err := execute(t, "", "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ propose_then_get (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"flow_token":"flow-cli-test"`)
	assert.Contains(t, string(golden), `"scenario_name":"propose_then_get"`)

	// The golden directory is not scanned for scenarios.
	_, _, err = execute(t, "", "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"trace":[]}`), 0644))
	out, _, err = execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "propose.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, "", "test", dir, "--filter", "prop*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")

	out, _, err = execute(t, "", "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid filter pattern")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, _, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingDir(t *testing.T) {
	out, _, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, _, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, _, err := execute(t, "", "--format", "json", "test", dir)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, ErrCodeTestFailed, resp["error"].(map[string]any)["code"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(1), data["failed"])
	assert.Equal(t, float64(1), data["total"])
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "golden", "x.golden"), goldenFilePath(filepath.Join("a", "b", "x.yaml")))
}
