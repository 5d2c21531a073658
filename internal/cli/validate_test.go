package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/compiler"
)

// copyBuiltinContracts writes the built-in contracts and their scenarios to
// a temp directory and returns it.
func copyBuiltinContracts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := compiler.Sources()
	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	require.NoError(t, err)
	return dir
}

func writeContract(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestValidateBuiltin(t *testing.T) {
	out, _, err := execute(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All contracts valid (built-in)")
	assert.Contains(t, out, "4/4 principle scenario(s) passed")
}

func TestValidateCopiedContracts(t *testing.T) {
	dir := copyBuiltinContracts(t)

	out, _, err := execute(t, "", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All contracts valid ("+dir+")")
	assert.Contains(t, out, "4/4 principle scenario(s) passed")
}

func TestValidateUsesContractsFlag(t *testing.T) {
	dir := copyBuiltinContracts(t)

	out, _, err := execute(t, "", "validate", "--contracts", dir, "--skip-principles")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All contracts valid ("+dir+")")
	assert.NotContains(t, out, "principle scenario")
}

func TestValidateMissingScenario(t *testing.T) {
	dir := copyBuiltinContracts(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "scenarios")))

	out, _, err := execute(t, "", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodePrincipleFailed)

	_, _, err = execute(t, "", "validate", dir, "--skip-principles")
	require.NoError(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		wantCode string
	}{
		{
			name: "missing purpose",
			contract: `
contract: Bad: {
	method: foo: {
		call: "foo"
		outputs: [{ case: "Success", fields: {} }]
	}
}
`,
			wantCode: compiler.ErrContractPurposeEmpty,
		},
		{
			name:     "syntax error",
			contract: `contract: {`,
			wantCode: ErrCodeBuildFailed,
		},
		{
			name:     "method with no runtime operation",
			contract: `contract: A: { purpose: "a", method: m: { call: "a", outputs: [{case: "Success", fields: {}}] } }`,
			wantCode: ErrCodeBindFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeContract(t, dir, "bad.cue", tt.contract)

			out, _, err := execute(t, "", "validate", dir)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.wantCode)
		})
	}
}

func TestValidateJSONErrors(t *testing.T) {
	dir := t.TempDir()
	writeContract(t, dir, "bad.cue", `contract: A: { purpose: "a", method: m: { call: "a", outputs: [{case: "Success", fields: {}}] } }`)

	out, _, err := execute(t, "", "--format", "json", "validate", dir)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, ErrCodeBindFailed, resp["error"].(map[string]any)["code"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Len(t, data["errors"], 1)
}

func TestValidateSourceErrors(t *testing.T) {
	empty := t.TempDir()

	tests := []struct {
		name     string
		dir      string
		wantCode string
	}{
		{"missing directory", "/nonexistent/contracts", ErrCodeNotFound},
		{"no cue files", empty, ErrCodeNoFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", "validate", tt.dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantCode)
		})
	}
}

func TestValidateJSONSuccess(t *testing.T) {
	out, _, err := execute(t, "", "--format", "json", "validate")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, true, data["valid"])
	principles := data["principles"].(map[string]any)
	assert.Equal(t, float64(4), principles["passed"])
	assert.Equal(t, float64(0), principles["failed"])
}
