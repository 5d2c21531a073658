package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/compiler"
)

func TestLoadContractsBuiltin(t *testing.T) {
	c, err := LoadContracts("")
	require.NoError(t, err)
	assert.Equal(t, "built-in", c.Name())
	assert.Len(t, c.Specs, 2)
	assert.NotEmpty(t, c.Hash)

	hash, err := compiler.DefaultHash()
	require.NoError(t, err)
	assert.Equal(t, hash, c.Hash)

	_, _, ok := c.Catalog.Lookup("propose-truth")
	assert.True(t, ok)
}

func TestLoadContractsDirMatchesBuiltin(t *testing.T) {
	dir := copyBuiltinContracts(t)

	c, err := LoadContracts(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, c.Name())

	builtin, err := LoadContracts("")
	require.NoError(t, err)
	assert.Equal(t, builtin.Hash, c.Hash)
}

func TestLoadContractsErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "truth.cue")
	require.NoError(t, os.WriteFile(file, []byte("contract: {}"), 0644))

	tests := []struct {
		name     string
		dir      string
		wantCode string
	}{
		{"missing directory", "/nonexistent/contracts", ErrCodeNotFound},
		{"file not directory", file, ErrCodeNotFound},
		{"no cue files", t.TempDir(), ErrCodeNoFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadContracts(tt.dir)
			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.wantCode, loadErr.Code)
		})
	}
}

func TestLoadContractsSyntaxErrorHasPosition(t *testing.T) {
	dir := t.TempDir()
	writeContract(t, dir, "bad.cue", "contract: {\n")

	_, err := LoadContracts(dir)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
	assert.True(t, loadErr.Pos.IsValid())
	assert.NotNil(t, posDetails(loadErr))
}

func TestMapCompileErrorToCode(t *testing.T) {
	tests := []struct {
		err  compiler.CompileError
		want string
	}{
		{compiler.CompileError{Field: "purpose"}, compiler.ErrContractPurposeEmpty},
		{compiler.CompileError{Field: "method"}, compiler.ErrContractNoMethods},
		{compiler.CompileError{Field: "cue"}, ErrCodeBuildFailed},
		{compiler.CompileError{Field: "contract"}, ErrCodeLoadFailed},
		{compiler.CompileError{Field: "method.get.call"}, compiler.ErrMissingWireName},
		{compiler.CompileError{Field: "method.get.outputs"}, compiler.ErrMethodNoOutputs},
		{compiler.CompileError{Field: "method.get.args", Message: "float is not supported"}, compiler.ErrFloatTypeForbidden},
		{compiler.CompileError{Field: "record.Truth.fields"}, compiler.ErrInvalidFieldType},
		{compiler.CompileError{Field: "other"}, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.err.Field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCompileErrorToCode(&tt.err))
		})
	}
}

func TestLoadErrorString(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
}
