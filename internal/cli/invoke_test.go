package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/ir"
)

func TestInvokeProposeTruth(t *testing.T) {
	out, _, err := execute(t, "", "invoke", "propose-truth", "water is wet", "90")
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":0}`+"\n", out)
}

func TestInvokeFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not found", []string{"invoke", "get-truth", "5"}, `{"error":404,"success":false}`},
		{"unknown method", []string{"invoke", "delete-truth", "1"}, `{"error":"Unknown method","success":false}`},
		{"unparsed int", []string{"invoke", "get-truth", "abc"}, `{"error":400,"success":false}`},
		{"too few args", []string{"invoke", "propose-truth", "only statement"}, `{"error":400,"success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.True(t, IsReported(err))
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestInvokeJournalContinuesIDs(t *testing.T) {
	db := tempDB(t)

	out, _, err := execute(t, "", "invoke", "propose-truth", "a", "10", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":0}`+"\n", out)

	out, _, err = execute(t, "", "invoke", "propose-truth", "b", "20", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":1}`+"\n", out)

	out, _, err = execute(t, "", "invoke", "get-truth", "1", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":{"confidence":20,"statement":"b"}}`+"\n", out)
}

func TestInvokeWithoutJournalForgets(t *testing.T) {
	_, _, err := execute(t, "", "invoke", "register-reality", "gone")
	require.NoError(t, err)

	out, _, err := execute(t, "", "invoke", "get-reality", "0")
	require.Error(t, err)
	assert.Equal(t, `{"error":404,"success":false}`+"\n", out)
}

func TestInvokeSharedIDs(t *testing.T) {
	db := tempDB(t)

	_, _, err := execute(t, "", "invoke", "propose-truth", "t", "1", "--db", db, "--shared-ids")
	require.NoError(t, err)

	out, _, err := execute(t, "", "invoke", "register-reality", "r", "--db", db, "--shared-ids")
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":1}`+"\n", out)
}

func TestInvokeJSONArgs(t *testing.T) {
	out, _, err := execute(t, "", "invoke", "propose-truth", "--json", `["sky is blue", 80]`)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":0}`+"\n", out)
}

func TestInvokeJSONArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not an array", []string{"invoke", "get-truth", "--json", `{"id": 0}`}, "expected an array, got object"},
		{"null arg", []string{"invoke", "get-truth", "--json", `[null]`}, "null is not allowed"},
		{"float arg", []string{"invoke", "get-truth", "--json", `[1.5]`}, "floats are not supported"},
		{"both forms", []string{"invoke", "get-truth", "0", "--json", `[0]`}, "either positional arguments or --json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, ErrCodeBadArgs)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestInvokeJSONFormat(t *testing.T) {
	out, _, err := execute(t, "", "--format", "json", "invoke", "propose-truth", "a", "1")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "propose-truth", data["method"])
	assert.Equal(t, float64(1), data["seq"])
	assert.NotEmpty(t, data["flow_token"])
	assert.Equal(t, map[string]any{"success": true, "value": float64(0)}, data["result"])
}

func TestInvokeJSONFormatFailure(t *testing.T) {
	out, _, err := execute(t, "", "--format", "json", "invoke", "unify-reality", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "not_found", errObj["code"])
	assert.Equal(t, "reality 3: record not found", errObj["message"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, map[string]any{"success": false, "error": float64(404)}, data["result"])
}

func TestInvokeBadContractsDir(t *testing.T) {
	out, _, err := execute(t, "", "invoke", "get-truth", "0", "--contracts", "/nonexistent/contracts")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		typ  string
		in   string
		want ir.Value
	}{
		{ir.TypeInt, "42", ir.Int(42)},
		{ir.TypeInt, "-7", ir.Int(-7)},
		{ir.TypeInt, "4.2", ir.Str("4.2")},
		{ir.TypeBool, "true", ir.Bool(true)},
		{ir.TypeBool, "maybe", ir.Str("maybe")},
		{ir.TypeString, "90", ir.Str("90")},
		{ir.TypeArray, `[1,"a"]`, ir.List{ir.Int(1), ir.Str("a")}},
		{ir.TypeArray, `{"a":1}`, ir.Str(`{"a":1}`)},
		{ir.TypeObject, `{"a":true}`, ir.Object{"a": ir.Bool(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArg(tt.typ, tt.in))
		})
	}
}

func TestParseCallArgs_ExtraArgsAreStrings(t *testing.T) {
	c, err := LoadContracts("")
	require.NoError(t, err)

	args, err := parseCallArgs(c.Catalog, "get-truth", []string{"1", "2"}, "")
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.Int(1), ir.Str("2")}, args)

	args, err = parseCallArgs(c.Catalog, "no-such-method", []string{"1"}, "")
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.Str("1")}, args)
}

func TestInvokeNegativeArgument(t *testing.T) {
	out, _, err := execute(t, "", "invoke", "--", "get-truth", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, `{"error":404,"success":false}`+"\n", out)

	db := tempDB(t)
	out, _, err = execute(t, "", "invoke", "--db", db, "--", "propose-truth", "cold", "-5")
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":0}`+"\n", out)
	out, _, err = execute(t, "", "invoke", "get-truth", "0", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":{"confidence":-5,"statement":"cold"}}`+"\n", out)

	_, _, err = execute(t, "", "invoke", "get-truth", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "pass it after --")
	assert.Contains(t, err.Error(), "ontic invoke -- get-truth -1")
}

func TestInvokeRefusesOtherIDMode(t *testing.T) {
	db := tempDB(t)

	_, _, err := execute(t, "", "invoke", "propose-truth", "t", "1", "--db", db, "--shared-ids")
	require.NoError(t, err)

	out, _, err := execute(t, "", "invoke", "register-reality", "r", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeDatabase)
	assert.Contains(t, out, "recorded with shared ids but this session uses separate ids")

	_, _, err = execute(t, "", "run", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, _, err = execute(t, "", "replay", "--db", db)
	require.Error(t, err)
	assert.Contains(t, out, "recorded with shared ids")

	// The refused sessions appended nothing.
	out, _, err = execute(t, "", "invoke", "register-reality", "r", "--db", db, "--shared-ids")
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"value":1}`+"\n", out)
	out, _, err = execute(t, "", "replay", "--db", db, "--shared-ids")
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 call(s)")
}
