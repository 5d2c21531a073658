package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSig() MethodSig {
	return MethodSig{
		Name: "proposeTruth",
		Call: "propose-truth",
		Args: []NamedArg{{Name: "statement", Type: TypeString}, {Name: "confidence", Type: TypeInt}},
		Outputs: []OutputCase{
			{Case: "Success", Fields: map[string]string{"id": TypeInt}},
		},
	}
}

func TestMethodSigValidate(t *testing.T) {
	sig := validSig()
	assert.Empty(t, sig.Validate())
}

func TestMethodSigValidateCollectsAll(t *testing.T) {
	sig := validSig()
	sig.Call = ""
	sig.Args = append(sig.Args, NamedArg{Name: "statement", Type: "float"})
	sig.Outputs = []OutputCase{{Case: "NotFound", Fields: map[string]string{"code": "decimal"}}}

	errs := sig.Validate()
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}

	assert.Contains(t, fields, "call")
	assert.Contains(t, fields, "args[2]")
	assert.Contains(t, fields, "args[2].type")
	assert.Contains(t, fields, "outputs[0].fields.code")
	assert.Contains(t, fields, "outputs")
}

func TestMethodSigValidateNoOutputs(t *testing.T) {
	sig := validSig()
	sig.Outputs = nil
	errs := sig.Validate()
	assert.Len(t, errs, 1)
	assert.Equal(t, "at least one output case is required", errs[0].Message)
}

func TestContractSpecMethod(t *testing.T) {
	spec := ContractSpec{Name: "FundamentalTruth", Methods: []MethodSig{validSig()}}

	m, ok := spec.Method("propose-truth")
	assert.True(t, ok)
	assert.Equal(t, "proposeTruth", m.Name)

	_, ok = spec.Method("get-reality")
	assert.False(t, ok)
}
