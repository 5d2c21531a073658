package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ontic/internal/ir"
)

// CompileContract parses a CUE value into a ContractSpec.
//
// The value should be the contract struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`contract: FundamentalTruth: { ... }`)
//	spec, err := CompileContract(v.LookupPath(cue.ParsePath("contract.FundamentalTruth")))
func CompileContract(v cue.Value) (*ir.ContractSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ContractSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{
			Field:   "purpose",
			Message: "purpose is required",
			Pos:     v.Pos(),
		}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Purpose = purpose

	spec.Records, err = parseRecords(v)
	if err != nil {
		return nil, err
	}

	spec.Methods, err = parseMethods(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Methods) == 0 {
		return nil, &CompileError{
			Field:   "method",
			Message: "at least one method is required",
			Pos:     v.Pos(),
		}
	}

	opVal := v.LookupPath(cue.ParsePath("operational_principle"))
	if opVal.Exists() {
		principles, err := parseOperationalPrinciples(opVal)
		if err != nil {
			return nil, err
		}
		spec.Principles = principles
	}

	return spec, nil
}

// CompileAll compiles every contract under the top-level "contract" field.
// Contracts come back in declaration order.
func CompileAll(v cue.Value) ([]ir.ContractSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	contractsVal := v.LookupPath(cue.ParsePath("contract"))
	if !contractsVal.Exists() {
		return nil, &CompileError{Field: "contract", Message: "no contracts defined", Pos: v.Pos()}
	}
	iter, err := contractsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.ContractSpec
	for iter.Next() {
		spec, err := CompileContract(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", iter.Label(), err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// parseOperationalPrinciples accepts a string, a {description, scenario}
// object, or a list of either.
func parseOperationalPrinciples(v cue.Value) ([]ir.OperationalPrinciple, error) {
	if op, err := v.String(); err == nil {
		return []ir.OperationalPrinciple{{Description: op}}, nil
	}

	if v.LookupPath(cue.ParsePath("description")).Exists() {
		principle, err := parseOperationalPrinciple(v)
		if err != nil {
			return nil, err
		}
		return []ir.OperationalPrinciple{principle}, nil
	}

	opIter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var principles []ir.OperationalPrinciple
	for opIter.Next() {
		principle, err := parseOperationalPrinciple(opIter.Value())
		if err != nil {
			return nil, err
		}
		principles = append(principles, principle)
	}
	return principles, nil
}

func parseOperationalPrinciple(v cue.Value) (ir.OperationalPrinciple, error) {
	var principle ir.OperationalPrinciple

	if str, err := v.String(); err == nil {
		principle.Description = str
		return principle, nil
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if !descVal.Exists() {
		return principle, &CompileError{
			Field:   "operational_principle",
			Message: "must be a string or object with description field",
			Pos:     v.Pos(),
		}
	}
	desc, err := descVal.String()
	if err != nil {
		return principle, formatCUEError(err)
	}
	principle.Description = desc

	scenarioVal := v.LookupPath(cue.ParsePath("scenario"))
	if scenarioVal.Exists() {
		scenario, err := scenarioVal.String()
		if err != nil {
			return principle, formatCUEError(err)
		}
		principle.Scenario = scenario
	}
	return principle, nil
}

// parseRecords extracts record schemas. Records are optional.
func parseRecords(v cue.Value) ([]ir.RecordSchema, error) {
	var records []ir.RecordSchema

	recordVal := v.LookupPath(cue.ParsePath("record"))
	if !recordVal.Exists() {
		return records, nil
	}

	iter, err := recordVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		record := ir.RecordSchema{Name: iter.Label()}
		fields, err := parseNamedFields(iter.Value(), "record."+iter.Label())
		if err != nil {
			return nil, err
		}
		record.Fields = fields
		records = append(records, record)
	}
	return records, nil
}

func parseNamedFields(v cue.Value, path string) ([]ir.NamedArg, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var fields []ir.NamedArg
	for iter.Next() {
		typ, err := extractTypeName(iter.Value(), path+"."+iter.Label())
		if err != nil {
			return nil, err
		}
		fields = append(fields, ir.NamedArg{Name: iter.Label(), Type: typ})
	}
	return fields, nil
}

// parseMethods extracts method signatures.
func parseMethods(v cue.Value) ([]ir.MethodSig, error) {
	var methods []ir.MethodSig

	methodVal := v.LookupPath(cue.ParsePath("method"))
	if !methodVal.Exists() {
		return methods, nil
	}

	iter, err := methodVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		mv := iter.Value()
		method := ir.MethodSig{Name: name}

		callVal := mv.LookupPath(cue.ParsePath("call"))
		if !callVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("method.%s.call", name),
				Message: "wire name is required",
				Pos:     mv.Pos(),
			}
		}
		method.Call, err = callVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		// Args are a list of single-field structs so their order is explicit.
		argsVal := mv.LookupPath(cue.ParsePath("args"))
		if argsVal.Exists() {
			argsIter, err := argsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for i := 0; argsIter.Next(); i++ {
				path := fmt.Sprintf("method.%s.args[%d]", name, i)
				fields, err := parseNamedFields(argsIter.Value(), path)
				if err != nil {
					return nil, err
				}
				if len(fields) != 1 {
					return nil, &CompileError{
						Field:   path,
						Message: fmt.Sprintf("each arg must declare exactly one name, got %d", len(fields)),
						Pos:     argsIter.Value().Pos(),
					}
				}
				method.Args = append(method.Args, fields[0])
			}
		}

		outputsVal := mv.LookupPath(cue.ParsePath("outputs"))
		if !outputsVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("method.%s.outputs", name),
				Message: "method outputs are required",
				Pos:     mv.Pos(),
			}
		}
		outputIter, err := outputsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for outputIter.Next() {
			outVal := outputIter.Value()

			caseName, err := outVal.LookupPath(cue.ParsePath("case")).String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			output := ir.OutputCase{Case: caseName, Fields: make(map[string]string)}

			fieldsVal := outVal.LookupPath(cue.ParsePath("fields"))
			if fieldsVal.Exists() {
				fields, err := parseNamedFields(fieldsVal, fmt.Sprintf("method.%s.outputs.%s", name, caseName))
				if err != nil {
					return nil, err
				}
				for _, f := range fields {
					output.Fields[f.Name] = f.Type
				}
			}
			method.Outputs = append(method.Outputs, output)
		}

		methods = append(methods, method)
	}

	return methods, nil
}

// extractTypeName converts a CUE kind to an IR type name. Floats are rejected.
func extractTypeName(v cue.Value, path string) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.ListKind:
		return ir.TypeArray, nil
	case cue.StructKind:
		return ir.TypeObject, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   path,
			Message: "float types are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   path,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
