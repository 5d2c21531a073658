package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ontic/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	ErrContractPurposeEmpty = "E101" // purpose is required
	ErrContractNoMethods    = "E102" // at least one method required
	ErrMethodNoOutputs      = "E103" // method must have outputs
	ErrInvalidFieldType     = "E104" // invalid type string
	ErrDuplicateName        = "E105" // duplicate contract/method/record/arg name
	ErrFloatTypeForbidden   = "E106" // float types not allowed
	ErrDuplicateWireName    = "E107" // two methods answer the same wire name
	ErrMissingSuccessCase   = "E108" // method has no "Success" output
	ErrMissingWireName      = "E109" // method has no call name
)

// ValidationError is a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a single compiled contract. All errors are returned.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.ContractSpec:
		return validateContract(spec)
	case ir.ContractSpec:
		return validateContract(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// ValidateSpecs checks each contract and the rules that span contracts:
// unique contract names and unique wire names across the whole catalog.
func ValidateSpecs(specs []ir.ContractSpec) []ValidationError {
	var errs []ValidationError

	contractNames := make(map[string]bool)
	wireOwners := make(map[string]string)
	for i := range specs {
		spec := &specs[i]
		if contractNames[spec.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("contracts[%d].name", i),
				Message: fmt.Sprintf("duplicate contract name: %q", spec.Name),
				Code:    ErrDuplicateName,
			})
		}
		contractNames[spec.Name] = true

		for _, e := range validateContract(spec) {
			e.Field = spec.Name + "." + e.Field
			errs = append(errs, e)
		}

		for _, m := range spec.Methods {
			if m.Call == "" {
				continue
			}
			if owner, ok := wireOwners[m.Call]; ok && owner != spec.Name {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.methods.%s.call", spec.Name, m.Name),
					Message: fmt.Sprintf("wire name %q is already defined by %s", m.Call, owner),
					Code:    ErrDuplicateWireName,
				})
				continue
			}
			wireOwners[m.Call] = spec.Name
		}
	}

	return errs
}

func validateContract(spec *ir.ContractSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Purpose) == "" {
		errs = append(errs, ValidationError{
			Field:   "purpose",
			Message: "purpose is required and must be non-empty",
			Code:    ErrContractPurposeEmpty,
		})
	}

	if len(spec.Methods) == 0 {
		errs = append(errs, ValidationError{
			Field:   "methods",
			Message: "at least one method is required",
			Code:    ErrContractNoMethods,
		})
	}

	methodNames := make(map[string]bool)
	wireNames := make(map[string]bool)
	for i, m := range spec.Methods {
		if methodNames[m.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("methods[%d].name", i),
				Message: fmt.Sprintf("duplicate method name: %q", m.Name),
				Code:    ErrDuplicateName,
			})
		}
		methodNames[m.Name] = true

		if strings.TrimSpace(m.Call) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("methods[%d].call", i),
				Message: fmt.Sprintf("method %q has no wire name", m.Name),
				Code:    ErrMissingWireName,
			})
		} else if wireNames[m.Call] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("methods[%d].call", i),
				Message: fmt.Sprintf("duplicate wire name: %q", m.Call),
				Code:    ErrDuplicateWireName,
			})
		}
		wireNames[m.Call] = true

		argNames := make(map[string]bool)
		for j, arg := range m.Args {
			if argNames[arg.Name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("methods[%d].args[%d].name", i, j),
					Message: fmt.Sprintf("duplicate arg name: %q", arg.Name),
					Code:    ErrDuplicateName,
				})
			}
			argNames[arg.Name] = true
			errs = append(errs, validateFieldType(arg.Type, fmt.Sprintf("methods[%d].args[%d].type", i, j), arg.Name)...)
		}

		if len(m.Outputs) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("methods[%d].outputs", i),
				Message: fmt.Sprintf("method %q must have at least one output case", m.Name),
				Code:    ErrMethodNoOutputs,
			})
			continue
		}
		hasSuccess := false
		for j, out := range m.Outputs {
			if out.Case == "Success" {
				hasSuccess = true
			}
			for fieldName, fieldType := range out.Fields {
				errs = append(errs, validateFieldType(fieldType, fmt.Sprintf("methods[%d].outputs[%d].fields.%s", i, j, fieldName), fieldName)...)
			}
		}
		if !hasSuccess {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("methods[%d].outputs", i),
				Message: fmt.Sprintf("method %q has no \"Success\" output case", m.Name),
				Code:    ErrMissingSuccessCase,
			})
		}
	}

	recordNames := make(map[string]bool)
	for i, rec := range spec.Records {
		if recordNames[rec.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("records[%d].name", i),
				Message: fmt.Sprintf("duplicate record name: %q", rec.Name),
				Code:    ErrDuplicateName,
			})
		}
		recordNames[rec.Name] = true
		for _, f := range rec.Fields {
			errs = append(errs, validateFieldType(f.Type, fmt.Sprintf("records[%d].fields.%s", i, f.Name), f.Name)...)
		}
	}

	return errs
}

func validateFieldType(fieldType, fieldPath, fieldName string) []ValidationError {
	var errs []ValidationError

	if !ir.ValidTypes[fieldType] {
		errs = append(errs, ValidationError{
			Field:   fieldPath,
			Message: fmt.Sprintf("invalid type %q for field %q", fieldType, fieldName),
			Code:    ErrInvalidFieldType,
		})
	}
	if isFloatType(fieldType) {
		errs = append(errs, ValidationError{
			Field:   fieldPath,
			Message: fmt.Sprintf("float type forbidden for field %q, use int instead", fieldName),
			Code:    ErrFloatTypeForbidden,
		})
	}
	return errs
}

func isFloatType(t string) bool {
	switch strings.ToLower(t) {
	case "float", "float32", "float64", "number", "double":
		return true
	}
	return false
}
