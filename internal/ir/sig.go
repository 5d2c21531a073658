package ir

import "fmt"

// ValidTypes are the type names allowed in signatures and record schemas.
var ValidTypes = map[string]bool{
	TypeString: true,
	TypeInt:    true,
	TypeBool:   true,
	TypeArray:  true,
	TypeObject: true,
}

// ValidationError is a schema violation at a field path.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a method signature. All violations are returned, not just the first.
func (m *MethodSig) Validate() []ValidationError {
	var errs []ValidationError

	if m.Call == "" {
		errs = append(errs, ValidationError{Field: "call", Message: "wire name is required"})
	}

	seenArgs := make(map[string]bool)
	for i, arg := range m.Args {
		if seenArgs[arg.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("args[%d]", i),
				Message: fmt.Sprintf("duplicate arg name %q", arg.Name),
			})
		}
		seenArgs[arg.Name] = true
		if !ValidTypes[arg.Type] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("args[%d].type", i),
				Message: fmt.Sprintf("invalid type %q for arg %q", arg.Type, arg.Name),
			})
		}
	}

	if len(m.Outputs) == 0 {
		errs = append(errs, ValidationError{Field: "outputs", Message: "at least one output case is required"})
	}
	seenCases := make(map[string]bool)
	hasSuccess := false
	for i, out := range m.Outputs {
		if seenCases[out.Case] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outputs[%d].case", i),
				Message: fmt.Sprintf("duplicate output case %q", out.Case),
			})
		}
		seenCases[out.Case] = true
		if out.Case == "Success" {
			hasSuccess = true
		}
		for name, typ := range out.Fields {
			if !ValidTypes[typ] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("outputs[%d].fields.%s", i, name),
					Message: fmt.Sprintf("invalid type %q", typ),
				})
			}
		}
	}
	if len(m.Outputs) > 0 && !hasSuccess {
		errs = append(errs, ValidationError{Field: "outputs", Message: `a "Success" case is required`})
	}

	return errs
}
