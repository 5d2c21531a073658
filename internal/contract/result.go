package contract

import (
	"fmt"

	"github.com/roach88/ontic/internal/ir"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindUnknownMethod ErrorKind = "unknown_method"
	KindInvalidArgs   ErrorKind = "invalid_args"
	// KindFailed marks a failed Result that carries no CallError.
	KindFailed ErrorKind = "failed"
)

// Error codes carried on the wire.
const (
	CodeNotFound    = 404
	CodeInvalidArgs = 400
)

// UnknownMethodMessage is the wire error for an unrecognised method name.
const UnknownMethodMessage = "Unknown method"

// Output cases recorded in the journal.
const (
	CaseSuccess       = "Success"
	CaseNotFound      = "NotFound"
	CaseUnknownMethod = "UnknownMethod"
	CaseInvalidArgs   = "InvalidArgs"
	CaseFailed        = "Failed"
)

// unspecifiedFailure stands in for the error of a failed Result whose Err is
// nil, such as the zero Result.
var unspecifiedFailure = CallError{Kind: KindFailed, Message: "call failed"}

// CallError describes why a call failed. Code is 0 when the kind has no code.
type CallError struct {
	Kind    ErrorKind `json:"kind"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message"`
}

func (e *CallError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Case returns the journal output case for the error kind.
func (e *CallError) Case() string {
	switch e.Kind {
	case KindNotFound:
		return CaseNotFound
	case KindUnknownMethod:
		return CaseUnknownMethod
	case KindInvalidArgs:
		return CaseInvalidArgs
	case KindFailed:
		return CaseFailed
	default:
		return string(e.Kind)
	}
}

// NotFound reports a missing registry entry as a 404, keeping err's text.
func NotFound(err error) *CallError {
	return &CallError{Kind: KindNotFound, Code: CodeNotFound, Message: err.Error()}
}

// UnknownMethod reports a method name the catalog does not define. It has
// no code: the wire error is the message itself.
func UnknownMethod() *CallError {
	return &CallError{Kind: KindUnknownMethod, Message: UnknownMethodMessage}
}

// InvalidArgs reports arguments that do not match the method signature
// as a 400, with a formatted message.
func InvalidArgs(format string, args ...any) *CallError {
	return &CallError{Kind: KindInvalidArgs, Code: CodeInvalidArgs, Message: fmt.Sprintf(format, args...)}
}

// Result is the outcome of one call. Check Success before reading Value or Err.
type Result struct {
	Success bool
	Value   ir.Value // nil when the method returns nothing
	Err     *CallError
}

// Ok returns a successful Result. v may be nil for methods with no return.
func Ok(v ir.Value) Result {
	return Result{Success: true, Value: v}
}

// Fail returns a failed Result carrying err.
func Fail(err *CallError) Result {
	return Result{Err: err}
}

// Outcome maps the result to a journal output case and result object.
// Success carries {"value": v}, or {} when there is no value.
// Failures carry {"code": n, "message": s}; code is omitted when 0.
// A failure with no Err, including the zero Result, is CaseFailed.
func (r Result) Outcome() (string, ir.Object) {
	if r.Success {
		if r.Value == nil {
			return CaseSuccess, ir.Object{}
		}
		return CaseSuccess, ir.Object{"value": r.Value}
	}
	e := r.failure()
	obj := ir.Object{"message": ir.Str(e.Message)}
	if e.Code != 0 {
		obj["code"] = ir.Int(e.Code)
	}
	return e.Case(), obj
}

func (r Result) failure() *CallError {
	if r.Err == nil {
		return &unspecifiedFailure
	}
	return r.Err
}

// Wire renders the result the way external callers see it:
// {"success": true, "value": v} or {"success": false, "error": code-or-message}.
func (r Result) Wire() ir.Object {
	if r.Success {
		obj := ir.Object{"success": ir.Bool(true)}
		if r.Value != nil {
			obj["value"] = r.Value
		}
		return obj
	}
	obj := ir.Object{"success": ir.Bool(false)}
	if e := r.failure(); e.Code != 0 {
		obj["error"] = ir.Int(e.Code)
	} else {
		obj["error"] = ir.Str(e.Message)
	}
	return obj
}

// MarshalJSON encodes the wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	return r.Wire().MarshalJSON()
}
