package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/registry"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		n := 0
		for _, event := range e.Trace {
			if event.Type == EventCall {
				n++
				fmt.Fprintf(&buf, "  [%d] %s %s\n", n, event.Method, formatValue(event.Args))
			}
		}
	}

	return buf.String()
}

// State exposes the registries final_state and not_found inspect.
// *engine.Runtime implements it.
type State interface {
	Truths() *registry.TruthRegistry
	Realities() *registry.RealityRegistry
}

// assertTraceContains checks if the trace contains a call to the method
// whose args start with the expected args.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	want, err := convertArgs(assertion.Args)
	if err != nil {
		return fmt.Errorf("trace_contains: %w", err)
	}

	for _, event := range trace {
		if event.Type == EventCall && event.Method == assertion.Method && matchArgs(event.Args, want) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s with args %s", assertion.Method, formatValue(ir.List(want))),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if methods are first called in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	n := 0
	for _, event := range trace {
		if event.Type != EventCall {
			continue
		}
		n++
		if positions[event.Method] == 0 {
			positions[event.Method] = n // 1-indexed for readability
		}
	}

	for _, method := range assertion.Methods {
		if positions[method] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all methods present: %v", assertion.Methods),
				Actual:   fmt.Sprintf("missing method: %s", method),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Methods); i++ {
		prev := assertion.Methods[i-1]
		curr := assertion.Methods[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("methods in order: %v", assertion.Methods),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the method is called exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventCall && event.Method == assertion.Method {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls to %s", assertion.Count, assertion.Method),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}

	return nil
}

// lookupRecord fetches a record as the object get-truth or get-reality would return.
func lookupRecord(st State, record string, id int64) (ir.Object, error) {
	switch record {
	case RecordTruth:
		t, err := st.Truths().Get(registry.ID(id))
		if err != nil {
			return nil, err
		}
		return contract.TruthValue(t), nil
	case RecordReality:
		r, err := st.Realities().Get(registry.ID(id))
		if err != nil {
			return nil, err
		}
		return contract.RealityValue(r), nil
	default:
		return nil, fmt.Errorf("unknown record %q", record)
	}
}

// assertFinalState checks that the record exists and carries the expected
// fields (subset semantics).
func assertFinalState(st State, assertion Assertion) error {
	id := *assertion.ID
	actual, err := lookupRecord(st, assertion.Record, id)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %d to exist", assertion.Record, id),
			Actual:   err.Error(),
		}
	}

	expected, err := ir.FromAny(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state: expect: %w", err)
	}

	for _, key := range expected.(ir.Object).SortedKeys() {
		want := expected.(ir.Object)[key]
		got, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("%s %d has fields %v", assertion.Record, id, actual.SortedKeys()),
			}
		}
		if !ir.Equal(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %d field %q = %s", assertion.Record, id, key, formatValue(want)),
				Actual:   fmt.Sprintf("%s %d field %q = %s", assertion.Record, id, key, formatValue(got)),
			}
		}
	}

	return nil
}

// assertNotFound checks that no record has the identifier.
func assertNotFound(st State, assertion Assertion) error {
	id := *assertion.ID
	actual, err := lookupRecord(st, assertion.Record, id)
	if errors.Is(err, registry.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &AssertionError{
		Type:     AssertNotFound,
		Expected: fmt.Sprintf("no %s with id %d", assertion.Record, id),
		Actual:   fmt.Sprintf("found %s", formatValue(actual)),
	}
}

// matchArgs reports whether want is a positional prefix of actual.
func matchArgs(actual ir.List, want []ir.Value) bool {
	if len(want) > len(actual) {
		return false
	}
	for i, w := range want {
		if !ir.Equal(w, actual[i]) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// st provides the registries for final_state and not_found; it may be nil
// when only trace assertions are used.
func EvaluateAssertions(result *Result, assertions []Assertion, st State) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertNotFound:
			switch {
			case st == nil:
				err = fmt.Errorf("assertion[%d]: %s requires registry state", i, assertion.Type)
			case assertion.ID == nil:
				err = fmt.Errorf("assertion[%d]: %s requires an id", i, assertion.Type)
			case assertion.Type == AssertFinalState:
				err = assertFinalState(st, assertion)
			default:
				err = assertNotFound(st, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
