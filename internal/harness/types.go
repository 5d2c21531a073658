package harness

import (
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/store"
)

// Trace event types.
const (
	EventCall    = "call"
	EventOutcome = "outcome"
)

// TraceEvent is one journaled call or outcome.
type TraceEvent struct {
	Type   string    `json:"type"` // "call" or "outcome"
	Method string    `json:"method,omitempty"`
	Args   ir.List   `json:"args,omitempty"`
	Case   string    `json:"case,omitempty"`
	Result ir.Object `json:"result,omitempty"`
	Seq    int64     `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// FlowToken is the token every call in the run carried.
	FlowToken string `json:"flow_token"`

	// Trace holds calls and outcomes in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEntry appends a journal entry as a call event and, when complete,
// an outcome event.
func (r *Result) AddEntry(e store.Entry) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventCall,
		Method: e.Call.Method,
		Args:   e.Call.Args,
		Seq:    e.Call.Seq,
	})
	if e.Outcome == nil {
		return
	}
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventOutcome,
		Case:   e.Outcome.Case,
		Result: e.Outcome.Result,
		Seq:    e.Outcome.Seq,
	})
}
