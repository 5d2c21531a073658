package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a failure of the runtime itself, as opposed to a failed
// contract call (which is a contract.Result).
type RuntimeError struct {
	Code      RuntimeErrorCode
	Message   string
	FlowToken string
	Seq       int64
	Err       error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeJournal means a call or outcome could not be journaled.
	ErrCodeJournal RuntimeErrorCode = "JOURNAL_FAILED"

	// ErrCodeStopped means the request queue was closed.
	ErrCodeStopped RuntimeErrorCode = "RUNTIME_STOPPED"

	// ErrCodeJournaled means an operation that would desynchronise the
	// journal was refused.
	ErrCodeJournaled RuntimeErrorCode = "JOURNAL_ATTACHED"
)

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.FlowToken != "" {
		msg += fmt.Sprintf(" (flow=%s, seq=%d)", e.FlowToken, e.Seq)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsJournalError reports whether err is a journal write failure.
func IsJournalError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeJournal
	}
	return false
}

// IsStopped reports whether err came from a stopped runtime.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

func newJournalError(what, flow string, seq int64, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeJournal,
		Message:   "write " + what,
		FlowToken: flow,
		Seq:       seq,
		Err:       err,
	}
}
