package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// ReplayMismatch is a journaled record that replay could not reproduce.
type ReplayMismatch struct {
	CallID string `json:"call_id"`
	Seq    int64  `json:"seq"`
	Method string `json:"method"`
	Field  string `json:"field"` // "call_id", "case" or "result"
	Want   string `json:"want"`
	Got    string `json:"got"`
}

func (m *ReplayMismatch) Error() string {
	return fmt.Sprintf("seq %d %s: %s mismatch: journal has %s, replay produced %s",
		m.Seq, m.Method, m.Field, m.Want, m.Got)
}

// ReplayReport summarises a replay.
type ReplayReport struct {
	Calls      int              `json:"calls"`
	Incomplete []string         `json:"incomplete,omitempty"` // call IDs with no journaled outcome
	Mismatches []ReplayMismatch `json:"mismatches,omitempty"`
	LastSeq    int64            `json:"last_seq"`
}

// OK reports whether every journaled outcome was reproduced.
func (r *ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay rebuilds the registries from h.
//
// Registries are emptied, then every journaled call is re-executed in seq
// order. Recomputed outcomes are compared with the journaled ones and
// differences reported, not returned as errors. Calls with no journaled
// outcome are still applied, since the registries changed before the
// outcome write. Nothing is written to the journal. Afterwards the clock is
// at least the last journaled seq, so new calls append after the history.
func (r *Runtime) Replay(ctx context.Context, h History) (*ReplayReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := h.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: read journal: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Call.Seq < entries[j].Call.Seq
	})

	r.set.Reset()
	report := &ReplayReport{}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c := e.Call
		report.Calls++
		report.LastSeq = max(report.LastSeq, c.Seq)

		if id, err := ir.CallID(c.FlowToken, c.Method, c.Args, c.Seq); err != nil || id != c.ID {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				CallID: c.ID, Seq: c.Seq, Method: c.Method, Field: "call_id", Want: c.ID, Got: id,
			})
		}
		if r.specHash != "" && c.SpecHash != "" && c.SpecHash != r.specHash {
			r.logger.Warn("replaying call recorded under different contracts",
				"seq", c.Seq, "method", c.Method, "recorded", c.SpecHash, "current", r.specHash)
		}

		var res contract.Result
		op, cerr := r.catalog.Decode(c.Method, c.Args)
		if cerr != nil {
			res = contract.Fail(cerr)
		} else {
			res = contract.Apply(r.set, op)
		}

		if e.Outcome == nil {
			report.Incomplete = append(report.Incomplete, c.ID)
			continue
		}
		report.LastSeq = max(report.LastSeq, e.Outcome.Seq)

		gotCase, gotResult := res.Outcome()
		if gotCase != e.Outcome.Case {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				CallID: c.ID, Seq: c.Seq, Method: c.Method, Field: "case", Want: e.Outcome.Case, Got: gotCase,
			})
			continue
		}
		if !ir.Equal(gotResult, e.Outcome.Result) {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				CallID: c.ID, Seq: c.Seq, Method: c.Method, Field: "result",
				Want: canonicalString(e.Outcome.Result), Got: canonicalString(gotResult),
			})
		}
	}

	r.clock.AdvanceTo(report.LastSeq)
	r.logger.Info("replay complete",
		"calls", report.Calls,
		"incomplete", len(report.Incomplete),
		"mismatches", len(report.Mismatches),
		"last_seq", report.LastSeq,
	)
	return report, nil
}

func canonicalString(v ir.Value) string {
	data, err := ir.MarshalVerbatim(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
