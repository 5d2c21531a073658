package store

import (
	"context"
	"fmt"

	"github.com/roach88/ontic/internal/ir"
)

// WriteCall appends a call record. Duplicate IDs are ignored
// (ON CONFLICT DO NOTHING); other constraint violations are errors.
func (s *Store) WriteCall(ctx context.Context, c ir.Call) error {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, flow_token, contract, method, args, seq, spec_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.FlowToken,
		c.Contract,
		c.Method,
		argsJSON,
		c.Seq,
		c.SpecHash,
		c.EngineVersion,
		c.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	return nil
}

// WriteOutcome appends the outcome of a journaled call. A call has exactly
// one outcome; a second write for the same call is silently ignored.
// The referenced call must already exist.
func (s *Store) WriteOutcome(ctx context.Context, o ir.Outcome) error {
	resultJSON, err := marshalResult(o.Result)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, call_id, output_case, result, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		o.ID,
		o.CallID,
		o.Case,
		resultJSON,
		o.Seq,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}
