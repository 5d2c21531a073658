package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ontic/internal/ir"
)

// Entry is a journaled call paired with its outcome. Outcome is nil when the
// process stopped between writing the call and writing its result.
type Entry struct {
	Call    ir.Call
	Outcome *ir.Outcome
}

const entryColumns = `
	c.id, c.flow_token, c.contract, c.method, c.args, c.seq, c.spec_hash, c.engine_version, c.ir_version,
	o.id, o.output_case, o.result, o.seq`

// ReadAll returns every journaled call with its outcome, ordered by
// seq ASC, id ASC. Returns an empty slice for an empty journal.
func (s *Store) ReadAll(ctx context.Context) ([]Entry, error) {
	return s.Find(ctx, Query{})
}

// ReadFlow returns the entries of one flow in seq order.
func (s *Store) ReadFlow(ctx context.Context, flowToken string) ([]Entry, error) {
	entries, err := s.Find(ctx, Query{FlowToken: flowToken})
	if err != nil {
		return nil, fmt.Errorf("read flow %s: %w", flowToken, err)
	}
	return entries, nil
}

// FindIncomplete returns calls that have no outcome, in seq order.
func (s *Store) FindIncomplete(ctx context.Context) ([]ir.Call, error) {
	entries, err := s.Find(ctx, Query{Incomplete: true})
	if err != nil {
		return nil, err
	}
	calls := make([]ir.Call, len(entries))
	for i, e := range entries {
		calls[i] = e.Call
	}
	return calls, nil
}

// ReadCall retrieves a single call by ID. Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (ir.Call, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, flow_token, contract, method, args, seq, spec_hash, engine_version, ir_version
		FROM calls
		WHERE id = ?
	`, id)

	var c ir.Call
	var argsJSON string
	if err := row.Scan(
		&c.ID, &c.FlowToken, &c.Contract, &c.Method, &argsJSON, &c.Seq,
		&c.SpecHash, &c.EngineVersion, &c.IRVersion,
	); err != nil {
		return ir.Call{}, err
	}
	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return ir.Call{}, err
	}
	c.Args = args
	return c, nil
}

// ReadOutcome retrieves a single outcome by ID. Returns sql.ErrNoRows if not found.
func (s *Store) ReadOutcome(ctx context.Context, id string) (ir.Outcome, error) {
	return s.readOutcome(ctx, `WHERE id = ?`, id)
}

// ReadOutcomeForCall retrieves the outcome of a call. Returns sql.ErrNoRows
// if the call has none.
func (s *Store) ReadOutcomeForCall(ctx context.Context, callID string) (ir.Outcome, error) {
	return s.readOutcome(ctx, `WHERE call_id = ?`, callID)
}

func (s *Store) readOutcome(ctx context.Context, where string, arg string) (ir.Outcome, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, call_id, output_case, result, seq
		FROM outcomes
		`+where, arg)

	var o ir.Outcome
	var resultJSON string
	if err := row.Scan(&o.ID, &o.CallID, &o.Case, &resultJSON, &o.Seq); err != nil {
		return ir.Outcome{}, err
	}
	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return ir.Outcome{}, err
	}
	o.Result = result
	return o, nil
}

// ListFlowTokens returns the distinct flow tokens in order of first use.
func (s *Store) ListFlowTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow_token FROM calls
		GROUP BY flow_token
		ORDER BY MIN(seq) ASC, flow_token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list flow tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan flow token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow tokens: %w", err)
	}
	return tokens, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// The runtime resumes its logical clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM calls),
			(SELECT COALESCE(MAX(seq), 0) FROM outcomes)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// Stats summarises the journal.
type Stats struct {
	Calls      int            `json:"calls"`
	Outcomes   int            `json:"outcomes"`
	Flows      int            `json:"flows"`
	Incomplete int            `json:"incomplete"`
	LastSeq    int64          `json:"last_seq"`
	ByMethod   map[string]int `json:"by_method"`
	ByCase     map[string]int `json:"by_case"`
}

// Stats counts calls, outcomes and flows, broken down by method and case.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByMethod: map[string]int{}, ByCase: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM calls),
			(SELECT COUNT(*) FROM outcomes),
			(SELECT COUNT(DISTINCT flow_token) FROM calls)
	`).Scan(&st.Calls, &st.Outcomes, &st.Flows)
	if err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}
	st.Incomplete = st.Calls - st.Outcomes

	if err := s.countInto(ctx, `SELECT method, COUNT(*) FROM calls GROUP BY method`, st.ByMethod); err != nil {
		return st, err
	}
	if err := s.countInto(ctx, `SELECT output_case, COUNT(*) FROM outcomes GROUP BY output_case`, st.ByCase); err != nil {
		return st, err
	}

	st.LastSeq, err = s.LastSeq(ctx)
	if err != nil {
		return st, err
	}
	return st, nil
}

func (s *Store) countInto(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("stats: scan: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		c        ir.Call
		argsJSON string
		oID      sql.NullString
		oCase    sql.NullString
		oResult  sql.NullString
		oSeq     sql.NullInt64
	)
	if err := rows.Scan(
		&c.ID, &c.FlowToken, &c.Contract, &c.Method, &argsJSON, &c.Seq,
		&c.SpecHash, &c.EngineVersion, &c.IRVersion,
		&oID, &oCase, &oResult, &oSeq,
	); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return Entry{}, err
	}
	c.Args = args

	e := Entry{Call: c}
	if oID.Valid {
		result, err := unmarshalResult(oResult.String)
		if err != nil {
			return Entry{}, err
		}
		e.Outcome = &ir.Outcome{
			ID:     oID.String,
			CallID: c.ID,
			Case:   oCase.String,
			Result: result,
			Seq:    oSeq.Int64,
		}
	}
	return e, nil
}
