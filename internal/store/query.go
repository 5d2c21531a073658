package store

import (
	"context"
	"fmt"
	"strings"
)

// Query selects journal entries. Zero fields do not filter.
type Query struct {
	FlowToken string `json:"flow_token,omitempty"`
	Method    string `json:"method,omitempty"`
	// Case matches the outcome case. Calls with no outcome never match.
	Case string `json:"case,omitempty"`
	// Incomplete selects only calls with no outcome.
	Incomplete bool  `json:"incomplete,omitempty"`
	FromSeq    int64 `json:"from_seq,omitempty"` // inclusive
	ToSeq      int64 `json:"to_seq,omitempty"`   // inclusive
	Limit      int   `json:"limit,omitempty"`
}

// predicate is one conjunct of a WHERE clause.
type predicate struct {
	sql   string
	param any
}

// compile converts q to parameterized SQL over calls LEFT JOIN outcomes.
// Values are never interpolated. Rows are always ordered by seq, id.
func (q Query) compile() (string, []any, error) {
	if q.Case != "" && q.Incomplete {
		return "", nil, fmt.Errorf("query: case and incomplete are exclusive")
	}
	if q.FromSeq < 0 || q.ToSeq < 0 {
		return "", nil, fmt.Errorf("query: seq bounds must not be negative")
	}
	if q.ToSeq > 0 && q.FromSeq > q.ToSeq {
		return "", nil, fmt.Errorf("query: from seq %d is after to seq %d", q.FromSeq, q.ToSeq)
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("query: limit must not be negative")
	}

	var preds []predicate
	if q.FlowToken != "" {
		preds = append(preds, predicate{"c.flow_token = ?", q.FlowToken})
	}
	if q.Method != "" {
		preds = append(preds, predicate{"c.method = ?", q.Method})
	}
	if q.Case != "" {
		preds = append(preds, predicate{"o.output_case = ?", q.Case})
	}
	if q.Incomplete {
		preds = append(preds, predicate{sql: "o.id IS NULL"})
	}
	if q.FromSeq > 0 {
		preds = append(preds, predicate{"c.seq >= ?", q.FromSeq})
	}
	if q.ToSeq > 0 {
		preds = append(preds, predicate{"c.seq <= ?", q.ToSeq})
	}

	var b strings.Builder
	b.WriteString("SELECT" + entryColumns + "\n\tFROM calls c\n\tLEFT JOIN outcomes o ON o.call_id = c.id")

	var params []any
	for i, p := range preds {
		if i == 0 {
			b.WriteString("\n\tWHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(p.sql)
		if p.param != nil {
			params = append(params, p.param)
		}
	}

	b.WriteString("\n\tORDER BY c.seq ASC, c.id COLLATE BINARY ASC")
	if q.Limit > 0 {
		b.WriteString("\n\tLIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// Find returns the entries matching q in seq order.
func (s *Store) Find(ctx context.Context, q Query) ([]Entry, error) {
	query, params, err := q.compile()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return scanEntries(rows)
}
