package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/ir"
)

func TestQueryCompile_NoFilter(t *testing.T) {
	sql, params, err := Query{}.compile()
	require.NoError(t, err)

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LEFT JOIN outcomes o ON o.call_id = c.id")
	assert.Contains(t, sql, "ORDER BY c.seq ASC, c.id COLLATE BINARY ASC")
	assert.Empty(t, params)
}

func TestQueryCompile_Parameterized(t *testing.T) {
	q := Query{
		FlowToken: "flow-'; DROP TABLE calls; --",
		Method:    "get-truth",
		Case:      "NotFound",
		FromSeq:   3,
		ToSeq:     9,
		Limit:     5,
	}

	sql, params, err := q.compile()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE c.flow_token = ? AND c.method = ? AND o.output_case = ? AND c.seq >= ? AND c.seq <= ?")
	assert.Contains(t, sql, "LIMIT ?")
	assert.NotContains(t, sql, "DROP TABLE")
	assert.NotContains(t, sql, "get-truth")
	assert.Equal(t, []any{q.FlowToken, "get-truth", "NotFound", int64(3), int64(9), 5}, params)
}

func TestQueryCompile_OrderByAlwaysPresent(t *testing.T) {
	queries := []Query{
		{},
		{Method: "get-truth"},
		{Incomplete: true},
		{FromSeq: 1, Limit: 1},
	}
	for _, q := range queries {
		sql, _, err := q.compile()
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY c.seq ASC")
	}
}

func TestQueryCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"case and incomplete", Query{Case: "Success", Incomplete: true}, "exclusive"},
		{"negative seq", Query{FromSeq: -1}, "negative"},
		{"inverted range", Query{FromSeq: 5, ToSeq: 2}, "after to seq"},
		{"negative limit", Query{Limit: -1}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.q.compile()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func seedJournal(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-a", "propose-truth", ir.List{ir.Str("s"), ir.Int(1)}, 1)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o1", "c1", "Success", ir.Object{"value": ir.Int(0)}, 2)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c2", "flow-b", "get-truth", ir.List{ir.Int(7)}, 3)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o2", "c2", "NotFound", ir.Object{"code": ir.Int(404)}, 4)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c3", "flow-a", "get-truth", ir.List{ir.Int(0)}, 5)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o3", "c3", "Success", ir.Object{"value": ir.Object{}}, 6)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c4", "flow-b", "get-truth", ir.List{ir.Int(8)}, 7)))
}

func TestFind(t *testing.T) {
	s := createTestStore(t)
	seedJournal(t, s)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{"c1", "c2", "c3", "c4"}},
		{"flow", Query{FlowToken: "flow-a"}, []string{"c1", "c3"}},
		{"method", Query{Method: "get-truth"}, []string{"c2", "c3", "c4"}},
		{"case", Query{Case: "NotFound"}, []string{"c2"}},
		{"incomplete", Query{Incomplete: true}, []string{"c4"}},
		{"seq range", Query{FromSeq: 3, ToSeq: 5}, []string{"c2", "c3"}},
		{"combined", Query{Method: "get-truth", Case: "Success"}, []string{"c3"}},
		{"limit", Query{Method: "get-truth", Limit: 2}, []string{"c2", "c3"}},
		{"no match", Query{FlowToken: "flow-z"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Find(context.Background(), tt.q)
			require.NoError(t, err)
			ids := make([]string, len(entries))
			for i, e := range entries {
				ids[i] = e.Call.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFind_InvalidQuery(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Find(context.Background(), Query{Limit: -3})
	assert.Error(t, err)
}
