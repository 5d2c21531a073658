package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/ir"
)

func TestWriteReadCall(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCall("call-1", "flow-1", "propose-truth",
		ir.List{ir.Str("Reality is an illusion"), ir.Int(80)}, 1)
	require.NoError(t, s.WriteCall(ctx, c))

	got, err := s.ReadCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestWriteCall_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCall("call-1", "flow-1", "get-truth", ir.List{ir.Int(0)}, 1)
	require.NoError(t, s.WriteCall(ctx, c))
	require.NoError(t, s.WriteCall(ctx, c))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteCall_NilArgsStoredAsEmptyList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("call-1", "flow-1", "invalid-method", nil, 1)))

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT args FROM calls WHERE id = 'call-1'").Scan(&raw))
	assert.Equal(t, "[]", raw)

	got, err := s.ReadCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, ir.List{}, got.Args)
}

func TestWriteCall_CanonicalArgs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("call-1", "flow-1", "register-reality",
		ir.List{ir.Str("Quantum \"Realm\"")}, 1)))

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT args FROM calls WHERE id = 'call-1'").Scan(&raw))
	assert.Equal(t, `["Quantum \"Realm\""]`, raw)
}

func TestReadCall_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadCall(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestWriteReadOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("call-1", "flow-1", "get-truth", ir.List{ir.Int(4)}, 1)))
	o := createTestOutcome("out-1", "call-1", "NotFound",
		ir.Object{"code": ir.Int(404), "message": ir.Str("truth 4: record not found")}, 2)
	require.NoError(t, s.WriteOutcome(ctx, o))

	got, err := s.ReadOutcome(ctx, "out-1")
	require.NoError(t, err)
	assert.Equal(t, o, got)

	got, err = s.ReadOutcomeForCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestWriteOutcome_OnePerCall(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("call-1", "flow-1", "propose-truth", ir.List{ir.Str("s"), ir.Int(1)}, 1)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("out-1", "call-1", "Success", ir.Object{"value": ir.Int(0)}, 2)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("out-2", "call-1", "Success", ir.Object{"value": ir.Int(9)}, 3)))

	got, err := s.ReadOutcomeForCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "out-1", got.ID)

	_, err = s.ReadOutcome(ctx, "out-2")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestWriteOutcome_RequiresCall(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteOutcome(context.Background(), createTestOutcome("out-1", "ghost", "Success", nil, 1))
	assert.Error(t, err)
}

func TestReadAll_OrderAndPairing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order; read back by seq.
	require.NoError(t, s.WriteCall(ctx, createTestCall("call-b", "flow-1", "get-truth", ir.List{ir.Int(0)}, 3)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("call-a", "flow-1", "propose-truth", ir.List{ir.Str("s"), ir.Int(5)}, 1)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("out-a", "call-a", "Success", ir.Object{"value": ir.Int(0)}, 2)))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "call-a", entries[0].Call.ID)
	require.NotNil(t, entries[0].Outcome)
	assert.Equal(t, ir.Object{"value": ir.Int(0)}, entries[0].Outcome.Result)
	assert.Equal(t, int64(2), entries[0].Outcome.Seq)

	assert.Equal(t, "call-b", entries[1].Call.ID)
	assert.Nil(t, entries[1].Outcome)
}

func TestReadAll_Empty(t *testing.T) {
	s := createTestStore(t)
	entries, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestReadFlow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-a", "get-truth", ir.List{ir.Int(0)}, 1)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c2", "flow-b", "get-truth", ir.List{ir.Int(1)}, 2)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c3", "flow-a", "get-truth", ir.List{ir.Int(2)}, 3)))

	entries, err := s.ReadFlow(ctx, "flow-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c1", entries[0].Call.ID)
	assert.Equal(t, "c3", entries[1].Call.ID)
}

func TestFindIncomplete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-1", "get-truth", ir.List{ir.Int(0)}, 1)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o1", "c1", "NotFound", ir.Object{"code": ir.Int(404)}, 2)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c2", "flow-1", "get-truth", ir.List{ir.Int(1)}, 3)))

	calls, err := s.FindIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "c2", calls[0].ID)
}

func TestListFlowTokens_FirstUseOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "zeta", "get-truth", ir.List{ir.Int(0)}, 1)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c2", "alpha", "get-truth", ir.List{ir.Int(0)}, 2)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c3", "zeta", "get-truth", ir.List{ir.Int(0)}, 3)))

	tokens, err := s.ListFlowTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, tokens)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-1", "get-truth", ir.List{ir.Int(0)}, 7)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o1", "c1", "NotFound", nil, 8)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}

func TestStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-1", "propose-truth", ir.List{ir.Str("s"), ir.Int(1)}, 1)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o1", "c1", "Success", ir.Object{"value": ir.Int(0)}, 2)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c2", "flow-2", "get-truth", ir.List{ir.Int(3)}, 3)))
	require.NoError(t, s.WriteOutcome(ctx, createTestOutcome("o2", "c2", "NotFound", nil, 4)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("c3", "flow-2", "get-truth", ir.List{ir.Int(0)}, 5)))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Calls:      3,
		Outcomes:   2,
		Flows:      2,
		Incomplete: 1,
		LastSeq:    5,
		ByMethod:   map[string]int{"propose-truth": 1, "get-truth": 2},
		ByCase:     map[string]int{"Success": 1, "NotFound": 1},
	}, st)
}

func TestQuery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteCall(ctx, createTestCall("c1", "flow-1", "get-truth", ir.List{ir.Int(0)}, 1)))

	rows, err := s.Query(ctx, "SELECT method FROM calls WHERE seq = ?", 1)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var method string
	require.NoError(t, rows.Scan(&method))
	assert.Equal(t, "get-truth", method)
}

func TestWriteCall_ArgsKeepCodePoints(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCall("call-1", "flow-1", "propose-truth", ir.List{ir.Str("Cafe\u0301"), ir.Int(1)}, 1)
	require.NoError(t, s.WriteCall(ctx, c))

	got, err := s.ReadCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, c.Args, got.Args)
	assert.Equal(t, ir.Str("Cafe\u0301"), got.Args[0])
}

func TestWriteCall_RejectsInvalidUTF8(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteCall(context.Background(), createTestCall("call-1", "flow-1", "propose-truth", ir.List{ir.Str("\xff"), ir.Int(1)}, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid UTF-8")
}
