package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ontic/internal/ir"
)

// createTestStore opens a fresh journal in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestCall(id, flowToken, method string, args ir.List, seq int64) ir.Call {
	return ir.Call{
		ID:            id,
		FlowToken:     flowToken,
		Contract:      "FundamentalTruth",
		Method:        method,
		Args:          args,
		Seq:           seq,
		SpecHash:      "test-hash",
		EngineVersion: "0.1.0",
		IRVersion:     "1",
	}
}

func createTestOutcome(id, callID, outputCase string, result ir.Object, seq int64) ir.Outcome {
	return ir.Outcome{
		ID:     id,
		CallID: callID,
		Case:   outputCase,
		Result: result,
		Seq:    seq,
	}
}
