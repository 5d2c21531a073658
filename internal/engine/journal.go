package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/store"
)

// Journal records calls and their outcomes. *store.Store implements it.
type Journal interface {
	WriteCall(ctx context.Context, c ir.Call) error
	WriteOutcome(ctx context.Context, o ir.Outcome) error
}

// History supplies journaled calls for replay, ordered by seq.
// *store.Store implements it.
type History interface {
	ReadAll(ctx context.Context) ([]store.Entry, error)
}

// MemoryJournal is an in-process Journal and History. The scenario harness
// records traces with it; tests use it in place of SQLite.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []store.Entry
	index   map[string]int
}

// NewMemoryJournal returns an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{index: make(map[string]int)}
}

// WriteCall appends c. Rewriting a known call ID is a no-op.
func (m *MemoryJournal) WriteCall(_ context.Context, c ir.Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[c.ID]; ok {
		return nil
	}
	m.index[c.ID] = len(m.entries)
	m.entries = append(m.entries, store.Entry{Call: c})
	return nil
}

// WriteOutcome attaches o to its call. The call must exist; a second
// outcome for the same call is ignored.
func (m *MemoryJournal) WriteOutcome(_ context.Context, o ir.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[o.CallID]
	if !ok {
		return fmt.Errorf("write outcome: unknown call %s", o.CallID)
	}
	if m.entries[i].Outcome == nil {
		out := o
		m.entries[i].Outcome = &out
	}
	return nil
}

// ReadAll returns a copy of the entries in write order, which is seq order
// for a single runtime.
func (m *MemoryJournal) ReadAll(_ context.Context) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]store.Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Len returns the number of journaled calls.
func (m *MemoryJournal) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
