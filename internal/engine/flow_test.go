package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontic/internal/ir"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	const goroutines = 64

	tokens := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- gen.Generate()
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]bool, goroutines)
	for token := range tokens {
		parsed, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, token)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("flow-1", "flow-2")
	assert.Equal(t, "flow-1", gen.Generate())
	assert.Equal(t, "flow-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() }, "exhausted generator")

	assert.Panics(t, func() { NewFixedGenerator().Generate() }, "no tokens")
}

func TestRuntime_NewFlow_WithFixedGenerator(t *testing.T) {
	rt := newTestRuntime(t, WithFlowGenerator(NewFixedGenerator("test-flow-1", "test-flow-2")))

	assert.Equal(t, "", rt.Flow())
	assert.Equal(t, "test-flow-1", rt.NewFlow())
	assert.Equal(t, "test-flow-2", rt.NewFlow())
	assert.Equal(t, "test-flow-2", rt.Flow())
}

func TestRuntime_NewFlow_DefaultsToUUIDv7(t *testing.T) {
	rt := newTestRuntime(t)

	parsed, err := uuid.Parse(rt.NewFlow())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRuntime_CallsStampedWithCurrentFlow(t *testing.T) {
	j := NewMemoryJournal()
	rt := newTestRuntime(t,
		WithJournal(j),
		WithFlowGenerator(NewFixedGenerator("first", "second")),
	)
	ctx := context.Background()

	// The first call opens a flow when none is current.
	_, err := rt.Call(ctx, "register-reality", ir.Str("a"))
	require.NoError(t, err)
	_, err = rt.Call(ctx, "unify-reality", ir.Int(0))
	require.NoError(t, err)

	rt.NewFlow()
	_, err = rt.Call(ctx, "get-reality", ir.Int(0))
	require.NoError(t, err)

	entries, err := j.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	flows := make([]string, len(entries))
	for i, e := range entries {
		flows[i] = e.Call.FlowToken
	}
	assert.Equal(t, []string{"first", "first", "second"}, flows)
}
