package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()

	for _, m := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(request{method: m}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.method)
	}
	assert.Equal(t, 0, q.Len())
}

func TestRequestQueue_TryDequeue_Empty(t *testing.T) {
	q := newRequestQueue()
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestRequestQueue_SignalCoalesces(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(request{method: "a"})
	q.Enqueue(request{method: "b"})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestRequestQueue_Close(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(request{method: "kept"})
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(request{method: "late"}))

	<-q.Wait() // buffered signal from the enqueue
	_, open := <-q.Wait()
	assert.False(t, open, "signal channel closes with the queue")

	got, ok := q.TryDequeue()
	require.True(t, ok, "requests queued before close are still served")
	assert.Equal(t, "kept", got.method)
}
