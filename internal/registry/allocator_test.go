package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocatorSequential(t *testing.T) {
	a := NewAllocator()
	for k := 0; k < 5; k++ {
		assert.Equal(t, ID(k), a.Peek())
		assert.Equal(t, ID(k), a.Next())
	}
}

func TestAllocatorReset(t *testing.T) {
	a := NewAllocator()
	a.Next()
	a.Next()
	a.Reset()
	assert.Equal(t, ID(0), a.Next())
}

func TestAllocatorConcurrentUnique(t *testing.T) {
	a := NewAllocator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[ID]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := a.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, ID(workers*perWorker), a.Peek())
}
