package registry

import "sync"

// ID identifies a stored record. Issued from 0 in strictly increasing order.
type ID int64

// Allocator issues sequential identifiers. It may be shared by several stores,
// in which case numbering is global across record kinds.
//
// Safe for concurrent use.
type Allocator struct {
	mu   sync.Mutex
	next ID
}

// NewAllocator returns an allocator whose first identifier is 0.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next identifier and advances the counter.
func (a *Allocator) Next() ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return id
}

// Peek returns the identifier the next call to Next will return.
func (a *Allocator) Peek() ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Reset restarts numbering at 0.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next = 0
}
