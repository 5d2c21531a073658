package registry

import (
	"sort"
	"sync"
)

// Store maps identifiers to records of one kind.
//
// Put always succeeds. Get and Update on an absent identifier return a
// *NotFoundError and leave the store untouched. There is no delete.
//
// Safe for concurrent use.
type Store[R any] struct {
	kind      string
	alloc     *Allocator
	ownsAlloc bool

	mu      sync.RWMutex
	records map[ID]R
}

// NewStore creates an empty store. kind names the record type in errors.
// A nil alloc gives the store its own allocator.
func NewStore[R any](kind string, alloc *Allocator) *Store[R] {
	owns := alloc == nil
	if owns {
		alloc = NewAllocator()
	}
	return &Store[R]{
		kind:      kind,
		alloc:     alloc,
		ownsAlloc: owns,
		records:   make(map[ID]R),
	}
}

// Kind returns the record kind name.
func (s *Store[R]) Kind() string {
	return s.kind
}

// Put allocates the next identifier, stores r under it and returns the identifier.
func (s *Store[R]) Put(r R) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.alloc.Next()
	s.records[id] = r
	return id
}

// Get returns the record stored under id.
func (s *Store[R]) Get(id ID) (R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		var zero R
		return zero, &NotFoundError{Kind: s.kind, ID: id}
	}
	return r, nil
}

// Update applies fn to the record stored under id and saves the result.
// fn is not called when id is absent.
func (s *Store[R]) Update(id ID, fn func(*R)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return &NotFoundError{Kind: s.kind, ID: id}
	}
	fn(&r)
	s.records[id] = r
	return nil
}

// Len returns the number of stored records.
func (s *Store[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// IDs returns every stored identifier in ascending order.
func (s *Store[R]) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reset empties the store. An allocator the store owns restarts at 0; a shared
// one is left alone, since other stores may still hold identifiers it issued.
// Use Set.Reset to restart a shared allocator.
func (s *Store[R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[ID]R)
	if s.ownsAlloc {
		s.alloc.Reset()
	}
}
