package registry

// KindTruth names truth records in errors and journals.
const KindTruth = "truth"

// Truth is a proposed statement with a confidence score. Immutable once stored.
// Confidence is not range checked.
type Truth struct {
	Statement  string
	Confidence int64
}

// TruthRegistry assigns identifiers to proposed truths and returns them by identifier.
type TruthRegistry struct {
	store *Store[Truth]
}

// NewTruthRegistry creates an empty registry. A nil alloc gives it its own numbering.
func NewTruthRegistry(alloc *Allocator) *TruthRegistry {
	return &TruthRegistry{store: NewStore[Truth](KindTruth, alloc)}
}

// Propose stores a new truth and returns its identifier.
func (r *TruthRegistry) Propose(statement string, confidence int64) ID {
	return r.store.Put(Truth{Statement: statement, Confidence: confidence})
}

// Get returns the truth stored under id, or a *NotFoundError.
func (r *TruthRegistry) Get(id ID) (Truth, error) {
	return r.store.Get(id)
}

// Len returns the number of proposed truths.
func (r *TruthRegistry) Len() int {
	return r.store.Len()
}

// IDs returns all truth identifiers in ascending order.
func (r *TruthRegistry) IDs() []ID {
	return r.store.IDs()
}

// Reset drops every truth.
func (r *TruthRegistry) Reset() {
	r.store.Reset()
}
