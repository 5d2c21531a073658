package registry

// KindReality names reality records in errors and journals.
const KindReality = "reality"

// Reality is a registered description. Unified starts false and can only
// ever move to true.
type Reality struct {
	Description string
	Unified     bool
}

// RealityRegistry assigns identifiers to realities and tracks their unification.
type RealityRegistry struct {
	store *Store[Reality]
}

// NewRealityRegistry creates an empty registry. A nil alloc gives it its own numbering.
func NewRealityRegistry(alloc *Allocator) *RealityRegistry {
	return &RealityRegistry{store: NewStore[Reality](KindReality, alloc)}
}

// Register stores a new, not yet unified reality and returns its identifier.
func (r *RealityRegistry) Register(description string) ID {
	return r.store.Put(Reality{Description: description})
}

// Unify marks the reality under id as unified. Unifying twice is a no-op.
// Returns a *NotFoundError, with nothing changed, if id is absent.
func (r *RealityRegistry) Unify(id ID) error {
	return r.store.Update(id, func(rec *Reality) {
		rec.Unified = true
	})
}

// Get returns the reality stored under id, or a *NotFoundError.
func (r *RealityRegistry) Get(id ID) (Reality, error) {
	return r.store.Get(id)
}

// Len returns the number of registered realities.
func (r *RealityRegistry) Len() int {
	return r.store.Len()
}

// IDs returns all reality identifiers in ascending order.
func (r *RealityRegistry) IDs() []ID {
	return r.store.IDs()
}

// Reset drops every reality.
func (r *RealityRegistry) Reset() {
	r.store.Reset()
}
