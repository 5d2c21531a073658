package registry

// Set bundles one registry per contract.
type Set struct {
	Truths    *TruthRegistry
	Realities *RealityRegistry

	shared *Allocator // nil unless WithSharedAllocator
}

// SetOption configures NewSet.
type SetOption func(*setConfig)

type setConfig struct {
	shared bool
}

// WithSharedAllocator makes truths and realities draw identifiers from one
// counter, so no identifier is issued twice across kinds.
func WithSharedAllocator() SetOption {
	return func(c *setConfig) {
		c.shared = true
	}
}

// NewSet creates empty registries. By default each numbers its records from 0.
func NewSet(opts ...SetOption) *Set {
	var cfg setConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Set{}
	if cfg.shared {
		s.shared = NewAllocator()
	}
	s.Truths = NewTruthRegistry(s.shared)
	s.Realities = NewRealityRegistry(s.shared)
	return s
}

// Shared reports whether the registries share one allocator.
func (s *Set) Shared() bool {
	return s.shared != nil
}

// Reset empties both registries and restarts numbering at 0.
func (s *Set) Reset() {
	s.Truths.Reset()
	s.Realities.Reset()
	if s.shared != nil {
		s.shared.Reset()
	}
}

// ProposeTruth stores a truth and returns its id.
func (s *Set) ProposeTruth(statement string, confidence int64) ID {
	return s.Truths.Propose(statement, confidence)
}

// GetTruth returns the truth with id, or an error matching ErrNotFound.
func (s *Set) GetTruth(id ID) (Truth, error) {
	return s.Truths.Get(id)
}

// RegisterReality stores a reality and returns its id.
func (s *Set) RegisterReality(description string) ID {
	return s.Realities.Register(description)
}

// UnifyReality marks the reality with id unified. It is idempotent.
func (s *Set) UnifyReality(id ID) error {
	return s.Realities.Unify(id)
}

// GetReality returns the reality with id, or an error matching ErrNotFound.
func (s *Set) GetReality(id ID) (Reality, error) {
	return s.Realities.Get(id)
}
