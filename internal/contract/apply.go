package contract

import (
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/registry"
)

// Backend holds the records operations act on. *registry.Set implements it.
type Backend interface {
	ProposeTruth(statement string, confidence int64) registry.ID
	GetTruth(id registry.ID) (registry.Truth, error)
	RegisterReality(description string) registry.ID
	UnifyReality(id registry.ID) error
	GetReality(id registry.ID) (registry.Reality, error)
}

// Apply executes op against b.
func Apply(b Backend, op Operation) Result {
	if op == nil {
		return Fail(UnknownMethod())
	}
	return op.apply(b)
}

func (o ProposeTruth) apply(b Backend) Result {
	return Ok(ir.Int(b.ProposeTruth(o.Statement, o.Confidence)))
}

func (o GetTruth) apply(b Backend) Result {
	t, err := b.GetTruth(o.ID)
	if err != nil {
		return failFrom(err)
	}
	return Ok(TruthValue(t))
}

func (o RegisterReality) apply(b Backend) Result {
	return Ok(ir.Int(b.RegisterReality(o.Description)))
}

func (o UnifyReality) apply(b Backend) Result {
	if err := b.UnifyReality(o.ID); err != nil {
		return failFrom(err)
	}
	return Ok(nil)
}

func (o GetReality) apply(b Backend) Result {
	r, err := b.GetReality(o.ID)
	if err != nil {
		return failFrom(err)
	}
	return Ok(RealityValue(r))
}

// failFrom converts a registry error into a failed result. Registries only
// fail on missing records.
func failFrom(err error) Result {
	return Fail(NotFound(err))
}

// TruthValue renders a truth record as {statement, confidence}.
func TruthValue(t registry.Truth) ir.Object {
	return ir.Object{
		"statement":  ir.Str(t.Statement),
		"confidence": ir.Int(t.Confidence),
	}
}

// RealityValue renders a reality record as {description, unified}.
func RealityValue(r registry.Reality) ir.Object {
	return ir.Object{
		"description": ir.Str(r.Description),
		"unified":     ir.Bool(r.Unified),
	}
}
