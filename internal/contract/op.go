package contract

import (
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/registry"
)

// Wire method names.
const (
	MethodProposeTruth    = "propose-truth"
	MethodGetTruth        = "get-truth"
	MethodRegisterReality = "register-reality"
	MethodUnifyReality    = "unify-reality"
	MethodGetReality      = "get-reality"
)

// Operation is one of the closed set of calls the registries accept.
type Operation interface {
	// Method returns the wire method name.
	Method() string
	// Args returns the positional arguments in declaration order.
	Args() ir.List

	apply(b Backend) Result
}

// ProposeTruth adds a truth and returns its id. Confidence is stored as
// given; no range is enforced.
type ProposeTruth struct {
	Statement  string
	Confidence int64
}

// GetTruth returns the truth with ID, or a 404 when there is none.
type GetTruth struct {
	ID registry.ID
}

// RegisterReality adds a reality, not yet unified, and returns its id.
type RegisterReality struct {
	Description string
}

// UnifyReality marks the reality with ID unified. Unifying twice succeeds.
type UnifyReality struct {
	ID registry.ID
}

// GetReality returns the reality with ID, or a 404 when there is none.
type GetReality struct {
	ID registry.ID
}

func (ProposeTruth) Method() string    { return MethodProposeTruth }
func (GetTruth) Method() string        { return MethodGetTruth }
func (RegisterReality) Method() string { return MethodRegisterReality }
func (UnifyReality) Method() string    { return MethodUnifyReality }
func (GetReality) Method() string      { return MethodGetReality }

func (o ProposeTruth) Args() ir.List {
	return ir.List{ir.Str(o.Statement), ir.Int(o.Confidence)}
}

func (o GetTruth) Args() ir.List        { return ir.List{ir.Int(o.ID)} }
func (o RegisterReality) Args() ir.List { return ir.List{ir.Str(o.Description)} }
func (o UnifyReality) Args() ir.List    { return ir.List{ir.Int(o.ID)} }
func (o GetReality) Args() ir.List      { return ir.List{ir.Int(o.ID)} }
