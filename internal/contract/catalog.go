package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/registry"
)

// binder builds an operation from arguments already checked against the
// method signature, keyed by parameter name.
type binder func(args map[string]ir.Value) Operation

var binders = map[string]binder{
	MethodProposeTruth: func(a map[string]ir.Value) Operation {
		return ProposeTruth{Statement: string(a["statement"].(ir.Str)), Confidence: int64(a["confidence"].(ir.Int))}
	},
	MethodGetTruth: func(a map[string]ir.Value) Operation {
		return GetTruth{ID: registry.ID(a["id"].(ir.Int))}
	},
	MethodRegisterReality: func(a map[string]ir.Value) Operation {
		return RegisterReality{Description: string(a["description"].(ir.Str))}
	},
	MethodUnifyReality: func(a map[string]ir.Value) Operation {
		return UnifyReality{ID: registry.ID(a["id"].(ir.Int))}
	},
	MethodGetReality: func(a map[string]ir.Value) Operation {
		return GetReality{ID: registry.ID(a["id"].(ir.Int))}
	},
}

// expected parameter names and types per method; a contract that declares
// different ones cannot be bound.
var wantSigs = map[string][]ir.NamedArg{
	MethodProposeTruth:    {{Name: "statement", Type: ir.TypeString}, {Name: "confidence", Type: ir.TypeInt}},
	MethodGetTruth:        {{Name: "id", Type: ir.TypeInt}},
	MethodRegisterReality: {{Name: "description", Type: ir.TypeString}},
	MethodUnifyReality:    {{Name: "id", Type: ir.TypeInt}},
	MethodGetReality:      {{Name: "id", Type: ir.TypeInt}},
}

type entry struct {
	contract string
	sig      ir.MethodSig
	bind     binder
}

// Catalog resolves wire method names against compiled contracts.
type Catalog struct {
	specs   []ir.ContractSpec
	methods map[string]entry
}

// NewCatalog binds every declared method to its operation. It fails when a
// contract declares a method with no operation, when an operation has no
// declaration, or when a declared signature differs from the operation's.
func NewCatalog(specs []ir.ContractSpec) (*Catalog, error) {
	c := &Catalog{
		specs:   specs,
		methods: make(map[string]entry),
	}
	for _, spec := range specs {
		for _, m := range spec.Methods {
			if errs := m.Validate(); len(errs) > 0 {
				return nil, fmt.Errorf("%s.%s: %w", spec.Name, m.Name, errs[0])
			}
			if prev, ok := c.methods[m.Call]; ok {
				return nil, fmt.Errorf("method %q declared by both %s and %s", m.Call, prev.contract, spec.Name)
			}
			bind, ok := binders[m.Call]
			if !ok {
				return nil, fmt.Errorf("%s declares %q, which has no operation", spec.Name, m.Call)
			}
			if !sameArgs(m.Args, wantSigs[m.Call]) {
				return nil, fmt.Errorf("%s.%s: signature (%s) does not match operation (%s)",
					spec.Name, m.Name, formatArgs(m.Args), formatArgs(wantSigs[m.Call]))
			}
			c.methods[m.Call] = entry{contract: spec.Name, sig: m, bind: bind}
		}
	}
	for call := range binders {
		if _, ok := c.methods[call]; !ok {
			return nil, fmt.Errorf("operation %q is not declared by any contract", call)
		}
	}
	return c, nil
}

// Decode binds positional args to the declared parameters of method.
// Unknown methods and mismatched arguments are returned as CallErrors.
func (c *Catalog) Decode(method string, args ir.List) (Operation, *CallError) {
	e, ok := c.methods[method]
	if !ok {
		return nil, UnknownMethod()
	}
	params := e.sig.Args
	if len(args) != len(params) {
		return nil, InvalidArgs("%s expects %d argument(s) (%s), got %d",
			method, len(params), formatArgs(params), len(args))
	}
	bound := make(map[string]ir.Value, len(params))
	for i, p := range params {
		if got := ir.TypeOf(args[i]); got != p.Type {
			return nil, InvalidArgs("%s argument %d (%s): expected %s, got %s",
				method, i, p.Name, p.Type, got)
		}
		bound[p.Name] = args[i]
	}
	return e.bind(bound), nil
}

// Lookup returns the signature and owning contract of a wire method.
func (c *Catalog) Lookup(method string) (ir.MethodSig, string, bool) {
	e, ok := c.methods[method]
	return e.sig, e.contract, ok
}

// Contract returns the name of the contract declaring method, or "".
func (c *Catalog) Contract(method string) string {
	return c.methods[method].contract
}

// Methods lists wire names in sorted order.
func (c *Catalog) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the contracts the catalog was built from.
func (c *Catalog) Specs() []ir.ContractSpec {
	return c.specs
}

func sameArgs(a, b []ir.NamedArg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatArgs(args []ir.NamedArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + " " + a.Type
	}
	return strings.Join(parts, ", ")
}
