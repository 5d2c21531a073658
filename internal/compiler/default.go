package compiler

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/ontic/internal/ir"
)

//go:embed contracts/*.cue contracts/scenarios/*.yaml
var builtin embed.FS

var (
	defaultOnce  sync.Once
	defaultSpecs []ir.ContractSpec
	defaultHash  string
	defaultErr   error
)

// Default returns the built-in FundamentalTruth and OntologicalUnification
// contracts, compiled once.
func Default() ([]ir.ContractSpec, error) {
	defaultOnce.Do(func() {
		defaultSpecs, defaultHash, defaultErr = CompileFS(builtin, "contracts")
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	out := make([]ir.ContractSpec, len(defaultSpecs))
	copy(out, defaultSpecs)
	return out, nil
}

// Sources returns the built-in contract directory: the .cue files plus the
// scenarios their operational principles reference.
func Sources() fs.FS {
	sub, err := fs.Sub(builtin, "contracts")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultHash is the spec hash of the built-in contract sources.
func DefaultHash() (string, error) {
	if _, err := Default(); err != nil {
		return "", err
	}
	return defaultHash, nil
}

// CompileFS compiles every .cue file directly under dir in fsys as one unit
// and returns the contracts plus a hash of the concatenated sources.
func CompileFS(fsys fs.FS, dir string) ([]ir.ContractSpec, string, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.cue"))
	if err != nil {
		return nil, "", fmt.Errorf("listing contracts: %w", err)
	}
	if len(names) == 0 {
		return nil, "", fmt.Errorf("no CUE files in %s", dir)
	}
	sort.Strings(names)

	ctx := cuecontext.New()
	var (
		value  cue.Value
		source []byte
	)
	for i, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", name, err)
		}
		source = append(source, data...)
		v := ctx.CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return nil, "", formatCUEError(err)
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}

	specs, err := CompileAll(value)
	if err != nil {
		return nil, "", err
	}
	return specs, ir.SpecHash(source), nil
}
