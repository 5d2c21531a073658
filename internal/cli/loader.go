package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/ontic/internal/compiler"
	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// LoadError represents an error that occurred while loading contracts.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Contracts is a compiled contract set and the directory it came from.
type Contracts struct {
	Specs   []ir.ContractSpec
	Catalog *contract.Catalog
	Hash    string
	// Source holds the .cue files and the scenarios their principles reference.
	Source fs.FS
	// Dir is the contract directory, or "" for the built-in contracts.
	Dir string
}

// Name describes where the contracts came from.
func (c *Contracts) Name() string {
	if c.Dir == "" {
		return "built-in"
	}
	return c.Dir
}

// compileContracts compiles every .cue file in dir, or the built-in
// contracts when dir is empty. Specs are not validated.
func compileContracts(dir string) ([]ir.ContractSpec, string, fs.FS, error) {
	if dir == "" {
		specs, err := compiler.Default()
		if err != nil {
			return nil, "", nil, convertCompileError(err, "built-in contracts")
		}
		hash, _ := compiler.DefaultHash()
		return specs, hash, compiler.Sources(), nil
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("contracts directory not found: %s", dir)}
	}
	if err != nil {
		return nil, "", nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing contracts directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, "", nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	fsys := os.DirFS(dir)
	names, err := fs.Glob(fsys, "*.cue")
	if err != nil {
		return nil, "", nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(names) == 0 {
		return nil, "", nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	specs, hash, err := compiler.CompileFS(fsys, ".")
	if err != nil {
		return nil, "", nil, convertCompileError(err, dir)
	}
	return specs, hash, fsys, nil
}

// LoadContracts compiles, validates and binds the contracts in dir
// (built-in when dir is empty).
func LoadContracts(dir string) (*Contracts, error) {
	specs, hash, fsys, err := compileContracts(dir)
	if err != nil {
		return nil, err
	}

	if verrs := compiler.ValidateSpecs(specs); len(verrs) > 0 {
		return nil, &LoadError{Code: verrs[0].Code, Message: verrs[0].Error()}
	}

	catalog, err := contract.NewCatalog(specs)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBindFailed, Message: err.Error()}
	}

	return &Contracts{
		Specs:   specs,
		Catalog: catalog,
		Hash:    hash,
		Source:  fsys,
		Dir:     dir,
	}, nil
}

// convertCompileError converts a compiler error to a LoadError.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapCompileErrorToCode(compileErr),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBindFailed  = "E008" // Contracts do not match the runtime's operations
	ErrCodeDatabase    = "E009" // Journal could not be opened or read
	ErrCodeBadArgs     = "E010" // Command-line call arguments could not be parsed
)

// MapCompileErrorToCode maps a compiler error to a validation error code.
func MapCompileErrorToCode(e *compiler.CompileError) string {
	switch {
	case e.Field == "purpose":
		return compiler.ErrContractPurposeEmpty
	case e.Field == "method":
		return compiler.ErrContractNoMethods
	case e.Field == "cue":
		return ErrCodeBuildFailed
	case e.Field == "contract":
		return ErrCodeLoadFailed
	case strings.HasSuffix(e.Field, ".call"):
		return compiler.ErrMissingWireName
	case strings.HasSuffix(e.Field, ".outputs"):
		return compiler.ErrMethodNoOutputs
	case strings.Contains(e.Message, "float"):
		return compiler.ErrFloatTypeForbidden
	case strings.HasPrefix(e.Field, "method.") || strings.HasPrefix(e.Field, "record."):
		return compiler.ErrInvalidFieldType
	default:
		return ErrCodeGeneric
	}
}
