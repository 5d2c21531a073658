package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/compiler"
	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/harness"
)

// ErrCodePrincipleFailed marks an operational principle whose scenario failed.
const ErrCodePrincipleFailed = "E011"

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SkipPrinciples bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Source     string                     `json:"source"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Principles *harness.ValidationResult  `json:"principles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [contracts-dir]",
		Short: "Validate contracts and run their operational principles",
		Long: `Validate CUE contracts without starting a runtime.

Checks syntax, schema rules and that every method binds to a runtime
operation, then runs the scenario each operational principle references.
Without a directory the --contracts directory, or the built-in contracts,
are validated.

Exit codes:
  0 - Contracts valid, all principles hold
  1 - Validation errors or failing principles
  2 - Command error (directory not found, no CUE files)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Config.ContractsDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(opts, dir, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipPrinciples, "skip-principles", false, "do not run operational principle scenarios")

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := ValidationResult{Source: "built-in"}
	if dir != "" {
		result.Source = dir
	}

	specs, _, fsys, err := compileContracts(dir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && !isSourceError(loadErr.Code) {
			result.Errors = []compiler.ValidationError{{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr),
			}}
			return outputValidationErrors(formatter, result)
		}
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d contract(s) from %s", len(specs), result.Source)

	if errs := compiler.ValidateSpecs(specs); len(errs) > 0 {
		result.Errors = errs
		return outputValidationErrors(formatter, result)
	}

	catalog, err := contract.NewCatalog(specs)
	if err != nil {
		result.Errors = []compiler.ValidationError{{Field: "catalog", Message: err.Error(), Code: ErrCodeBindFailed}}
		return outputValidationErrors(formatter, result)
	}

	if !opts.SkipPrinciples {
		principles, err := harness.ValidatePrinciples(cmd.Context(), catalog, fsys, harness.WithLogger(opts.Logger))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("running principles: %v", err), nil)
		}
		result.Principles = principles
		for _, f := range principles.Failures {
			formatter.VerboseLog("Principle failed: %s: %s", f.ContractName, f.Principle)
			result.Errors = append(result.Errors, compiler.ValidationError{
				Field:   "principle." + f.ContractName,
				Message: fmt.Sprintf("%q (%s): %s", f.Principle, f.ScenarioPath, f.Error),
				Code:    ErrCodePrincipleFailed,
			})
		}
		if len(result.Errors) > 0 {
			return outputValidationErrors(formatter, result)
		}
	}

	result.Valid = true
	return formatter.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ All contracts valid (%s)\n", result.Source)
		if p := result.Principles; p != nil {
			fmt.Fprintf(w, "  %d/%d principle scenario(s) passed", p.Passed, p.TotalScenarios)
			if p.Skipped > 0 {
				fmt.Fprintf(w, ", %d principle(s) without a scenario", p.Skipped)
			}
			fmt.Fprintln(w)
		}
	})
}

// isSourceError reports whether a load error code means the contracts could
// not be found at all, as opposed to being found and invalid.
func isSourceError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeNoFiles, ErrCodeScanError:
		return true
	default:
		return false
	}
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidationErrors outputs the validation errors of result.
// Validation failures exit with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	message := fmt.Sprintf("validation failed with %d error(s)", len(errs))
	return formatter.FailWith(ExitFailure, result, errs[0].Code, message, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, err := range errs {
			if err.Line > 0 {
				fmt.Fprintf(w, "line %d\n", err.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		}
	})
}
