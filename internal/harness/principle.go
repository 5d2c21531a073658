package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// ScenarioNotFoundError is returned when a referenced scenario file doesn't exist.
type ScenarioNotFoundError struct {
	Principle    string
	ScenarioPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf(
		"operational principle %q references scenario file %q which does not exist",
		e.Principle,
		e.ScenarioPath,
	)
}

// ExtractScenarios returns the scenario file a principle references,
// checked to exist in fsys. Principles stated only in prose return an
// empty slice.
func ExtractScenarios(principle ir.OperationalPrinciple, fsys fs.FS) ([]string, error) {
	if principle.Scenario == "" {
		return []string{}, nil
	}

	name := path.Clean(principle.Scenario)
	if _, err := fs.Stat(fsys, name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ScenarioNotFoundError{
				Principle:    principle.Description,
				ScenarioPath: principle.Scenario,
			}
		}
		return nil, err
	}
	return []string{name}, nil
}

// ValidationResult contains results from validating operational principles.
type ValidationResult struct {
	TotalPrinciples int                `json:"total_principles"`
	TotalScenarios  int                `json:"total_scenarios"`
	Passed          int                `json:"passed"`
	Failed          int                `json:"failed"`
	Skipped         int                `json:"skipped"` // Principles without scenarios
	Failures        []PrincipleFailure `json:"failures,omitempty"`
}

// PrincipleFailure represents a failed operational principle validation.
type PrincipleFailure struct {
	ContractName string `json:"contract_name"`
	Principle    string `json:"principle"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// ValidatePrinciples runs the scenario behind every operational principle
// in the catalog's contracts. Scenario paths resolve inside fsys, the
// contract source directory.
func ValidatePrinciples(ctx context.Context, catalog *contract.Catalog, fsys fs.FS, opts ...Option) (*ValidationResult, error) {
	result := &ValidationResult{}

	for _, spec := range catalog.Specs() {
		for _, principle := range spec.Principles {
			result.TotalPrinciples++

			fail := func(scenarioPath, msg string) {
				result.Failed++
				result.Failures = append(result.Failures, PrincipleFailure{
					ContractName: spec.Name,
					Principle:    principle.Description,
					ScenarioPath: scenarioPath,
					Error:        msg,
				})
			}

			scenarioPaths, err := ExtractScenarios(principle, fsys)
			if err != nil {
				fail(principle.Scenario, err.Error())
				continue
			}
			if len(scenarioPaths) == 0 {
				result.Skipped++
				continue
			}

			for _, scenarioPath := range scenarioPaths {
				result.TotalScenarios++

				scenario, err := LoadScenarioFS(fsys, scenarioPath)
				if err != nil {
					fail(scenarioPath, fmt.Sprintf("failed to load scenario: %v", err))
					continue
				}

				runResult, err := Run(ctx, catalog, scenario, opts...)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return result, ctxErr
					}
					fail(scenarioPath, fmt.Sprintf("scenario execution failed: %v", err))
					continue
				}

				if !runResult.Pass {
					fail(scenarioPath, fmt.Sprintf("scenario assertions failed: %v", runResult.Errors))
					continue
				}

				result.Passed++
			}
		}
	}

	return result, nil
}
