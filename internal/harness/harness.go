package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/engine"
	"github.com/roach88/ontic/internal/ir"
)

// DefaultFlowToken is used when a scenario does not fix one.
const DefaultFlowToken = "test-flow-default"

// Harness runs one scenario against a fresh runtime.
type Harness struct {
	rt      *engine.Runtime
	journal *engine.MemoryJournal
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	specHash string
}

// WithLogger routes runtime and harness logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSpecHash stamps the scenario's calls with h.
func WithSpecHash(h string) Option {
	return func(o *options) {
		o.specHash = h
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh runtime with an in-memory journal, a fixed
// flow token and a clock starting at zero, so the trace is reproducible.
//
// Execution flow:
// 1. Execute setup steps (each must succeed)
// 2. Execute flow steps, checking expect clauses
// 3. Build the trace from the journal
// 4. Evaluate assertions against the trace and the registries
//
// The error is non-nil only when the scenario could not be executed.
// Expectation and assertion failures are reported in Result.Errors.
func Run(ctx context.Context, catalog *contract.Catalog, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	flowToken := scenario.FlowToken
	if flowToken == "" {
		flowToken = DefaultFlowToken
	}

	journal := engine.NewMemoryJournal()
	rtOpts := []engine.Option{
		engine.WithJournal(journal),
		engine.WithFlowGenerator(engine.NewFixedGenerator(flowToken)),
		engine.WithLogger(o.logger),
		engine.WithSpecHash(o.specHash),
	}
	if scenario.SharedIDs {
		rtOpts = append(rtOpts, engine.WithSharedIDs())
	}

	h := &Harness{
		rt:      engine.New(catalog, rtOpts...),
		journal: journal,
		logger:  o.logger,
	}
	h.rt.NewFlow()

	result := NewResult()
	result.FlowToken = flowToken

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	entries, err := journal.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	for _, e := range entries {
		result.AddEntry(e)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, h.rt) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. A setup call that fails is an error.
func (h *Harness) executeSetup(ctx context.Context, setup []CallStep) error {
	for i, step := range setup {
		res, err := h.call(ctx, step.Call, step.Args)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if !res.Success {
			return fmt.Errorf("setup step %d: %s failed: %v", i, step.Call, res.Err)
		}
		h.logger.Info("setup step completed", "step", i, "method", step.Call)
	}
	return nil
}

// executeFlow runs all flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		res, err := h.call(ctx, step.Call, step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, res) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Call, msg))
			}
		}

		outCase, _ := res.Outcome()
		h.logger.Info("flow step completed",
			"step", i,
			"method", step.Call,
			"output_case", outCase,
		)
	}
	return nil
}

func (h *Harness) call(ctx context.Context, method string, raw []any) (contract.Result, error) {
	args, err := convertArgs(raw)
	if err != nil {
		return contract.Result{}, fmt.Errorf("failed to convert args: %w", err)
	}
	return h.rt.Call(ctx, method, args...)
}

// checkExpect compares res with the fields the clause sets.
func checkExpect(exp *ExpectClause, res contract.Result) []string {
	var errs []string

	if *exp.Success != res.Success {
		errs = append(errs, fmt.Sprintf("expected success=%v, got %v (%s)", *exp.Success, res.Success, describe(res)))
		return errs
	}

	if exp.Value != nil {
		want, err := ir.FromAny(exp.Value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expected value: %v", err))
		} else if res.Value == nil || !ir.Equal(want, res.Value) {
			errs = append(errs, fmt.Sprintf("expected value %s, got %s", formatValue(want), formatValue(res.Value)))
		}
	}

	if res.Err == nil {
		return errs
	}
	if exp.Kind != "" && exp.Kind != string(res.Err.Kind) {
		errs = append(errs, fmt.Sprintf("expected kind %q, got %q", exp.Kind, res.Err.Kind))
	}
	if exp.Code != 0 && exp.Code != res.Err.Code {
		errs = append(errs, fmt.Sprintf("expected code %d, got %d", exp.Code, res.Err.Code))
	}
	if exp.Message != "" && exp.Message != res.Err.Message {
		errs = append(errs, fmt.Sprintf("expected message %q, got %q", exp.Message, res.Err.Message))
	}
	return errs
}

func describe(res contract.Result) string {
	if res.Success {
		return "value " + formatValue(res.Value)
	}
	if res.Err == nil {
		return "no error"
	}
	return res.Err.Error()
}

// formatValue renders v as canonical JSON for messages.
func formatValue(v ir.Value) string {
	if v == nil {
		return "<none>"
	}
	if _, ok := v.(ir.Null); ok {
		return "null"
	}
	data, err := ir.MarshalVerbatim(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// convertArgs converts YAML-decoded positional args to IR values.
// Nulls are rejected: they never reach a contract method.
func convertArgs(raw []any) ([]ir.Value, error) {
	args := make([]ir.Value, len(raw))
	for i, val := range raw {
		if val == nil {
			return nil, fmt.Errorf("args[%d]: null is not a valid argument", i)
		}
		v, err := ir.FromAny(val)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}
