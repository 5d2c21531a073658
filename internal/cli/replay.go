package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/engine"
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/store"
)

// ErrCodeNonDeterministic marks a journal whose replay disagrees with it.
const ErrCodeNonDeterministic = "E_REPLAY_MISMATCH"

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// ReplayFlowResult holds per-flow statistics.
type ReplayFlowResult struct {
	FlowToken  string `json:"flow_token"`
	Calls      int    `json:"calls"`
	Outcomes   int    `json:"outcomes"`
	IsComplete bool   `json:"is_complete"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Report        *engine.ReplayReport `json:"report"`
	Flows         []ReplayFlowResult   `json:"flows"`
	TotalFlows    int                  `json:"total_flows"`
	Truths        int                  `json:"truths"`
	Realities     int                  `json:"realities"`
	Deterministic bool                 `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay the journal into fresh registries and verify determinism.

Every journaled call is re-executed in seq order. Each recomputed outcome
must equal the journaled one, and a second replay must reach the same
registry state. Nothing is written to the journal.

Exit codes:
  0 - The journal replays exactly
  1 - Mismatches found (contracts changed, or the journal was edited)
  2 - Command error (database not found, etc.)

Examples:
  ontic replay --db ./ontic.db
  ontic replay --db ./ontic.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	addDatabaseFlags(cmd, " (required)")
	cmd.Flags().Bool("shared-ids", false, "the journal was recorded with one id counter")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.Config

	if cfg.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, "a database is required: pass --db or set database in ontic.toml", nil)
	}
	if err := requireFile(cfg.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	c, err := LoadContracts(cfg.ContractsDir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	st, err := openStore(cfg.Database, opts.Logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()
	if err := checkIDMode(cmd.Context(), st, cfg.SharedIDs); err != nil {
		return reportLoadError(formatter, err)
	}

	first, firstState, err := replayOnce(cmd, opts, c, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("replay failed: %v", err), nil)
	}
	_, secondState, err := replayOnce(cmd, opts, c, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("replay failed: %v", err), nil)
	}

	stateMatch := string(firstState) == string(secondState)
	if !stateMatch {
		opts.Logger.Warn("registry state differs between replays")
	}

	result := ReplayResult{
		Report:        first.report,
		Truths:        first.truths,
		Realities:     first.realities,
		Deterministic: first.report.OK() && stateMatch,
	}
	result.Flows, err = flowResults(cmd, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read flows: %v", err), nil)
	}
	result.TotalFlows = len(result.Flows)

	if !result.Deterministic {
		msg := fmt.Sprintf("journal does not replay: %d mismatch(es)", len(first.report.Mismatches))
		if !stateMatch {
			msg = "journal does not replay: registry state differs between replays"
		}
		return formatter.FailWith(ExitFailure, result, ErrCodeNonDeterministic, msg, func(w io.Writer) {
			printReplay(w, result, opts.Verbose)
		})
	}

	return formatter.Emit(result, func(w io.Writer) {
		printReplay(w, result, opts.Verbose)
	})
}

type replayRun struct {
	report    *engine.ReplayReport
	truths    int
	realities int
}

// replayOnce replays the journal into a fresh runtime and returns its report
// and a canonical snapshot of the registries it rebuilt.
func replayOnce(cmd *cobra.Command, opts *ReplayOptions, c *Contracts, st *store.Store) (replayRun, []byte, error) {
	rtOpts := []engine.Option{engine.WithLogger(opts.Logger), engine.WithSpecHash(c.Hash)}
	if opts.Config.SharedIDs {
		rtOpts = append(rtOpts, engine.WithSharedIDs())
	}
	rt := engine.New(c.Catalog, rtOpts...)

	report, err := rt.Replay(cmd.Context(), st)
	if err != nil {
		return replayRun{}, nil, err
	}
	snapshot, err := stateSnapshot(rt)
	if err != nil {
		return replayRun{}, nil, err
	}
	return replayRun{
		report:    report,
		truths:    rt.Truths().Len(),
		realities: rt.Realities().Len(),
	}, snapshot, nil
}

// stateSnapshot renders both registries as canonical JSON keyed by id.
func stateSnapshot(rt *engine.Runtime) ([]byte, error) {
	truths := ir.Object{}
	for _, id := range rt.Truths().IDs() {
		t, err := rt.Truths().Get(id)
		if err != nil {
			return nil, err
		}
		truths[strconv.FormatInt(int64(id), 10)] = contract.TruthValue(t)
	}
	realities := ir.Object{}
	for _, id := range rt.Realities().IDs() {
		r, err := rt.Realities().Get(id)
		if err != nil {
			return nil, err
		}
		realities[strconv.FormatInt(int64(id), 10)] = contract.RealityValue(r)
	}
	return ir.MarshalVerbatim(ir.Object{"truths": truths, "realities": realities})
}

// flowResults counts calls and outcomes per flow.
func flowResults(cmd *cobra.Command, st *store.Store) ([]ReplayFlowResult, error) {
	tokens, err := st.ListFlowTokens(cmd.Context())
	if err != nil {
		return nil, err
	}
	flows := make([]ReplayFlowResult, 0, len(tokens))
	for _, token := range tokens {
		entries, err := st.ReadFlow(cmd.Context(), token)
		if err != nil {
			return nil, err
		}
		fr := ReplayFlowResult{FlowToken: token, Calls: len(entries)}
		for _, e := range entries {
			if e.Outcome != nil {
				fr.Outcomes++
			}
		}
		fr.IsComplete = fr.Outcomes == fr.Calls
		flows = append(flows, fr)
	}
	return flows, nil
}

func printReplay(w io.Writer, result ReplayResult, verbose bool) {
	report := result.Report
	if report.Calls == 0 {
		fmt.Fprintln(w, "Journal is empty.")
		return
	}

	fmt.Fprintf(w, "Replayed %d call(s) across %d flow(s), last seq %d\n", report.Calls, result.TotalFlows, report.LastSeq)
	fmt.Fprintf(w, "  truths: %d, realities: %d\n", result.Truths, result.Realities)

	if verbose {
		for _, f := range result.Flows {
			status := "complete"
			if !f.IsComplete {
				status = "incomplete"
			}
			fmt.Fprintf(w, "  %s: %d call(s), %d outcome(s), %s\n", f.FlowToken, f.Calls, f.Outcomes, status)
		}
	}

	if n := len(report.Incomplete); n > 0 {
		fmt.Fprintf(w, "  %d call(s) with no journaled outcome\n", n)
	}
	for _, m := range report.Mismatches {
		fmt.Fprintf(w, "  ✗ %s\n", m.Error())
	}

	fmt.Fprintln(w)
	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay is deterministic")
	} else {
		fmt.Fprintln(w, "✗ Replay is not deterministic")
	}
}
