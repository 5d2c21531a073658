package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	FlowToken  string
	Method     string // optional - filter to one method
	Case       string
	Incomplete bool
	Since      int64
	Limit      int
}

// searching reports whether a journal-wide filter was requested.
func (o *TraceOptions) searching() bool {
	return o.Case != "" || o.Incomplete || o.Since > 0 || o.Limit > 0 || o.Method != ""
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq    int64     `json:"seq"`
	Type   string    `json:"type"` // "call" or "outcome"
	ID     string    `json:"id"`
	Method string    `json:"method,omitempty"`
	Args   ir.List   `json:"args,omitempty"`
	Case   string    `json:"case,omitempty"`
	Result ir.Object `json:"result,omitempty"`
}

// TraceResult holds the timeline of one flow.
type TraceResult struct {
	FlowToken string       `json:"flow_token"`
	Timeline  []TraceEvent `json:"timeline"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int  `json:"total_events"`
	Calls       int  `json:"calls"`
	Outcomes    int  `json:"outcomes"`
	Failures    int  `json:"failures"`
	IsComplete  bool `json:"is_complete"`
}

// SearchResult holds the entries matching a journal-wide filter.
type SearchResult struct {
	Query   store.Query `json:"query"`
	Matches []SearchHit `json:"matches"`
}

// SearchHit is one matching call and its outcome, if any.
type SearchHit struct {
	FlowToken string      `json:"flow_token"`
	Call      TraceEvent  `json:"call"`
	Outcome   *TraceEvent `json:"outcome,omitempty"`
}

// FlowList is printed when no flow is selected.
type FlowList struct {
	Flows []string    `json:"flows"`
	Stats store.Stats `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled timeline of a flow",
		Long: `Show the journal of one flow as a timeline of calls and outcomes.

Without --flow, list the journal's flow tokens and summary statistics, or
with --method, --case, --incomplete or --since, search every flow.

Examples:
  ontic trace --db ./ontic.db
  ontic trace --db ./ontic.db --flow 0190f7d2-...
  ontic trace --db ./ontic.db --flow 0190f7d2-... --method get-truth
  ontic trace --db ./ontic.db --flow 0190f7d2-... --format json
  ontic trace --db ./ontic.db --case NotFound
  ontic trace --db ./ontic.db --incomplete`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	addDatabaseFlags(cmd, " (required)")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "flow token to trace")
	cmd.Flags().StringVar(&opts.Method, "method", "", "only show calls to this method")
	cmd.Flags().StringVar(&opts.Case, "case", "", "search calls whose outcome has this case (Success, NotFound, ...)")
	cmd.Flags().BoolVar(&opts.Incomplete, "incomplete", false, "search calls with no journaled outcome")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "search calls at or after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop a search after this many calls")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	db := opts.Config.Database

	if db == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, "a database is required: pass --db or set database in ontic.toml", nil)
	}
	if err := requireFile(db); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	st, err := openStore(db, opts.Logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()

	if opts.FlowToken == "" && opts.searching() {
		return runSearch(opts, st, formatter, cmd)
	}
	if opts.FlowToken == "" {
		tokens, err := st.ListFlowTokens(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to list flows: %v", err), nil)
		}
		stats, err := st.Stats(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read stats: %v", err), nil)
		}
		list := FlowList{Flows: tokens, Stats: stats}
		return formatter.Emit(list, func(w io.Writer) {
			printFlowList(w, list)
		})
	}

	entries, err := st.ReadFlow(ctx, opts.FlowToken)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read flow: %v", err), nil)
	}
	if len(entries) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("flow not found: %s", opts.FlowToken), nil)
	}

	result := buildTrace(opts.FlowToken, entries, opts.Method)
	return formatter.Emit(result, func(w io.Writer) {
		printTrace(w, result)
	})
}

func runSearch(opts *TraceOptions, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	q := store.Query{
		Method:     opts.Method,
		Case:       opts.Case,
		Incomplete: opts.Incomplete,
		FromSeq:    opts.Since,
		Limit:      opts.Limit,
	}
	entries, err := st.Find(cmd.Context(), q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, fmt.Sprintf("invalid search: %v", err), nil)
	}

	result := SearchResult{Query: q, Matches: make([]SearchHit, 0, len(entries))}
	for _, e := range entries {
		hit := SearchHit{FlowToken: e.Call.FlowToken, Call: callEvent(e)}
		if e.Outcome != nil {
			ev := outcomeEvent(e)
			hit.Outcome = &ev
		}
		result.Matches = append(result.Matches, hit)
	}
	return formatter.Emit(result, func(w io.Writer) {
		printSearch(w, result)
	})
}

// buildTrace flattens entries into a seq-ordered timeline. Stats always
// cover the whole flow; method only filters the timeline.
func buildTrace(flowToken string, entries []store.Entry, method string) TraceResult {
	result := TraceResult{FlowToken: flowToken, Timeline: []TraceEvent{}}

	for _, e := range entries {
		result.Stats.Calls++
		if e.Outcome != nil {
			result.Stats.Outcomes++
			if e.Outcome.Case != contract.CaseSuccess {
				result.Stats.Failures++
			}
		}

		if method != "" && e.Call.Method != method {
			continue
		}
		result.Timeline = append(result.Timeline, callEvent(e))
		if e.Outcome != nil {
			result.Timeline = append(result.Timeline, outcomeEvent(e))
		}
	}

	sort.SliceStable(result.Timeline, func(i, j int) bool {
		return result.Timeline[i].Seq < result.Timeline[j].Seq
	})
	result.Stats.TotalEvents = result.Stats.Calls + result.Stats.Outcomes
	result.Stats.IsComplete = result.Stats.Calls == result.Stats.Outcomes
	return result
}

func callEvent(e store.Entry) TraceEvent {
	return TraceEvent{
		Seq:    e.Call.Seq,
		Type:   "call",
		ID:     e.Call.ID,
		Method: e.Call.Method,
		Args:   e.Call.Args,
	}
}

// outcomeEvent requires e.Outcome.
func outcomeEvent(e store.Entry) TraceEvent {
	return TraceEvent{
		Seq:    e.Outcome.Seq,
		Type:   "outcome",
		ID:     e.Outcome.ID,
		Method: e.Call.Method,
		Case:   e.Outcome.Case,
		Result: e.Outcome.Result,
	}
}

func printSearch(w io.Writer, result SearchResult) {
	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "No matching calls.")
		return
	}
	for _, hit := range result.Matches {
		fmt.Fprintf(w, "[%d] %s %s %s", hit.Call.Seq, hit.FlowToken, hit.Call.Method, canonicalText(hit.Call.Args))
		if hit.Outcome != nil {
			fmt.Fprintf(w, " ← %s %s\n", hit.Outcome.Case, canonicalText(hit.Outcome.Result))
		} else {
			fmt.Fprintln(w, " ← (no outcome)")
		}
	}
	fmt.Fprintf(w, "\n%d matching call(s)\n", len(result.Matches))
}

func printTrace(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Flow %s\n\n", result.FlowToken)

	for _, ev := range result.Timeline {
		switch ev.Type {
		case "call":
			fmt.Fprintf(w, "[%d] → %s %s\n", ev.Seq, ev.Method, canonicalText(ev.Args))
		case "outcome":
			fmt.Fprintf(w, "[%d] ← %s %s\n", ev.Seq, ev.Case, canonicalText(ev.Result))
		}
	}

	s := result.Stats
	status := "complete"
	if !s.IsComplete {
		status = "incomplete"
	}
	fmt.Fprintf(w, "\n%d call(s), %d outcome(s), %d failure(s), %s\n", s.Calls, s.Outcomes, s.Failures, status)
}

func printFlowList(w io.Writer, list FlowList) {
	if len(list.Flows) == 0 {
		fmt.Fprintln(w, "No flows found in database.")
		return
	}

	fmt.Fprintf(w, "%d flow(s), %d call(s), %d outcome(s), last seq %d\n\n",
		list.Stats.Flows, list.Stats.Calls, list.Stats.Outcomes, list.Stats.LastSeq)
	for _, token := range list.Flows {
		fmt.Fprintf(w, "  %s\n", token)
	}

	if len(list.Stats.ByMethod) > 0 {
		fmt.Fprintln(w, "\nCalls by method:")
		for _, k := range sortedKeys(list.Stats.ByMethod) {
			fmt.Fprintf(w, "  %-18s %d\n", k, list.Stats.ByMethod[k])
		}
	}
	if len(list.Stats.ByCase) > 0 {
		fmt.Fprintln(w, "\nOutcomes by case:")
		for _, k := range sortedKeys(list.Stats.ByCase) {
			fmt.Fprintf(w, "  %-18s %d\n", k, list.Stats.ByCase[k])
		}
	}
	if list.Stats.Incomplete > 0 {
		fmt.Fprintf(w, "\n%d call(s) with no outcome\n", list.Stats.Incomplete)
	}
}

func canonicalText(v ir.Value) string {
	data, err := ir.MarshalVerbatim(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
