package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	JSONArgs string
}

// InvokeResult is the outcome of one invoke.
type InvokeResult struct {
	Method    string          `json:"method"`
	FlowToken string          `json:"flow_token"`
	Seq       int64           `json:"seq"`
	Result    contract.Result `json:"result"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <method> [args...]",
		Short: "Call one method and print its result",
		Long: `Call one contract method and print the wire result.

Positional arguments are parsed against the method's signature: ints and
bools are parsed, arrays and objects are read as JSON, anything else is
passed as a string. --json passes the whole argument list as a JSON array.

With --db the journal is replayed first, so ids continue from earlier calls,
and the new call is appended to it.

Flags may follow the arguments. A negative number would be read as a flag,
so put -- before the method and its arguments to pass one.

Exit codes:
  0 - The call succeeded
  1 - The call failed (not found, unknown method, invalid arguments)
  2 - Command error (unreadable database, bad --json)

Examples:
  ontic invoke propose-truth "water is wet" 90
  ontic invoke get-truth 0 --db ./ontic.db
  ontic invoke propose-truth --json '["sky is blue", 80]'
  ontic invoke --db ./ontic.db -- get-truth -1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeMethod(opts, args[0], args[1:], cmd)
		},
	}
	cmd.SetFlagErrorFunc(negativeArgHint)

	cmd.Flags().StringVar(&opts.JSONArgs, "json", "", "arguments as a JSON array")
	addRuntimeFlags(cmd)

	return cmd
}

func invokeMethod(opts *InvokeOptions, method string, raw []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer s.Close()

	args, err := parseCallArgs(s.contracts.Catalog, method, raw, opts.JSONArgs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	res, err := s.runtime.Call(ctx, method, args...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("call not recorded: %v", err), nil)
	}

	out := InvokeResult{
		Method:    method,
		FlowToken: s.runtime.Flow(),
		Seq:       s.runtime.Clock().Current() - 1,
		Result:    res,
	}

	if !res.Success {
		return formatter.FailWith(ExitFailure, out, string(res.Err.Kind), res.Err.Message, func(w io.Writer) {
			fmt.Fprintln(w, formatWire(res))
		})
	}
	return formatter.Emit(out, func(w io.Writer) {
		fmt.Fprintln(w, formatWire(res))
	})
}

// formatWire renders the wire form of res as canonical JSON.
func formatWire(res contract.Result) string {
	return canonicalText(res.Wire())
}

// parseCallArgs converts command-line arguments to IR values. jsonArgs,
// when set, must be a JSON array and replaces the positional arguments.
func parseCallArgs(catalog *contract.Catalog, method string, raw []string, jsonArgs string) (ir.List, error) {
	if jsonArgs != "" {
		if len(raw) > 0 {
			return nil, fmt.Errorf("use either positional arguments or --json, not both")
		}
		v, err := ir.ParseJSON([]byte(jsonArgs))
		if err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
		list, ok := v.(ir.List)
		if !ok {
			return nil, fmt.Errorf("invalid --json: expected an array, got %s", ir.TypeOf(v))
		}
		if err := checkArgs(list); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
		return list, nil
	}

	sig, _, _ := catalog.Lookup(method)
	args := make(ir.List, len(raw))
	for i, s := range raw {
		typ := ir.TypeString
		if i < len(sig.Args) {
			typ = sig.Args[i].Type
		}
		args[i] = parseArg(typ, s)
	}
	return args, nil
}

// parseArg parses s as typ. Text that does not parse is passed through as a
// string so the runtime reports the mismatch like any other caller's.
func parseArg(typ, s string) ir.Value {
	switch typ {
	case ir.TypeInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ir.Int(n)
		}
	case ir.TypeBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return ir.Bool(b)
		}
	case ir.TypeArray, ir.TypeObject:
		if v, err := ir.ParseJSON([]byte(s)); err == nil && ir.TypeOf(v) == typ {
			return v
		}
	}
	return ir.Str(s)
}

// checkArgs rejects argument lists the journal cannot record.
func checkArgs(args ir.List) error {
	if args == nil {
		return nil
	}
	if _, err := ir.MarshalVerbatim(args); err != nil {
		return fmt.Errorf("args: %w", err)
	}
	return nil
}

// negativeArgHint turns pflag's "unknown shorthand flag" for a numeric
// argument into a command error that says how to pass it.
func negativeArgHint(_ *cobra.Command, err error) error {
	msg := err.Error()
	if i := strings.LastIndex(msg, " in -"); i >= 0 {
		arg := msg[i+len(" in "):]
		if _, perr := strconv.ParseInt(arg, 10, 64); perr == nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("%s looks like a negative number; pass it after --, e.g. ontic invoke -- get-truth %s", arg, arg), err)
		}
	}
	return WrapExitError(ExitCommandError, "invalid flags", err)
}
