package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/engine"
	"github.com/roach88/ontic/internal/ir"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// FlowGenerator overrides the flow token generator (for testing).
	// If nil, flows get UUIDv7 tokens.
	FlowGenerator engine.FlowTokenGenerator
}

// callRequest is one input line of the run command.
type callRequest struct {
	Method string  `json:"method"`
	Args   ir.List `json:"args"`
}

// maxLineSize bounds one request line.
const maxLineSize = 1 << 20

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve calls read from stdin, one JSON object per line",
		Long: `Start the runtime and serve calls read from stdin.

Each input line is {"method": "...", "args": [...]}. Each call is answered
with one line on stdout holding its wire result, {"success": true, "value": v}
or {"success": false, "error": code-or-message}, in input order. All calls of
one run share a flow token.

With --db the journal is replayed at start and every call is appended.
The runtime stops at end of input or on SIGINT/SIGTERM.

Example:
  printf '%s\n' '{"method":"propose-truth","args":["water is wet",90]}' | ontic run --db ./ontic.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuntime(opts, cmd)
		},
	}

	addRuntimeFlags(cmd)

	return cmd
}

func runRuntime(opts *RunOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var extra []engine.Option
	if opts.FlowGenerator != nil {
		extra = append(extra, engine.WithFlowGenerator(opts.FlowGenerator))
	}
	s, err := openSession(ctx, opts.RootOptions, extra...)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer s.Close()

	rt := s.runtime
	rt.NewFlow()

	done := make(chan error, 1)
	go func() {
		done <- rt.Run(ctx)
	}()

	logger.Info("runtime started", "db", opts.Config.Database, "contracts", s.contracts.Name(), "flow", rt.Flow())

	serveErr := serveLines(ctx, rt, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	rt.Stop()
	runErr := <-done

	if serveErr != nil {
		return WrapExitError(ExitFailure, "runtime error", serveErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "runtime error", runErr)
	}

	logger.Info("runtime stopped gracefully")
	return nil
}

// serveLines submits each request line to rt and writes one response line
// per request, in order. A malformed line is answered and skipped; a call the
// runtime could not process ends the loop.
func serveLines(ctx context.Context, rt *engine.Runtime, in io.Reader, out io.Writer, logger *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	enc := json.NewEncoder(out)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var req callRequest
		if msg := decodeRequest(text, &req); msg != "" {
			logger.Warn("invalid request", "line", line, "error", msg)
			if err := enc.Encode(ir.Object{
				"success": ir.Bool(false),
				"error":   ir.Str(fmt.Sprintf("invalid request on line %d: %s", line, msg)),
			}); err != nil {
				return err
			}
			continue
		}

		var reply engine.Reply
		select {
		case reply = <-rt.Submit(req.Method, req.Args...):
		case <-ctx.Done():
			return nil
		}
		if reply.Err != nil {
			if errors.Is(reply.Err, context.Canceled) || engine.IsStopped(reply.Err) {
				return nil
			}
			return reply.Err
		}
		if err := enc.Encode(reply.Result); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// decodeRequest parses one request line. It returns a non-empty message when
// the line cannot be submitted.
func decodeRequest(text []byte, req *callRequest) string {
	if err := json.Unmarshal(text, req); err != nil {
		return err.Error()
	}
	if req.Method == "" {
		return "missing method"
	}
	if err := checkArgs(req.Args); err != nil {
		return err.Error()
	}
	return ""
}
