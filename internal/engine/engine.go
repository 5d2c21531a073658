package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/ontic/internal/contract"
	"github.com/roach88/ontic/internal/ir"
	"github.com/roach88/ontic/internal/registry"
)

// Runtime owns the registries and executes calls against them.
//
// Thread-safety model:
//   - Call, Execute, Reset, Replay: safe from any goroutine, serialised by mu
//   - Submit: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Runtime struct {
	mu sync.Mutex

	set      *registry.Set
	setOpts  []registry.SetOption
	catalog  *contract.Catalog
	clock    *Clock
	flowGen  FlowTokenGenerator
	flow     string
	journal  Journal
	specHash string
	logger   *slog.Logger
	queue    *requestQueue
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithJournal records every call and outcome to j.
func WithJournal(j Journal) Option {
	return func(r *Runtime) {
		r.journal = j
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithFlowGenerator sets the flow token source. Defaults to UUIDv7Generator.
func WithFlowGenerator(g FlowTokenGenerator) Option {
	return func(r *Runtime) {
		r.flowGen = g
	}
}

// WithClock sets the logical clock, e.g. NewClockAt to resume a journal.
func WithClock(c *Clock) Option {
	return func(r *Runtime) {
		r.clock = c
	}
}

// WithSharedIDs makes truths and realities draw from one identifier counter.
func WithSharedIDs() Option {
	return func(r *Runtime) {
		r.setOpts = append(r.setOpts, registry.WithSharedAllocator())
	}
}

// WithSpecHash stamps journaled calls with the hash of the contract sources.
func WithSpecHash(h string) Option {
	return func(r *Runtime) {
		r.specHash = h
	}
}

// New creates a Runtime with empty registries.
func New(catalog *contract.Catalog, opts ...Option) *Runtime {
	r := &Runtime{
		catalog: catalog,
		clock:   NewClock(),
		flowGen: UUIDv7Generator{},
		logger:  slog.Default(),
		queue:   newRequestQueue(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.set = registry.NewSet(r.setOpts...)
	return r
}

// Catalog returns the contract catalog calls are decoded against.
func (r *Runtime) Catalog() *contract.Catalog {
	return r.catalog
}

// Truths returns the truth registry.
func (r *Runtime) Truths() *registry.TruthRegistry {
	return r.set.Truths
}

// Realities returns the reality registry.
func (r *Runtime) Realities() *registry.RealityRegistry {
	return r.set.Realities
}

// Clock returns the runtime's logical clock.
func (r *Runtime) Clock() *Clock {
	return r.clock
}

// NewFlow starts a new flow; subsequent calls carry its token.
func (r *Runtime) NewFlow() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flow = r.flowGen.Generate()
	return r.flow
}

// Flow returns the current flow token, or "" before the first call.
func (r *Runtime) Flow() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flow
}

// Reset empties both registries and restarts identifier numbering. The
// clock keeps running. Refused while a journal is attached, since the journal
// would no longer replay to the registry state.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.journal != nil {
		return &RuntimeError{Code: ErrCodeJournaled, Message: "cannot reset a journaled runtime"}
	}
	r.set.Reset()
	r.logger.Debug("registries reset")
	return nil
}

// Call decodes a wire call and executes it.
//
// The returned Result reports contract-level success or failure. The error is
// non-nil only when the runtime could not process the call: ctx was done, or
// the journal write failed.
func (r *Runtime) Call(ctx context.Context, method string, args ...ir.Value) (contract.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.process(ctx, request{method: method, args: ir.List(args)})
}

// Execute runs a typed operation.
func (r *Runtime) Execute(ctx context.Context, op contract.Operation) (contract.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.process(ctx, request{op: op})
}

// Submit queues a wire call for the Run loop. The reply channel receives
// exactly one Reply.
func (r *Runtime) Submit(method string, args ...ir.Value) <-chan Reply {
	return r.submit(request{method: method, args: ir.List(args)})
}

// SubmitOp queues a typed operation for the Run loop.
func (r *Runtime) SubmitOp(op contract.Operation) <-chan Reply {
	return r.submit(request{op: op})
}

func (r *Runtime) submit(req request) <-chan Reply {
	req.reply = make(chan Reply, 1)
	if !r.queue.Enqueue(req) {
		req.reply <- Reply{Err: &RuntimeError{Code: ErrCodeStopped, Message: "runtime stopped"}}
	}
	return req.reply
}

// Run drains submitted calls until ctx is cancelled or Stop is called.
// Must be called from exactly one goroutine. Calls still queued when ctx is
// cancelled are answered with ctx's error.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("runtime starting")

	for {
		if req, ok := r.queue.TryDequeue(); ok {
			r.mu.Lock()
			res, err := r.process(ctx, req)
			r.mu.Unlock()
			req.reply <- Reply{Result: res, Err: err}
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info("runtime stopping: context cancelled")
			r.queue.Close()
			r.drain(ctx.Err())
			return ctx.Err()

		case <-r.queue.Wait():
			if r.queue.Closed() && r.queue.Len() == 0 {
				r.logger.Info("runtime stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run finishes what is already queued, then returns.
func (r *Runtime) Stop() {
	r.queue.Close()
}

func (r *Runtime) drain(err error) {
	for {
		req, ok := r.queue.TryDequeue()
		if !ok {
			return
		}
		req.reply <- Reply{Err: err}
	}
}

// process executes one call. Caller holds mu.
func (r *Runtime) process(ctx context.Context, req request) (contract.Result, error) {
	if err := ctx.Err(); err != nil {
		return contract.Result{}, err
	}
	if r.flow == "" {
		r.flow = r.flowGen.Generate()
	}

	method, args := req.method, req.args
	if req.op != nil {
		method, args = req.op.Method(), req.op.Args()
	}
	if args == nil {
		args = ir.List{}
	}
	// Text that has no JSON encoding can be neither hashed nor journaled.
	if err := ir.CheckText(args); err != nil {
		r.logger.Debug("call rejected", "method", method, "flow", r.flow, "error", err)
		return contract.Fail(contract.InvalidArgs("%s: %v", method, err)), nil
	}

	seq := r.clock.Next()
	callID, err := ir.CallID(r.flow, method, args, seq)
	if err != nil {
		return contract.Result{}, err
	}
	call := ir.Call{
		ID:            callID,
		FlowToken:     r.flow,
		Contract:      r.catalog.Contract(method),
		Method:        method,
		Args:          args,
		Seq:           seq,
		SpecHash:      r.specHash,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}

	if r.journal != nil {
		if err := r.journal.WriteCall(ctx, call); err != nil {
			r.logger.Error("journal call failed", "method", method, "flow", r.flow, "seq", seq, "error", err)
			return contract.Result{}, newJournalError("call", r.flow, seq, err)
		}
	}

	op := req.op
	var res contract.Result
	if op == nil {
		var cerr *contract.CallError
		op, cerr = r.catalog.Decode(method, args)
		if cerr != nil {
			res = contract.Fail(cerr)
		}
	}
	if op != nil {
		res = contract.Apply(r.set, op)
	}

	outSeq := r.clock.Next()
	outCase, result := res.Outcome()

	r.logger.Debug("call",
		"method", method,
		"flow", r.flow,
		"seq", seq,
		"case", outCase,
	)

	if r.journal == nil {
		return res, nil
	}
	outID, err := ir.OutcomeID(callID, outCase, result, outSeq)
	if err != nil {
		return res, err
	}
	outcome := ir.Outcome{ID: outID, CallID: callID, Case: outCase, Result: result, Seq: outSeq}
	if err := r.journal.WriteOutcome(ctx, outcome); err != nil {
		r.logger.Error("journal outcome failed", "method", method, "flow", r.flow, "seq", outSeq, "error", err)
		// The registries already reflect the call; the result is still valid.
		return res, newJournalError("outcome", r.flow, outSeq, err)
	}
	return res, nil
}
